package outbox

import (
	"context"
	"errors"
	"fmt"

	"loanapp-backend/internal/domain/applicant"
	"loanapp-backend/internal/domain/event"
	domain "loanapp-backend/internal/domain/outbox"

	"github.com/cenkalti/backoff/v5"
)

// ApproveLoanListener consumes approve-loan events.
type ApproveLoanListener interface {
	HandleApproveLoanEvent(ctx context.Context, ev event.ApproveLoanEvent) error
}

// ListenerSink delivers messages to an in-process listener.
type ListenerSink struct {
	listener ApproveLoanListener
}

func NewListenerSink(l ApproveLoanListener) *ListenerSink { return &ListenerSink{listener: l} }

func (s *ListenerSink) Deliver(ctx context.Context, m domain.Message) error {
	return Dispatch(ctx, s.listener, m.EventType, []byte(m.Payload))
}

// Dispatch decodes payload and hands it to the listener. Errors that retrying
// cannot fix come back as backoff.Permanent.
func Dispatch(ctx context.Context, l ApproveLoanListener, eventType string, payload []byte) error {
	if eventType != event.TypeApproveLoan {
		return backoff.Permanent(fmt.Errorf("unknown event type %q", eventType))
	}
	ev, err := event.DecodeApproveLoan(payload)
	if err != nil {
		return backoff.Permanent(err)
	}
	if err := l.HandleApproveLoanEvent(ctx, ev); err != nil {
		if errors.Is(err, applicant.ErrNotFound) {
			return backoff.Permanent(fmt.Errorf("applicant %s: %w", ev.ApplicantEmail, err))
		}
		return err
	}
	return nil
}
