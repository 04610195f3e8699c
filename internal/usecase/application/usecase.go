package application

import (
	"context"
	"errors"
	"fmt"

	domain "loanapp-backend/internal/domain/applicant"
	"loanapp-backend/internal/domain/event"
	"loanapp-backend/internal/domain/outbox"
	"loanapp-backend/internal/domain/uow"
	"loanapp-backend/internal/infrastructure/metrics"
	"loanapp-backend/pkg/id"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrInvalidPage = errors.New("page and size must not be negative")

// Notifier is told that new outbox rows were committed.
type Notifier interface{ Notify() }

type Usecase struct {
	repo     domain.Repository
	uow      uow.UnitOfWork
	notifier Notifier
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// NewUsecase: notifier, metrics and log may be nil.
func NewUsecase(repo domain.Repository, tx uow.UnitOfWork, notifier Notifier, m *metrics.Metrics, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repo: repo, uow: tx, notifier: notifier, metrics: m, log: log}
}

// Submit registers a DRAFT applicant and queues its approval in the same transaction.
func (u *Usecase) Submit(ctx context.Context, in SubmitInput) (*Confirmation, error) {
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		exists, err := r.Applicants.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return domain.ErrDuplicate
		}

		// Pre-screen: ineligible requests never reach the store.
		if !domain.IsEligible(decimal.NewNullDecimal(in.MonthlyIncome), decimal.NewNullDecimal(in.MonthlyPayment)) {
			return domain.ErrIneligible
		}

		a := &domain.Applicant{
			ApplicantID:       id.NewUUID(),
			FirstName:         in.FirstName,
			LastName:          in.LastName,
			Email:             in.Email,
			MonthlyIncome:     domain.NewMoney(in.MonthlyIncome),
			RequestLoanAmount: domain.NewMoney(in.LoanAmount),
			MonthlyPayment:    domain.NewMoney(in.MonthlyPayment),
			Tenor:             in.Tenor,
			Status:            domain.StatusDraft,
		}
		if err := r.Applicants.Create(ctx, a); err != nil {
			return err
		}

		payload, err := event.ApproveLoanEvent{ApplicantEmail: a.Email, AmountRequested: in.LoanAmount}.Encode()
		if err != nil {
			return err
		}
		return r.Outbox.Enqueue(ctx, &outbox.Message{
			MessageID:   id.NewID32(),
			EventType:   event.TypeApproveLoan,
			AggregateID: a.Email,
			Payload:     payload,
			Status:      outbox.StatusPending,
		})
	})
	if err != nil {
		u.metrics.ObserveSubmission(submissionOutcome(err))
		return nil, err
	}

	u.metrics.ObserveSubmission("accepted")
	u.log.Info("application submitted", zap.String("email", in.Email))
	if u.notifier != nil {
		u.notifier.Notify()
	}
	return &Confirmation{Message: SubmittedMessage}, nil
}

func submissionOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicate):
		return "duplicate"
	case errors.Is(err, domain.ErrIneligible):
		return "ineligible"
	default:
		return "error"
	}
}

// List returns applicants oldest first. page is zero-based; size 0 means
// DefaultPageSize and anything above MaxPageSize is capped.
func (u *Usecase) List(ctx context.Context, page, size int) (*ApplicantPage, error) {
	if page < 0 || size < 0 {
		return nil, ErrInvalidPage
	}
	switch {
	case size == 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	rows, total, err := u.repo.List(ctx, page*size, size)
	if err != nil {
		return nil, err
	}

	out := &ApplicantPage{
		Content:       make([]ApplicantSummary, 0, len(rows)),
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    int((total + int64(size) - 1) / int64(size)),
	}
	for i := range rows {
		a := &rows[i]
		out.Content = append(out.Content, ApplicantSummary{
			ID:             a.ApplicantID,
			Name:           a.FullName(),
			MonthlyIncome:  nullable(a.MonthlyIncome),
			Tenor:          a.Tenor,
			Email:          a.Email,
			RequestLoan:    nullable(a.RequestLoanAmount),
			LoanStatus:     string(a.Status),
			AmountCredited: nullable(a.Balance),
		})
	}
	return out, nil
}

func nullable(d domain.Money) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
