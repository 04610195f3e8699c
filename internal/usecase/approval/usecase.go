package approval

import (
	"context"
	"time"

	domain "loanapp-backend/internal/domain/applicant"
	"loanapp-backend/internal/domain/event"
	"loanapp-backend/internal/domain/uow"
	"loanapp-backend/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

// Decision sources, used as a metrics label.
const (
	SourceAPI   = "api"
	SourceEvent = "event"
)

type Usecase struct {
	uow     uow.UnitOfWork
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

// NewUsecase: metrics and log may be nil.
func NewUsecase(tx uow.UnitOfWork, m *metrics.Metrics, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, metrics: m, log: log, now: time.Now}
}

// Approve decides a draft application synchronously and returns the resulting status.
// A decided application is returned as is. ErrConflict means a concurrent decision won.
func (u *Usecase) Approve(ctx context.Context, applicantID string) (domain.Status, error) {
	var (
		status  domain.Status
		decided *domain.Applicant
	)
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Applicants.GetByApplicantID(ctx, applicantID)
		if err != nil {
			return err
		}
		// REJECTED is final as well; a rejected applicant is never re-evaluated.
		if a.Status.Terminal() {
			status = a.Status
			return nil
		}

		a.ApplyApprovalDecision(a.RequestLoanAmount.Decimal, u.now())
		if err := r.Applicants.Save(ctx, a); err != nil {
			return err
		}
		status, decided = a.Status, a
		return nil
	})
	if err != nil {
		return "", err
	}
	if decided != nil {
		u.record(decided, SourceAPI)
	}
	return status, nil
}

// HandleApproveLoanEvent applies the decision for a queued application. Re-running it
// for a decided application is a no-op.
func (u *Usecase) HandleApproveLoanEvent(ctx context.Context, ev event.ApproveLoanEvent) error {
	var decided *domain.Applicant
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Applicants.GetByEmail(ctx, ev.ApplicantEmail)
		if err != nil {
			return err
		}
		if a.Status.Terminal() {
			u.log.Debug("application already decided",
				zap.String("email", a.Email), zap.String("status", string(a.Status)))
			return nil
		}

		a.ApplyApprovalDecision(ev.AmountRequested, u.now())
		if err := r.Applicants.Save(ctx, a); err != nil {
			return err
		}
		decided = a
		return nil
	})
	if err != nil {
		return err
	}
	if decided != nil {
		u.record(decided, SourceEvent)
	}
	return nil
}

func (u *Usecase) record(a *domain.Applicant, source string) {
	u.metrics.ObserveDecision(string(a.Status), source)
	u.log.Info("application decided",
		zap.String("applicant_id", a.ApplicantID),
		zap.String("email", a.Email),
		zap.String("status", string(a.Status)),
		zap.String("source", source))
}
