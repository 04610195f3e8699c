package uow

import (
	"context"

	"loanapp-backend/internal/domain/applicant"
	"loanapp-backend/internal/domain/outbox"
)

// Repos are bound to the same transaction.
type Repos struct {
	Applicants applicant.Repository
	Outbox     outbox.Repository
}

type UnitOfWork interface {
	// WithinTx commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(r Repos) error) error
}
