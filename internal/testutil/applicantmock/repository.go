package applicantmock

import (
	"context"

	domain "loanapp-backend/internal/domain/applicant"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset lookups report domain.ErrNotFound; unset writes are no-ops.
type Repo struct {
	ExistsByEmailFn    func(ctx context.Context, email string) (bool, error)
	GetByEmailFn       func(ctx context.Context, email string) (*domain.Applicant, error)
	GetByApplicantIDFn func(ctx context.Context, applicantID string) (*domain.Applicant, error)
	CreateFn           func(ctx context.Context, a *domain.Applicant) error
	SaveFn             func(ctx context.Context, a *domain.Applicant) error
	ListFn             func(ctx context.Context, offset, limit int) ([]domain.Applicant, int64, error)
}

func (m *Repo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.ExistsByEmailFn != nil {
		return m.ExistsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *Repo) GetByEmail(ctx context.Context, email string) (*domain.Applicant, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByApplicantID(ctx context.Context, applicantID string) (*domain.Applicant, error) {
	if m.GetByApplicantIDFn != nil {
		return m.GetByApplicantIDFn(ctx, applicantID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Create(ctx context.Context, a *domain.Applicant) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, a *domain.Applicant) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, a)
	}
	return nil
}

func (m *Repo) List(ctx context.Context, offset, limit int) ([]domain.Applicant, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, offset, limit)
	}
	return []domain.Applicant{}, 0, nil
}
