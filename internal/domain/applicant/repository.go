package applicant

import "context"

type Repository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Lookups return ErrNotFound when no row matches; the owned Loan is preloaded.
	GetByEmail(ctx context.Context, email string) (*Applicant, error)
	GetByApplicantID(ctx context.Context, applicantID string) (*Applicant, error)

	// Create a new applicant (DB uniqueness on email surfaces as ErrDuplicate)
	Create(ctx context.Context, a *Applicant) error

	// Save writes a loaded applicant guarded by its version; a stale version yields ErrConflict.
	Save(ctx context.Context, a *Applicant) error

	// List returns one page ordered by creation time (oldest first) and the total row count.
	List(ctx context.Context, offset, limit int) ([]Applicant, int64, error)
}
