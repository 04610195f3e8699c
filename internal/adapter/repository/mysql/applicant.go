package mysql

import (
	"context"
	"errors"
	"time"

	applicantDomain "loanapp-backend/internal/domain/applicant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ApplicantRepository struct{ db *gorm.DB }

func NewApplicantRepository(db *gorm.DB) *ApplicantRepository { return &ApplicantRepository{db: db} }

func (r *ApplicantRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&applicantDomain.Applicant{}).
		Where("email = ?", email).
		Count(&n).Error
	return n > 0, err
}

func (r *ApplicantRepository) GetByEmail(ctx context.Context, email string) (*applicantDomain.Applicant, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *ApplicantRepository) GetByApplicantID(ctx context.Context, applicantID string) (*applicantDomain.Applicant, error) {
	return r.first(ctx, "applicant_id = ?", applicantID)
}

func (r *ApplicantRepository) first(ctx context.Context, query string, arg any) (*applicantDomain.Applicant, error) {
	var out applicantDomain.Applicant
	err := r.db.WithContext(ctx).Preload("Loan").Where(query, arg).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, applicantDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ApplicantRepository) Create(ctx context.Context, a *applicantDomain.Applicant) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return applicantDomain.ErrDuplicate
	}
	return err
}

// Save updates the applicant only if nobody bumped its version since it was read,
// then inserts the loan it gained from approval (if any).
func (r *ApplicantRepository) Save(ctx context.Context, a *applicantDomain.Applicant) error {
	now := time.Now().UTC()
	current := a.Version

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&applicantDomain.Applicant{}).
			Where("id = ? AND version = ?", a.ID, current).
			Updates(map[string]any{
				"first_name":          a.FirstName,
				"last_name":           a.LastName,
				"monthly_income":      a.MonthlyIncome,
				"request_loan_amount": a.RequestLoanAmount,
				"monthly_payment":     a.MonthlyPayment,
				"tenor":               a.Tenor,
				"status":              a.Status,
				"credit_check":        a.CreditCheck,
				"balance":             a.Balance,
				"updated_at":          now,
				"version":             current + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return applicantDomain.ErrConflict
		}

		if a.Loan != nil && a.Loan.ID == 0 {
			a.Loan.ApplicantID = a.ID
			if err := tx.Create(a.Loan).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return applicantDomain.ErrConflict
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	a.Version = current + 1
	a.UpdatedAt = now
	return nil
}

func (r *ApplicantRepository) List(ctx context.Context, offset, limit int) ([]applicantDomain.Applicant, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&applicantDomain.Applicant{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	out := make([]applicantDomain.Applicant, 0, limit)
	if total == 0 || int64(offset) >= total {
		return out, total, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Loan").
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, total, err
}
