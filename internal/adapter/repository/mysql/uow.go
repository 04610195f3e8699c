package mysql

import (
	"context"

	"loanapp-backend/internal/domain/applicant"
	"loanapp-backend/internal/domain/outbox"
	"loanapp-backend/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := uow.Repos{
			Applicants: &ApplicantRepository{db: tx},
			Outbox:     &OutboxRepository{db: tx},
		}
		return fn(r)
	})
}

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&applicant.Applicant{}, &applicant.Loan{}, &outbox.Message{})
}
