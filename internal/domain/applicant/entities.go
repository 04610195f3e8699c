package applicant

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("applicant not found")
	ErrDuplicate  = errors.New("You are an already registered applicant")
	ErrIneligible = errors.New("To qualify for a loan, your monthly income must be three(3) times more than your monthly installments")
	// ErrConflict means the row changed between read and write; re-run the read-decide-write.
	ErrConflict = errors.New("applicant was modified concurrently, retry the request")
)

type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool { return s == StatusApproved || s == StatusRejected }

// Table: applicants
type Applicant struct {
	// Internal numeric PK
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Public identifier (UUID)
	ApplicantID       string              `gorm:"column:applicant_id;type:char(36);not null;uniqueIndex:ux_applicants_applicant_id"`
	FirstName         string              `gorm:"column:first_name;size:100;not null"`
	LastName          string              `gorm:"column:last_name;size:100;not null"`
	Email             string              `gorm:"column:email;size:255;not null;uniqueIndex:ux_applicants_email"`
	MonthlyIncome     Money               `gorm:"column:monthly_income"`
	RequestLoanAmount Money               `gorm:"column:request_loan_amount"`
	MonthlyPayment    Money               `gorm:"column:monthly_payment"`
	Tenor             int                 `gorm:"column:tenor;not null;default:1"`
	Status            Status              `gorm:"column:status;type:varchar(16);not null;default:'DRAFT';index"`
	CreditCheck       bool                `gorm:"column:credit_check;not null;default:false"`
	Balance           Money               `gorm:"column:balance"`
	Loan              *Loan               `gorm:"foreignKey:ApplicantID;references:ID"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	Version           int64               `gorm:"column:version;not null"`
}

func (Applicant) TableName() string { return "applicants" }

// FullName is the display name used in listings.
func (a *Applicant) FullName() string { return a.FirstName + " " + a.LastName }

// Table: loans. One row per approved applicant.
type Loan struct {
	ID     uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	LoanID string `gorm:"column:loan_id;type:char(36);not null;uniqueIndex:ux_loans_loan_id"`
	// FK to applicants.id (numeric)
	ApplicantID uint64          `gorm:"column:applicant_id;not null;uniqueIndex:ux_loans_applicant_id"`
	Credited    Money     `gorm:"column:credited;not null"`
	DueDate     time.Time       `gorm:"column:due_date;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Loan) TableName() string { return "loans" }
