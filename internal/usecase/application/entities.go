package application

import (
	"github.com/shopspring/decimal"
)

type SubmitInput struct {
	FirstName      string
	LastName       string
	Email          string
	LoanAmount     decimal.Decimal
	Tenor          int
	MonthlyIncome  decimal.Decimal
	MonthlyPayment decimal.Decimal
}

// Confirmation carries no id or status: the decision is made asynchronously.
type Confirmation struct {
	Message string `json:"message"`
}

const SubmittedMessage = "Application received successfully"

type ApplicantSummary struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	MonthlyIncome  *decimal.Decimal `json:"monthlyIncome"`
	Tenor          int              `json:"tenor"`
	Email          string           `json:"email"`
	RequestLoan    *decimal.Decimal `json:"requestLoan"`
	LoanStatus     string           `json:"loanStatus"`
	AmountCredited *decimal.Decimal `json:"amountCredited"`
}

type ApplicantPage struct {
	Content       []ApplicantSummary `json:"content"`
	Page          int                `json:"page"`
	Size          int                `json:"size"`
	TotalElements int64              `json:"totalElements"`
	TotalPages    int                `json:"totalPages"`
}

const (
	DefaultPageSize = 100
	MaxPageSize     = 500
)
