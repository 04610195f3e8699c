package applicant

import (
	"time"

	"github.com/shopspring/decimal"

	"loanapp-backend/pkg/id"
)

// incomeMultiple: income must be strictly greater than payment times this.
var incomeMultiple = decimal.NewFromInt(3)

// loanTermMonths is how far out the due date of an approved loan lies.
const loanTermMonths = 12

// IsEligible reports income > 3 * payment. Missing inputs are never eligible.
func IsEligible(monthlyIncome, monthlyPayment decimal.NullDecimal) bool {
	if !monthlyIncome.Valid || !monthlyPayment.Valid {
		return false
	}
	return monthlyIncome.Decimal.GreaterThan(monthlyPayment.Decimal.Mul(incomeMultiple))
}

// Eligible evaluates the rule on the applicant's stored figures.
func (a *Applicant) Eligible() bool {
	return IsEligible(a.MonthlyIncome.NullDecimal, a.MonthlyPayment.NullDecimal)
}

// ApplyApprovalDecision moves a DRAFT applicant to APPROVED or REJECTED.
// Callers must short-circuit terminal applicants before calling it.
func (a *Applicant) ApplyApprovalDecision(requested decimal.Decimal, now time.Time) {
	if !a.Eligible() {
		a.Status = StatusRejected
		a.CreditCheck = false
		return
	}
	a.Loan = &Loan{
		LoanID:      id.NewUUID(),
		ApplicantID: a.ID,
		Credited:    NewMoney(requested),
		DueDate:     now.UTC().AddDate(0, loanTermMonths, 0),
	}
	a.Status = StatusApproved
	a.Balance = NewMoney(requested)
	a.CreditCheck = true
}
