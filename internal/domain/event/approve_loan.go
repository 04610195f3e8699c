package event

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const TypeApproveLoan = "ApproveLoanEvent"

// ApproveLoanEvent asks for the approval decision of a freshly submitted applicant.
type ApproveLoanEvent struct {
	ApplicantEmail  string          `json:"applicantEmail"`
	AmountRequested decimal.Decimal `json:"amountRequested"`
}

func (e ApproveLoanEvent) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", TypeApproveLoan, err)
	}
	return string(b), nil
}

func DecodeApproveLoan(payload []byte) (ApproveLoanEvent, error) {
	var e ApproveLoanEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return e, fmt.Errorf("decode %s: %w", TypeApproveLoan, err)
	}
	if e.ApplicantEmail == "" {
		return e, fmt.Errorf("decode %s: missing applicantEmail", TypeApproveLoan)
	}
	if !e.AmountRequested.IsPositive() {
		return e, fmt.Errorf("decode %s: amountRequested must be positive, got %s", TypeApproveLoan, e.AmountRequested)
	}
	return e, nil
}
