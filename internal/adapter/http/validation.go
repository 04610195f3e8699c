package http

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	domain "loanapp-backend/internal/domain/applicant"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field problem of one request.
type ValidationError struct{ Fields []FieldError }

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, ", ")
}

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names, not Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.v.Struct(i); err != nil {
		return &ValidationError{Fields: ToFieldErrors(err)}
	}
	return nil
}

// messages overrides the default text for field.tag pairs.
var messages = map[string]string{
	"firstName.notblank": "FirstName is required",
	"lastName.notblank":  "LastName is required",
	"email.notblank":     "email is required",
	"email.email":        "should be a valid email",
}

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		if msg, ok := messages[field+"."+e.Tag()]; ok {
			out = append(out, FieldError{Field: field, Message: msg})
			continue
		}
		switch e.Tag() {
		case "required", "notblank":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "email":
			out = append(out, FieldError{Field: field, Message: "should be a valid email"})
		case "uuid":
			out = append(out, FieldError{Field: field, Message: "must be a valid UUID"})
		case "gte":
			out = append(out, FieldError{Field: field, Message: "must be greater than or equal to " + e.Param()})
		case "lte":
			out = append(out, FieldError{Field: field, Message: "must be less than or equal to " + e.Param()})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}

type applyReq struct {
	FirstName      string           `json:"firstName"      validate:"notblank"`
	LastName       string           `json:"lastName"       validate:"notblank"`
	Email          string           `json:"email"          validate:"notblank,email"`
	LoanAmount     *decimal.Decimal `json:"loanAmount"     validate:"-"`
	Tenor          int              `json:"tenor"          validate:"gte=1,lte=12"`
	MonthlyIncome  *decimal.Decimal `json:"monthlyIncome"  validate:"-"`
	MonthlyPayment *decimal.Decimal `json:"monthlyPayment" validate:"-"`
}

func (r *applyReq) trim() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
}

// validateApply runs all field checks and returns every problem found, nil when the request is valid.
func validateApply(cv *CustomValidator, r *applyReq) []FieldError {
	var out []FieldError
	var ve *ValidationError
	if err := cv.Validate(r); errors.As(err, &ve) {
		out = append(out, ve.Fields...)
	}

	money := []struct {
		field string
		v     *decimal.Decimal
		msg   string
	}{
		{"loanAmount", r.LoanAmount, "Loan amount can't be null"},
		{"monthlyIncome", r.MonthlyIncome, "Monthly Income can't be null"},
		{"monthlyPayment", r.MonthlyPayment, "Monthly Payment can't be null"},
	}
	for _, m := range money {
		switch {
		case m.v == nil:
			out = append(out, FieldError{Field: m.field, Message: m.msg})
		case !m.v.Equal(m.v.Truncate(domain.MoneyScale)):
			out = append(out, FieldError{Field: m.field, Message: "must have at most " + strconv.Itoa(domain.MoneyScale) + " decimal places"})
		case !domain.MoneyFits(*m.v):
			out = append(out, FieldError{Field: m.field, Message: "must have at most " + strconv.Itoa(domain.MoneyIntDigits) + " integer digits"})
		}
	}
	if r.LoanAmount != nil && !r.LoanAmount.IsPositive() {
		out = append(out, FieldError{Field: "loanAmount", Message: "must be greater than 0"})
	}
	if r.MonthlyPayment != nil && r.MonthlyPayment.IsNegative() {
		out = append(out, FieldError{Field: "monthlyPayment", Message: "must not be negative"})
	}
	return out
}
