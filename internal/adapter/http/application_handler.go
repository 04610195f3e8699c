package http

import (
	"context"
	"net/http"

	"loanapp-backend/internal/usecase/application"

	"github.com/labstack/echo/v4"
)

// ApplicationService is the part of the application usecase the handler calls.
type ApplicationService interface {
	Submit(ctx context.Context, in application.SubmitInput) (*application.Confirmation, error)
	List(ctx context.Context, page, size int) (*application.ApplicantPage, error)
}

type ApplicationHandler struct {
	uc ApplicationService
	cv *CustomValidator
}

func NewApplicationHandler(uc ApplicationService, cv *CustomValidator) *ApplicationHandler {
	return &ApplicationHandler{uc: uc, cv: cv}
}

func (h *ApplicationHandler) Apply(c echo.Context) error {
	var req applyReq
	if err := c.Bind(&req); err != nil {
		return errBadRequest("invalid body")
	}
	req.trim()
	if fe := validateApply(h.cv, &req); len(fe) > 0 {
		return &ValidationError{Fields: fe}
	}

	out, err := h.uc.Submit(c.Request().Context(), application.SubmitInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		LoanAmount:     *req.LoanAmount,
		Tenor:          req.Tenor,
		MonthlyIncome:  *req.MonthlyIncome,
		MonthlyPayment: *req.MonthlyPayment,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *ApplicationHandler) ListApplicants(c echo.Context) error {
	page, size := 0, application.DefaultPageSize
	if err := echo.QueryParamsBinder(c).
		Int("page", &page).
		Int("size", &size).
		BindError(); err != nil {
		return errBadRequest("page and size must be integers")
	}

	out, err := h.uc.List(c.Request().Context(), page, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}
