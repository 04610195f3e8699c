package http

import (
	"context"
	"net/http"

	domain "loanapp-backend/internal/domain/applicant"
	"loanapp-backend/pkg/id"

	"github.com/labstack/echo/v4"
)

type ApprovalService interface {
	Approve(ctx context.Context, applicantID string) (domain.Status, error)
}

type ApprovalHandler struct{ uc ApprovalService }

func NewApprovalHandler(uc ApprovalService) *ApprovalHandler { return &ApprovalHandler{uc: uc} }

// approveReq is accepted for compatibility; the decision ignores it.
type approveReq struct {
	Status string `json:"status"`
}

type approveResp struct {
	ApplicantID string `json:"applicantId"`
	Status      string `json:"status"`
}

func (h *ApprovalHandler) Approve(c echo.Context) error {
	applicantID, ok := id.NormalizeUUID(c.Param("applicantId"))
	if !ok {
		return &ValidationError{Fields: []FieldError{{Field: "applicantId", Message: "must be a valid UUID"}}}
	}
	var req approveReq
	if err := c.Bind(&req); err != nil {
		return errBadRequest("invalid body")
	}

	status, err := h.uc.Approve(c.Request().Context(), applicantID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, approveResp{ApplicantID: applicantID, Status: string(status)})
}
