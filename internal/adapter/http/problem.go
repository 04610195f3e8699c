package http

import (
	"errors"
	"net/http"

	domain "loanapp-backend/internal/domain/applicant"
	"loanapp-backend/internal/usecase/application"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const MIMEProblemJSON = "application/problem+json"

// Problem is an RFC 7807 problem document.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// badRequest is a client error whose message is safe to echo back.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func errBadRequest(msg string) error { return &badRequest{msg: msg} }

// statusFor maps an error to its HTTP status and the detail shown to the client.
func statusFor(err error) (int, string) {
	var ve *ValidationError
	var br *badRequest
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Error()
	case errors.As(err, &br):
		return http.StatusBadRequest, br.msg
	case errors.Is(err, application.ErrInvalidPage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrDuplicate):
		return http.StatusConflict, domain.ErrDuplicate.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "applicant not found"
	case errors.Is(err, domain.ErrIneligible):
		return http.StatusUnprocessableEntity, domain.ErrIneligible.Error()
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "applicant was modified concurrently, retry the request"
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// ErrorHandler renders every error returned by a handler as a problem document.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, detail := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err))
		}
		if werr := writeProblem(c, status, detail); werr != nil {
			log.Warn("write problem response", zap.Error(werr))
		}
	}
}

func writeProblem(c echo.Context, status int, detail string) error {
	c.Response().Header().Set(echo.HeaderContentType, MIMEProblemJSON)
	p := Problem{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	}
	if c.Request().Method == http.MethodHead {
		return c.NoContent(status)
	}
	return c.JSON(status, p)
}
