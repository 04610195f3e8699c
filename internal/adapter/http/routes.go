package http

import (
	"github.com/labstack/echo/v4"
)

// Routes bundles the handlers mounted by Register.
type Routes struct {
	Health      *Handler
	Application *ApplicationHandler
	Approval    *ApprovalHandler
	Metrics     echo.HandlerFunc
	// Idempotency wraps the mutating loan routes when set.
	Idempotency echo.MiddlewareFunc
}

func Register(e *echo.Echo, r Routes) {
	e.GET("/health", r.Health.Health)
	if r.Metrics != nil {
		e.GET("/metrics", r.Metrics)
	}

	var mw []echo.MiddlewareFunc
	if r.Idempotency != nil {
		mw = append(mw, r.Idempotency)
	}
	g := e.Group("/api/v1/loan")
	g.POST("/apply", r.Application.Apply, mw...)
	g.GET("/applicants", r.Application.ListApplicants)
	g.POST("/approve/:applicantId", r.Approval.Approve, mw...)
}
