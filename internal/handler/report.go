package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/middleware"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/service"
)

// GenerateReport handles POST /v1/venue/reports.
func (h *VenueHandler) GenerateReport(c echo.Context) error {
	var req service.ReportRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Type = model.ReportType(strings.ToUpper(string(req.Type)))
	req.GeneratedBy = middleware.OperatorID(c)
	rep, err := h.Svc.GenerateReport(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, rep)
}

// ListReports handles GET /v1/venue/reports.
func (h *VenueHandler) ListReports(c echo.Context) error {
	reports, err := h.Svc.GetReports(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": reports})
}
