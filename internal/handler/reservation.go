package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/middleware"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/service"
)

// VenueHandler exposes the venue engine over HTTP.  All methods assume
// that JWT authentication and role checks were done by middleware where
// the route requires them.
type VenueHandler struct {
	Svc *service.VenueService
}

// NewVenueHandler constructs a VenueHandler and panics on a nil service.
func NewVenueHandler(svc *service.VenueService) *VenueHandler {
	if svc == nil {
		panic("nil service passed to NewVenueHandler")
	}
	return &VenueHandler{Svc: svc}
}

// SubmitReservation handles POST /v1/venue/reservations.
func (h *VenueHandler) SubmitReservation(c echo.Context) error {
	var req service.SubmitRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.OperatorID = middleware.OperatorID(c)
	res, err := h.Svc.SubmitReservation(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// ListReservations handles GET /v1/venue/reservations?status=.
func (h *VenueHandler) ListReservations(c echo.Context) error {
	var status *model.ReservationStatus
	if v := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); v != "" {
		s := model.ReservationStatus(v)
		status = &s
	}
	rows, err := h.Svc.GetReservationsByStatus(c.Request().Context(), status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rows, "total": len(rows)})
}

// GetReservation handles GET /v1/venue/reservations/:eventId.
func (h *VenueHandler) GetReservation(c echo.Context) error {
	id, err := pathID(c, "eventId")
	if err != nil {
		return badRequest(c, err.Error())
	}
	view, err := h.Svc.GetReservation(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// DecideReservation handles PUT /v1/venue/reservations/approval.
func (h *VenueHandler) DecideReservation(c echo.Context) error {
	var req service.ApproveRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.Decision = model.ReservationStatus(strings.ToUpper(string(req.Decision)))
	req.OperatorID = middleware.OperatorID(c)
	detail, err := h.Svc.ApproveReservation(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// CheckAvailability handles GET /v1/venue/availability?area_id&start&end.
func (h *VenueHandler) CheckAvailability(c echo.Context) error {
	areaID, err := optionalID(c, "area_id")
	if err != nil || areaID == nil {
		return badRequest(c, "area_id is required")
	}
	start, err := queryTime(c, "start")
	if err != nil {
		return badRequest(c, err.Error())
	}
	end, err := queryTime(c, "end")
	if err != nil {
		return badRequest(c, err.Error())
	}
	av, err := h.Svc.CheckAvailability(c.Request().Context(), *areaID, start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, av)
}

// ListServices handles GET /v1/venue/services.
func (h *VenueHandler) ListServices(c echo.Context) error {
	services, err := h.Svc.GetAvailableServices(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": services})
}
