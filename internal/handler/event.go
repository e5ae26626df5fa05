package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/middleware"
	"github.com/iliyamo/venue-reservation/internal/service"
)

// UpdateEvent handles PUT /v1/venue/events/:eventId.
func (h *VenueHandler) UpdateEvent(c echo.Context) error {
	id, err := pathID(c, "eventId")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req service.UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.EventID = id
	req.OperatorID = middleware.OperatorID(c)
	ev, err := h.Svc.UpdateEvent(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

// CancelEvent handles DELETE /v1/venue/events/:eventId.  The reason may come
// in a JSON body or as ?reason=.
func (h *VenueHandler) CancelEvent(c echo.Context) error {
	id, err := pathID(c, "eventId")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var body struct {
		Reason string `json:"reason" query:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	ev, err := h.Svc.CancelEvent(c.Request().Context(), id, middleware.OperatorID(c), body.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

// EventLogs handles GET /v1/venue/events/:eventId/logs.
func (h *VenueHandler) EventLogs(c echo.Context) error {
	id, err := pathID(c, "eventId")
	if err != nil {
		return badRequest(c, err.Error())
	}
	entries, err := h.Svc.GetEventLog(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": entries})
}
