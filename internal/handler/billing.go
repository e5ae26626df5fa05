package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-reservation/internal/middleware"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/service"
)

// CreateBilling handles POST /v1/venue/billings.
func (h *VenueHandler) CreateBilling(c echo.Context) error {
	var req service.CreateBillingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.OperatorID = middleware.OperatorID(c)
	b, err := h.Svc.CreateBilling(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// ConfirmBilling handles PUT /v1/venue/billings/:id/confirm.
func (h *VenueHandler) ConfirmBilling(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req service.ConfirmBillingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.BillingID = id
	req.PaymentMethod = strings.ToUpper(strings.TrimSpace(req.PaymentMethod))
	req.OperatorID = middleware.OperatorID(c)
	b, err := h.Svc.ConfirmBilling(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// ConfirmPayment handles PUT /v1/venue/billings/:id/payment.
func (h *VenueHandler) ConfirmPayment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req service.ConfirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	req.BillingID = id
	req.OperatorID = middleware.OperatorID(c)
	b, err := h.Svc.ConfirmPayment(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// VoidBilling handles PUT /v1/venue/billings/:id/void.
func (h *VenueHandler) VoidBilling(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	b, err := h.Svc.VoidBilling(c.Request().Context(), id, middleware.OperatorID(c), body.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// QuoteBilling handles POST /v1/venue/billings/:id/quote.  The optional body
// is a tagged discount rule such as {"type":"PERCENT","factor":"0.9"}.
func (h *VenueHandler) QuoteBilling(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, 64<<10))
	if err != nil {
		return badRequest(c, "invalid request body")
	}
	var discount model.Discount
	if len(strings.TrimSpace(string(raw))) > 0 {
		if discount, err = model.ParseDiscount(raw); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error(), "code": "invalid_discount"})
		}
	}
	q, err := h.Svc.QuoteBilling(c.Request().Context(), id, discount)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

// ListBillings handles GET /v1/venue/billings?status&event_id.
func (h *VenueHandler) ListBillings(c echo.Context) error {
	var status *model.BillingStatus
	if v := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); v != "" {
		s := model.BillingStatus(v)
		status = &s
	}
	eventID, err := optionalID(c, "event_id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	list, err := h.Svc.GetBillings(c.Request().Context(), status, eventID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list, "total": len(list)})
}

// GetBilling handles GET /v1/venue/billings/:id.
func (h *VenueHandler) GetBilling(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	view, err := h.Svc.GetBilling(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}
