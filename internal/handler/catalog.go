package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/repository"
)

// CatalogHandler lets administrators populate the read model the venue
// engine resolves against: areas, sponsors, fee schedules and add-on
// services.
type CatalogHandler struct {
	Repo *repository.CatalogRepo
}

// NewCatalogHandler constructs a CatalogHandler and panics on a nil repo.
func NewCatalogHandler(repo *repository.CatalogRepo) *CatalogHandler {
	if repo == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Repo: repo}
}

func catalogError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already exists", "code": "duplicate"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found", "code": "not_found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error", "code": "internal"})
	}
}

// CreateArea handles POST /v1/venue/admin/areas.
func (h *CatalogHandler) CreateArea(c echo.Context) error {
	var body struct {
		Name      string          `json:"name"`
		Kind      string          `json:"kind"`
		Active    *bool           `json:"active"`
		Extension json.RawMessage `json:"extension"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		return badRequest(c, "name is required")
	}
	kind := model.AreaKind(strings.ToUpper(strings.TrimSpace(body.Kind)))
	ext, err := model.DecodeAreaExtension(kind, body.Extension)
	if err != nil {
		return badRequest(c, err.Error())
	}
	area := &model.Area{Name: body.Name, Kind: kind, Active: body.Active == nil || *body.Active, Ext: ext}
	if err := h.Repo.CreateArea(c.Request().Context(), area); err != nil {
		return catalogError(c, err)
	}
	return c.JSON(http.StatusCreated, area)
}

// ListAreas handles GET /v1/venue/admin/areas.
func (h *CatalogHandler) ListAreas(c echo.Context) error {
	areas, err := h.Repo.ListAreas(c.Request().Context())
	if err != nil {
		return catalogError(c, err)
	}
	if areas == nil {
		areas = []model.Area{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": areas})
}

// CreateSponsor handles POST /v1/venue/admin/sponsors.
func (h *CatalogHandler) CreateSponsor(c echo.Context) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(body.Name) == "" {
		return badRequest(c, "name is required")
	}
	sponsor := &model.Collaboration{Name: strings.TrimSpace(body.Name), Active: true}
	if err := h.Repo.CreateCollaboration(c.Request().Context(), sponsor); err != nil {
		return catalogError(c, err)
	}
	return c.JSON(http.StatusCreated, sponsor)
}

// ListSponsors handles GET /v1/venue/admin/sponsors.
func (h *CatalogHandler) ListSponsors(c echo.Context) error {
	list, err := h.Repo.ListCollaborations(c.Request().Context())
	if err != nil {
		return catalogError(c, err)
	}
	if list == nil {
		list = []model.Collaboration{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// CreateFeeConfig handles POST /v1/venue/admin/fee-configs.  Omitted
// multipliers default to 1.
func (h *CatalogHandler) CreateFeeConfig(c echo.Context) error {
	var body struct {
		AreaID            uint64           `json:"area_id"`
		HourlyRate        decimal.Decimal  `json:"hourly_rate"`
		MinHours          decimal.Decimal  `json:"min_hours"`
		OvertimeRate      decimal.Decimal  `json:"overtime_rate"`
		HolidayMultiplier *decimal.Decimal `json:"holiday_multiplier"`
		WeekendMultiplier *decimal.Decimal `json:"weekend_multiplier"`
		EffectiveDate     time.Time        `json:"effective_date"`
		ExpiryDate        *time.Time       `json:"expiry_date"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.AreaID == 0 || body.EffectiveDate.IsZero() {
		return badRequest(c, "area_id and effective_date are required")
	}
	one := decimal.NewFromInt(1)
	cfg := &model.FeeConfig{
		AreaID:            body.AreaID,
		HourlyRate:        body.HourlyRate,
		MinHours:          body.MinHours,
		OvertimeRate:      body.OvertimeRate,
		HolidayMultiplier: one,
		WeekendMultiplier: one,
		EffectiveDate:     body.EffectiveDate,
		ExpiryDate:        body.ExpiryDate,
		Active:            true,
	}
	if body.HolidayMultiplier != nil {
		cfg.HolidayMultiplier = *body.HolidayMultiplier
	}
	if body.WeekendMultiplier != nil {
		cfg.WeekendMultiplier = *body.WeekendMultiplier
	}
	for _, d := range []decimal.Decimal{cfg.HourlyRate, cfg.MinHours, cfg.OvertimeRate, cfg.HolidayMultiplier, cfg.WeekendMultiplier} {
		if d.IsNegative() {
			return badRequest(c, "rates and multipliers must not be negative")
		}
	}
	if cfg.ExpiryDate != nil && !cfg.ExpiryDate.After(cfg.EffectiveDate) {
		return badRequest(c, "expiry_date must be after effective_date")
	}
	if _, err := h.Repo.GetArea(c.Request().Context(), cfg.AreaID); err != nil {
		return catalogError(c, err)
	}
	if err := h.Repo.CreateFeeConfig(c.Request().Context(), cfg); err != nil {
		return catalogError(c, err)
	}
	return c.JSON(http.StatusCreated, cfg)
}

// ListFeeConfigs handles GET /v1/venue/admin/fee-configs?area_id=.
func (h *CatalogHandler) ListFeeConfigs(c echo.Context) error {
	areaID, err := optionalID(c, "area_id")
	if err != nil || areaID == nil {
		return badRequest(c, "area_id is required")
	}
	list, err := h.Repo.ListFeeConfigs(c.Request().Context(), *areaID)
	if err != nil {
		return catalogError(c, err)
	}
	if list == nil {
		list = []model.FeeConfig{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// CreateService handles POST /v1/venue/admin/services.
func (h *CatalogHandler) CreateService(c echo.Context) error {
	var body struct {
		Name        string          `json:"service_name"`
		Fee         decimal.Decimal `json:"service_fee"`
		Unit        string          `json:"billing_unit"`
		Description string          `json:"description"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	svc := &model.AdditionalService{
		Name:        strings.TrimSpace(body.Name),
		Fee:         body.Fee,
		Unit:        model.BillingUnit(strings.ToUpper(strings.TrimSpace(body.Unit))),
		Description: body.Description,
		Active:      true,
	}
	if svc.Unit == "" {
		svc.Unit = model.UnitFixed
	}
	if svc.Name == "" || svc.Fee.IsNegative() || !svc.Unit.Valid() {
		return badRequest(c, "service_name, a non-negative service_fee and a known billing_unit are required")
	}
	if err := h.Repo.CreateService(c.Request().Context(), svc); err != nil {
		return catalogError(c, err)
	}
	return c.JSON(http.StatusCreated, svc)
}

// ListServices handles GET /v1/venue/admin/services.
func (h *CatalogHandler) ListServices(c echo.Context) error {
	list, err := h.Repo.ListActiveServices(c.Request().Context())
	if err != nil {
		return catalogError(c, err)
	}
	if list == nil {
		list = []model.AdditionalService{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}
