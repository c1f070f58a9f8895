package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
	"github.com/mohammad-safakhou/onboarder/internal/onboarding"
	"github.com/mohammad-safakhou/onboarder/internal/store"
	"go.uber.org/zap"
)

type handler struct {
	svc     Onboarder
	metrics *metrics
	timeout time.Duration
	logger  *zap.Logger
}

type configureRequest struct {
	Description         string          `json:"description"`
	ConversationHistory json.RawMessage `json:"conversation_history"`
}

func (h *handler) configure(c echo.Context) error {
	var req configureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Description) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "description is required")
	}
	if len(req.ConversationHistory) > 0 && !json.Valid(req.ConversationHistory) {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation_history must be JSON")
	}

	ctx := c.Request().Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	started := time.Now()
	res, err := h.svc.Configure(ctx, onboarding.Request{
		Description:         req.Description,
		ConversationHistory: req.ConversationHistory,
	})
	if err != nil {
		var genErr *onboarding.GenerationError
		switch {
		case errors.Is(err, onboarding.ErrEmptyDescription):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.As(err, &genErr):
			h.metrics.observeConfigure(genErr.Path, "generation_error", started)
			return &echo.HTTPError{Code: http.StatusBadGateway, Message: "configuration could not be generated, please try again", Internal: err}
		default:
			h.metrics.observeConfigure("", "error", started)
			return err
		}
	}
	h.metrics.observeConfigure(res.Path, "ok", started)
	h.metrics.observeReport(res.Report)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":      true,
		"config":       res.Config,
		"config_id":    res.ConfigID,
		"redirect_url": res.RedirectURL,
		"path":         res.Path,
		"report":       res.Report,
	})
}

type normalizeRequest struct {
	Config       json.RawMessage `json:"config"`
	BusinessType string          `json:"business_type"`
	Template     *struct {
		BusinessType string `json:"business_type"`
		Family       string `json:"family"`
	} `json:"template"`
}

func (h *handler) normalize(c echo.Context) error {
	var req normalizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if len(req.Config) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "config is required")
	}
	cfg, err := dashboard.Decode(req.Config)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "config must be a JSON object")
	}
	businessType, family := req.BusinessType, ""
	if req.Template != nil {
		family = req.Template.Family
		if req.Template.BusinessType != "" {
			businessType = req.Template.BusinessType
		}
	}
	out, report, err := h.svc.Normalize(cfg, businessType, family)
	if errors.Is(err, onboarding.ErrUnknownTemplate) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return err
	}
	h.metrics.observeReport(report)
	return c.JSON(http.StatusOK, map[string]interface{}{"config": out, "report": report})
}

func (h *handler) detect(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	bt, family, ok := h.svc.Detect(q)
	return c.JSON(http.StatusOK, map[string]interface{}{"business_type": bt, "family": family, "matched": ok})
}

func (h *handler) getConfig(c echo.Context) error {
	rec, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, recordResponse(rec))
}

type updateRequest struct {
	Tabs         json.RawMessage `json:"tabs"`
	BusinessName *string         `json:"business_name"`
	BusinessType *string         `json:"business_type"`
}

func (h *handler) updateConfig(c echo.Context) error {
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	upd := store.ConfigUpdate{BusinessName: req.BusinessName, BusinessType: req.BusinessType}
	if len(req.Tabs) > 0 && string(req.Tabs) != "null" {
		var tabs []dashboard.Tab
		if err := json.Unmarshal(req.Tabs, &tabs); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "tabs must be an array of tabs")
		}
		if tabs == nil {
			tabs = []dashboard.Tab{}
		}
		upd.Tabs = tabs
	}
	rec, err := h.svc.Update(c.Request().Context(), c.Param("id"), upd)
	if err != nil {
		return storeError(err)
	}
	if sub, ok := SubjectFromContext(c.Request().Context()); ok {
		h.logger.Info("configuration updated", zap.String("config_id", rec.ID), zap.String("subject", sub))
	}
	return c.JSON(http.StatusOK, recordResponse(rec))
}

func recordResponse(rec store.ConfigRecord) map[string]interface{} {
	return map[string]interface{}{
		"success":       true,
		"config_id":     rec.ID,
		"config":        rec.Config,
		"platform_tabs": rec.PlatformTabs,
		"created_at":    rec.CreatedAt,
		"updated_at":    rec.UpdatedAt,
	}
}

func storeError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "config not found")
	}
	return err
}
