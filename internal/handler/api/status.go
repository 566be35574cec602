package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/javiersolana/crypto-swarm/internal/backtest"
	"github.com/javiersolana/crypto-swarm/internal/discovery"
	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	drepo "github.com/javiersolana/crypto-swarm/internal/domain/repository"
	"github.com/javiersolana/crypto-swarm/internal/usecase"
	xlogger "github.com/javiersolana/crypto-swarm/pkg/logger"
)

// StatusHandler exposes the operational surface: last cycle summary,
// entity management and backtest reports.
type StatusHandler struct {
	logger     *xlogger.Logger
	monitor    *usecase.Monitor
	registry   drepo.Registry
	evaluator  *backtest.Evaluator
	discoverer *discovery.Discoverer
}

func NewStatusHandler(logger *xlogger.Logger, monitor *usecase.Monitor, registry drepo.Registry, evaluator *backtest.Evaluator, discoverer *discovery.Discoverer) *StatusHandler {
	return &StatusHandler{
		logger:     logger,
		monitor:    monitor,
		registry:   registry,
		evaluator:  evaluator,
		discoverer: discoverer,
	}
}

func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/status", h.Status)
	g.GET("/backtest", h.Backtest)
	g.GET("/entities", h.ListEntities)
	g.POST("/entities", h.AddEntity)
	g.DELETE("/entities/:key", h.DeactivateEntity)
	g.POST("/discover", h.Discover)
}

// Status returns the most recent scan cycle summary.
func (h *StatusHandler) Status(c echo.Context) error {
	last := h.monitor.LastSummary()
	if last == nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "no cycle completed yet"})
	}
	return c.JSON(http.StatusOK, last)
}

// Backtest replays alerts from the requested lookback window.
func (h *StatusHandler) Backtest(c echo.Context) error {
	lookback := 7 * 24 * time.Hour
	if raw := c.QueryParam("lookback"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid lookback duration"})
		}
		lookback = d
	}

	var minComposite float64
	if raw := c.QueryParam("min_composite"); raw != "" {
		if err := echo.QueryParamsBinder(c).Float64("min_composite", &minComposite).BindError(); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid min_composite"})
		}
	}

	report, err := h.evaluator.Evaluate(c.Request().Context(), time.Now().Add(-lookback), minComposite)
	if err != nil {
		h.logger.Error("backtest failed", xlogger.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "backtest failed"})
	}
	return c.JSON(http.StatusOK, report)
}

// ListEntities returns every registered entity, active or not.
func (h *StatusHandler) ListEntities(c echo.Context) error {
	entities, err := h.registry.LoadAll(c.Request().Context())
	if err != nil {
		h.logger.Error("load entities failed", xlogger.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "load failed"})
	}
	return c.JSON(http.StatusOK, entities)
}

type addEntityRequest struct {
	Address  string `json:"address"`
	Category string `json:"category"`
	Label    string `json:"label"`
}

// AddEntity registers a new watched entity.
func (h *StatusHandler) AddEntity(c echo.Context) error {
	var req addEntityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	if req.Address == "" || req.Category == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "address and category are required"})
	}

	entity := &models.WatchedEntity{
		Address:  req.Address,
		Category: models.Category(req.Category),
		Label:    req.Label,
	}
	if err := h.registry.Add(c.Request().Context(), entity); err != nil {
		h.logger.Error("add entity failed", xlogger.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "add failed"})
	}
	return c.JSON(http.StatusCreated, entity)
}

// Discover pulls the trader leaderboard and registers qualifying
// wallets. Entities only enter the registry through an operator call
// like this one, never on a schedule.
func (h *StatusHandler) Discover(c echo.Context) error {
	report, err := h.discoverer.Run(c.Request().Context())
	if err != nil {
		h.logger.Error("wallet discovery failed", xlogger.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "discovery failed"})
	}
	return c.JSON(http.StatusOK, report)
}

// DeactivateEntity stops scanning an entity without removing it.
func (h *StatusHandler) DeactivateEntity(c echo.Context) error {
	key := c.Param("key")
	if err := h.registry.Deactivate(c.Request().Context(), key); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}
