package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/core/run"
	"github.com/example/plantcare/internal/ctxutil"
	"github.com/example/plantcare/internal/ports/primary"
	"github.com/example/plantcare/internal/version"
)

// ActorHeader optionally names the user behind a request.
const ActorHeader = "X-User-ID"

// SnoozeRequest is the body of POST /api/alerts/:id/snooze.
type SnoozeRequest struct {
	Days int `json:"days"`
}

// DismissRequest is the body of POST /api/alerts/:id/dismiss.
type DismissRequest struct {
	OverrideDate string `json:"override_date"`
}

// BatchStarted is the body of an accepted scheduled batch.
type BatchStarted struct {
	Status string `json:"status"`
}

func requestContext(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if actor := c.Request().Header.Get(ActorHeader); actor != "" {
		ctx = ctxutil.WithActorID(ctx, actor)
	}
	return ctx
}

// NewActivity handles POST /api/new-activity.
func (s *Server) NewActivity(c echo.Context) error {
	var req primary.SubmitActivityRequest
	if err := c.Bind(&req); err != nil {
		return s.handleError(c, badRequest("request body must be a JSON activity"))
	}

	resp, err := s.services.Activities.SubmitActivity(requestContext(c), req)
	if err != nil {
		return s.handleError(c, err)
	}
	return c.JSON(http.StatusAccepted, resp)
}

// requireBatchSecret rejects requests whose batch secret header does not
// match before any stage runs.
func (s *Server) requireBatchSecret(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		got := c.Request().Header.Get(BatchSecretHeader)
		if s.secret == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
			s.log.Warn("Rejected batch trigger", "ip", c.RealIP())
			return s.handleError(c, apperr.New(apperr.KindUnauthorized, "missing or invalid batch secret"))
		}
		return next(c)
	}
}

// DailyBatch handles POST /api/batch/daily. The batch runs after the
// response is sent.
func (s *Server) DailyBatch(c echo.Context) error {
	ctx := context.WithoutCancel(c.Request().Context())

	s.batches.Add(1)
	go func() {
		defer s.batches.Done()
		start := time.Now()
		result, err := s.services.Pipeline.RunBatch(ctx, run.TriggerDaily)
		if err != nil {
			s.log.Error("Scheduled batch failed", "error", err, "duration", time.Since(start))
			return
		}
		s.log.Info("Scheduled batch finished",
			"run_id", result.RunID,
			"completed", result.Stats.Completed,
			"duration", time.Since(start),
		)
	}()

	return c.JSON(http.StatusAccepted, BatchStarted{Status: "started"})
}

func (s *Server) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.limiter.Allow() {
			return c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Error:   "rate_limited",
				Message: "too many manual batch runs, try again later",
			})
		}
		return next(c)
	}
}

// ManualBatch handles POST /api/batch/run and waits for the run.
func (s *Server) ManualBatch(c echo.Context) error {
	result, err := s.services.Pipeline.RunBatch(requestContext(c), run.TriggerManual)
	if err != nil {
		return s.handleError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ListAlerts handles GET /api/alerts.
func (s *Server) ListAlerts(c echo.Context) error {
	filters := primary.AlertFilters{PlantID: c.QueryParam("plant_id")}
	if v := c.QueryParam("include_done"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return s.handleError(c, badRequest("include_done must be true or false"))
		}
		filters.IncludeDone = b
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return s.handleError(c, badRequest("limit must be a non-negative integer"))
		}
		filters.Limit = n
	}

	alerts, err := s.services.Alerts.ListAlerts(c.Request().Context(), filters)
	if err != nil {
		return s.handleError(c, err)
	}
	return c.JSON(http.StatusOK, alerts)
}

// SnoozeAlert handles POST /api/alerts/:id/snooze.
func (s *Server) SnoozeAlert(c echo.Context) error {
	var req SnoozeRequest
	if err := c.Bind(&req); err != nil {
		return s.handleError(c, badRequest("request body must be {\"days\": n}"))
	}
	a, err := s.services.Alerts.SnoozeAlert(requestContext(c), c.Param("id"), req.Days)
	if err != nil {
		return s.handleError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// DismissAlert handles POST /api/alerts/:id/dismiss.
func (s *Server) DismissAlert(c echo.Context) error {
	var req DismissRequest
	if err := c.Bind(&req); err != nil {
		return s.handleError(c, badRequest("request body must be {\"override_date\": \"YYYY-MM-DD\"}"))
	}
	a, err := s.services.Alerts.DismissAlert(requestContext(c), c.Param("id"), req.OverrideDate)
	if err != nil {
		return s.handleError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// MarkAlertDone handles POST /api/alerts/:id/done.
func (s *Server) MarkAlertDone(c echo.Context) error {
	a, err := s.services.Alerts.MarkAlertDone(requestContext(c), c.Param("id"))
	if err != nil {
		return s.handleError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

// GetPlantStatus handles GET /api/plants/:id/status.
func (s *Server) GetPlantStatus(c echo.Context) error {
	st, err := s.services.Query.GetPlantStatus(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.handleError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// ListSchedule handles GET /api/schedule.
func (s *Server) ListSchedule(c echo.Context) error {
	items, err := s.services.Query.ListSchedule(c.Request().Context(), primary.ScheduleFilters{
		PlantID: c.QueryParam("plant_id"),
		Before:  c.QueryParam("before"),
	})
	if err != nil {
		return s.handleError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(c echo.Context) error {
	response := map[string]any{
		"status":         "healthy",
		"version":        version.Short(),
		"timestamp":      time.Now().Format(time.RFC3339),
		"uptime_seconds": time.Since(s.startTime).Seconds(),
	}
	code := http.StatusOK

	if s.ping == nil {
		response["database_status"] = "unchecked"
	} else if err := s.ping(c.Request().Context()); err != nil {
		response["status"] = "degraded"
		response["database_status"] = "disconnected"
		response["database_error"] = err.Error()
		code = http.StatusServiceUnavailable
	} else {
		response["database_status"] = "connected"
	}
	return c.JSON(code, response)
}
