package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
	"github.com/Shillmaster/JJcbjee/internal/service/ratelimit"
	"github.com/Shillmaster/JJcbjee/internal/services/signal"
	"github.com/Shillmaster/JJcbjee/internal/usecase"
	xhttp "github.com/Shillmaster/JJcbjee/pkg/http"
	xlogger "github.com/Shillmaster/JJcbjee/pkg/logger"
	"github.com/Shillmaster/JJcbjee/pkg/util"
)

const historyMaxSpan = 365 * 24 * time.Hour

// ForecastUsecase is what the HTTP layer needs from the service.
type ForecastUsecase interface {
	Signal(ctx context.Context, req *models.SignalRequest) (*models.SignalEvent, error)
	Render(ctx context.Context, req *models.RenderRequest) (*usecase.RenderResult, error)
	History(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.SignalEvent, error)
}

// HealthCheck reports one dependency's state for /healthz.
type HealthCheck func(ctx context.Context) error

// SignalResponse pairs an event with its display summary.
type SignalResponse struct {
	Event   *models.SignalEvent `json:"event"`
	Summary signal.Summary      `json:"summary"`
}

// ForecastEchoHandler serves the forecast API on echo.
type ForecastEchoHandler struct {
	logger  *xlogger.Logger
	uc      ForecastUsecase
	limiter *ratelimit.Limiter
	checks  map[string]HealthCheck
}

func NewForecastEchoHandler(logger *xlogger.Logger, uc ForecastUsecase, limiter *ratelimit.Limiter) *ForecastEchoHandler {
	return &ForecastEchoHandler{logger: logger, uc: uc, limiter: limiter, checks: map[string]HealthCheck{}}
}

// AddHealthCheck registers a named dependency check.
func (h *ForecastEchoHandler) AddHealthCheck(name string, fn HealthCheck) {
	if fn != nil {
		h.checks[name] = fn
	}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api/v1", h.rateLimit)
	g.POST("/signal", h.Signal)
	g.POST("/render", h.Render)
	g.GET("/signals", h.History)
}

func (h *ForecastEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
		}
		return next(c)
	}
}

func (h *ForecastEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	if !healthy {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *ForecastEchoHandler) Signal(c echo.Context) error {
	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	e, err := h.uc.Signal(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, "signal", err)
	}
	return xhttp.SuccessResponse(c, &SignalResponse{Event: e, Summary: signal.Summarize(e.Signal)})
}

func (h *ForecastEchoHandler) Render(c echo.Context) error {
	req := &models.RenderRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.uc.Render(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, "render", err)
	}
	hdr := c.Response().Header()
	hdr.Set("X-Render-Id", res.ID)
	hdr.Set("X-Render-Cached", strconv.FormatBool(res.Cached))
	hdr.Set("X-Signal-Bias", string(res.Signal.Bias))
	hdr.Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.BlobResponse(c, res.ContentType, res.Body)
}

func (h *ForecastEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	to := time.Now()
	if req.To != "" {
		t, ok := util.ParseTime(req.To)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid to: %q", req.To))
		}
		to = t
	}
	from := to.AddDate(0, 0, -30)
	if req.From != "" {
		t, ok := util.ParseTime(req.From)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid from: %q", req.From))
		}
		from = t
	}
	from, to = util.ClampRange(from, to, historyMaxSpan)

	rows, err := h.uc.History(c.Request().Context(), req.Symbol, from, to, req.Limit)
	if err != nil {
		return h.fail(c, "history", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *ForecastEchoHandler) fail(c echo.Context, op string, err error) error {
	var appErr *xhttp.AppError
	switch {
	case errors.Is(err, usecase.ErrNoForecast):
		appErr = xhttp.UnprocessableError("focusPack", "focus pack has no forecast data")
	case errors.Is(err, usecase.ErrInvalidRequest):
		appErr = xhttp.BadRequestError(err.Error())
	case errors.Is(err, usecase.ErrJournalDisabled):
		appErr = xhttp.ServiceUnavailableError("signal history is not enabled")
	default:
		h.logger.Error(op+" usecase error", xlogger.Error(err))
		appErr = xhttp.InternalError(op + " failed")
	}
	return xhttp.AppErrorResponse(c, appErr.WithError(err))
}
