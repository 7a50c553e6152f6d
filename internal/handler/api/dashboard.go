package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/repository"
	"MacroPull/internal/service/metrics"
	"MacroPull/internal/service/ratelimit"
	"MacroPull/internal/usecase"
	xhttp "MacroPull/pkg/http"
	applogger "MacroPull/pkg/logger"
)

// SnapshotRefresher reloads every series and reports the new snapshot.
type SnapshotRefresher interface {
	Refresh(ctx context.Context) (repository.Snapshot, error)
}

// DashboardHandler serves the analytics API consumed by the browser UI.
type DashboardHandler struct {
	analysis   *usecase.AnalysisUseCase
	forecaster *usecase.ForecastUseCase
	impulse    *usecase.ImpulseUseCase
	volatility *usecase.VolatilityUseCase
	alerts     *usecase.AlertUseCase
	refresher  SnapshotRefresher
	stream     http.Handler
	fitLimiter *ratelimit.Limiter
	l          *applogger.Logger
}

// NewDashboardHandler wires the use cases. stream may be nil when the alert websocket is disabled.
func NewDashboardHandler(
	analysis *usecase.AnalysisUseCase,
	forecaster *usecase.ForecastUseCase,
	impulse *usecase.ImpulseUseCase,
	volatility *usecase.VolatilityUseCase,
	alerts *usecase.AlertUseCase,
	refresher SnapshotRefresher,
	stream http.Handler,
	fitLimiter *ratelimit.Limiter,
	l *applogger.Logger,
) *DashboardHandler {
	metrics.Register()
	if l == nil {
		l = applogger.NewNop()
	}
	return &DashboardHandler{
		analysis:   analysis,
		forecaster: forecaster,
		impulse:    impulse,
		volatility: volatility,
		alerts:     alerts,
		refresher:  refresher,
		stream:     stream,
		fitLimiter: fitLimiter,
		l:          l,
	}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/series", h.Series)
	g.GET("/standardized", h.Standardized)
	g.GET("/thresholds", h.Thresholds)
	g.PUT("/thresholds", h.UpdateThreshold)
	g.POST("/var/initialize", h.InitializeForecast)
	g.GET("/var/forecast/:id", h.GetForecast)
	g.POST("/var/irf", h.ImpulseResponses)
	g.POST("/volatility", h.Volatility)
	g.POST("/alerts/test", h.TestAlert)
	g.POST("/refresh", h.Refresh)
	if h.stream != nil {
		e.GET("/ws/alerts", echo.WrapHandler(h.stream))
	}
}

func (h *DashboardHandler) Series(c echo.Context) error {
	start := time.Now()
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.analysis.Series(c.Request().Context(), xhttp.ParseIDs(req.IDs))
	if err != nil {
		return h.fail(c, "series", start, err, nil)
	}
	if res.Panel.Empty() {
		metrics.Empty("series")
	}
	metrics.Observe("series", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Standardized(c echo.Context) error {
	start := time.Now()
	req := &models.StandardizedRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.analysis.Standardized(c.Request().Context(), xhttp.ParseIDs(req.IDs))
	if err != nil {
		return h.fail(c, "standardized", start, err, models.NewPanel(models.DefaultFrequency()))
	}
	metrics.Observe("standardized", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Thresholds(c echo.Context) error {
	start := time.Now()
	res, err := h.alerts.Thresholds(c.Request().Context())
	if err != nil {
		return h.fail(c, "thresholds", start, err, nil)
	}
	metrics.Observe("thresholds", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) UpdateThreshold(c echo.Context) error {
	start := time.Now()
	req := &models.ThresholdUpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.alerts.UpdateThreshold(c.Request().Context(), req.SeriesID, req.Threshold)
	if err != nil {
		return h.fail(c, "thresholds_update", start, err, nil)
	}
	h.l.Info("threshold updated", applogger.String("series", req.SeriesID), applogger.Float64("threshold", req.Threshold))
	metrics.Observe("thresholds_update", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) InitializeForecast(c echo.Context) error {
	start := time.Now()
	if h.fitLimiter != nil && !h.fitLimiter.Allow(c.RealIP()) {
		h.l.Warn("var.initialize rate_limited", applogger.String("remote", c.RealIP()))
		metrics.Observe("var_initialize", start, "rate_limited")
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many forecast requests, retry shortly"))
	}
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.forecaster.Initialize(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "var_initialize", start, err, emptyForecast(req))
	}
	metrics.Observe("var_initialize", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) GetForecast(c echo.Context) error {
	start := time.Now()
	res, err := h.forecaster.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, "var_forecast", start, err, nil)
	}
	metrics.Observe("var_forecast", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) ImpulseResponses(c echo.Context) error {
	start := time.Now()
	req := &models.IRFRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.impulse.Compute(c.Request().Context(), *req)
	if err != nil {
		empty := models.IRFResult{Series: req.Series, Periods: req.Periods, Shock: req.ShockSize(), Responses: [][][]float64{}}
		return h.fail(c, "var_irf", start, err, empty)
	}
	metrics.Observe("var_irf", start, "")
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardHandler) Volatility(c echo.Context) error {
	start := time.Now()
	req := &models.VolatilityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.volatility.Fit(c.Request().Context(), req.Target, req.Dependents)
	if err != nil {
		empty := models.VolatilityFit{Target: req.Target, Dependents: req.Dependents, Data: map[string][]float64{}}
		return h.fail(c, "volatility", start, err, empty)
	}
	metrics.Observe("volatility", start, "")
	return xhttp.SuccessResponse(c, res)
}

type testAlertResponse struct {
	Alert  models.Alert `json:"alert"`
	Queued bool         `json:"queued"`
}

func (h *DashboardHandler) TestAlert(c echo.Context) error {
	start := time.Now()
	req := &models.TestAlertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	a, queued, err := h.alerts.SendTest(c.Request().Context(), req.SeriesID)
	if err != nil {
		return h.fail(c, "alerts_test", start, err, nil)
	}
	metrics.Observe("alerts_test", start, "")
	return xhttp.DataResponse(c, http.StatusAccepted, testAlertResponse{Alert: a, Queued: queued})
}

type refreshResponse struct {
	Series      int       `json:"series"`
	Rows        int       `json:"rows"`
	Failed      []string  `json:"failed"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

func (h *DashboardHandler) Refresh(c echo.Context) error {
	start := time.Now()
	snap, err := h.refresher.Refresh(c.Request().Context())
	if err != nil {
		return h.fail(c, "refresh", start, err, nil)
	}
	metrics.Observe("refresh", start, "")
	failed := snap.Failed
	if failed == nil {
		failed = []string{}
	}
	return xhttp.SuccessResponse(c, refreshResponse{
		Series:      len(snap.Raw),
		Rows:        snap.Panel.Len(),
		Failed:      failed,
		RefreshedAt: snap.RefreshedAt,
	})
}

// fail maps a use case error to a response. When empty is non-nil, no-data
// errors are answered with it and status 200.
func (h *DashboardHandler) fail(c echo.Context, endpoint string, start time.Time, err error, empty interface{}) error {
	if empty != nil && (errors.Is(err, models.ErrAlignmentEmpty) || errors.Is(err, models.ErrInsufficientData)) {
		metrics.Empty(endpoint)
		metrics.Observe(endpoint, start, "")
		h.l.Debug("no data for request", applogger.String("endpoint", endpoint), applogger.Error(err))
		return xhttp.SuccessResponse(c, empty)
	}
	appErr, kind := mapError(err)
	metrics.Observe(endpoint, start, kind)
	if appErr.Status >= http.StatusInternalServerError {
		h.l.Error(endpoint+" usecase error", applogger.Error(err))
	} else {
		h.l.Warn(endpoint+" rejected", applogger.String("kind", kind), applogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func mapError(err error) (*xhttp.AppError, string) {
	switch {
	case errors.Is(err, models.ErrUnknownSeries):
		return xhttp.BadRequestError(err.Error()).WithError(err), "unknown_series"
	case errors.Is(err, models.ErrForecastNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err), "not_found"
	case errors.Is(err, models.ErrFitFailure):
		return xhttp.UnprocessableError(err.Error()).WithError(err), "fit_failure"
	case errors.Is(err, models.ErrAlignmentEmpty), errors.Is(err, models.ErrInsufficientData):
		return xhttp.UnprocessableError(err.Error()).WithError(err), "no_data"
	case errors.Is(err, models.ErrModelService), errors.Is(err, models.ErrDispatch), errors.Is(err, models.ErrFetch):
		return xhttp.BadGatewayError(err.Error()).WithError(err), "upstream"
	default:
		return xhttp.InternalError("something went wrong").WithError(err), "internal"
	}
}

func emptyForecast(req *models.ForecastRequest) models.ForecastResult {
	return models.ForecastResult{
		Target:   req.Target,
		Series:   req.Series,
		Values:   map[string][]float64{},
		Warnings: []string{"no data loaded"},
	}
}
