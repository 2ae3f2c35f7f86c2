// Package stress exposes the liquidity stress run over HTTP.
package stress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"liquidity_stress/pkg/core/covenant"
	"liquidity_stress/pkg/core/logging"
	"liquidity_stress/pkg/core/pipeline"
	"liquidity_stress/pkg/core/report"
	coreStress "liquidity_stress/pkg/core/stress"
)

const maxBodySize = 1 << 20

// Runner executes one stress run. pipeline.Runner is the production implementation.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Settings is the non-secret configuration the handler serves and applies.
type Settings struct {
	Thresholds covenant.Thresholds   `json:"default_thresholds"`
	Scenarios  []coreStress.Scenario `json:"scenarios"`
	UserAgent  string                `json:"sec_user_agent"`
	RateLimit  float64               `json:"sec_rate_limit"`
	RunTimeout time.Duration         `json:"-"`
}

// StressRequest is the POST /api/stress body. Omitted thresholds fall back
// to the configured defaults.
type StressRequest struct {
	Ticker     string                `json:"ticker" validate:"required,ticker"`
	Thresholds ThresholdsInput       `json:"thresholds"`
	CashDraw   float64               `json:"cash_draw"`
	Scenarios  []coreStress.Scenario `json:"scenarios" validate:"omitempty,max=25,dive"`
}

// ThresholdsInput carries optional covenant overrides.
type ThresholdsInput struct {
	MaxLeverage     *float64 `json:"max_leverage" validate:"omitempty,gt=0"`
	MinCoverage     *float64 `json:"min_coverage" validate:"omitempty,gte=0"`
	MinCurrentRatio *float64 `json:"min_current_ratio" validate:"omitempty,gte=0"`
	MinCash         *float64 `json:"min_cash"`
}

func (in ThresholdsInput) apply(th covenant.Thresholds) covenant.Thresholds {
	if in.MaxLeverage != nil {
		th.MaxLeverage = *in.MaxLeverage
	}
	if in.MinCoverage != nil {
		th.MinCoverage = *in.MinCoverage
	}
	if in.MinCurrentRatio != nil {
		th.MinCurrentRatio = *in.MinCurrentRatio
	}
	if in.MinCash != nil {
		th.MinCash = *in.MinCash
	}
	return th
}

// Handler holds dependencies for the stress endpoints
type Handler struct {
	runner   Runner
	settings Settings
	validate *validator.Validate
	metrics  *Metrics
	logger   *slog.Logger
}

// NewHandler creates a new stress handler. Empty settings.Scenarios means presets.
func NewHandler(runner Runner, settings Settings, metrics *Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	if len(settings.Scenarios) == 0 {
		settings.Scenarios = coreStress.DefaultScenarios()
	}
	return &Handler{
		runner:   runner,
		settings: settings,
		validate: newValidator(),
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "stress_handler")),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("ticker", isValidTicker)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// isValidTicker accepts SEC-style symbols such as BRK-B or BF.B.
func isValidTicker(fl validator.FieldLevel) bool {
	ticker := fl.Field().String()
	if len(ticker) < 1 || len(ticker) > 10 {
		return false
	}
	for _, ch := range ticker {
		if !((ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '.' || ch == '-') {
			return false
		}
	}
	return true
}

// Routes builds the full router, including health and metrics.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)
	r.Use(h.metrics.instrument)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/healthz", h.HandleHealth)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	h.RegisterRoutes(r)
	return r
}

// requestLogger attaches the handler logger, tagged with the request ID, to the request context.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := h.logger.With(slog.String("request_id", middleware.GetReqID(r.Context())))
		next.ServeHTTP(w, r.WithContext(logging.ToContext(r.Context(), l)))
	})
}

// RegisterRoutes registers the /api routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/config", h.HandleConfig)
		r.Get("/scenarios", h.HandleScenarios)
		r.Post("/stress", h.HandleStress)
		r.Get("/stress/{ticker}", h.HandleStressByTicker)
	})
}

// HandleHealth returns basic health status
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleConfig returns the active defaults.
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.settings)
}

// HandleScenarios lists the scenarios applied when a request supplies none.
func (h *Handler) HandleScenarios(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{"scenarios": h.settings.Scenarios})
}

// HandleStress runs an analysis from a JSON body.
func (h *Handler) HandleStress(w http.ResponseWriter, r *http.Request) {
	var req StressRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(&req); err != nil {
		h.fail(w, r, newAPIError(http.StatusBadRequest, "INVALID_JSON", "Request body contains invalid JSON"))
		return
	}
	h.run(w, r, req)
}

// HandleStressByTicker runs an analysis from the path and query string:
// max_leverage, min_coverage, min_current_ratio, min_cash, cash_draw.
func (h *Handler) HandleStressByTicker(w http.ResponseWriter, r *http.Request) {
	req := StressRequest{Ticker: chi.URLParam(r, "ticker")}
	q := r.URL.Query()

	var badParams []FieldError
	parse := func(name string) *float64 {
		raw := q.Get(name)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			badParams = append(badParams, FieldError{Field: name, Message: "must be a number"})
			return nil
		}
		return &v
	}
	req.Thresholds = ThresholdsInput{
		MaxLeverage:     parse("max_leverage"),
		MinCoverage:     parse("min_coverage"),
		MinCurrentRatio: parse("min_current_ratio"),
		MinCash:         parse("min_cash"),
	}
	if cd := parse("cash_draw"); cd != nil {
		req.CashDraw = *cd
	}
	if len(badParams) > 0 {
		h.fail(w, r, &APIError{
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "INVALID_PARAMETER",
			Message:    "Invalid query parameter",
			Details:    badParams,
		})
		return
	}
	h.run(w, r, req)
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request, req StressRequest) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	req.Ticker = strings.ToUpper(strings.TrimSpace(req.Ticker))

	if apiErr := h.check(req); apiErr != nil {
		h.fail(w, r, apiErr)
		return
	}

	if h.settings.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.settings.RunTimeout)
		defer cancel()
	}

	scenarios := req.Scenarios
	if len(scenarios) == 0 {
		scenarios = h.settings.Scenarios
	}

	res, err := h.runner.Run(ctx, pipeline.Request{
		Ticker:     req.Ticker,
		Thresholds: req.Thresholds.apply(h.settings.Thresholds),
		CashDraw:   req.CashDraw,
		Scenarios:  scenarios,
	})
	h.metrics.observeRun(res, err)
	if err != nil {
		logger.ErrorContext(ctx, "stress run failed",
			slog.String("ticker", req.Ticker),
			slog.String("error", err.Error()))
		h.fail(w, r, fromRunError(err))
		return
	}

	logger.InfoContext(ctx, "stress run served",
		slog.String("ticker", req.Ticker),
		slog.String("run_id", res.RunID.String()),
		slog.Bool("all_pass", res.AllPass()))
	h.respond(w, r, res)
}

// check applies struct validation plus the numeric rules tags cannot express.
func (h *Handler) check(req StressRequest) *APIError {
	var details []FieldError
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return newAPIError(http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		}
		for _, fe := range verrs {
			details = append(details, FieldError{Field: fe.Field(), Message: validationMessage(fe)})
		}
	}

	th := req.Thresholds
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"max_leverage", th.MaxLeverage},
		{"min_coverage", th.MinCoverage},
		{"min_current_ratio", th.MinCurrentRatio},
		{"min_cash", th.MinCash},
		{"cash_draw", &req.CashDraw},
	} {
		if f.v != nil && (math.IsNaN(*f.v) || math.IsInf(*f.v, 0)) {
			details = append(details, FieldError{Field: f.name, Message: "must be finite"})
		}
	}
	if len(req.Scenarios) > 0 {
		if err := coreStress.ValidateScenarios(req.Scenarios); err != nil {
			details = append(details, FieldError{Field: "scenarios", Message: err.Error()})
		}
	}

	if len(details) == 0 {
		return nil
	}
	return &APIError{
		StatusCode: http.StatusBadRequest,
		ErrorCode:  "VALIDATION_FAILED",
		Message:    "Request validation failed",
		Details:    details,
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "ticker":
		return "must be 1-10 characters of A-Z, 0-9, '.' or '-'"
	case "max":
		return fmt.Sprintf("must have at most %s entries", fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("must be %s %s", fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}

// respond writes the result in the format named by ?format=.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		render.JSON(w, r, res)
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(report.Markdown(res)))
	case "html":
		page, err := report.HTML(res)
		if err != nil {
			h.fail(w, r, newAPIError(http.StatusInternalServerError, "RENDER_FAILED", "failed to render report"))
			return
		}
		render.HTML(w, r, page)
	case "xlsx":
		var buf bytes.Buffer
		if err := report.WriteXLSX(&buf, res); err != nil {
			h.fail(w, r, newAPIError(http.StatusInternalServerError, "RENDER_FAILED", "failed to render workbook"))
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-stress.xlsx"`, res.Base.Ticker))
		_, _ = w.Write(buf.Bytes())
	default:
		h.fail(w, r, newAPIError(http.StatusBadRequest, "INVALID_PARAMETER", "format must be json, markdown, html or xlsx"))
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, e *APIError) {
	if err := render.Render(w, r, e); err != nil {
		http.Error(w, e.Message, e.StatusCode)
	}
}
