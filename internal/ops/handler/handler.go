// Package handler is the operator HTTP surface: health, metrics, rule administration,
// the explicit event-processing trigger, and a stateless triage preview.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Processor,EventReader,EventReleaser,RuleAdmin,TriagePreviewer,AlertReader,AuditReader

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	alertmodels "careflow/internal/alerts/models"
	eventmodels "careflow/internal/events/models"
	"careflow/internal/platform/metrics"
	riskmodels "careflow/internal/risk/models"
	"careflow/internal/workflow/engine"
	"careflow/internal/workflow/models"
	"careflow/internal/workflow/rules"
	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
	audit "careflow/pkg/platform/audit"
	"careflow/pkg/platform/httputil"
	"careflow/pkg/platform/middleware/auth"
	"careflow/pkg/platform/middleware/request"
	"careflow/pkg/platform/middleware/requesttime"
	"careflow/pkg/requestcontext"
)

const defaultListLimit = 50

type Processor interface {
	ProcessPending(ctx context.Context, batchLimit int) (*engine.Result, error)
}

type EventReader interface {
	Get(ctx context.Context, eventID id.EventID) (*eventmodels.Event, error)
	ListByStatus(ctx context.Context, status eventmodels.Status, limit int) ([]*eventmodels.Event, error)
}

// EventReleaser returns events stranded in PROCESSING to PENDING.
type EventReleaser interface {
	Release(ctx context.Context, eventID id.EventID) error
}

type RuleAdmin interface {
	Create(ctx context.Context, in rules.Input) (*models.Rule, error)
	Update(ctx context.Context, ruleID id.RuleID, in rules.Input, expectedVersion int64) (*models.Rule, error)
	SetActive(ctx context.Context, ruleID id.RuleID, active bool) (*models.Rule, error)
	Get(ctx context.Context, ruleID id.RuleID) (*models.Rule, error)
	List(ctx context.Context) ([]*models.Rule, error)
}

type TriagePreviewer interface {
	Preview(ctx context.Context, features riskmodels.Features) (riskmodels.Result, error)
}

type AlertReader interface {
	ListByPatient(ctx context.Context, patientID id.PatientID, limit int) ([]*alertmodels.Alert, error)
	ListRecent(ctx context.Context, limit int) ([]*alertmodels.Alert, error)
}

type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Handler serves the ops endpoints.
type Handler struct {
	processor    Processor
	events       EventReader
	releaser     EventReleaser
	rules        RuleAdmin
	triage       TriagePreviewer
	alerts       AlertReader
	auditLog     AuditReader
	jwtValidator auth.JWTValidator
	gatherer     prometheus.Gatherer
	checks       map[string]HealthCheck
	batchLimit   int
	limitPublic  func(http.Handler) http.Handler
	limitRead    func(http.Handler) http.Handler
	limitWrite   func(http.Handler) http.Handler
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type Option func(*Handler)

func WithHealthCheck(name string, check HealthCheck) Option {
	return func(h *Handler) {
		h.checks[name] = check
	}
}

func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) {
		h.gatherer = g
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithDefaultBatchLimit sets the limit used when a process request names none.
func WithDefaultBatchLimit(limit int) Option {
	return func(h *Handler) {
		h.batchLimit = limit
	}
}

// WithAuditLog exposes the compliance audit trail to admins.
func WithAuditLog(reader AuditReader) Option {
	return func(h *Handler) {
		h.auditLog = reader
	}
}

// WithEventRelease enables POST /v1/events/{eventID}/release.
func WithEventRelease(releaser EventReleaser) Option {
	return func(h *Handler) {
		h.releaser = releaser
	}
}

// WithRateLimits installs per-class limiters. The public limiter guards the
// unauthenticated triage preview; read and write run after authentication.
func WithRateLimits(public, read, write func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.limitPublic = public
		h.limitRead = read
		h.limitWrite = write
	}
}

func passthrough(next http.Handler) http.Handler { return next }

// New creates the ops Handler.
func New(
	processor Processor,
	events EventReader,
	ruleAdmin RuleAdmin,
	triage TriagePreviewer,
	alerts AlertReader,
	jwtValidator auth.JWTValidator,
	logger *slog.Logger,
	opts ...Option,
) *Handler {
	h := &Handler{
		processor:    processor,
		events:       events,
		rules:        ruleAdmin,
		triage:       triage,
		alerts:       alerts,
		jwtValidator: jwtValidator,
		gatherer:     prometheus.DefaultGatherer,
		checks:       make(map[string]HealthCheck),
		batchLimit:   engine.DefaultBatchLimit,
		limitPublic:  passthrough,
		limitRead:    passthrough,
		limitWrite:   passthrough,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the ops routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.handleLiveness)
	r.Get("/readyz", h.handleReadiness)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(request.Recovery(h.logger))
		r.Use(request.RequestID)
		r.Use(requesttime.Middleware)
		r.Use(request.Logger(h.logger, h.metrics))
		r.Use(request.Timeout(30 * time.Second))
		r.Use(request.ContentTypeJSON)

		r.With(h.limitPublic).Post("/v1/triage/preview", h.handleTriagePreview)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(h.jwtValidator, h.metrics, h.logger))

			r.With(auth.RequireRole(h.metrics, h.logger, auth.RoleAdmin, auth.RoleOps)).Group(func(r chi.Router) {
				r.With(h.limitWrite).Post("/v1/events/process", h.handleProcessEvents)
				r.With(h.limitRead).Get("/v1/events", h.handleListEvents)
				r.With(h.limitRead).Get("/v1/events/{eventID}", h.handleGetEvent)
				if h.releaser != nil {
					r.With(h.limitWrite).Post("/v1/events/{eventID}/release", h.handleReleaseEvent)
				}
			})

			r.With(auth.RequireRole(h.metrics, h.logger, auth.RoleAdmin, auth.RoleOps, auth.RoleClinician), h.limitRead).Group(func(r chi.Router) {
				r.Get("/v1/rules", h.handleListRules)
				r.Get("/v1/rules/{ruleID}", h.handleGetRule)
				r.Get("/v1/alerts", h.handleRecentAlerts)
				r.Get("/v1/patients/{patientID}/alerts", h.handlePatientAlerts)
			})

			r.With(auth.RequireRole(h.metrics, h.logger, auth.RoleAdmin)).Group(func(r chi.Router) {
				r.With(h.limitWrite).Post("/v1/rules", h.handleCreateRule)
				r.With(h.limitWrite).Put("/v1/rules/{ruleID}", h.handleUpdateRule)
				r.With(h.limitWrite).Post("/v1/rules/{ruleID}/activate", h.handleSetActive(true))
				r.With(h.limitWrite).Post("/v1/rules/{ruleID}/deactivate", h.handleSetActive(false))
				if h.auditLog != nil {
					r.With(h.limitRead).Get("/v1/audit", h.handleAuditLog)
				}
			})
		})
	})
}

func (h *Handler) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err)
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	httputil.WriteJSON(w, status, map[string]any{"checks": results})
}

// handleProcessEvents runs one engine pass. The pass itself ignores client
// disconnects once events are claimed.
func (h *Handler) handleProcessEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ProcessRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit := h.batchLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	result, err := h.processor.ProcessPending(ctx, limit)
	if err != nil {
		h.writeServiceError(ctx, w, "process pending events", err)
		return
	}
	principal, _ := requestcontext.PrincipalFrom(ctx)
	h.logger.InfoContext(ctx, "event processing triggered",
		"subject", principal.Subject,
		"processed", result.Processed,
		"failed", result.Failed,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, toProcessResponse(result))
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := eventmodels.StatusFailed
	if raw := r.URL.Query().Get("status"); raw != "" {
		status = eventmodels.Status(raw)
	}
	limit, err := queryLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.events.ListByStatus(ctx, status, limit)
	if err != nil {
		h.writeServiceError(ctx, w, "list events", err)
		return
	}
	resp := make([]EventResponse, len(events))
	for i, e := range events {
		resp[i] = toEventResponse(e)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": resp})
}

func (h *Handler) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid event id"))
		return
	}
	event, err := h.events.Get(ctx, eventID)
	if err != nil {
		h.writeServiceError(ctx, w, "get event", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventResponse(event))
}

// handleReleaseEvent hands a PROCESSING event left behind by an aborted pass back
// to the next pass and returns it.
func (h *Handler) handleReleaseEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid event id"))
		return
	}
	if err := h.releaser.Release(ctx, eventID); err != nil {
		h.writeServiceError(ctx, w, "release event", err)
		return
	}
	event, err := h.events.Get(ctx, eventID)
	if err != nil {
		h.writeServiceError(ctx, w, "get event", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventResponse(event))
}

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.rules.List(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "list rules", err)
		return
	}
	resp := make([]RuleResponse, len(list))
	for i, rule := range list {
		resp[i] = toRuleResponse(rule)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"rules": resp})
}

func (h *Handler) handleGetRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ruleID, err := ruleIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rule, err := h.rules.Get(ctx, ruleID)
	if err != nil {
		h.writeServiceError(ctx, w, "get rule", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRuleResponse(rule))
}

func (h *Handler) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req RuleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	rule, err := h.rules.Create(ctx, req.toInput())
	if err != nil {
		h.writeServiceError(ctx, w, "create rule", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRuleResponse(rule))
}

func (h *Handler) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ruleID, err := ruleIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req RuleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	rule, err := h.rules.Update(ctx, ruleID, req.toInput(), req.ExpectedVersion)
	if err != nil {
		h.writeServiceError(ctx, w, "update rule", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRuleResponse(rule))
}

func (h *Handler) handleSetActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ruleID, err := ruleIDParam(r)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		rule, err := h.rules.SetActive(ctx, ruleID, active)
		if err != nil {
			h.writeServiceError(ctx, w, "set rule active", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toRuleResponse(rule))
	}
}

func (h *Handler) handleRecentAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := queryLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.alerts.ListRecent(ctx, limit)
	if err != nil {
		h.writeServiceError(ctx, w, "list recent alerts", err)
		return
	}
	writeAlerts(w, list)
}

func (h *Handler) handlePatientAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	patientID, err := id.ParsePatientID(chi.URLParam(r, "patientID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid patient id"))
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.alerts.ListByPatient(ctx, patientID, limit)
	if err != nil {
		h.writeServiceError(ctx, w, "list patient alerts", err)
		return
	}
	writeAlerts(w, list)
}

func writeAlerts(w http.ResponseWriter, list []*alertmodels.Alert) {
	resp := make([]AlertResponse, len(list))
	for i, a := range list {
		resp[i] = toAlertResponse(a)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"alerts": resp})
}

func (h *Handler) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := queryLimit(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.auditLog.ListRecent(ctx, limit)
	if err != nil {
		h.writeServiceError(ctx, w, "list audit events", err)
		return
	}
	resp := make([]AuditEventResponse, len(entries))
	for i, e := range entries {
		resp[i] = toAuditEventResponse(e)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"audit_events": resp})
}

// handleTriagePreview scores features without persisting anything.
func (h *Handler) handleTriagePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var features riskmodels.Features
	if err := httputil.DecodeJSON(r, &features); err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.triage.Preview(ctx, features)
	if err != nil {
		h.writeServiceError(ctx, w, "preview triage", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// writeServiceError logs uncoded failures at error level; coded ones are the
// caller's problem and logged at warn.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if _, ok := dErrors.CodeOf(err); ok {
		h.logger.WarnContext(ctx, op+" rejected",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		h.logger.ErrorContext(ctx, op+" failed",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}

func ruleIDParam(r *http.Request) (id.RuleID, error) {
	ruleID, err := id.ParseRuleID(chi.URLParam(r, "ruleID"))
	if err != nil {
		return id.RuleID{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid rule id")
	}
	return ruleID, nil
}

func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 500 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 500")
	}
	return limit, nil
}
