// Package handler exposes the clinical write path to care-team tools: stored risk
// assessments, patient check-ins, bed admissions, and medication and lab orders.
// Every request is authenticated; the identity provider vets the role.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Assessor,CheckinRecorder,AdmissionManager,OrderManager

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	admissionmodels "careflow/internal/admission/models"
	admissionservice "careflow/internal/admission/service"
	checkinservice "careflow/internal/checkin/service"
	ordermodels "careflow/internal/orders/models"
	orderservice "careflow/internal/orders/service"
	"careflow/internal/platform/metrics"
	riskmodels "careflow/internal/risk/models"
	riskservice "careflow/internal/risk/service"
	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
	"careflow/pkg/platform/httputil"
	"careflow/pkg/platform/middleware/auth"
	"careflow/pkg/platform/middleware/request"
	"careflow/pkg/platform/middleware/requesttime"
	"careflow/pkg/requestcontext"
)

type Assessor interface {
	Assess(ctx context.Context, req riskservice.AssessRequest) (*riskmodels.Assessment, error)
}

type CheckinRecorder interface {
	Record(ctx context.Context, req checkinservice.RecordRequest) (*checkinservice.RecordResult, error)
}

type AdmissionManager interface {
	Admit(ctx context.Context, req admissionservice.AdmitRequest) (*admissionmodels.Admission, error)
	Transfer(ctx context.Context, admissionID id.AdmissionID, req admissionservice.TransferRequest) (*admissionmodels.Admission, error)
	Discharge(ctx context.Context, admissionID id.AdmissionID) (*admissionmodels.Admission, error)
	Get(ctx context.Context, admissionID id.AdmissionID) (*admissionmodels.Admission, error)
}

type OrderManager interface {
	PlaceMedication(ctx context.Context, req orderservice.MedicationRequest) (*ordermodels.Order, error)
	PlaceLab(ctx context.Context, req orderservice.LabRequest) (*ordermodels.Order, error)
	MarkStatus(ctx context.Context, kind ordermodels.Kind, orderID id.OrderID, next ordermodels.Status) (*ordermodels.Order, error)
	Get(ctx context.Context, kind ordermodels.Kind, orderID id.OrderID) (*ordermodels.Order, error)
}

// Handler handles clinical endpoints.
type Handler struct {
	assessor     Assessor
	checkins     CheckinRecorder
	admissions   AdmissionManager
	orders       OrderManager
	jwtValidator auth.JWTValidator
	limitRead    func(http.Handler) http.Handler
	limitWrite   func(http.Handler) http.Handler
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type Option func(*Handler)

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithRateLimits installs per-principal limiters for reads and writes.
func WithRateLimits(read, write func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.limitRead = read
		h.limitWrite = write
	}
}

// New creates a clinical Handler.
func New(
	assessor Assessor,
	checkins CheckinRecorder,
	admissions AdmissionManager,
	orders OrderManager,
	jwtValidator auth.JWTValidator,
	logger *slog.Logger,
	opts ...Option,
) *Handler {
	noLimit := func(next http.Handler) http.Handler { return next }
	h := &Handler{
		assessor:     assessor,
		checkins:     checkins,
		admissions:   admissions,
		orders:       orders,
		jwtValidator: jwtValidator,
		limitRead:    noLimit,
		limitWrite:   noLimit,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the clinical routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(request.Recovery(h.logger))
		r.Use(request.RequestID)
		r.Use(requesttime.Middleware)
		r.Use(request.Logger(h.logger, h.metrics))
		r.Use(request.Timeout(30 * time.Second))
		r.Use(request.ContentTypeJSON)
		r.Use(auth.RequireAuth(h.jwtValidator, h.metrics, h.logger))
		r.Use(auth.RequireRole(h.metrics, h.logger, auth.RoleClinician, auth.RoleAdmin))

		r.With(h.limitRead).Group(func(r chi.Router) {
			r.Get("/v1/admissions/{admissionID}", h.handleGetAdmission)
			r.Get("/v1/orders/{kind}/{orderID}", h.handleGetOrder)
		})

		r.With(h.limitWrite).Group(func(r chi.Router) {
			r.Post("/v1/assessments", h.handleAssess)
			r.Post("/v1/checkins", h.handleRecordCheckin)

			r.Post("/v1/admissions", h.handleAdmit)
			r.Post("/v1/admissions/{admissionID}/transfer", h.handleTransfer)
			r.Post("/v1/admissions/{admissionID}/discharge", h.handleDischarge)

			r.Post("/v1/orders/medication", h.handlePlaceMedication)
			r.Post("/v1/orders/lab", h.handlePlaceLab)
			r.Post("/v1/orders/{kind}/{orderID}/status", h.handleMarkOrderStatus)
		})
	})
}

func (h *Handler) handleAssess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req AssessRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	patientID, err := parsePatient(req.PatientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	assessment, err := h.assessor.Assess(ctx, riskservice.AssessRequest{
		PatientID: patientID,
		Features:  req.Features,
		Source:    riskmodels.SourceTriage,
	})
	if err != nil {
		h.writeServiceError(ctx, w, "assess patient", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAssessmentResponse(assessment))
}

func (h *Handler) handleRecordCheckin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CheckinRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	patientID, err := parsePatient(req.PatientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.checkins.Record(ctx, checkinservice.RecordRequest{
		PatientID:        patientID,
		SymptomSeverity:  req.SymptomSeverity,
		Mood:             req.Mood,
		MedicationTaken:  req.MedicationTaken,
		HeartRate:        req.HeartRate,
		SystolicBP:       req.SystolicBP,
		OxygenSaturation: req.OxygenSaturation,
		Notes:            req.Notes,
		Baseline:         req.Baseline,
	})
	if err != nil {
		h.writeServiceError(ctx, w, "record check-in", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCheckinResponse(result))
}

func (h *Handler) handleAdmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req AdmitRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	patientID, err := parsePatient(req.PatientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	bedID, wardID, err := parseBed(req.BedID, req.WardID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	admission, err := h.admissions.Admit(ctx, admissionservice.AdmitRequest{
		PatientID:  patientID,
		BedID:      bedID,
		WardID:     wardID,
		PatientAge: req.PatientAge,
	})
	if err != nil {
		h.writeServiceError(ctx, w, "admit patient", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAdmissionResponse(admission))
}

func (h *Handler) handleGetAdmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admissionID, err := admissionParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	admission, err := h.admissions.Get(ctx, admissionID)
	if err != nil {
		h.writeServiceError(ctx, w, "get admission", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAdmissionResponse(admission))
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admissionID, err := admissionParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req TransferRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	bedID, wardID, err := parseBed(req.BedID, req.WardID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	admission, err := h.admissions.Transfer(ctx, admissionID, admissionservice.TransferRequest{BedID: bedID, WardID: wardID})
	if err != nil {
		h.writeServiceError(ctx, w, "transfer patient", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAdmissionResponse(admission))
}

func (h *Handler) handleDischarge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	admissionID, err := admissionParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	admission, err := h.admissions.Discharge(ctx, admissionID)
	if err != nil {
		h.writeServiceError(ctx, w, "discharge patient", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAdmissionResponse(admission))
}

func (h *Handler) handlePlaceMedication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req MedicationOrderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	patientID, err := parsePatient(req.PatientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	order, err := h.orders.PlaceMedication(ctx, orderservice.MedicationRequest{
		PatientID:  patientID,
		Medication: req.Medication,
		Dose:       req.Dose,
	})
	if err != nil {
		h.writeServiceError(ctx, w, "place medication order", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) handlePlaceLab(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req LabOrderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	patientID, err := parsePatient(req.PatientID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	order, err := h.orders.PlaceLab(ctx, orderservice.LabRequest{
		PatientID: patientID,
		TestName:  req.TestName,
		Priority:  ordermodels.LabPriority(req.Priority),
	})
	if err != nil {
		h.writeServiceError(ctx, w, "place lab order", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, orderID, err := orderParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	order, err := h.orders.Get(ctx, kind, orderID)
	if err != nil {
		h.writeServiceError(ctx, w, "get order", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) handleMarkOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, orderID, err := orderParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req OrderStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	order, err := h.orders.MarkStatus(ctx, kind, orderID, ordermodels.Status(req.Status))
	if err != nil {
		h.writeServiceError(ctx, w, "mark order status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	principal, _ := requestcontext.PrincipalFrom(ctx)
	if _, ok := dErrors.CodeOf(err); ok {
		h.logger.WarnContext(ctx, op+" rejected",
			"error", err.Error(),
			"subject", principal.Subject,
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		h.logger.ErrorContext(ctx, op+" failed",
			"error", err.Error(),
			"subject", principal.Subject,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}

func parsePatient(raw string) (id.PatientID, error) {
	patientID, err := id.ParsePatientID(raw)
	if err != nil {
		return id.PatientID{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid patient_id")
	}
	return patientID, nil
}

func parseBed(rawBed, rawWard string) (id.BedID, id.WardID, error) {
	bedID, err := id.ParseBedID(rawBed)
	if err != nil {
		return id.BedID{}, id.WardID{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid bed_id")
	}
	wardID, err := id.ParseWardID(rawWard)
	if err != nil {
		return id.BedID{}, id.WardID{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid ward_id")
	}
	return bedID, wardID, nil
}

func admissionParam(r *http.Request) (id.AdmissionID, error) {
	admissionID, err := id.ParseAdmissionID(chi.URLParam(r, "admissionID"))
	if err != nil {
		return id.AdmissionID{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid admission id")
	}
	return admissionID, nil
}

func orderParams(r *http.Request) (ordermodels.Kind, id.OrderID, error) {
	kind := ordermodels.Kind(chi.URLParam(r, "kind"))
	if kind != ordermodels.KindMedication && kind != ordermodels.KindLab {
		return "", id.OrderID{}, dErrors.Newf(dErrors.CodeNotFound, "unknown order kind %q", kind)
	}
	orderID, err := id.ParseOrderID(chi.URLParam(r, "orderID"))
	if err != nil {
		return "", id.OrderID{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid order id")
	}
	return kind, orderID, nil
}
