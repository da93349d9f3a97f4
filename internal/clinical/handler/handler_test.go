package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	admissionmodels "careflow/internal/admission/models"
	admissionservice "careflow/internal/admission/service"
	"careflow/internal/clinical/handler/mocks"
	checkinmodels "careflow/internal/checkin/models"
	checkinservice "careflow/internal/checkin/service"
	ordermodels "careflow/internal/orders/models"
	orderservice "careflow/internal/orders/service"
	"careflow/internal/platform/metrics"
	ratelimitmw "careflow/internal/ratelimit/middleware"
	ratelimitmodels "careflow/internal/ratelimit/models"
	ratelimitservice "careflow/internal/ratelimit/service"
	"careflow/internal/ratelimit/store/bucket"
	riskmodels "careflow/internal/risk/models"
	riskservice "careflow/internal/risk/service"
	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
	"careflow/pkg/platform/middleware/auth"
	"careflow/pkg/testutil"
)

type tokenValidator struct{}

func (tokenValidator) ValidateToken(token string) (*auth.JWTClaims, error) {
	subject, role, ok := strings.Cut(token, ":")
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return &auth.JWTClaims{Subject: subject, Role: role}, nil
}

const clinicianToken = "dr.ade:clinician"

type ClinicalHandlerSuite struct {
	suite.Suite
	assessor   *mocks.MockAssessor
	checkins   *mocks.MockCheckinRecorder
	admissions *mocks.MockAdmissionManager
	orders     *mocks.MockOrderManager
	router     chi.Router

	patientID id.PatientID
	bedID     id.BedID
	wardID    id.WardID
}

func TestClinicalHandlerSuite(t *testing.T) {
	suite.Run(t, new(ClinicalHandlerSuite))
}

func (s *ClinicalHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.assessor = mocks.NewMockAssessor(ctrl)
	s.checkins = mocks.NewMockCheckinRecorder(ctrl)
	s.admissions = mocks.NewMockAdmissionManager(ctrl)
	s.orders = mocks.NewMockOrderManager(ctrl)

	s.patientID = id.PatientID(uuid.New())
	s.bedID = id.BedID(uuid.New())
	s.wardID = id.WardID(uuid.New())

	h := New(s.assessor, s.checkins, s.admissions, s.orders, tokenValidator{},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithMetrics(metrics.New(prometheus.NewRegistry())),
	)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *ClinicalHandlerSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return testutil.DoRequest(s.router, req)
}

func (s *ClinicalHandlerSuite) decode(w *httptest.ResponseRecorder, dst any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), dst))
}

func (s *ClinicalHandlerSuite) TestRoleGate() {
	s.Run("missing token", func() {
		w := s.do(http.MethodPost, "/v1/assessments", "", map[string]string{"patient_id": s.patientID.String()})
		testutil.AssertError(s.T(), w, http.StatusUnauthorized, dErrors.CodeUnauthorized)
	})

	s.Run("ops role cannot write clinical records", func() {
		w := s.do(http.MethodPost, "/v1/assessments", "ops-bot:ops", map[string]string{"patient_id": s.patientID.String()})
		testutil.AssertError(s.T(), w, http.StatusForbidden, dErrors.CodeForbidden)
	})
}

func (s *ClinicalHandlerSuite) TestAssess() {
	s.Run("stores a triage assessment", func() {
		age := 72.0
		s.assessor.EXPECT().Assess(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, req riskservice.AssessRequest) (*riskmodels.Assessment, error) {
				s.Equal(s.patientID, req.PatientID)
				s.Equal(riskmodels.SourceTriage, req.Source)
				s.Require().NotNil(req.Features.Age)
				s.Equal(age, *req.Features.Age)
				return &riskmodels.Assessment{
					ID:        id.NewAssessmentID(),
					PatientID: req.PatientID,
					Score:     0.81,
					Level:     riskmodels.Level("CRITICAL"),
					Drivers:   []riskmodels.Driver{{Feature: "age", Label: "Age", Contribution: 0.4}},
					Source:    req.Source,
					CreatedAt: time.Now(),
				}, nil
			})

		w := s.do(http.MethodPost, "/v1/assessments", clinicianToken, map[string]any{
			"patient_id": s.patientID.String(),
			"features":   map[string]any{"age": age},
		})
		s.Require().Equal(http.StatusCreated, w.Code)
		var resp AssessmentResponse
		s.decode(w, &resp)
		s.Equal("CRITICAL", resp.Level)
		s.Equal("triage", resp.Source)
		s.Len(resp.Drivers, 1)
	})

	s.Run("malformed patient id", func() {
		w := s.do(http.MethodPost, "/v1/assessments", clinicianToken, map[string]any{"patient_id": "p-1"})
		s.Equal(http.StatusBadRequest, w.Code)
		s.Contains(w.Body.String(), "patient_id")
	})

	s.Run("validation failure is surfaced", func() {
		s.assessor.EXPECT().Assess(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeValidation, "age out of range"))
		w := s.do(http.MethodPost, "/v1/assessments", "root:admin", map[string]any{"patient_id": s.patientID.String()})
		body := testutil.AssertError(s.T(), w, http.StatusBadRequest, dErrors.CodeValidation)
		s.Equal("age out of range", body.ErrorDescription)
	})
}

func (s *ClinicalHandlerSuite) TestRecordCheckin() {
	eventID := id.NewEventID()
	s.checkins.EXPECT().Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req checkinservice.RecordRequest) (*checkinservice.RecordResult, error) {
			s.Equal(9, req.SymptomSeverity)
			s.Require().NotNil(req.OxygenSaturation)
			return &checkinservice.RecordResult{
				Checkin: &checkinmodels.Checkin{
					ID:        id.NewCheckinID(),
					PatientID: req.PatientID,
					Signals:   []checkinmodels.Signal{checkinmodels.SignalSevereSymptoms, checkinmodels.SignalLowOxygen},
					CreatedAt: time.Now(),
				},
				Urgency: checkinmodels.UrgencyCritical,
				EventID: &eventID,
			}, nil
		})

	w := s.do(http.MethodPost, "/v1/checkins", clinicianToken, map[string]any{
		"patient_id":        s.patientID.String(),
		"symptom_severity":  9,
		"mood":              3,
		"medication_taken":  true,
		"oxygen_saturation": 88,
	})
	s.Require().Equal(http.StatusCreated, w.Code)
	var resp CheckinResponse
	s.decode(w, &resp)
	s.Equal("critical", resp.Urgency)
	s.Equal(eventID.String(), resp.EventID)
	s.Equal([]string{"severe_symptoms", "low_oxygen"}, resp.Signals)
	s.Nil(resp.Assessment)
}

func (s *ClinicalHandlerSuite) TestAdmissions() {
	admissionID := id.NewAdmissionID()
	admitted := func() *admissionmodels.Admission {
		return &admissionmodels.Admission{
			ID:         admissionID,
			PatientID:  s.patientID,
			BedID:      s.bedID,
			WardID:     s.wardID,
			Status:     admissionmodels.StatusAdmitted,
			AdmittedAt: time.Now(),
		}
	}

	s.Run("admit", func() {
		s.admissions.EXPECT().Admit(gomock.Any(), admissionservice.AdmitRequest{
			PatientID: s.patientID,
			BedID:     s.bedID,
			WardID:    s.wardID,
		}).Return(admitted(), nil)

		w := s.do(http.MethodPost, "/v1/admissions", clinicianToken, map[string]string{
			"patient_id": s.patientID.String(),
			"bed_id":     s.bedID.String(),
			"ward_id":    s.wardID.String(),
		})
		s.Require().Equal(http.StatusCreated, w.Code)
		var resp AdmissionResponse
		s.decode(w, &resp)
		s.Equal(admissionID.String(), resp.ID)
		s.Equal("ADMITTED", resp.Status)
	})

	s.Run("occupied bed is a conflict", func() {
		s.admissions.EXPECT().Admit(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "bed is occupied"))
		w := s.do(http.MethodPost, "/v1/admissions", clinicianToken, map[string]string{
			"patient_id": s.patientID.String(),
			"bed_id":     s.bedID.String(),
			"ward_id":    s.wardID.String(),
		})
		body := testutil.AssertError(s.T(), w, http.StatusConflict, dErrors.CodeConflict)
		s.Equal("bed is occupied", body.ErrorDescription)
	})

	s.Run("missing ward", func() {
		w := s.do(http.MethodPost, "/v1/admissions", clinicianToken, map[string]string{
			"patient_id": s.patientID.String(),
			"bed_id":     s.bedID.String(),
		})
		s.Equal(http.StatusBadRequest, w.Code)
		s.Contains(w.Body.String(), "ward_id")
	})

	s.Run("transfer", func() {
		newBed := id.BedID(uuid.New())
		s.admissions.EXPECT().Transfer(gomock.Any(), admissionID, admissionservice.TransferRequest{BedID: newBed, WardID: s.wardID}).
			DoAndReturn(func(_ any, _ id.AdmissionID, req admissionservice.TransferRequest) (*admissionmodels.Admission, error) {
				a := admitted()
				now := time.Now()
				a.BedID = req.BedID
				a.Status = admissionmodels.StatusTransferred
				a.TransferredAt = &now
				return a, nil
			})

		w := s.do(http.MethodPost, "/v1/admissions/"+admissionID.String()+"/transfer", clinicianToken, map[string]string{
			"bed_id":  newBed.String(),
			"ward_id": s.wardID.String(),
		})
		s.Require().Equal(http.StatusOK, w.Code)
		var resp AdmissionResponse
		s.decode(w, &resp)
		s.Equal("TRANSFERRED", resp.Status)
		s.Equal(newBed.String(), resp.BedID)
		s.NotNil(resp.TransferredAt)
	})

	s.Run("discharging twice is an invalid transition", func() {
		s.admissions.EXPECT().Discharge(gomock.Any(), admissionID).
			Return(nil, dErrors.New(dErrors.CodeInvalidTransition, "admission already discharged"))
		w := s.do(http.MethodPost, "/v1/admissions/"+admissionID.String()+"/discharge", clinicianToken, nil)
		testutil.AssertError(s.T(), w, http.StatusUnprocessableEntity, dErrors.CodeInvalidTransition)
	})

	s.Run("get unknown admission", func() {
		s.admissions.EXPECT().Get(gomock.Any(), admissionID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "admission not found"))
		w := s.do(http.MethodGet, "/v1/admissions/"+admissionID.String(), clinicianToken, nil)
		testutil.AssertError(s.T(), w, http.StatusNotFound, dErrors.CodeNotFound)
	})

	s.Run("malformed admission id", func() {
		w := s.do(http.MethodGet, "/v1/admissions/not-a-uuid", clinicianToken, nil)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *ClinicalHandlerSuite) TestOrders() {
	orderID := id.NewOrderID()

	s.Run("place medication", func() {
		s.orders.EXPECT().PlaceMedication(gomock.Any(), orderservice.MedicationRequest{
			PatientID:  s.patientID,
			Medication: "amoxicillin",
			Dose:       "500mg",
		}).Return(&ordermodels.Order{
			ID:         orderID,
			Kind:       ordermodels.KindMedication,
			PatientID:  s.patientID,
			Status:     ordermodels.StatusOrdered,
			Medication: "amoxicillin",
			Dose:       "500mg",
		}, nil)

		w := s.do(http.MethodPost, "/v1/orders/medication", clinicianToken, map[string]string{
			"patient_id": s.patientID.String(),
			"medication": "amoxicillin",
			"dose":       "500mg",
		})
		s.Require().Equal(http.StatusCreated, w.Code)
		var resp OrderResponse
		s.decode(w, &resp)
		s.Equal("medication", resp.Kind)
		s.Equal("ORDERED", resp.Status)
	})

	s.Run("place lab passes priority through", func() {
		s.orders.EXPECT().PlaceLab(gomock.Any(), orderservice.LabRequest{
			PatientID: s.patientID,
			TestName:  "lactate",
			Priority:  ordermodels.PriorityStat,
		}).Return(&ordermodels.Order{
			ID:        orderID,
			Kind:      ordermodels.KindLab,
			PatientID: s.patientID,
			Status:    ordermodels.StatusOrdered,
			TestName:  "lactate",
			Priority:  ordermodels.PriorityStat,
		}, nil)

		w := s.do(http.MethodPost, "/v1/orders/lab", clinicianToken, map[string]string{
			"patient_id": s.patientID.String(),
			"test_name":  "lactate",
			"priority":   "stat",
		})
		s.Require().Equal(http.StatusCreated, w.Code)
	})

	s.Run("status edge", func() {
		s.orders.EXPECT().MarkStatus(gomock.Any(), ordermodels.KindLab, orderID, ordermodels.StatusInProgress).
			Return(&ordermodels.Order{ID: orderID, Kind: ordermodels.KindLab, Status: ordermodels.StatusInProgress}, nil)
		w := s.do(http.MethodPost, "/v1/orders/lab/"+orderID.String()+"/status", clinicianToken,
			map[string]string{"status": "IN_PROGRESS"})
		s.Require().Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), "IN_PROGRESS")
	})

	s.Run("disallowed edge", func() {
		s.orders.EXPECT().MarkStatus(gomock.Any(), ordermodels.KindMedication, orderID, ordermodels.StatusOrdered).
			Return(nil, dErrors.New(dErrors.CodeInvalidTransition, "cannot move medication order from COMPLETED to ORDERED"))
		w := s.do(http.MethodPost, "/v1/orders/medication/"+orderID.String()+"/status", clinicianToken,
			map[string]string{"status": "ORDERED"})
		s.Equal(http.StatusUnprocessableEntity, w.Code)
	})

	s.Run("unknown kind", func() {
		w := s.do(http.MethodGet, "/v1/orders/imaging/"+orderID.String(), clinicianToken, nil)
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("storage failure hides details", func() {
		s.orders.EXPECT().Get(gomock.Any(), ordermodels.KindLab, orderID).
			Return(nil, errors.New("pq: connection reset"))
		w := s.do(http.MethodGet, "/v1/orders/lab/"+orderID.String(), clinicianToken, nil)
		s.Equal(http.StatusInternalServerError, w.Code)
		s.NotContains(w.Body.String(), "pq")
	})
}

func (s *ClinicalHandlerSuite) TestWritesAreRateLimitedPerPrincipal() {
	limiter, err := ratelimitservice.New(bucket.NewInMemoryBucketStore(), map[ratelimitmodels.EndpointClass]ratelimitmodels.Limit{
		ratelimitmodels.ClassWrite: {Requests: 1, Window: time.Minute},
	})
	s.Require().NoError(err)
	mw := ratelimitmw.New(limiter, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := New(s.assessor, s.checkins, s.admissions, s.orders, tokenValidator{},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithRateLimits(
			mw.RateLimitAuthenticated(ratelimitmodels.ClassRead),
			mw.RateLimitAuthenticated(ratelimitmodels.ClassWrite),
		),
	)
	s.router = chi.NewRouter()
	h.Register(s.router)

	// the limiter runs before the body is decoded, so rejected payloads still count
	body := map[string]string{"patient_id": "not-a-uuid"}
	w := s.do(http.MethodPost, "/v1/orders/lab", "nurse-1:clinician", body)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("0", w.Header().Get("X-RateLimit-Remaining"))

	w = s.do(http.MethodPost, "/v1/checkins", "nurse-1:clinician", body)
	s.Equal(http.StatusTooManyRequests, w.Code)

	w = s.do(http.MethodPost, "/v1/orders/lab", "nurse-2:clinician", body)
	s.Equal(http.StatusBadRequest, w.Code)

	s.admissions.EXPECT().Get(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "admission not found"))
	w = s.do(http.MethodGet, "/v1/admissions/"+uuid.NewString(), "nurse-1:clinician", nil)
	s.Equal(http.StatusNotFound, w.Code)
}
