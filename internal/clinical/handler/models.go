package handler

import (
	"time"

	admissionmodels "careflow/internal/admission/models"
	checkinmodels "careflow/internal/checkin/models"
	checkinservice "careflow/internal/checkin/service"
	ordermodels "careflow/internal/orders/models"
	riskmodels "careflow/internal/risk/models"
)

type AssessRequest struct {
	PatientID string              `json:"patient_id"`
	Features  riskmodels.Features `json:"features"`
}

type AssessmentResponse struct {
	ID        string              `json:"id"`
	PatientID string              `json:"patient_id"`
	Score     float64             `json:"risk_score"`
	Level     string              `json:"risk_level"`
	Drivers   []riskmodels.Driver `json:"drivers"`
	Source    string              `json:"source"`
	CreatedAt time.Time           `json:"created_at"`
}

func toAssessmentResponse(a *riskmodels.Assessment) AssessmentResponse {
	return AssessmentResponse{
		ID:        a.ID.String(),
		PatientID: a.PatientID.String(),
		Score:     a.Score,
		Level:     string(a.Level),
		Drivers:   a.Drivers,
		Source:    string(a.Source),
		CreatedAt: a.CreatedAt,
	}
}

type CheckinRequest struct {
	PatientID        string               `json:"patient_id"`
	SymptomSeverity  int                  `json:"symptom_severity"`
	Mood             int                  `json:"mood"`
	MedicationTaken  bool                 `json:"medication_taken"`
	HeartRate        *float64             `json:"heart_rate,omitempty"`
	SystolicBP       *float64             `json:"systolic_bp,omitempty"`
	OxygenSaturation *float64             `json:"oxygen_saturation,omitempty"`
	Notes            string               `json:"notes,omitempty"`
	Baseline         *riskmodels.Features `json:"baseline,omitempty"`
}

type CheckinResponse struct {
	ID         string              `json:"id"`
	PatientID  string              `json:"patient_id"`
	Urgency    string              `json:"urgency"`
	Signals    []string            `json:"signals"`
	EventID    string              `json:"event_id,omitempty"`
	Assessment *AssessmentResponse `json:"assessment,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

func toCheckinResponse(r *checkinservice.RecordResult) CheckinResponse {
	resp := CheckinResponse{
		ID:        r.Checkin.ID.String(),
		PatientID: r.Checkin.PatientID.String(),
		Urgency:   string(r.Urgency),
		Signals:   signalNames(r.Checkin.Signals),
		CreatedAt: r.Checkin.CreatedAt,
	}
	if r.EventID != nil {
		resp.EventID = r.EventID.String()
	}
	if r.Assessment != nil {
		a := toAssessmentResponse(r.Assessment)
		resp.Assessment = &a
	}
	return resp
}

func signalNames(signals []checkinmodels.Signal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = string(s)
	}
	return out
}

type AdmitRequest struct {
	PatientID  string `json:"patient_id"`
	BedID      string `json:"bed_id"`
	WardID     string `json:"ward_id"`
	PatientAge *int   `json:"patient_age,omitempty"`
}

type TransferRequest struct {
	BedID  string `json:"bed_id"`
	WardID string `json:"ward_id"`
}

type AdmissionResponse struct {
	ID            string     `json:"id"`
	PatientID     string     `json:"patient_id"`
	BedID         string     `json:"bed_id"`
	WardID        string     `json:"ward_id"`
	Status        string     `json:"status"`
	AdmittedAt    time.Time  `json:"admitted_at"`
	TransferredAt *time.Time `json:"transferred_at,omitempty"`
	DischargedAt  *time.Time `json:"discharged_at,omitempty"`
}

func toAdmissionResponse(a *admissionmodels.Admission) AdmissionResponse {
	return AdmissionResponse{
		ID:            a.ID.String(),
		PatientID:     a.PatientID.String(),
		BedID:         a.BedID.String(),
		WardID:        a.WardID.String(),
		Status:        string(a.Status),
		AdmittedAt:    a.AdmittedAt,
		TransferredAt: a.TransferredAt,
		DischargedAt:  a.DischargedAt,
	}
}

type MedicationOrderRequest struct {
	PatientID  string `json:"patient_id"`
	Medication string `json:"medication"`
	Dose       string `json:"dose"`
}

type LabOrderRequest struct {
	PatientID string `json:"patient_id"`
	TestName  string `json:"test_name"`
	Priority  string `json:"priority,omitempty"`
}

type OrderStatusRequest struct {
	Status string `json:"status"`
}

type OrderResponse struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	PatientID  string    `json:"patient_id"`
	Status     string    `json:"status"`
	Medication string    `json:"medication,omitempty"`
	Dose       string    `json:"dose,omitempty"`
	TestName   string    `json:"test_name,omitempty"`
	Priority   string    `json:"priority,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toOrderResponse(o *ordermodels.Order) OrderResponse {
	return OrderResponse{
		ID:         o.ID.String(),
		Kind:       string(o.Kind),
		PatientID:  o.PatientID.String(),
		Status:     string(o.Status),
		Medication: o.Medication,
		Dose:       o.Dose,
		TestName:   o.TestName,
		Priority:   string(o.Priority),
		UpdatedAt:  o.UpdatedAt,
	}
}
