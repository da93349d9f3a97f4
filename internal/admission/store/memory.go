package store

import (
	"context"
	"fmt"
	"sync"

	"careflow/internal/admission/models"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/platform/tx"
)

// InMemory keeps admissions plus indexes of occupied beds and admitted patients.
type InMemory struct {
	mu              sync.Mutex
	admissions      map[id.AdmissionID]*models.Admission
	activeByBed     map[id.BedID]id.AdmissionID
	activeByPatient map[id.PatientID]id.AdmissionID
}

func NewInMemory() *InMemory {
	return &InMemory{
		admissions:      make(map[id.AdmissionID]*models.Admission),
		activeByBed:     make(map[id.BedID]id.AdmissionID),
		activeByPatient: make(map[id.PatientID]id.AdmissionID),
	}
}

// Create inserts a new admission. It returns sentinel.ErrConflict when the bed or
// the patient already has an active admission.
func (s *InMemory) Create(ctx context.Context, a *models.Admission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.activeByBed[a.BedID]; taken {
		return fmt.Errorf("bed occupied: %w", sentinel.ErrConflict)
	}
	if _, admitted := s.activeByPatient[a.PatientID]; admitted {
		return fmt.Errorf("patient already admitted: %w", sentinel.ErrConflict)
	}
	s.admissions[a.ID] = a.Clone()
	s.activeByBed[a.BedID] = a.ID
	s.activeByPatient[a.PatientID] = a.ID

	created := a.Clone()
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.admissions, created.ID)
		delete(s.activeByBed, created.BedID)
		delete(s.activeByPatient, created.PatientID)
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, admissionID id.AdmissionID) (*models.Admission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admissions[admissionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return a.Clone(), nil
}

func (s *InMemory) FindActiveByBed(_ context.Context, bedID id.BedID) (*models.Admission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	admissionID, ok := s.activeByBed[bedID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.admissions[admissionID].Clone(), nil
}

// UpdateIfVersion replaces the stored admission only while its version still equals
// expectedVersion. A lost race or an occupied target bed returns sentinel.ErrConflict.
func (s *InMemory) UpdateIfVersion(ctx context.Context, a *models.Admission, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.admissions[a.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("admission version changed: %w", sentinel.ErrConflict)
	}
	if a.IsActive() {
		if holder, taken := s.activeByBed[a.BedID]; taken && holder != a.ID {
			return fmt.Errorf("bed occupied: %w", sentinel.ErrConflict)
		}
	}

	previous := current.Clone()
	s.apply(a.Clone(), current)
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.apply(previous, s.admissions[previous.ID])
	})
	return nil
}

// apply swaps next in for current and keeps the occupancy indexes in step. Caller holds mu.
func (s *InMemory) apply(next, current *models.Admission) {
	if current.IsActive() {
		delete(s.activeByBed, current.BedID)
		delete(s.activeByPatient, current.PatientID)
	}
	if next.IsActive() {
		s.activeByBed[next.BedID] = next.ID
		s.activeByPatient[next.PatientID] = next.ID
	}
	s.admissions[next.ID] = next
}
