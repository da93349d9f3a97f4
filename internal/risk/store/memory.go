package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"careflow/internal/risk/models"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/platform/tx"
)

// InMemory stores assessments in process memory.
type InMemory struct {
	mu          sync.RWMutex
	assessments map[id.AssessmentID]*models.Assessment
}

func NewInMemory() *InMemory {
	return &InMemory{assessments: make(map[id.AssessmentID]*models.Assessment)}
}

func (s *InMemory) Save(ctx context.Context, a *models.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.assessments[a.ID]; exists {
		return sentinel.ErrConflict
	}
	s.assessments[a.ID] = clone(a)
	assessmentID := a.ID
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.assessments, assessmentID)
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, assessmentID id.AssessmentID) (*models.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assessments[assessmentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(a), nil
}

// ListByPatient returns the patient's assessments, newest first.
func (s *InMemory) ListByPatient(_ context.Context, patientID id.PatientID) ([]*models.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Assessment
	for _, a := range s.assessments {
		if a.PatientID == patientID {
			out = append(out, clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func clone(a *models.Assessment) *models.Assessment {
	c := *a
	c.Drivers = slices.Clone(a.Drivers)
	return &c
}
