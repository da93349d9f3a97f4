package store

import (
	"context"
	"slices"
	"sync"

	"careflow/internal/checkin/models"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/tx"
)

type InMemory struct {
	mu        sync.Mutex
	byPatient map[id.PatientID][]models.Checkin
}

func NewInMemory() *InMemory {
	return &InMemory{byPatient: make(map[id.PatientID][]models.Checkin)}
}

func (s *InMemory) Save(ctx context.Context, c *models.Checkin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *c
	stored.Signals = slices.Clone(c.Signals)
	s.byPatient[c.PatientID] = append(s.byPatient[c.PatientID], stored)

	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.byPatient[c.PatientID] = slices.DeleteFunc(s.byPatient[c.PatientID], func(other models.Checkin) bool {
			return other.ID == c.ID
		})
	})
	return nil
}

// ListByPatient returns check-ins newest first, at most limit when limit > 0.
func (s *InMemory) ListByPatient(_ context.Context, patientID id.PatientID, limit int) ([]*models.Checkin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byPatient[patientID]
	out := make([]*models.Checkin, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		c := list[i]
		c.Signals = slices.Clone(c.Signals)
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
