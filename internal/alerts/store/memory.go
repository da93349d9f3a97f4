package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"careflow/internal/alerts/models"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/platform/tx"
)

type sourceKey struct {
	event id.EventID
	rule  id.RuleID
}

// InMemory keeps alerts in insertion order and rejects a second alert for the same
// (source event, rule) pair.
type InMemory struct {
	mu       sync.Mutex
	alerts   []models.Alert
	bySource map[sourceKey]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{bySource: make(map[sourceKey]struct{})}
}

func (s *InMemory) Save(ctx context.Context, a *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sourceKey{a.SourceEventID, a.RuleID}
	tracked := !a.SourceEventID.IsNil() && !a.RuleID.IsNil()
	if tracked {
		if _, exists := s.bySource[key]; exists {
			return fmt.Errorf("alert for event %s and rule %s: %w", a.SourceEventID, a.RuleID, sentinel.ErrConflict)
		}
		s.bySource[key] = struct{}{}
	}
	s.alerts = append(s.alerts, *a)

	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := len(s.alerts) - 1; i >= 0; i-- {
			if s.alerts[i].ID == a.ID {
				s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
				break
			}
		}
		if tracked {
			delete(s.bySource, key)
		}
	})
	return nil
}

// ListByPatient returns the patient's alerts, newest first.
func (s *InMemory) ListByPatient(_ context.Context, patientID id.PatientID, limit int) ([]*models.Alert, error) {
	return s.filter(limit, func(a *models.Alert) bool { return a.PatientID == patientID }), nil
}

// ListBySourceEvent returns every alert raised while handling eventID, newest first.
func (s *InMemory) ListBySourceEvent(_ context.Context, eventID id.EventID) ([]*models.Alert, error) {
	return s.filter(0, func(a *models.Alert) bool { return a.SourceEventID == eventID }), nil
}

func (s *InMemory) ListRecent(_ context.Context, limit int) ([]*models.Alert, error) {
	return s.filter(limit, func(*models.Alert) bool { return true }), nil
}

func (s *InMemory) filter(limit int, keep func(*models.Alert) bool) []*models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Alert, 0)
	for i := range s.alerts {
		if keep(&s.alerts[i]) {
			a := s.alerts[i]
			out = append(out, &a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
