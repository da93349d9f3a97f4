package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"careflow/internal/referrals/models"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/platform/tx"
)

type sourceKey struct {
	event id.EventID
	rule  id.RuleID
}

type InMemory struct {
	mu        sync.Mutex
	referrals map[id.ReferralID]models.Referral
	order     []id.ReferralID
	bySource  map[sourceKey]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{
		referrals: make(map[id.ReferralID]models.Referral),
		bySource:  make(map[sourceKey]struct{}),
	}
}

func (s *InMemory) Save(ctx context.Context, r *models.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sourceKey{r.SourceEventID, r.RuleID}
	tracked := !r.SourceEventID.IsNil() && !r.RuleID.IsNil()
	if tracked {
		if _, exists := s.bySource[key]; exists {
			return fmt.Errorf("referral for event %s and rule %s: %w", r.SourceEventID, r.RuleID, sentinel.ErrConflict)
		}
		s.bySource[key] = struct{}{}
	}
	s.referrals[r.ID] = *r
	s.order = append(s.order, r.ID)

	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.referrals, r.ID)
		s.order = slices.DeleteFunc(s.order, func(other id.ReferralID) bool { return other == r.ID })
		if tracked {
			delete(s.bySource, key)
		}
	})
	return nil
}

// ListByPatient returns the patient's referrals in creation order.
func (s *InMemory) ListByPatient(_ context.Context, patientID id.PatientID) ([]*models.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Referral, 0)
	for _, referralID := range s.order {
		r := s.referrals[referralID]
		if r.PatientID == patientID {
			out = append(out, &r)
		}
	}
	return out, nil
}
