package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"careflow/internal/workflow/models"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/platform/tx"
)

// InMemory keeps rules plus a rule set version bumped by every write.
type InMemory struct {
	mu      sync.RWMutex
	rules   map[id.RuleID]*models.Rule
	version int64
}

func NewInMemory() *InMemory {
	return &InMemory{rules: make(map[id.RuleID]*models.Rule)}
}

func (s *InMemory) Create(ctx context.Context, r *models.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[r.ID]; exists {
		return fmt.Errorf("rule %s: %w", r.ID, sentinel.ErrConflict)
	}
	for _, other := range s.rules {
		if strings.EqualFold(other.Name, r.Name) {
			return fmt.Errorf("rule name %q: %w", r.Name, sentinel.ErrConflict)
		}
	}
	s.rules[r.ID] = r.Clone()
	s.version++
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.rules, r.ID)
		s.version--
	})
	return nil
}

// Update replaces a rule while its stored version still equals expectedVersion.
func (s *InMemory) Update(ctx context.Context, r *models.Rule, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.rules[r.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("rule version changed: %w", sentinel.ErrConflict)
	}
	for otherID, other := range s.rules {
		if otherID != r.ID && strings.EqualFold(other.Name, r.Name) {
			return fmt.Errorf("rule name %q: %w", r.Name, sentinel.ErrConflict)
		}
	}
	s.rules[r.ID] = r.Clone()
	s.version++
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.rules[current.ID] = current
		s.version--
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, ruleID id.RuleID) (*models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[ruleID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

// List returns every rule in execution order.
func (s *InMemory) List(_ context.Context) ([]*models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Rule, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, r.Clone())
	}
	models.SortForExecution(out)
	return out, nil
}

// Snapshot returns the active rules together with the rule set version they belong to.
func (s *InMemory) Snapshot(_ context.Context) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := &models.Snapshot{Version: s.version}
	for _, r := range s.rules {
		if r.Active {
			snap.Rules = append(snap.Rules, r.Clone())
		}
	}
	models.SortForExecution(snap.Rules)
	return snap, nil
}
