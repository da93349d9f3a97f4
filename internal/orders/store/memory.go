package store

import (
	"context"
	"fmt"
	"sync"

	"careflow/internal/orders/models"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/platform/tx"
)

type orderKey struct {
	kind models.Kind
	id   id.OrderID
}

// InMemory keeps medication and lab orders in separate key spaces.
type InMemory struct {
	mu     sync.Mutex
	orders map[orderKey]*models.Order
}

func NewInMemory() *InMemory {
	return &InMemory{orders: make(map[orderKey]*models.Order)}
}

func (s *InMemory) Create(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := orderKey{o.Kind, o.ID}
	if _, exists := s.orders[key]; exists {
		return fmt.Errorf("order %s: %w", o.ID, sentinel.ErrConflict)
	}
	s.orders[key] = o.Clone()
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.orders, key)
	})
	return nil
}

func (s *InMemory) FindByID(_ context.Context, kind models.Kind, orderID id.OrderID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderKey{kind, orderID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return o.Clone(), nil
}

// UpdateIfStatus stores o only while the stored status still equals expected.
func (s *InMemory) UpdateIfStatus(ctx context.Context, o *models.Order, expected models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := orderKey{o.Kind, o.ID}
	current, ok := s.orders[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Status != expected {
		return fmt.Errorf("order status changed: %w", sentinel.ErrConflict)
	}
	s.orders[key] = o.Clone()
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.orders[key] = current
	})
	return nil
}
