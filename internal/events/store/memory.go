package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"careflow/internal/events/models"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/platform/tx"
)

// InMemory is a process-local event log. A single mutex makes ClaimPending atomic,
// so concurrent batches always receive disjoint events.
type InMemory struct {
	mu     sync.Mutex
	seq    int64
	events map[id.EventID]*models.Event
	order  []id.EventID
}

// NewInMemory creates an empty in-memory event log.
func NewInMemory() *InMemory {
	return &InMemory{events: make(map[id.EventID]*models.Event)}
}

func (s *InMemory) Append(ctx context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[event.ID]; exists {
		return sentinel.ErrConflict
	}
	s.seq++
	event.Seq = s.seq
	s.events[event.ID] = event.Clone()
	s.order = append(s.order, event.ID)

	eventID := event.ID
	tx.OnRollback(ctx, func() { s.remove(eventID) })
	return nil
}

func (s *InMemory) remove(eventID id.EventID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, eventID)
	for i, candidate := range s.order {
		if candidate == eventID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *InMemory) FindByID(_ context.Context, eventID id.EventID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return event.Clone(), nil
}

// pendingLocked returns PENDING events in FIFO order. Caller holds mu.
func (s *InMemory) pendingLocked(limit int) []*models.Event {
	var pending []*models.Event
	for _, eventID := range s.order {
		if event := s.events[eventID]; event.Status == models.StatusPending {
			pending = append(pending, event)
		}
	}
	sortFIFO(pending)
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending
}

func (s *InMemory) ListPending(_ context.Context, limit int) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.pendingLocked(limit)
	out := make([]*models.Event, len(pending))
	for i, event := range pending {
		out[i] = event.Clone()
	}
	return out, nil
}

func (s *InMemory) ClaimPending(_ context.Context, limit int, _ time.Time) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.pendingLocked(limit)
	out := make([]*models.Event, len(pending))
	for i, event := range pending {
		event.Status = models.StatusProcessing
		event.Attempts++
		out[i] = event.Clone()
	}
	return out, nil
}

func (s *InMemory) Mark(_ context.Context, eventID id.EventID, status models.Status, reason string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if event.Status.IsTerminal() {
		return false, nil
	}
	event.Status = status
	event.Error = reason
	processedAt := at
	event.ProcessedAt = &processedAt
	return true, nil
}

// Release returns a PROCESSING event to PENDING. It reports false without error for
// any other status.
func (s *InMemory) Release(_ context.Context, eventID id.EventID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[eventID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if event.Status != models.StatusProcessing {
		return false, nil
	}
	event.Status = models.StatusPending
	return true, nil
}

func (s *InMemory) ListByStatus(_ context.Context, status models.Status, limit int) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Event
	for _, eventID := range s.order {
		if event := s.events[eventID]; event.Status == status {
			out = append(out, event.Clone())
		}
	}
	sortFIFO(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortFIFO(events []*models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		}
		return events[i].Seq < events[j].Seq
	})
}
