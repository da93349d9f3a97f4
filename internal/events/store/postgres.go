package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"careflow/internal/events/models"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	txcontext "careflow/pkg/platform/tx"
)

// PostgresStore persists domain events in the domain_events table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed event log.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const eventColumns = `id, seq, type, payload, status, attempts, error, created_at, processed_at`

func (s *PostgresStore) Append(ctx context.Context, event *models.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	query := `
		INSERT INTO domain_events (id, type, payload, status, attempts, error, created_at)
		VALUES ($1, $2, $3, $4, 0, '', $5)
		RETURNING seq
	`
	err = s.execer(ctx).QueryRowContext(ctx, query,
		uuid.UUID(event.ID),
		string(event.Type),
		payload,
		string(event.Status),
		event.CreatedAt,
	).Scan(&event.Seq)
	if err != nil {
		return fmt.Errorf("insert domain event: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM domain_events WHERE id = $1`
	event, err := scanEvent(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(eventID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find domain event: %w", err)
	}
	return event, nil
}

func (s *PostgresStore) ListPending(ctx context.Context, limit int) ([]*models.Event, error) {
	return s.ListByStatus(ctx, models.StatusPending, limit)
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status models.Status, limit int) ([]*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM domain_events
		WHERE status = $1
		ORDER BY created_at ASC, seq ASC
		LIMIT $2
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("query domain events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ClaimPending moves up to limit PENDING rows to PROCESSING in one statement.
// SKIP LOCKED lets concurrent claimers take disjoint batches instead of waiting.
func (s *PostgresStore) ClaimPending(ctx context.Context, limit int, now time.Time) ([]*models.Event, error) {
	query := `
		UPDATE domain_events
		SET status = 'PROCESSING', attempts = attempts + 1, claimed_at = $2
		WHERE id IN (
			SELECT id FROM domain_events
			WHERE status = 'PENDING'
			ORDER BY created_at ASC, seq ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + eventColumns
	rows, err := s.execer(ctx).QueryContext(ctx, query, limit, now)
	if err != nil {
		return nil, fmt.Errorf("claim domain events: %w", err)
	}
	defer rows.Close()

	claimed, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	// RETURNING does not preserve the subquery order.
	sortFIFO(claimed)
	return claimed, nil
}

// Mark sets a terminal status. It reports false without error when the event is
// already terminal.
func (s *PostgresStore) Mark(ctx context.Context, eventID id.EventID, status models.Status, reason string, at time.Time) (bool, error) {
	query := `
		UPDATE domain_events
		SET status = $2, error = $3, processed_at = $4
		WHERE id = $1 AND status IN ('PENDING', 'PROCESSING')
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(eventID), string(status), reason, at)
	if err != nil {
		return false, fmt.Errorf("mark domain event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark domain event rows affected: %w", err)
	}
	if affected == 1 {
		return true, nil
	}
	return false, s.mustExist(ctx, eventID)
}

// Release returns a PROCESSING event to PENDING and clears its claim. It reports
// false without error for any other status.
func (s *PostgresStore) Release(ctx context.Context, eventID id.EventID) (bool, error) {
	query := `
		UPDATE domain_events
		SET status = 'PENDING', claimed_at = NULL
		WHERE id = $1 AND status = 'PROCESSING'
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(eventID))
	if err != nil {
		return false, fmt.Errorf("release domain event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("release domain event rows affected: %w", err)
	}
	if affected == 1 {
		return true, nil
	}
	return false, s.mustExist(ctx, eventID)
}

func (s *PostgresStore) mustExist(ctx context.Context, eventID id.EventID) error {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM domain_events WHERE id = $1)`, uuid.UUID(eventID),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check domain event: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		eventID     uuid.UUID
		eventType   string
		payload     []byte
		status      string
		processedAt sql.NullTime
		event       models.Event
	)
	if err := row.Scan(
		&eventID,
		&event.Seq,
		&eventType,
		&payload,
		&status,
		&event.Attempts,
		&event.Error,
		&event.CreatedAt,
		&processedAt,
	); err != nil {
		return nil, err
	}
	event.ID = id.EventID(eventID)
	event.Type = models.Type(eventType)
	event.Status = models.Status(status)
	if processedAt.Valid {
		t := processedAt.Time
		event.ProcessedAt = &t
	}
	decoded, err := models.DecodePayload(event.Type, payload)
	if err != nil {
		return nil, err
	}
	event.Payload = decoded
	return &event, nil
}

func scanEvents(rows *sql.Rows) ([]*models.Event, error) {
	var out []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan domain event: %w", err)
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate domain events: %w", err)
	}
	return out, nil
}
