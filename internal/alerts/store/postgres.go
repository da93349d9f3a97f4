package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"careflow/internal/alerts/models"
	"careflow/internal/platform/postgres"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	txcontext "careflow/pkg/platform/tx"
)

// PostgresStore persists alerts. The partial unique index on (source_event_id, rule_id)
// turns a duplicate rule firing into sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Save(ctx context.Context, a *models.Alert) error {
	query := `
		INSERT INTO alerts (id, patient_id, severity, reason, source_event_id, rule_id, escalation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (source_event_id, rule_id)
			WHERE source_event_id IS NOT NULL AND rule_id IS NOT NULL
			DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(a.ID),
		uuid.UUID(a.PatientID),
		string(a.Severity),
		a.Reason,
		nullUUID(uuid.UUID(a.SourceEventID)),
		nullUUID(uuid.UUID(a.RuleID)),
		a.Escalation,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", postgres.TranslateError(err))
	}
	// zero rows means the (source event, rule) pair already exists; the enclosing tx stays open
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert alert rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alert for event %s and rule %s: %w", a.SourceEventID, a.RuleID, sentinel.ErrConflict)
	}
	return nil
}

const alertColumns = `id, patient_id, severity, reason, source_event_id, rule_id, escalation, created_at`

func (s *PostgresStore) ListByPatient(ctx context.Context, patientID id.PatientID, limit int) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2`
	return s.list(ctx, query, uuid.UUID(patientID), limitOrAll(limit))
}

func (s *PostgresStore) ListBySourceEvent(ctx context.Context, eventID id.EventID) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE source_event_id = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, uuid.UUID(eventID))
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts ORDER BY created_at DESC LIMIT $1`
	return s.list(ctx, query, limitOrAll(limit))
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Alert, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Alert, 0)
	for rows.Next() {
		var (
			alertID, patientID uuid.UUID
			eventID, ruleID    uuid.NullUUID
			severity           string
			a                  models.Alert
		)
		if err := rows.Scan(&alertID, &patientID, &severity, &a.Reason, &eventID, &ruleID, &a.Escalation, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.ID = id.AlertID(alertID)
		a.PatientID = id.PatientID(patientID)
		a.Severity = models.Severity(severity)
		if eventID.Valid {
			a.SourceEventID = id.EventID(eventID.UUID)
		}
		if ruleID.Valid {
			a.RuleID = id.RuleID(ruleID.UUID)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}

// limitOrAll maps a non-positive limit to NULL, which LIMIT treats as no limit.
func limitOrAll(limit int) sql.NullInt64 {
	if limit <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(limit), Valid: true}
}
