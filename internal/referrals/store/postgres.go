package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"careflow/internal/platform/postgres"
	"careflow/internal/referrals/models"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	txcontext "careflow/pkg/platform/tx"
)

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

func (s *PostgresStore) Save(ctx context.Context, r *models.Referral) error {
	query := `
		INSERT INTO referrals (id, patient_id, category, reason, status, source_event_id, rule_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (source_event_id, rule_id)
			WHERE source_event_id IS NOT NULL AND rule_id IS NOT NULL
			DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID),
		uuid.UUID(r.PatientID),
		string(r.Category),
		r.Reason,
		string(r.Status),
		nullUUID(uuid.UUID(r.SourceEventID)),
		nullUUID(uuid.UUID(r.RuleID)),
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert referral: %w", postgres.TranslateError(err))
	}
	// zero rows means the (source event, rule) pair already exists; the enclosing tx stays open
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert referral rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("referral for event %s and rule %s: %w", r.SourceEventID, r.RuleID, sentinel.ErrConflict)
	}
	return nil
}

func (s *PostgresStore) ListByPatient(ctx context.Context, patientID id.PatientID) ([]*models.Referral, error) {
	query := `
		SELECT id, patient_id, category, reason, status, source_event_id, rule_id, created_at
		FROM referrals WHERE patient_id = $1 ORDER BY created_at ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(patientID))
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Referral, 0)
	for rows.Next() {
		var (
			referralID, pid  uuid.UUID
			eventID, ruleID  uuid.NullUUID
			category, status string
			r                models.Referral
		)
		if err := rows.Scan(&referralID, &pid, &category, &r.Reason, &status, &eventID, &ruleID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan referral: %w", err)
		}
		r.ID = id.ReferralID(referralID)
		r.PatientID = id.PatientID(pid)
		r.Category = models.Category(category)
		r.Status = models.Status(status)
		if eventID.Valid {
			r.SourceEventID = id.EventID(eventID.UUID)
		}
		if ruleID.Valid {
			r.RuleID = id.RuleID(ruleID.UUID)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate referrals: %w", err)
	}
	return out, nil
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
