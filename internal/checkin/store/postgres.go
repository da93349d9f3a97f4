package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"careflow/internal/checkin/models"
	"careflow/internal/platform/postgres"
	id "careflow/pkg/domain"
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

func (s *PostgresStore) Save(ctx context.Context, c *models.Checkin) error {
	signals := c.Signals
	if signals == nil {
		signals = []models.Signal{}
	}
	signalsJSON, err := json.Marshal(signals)
	if err != nil {
		return fmt.Errorf("encode signals: %w", err)
	}
	query := `
		INSERT INTO checkins (id, patient_id, symptom_severity, mood, medication_taken,
			heart_rate, systolic_bp, oxygen_saturation, notes, signals, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(c.ID),
		uuid.UUID(c.PatientID),
		c.SymptomSeverity,
		c.Mood,
		c.MedicationTaken,
		nullFloat(c.HeartRate),
		nullFloat(c.SystolicBP),
		nullFloat(c.OxygenSaturation),
		c.Notes,
		signalsJSON,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert checkin: %w", postgres.TranslateError(err))
	}
	return nil
}

func (s *PostgresStore) ListByPatient(ctx context.Context, patientID id.PatientID, limit int) ([]*models.Checkin, error) {
	query := `
		SELECT id, patient_id, symptom_severity, mood, medication_taken,
			heart_rate, systolic_bp, oxygen_saturation, notes, signals, created_at
		FROM checkins WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	var lim sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(patientID), lim)
	if err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Checkin, 0)
	for rows.Next() {
		var (
			checkinID, pid              uuid.UUID
			heartRate, systolic, oxygen sql.NullFloat64
			signalsJSON                 []byte
			c                           models.Checkin
		)
		if err := rows.Scan(&checkinID, &pid, &c.SymptomSeverity, &c.Mood, &c.MedicationTaken,
			&heartRate, &systolic, &oxygen, &c.Notes, &signalsJSON, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan checkin: %w", err)
		}
		if err := json.Unmarshal(signalsJSON, &c.Signals); err != nil {
			return nil, fmt.Errorf("decode signals: %w", err)
		}
		c.ID = id.CheckinID(checkinID)
		c.PatientID = id.PatientID(pid)
		c.HeartRate = floatPtr(heartRate)
		c.SystolicBP = floatPtr(systolic)
		c.OxygenSaturation = floatPtr(oxygen)
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkins: %w", err)
	}
	return out, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
