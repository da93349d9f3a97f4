package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"careflow/internal/platform/postgres"
	"careflow/internal/risk/models"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	txcontext "careflow/pkg/platform/tx"
)

// PostgresStore persists assessments.
type PostgresStore struct {
	db *sql.DB
}

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

func (s *PostgresStore) Save(ctx context.Context, a *models.Assessment) error {
	drivers, err := json.Marshal(a.Drivers)
	if err != nil {
		return fmt.Errorf("marshal drivers: %w", err)
	}
	features, err := json.Marshal(a.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}
	query := `
		INSERT INTO assessments (id, patient_id, risk_score, risk_level, drivers, features, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(a.ID),
		uuid.UUID(a.PatientID),
		a.Score,
		string(a.Level),
		drivers,
		features,
		string(a.Source),
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", postgres.TranslateError(err))
	}
	return nil
}

const assessmentColumns = `id, patient_id, risk_score, risk_level, drivers, features, source, created_at`

func (s *PostgresStore) FindByID(ctx context.Context, assessmentID id.AssessmentID) (*models.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = $1`
	a, err := scanAssessment(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(assessmentID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find assessment: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ListByPatient(ctx context.Context, patientID id.PatientID) ([]*models.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE patient_id = $1 ORDER BY created_at DESC`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(patientID))
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	var out []*models.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assessments: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (*models.Assessment, error) {
	var (
		assessmentID, patientID uuid.UUID
		level, source           string
		drivers, features       []byte
		a                       models.Assessment
	)
	if err := row.Scan(&assessmentID, &patientID, &a.Score, &level, &drivers, &features, &source, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ID = id.AssessmentID(assessmentID)
	a.PatientID = id.PatientID(patientID)
	a.Level = models.Level(level)
	a.Source = models.Source(source)
	if err := json.Unmarshal(drivers, &a.Drivers); err != nil {
		return nil, fmt.Errorf("decode drivers: %w", err)
	}
	if err := json.Unmarshal(features, &a.Features); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	return &a, nil
}
