package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"careflow/internal/admission/models"
	"careflow/internal/platform/postgres"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	txcontext "careflow/pkg/platform/tx"
)

// PostgresStore persists admissions. Partial unique indexes on bed_id and
// patient_id (WHERE status <> 'DISCHARGED') enforce single occupancy.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, a *models.Admission) error {
	query := `
		INSERT INTO admissions (id, patient_id, bed_id, ward_id, status, patient_age, admitted_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(a.ID),
		uuid.UUID(a.PatientID),
		uuid.UUID(a.BedID),
		uuid.UUID(a.WardID),
		string(a.Status),
		nullInt(a.PatientAge),
		a.AdmittedAt,
		a.Version,
	)
	if err != nil {
		return fmt.Errorf("insert admission: %w", postgres.TranslateError(err))
	}
	return nil
}

const admissionColumns = `id, patient_id, bed_id, ward_id, status, patient_age, admitted_at, transferred_at, discharged_at, version`

func (s *PostgresStore) FindByID(ctx context.Context, admissionID id.AdmissionID) (*models.Admission, error) {
	query := `SELECT ` + admissionColumns + ` FROM admissions WHERE id = $1`
	return s.findOne(ctx, query, uuid.UUID(admissionID))
}

func (s *PostgresStore) FindActiveByBed(ctx context.Context, bedID id.BedID) (*models.Admission, error) {
	query := `SELECT ` + admissionColumns + ` FROM admissions WHERE bed_id = $1 AND status <> 'DISCHARGED'`
	return s.findOne(ctx, query, uuid.UUID(bedID))
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Admission, error) {
	a, err := scanAdmission(s.execer(ctx).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find admission: %w", err)
	}
	return a, nil
}

// UpdateIfVersion is a compare-and-set on version. A writer blocked on the row lock
// re-checks the predicate against the committed row and matches nothing.
func (s *PostgresStore) UpdateIfVersion(ctx context.Context, a *models.Admission, expectedVersion int64) error {
	query := `
		UPDATE admissions
		SET bed_id = $2, ward_id = $3, status = $4, transferred_at = $5, discharged_at = $6, version = $7
		WHERE id = $1 AND version = $8
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(a.ID),
		uuid.UUID(a.BedID),
		uuid.UUID(a.WardID),
		string(a.Status),
		a.TransferredAt,
		a.DischargedAt,
		a.Version,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update admission: %w", postgres.TranslateError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update admission rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := s.FindByID(ctx, a.ID); err != nil {
			return err
		}
		return fmt.Errorf("admission version changed: %w", sentinel.ErrConflict)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdmission(row rowScanner) (*models.Admission, error) {
	var (
		admissionID, patientID, bedID, wardID uuid.UUID
		status                                string
		age                                   sql.NullInt64
		transferredAt, dischargedAt           sql.NullTime
		a                                     models.Admission
	)
	if err := row.Scan(&admissionID, &patientID, &bedID, &wardID, &status, &age,
		&a.AdmittedAt, &transferredAt, &dischargedAt, &a.Version); err != nil {
		return nil, err
	}
	a.ID = id.AdmissionID(admissionID)
	a.PatientID = id.PatientID(patientID)
	a.BedID = id.BedID(bedID)
	a.WardID = id.WardID(wardID)
	a.Status = models.Status(status)
	if age.Valid {
		v := int(age.Int64)
		a.PatientAge = &v
	}
	if transferredAt.Valid {
		t := transferredAt.Time
		a.TransferredAt = &t
	}
	if dischargedAt.Valid {
		t := dischargedAt.Time
		a.DischargedAt = &t
	}
	return &a, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
