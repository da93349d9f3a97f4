package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"careflow/internal/orders/models"
	"careflow/internal/platform/postgres"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	txcontext "careflow/pkg/platform/tx"
)

// PostgresStore persists orders in medication_orders and lab_orders.
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

func (s *PostgresStore) Create(ctx context.Context, o *models.Order) error {
	var (
		query string
		args  []any
	)
	switch o.Kind {
	case models.KindMedication:
		query = `
			INSERT INTO medication_orders (id, patient_id, medication, dose, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		args = []any{uuid.UUID(o.ID), uuid.UUID(o.PatientID), o.Medication, o.Dose, string(o.Status), o.CreatedAt, o.UpdatedAt}
	case models.KindLab:
		query = `
			INSERT INTO lab_orders (id, patient_id, test_name, priority, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		args = []any{uuid.UUID(o.ID), uuid.UUID(o.PatientID), o.TestName, string(o.Priority), string(o.Status), o.CreatedAt, o.UpdatedAt}
	default:
		return fmt.Errorf("unknown order kind %q", o.Kind)
	}
	if _, err := s.execer(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s order: %w", o.Kind, postgres.TranslateError(err))
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, kind models.Kind, orderID id.OrderID) (*models.Order, error) {
	var query string
	switch kind {
	case models.KindMedication:
		query = `SELECT id, patient_id, medication, dose, '', '', status, created_at, updated_at FROM medication_orders WHERE id = $1`
	case models.KindLab:
		query = `SELECT id, patient_id, '', '', test_name, priority, status, created_at, updated_at FROM lab_orders WHERE id = $1`
	default:
		return nil, fmt.Errorf("unknown order kind %q", kind)
	}
	o, err := scanOrder(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(orderID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find %s order: %w", kind, err)
	}
	o.Kind = kind
	return o, nil
}

// UpdateIfStatus is a compare-and-set on status.
func (s *PostgresStore) UpdateIfStatus(ctx context.Context, o *models.Order, expected models.Status) error {
	table, err := tableFor(o.Kind)
	if err != nil {
		return err
	}
	query := `UPDATE ` + table + ` SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	res, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(o.ID), string(o.Status), o.UpdatedAt, string(expected))
	if err != nil {
		return fmt.Errorf("update %s order: %w", o.Kind, postgres.TranslateError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s order rows affected: %w", o.Kind, err)
	}
	if affected == 0 {
		if _, err := s.FindByID(ctx, o.Kind, o.ID); err != nil {
			return err
		}
		return fmt.Errorf("order status changed: %w", sentinel.ErrConflict)
	}
	return nil
}

func tableFor(kind models.Kind) (string, error) {
	switch kind {
	case models.KindMedication:
		return "medication_orders", nil
	case models.KindLab:
		return "lab_orders", nil
	}
	return "", fmt.Errorf("unknown order kind %q", kind)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		orderID, patientID uuid.UUID
		priority, status   string
		o                  models.Order
	)
	if err := row.Scan(&orderID, &patientID, &o.Medication, &o.Dose, &o.TestName, &priority, &status,
		&o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.ID = id.OrderID(orderID)
	o.PatientID = id.PatientID(patientID)
	o.Priority = models.LabPriority(priority)
	o.Status = models.Status(status)
	return &o, nil
}
