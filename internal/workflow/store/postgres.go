package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	eventmodels "careflow/internal/events/models"
	"careflow/internal/platform/postgres"
	"careflow/internal/workflow/models"
	id "careflow/pkg/domain"
	"careflow/pkg/platform/sentinel"
	txcontext "careflow/pkg/platform/tx"
)

// PostgresStore persists rules in workflow_rules and the rule set version in the
// single-row workflow_rule_set table. Writes must run inside a unit of work so the
// rule and the version bump commit together.
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

func (s *PostgresStore) Create(ctx context.Context, r *models.Rule) error {
	cond, params, err := encodeRule(r)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO workflow_rules (id, name, trigger_type, condition, action_kind, action_params,
			priority, active, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID),
		r.Name,
		string(r.TriggerType),
		cond,
		string(r.Action.Kind),
		params,
		r.Priority,
		r.Active,
		r.Version,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert rule: %w", postgres.TranslateError(err))
	}
	return s.bumpVersion(ctx)
}

func (s *PostgresStore) Update(ctx context.Context, r *models.Rule, expectedVersion int64) error {
	cond, params, err := encodeRule(r)
	if err != nil {
		return err
	}
	query := `
		UPDATE workflow_rules
		SET name = $2, trigger_type = $3, condition = $4, action_kind = $5, action_params = $6,
			priority = $7, active = $8, version = $9, updated_at = $10
		WHERE id = $1 AND version = $11
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID),
		r.Name,
		string(r.TriggerType),
		cond,
		string(r.Action.Kind),
		params,
		r.Priority,
		r.Active,
		r.Version,
		r.UpdatedAt,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update rule: %w", postgres.TranslateError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rule rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := s.FindByID(ctx, r.ID); err != nil {
			return err
		}
		return fmt.Errorf("rule version changed: %w", sentinel.ErrConflict)
	}
	return s.bumpVersion(ctx)
}

func (s *PostgresStore) bumpVersion(ctx context.Context) error {
	_, err := s.execer(ctx).ExecContext(ctx, `UPDATE workflow_rule_set SET version = version + 1 WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("bump rule set version: %w", err)
	}
	return nil
}

const ruleColumns = `id, name, trigger_type, condition, action_kind, action_params, priority, active, version, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, ruleID id.RuleID) (*models.Rule, error) {
	rules, err := queryRules(ctx, s.execer(ctx), `SELECT `+ruleColumns+` FROM workflow_rules WHERE id = $1`, uuid.UUID(ruleID))
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return rules[0], nil
}

// List returns every rule in execution order. Postgres compares UUIDs bytewise, which
// agrees with comparing their canonical strings.
func (s *PostgresStore) List(ctx context.Context) ([]*models.Rule, error) {
	return queryRules(ctx, s.execer(ctx), `SELECT `+ruleColumns+` FROM workflow_rules ORDER BY priority DESC, id ASC`)
}

// Snapshot reads the rule set version and the active rules from one repeatable-read
// transaction so the pair is consistent.
func (s *PostgresStore) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return readSnapshot(ctx, tx)
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	snap, err := readSnapshot(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snapshot tx: %w", err)
	}
	return snap, nil
}

func readSnapshot(ctx context.Context, q dbExecutor) (*models.Snapshot, error) {
	snap := &models.Snapshot{}
	if err := q.QueryRowContext(ctx, `SELECT version FROM workflow_rule_set WHERE id = 1`).Scan(&snap.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("rule set version row missing: %w", sentinel.ErrInvalidState)
		}
		return nil, fmt.Errorf("read rule set version: %w", err)
	}
	rules, err := queryRules(ctx, q, `SELECT `+ruleColumns+` FROM workflow_rules WHERE active ORDER BY priority DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	snap.Rules = rules
	return snap, nil
}

func queryRules(ctx context.Context, q dbExecutor, query string, args ...any) ([]*models.Rule, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Rule, 0)
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*models.Rule, error) {
	var (
		ruleID            uuid.UUID
		trigger, kind     string
		condJSON, parJSON []byte
		r                 models.Rule
	)
	if err := row.Scan(&ruleID, &r.Name, &trigger, &condJSON, &kind, &parJSON,
		&r.Priority, &r.Active, &r.Version, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan rule: %w", err)
	}
	if err := json.Unmarshal(condJSON, &r.Condition); err != nil {
		return nil, fmt.Errorf("decode rule condition: %w", err)
	}
	if err := json.Unmarshal(parJSON, &r.Action.Params); err != nil {
		return nil, fmt.Errorf("decode rule params: %w", err)
	}
	r.ID = id.RuleID(ruleID)
	r.TriggerType = eventmodels.Type(trigger)
	r.Action.Kind = models.ActionKind(kind)
	return &r, nil
}

func encodeRule(r *models.Rule) (cond, params []byte, err error) {
	cond, err = json.Marshal(r.Condition)
	if err != nil {
		return nil, nil, fmt.Errorf("encode rule condition: %w", err)
	}
	p := r.Action.Params
	if p == nil {
		p = map[string]string{}
	}
	params, err = json.Marshal(p)
	if err != nil {
		return nil, nil, fmt.Errorf("encode rule params: %w", err)
	}
	return cond, params, nil
}
