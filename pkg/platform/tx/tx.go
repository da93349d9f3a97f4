package tx

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	dErrors "careflow/pkg/domain-errors"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Transactor runs fn inside a unit of work. Stores called with the context passed
// to fn participate in the same unit; an error from fn rolls everything back.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DefaultTimeout bounds a unit of work when the caller set no deadline.
const DefaultTimeout = 5 * time.Second

func withDefaultTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// SQLTransactor opens a database/sql transaction per unit of work.
type SQLTransactor struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSQL creates a SQLTransactor over db.
func NewSQL(db *sql.DB) *SQLTransactor {
	return &SQLTransactor{db: db, timeout: DefaultTimeout}
}

func (t *SQLTransactor) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested units join the outer transaction.
	if _, ok := From(ctx); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	outer := ctx
	ctx, cancel := withDefaultTimeout(ctx, t.timeout)
	defer cancel()

	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	hooks := &commitHooks{}
	if err := fn(hooks.attach(WithTx(ctx, sqlTx))); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	hooks.run(outer)
	return nil
}

type hooksKey struct{}

type commitHooks struct {
	fns []func(ctx context.Context)
}

func (h *commitHooks) attach(ctx context.Context) context.Context {
	return context.WithValue(ctx, hooksKey{}, h)
}

func (h *commitHooks) run(ctx context.Context) {
	for _, fn := range h.fns {
		fn(ctx)
	}
}

// AfterCommit defers fn until the enclosing unit of work commits. Hooks of a unit that
// rolls back never run. Outside a unit fn runs immediately.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if h, ok := ctx.Value(hooksKey{}).(*commitHooks); ok {
		h.fns = append(h.fns, fn)
		return
	}
	fn(ctx)
}

type journalKey struct{}

type journal struct {
	undo []func()
}

// OnRollback registers an undo step for an in-memory write made inside a
// MemoryTransactor unit. Outside a unit it does nothing.
func OnRollback(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.undo = append(j.undo, undo)
	}
}

// MemoryTransactor serializes units of work over in-memory stores and replays
// registered undo steps in reverse order when fn fails.
type MemoryTransactor struct {
	mu      sync.Mutex
	timeout time.Duration
}

// NewMemory creates a MemoryTransactor.
func NewMemory() *MemoryTransactor {
	return &MemoryTransactor{timeout: DefaultTimeout}
}

func (t *MemoryTransactor) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(journalKey{}).(*journal); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	outer := ctx
	hooks := &commitHooks{}
	if err := t.run(ctx, hooks, fn); err != nil {
		return err
	}
	// hooks run after the lock is released so they may start new units
	hooks.run(outer)
	return nil
}

func (t *MemoryTransactor) run(ctx context.Context, hooks *commitHooks, fn func(ctx context.Context) error) error {
	ctx, cancel := withDefaultTimeout(ctx, t.timeout)
	defer cancel()

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	j := &journal{}
	if err := fn(hooks.attach(context.WithValue(ctx, journalKey{}, j))); err != nil {
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
		return err
	}
	return nil
}
