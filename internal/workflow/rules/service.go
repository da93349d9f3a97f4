// Package rules administers workflow rules: create, update, activate, and list.
// Every write bumps the rule set version read by the engine.
package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	eventmodels "careflow/internal/events/models"
	"careflow/internal/workflow/models"
	id "careflow/pkg/domain"
	dErrors "careflow/pkg/domain-errors"
	audit "careflow/pkg/platform/audit"
	"careflow/pkg/platform/sentinel"
	"careflow/pkg/platform/tx"
	"careflow/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, r *models.Rule) error
	Update(ctx context.Context, r *models.Rule, expectedVersion int64) error
	FindByID(ctx context.Context, ruleID id.RuleID) (*models.Rule, error)
	List(ctx context.Context) ([]*models.Rule, error)
	Snapshot(ctx context.Context) (*models.Snapshot, error)
}

type Auditor interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store   Store
	tx      tx.Transactor
	auditor Auditor
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditor records rule changes in the audit trail within the writing unit of work.
func WithAuditor(a Auditor) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

func New(store Store, transactor tx.Transactor, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("rule store is required")
	}
	if transactor == nil {
		return nil, errors.New("transactor is required")
	}
	s := &Service{store: store, tx: transactor, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Input is the editable part of a rule. Active defaults to true on create.
type Input struct {
	Name        string
	TriggerType eventmodels.Type
	Condition   models.Condition
	Action      models.Action
	Priority    int
	Active      *bool
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Rule, error) {
	now := requestcontext.Now(ctx)
	r := &models.Rule{
		ID:          id.NewRuleID(),
		Name:        in.Name,
		TriggerType: in.TriggerType,
		Condition:   in.Condition,
		Action:      normalizeAction(in.Action),
		Priority:    in.Priority,
		Active:      in.Active == nil || *in.Active,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	valid, err := r.Validate()
	if err != nil {
		return nil, err
	}
	if err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, valid); err != nil {
			return err
		}
		return s.audit(ctx, audit.ActionRuleCreated, valid)
	}); err != nil {
		return nil, translate(err)
	}
	s.logger.InfoContext(ctx, "workflow rule created",
		"rule_id", valid.ID.String(),
		"name", valid.Name,
		"trigger", string(valid.TriggerType),
		"action", string(valid.Action.Kind),
	)
	return valid, nil
}

// Update replaces a rule definition. expectedVersion guards against lost updates;
// zero skips the check.
func (s *Service) Update(ctx context.Context, ruleID id.RuleID, in Input, expectedVersion int64) (*models.Rule, error) {
	return s.modify(ctx, ruleID, expectedVersion, audit.ActionRuleUpdated, func(r *models.Rule) {
		r.Name = in.Name
		r.TriggerType = in.TriggerType
		r.Condition = in.Condition
		r.Action = normalizeAction(in.Action)
		r.Priority = in.Priority
		if in.Active != nil {
			r.Active = *in.Active
		}
	})
}

func (s *Service) SetActive(ctx context.Context, ruleID id.RuleID, active bool) (*models.Rule, error) {
	action := audit.ActionRuleDeactivated
	if active {
		action = audit.ActionRuleActivated
	}
	return s.modify(ctx, ruleID, 0, action, func(r *models.Rule) {
		r.Active = active
	})
}

func (s *Service) modify(ctx context.Context, ruleID id.RuleID, expectedVersion int64, action audit.Action, apply func(*models.Rule)) (*models.Rule, error) {
	var updated *models.Rule
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.store.FindByID(ctx, ruleID)
		if err != nil {
			return err
		}
		if expectedVersion != 0 && current.Version != expectedVersion {
			return dErrors.Newf(dErrors.CodeConflict, "rule is at version %d, not %d", current.Version, expectedVersion)
		}
		next := current.Clone()
		apply(next)
		next.Version = current.Version + 1
		next.UpdatedAt = requestcontext.Now(ctx)
		valid, err := next.Validate()
		if err != nil {
			return err
		}
		if err := s.store.Update(ctx, valid, current.Version); err != nil {
			return err
		}
		updated = valid
		return s.audit(ctx, action, valid)
	})
	if err != nil {
		return nil, translate(err)
	}
	s.logger.InfoContext(ctx, "workflow rule updated",
		"rule_id", updated.ID.String(),
		"version", updated.Version,
		"active", updated.Active,
	)
	return updated, nil
}

func (s *Service) audit(ctx context.Context, action audit.Action, r *models.Rule) error {
	if s.auditor == nil {
		return nil
	}
	return s.auditor.Emit(ctx, audit.Event{
		Action:     action,
		Resource:   audit.ResourceRule,
		ResourceID: r.ID.String(),
		Detail:     fmt.Sprintf("%s v%d active=%t", r.Name, r.Version, r.Active),
	})
}

func (s *Service) Get(ctx context.Context, ruleID id.RuleID) (*models.Rule, error) {
	r, err := s.store.FindByID(ctx, ruleID)
	if err != nil {
		return nil, translate(err)
	}
	return r, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Rule, error) {
	return s.store.List(ctx)
}

// Snapshot exposes the store's versioned rule view to the engine.
func (s *Service) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	return s.store.Snapshot(ctx)
}

// SeedDefaults creates every default rule whose name is not taken yet and returns
// how many were created.
func (s *Service) SeedDefaults(ctx context.Context) (int, error) {
	existing, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}
	taken := make(map[string]bool, len(existing))
	for _, r := range existing {
		taken[strings.ToLower(r.Name)] = true
	}
	created := 0
	for _, in := range DefaultRules() {
		if taken[strings.ToLower(in.Name)] {
			continue
		}
		if _, err := s.Create(ctx, in); err != nil {
			if dErrors.HasCode(err, dErrors.CodeConflict) {
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}

func normalizeAction(a models.Action) models.Action {
	params := maps.Clone(a.Params)
	if sev, ok := params[models.ParamSeverity]; ok {
		params[models.ParamSeverity] = strings.ToUpper(strings.TrimSpace(sev))
	}
	if cat, ok := params[models.ParamCategory]; ok {
		params[models.ParamCategory] = strings.ToLower(strings.TrimSpace(cat))
	}
	return models.Action{Kind: models.ActionKind(strings.ToUpper(string(a.Kind))), Params: params}
}

func translate(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "rule not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "rule name taken or rule changed concurrently")
	}
	return err
}
