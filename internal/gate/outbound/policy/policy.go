package policy

import (
	"context"
	"log/slog"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/codes"

	"github.com/shandysiswandi/titipyuk/internal/gate/entity"
	"github.com/shandysiswandi/titipyuk/internal/pkg/instrument"
)

// Model classifies a path: a request matches a rule when the class is equal
// and the path matches the rule pattern under keyMatch ("/booking*" is a
// prefix, "/login" is exact).
const Model = `
[request_definition]
r = class, path

[policy_definition]
p = class, pattern

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.class == p.class && keyMatch(r.path, p.pattern)
`

// NewEnforcer builds a synced enforcer over adapter so a watcher reload can
// run next to request evaluation.
func NewEnforcer(adapter persist.Adapter) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(Model)
	if err != nil {
		return nil, err
	}

	return casbin.NewSyncedEnforcer(m, adapter)
}

type Policy struct {
	enforcer casbin.IEnforcer
	ins      instrument.Instrumentation
}

func New(enforcer casbin.IEnforcer, ins instrument.Instrumentation) *Policy {
	return &Policy{enforcer: enforcer, ins: ins}
}

// Classify checks protected rules before auth-entry rules; a path matching
// neither is public.
func (p *Policy) Classify(ctx context.Context, path string) (entity.PathClass, error) {
	_, span := p.ins.Tracer("gate.outbound.policy").Start(ctx, "Classify")
	defer span.End()

	for _, class := range []entity.PathClass{entity.PathClassProtected, entity.PathClassAuthEntry} {
		ok, err := p.enforcer.Enforce(class.String(), path)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return entity.PathClassPublic, err
		}
		if ok {
			return class, nil
		}
	}

	return entity.PathClassPublic, nil
}

// SeedDefaults stores the given patterns when no rule exists yet. An
// operator-edited rule set is never overwritten.
func (p *Policy) SeedDefaults(ctx context.Context, protected, authEntry []string) error {
	existing, err := p.enforcer.GetPolicy()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		slog.InfoContext(ctx, "gate rules already present, skip seeding", "count", len(existing))
		return nil
	}

	rules := append(
		lo.Map(lo.Uniq(protected), func(pattern string, _ int) []string {
			return []string{entity.PathClassProtected.String(), pattern}
		}),
		lo.Map(lo.Uniq(authEntry), func(pattern string, _ int) []string {
			return []string{entity.PathClassAuthEntry.String(), pattern}
		})...,
	)
	if len(rules) == 0 {
		return nil
	}

	if _, err := p.enforcer.AddPolicies(rules); err != nil {
		return err
	}

	slog.InfoContext(ctx, "gate rules seeded", "count", len(rules))
	return nil
}
