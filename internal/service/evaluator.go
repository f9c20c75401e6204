package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/policymesh/engine/internal/domain/condition"
	"github.com/policymesh/engine/internal/domain/conflict"
	"github.com/policymesh/engine/internal/domain/facts"
	"github.com/policymesh/engine/internal/domain/match"
	"github.com/policymesh/engine/internal/domain/policy"
	"github.com/policymesh/engine/internal/domain/policyresolve"
	"github.com/policymesh/engine/internal/telemetry"
)

// Evaluator is the C9 orchestrator: it composes fact resolution (C7),
// policy resolution (C6), compilation (C5, via CompiledCache), matching
// (C2), condition evaluation (C1), determinism ordering being already
// baked into the compiled index (C3), conflict resolution (C4), and
// fire-and-forget decision logging (C10) into a single Evaluate call.
type Evaluator struct {
	repo     policy.PolicyRepository
	facts    *facts.Provider
	compiled *CompiledCache
	sink     policy.DecisionSink
	logger   *slog.Logger
	metrics  *telemetry.Metrics
}

// SetMetrics attaches a Metrics recorder; safe to call once at startup,
// before the evaluator sees concurrent traffic.
func (e *Evaluator) SetMetrics(m *telemetry.Metrics) {
	e.metrics = m
}

// NewEvaluator wires an Evaluator from its collaborators. sink may be
// nil, in which case decisions are simply never logged.
func NewEvaluator(repo policy.PolicyRepository, fp *facts.Provider, cc *CompiledCache, sink policy.DecisionSink, logger *slog.Logger) *Evaluator {
	return &Evaluator{repo: repo, facts: fp, compiled: cc, sink: sink, logger: logger}
}

// Evaluate runs one full policy decision for input, per opts (spec
// §4.9, §6). It never returns a decision without a Reason, and always
// defaults to deny when anything prevents a clear allow.
func (e *Evaluator) Evaluate(ctx context.Context, input policy.PolicyInput, sel policy.VersionSelection, opts policy.EvaluationOptions) (policy.Decision, error) {
	opts = opts.WithDefaults()
	start := time.Now()

	if opts.DeadlineMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.DeadlineMs)*time.Millisecond)
		defer cancel()
	}

	if input.Context.CorrelationID == "" {
		input.Context.CorrelationID = uuid.New().String()
	}

	decision, explain, err := e.evaluateLocked(ctx, input, sel, opts)
	if err != nil {
		if ctx.Err() != nil {
			err = policy.NewError(policy.CodeEvalTimeout, "policy evaluation deadline exceeded", policy.ErrEvalTimeout)
		}
		return policy.Decision{}, err
	}

	decision.CorrelationID = input.Context.CorrelationID
	decision.EvaluatedAt = time.Now().UTC()
	decision.DurationMs = float64(time.Since(start).Microseconds()) / 1000.0
	if opts.Explain {
		decision.Explain = explain
	}
	if !decision.Allowed {
		decision.HelpURL = helpURL(decision)
		decision.HelpText = helpText(decision)
	}

	e.metrics.ObserveEvaluation(string(decision.Effect), time.Since(start).Seconds())
	e.logDecision(ctx, input, decision)
	return decision, nil
}

// helpURL points a denied caller at the deciding rule in an admin UI,
// adapted from the teacher's GenerateHelpURL
// (internal/service/policy_evaluation_service.go).
func helpURL(d policy.Decision) string {
	if d.DecidingRule == nil || d.DecidingRule.Rule.RuleID == "" {
		return "/admin/policies"
	}
	return fmt.Sprintf("/admin/policies/rules/%s", d.DecidingRule.Rule.RuleID)
}

// helpText renders a human-readable explanation for a deny decision,
// adapted from the teacher's GenerateHelpText.
func helpText(d policy.Decision) string {
	if d.DecidingRule == nil {
		return "This action was denied by default (no matching allow rule). Contact your administrator for access."
	}
	return fmt.Sprintf("Action denied by rule %q. Contact your administrator or review the rule at %s.",
		d.DecidingRule.Rule.RuleID, helpURL(d))
}

func (e *Evaluator) evaluateLocked(ctx context.Context, input policy.PolicyInput, sel policy.VersionSelection, opts policy.EvaluationOptions) (policy.Decision, *policy.ExplainTrace, error) {
	applicable, err := policyresolve.ApplicablePolicies(ctx, e.repo, input.Context.TenantID, input.Resource)
	if err != nil {
		return policy.Decision{}, nil, err
	}

	explain := &policy.ExplainTrace{ConflictStrategy: opts.ConflictResolution}
	var matched []policy.MatchedRule

	roots := condition.Roots{Subject: input.Subject, Resource: input.Resource, Action: input.Action, Context: input.Context}
	scopeKeys := match.ScopeKeys(input.Resource)
	subjectKeys := match.SubjectKeys(input.Subject)
	opKeys := match.OperationKeys(input.Action)

	for _, p := range applicable {
		if err := ctx.Err(); err != nil {
			return policy.Decision{}, nil, err
		}
		version, err := policyresolve.ResolveVersion(ctx, e.repo, input.Context.TenantID, p, sel)
		if err != nil {
			continue // a policy with no resolvable version simply contributes no rules
		}
		cp, err := e.compiled.GetOrCompile(ctx, input.Context.TenantID, p, version)
		if err != nil {
			return policy.Decision{}, nil, err
		}
		explain.PoliciesEvaluated++

		candidates := match.Candidates(cp.Index, scopeKeys, subjectKeys, opKeys)
		for _, cr := range candidates {
			explain.RulesScanned++
			ok, err := condition.Evaluate(cr.Rule.Conditions, roots, opts.MaxConditionDepth)
			if err != nil {
				return policy.Decision{}, nil, err
			}
			mr := policy.MatchedRule{
				Rule:            cr.Rule,
				PolicyID:        cr.PolicyID,
				VersionID:       cr.VersionID,
				ConditionPassed: ok,
				ScopeRank:       policy.ScopeRank(cr.Rule.ScopeType),
				SubjectRank:     policy.SubjectRank(cr.Rule.SubjectType),
			}
			if ok {
				explain.RulesMatched++
				matched = append(matched, mr)
			}
			explain.Matched = append(explain.Matched, mr)
		}
	}

	decision := conflict.Resolve(opts.ConflictResolution, matched)
	return decision, explain, nil
}

// logDecision fires a decision-log write without letting sink failures
// propagate to the caller of Evaluate — decision logging is advisory,
// never a gate on the decision itself (spec §4.10).
func (e *Evaluator) logDecision(ctx context.Context, input policy.PolicyInput, d policy.Decision) {
	if e.sink == nil {
		return
	}
	entry := policy.DecisionLogEntry{
		CorrelationID: d.CorrelationID,
		TenantID:      input.Context.TenantID,
		PrincipalID:   input.Subject.PrincipalID,
		Action:        input.Action,
		ResourceType:  input.Resource.Type,
		ResourceID:    input.Resource.ID,
		Effect:        d.Effect,
		Reason:        d.Reason,
		DurationMs:    d.DurationMs,
		Timestamp:     d.EvaluatedAt,
	}
	if d.DecidingRule != nil {
		entry.DecidingRuleID = d.DecidingRule.Rule.RuleID
		entry.PolicyID = d.DecidingRule.PolicyID
		entry.VersionID = d.DecidingRule.VersionID
	}
	if err := e.sink.Record(ctx, entry); err != nil && e.logger != nil {
		e.logger.Warn("decision log write failed", "error", err, "correlation_id", d.CorrelationID)
	}
}

// HasPermission is a convenience wrapper over Evaluate for callers that
// only need a boolean (spec §9 supplemented API).
func (e *Evaluator) HasPermission(ctx context.Context, tenantID, principalID string, action policy.Action, resource policy.ResourceFacts) (bool, error) {
	subject, err := e.facts.ResolveSubject(ctx, tenantID, principalID)
	if err != nil {
		return false, err
	}
	input := policy.PolicyInput{
		Subject:  subject,
		Resource: resource,
		Action:   action,
		Context:  policy.RequestContext{TenantID: tenantID},
	}
	d, err := e.Evaluate(ctx, input, policy.Published(), policy.EvaluationOptions{})
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

// GetSubject resolves and returns a principal's current subject facts,
// bypassing evaluation entirely (spec §9 supplemented API, useful for
// admin/debug tooling).
func (e *Evaluator) GetSubject(ctx context.Context, tenantID, principalID string) (policy.SubjectFacts, error) {
	return e.facts.ResolveSubject(ctx, tenantID, principalID)
}
