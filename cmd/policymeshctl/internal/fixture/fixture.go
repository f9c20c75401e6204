// Package fixture loads YAML policy/request fixtures for
// cmd/policymeshctl, converting their plain Go literals into the
// domain's tagged policy.Value via policy.FromNative so fixtures never
// need to hand-construct Value themselves.
package fixture

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/policymesh/engine/internal/domain/policy"
)

// Condition mirrors policy.Condition with YAML-friendly tags; Into
// converts it (recursively) to a policy.Condition with Value hydrated
// from Raw.
type Condition struct {
	Field    string      `yaml:"field,omitempty"`
	Op       string      `yaml:"op,omitempty"`
	Value    interface{} `yaml:"value,omitempty"`
	IsGroup  bool        `yaml:"is_group,omitempty"`
	GroupOp  string      `yaml:"group_op,omitempty"`
	Children []Condition `yaml:"children,omitempty"`
}

// Into converts a fixture Condition into a domain policy.Condition.
func (c Condition) Into() policy.Condition {
	if c.IsGroup {
		children := make([]policy.Condition, len(c.Children))
		for i, ch := range c.Children {
			children[i] = ch.Into()
		}
		return policy.Group(policy.GroupOp(c.GroupOp), children...)
	}
	return policy.Leaf(c.Field, policy.Op(c.Op), c.Value)
}

// Rule mirrors policy.Rule with YAML-friendly tags.
type Rule struct {
	RuleID      string      `yaml:"rule_id"`
	VersionID   string      `yaml:"version_id"`
	ScopeType   string      `yaml:"scope_type"`
	ScopeKey    string      `yaml:"scope_key"`
	SubjectType string      `yaml:"subject_type"`
	SubjectKey  string      `yaml:"subject_key"`
	Effect      string      `yaml:"effect"`
	Conditions  Condition   `yaml:"conditions"`
	Priority    int         `yaml:"priority"`
	IsActive    bool        `yaml:"is_active"`
	Operations  []string    `yaml:"operations"`
	Obligations []Obligation `yaml:"obligations,omitempty"`
}

// Obligation mirrors policy.Obligation.
type Obligation struct {
	Key   string      `yaml:"key"`
	Value interface{} `yaml:"value"`
}

// Into converts a fixture Rule into a domain policy.Rule.
func (r Rule) Into() policy.Rule {
	obligations := make([]policy.Obligation, len(r.Obligations))
	for i, o := range r.Obligations {
		obligations[i] = policy.Obligation{Key: o.Key, Value: policy.FromNative(o.Value)}
	}
	return policy.Rule{
		RuleID:      r.RuleID,
		VersionID:   r.VersionID,
		ScopeType:   policy.ScopeType(r.ScopeType),
		ScopeKey:    r.ScopeKey,
		SubjectType: policy.SubjectType(r.SubjectType),
		SubjectKey:  r.SubjectKey,
		Effect:      policy.Effect(r.Effect),
		Conditions:  r.Conditions.Into(),
		Priority:    r.Priority,
		IsActive:    r.IsActive,
		Operations:  r.Operations,
		Obligations: obligations,
	}
}

// PolicyFixture is a full policy (version + rules) loaded from YAML,
// consumed by the compile/validate/evaluate subcommands.
type PolicyFixture struct {
	TenantID  string `yaml:"tenant_id"`
	PolicyID  string `yaml:"policy_id"`
	ScopeType string `yaml:"scope_type"` // defaults to "global" if empty
	ScopeKey  string `yaml:"scope_key"`
	VersionID string `yaml:"version_id"`
	VersionNo int    `yaml:"version_no"`
	Rules     []Rule `yaml:"rules"`
}

// Policy converts the fixture's policy-level metadata into a
// domain policy.Policy, defaulting an empty ScopeType to global so a
// fixture with no scope fields still resolves against any resource.
func (f PolicyFixture) Policy() policy.Policy {
	scopeType := policy.ScopeType(f.ScopeType)
	if scopeType == "" {
		scopeType = policy.ScopeGlobal
	}
	return policy.Policy{
		TenantID:  f.TenantID,
		PolicyID:  f.PolicyID,
		Name:      f.PolicyID,
		ScopeType: scopeType,
		ScopeKey:  f.ScopeKey,
		IsActive:  true,
	}
}

// Version converts the fixture's version metadata into a policy.PolicyVersion.
func (f PolicyFixture) Version() policy.PolicyVersion {
	return policy.PolicyVersion{
		VersionID: f.VersionID,
		PolicyID:  f.PolicyID,
		VersionNo: f.VersionNo,
		Status:    policy.VersionPublished,
		CreatedAt: time.Now().UTC(),
	}
}

// RulesInto converts every fixture rule into a domain policy.Rule.
func (f PolicyFixture) RulesInto() []policy.Rule {
	rules := make([]policy.Rule, len(f.Rules))
	for i, r := range f.Rules {
		rules[i] = r.Into()
	}
	return rules
}

// RequestFixture describes one evaluation request, consumed by the
// evaluate subcommand.
type RequestFixture struct {
	TenantID string `yaml:"tenant_id"`
	Subject  struct {
		PrincipalID   string                 `yaml:"principal_id"`
		PrincipalType string                 `yaml:"principal_type"`
		Roles         []string               `yaml:"roles"`
		Groups        []string               `yaml:"groups"`
		OrgUnit       string                 `yaml:"org_unit"`
		Attributes    map[string]interface{} `yaml:"attributes"`
	} `yaml:"subject"`
	Resource struct {
		Type       string                 `yaml:"type"`
		ID         string                 `yaml:"id"`
		VersionID  string                 `yaml:"version_id"`
		Module     string                 `yaml:"module"`
		OwnerID    string                 `yaml:"owner_id"`
		Attributes map[string]interface{} `yaml:"attributes"`
	} `yaml:"resource"`
	Action struct {
		Namespace string `yaml:"namespace"`
		Code      string `yaml:"code"`
	} `yaml:"action"`
	Context struct {
		CorrelationID string                 `yaml:"correlation_id"`
		IP            string                 `yaml:"ip"`
		UserAgent     string                 `yaml:"user_agent"`
		Channel       string                 `yaml:"channel"`
		Geo           string                 `yaml:"geo"`
		Attributes    map[string]interface{} `yaml:"attributes"`
	} `yaml:"context"`
}

// Into converts the fixture into a domain policy.PolicyInput.
func (f RequestFixture) Into() policy.PolicyInput {
	action := policy.Action{Namespace: f.Action.Namespace, Code: f.Action.Code}
	action.FullCode = action.Namespace + "." + action.Code

	return policy.PolicyInput{
		Subject: policy.SubjectFacts{
			PrincipalID:   f.Subject.PrincipalID,
			PrincipalType: policy.PrincipalType(f.Subject.PrincipalType),
			Roles:         f.Subject.Roles,
			Groups:        f.Subject.Groups,
			OrgUnit:       f.Subject.OrgUnit,
			Attributes:    policy.AttributesFromNative(f.Subject.Attributes),
			GeneratedAt:   time.Now().UTC(),
		},
		Resource: policy.ResourceFacts{
			Type:       f.Resource.Type,
			ID:         f.Resource.ID,
			VersionID:  f.Resource.VersionID,
			Module:     f.Resource.Module,
			OwnerID:    f.Resource.OwnerID,
			Attributes: policy.AttributesFromNative(f.Resource.Attributes),
		},
		Action: action,
		Context: policy.RequestContext{
			TenantID:      f.TenantID,
			Timestamp:     time.Now().UTC(),
			CorrelationID: f.Context.CorrelationID,
			IP:            f.Context.IP,
			UserAgent:     f.Context.UserAgent,
			Channel:       f.Context.Channel,
			Geo:           f.Context.Geo,
			Attributes:    policy.AttributesFromNative(f.Context.Attributes),
		},
	}
}

// LoadPolicy reads and parses a policy fixture from path.
func LoadPolicy(path string) (PolicyFixture, error) {
	var f PolicyFixture
	b, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("failed to read policy fixture: %w", err)
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("failed to parse policy fixture: %w", err)
	}
	return f, nil
}

// LoadRequest reads and parses a request fixture from path.
func LoadRequest(path string) (RequestFixture, error) {
	var f RequestFixture
	b, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("failed to read request fixture: %w", err)
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("failed to parse request fixture: %w", err)
	}
	return f, nil
}
