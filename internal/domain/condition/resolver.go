// Package condition implements C1: the condition AST evaluator. It
// resolves dotted field paths against a request's subject/resource/
// action/context facts and applies the fixed, finite operator set from
// spec §4.1 with no implicit type coercion.
package condition

import (
	"strings"

	"github.com/policymesh/engine/internal/domain/policy"
)

// Roots bundles the four namespaces a field path may address.
type Roots struct {
	Subject  policy.SubjectFacts
	Resource policy.ResourceFacts
	Action   policy.Action
	Context  policy.RequestContext
}

// Resolve looks up a dotted field path such as "subject.department",
// "resource.owner_id", "action.namespace", or "context.ip" against the
// roots. The first segment selects the root; well-known struct fields
// are checked before falling back to that root's Attributes map.
// Unresolvable paths yield policy.Undefined rather than an error —
// conditions treat a missing attribute as "doesn't match" (I4), never
// as a hard failure.
func Resolve(field string, r Roots) policy.Value {
	segs := strings.Split(field, ".")
	if len(segs) == 0 {
		return policy.Undefined
	}
	root, rest := segs[0], segs[1:]
	switch root {
	case "subject":
		return resolveSubject(r.Subject, rest)
	case "resource":
		return resolveResource(r.Resource, rest)
	case "action":
		return resolveAction(r.Action, rest)
	case "context":
		return resolveContext(r.Context, rest)
	default:
		return policy.Undefined
	}
}

func resolveSubject(s policy.SubjectFacts, path []string) policy.Value {
	if len(path) == 1 {
		switch path[0] {
		case "principal_id":
			return policy.String(s.PrincipalID)
		case "principal_type":
			return policy.String(string(s.PrincipalType))
		case "roles":
			return stringsToList(s.Roles)
		case "groups":
			return stringsToList(s.Groups)
		case "org_unit":
			return policy.String(s.OrgUnit)
		}
	}
	return fromAttributes(s.Attributes, path)
}

func resolveResource(res policy.ResourceFacts, path []string) policy.Value {
	if len(path) == 1 {
		switch path[0] {
		case "type":
			return policy.String(res.Type)
		case "id":
			return policy.String(res.ID)
		case "version_id":
			return policy.String(res.VersionID)
		case "module":
			return policy.String(res.Module)
		case "owner_id":
			return policy.String(res.OwnerID)
		}
	}
	return fromAttributes(res.Attributes, path)
}

func resolveAction(a policy.Action, path []string) policy.Value {
	if len(path) != 1 {
		return policy.Undefined
	}
	switch path[0] {
	case "namespace":
		return policy.String(a.Namespace)
	case "code":
		return policy.String(a.Code)
	case "full_code":
		return policy.String(a.FullCode)
	default:
		return policy.Undefined
	}
}

func resolveContext(c policy.RequestContext, path []string) policy.Value {
	if len(path) == 1 {
		switch path[0] {
		case "tenant_id":
			return policy.String(c.TenantID)
		case "correlation_id":
			return policy.String(c.CorrelationID)
		case "ip":
			return policy.String(c.IP)
		case "user_agent":
			return policy.String(c.UserAgent)
		case "channel":
			return policy.String(c.Channel)
		case "geo":
			return policy.String(c.Geo)
		}
	}
	return fromAttributes(c.Attributes, path)
}

// fromAttributes walks a (possibly nested) path into an attribute map.
// Only KindMap values support further descent; anything else at a
// non-final segment resolves to Undefined.
func fromAttributes(attrs map[string]policy.Value, path []string) policy.Value {
	if len(attrs) == 0 || len(path) == 0 {
		return policy.Undefined
	}
	v, ok := attrs[path[0]]
	if !ok {
		return policy.Undefined
	}
	if len(path) == 1 {
		return v
	}
	m, ok := v.AsMap()
	if !ok {
		return policy.Undefined
	}
	return fromAttributes(m, path[1:])
}

func stringsToList(ss []string) policy.Value {
	items := make([]policy.Value, len(ss))
	for i, s := range ss {
		items[i] = policy.String(s)
	}
	return policy.List(items)
}
