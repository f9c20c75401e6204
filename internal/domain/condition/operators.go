package condition

import (
	"regexp"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/policymesh/engine/internal/domain/policy"
)

// regexCache memoizes compiled patterns for the matches operator, keyed
// by an xxhash of the pattern text rather than the (arbitrarily long)
// pattern string itself. Rule conditions are evaluated on every request
// for every candidate rule, so recompiling the same `matches` pattern
// per call would otherwise dominate the hot path.
type regexCacheEntry struct {
	re  *regexp.Regexp
	err error
}

var (
	regexCacheMu sync.RWMutex
	regexCache   = make(map[uint64]regexCacheEntry)
)

func compileCached(pattern string) (*regexp.Regexp, error) {
	key := xxhash.Sum64String(pattern)

	regexCacheMu.RLock()
	entry, ok := regexCache[key]
	regexCacheMu.RUnlock()
	if ok {
		return entry.re, entry.err
	}

	re, err := regexp.Compile(pattern)
	regexCacheMu.Lock()
	regexCache[key] = regexCacheEntry{re: re, err: err}
	regexCacheMu.Unlock()
	return re, err
}

// applyOp evaluates one leaf operator against a resolved field value and
// a literal value. It never panics on a type mismatch — operators that
// don't apply to the resolved Kind simply return false, matching the
// "no implicit coercion" rule from spec §4.1: eq/ne on mismatched kinds
// is false (not an error), gt/gte/lt/lte on non-numeric is false, etc.
func applyOp(op policy.Op, field, literal policy.Value) bool {
	switch op {
	case policy.OpExists:
		return !field.IsUndefined()
	case policy.OpNotExists:
		return field.IsUndefined()
	case policy.OpEq:
		return field.Equal(literal)
	case policy.OpNe:
		return !field.Equal(literal)
	case policy.OpGt, policy.OpGte, policy.OpLt, policy.OpLte:
		return compareNumeric(op, field, literal)
	case policy.OpIn:
		return membership(field, literal)
	case policy.OpNotIn:
		return !membership(field, literal)
	case policy.OpContains:
		return containsOp(field, literal)
	case policy.OpStartsWith:
		return stringPrefix(field, literal, true)
	case policy.OpEndsWith:
		return stringPrefix(field, literal, false)
	case policy.OpMatches:
		return matchesOp(field, literal)
	default:
		// Unknown operator: the owning rule silently doesn't match (I4).
		return false
	}
}

func compareNumeric(op policy.Op, field, literal policy.Value) bool {
	fv, fok := field.AsFloat()
	lv, lok := literal.AsFloat()
	if !fok || !lok {
		return false
	}
	switch op {
	case policy.OpGt:
		return fv > lv
	case policy.OpGte:
		return fv >= lv
	case policy.OpLt:
		return fv < lv
	case policy.OpLte:
		return fv <= lv
	default:
		return false
	}
}

// membership implements `in`: literal must be a list, and field must
// equal one of its elements. An empty list never contains anything.
func membership(field, literal policy.Value) bool {
	items, ok := literal.AsList()
	if !ok {
		return false
	}
	for _, it := range items {
		if field.Equal(it) {
			return true
		}
	}
	return false
}

// containsOp supports both "field is a list containing literal" and
// "field is a string containing literal substring", mirroring the two
// natural readings of `contains` over attribute data (spec §4.1).
func containsOp(field, literal policy.Value) bool {
	if items, ok := field.AsList(); ok {
		for _, it := range items {
			if it.Equal(literal) {
				return true
			}
		}
		return false
	}
	fs, fok := field.AsString()
	ls, lok := literal.AsString()
	if !fok || !lok {
		return false
	}
	return strings.Contains(fs, ls)
}

func stringPrefix(field, literal policy.Value, prefix bool) bool {
	fs, fok := field.AsString()
	ls, lok := literal.AsString()
	if !fok || !lok {
		return false
	}
	if prefix {
		return strings.HasPrefix(fs, ls)
	}
	return strings.HasSuffix(fs, ls)
}

// matchesOp applies literal as a regular expression against field. An
// invalid pattern evaluates to false rather than erroring the whole
// evaluation (spec §4.1 edge cases) — a malformed rule just never
// matches.
func matchesOp(field, literal policy.Value) bool {
	fs, fok := field.AsString()
	ls, lok := literal.AsString()
	if !fok || !lok {
		return false
	}
	re, err := compileCached(ls)
	if err != nil {
		return false
	}
	return re.MatchString(fs)
}
