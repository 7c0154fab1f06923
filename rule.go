package strictkeys

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// Mode is the severity of violations produced by a rule.
type Mode string

const (
	// Strict violations fail the run.
	Strict Mode = "strict"
	// Warn violations are reported but do not fail the run.
	Warn Mode = "warn"
)

// ParseMode parses "strict" or "warn".
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Strict, Warn:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, Strict, Warn)
	}
}

// PathRule binds a pattern to the set of keys allowed in the mappings it
// addresses. It is immutable once built.
type PathRule struct {
	pattern     Pattern
	allowed     []string
	exact       map[string]struct{}
	globs       []glob.Glob
	mode        Mode
	description string
}

// NewPathRule builds a rule. Allowed entries containing glob metacharacters
// (*?[{\) are matched as globs, all others literally. An empty allowed list
// permits no keys at all.
func NewPathRule(pattern Pattern, allowed []string, mode Mode) (PathRule, error) {
	if mode != Strict && mode != Warn {
		return PathRule{}, fmt.Errorf("rule %s: unknown mode %q", pattern, mode)
	}
	r := PathRule{
		pattern: slices.Clone(pattern),
		allowed: append([]string{}, allowed...),
		exact:   make(map[string]struct{}, len(allowed)),
		mode:    mode,
	}
	for _, a := range allowed {
		if !strings.ContainsAny(a, globMeta) {
			r.exact[a] = struct{}{}
			continue
		}
		g, err := compileGlob(a)
		if err != nil {
			return PathRule{}, fmt.Errorf("rule %s: allowed key %q: %w", pattern, a, err)
		}
		r.globs = append(r.globs, g)
	}
	return r, nil
}

// WithDescription returns a copy of r carrying a human description.
func (r PathRule) WithDescription(desc string) PathRule {
	r.description = desc
	return r
}

// Pattern returns a copy of the rule's path pattern.
func (r PathRule) Pattern() Pattern { return slices.Clone(r.pattern) }

// Allowed returns a copy of the allowed entries as declared.
func (r PathRule) Allowed() []string { return slices.Clone(r.allowed) }

// Mode returns the severity of violations reported by the rule.
func (r PathRule) Mode() Mode { return r.mode }

// Description returns the optional human description.
func (r PathRule) Description() string { return r.description }

// String returns the rule's pattern in "$.a.b" form.
func (r PathRule) String() string { return r.pattern.String() }

// Matches reports whether the rule's pattern addresses path.
func (r PathRule) Matches(path Path) bool { return r.pattern.Matches(path) }

// Allows reports whether key is permitted by the rule.
func (r PathRule) Allows(key string) bool {
	if _, ok := r.exact[key]; ok {
		return true
	}
	for _, g := range r.globs {
		if g.Match(key) {
			return true
		}
	}
	return false
}

// RuleSet is an ordered, immutable collection of rules with unique patterns.
type RuleSet struct {
	rules []PathRule
}

// NewRuleSet builds a rule set. Duplicate patterns are reported together and
// wrap ErrInvalidRuleSet.
func NewRuleSet(rules ...PathRule) (*RuleSet, error) {
	seen := make(map[string]bool, len(rules))
	var errs []error
	for _, r := range rules {
		key := r.pattern.canonical()
		if seen[key] {
			errs = append(errs, fmt.Errorf("duplicate path %s", r.pattern))
			continue
		}
		seen[key] = true
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRuleSet, errors.Join(errs...))
	}
	return &RuleSet{rules: slices.Clone(rules)}, nil
}

// Rules returns the rules in declaration order.
func (rs *RuleSet) Rules() []PathRule {
	if rs == nil {
		return nil
	}
	return slices.Clone(rs.rules)
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Match returns the most specific rule addressing path. Patterns with more
// segments win; at equal length exact keys and "[*]" beat globs, which beat
// "*", comparing depth by depth from the root. Remaining ties go to the rule
// declared first.
func (rs *RuleSet) Match(path Path) (PathRule, bool) {
	if rs == nil {
		return PathRule{}, false
	}
	best := -1
	for i, r := range rs.rules {
		if !r.pattern.Matches(path) {
			continue
		}
		if best < 0 || compareSpecificity(r.pattern, rs.rules[best].pattern) > 0 {
			best = i
		}
	}
	if best < 0 {
		return PathRule{}, false
	}
	return rs.rules[best], true
}
