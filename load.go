package strictkeys

import (
	"errors"
	"fmt"
	"os"
)

// metaRules constrains the keys of a rules document. A rules document is
// either {mode, rules: [...]} or a bare sequence of rules.
var metaRules = mustRuleSet(
	mustRule("", []string{"mode", "rules"}),
	mustRule("rules[*]", ruleKeys),
	mustRule("[*]", ruleKeys),
)

var ruleKeys = []string{"path", "allowed", "mode", "description"}

func mustRule(pattern string, allowed []string) PathRule {
	r, err := NewPathRule(MustPattern(pattern), allowed, Strict)
	if err != nil {
		panic(err)
	}
	return r
}

func mustRuleSet(rules ...PathRule) *RuleSet {
	rs, err := NewRuleSet(rules...)
	if err != nil {
		panic(err)
	}
	return rs
}

// LoadRulesFile reads a rules document from path, choosing the format by file
// extension.
func LoadRulesFile(path string, reg *Registry) (*RuleSet, error) {
	f, err := reg.ForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	rs, err := LoadRules(data, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// LoadRules decodes a rules document with format f and builds a rule set.
// Every problem found is reported, joined, under ErrInvalidRuleSet.
//
//	mode: strict            # default for rules without a mode
//	rules:
//	  - path: server        # or a list: [server]
//	    allowed: [host, port]
//	  - path: "servers[*].tls"
//	    allowed: [cert, key, "x-*"]
//	    mode: warn
func LoadRules(data []byte, f Format) (*RuleSet, error) {
	docs, err := f.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRuleSet, err)
	}
	if len(docs) != 1 {
		return nil, fmt.Errorf("%w: expected one document, got %d", ErrInvalidRuleSet, len(docs))
	}
	return parseRules(docs[0])
}

func parseRules(root any) (*RuleSet, error) {
	var errs []error
	for _, v := range Check(metaRules, root) {
		errs = append(errs, fmt.Errorf("%s: unknown key %q", location(v.Path, v.Pos), v.Key))
	}

	mode := Strict
	var items A
	switch r := root.(type) {
	case D:
		if v, ok := r.Lookup("mode"); ok {
			m, err := parseModeValue(v)
			if err != nil {
				errs = append(errs, err)
			} else {
				mode = m
			}
		}
		v, ok := r.Lookup("rules")
		if !ok {
			errs = append(errs, errors.New("missing rules"))
			break
		}
		if items, ok = v.(A); !ok {
			errs = append(errs, fmt.Errorf("rules must be a sequence, got %s", Kind(v)))
		}
	case A:
		items = r
	case nil:
		errs = append(errs, errors.New("empty rules document"))
	default:
		errs = append(errs, fmt.Errorf("rules document must be a mapping or a sequence, got %s", Kind(r)))
	}

	rules := make([]PathRule, 0, len(items))
	for i, item := range items {
		r, err := parseRule(item, mode)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %d: %w", i, err))
			continue
		}
		rules = append(rules, r)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRuleSet, errors.Join(errs...))
	}
	return NewRuleSet(rules...)
}

func parseRule(item any, defaultMode Mode) (PathRule, error) {
	d, ok := item.(D)
	if !ok {
		return PathRule{}, fmt.Errorf("must be a mapping, got %s", Kind(item))
	}

	pv, ok := d.Lookup("path")
	if !ok {
		return PathRule{}, errors.New("missing path")
	}
	pattern, err := parsePathValue(pv)
	if err != nil {
		return PathRule{}, err
	}

	av, ok := d.Lookup("allowed")
	if !ok {
		return PathRule{}, fmt.Errorf("%s: missing allowed", pattern)
	}
	list, ok := av.(A)
	if !ok {
		return PathRule{}, fmt.Errorf("%s: allowed must be a list, got %s", pattern, Kind(av))
	}
	allowed := make([]string, 0, len(list))
	for j, e := range list {
		s, ok := e.(string)
		if !ok {
			return PathRule{}, fmt.Errorf("%s: allowed entry %d (%v) is not a string", pattern, j, e)
		}
		allowed = append(allowed, s)
	}

	mode := defaultMode
	if mv, ok := d.Lookup("mode"); ok {
		if mode, err = parseModeValue(mv); err != nil {
			return PathRule{}, fmt.Errorf("%s: %w", pattern, err)
		}
	}

	r, err := NewPathRule(pattern, allowed, mode)
	if err != nil {
		return PathRule{}, err
	}
	if dv, ok := d.Lookup("description"); ok && dv != nil {
		desc, ok := dv.(string)
		if !ok {
			return PathRule{}, fmt.Errorf("%s: description must be a string", pattern)
		}
		r = r.WithDescription(desc)
	}
	return r, nil
}

func parsePathValue(v any) (Pattern, error) {
	switch p := v.(type) {
	case string:
		return ParsePattern(p)
	case A:
		segs := make([]string, 0, len(p))
		for i, e := range p {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("path segment %d (%v) is not a string", i, e)
			}
			segs = append(segs, s)
		}
		return PatternFromSegments(segs)
	default:
		return nil, fmt.Errorf("path must be a string or a list, got %v", v)
	}
}

func parseModeValue(v any) (Mode, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("mode must be a string, got %v", v)
	}
	return ParseMode(s)
}

func location(path Path, pos Position) string {
	if pos.IsValid() {
		return fmt.Sprintf("%s (%s)", path, pos)
	}
	return path.String()
}
