package strictkeys

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// literalSegment returns the pattern text matching key literally.
func literalSegment(key string) string {
	if key == anyKey || key == anyIndex || strings.ContainsAny(key, globMeta) {
		return glob.QuoteMeta(key)
	}
	return key
}

// Infer builds a rule set allowing exactly the keys present in docs. One rule
// is produced per distinct mapping path, sequence indexes collapsed, in first
// seen order. Allowed keys are the union of keys seen at that path.
func Infer(mode Mode, docs ...any) (*RuleSet, error) {
	type entry struct {
		keys    []string
		allowed []string
		seen    map[string]bool
	}
	var order []string
	byPath := make(map[string]*entry)

	for _, doc := range docs {
		for obs := range Walk(doc) {
			keys := obs.Path.Keys()
			id := fmt.Sprintf("%q", keys)
			e, ok := byPath[id]
			if !ok {
				e = &entry{keys: keys, allowed: []string{}, seen: make(map[string]bool)}
				byPath[id] = e
				order = append(order, id)
			}
			for _, k := range obs.Keys {
				if !e.seen[k.Name] {
					e.seen[k.Name] = true
					e.allowed = append(e.allowed, literalSegment(k.Name))
				}
			}
		}
	}

	rules := make([]PathRule, 0, len(order))
	for _, id := range order {
		e := byPath[id]
		segs := make([]string, len(e.keys))
		for i, k := range e.keys {
			segs[i] = literalSegment(k)
		}
		pattern, err := PatternFromSegments(segs)
		if err != nil {
			return nil, err
		}
		r, err := NewPathRule(pattern, e.allowed, mode)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return NewRuleSet(rules...)
}

type ruleDoc struct {
	Path        any      `yaml:"path" json:"path"`
	Allowed     []string `yaml:"allowed" json:"allowed"`
	Mode        Mode     `yaml:"mode" json:"mode"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
}

type rulesDoc struct {
	Rules []ruleDoc `yaml:"rules" json:"rules"`
}

// patternValue renders p as a dotted string when every segment allows it and
// as a list of segments otherwise.
func patternValue(p Pattern) any {
	dotted := true
	for _, s := range p {
		switch {
		case s.kind == indexSegment:
		case s.kind == exactSegment && !isPlainKey(s.text),
			strings.Contains(s.text, "."),
			strings.HasSuffix(s.text, anyIndex),
			s.text == "$":
			dotted = false
		}
	}
	if !dotted {
		segs := make([]string, len(p))
		for i, s := range p {
			segs[i] = s.text
		}
		return segs
	}
	var b strings.Builder
	for i, s := range p {
		if i > 0 && s.kind != indexSegment {
			b.WriteString(".")
		}
		b.WriteString(s.text)
	}
	return b.String()
}

// MarshalRules encodes rs as a rules document in the named format ("yaml" or
// "json"). The output loads back with LoadRules.
func MarshalRules(rs *RuleSet, format string) ([]byte, error) {
	doc := rulesDoc{Rules: make([]ruleDoc, 0, rs.Len())}
	for _, r := range rs.Rules() {
		allowed := r.Allowed()
		if allowed == nil {
			allowed = []string{}
		}
		doc.Rules = append(doc.Rules, ruleDoc{
			Path:        patternValue(r.pattern),
			Allowed:     allowed,
			Mode:        r.Mode(),
			Description: r.Description(),
		})
	}

	var buf bytes.Buffer
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml rules: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml rules: %w", err)
		}
	case "json":
		if err := json.MarshalWrite(&buf, doc, jsontext.WithIndent("  ")); err != nil {
			return nil, fmt.Errorf("encode json rules: %w", err)
		}
		buf.WriteByte('\n')
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
	return buf.Bytes(), nil
}
