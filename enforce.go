package strictkeys

import (
	"fmt"
	"strings"
)

// Violation is a mapping key not allowed by the rule matching its mapping.
type Violation struct {
	Source   string // file name, empty when unknown
	Document int    // index of the document within a stream
	Path     Path   // path of the mapping holding Key
	Key      string
	Pos      Position
	Rule     string // pattern of the matched rule
	Severity Mode
}

func (v Violation) String() string {
	var b strings.Builder
	if v.Source != "" {
		b.WriteString(v.Source)
		b.WriteString(":")
	}
	if v.Pos.IsValid() {
		fmt.Fprintf(&b, "%d:%d:", v.Pos.Line, v.Pos.Column)
	}
	if b.Len() > 0 {
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "%s: key %q is not allowed by rule %s (%s)", v.Path, v.Key, v.Rule, v.Severity)
	return b.String()
}

// Enforce checks one observation against rs. Every observed key outside the
// allowed set of the most specific matching rule yields one violation with the
// rule's mode as severity. A mapping no rule matches is unconstrained.
func Enforce(rs *RuleSet, obs Observation) []Violation {
	rule, ok := rs.Match(obs.Path)
	if !ok {
		return nil
	}
	var out []Violation
	for _, k := range obs.Keys {
		if rule.Allows(k.Name) {
			continue
		}
		out = append(out, Violation{
			Path:     obs.Path,
			Key:      k.Name,
			Pos:      k.Pos,
			Rule:     rule.String(),
			Severity: rule.Mode(),
		})
	}
	return out
}

// Check walks root and enforces rs on every mapping, collecting all
// violations in document order.
func Check(rs *RuleSet, root any) []Violation {
	var out []Violation
	for obs := range Walk(root) {
		out = append(out, Enforce(rs, obs)...)
	}
	return out
}

// CheckDocuments checks every document of a stream, stamping violations with
// source and document index.
func CheckDocuments(rs *RuleSet, source string, docs []any) []Violation {
	var out []Violation
	for i, doc := range docs {
		for _, v := range Check(rs, doc) {
			v.Source = source
			v.Document = i
			out = append(out, v)
		}
	}
	return out
}
