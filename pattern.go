package strictkeys

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
)

const (
	anyKey   = "*"
	anyIndex = "[*]"
	globMeta = "*?[{\\"
)

type segmentKind int

const (
	exactSegment segmentKind = iota
	globSegment
	anySegment
	indexSegment
)

// weight orders segment kinds by specificity at equal depth.
func (k segmentKind) weight() int {
	switch k {
	case exactSegment, indexSegment:
		return 3
	case globSegment:
		return 2
	default:
		return 1
	}
}

// PatternSegment is one step of a Pattern.
type PatternSegment struct {
	kind segmentKind
	text string
	glob glob.Glob
}

func parseSegment(text string) (PatternSegment, error) {
	switch {
	case text == anyIndex:
		return PatternSegment{kind: indexSegment, text: text}, nil
	case text == anyKey:
		return PatternSegment{kind: anySegment, text: text}, nil
	case strings.ContainsAny(text, globMeta):
		g, err := compileGlob(text)
		if err != nil {
			return PatternSegment{}, fmt.Errorf("segment %q: %w", text, err)
		}
		return PatternSegment{kind: globSegment, text: text, glob: g}, nil
	default:
		return PatternSegment{kind: exactSegment, text: text}, nil
	}
}

// compileGlob compiles a glob after rejecting an unterminated "{" and a
// trailing escape, which glob.Compile silently accepts. A "}" outside of
// braces is literal.
func compileGlob(text string) (glob.Glob, error) {
	var (
		depth   int
		inRange bool
	)
	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case c == '\\':
			if i == len(text)-1 {
				return nil, fmt.Errorf("dangling escape at end of %q", text)
			}
			i++
		case inRange:
			inRange = c != ']'
		case c == '[':
			inRange = true
		case c == '{':
			depth++
		case c == '}' && depth > 0:
			depth--
		}
	}
	if depth > 0 {
		return nil, fmt.Errorf("unterminated '{' in %q", text)
	}
	return glob.Compile(text)
}

func (s PatternSegment) matchKey(key string) bool {
	switch s.kind {
	case exactSegment:
		return s.text == key
	case globSegment:
		return s.glob.Match(key)
	case anySegment:
		return true
	default:
		return false
	}
}

// Pattern addresses mapping nodes by path. Segments are exact keys, globs,
// "*" (any single key) or "[*]" (any sequence index). Sequence indexes in a
// path are skipped unless the pattern addresses them with "[*]".
type Pattern []PatternSegment

// ParsePattern parses a dotted pattern such as "server.tls", "servers[*].name"
// or "db_*.options". The empty string, "$" and a leading "$." address the
// root mapping.
func ParsePattern(s string) (Pattern, error) {
	switch {
	case s == "" || s == "$":
		return Pattern{}, nil
	case strings.HasPrefix(s, "$."):
		s = s[2:]
	}
	var p Pattern
	for _, part := range strings.Split(s, ".") {
		var indexes int
		for part != anyIndex && strings.HasSuffix(part, anyIndex) {
			part = strings.TrimSuffix(part, anyIndex)
			indexes++
		}
		if part == "" {
			return nil, fmt.Errorf("pattern %q has an empty segment", s)
		}
		seg, err := parseSegment(part)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", s, err)
		}
		p = append(p, seg)
		for range indexes {
			p = append(p, PatternSegment{kind: indexSegment, text: anyIndex})
		}
	}
	return p, nil
}

// PatternFromSegments builds a pattern from a list of segments. Each element
// is one segment, so keys may contain dots.
func PatternFromSegments(segments []string) (Pattern, error) {
	p := make(Pattern, 0, len(segments))
	for _, text := range segments {
		seg, err := parseSegment(text)
		if err != nil {
			return nil, err
		}
		p = append(p, seg)
	}
	return p, nil
}

// MustPattern is like ParsePattern but panics on error.
func MustPattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders the pattern in the same form as Path.String.
func (p Pattern) String() string {
	var b strings.Builder
	b.WriteString("$")
	for _, s := range p {
		switch {
		case s.kind == indexSegment:
			b.WriteString(anyIndex)
		case s.kind == exactSegment && !isPlainKey(s.text):
			b.WriteString("[")
			b.WriteString(strconv.Quote(s.text))
			b.WriteString("]")
		default:
			b.WriteString(".")
			b.WriteString(s.text)
		}
	}
	return b.String()
}

// canonical identifies a pattern for duplicate detection.
func (p Pattern) canonical() string {
	var b strings.Builder
	for _, s := range p {
		b.WriteString(strconv.Itoa(int(s.kind)))
		b.WriteString(strconv.Quote(s.text))
	}
	return b.String()
}

// Matches reports whether p addresses exactly the node at path.
func (p Pattern) Matches(path Path) bool {
	for _, s := range path {
		if s.IsIndex {
			if len(p) > 0 && p[0].kind == indexSegment {
				p = p[1:]
			}
			continue
		}
		if len(p) == 0 || !p[0].matchKey(s.Key) {
			return false
		}
		p = p[1:]
	}
	return len(p) == 0
}

// compareSpecificity returns a positive number when a is more specific than
// b, negative when less and zero when they rank equal. Longer patterns win;
// at equal length the first differing depth decides.
func compareSpecificity(a, b Pattern) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	for i := range a {
		if d := a[i].kind.weight() - b[i].kind.weight(); d != 0 {
			return d
		}
	}
	return 0
}
