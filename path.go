package strictkeys

import (
	"strconv"
	"strings"
)

// Segment is one step of a Path: a mapping key or a sequence index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// KeySegment returns a segment addressing a mapping key.
func KeySegment(key string) Segment { return Segment{Key: key} }

// IndexSegment returns a segment addressing a sequence element.
func IndexSegment(i int) Segment { return Segment{Index: i, IsIndex: true} }

// Path is the location of a node inside a document. The empty path is the
// root.
type Path []Segment

// String renders the path in a JSONPath-like form: $.server.hosts[0].
// Keys that are not plain identifiers are quoted: $["a.b"].
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("$")
	for _, s := range p {
		switch {
		case s.IsIndex:
			b.WriteString("[")
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteString("]")
		case isPlainKey(s.Key):
			b.WriteString(".")
			b.WriteString(s.Key)
		default:
			b.WriteString("[")
			b.WriteString(strconv.Quote(s.Key))
			b.WriteString("]")
		}
	}
	return b.String()
}

// Keys returns the key segments of p, skipping sequence indexes.
func (p Path) Keys() []string {
	keys := make([]string, 0, len(p))
	for _, s := range p {
		if !s.IsIndex {
			keys = append(keys, s.Key)
		}
	}
	return keys
}

func (p Path) append(s Segment) Path {
	next := make(Path, len(p)+1)
	copy(next, p)
	next[len(p)] = s
	return next
}

func isPlainKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
