package strictkeys

import "fmt"

// D represents a mapping node, defined as an ordered collection of key-value
// pairs. Each entry in the mapping is represented by an E.
type D []E

// A represents a sequence node, defined as a slice of values of any type.
type A []any

// E represents a single entry in a mapping. It consists of a string key, an
// associated value and the source position of the key when known.
type E struct {
	Key   string
	Value any
	Pos   Position
}

// Position is the 1-based line and column of a key in its source. The zero
// value means the position is unknown.
type Position struct {
	Line   int
	Column int
}

// IsValid reports whether the position carries a source location.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// NodeKind classifies a document value.
type NodeKind int

const (
	ScalarKind NodeKind = iota
	MappingKind
	SequenceKind
)

func (k NodeKind) String() string {
	switch k {
	case MappingKind:
		return "mapping"
	case SequenceKind:
		return "sequence"
	default:
		return "scalar"
	}
}

// Kind reports whether v is a mapping (D), a sequence (A) or a scalar. Every
// value that is neither D nor A is a scalar, including nil.
func Kind(v any) NodeKind {
	switch v.(type) {
	case D:
		return MappingKind
	case A:
		return SequenceKind
	default:
		return ScalarKind
	}
}

// Keys returns the keys of d in document order.
func (d D) Keys() []string {
	keys := make([]string, len(d))
	for i, e := range d {
		keys[i] = e.Key
	}
	return keys
}

// Lookup returns the value stored under key.
func (d D) Lookup(key string) (any, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}
