package strictkeys

import "iter"

// Key is an observed mapping key and where it was found.
type Key struct {
	Name string
	Pos  Position
}

// Observation is the set of keys of one mapping node at Path.
type Observation struct {
	Path Path
	Keys []Key
}

// KeyNames returns the observed key names in document order.
func (o Observation) KeyNames() []string {
	names := make([]string, len(o.Keys))
	for i, k := range o.Keys {
		names[i] = k.Name
	}
	return names
}

// Walk returns a lazy depth-first sequence of observations, one per mapping
// node of root, with children visited in document order. Sequence elements
// are traversed and contribute an index segment to the path; scalars yield
// nothing. The sequence can be ranged over any number of times.
func Walk(root any) iter.Seq[Observation] {
	return func(yield func(Observation) bool) {
		walk(root, nil, yield)
	}
}

func walk(node any, path Path, yield func(Observation) bool) bool {
	switch n := node.(type) {
	case D:
		keys := make([]Key, len(n))
		for i, e := range n {
			keys[i] = Key{Name: e.Key, Pos: e.Pos}
		}
		if !yield(Observation{Path: path, Keys: keys}) {
			return false
		}
		for _, e := range n {
			if !walk(e.Value, path.append(KeySegment(e.Key)), yield) {
				return false
			}
		}
	case A:
		for i, elem := range n {
			if !walk(elem, path.append(IndexSegment(i)), yield) {
				return false
			}
		}
	}
	return true
}
