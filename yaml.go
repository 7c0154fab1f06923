package strictkeys

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const mergeTag = "!!merge"

// DecodeYAML decodes a YAML stream into documents. Every "---" separated
// document becomes one element. Mapping order and key positions are preserved,
// aliases are resolved and "<<" merge keys are expanded. An empty stream
// yields no documents.
func DecodeYAML(data []byte) ([]any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var docs []any
	for {
		var n yaml.Node
		err := dec.Decode(&n)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		v, err := (&yamlConverter{active: make(map[*yaml.Node]bool)}).convert(&n)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		docs = append(docs, v)
	}
	return docs, nil
}

type yamlConverter struct {
	active    map[*yaml.Node]bool // alias targets being expanded
	expanding int                 // depth of alias expansion
	decoded   int
	aliased   int // nodes produced through an alias
}

// allowedAliasRatio bounds the share of nodes produced through aliases. The
// thresholds follow the decoder guard of gopkg.in/yaml.v3, which decoding
// into yaml.Node does not apply.
func allowedAliasRatio(decoded int) float64 {
	switch {
	case decoded <= 400_000:
		return 0.99
	case decoded >= 4_000_000:
		return 0.10
	default:
		return 0.99 - 0.89*(float64(decoded-400_000)/3_600_000)
	}
}

func (c *yamlConverter) count(n *yaml.Node) error {
	c.decoded++
	if c.expanding > 0 {
		c.aliased++
	}
	if c.aliased > 100 && c.decoded > 1000 &&
		float64(c.aliased)/float64(c.decoded) > allowedAliasRatio(c.decoded) {
		return fmt.Errorf("line %d: document contains excessive aliasing", n.Line)
	}
	return nil
}

func (c *yamlConverter) convert(n *yaml.Node) (any, error) {
	if n.Kind != yaml.DocumentNode {
		if err := c.count(n); err != nil {
			return nil, err
		}
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return c.convert(n.Content[0])
	case yaml.MappingNode:
		return c.mapping(n)
	case yaml.SequenceNode:
		arr := make(A, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := c.convert(child)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.AliasNode:
		return c.alias(n)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
	}
}

func (c *yamlConverter) alias(n *yaml.Node) (any, error) {
	if n.Alias == nil {
		return nil, fmt.Errorf("line %d: unknown alias %q", n.Line, n.Value)
	}
	if c.active[n.Alias] {
		return nil, fmt.Errorf("line %d: recursive alias %q", n.Line, n.Value)
	}
	c.active[n.Alias] = true
	c.expanding++
	defer func() {
		delete(c.active, n.Alias)
		c.expanding--
	}()
	return c.convert(n.Alias)
}

// mapping converts a mapping node. Explicit keys take precedence over merged
// ones; merged entries are inserted where the merge key appears.
func (c *yamlConverter) mapping(n *yaml.Node) (D, error) {
	explicit := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		if k.Tag == mergeTag {
			continue
		}
		key, err := c.key(k)
		if err != nil {
			return nil, err
		}
		if explicit[key] {
			return nil, fmt.Errorf("line %d: mapping key %q already defined", k.Line, key)
		}
		explicit[key] = true
	}

	res := D{}
	seen := make(map[string]bool, len(explicit))
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Tag == mergeTag {
			merged, err := c.merge(v)
			if err != nil {
				return nil, err
			}
			for _, e := range merged {
				if explicit[e.Key] || seen[e.Key] {
					continue
				}
				seen[e.Key] = true
				res = append(res, e)
			}
			continue
		}
		key, _ := c.key(k)
		val, err := c.convert(v)
		if err != nil {
			return nil, err
		}
		seen[key] = true
		res = append(res, E{Key: key, Value: val, Pos: Position{Line: k.Line, Column: k.Column}})
	}
	return res, nil
}

// merge resolves the value of a "<<" key: a mapping, an alias of one, or a
// sequence of them where earlier mappings win.
func (c *yamlConverter) merge(v *yaml.Node) (D, error) {
	if v.Kind == yaml.SequenceNode {
		var res D
		seen := make(map[string]bool)
		for _, item := range v.Content {
			d, err := c.merge(item)
			if err != nil {
				return nil, err
			}
			for _, e := range d {
				if !seen[e.Key] {
					seen[e.Key] = true
					res = append(res, e)
				}
			}
		}
		return res, nil
	}
	val, err := c.convert(v)
	if err != nil {
		return nil, err
	}
	d, ok := val.(D)
	if !ok {
		return nil, fmt.Errorf("line %d: merge value must be a mapping", v.Line)
	}
	return d, nil
}

func (c *yamlConverter) key(k *yaml.Node) (string, error) {
	if k.Kind == yaml.AliasNode && k.Alias != nil {
		k = k.Alias
	}
	if k.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: unsupported non-scalar mapping key", k.Line)
	}
	return k.Value, nil
}
