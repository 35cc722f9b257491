package confdoc

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

var (
	_ yaml.Marshaler   = (*Map)(nil)
	_ yaml.Unmarshaler = (*Map)(nil)
)

// MarshalYAML emits a mapping node with keys in insertion order.
func (m *Map) MarshalYAML() (any, error) {
	return m.node()
}

func (m *Map) node() (*yaml.Node, error) {
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.Keys() {
		key := &yaml.Node{}
		if err := key.Encode(k); err != nil {
			return nil, err
		}

		val, err := valueNode(m.values[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out.Content = append(out.Content, key, val)
	}
	return out, nil
}

func valueNode(v any) (*yaml.Node, error) {
	switch v := v.(type) {
	case *Map:
		return v.node()
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if len(v) == 0 {
			seq.Style = yaml.FlowStyle
		}
		for _, e := range v {
			n, err := valueNode(e)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	}

	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

// UnmarshalYAML reads a mapping node keeping the order of its keys.
func (m *Map) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.DocumentNode && len(value.Content) > 0 {
		value = value.Content[0]
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected mapping", value.Line)
	}

	decoded, err := mappingToMap(value)
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}

// DecodeYAML reads a document from r. An empty input yields an empty map.
func DecodeYAML(r io.Reader) (*Map, error) {
	m := New()
	if err := yaml.NewDecoder(r).Decode(m); err != nil {
		if errors.Is(err, io.EOF) {
			return New(), nil
		}
		return nil, fmt.Errorf("decode yaml document: %w", err)
	}
	return m, nil
}

// EncodeYAML writes the document to w.
func EncodeYAML(w io.Writer, m *Map) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(4)
	if err := enc.Encode(m); err != nil {
		return err
	}
	return enc.Close()
}

func mappingToMap(node *yaml.Node) (*Map, error) {
	m := New()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		val, err := nodeValue(node.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", key.Line, key.Value, err)
		}
		m.Set(key.Value, val)
	}
	return m, nil
}

func nodeValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return nodeValue(node.Alias)
	case yaml.MappingNode:
		return mappingToMap(node)
	case yaml.SequenceNode:
		list := make([]any, 0, len(node.Content))
		for _, n := range node.Content {
			v, err := nodeValue(n)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}
