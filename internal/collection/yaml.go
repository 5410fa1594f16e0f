package collection

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rtmpl/internal/template"
)

func parseYAML(data []byte) (*template.Collection, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing YAML: %v", err)}
	}

	// An empty document is an empty collection.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return template.NewCollection(), nil
	}

	return FromYAMLNode(doc.Content[0])
}

// FromYAMLNode builds a collection from a YAML mapping node, keeping the
// node's key order. Scalar values of any tag except null are taken as
// their literal text.
func FromYAMLNode(node *yaml.Node) (*template.Collection, error) {
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, &LoadError{
			Code:    ErrCodeNotMapping,
			Message: "collection must be a mapping of key to template text",
			Line:    node.Line,
		}
	}

	b := newBuilder()
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		if keyNode.Kind != yaml.ScalarNode {
			return nil, &LoadError{Code: ErrCodeInvalidValue, Message: "keys must be scalars", Line: keyNode.Line}
		}
		if valueNode.Kind != yaml.ScalarNode || valueNode.Tag == "!!null" {
			// A bare {{field}} value is a YAML flow mapping, not a string.
			return nil, &LoadError{
				Code:    ErrCodeInvalidValue,
				Message: fmt.Sprintf("value for key %q must be a string (quote values starting with \"{{\")", keyNode.Value),
				Line:    valueNode.Line,
			}
		}

		if err := b.add(keyNode.Value, valueNode.Value, keyNode.Line); err != nil {
			return nil, err
		}
	}

	return b.c, nil
}
