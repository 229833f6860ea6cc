package params

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/snail/pkg/snail"
)

// DecodeError reports a document node that has no parameter shape.
type DecodeError struct {
	Path    []string
	Line    int
	Message string
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	if len(e.Path) > 0 {
		b.WriteString(strings.Join(e.Path, "."))
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	return b.String()
}

func decodeMapping(node *yaml.Node, path []string) (snail.Params, error) {
	params := make(snail.Params, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := resolveAlias(node.Content[i])
		valueNode := resolveAlias(node.Content[i+1])

		if keyNode.Kind != yaml.ScalarNode || isNull(keyNode) {
			return nil, &DecodeError{Path: path, Line: keyNode.Line, Message: "mapping keys must be strings"}
		}
		if keyNode.Tag == "!!merge" {
			return nil, &DecodeError{Path: path, Line: keyNode.Line, Message: "merge keys are not supported"}
		}
		key := keyNode.Value
		keyPath := append(append([]string(nil), path...), key)

		if isNull(valueNode) {
			continue
		}

		value, err := decodeValue(valueNode, keyPath)
		if err != nil {
			return nil, err
		}
		params[key] = value
	}

	return params, nil
}

func decodeValue(node *yaml.Node, path []string) (snail.Value, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return snail.Scalar(node.Value), nil
	case yaml.MappingNode:
		sub, err := decodeMapping(node, path)
		if err != nil {
			return nil, err
		}
		return snail.SubParameters(sub), nil
	case yaml.SequenceNode:
		return decodeSequence(node, path)
	default:
		return nil, &DecodeError{Path: path, Line: node.Line, Message: "unsupported value"}
	}
}

// decodeSequence accepts a sequence of scalars or a sequence of mappings.
// An empty sequence is an empty value list.
func decodeSequence(node *yaml.Node, path []string) (snail.Value, error) {
	if len(node.Content) == 0 {
		return snail.ValueList{}, nil
	}

	first := resolveAlias(node.Content[0])
	switch first.Kind {
	case yaml.ScalarNode:
		list := make(snail.ValueList, 0, len(node.Content))
		for i, item := range node.Content {
			item = resolveAlias(item)
			if item.Kind != yaml.ScalarNode || isNull(item) {
				return nil, mixedError(path, i, item)
			}
			list = append(list, item.Value)
		}
		return list, nil

	case yaml.MappingNode:
		list := make(snail.SubParametersList, 0, len(node.Content))
		for i, item := range node.Content {
			item = resolveAlias(item)
			if item.Kind != yaml.MappingNode {
				return nil, mixedError(path, i, item)
			}
			sub, err := decodeMapping(item, append(append([]string(nil), path...), fmt.Sprintf("[%d]", i)))
			if err != nil {
				return nil, err
			}
			list = append(list, sub)
		}
		return list, nil

	default:
		return nil, &DecodeError{Path: path, Line: first.Line, Message: "nested sequences are not supported"}
	}
}

func mixedError(path []string, index int, item *yaml.Node) error {
	return &DecodeError{
		Path:    path,
		Line:    item.Line,
		Message: fmt.Sprintf("element %d does not match the shape of the first element", index),
	}
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}
