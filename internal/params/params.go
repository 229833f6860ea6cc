// Package params decodes parameter documents into the value tree consumed
// by the template engine.
//
// A document is a YAML or JSON mapping. Each key maps to one of the four
// engine value shapes:
//
//	title: Hello              # scalar
//	cells: [a, b, c]          # value list
//	Header: {title: Hi}       # sub-parameters for a reference
//	Row:                      # sub-parameters list, one entry per repetition
//	  - {cell: [1, 2]}
//	  - {cell: [3, 4]}
//
// Null values are dropped so that optional parameters can be switched off
// without deleting the key.
package params

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/snail/pkg/snail"
)

// Decode parses a YAML or JSON document into parameters. An empty document
// yields empty parameters.
func Decode(data []byte) (snail.Params, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return snail.Params{}, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse parameters: %w", err)
	}
	if len(doc.Content) == 0 {
		return snail.Params{}, nil
	}

	root := resolveAlias(doc.Content[0])
	if isNull(root) {
		return snail.Params{}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, &DecodeError{Line: root.Line, Message: "parameters document must be a mapping"}
	}

	return decodeMapping(root, nil)
}

// Load reads and decodes the parameter file at path.
func Load(path string) (snail.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameters file: %w", err)
	}

	params, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return params, nil
}

// ParseAssignments turns "key=value" pairs into scalar parameters. A value
// containing commas inside square brackets, as in "cells=[a,b]", becomes a
// value list.
func ParseAssignments(assignments []string) (snail.Params, error) {
	params := make(snail.Params, len(assignments))
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", a)
		}

		if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
			inner := strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")
			list := snail.ValueList{}
			if strings.TrimSpace(inner) != "" {
				for _, item := range strings.Split(inner, ",") {
					list = append(list, strings.TrimSpace(item))
				}
			}
			params[key] = list
			continue
		}
		params[key] = snail.Scalar(value)
	}
	return params, nil
}

// Merge returns a new map holding base overlaid with overrides. Neither
// input is modified.
func Merge(base, overrides snail.Params) snail.Params {
	merged := make(snail.Params, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// Keys returns the top-level keys of params in sorted order.
func Keys(params snail.Params) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
