//go:build property

package params

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/snail/pkg/snail"
)

func TestParamsProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: a mapping of string lists decodes to value lists of the same contents
	properties.Property("string lists decode to value lists", prop.ForAll(
		func(key string, values []string) bool {
			if len(values) == 0 {
				values = []string{"x"}
			}
			data, err := yaml.Marshal(map[string][]string{key: values})
			if err != nil {
				return false
			}
			params, err := Decode(data)
			if err != nil {
				return false
			}
			list, ok := params[key].(snail.ValueList)
			if !ok || len(list) != len(values) {
				return false
			}
			for i := range values {
				if list[i] != values[i] {
					return false
				}
			}
			return true
		},
		gen.Identifier(),
		gen.SliceOf(gen.AlphaString()),
	))

	// Property: overrides always win and base keys survive
	properties.Property("merge precedence", prop.ForAll(
		func(key, a, b string) bool {
			key = "k_" + key
			merged := Merge(snail.Params{key: snail.Scalar(a), "base": snail.Scalar("kept")}, snail.Params{key: snail.Scalar(b)})
			return merged[key] == snail.Scalar(b) && merged["base"] == snail.Scalar("kept")
		},
		gen.Identifier(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	// Property: a single assignment round-trips its scalar value
	properties.Property("assignment round trip", prop.ForAll(
		func(key, value string) bool {
			params, err := ParseAssignments([]string{key + "=" + value})
			return err == nil && params[key] == snail.Scalar(value)
		},
		gen.Identifier(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
