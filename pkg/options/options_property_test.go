//go:build property
// +build property

package options

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDedupeProperties tests invariants of variable deduplication
func TestDedupeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	genVars := gen.SliceOf(gen.RegexMatch(`^[a-z]{1,3}$`)).Map(func(keys []string) []Variable {
		vars := make([]Variable, 0, len(keys))
		for i, k := range keys {
			v := strings.Repeat("v", i+1)
			vars = append(vars, Variable{Key: k, Value: &v})
		}
		return vars
	})

	// Property: output never contains a key twice
	properties.Property("keys unique after dedupe", prop.ForAll(
		func(vars []Variable) bool {
			seen := make(map[string]bool)
			for _, v := range DedupeVariables(vars) {
				if seen[v.Key] {
					return false
				}
				seen[v.Key] = true
			}
			return true
		},
		genVars,
	))

	// Property: every input key survives
	properties.Property("no key lost", prop.ForAll(
		func(vars []Variable) bool {
			out := make(map[string]bool)
			for _, v := range DedupeVariables(vars) {
				out[v.Key] = true
			}
			for _, v := range vars {
				if !out[v.Key] {
					return false
				}
			}
			return true
		},
		genVars,
	))

	// Property: the surviving value is the last one declared for the key
	properties.Property("last value wins", prop.ForAll(
		func(vars []Variable) bool {
			last := make(map[string]string)
			for _, v := range vars {
				last[v.Key] = *v.Value
			}
			for _, v := range DedupeVariables(vars) {
				if *v.Value != last[v.Key] {
					return false
				}
			}
			return true
		},
		genVars,
	))

	// Property: dedupe is idempotent
	properties.Property("idempotent", prop.ForAll(
		func(vars []Variable) bool {
			once := DedupeVariables(vars)
			twice := DedupeVariables(once)
			if len(once) != len(twice) {
				return false
			}
			for i := range once {
				if once[i].Key != twice[i].Key || *once[i].Value != *twice[i].Value {
					return false
				}
			}
			return true
		},
		genVars,
	))

	properties.TestingRun(t)
}

// TestParseVariableProperties tests that parsing splits on the first colon only
func TestParseVariableProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("first colon splits", prop.ForAll(
		func(key, value string) bool {
			v, err := ParseVariable(key + ":" + value)
			if err != nil {
				return false
			}
			return v.Key == key && v.Value != nil && *v.Value == value
		},
		gen.RegexMatch(`^[a-z][a-z0-9-]{0,8}$`),
		gen.RegexMatch(`^[a-z0-9:/.-]{0,12}$`),
	))

	properties.TestingRun(t)
}
