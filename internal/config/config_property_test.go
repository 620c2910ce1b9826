//go:build property
// +build property

package config

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestMergeProperties tests invariants of the layer merge
func TestMergeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	genScalarMap := gen.MapOf(gen.RegexMatch(`^[a-z]{1,6}$`), gen.AlphaString())

	genArrayMap := gen.MapOf(gen.RegexMatch(`^[a-z]{1,6}$`), gen.SliceOf(gen.AlphaString()).Map(func(ss []string) []any {
		arr := make([]any, len(ss))
		for i, s := range ss {
			arr[i] = s
		}
		return arr
	}))

	toAny := func(m map[string]string) map[string]any {
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}

	// Property: merging an empty overlay changes nothing
	properties.Property("empty overlay is identity", prop.ForAll(
		func(file map[string]string) bool {
			merged, err := mergeSettings(toAny(file), map[string]any{})
			if err != nil {
				return false
			}
			return reflect.DeepEqual(merged, toAny(file))
		},
		genScalarMap,
	))

	// Property: overlay scalars always win
	properties.Property("overlay scalar wins", prop.ForAll(
		func(file, overlay map[string]string) bool {
			merged, err := mergeSettings(toAny(file), toAny(overlay))
			if err != nil {
				return false
			}
			for k, v := range overlay {
				if merged[k] != v {
					return false
				}
			}
			return true
		},
		genScalarMap,
		genScalarMap,
	))

	// Property: array concatenation preserves length and order
	properties.Property("array concat lengths", prop.ForAll(
		func(file, overlay map[string][]any) bool {
			fileLayer := make(map[string]any, len(file))
			for k, v := range file {
				fileLayer[k] = v
			}
			overlayLayer := make(map[string]any, len(overlay))
			for k, v := range overlay {
				overlayLayer[k] = v
			}

			merged, err := mergeSettings(fileLayer, overlayLayer)
			if err != nil {
				return false
			}

			for k, ov := range overlay {
				got, ok := merged[k].([]any)
				if !ok {
					return false
				}
				fv := file[k]
				if len(got) != len(fv)+len(ov) {
					return false
				}
				for i, e := range fv {
					if got[i] != e {
						return false
					}
				}
				for i, e := range ov {
					if got[len(fv)+i] != e {
						return false
					}
				}
			}
			return true
		},
		genArrayMap,
		genArrayMap,
	))

	// Property: shape mismatches always fail, in either direction
	properties.Property("shape mismatch rejected", prop.ForAll(
		func(key, scalar string, arr []string) bool {
			arrAny := make([]any, len(arr))
			for i, s := range arr {
				arrAny[i] = s
			}

			_, errA := mergeSettings(map[string]any{key: scalar}, map[string]any{key: arrAny})
			_, errB := mergeSettings(map[string]any{key: arrAny}, map[string]any{key: scalar})

			return errA != nil && errB != nil
		},
		gen.RegexMatch(`^[a-z]{1,6}$`),
		gen.AlphaString(),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
