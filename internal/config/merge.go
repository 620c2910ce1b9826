package config

import (
	"fmt"
	"sort"

	"github.com/conneroisu/pandoc-spec/internal/errors"
)

// mergeSettings combines the file layer with the caller layer. Scalars from
// the caller overwrite the file value, arrays concatenate with the file
// entries first, and a key holding an array in one layer but a scalar in the
// other fails the merge. Keys present in only one layer pass through.
func mergeSettings(file, overlay map[string]any) (map[string]any, error) {
	merged := make(map[string]any, len(file)+len(overlay))
	for k, v := range file {
		merged[k] = v
	}

	for _, k := range sortedKeys(overlay) {
		v := overlay[k]
		existing, present := merged[k]
		if !present {
			merged[k] = v
			continue
		}

		existingArr, existingIsArr := existing.([]any)
		overlayArr, overlayIsArr := v.([]any)
		switch {
		case existingIsArr && overlayIsArr:
			combined := make([]any, 0, len(existingArr)+len(overlayArr))
			combined = append(combined, existingArr...)
			combined = append(combined, overlayArr...)
			merged[k] = combined
		case existingIsArr != overlayIsArr:
			return nil, errors.NewConfigError(errors.ErrCodeMergeConflict,
				fmt.Sprintf("option %q mixes array and scalar values across layers", k))
		default:
			merged[k] = v
		}
	}

	return merged, nil
}

// sortedKeys keeps merge errors deterministic when several keys conflict.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
