// Package config loads, merges, and resolves pipeline options using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// Options arrive in two layers. The base layer is the JSON options file
// (plus PANDOC_SPEC_ environment overrides, which Viper folds in with its
// own precedence). The caller layer holds command-line flags or programmatic
// values. The layers merge per key: scalars overwrite, arrays concatenate
// with the file entries first, and a key that is an array in one layer but a
// scalar in the other is a configuration error. The merged result is then
// validated and resolved into a single authoritative record for the run.
package config

import (
	"encoding/json"
	goerrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/conneroisu/pandoc-spec/internal/errors"
	"github.com/conneroisu/pandoc-spec/pkg/options"
)

// DefaultOptionsFile is the file looked up in the current directory when no
// explicit options file path is given.
const DefaultOptionsFile = "pandoc-spec.options.json"

const envPrefix = "PANDOC_SPEC"

// envKeys are the option keys that may be overridden through the
// environment, as PANDOC_SPEC_<KEY> in upper case. Structured keys such as
// filters and styles stay file-or-flag only.
var envKeys = []string{
	"inputformat",
	"outputformat",
	"shiftheadinglevelby",
	"numbersections",
	"generatetoc",
	"metadatadate",
	"templatefile",
	"headerfile",
	"footerfile",
	"inputdirectory",
	"outputdirectory",
	"inputfiles",
	"outputfile",
	"cssfiles",
	"resourcefiles",
	"watch",
	"watchwait",
	"preview",
	"previewport",
}

// arrayKeys are the top-level keys with array values. Environment overrides
// arrive as comma-separated strings and are split before merging so the
// layer shapes stay consistent.
var arrayKeys = map[string]bool{
	"filters":                 true,
	"variables":               true,
	"styles":                  true,
	"inputfiles":              true,
	"cssfiles":                true,
	"resourcefiles":           true,
	"additionalreaderoptions": true,
	"additionalwriteroptions": true,
}

// Load reads the options file layer, merges the caller layer on top, and
// resolves the result. An explicitly named options file must exist; the
// default file may be absent, leaving an empty base layer. Load is called
// once per run, so watch mode picks up options file edits on the next run.
func Load(optionsFile string, overlay *options.Options) (*options.Resolved, error) {
	merged, err := loadMerged(optionsFile, overlay)
	if err != nil {
		return nil, err
	}
	return Resolve(merged)
}

// loadMerged produces the merged-but-unresolved options layer.
func loadMerged(optionsFile string, overlay *options.Options) (*options.Options, error) {
	base, err := fileLayer(optionsFile)
	if err != nil {
		return nil, err
	}

	overlayMap, err := settingsMap(overlay)
	if err != nil {
		return nil, err
	}

	merged, err := mergeSettings(base, overlayMap)
	if err != nil {
		return nil, err
	}

	return decodeSettings(merged)
}

// fileLayer reads the options file and environment overrides into a settings
// map keyed by lower-cased option name.
func fileLayer(optionsFile string) (map[string]any, error) {
	v := viper.New()
	v.SetConfigType("json")

	explicit := optionsFile != ""
	if explicit {
		v.SetConfigFile(optionsFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(strings.TrimSuffix(DefaultOptionsFile, ".json"))
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if goerrors.As(err, &notFound) && !explicit {
			// No options file at the default location leaves an empty layer.
		} else if explicit && os.IsNotExist(err) {
			return nil, errors.NewConfigErrorWithCause(errors.ErrCodeOptionsFileNotFound,
				fmt.Sprintf("options file %s not found", optionsFile), err)
		} else {
			var typeErr *json.UnmarshalTypeError
			if goerrors.As(err, &typeErr) {
				return nil, errors.NewConfigErrorWithCause(errors.ErrCodeOptionsFileShape,
					"options file must contain a JSON object", err)
			}
			return nil, errors.NewConfigErrorWithCause(errors.ErrCodeOptionsFileParse,
				"options file is not valid JSON", err)
		}
	}

	return normalizeLayer(v.AllSettings()), nil
}

// normalizeLayer splits comma-separated environment strings for array keys
// so they concatenate instead of colliding with array values. A scalar that
// came from the options file itself keeps its shape, so the merge can still
// flag it as a conflict.
func normalizeLayer(settings map[string]any) map[string]any {
	for key, value := range settings {
		if !arrayKeys[key] {
			continue
		}
		s, ok := value.(string)
		if !ok {
			continue
		}
		if os.Getenv(envPrefix+"_"+strings.ToUpper(key)) == "" {
			continue
		}
		parts := strings.Split(s, ",")
		arr := make([]any, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				arr = append(arr, p)
			}
		}
		settings[key] = arr
	}
	return settings
}

// settingsMap projects a caller layer into the same generic shape as the
// file layer: lower-cased top-level keys over JSON-typed values. Unset
// fields are absent from the map.
func settingsMap(overlay *options.Options) (map[string]any, error) {
	if overlay == nil {
		return map[string]any{}, nil
	}

	raw, err := json.Marshal(overlay)
	if err != nil {
		return nil, errors.NewConfigErrorWithCause(errors.ErrCodeInvalidOption,
			"options did not serialize", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.NewConfigErrorWithCause(errors.ErrCodeInvalidOption,
			"options did not serialize", err)
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out, nil
}

// decodeSettings decodes a merged settings map into a typed options layer.
func decodeSettings(settings map[string]any) (*options.Options, error) {
	dv := viper.New()
	if err := dv.MergeConfigMap(settings); err != nil {
		return nil, errors.NewConfigErrorWithCause(errors.ErrCodeInvalidOption,
			"merged options are unusable", err)
	}

	merged := &options.Options{}
	if err := dv.Unmarshal(merged); err != nil {
		return nil, errors.NewConfigErrorWithCause(errors.ErrCodeInvalidOption,
			"merged options do not match the schema", err)
	}
	return merged, nil
}
