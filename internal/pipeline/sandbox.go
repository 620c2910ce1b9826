package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/conneroisu/pandoc-spec/internal/errors"
)

// SandboxFileName is the headless browser launch configuration the diagram
// filter reads from the directory it runs in.
const SandboxFileName = ".puppeteer.json"

// noSandboxArg lets the bundled browser start inside containers and CI
// runners without user namespace support.
const noSandboxArg = "--no-sandbox"

// sandboxState captures what existed before the run, which determines the
// restore action afterwards.
type sandboxState int

const (
	// sandboxCreated: no configuration existed anywhere; a minimal one was
	// written and is removed afterwards.
	sandboxCreated sandboxState = iota
	// sandboxCopied: the working directory had one; a flag-complete copy
	// was placed in the input directory and is removed afterwards.
	sandboxCopied
	// sandboxAugmented: the input directory had one without the flag; the
	// original bytes come back afterwards.
	sandboxAugmented
	// sandboxUntouched: the input directory already had a flag-complete
	// one; nothing to restore.
	sandboxUntouched
)

// SandboxGuard prepares the diagram filter's browser configuration before a
// run and restores the prior state afterwards, regardless of how the run
// ended.
type SandboxGuard struct {
	state    sandboxState
	path     string
	original []byte
}

// PrepareSandbox guarantees that the input directory holds a browser
// configuration carrying the no-sandbox flag when the pipeline runs. An
// existing configuration in the input directory is augmented in place; one
// in the process working directory is copied over; otherwise a minimal
// configuration is created.
func PrepareSandbox(inputDir string) (*SandboxGuard, error) {
	path := filepath.Join(inputDir, SandboxFileName)

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		cfg, err := parseSandboxConfig(content, path)
		if err != nil {
			return nil, err
		}
		if hasNoSandbox(cfg) {
			return &SandboxGuard{state: sandboxUntouched, path: path}, nil
		}
		if err := writeSandboxConfig(path, ensureNoSandbox(cfg)); err != nil {
			return nil, err
		}
		return &SandboxGuard{state: sandboxAugmented, path: path, original: content}, nil

	case !os.IsNotExist(err):
		return nil, errors.NewIOError(errors.ErrCodeSandboxConfig,
			"could not read "+path, err)
	}

	if wd, err := os.Getwd(); err == nil {
		wdPath := filepath.Join(wd, SandboxFileName)
		if wdPath != path {
			if wdContent, err := os.ReadFile(wdPath); err == nil {
				cfg, err := parseSandboxConfig(wdContent, wdPath)
				if err != nil {
					return nil, err
				}
				if err := writeSandboxConfig(path, ensureNoSandbox(cfg)); err != nil {
					return nil, err
				}
				return &SandboxGuard{state: sandboxCopied, path: path}, nil
			}
		}
	}

	minimal := map[string]any{"args": []any{noSandboxArg}}
	if err := writeSandboxConfig(path, minimal); err != nil {
		return nil, err
	}
	return &SandboxGuard{state: sandboxCreated, path: path}, nil
}

// Restore undoes the preparation. It runs whether the pipeline succeeded or
// failed, so the input directory ends up exactly as found.
func (g *SandboxGuard) Restore() error {
	switch g.state {
	case sandboxUntouched:
		return nil
	case sandboxAugmented:
		if err := os.WriteFile(g.path, g.original, 0644); err != nil {
			return errors.NewIOError(errors.ErrCodeSandboxConfig,
				"could not restore "+g.path, err)
		}
		return nil
	default:
		if err := os.Remove(g.path); err != nil && !os.IsNotExist(err) {
			return errors.NewIOError(errors.ErrCodeSandboxConfig,
				"could not remove "+g.path, err)
		}
		return nil
	}
}

// parseSandboxConfig decodes a configuration while keeping unknown fields,
// so augmenting never drops user settings.
func parseSandboxConfig(content []byte, path string) (map[string]any, error) {
	var cfg map[string]any
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeSandboxConfig,
			path+" is not a JSON object", err)
	}
	if cfg == nil {
		cfg = map[string]any{}
	}
	return cfg, nil
}

func hasNoSandbox(cfg map[string]any) bool {
	args, _ := cfg["args"].([]any)
	for _, a := range args {
		if a == noSandboxArg {
			return true
		}
	}
	return false
}

func ensureNoSandbox(cfg map[string]any) map[string]any {
	args, _ := cfg["args"].([]any)
	if !hasNoSandbox(cfg) {
		cfg["args"] = append(args, noSandboxArg)
	}
	return cfg
}

func writeSandboxConfig(path string, cfg map[string]any) error {
	content, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.NewIOError(errors.ErrCodeSandboxConfig,
			"could not encode "+path, err)
	}
	if err := os.WriteFile(path, append(content, '\n'), 0644); err != nil {
		return errors.NewIOError(errors.ErrCodeSandboxConfig,
			"could not write "+path, err)
	}
	return nil
}
