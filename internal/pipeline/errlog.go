package pipeline

import (
	"os"
	"path/filepath"
)

// MermaidErrorLog is the file the diagram filter writes its rendering
// errors to, in the directory it runs in.
const MermaidErrorLog = "mermaid-filter.err"

// CleanupErrorLog removes the diagram filter's error log when it is empty.
// A non-empty log holds real rendering errors and stays for inspection.
func CleanupErrorLog(inputDir string) {
	path := filepath.Join(inputDir, MermaidErrorLog)
	info, err := os.Stat(path)
	if err != nil || info.Size() > 0 {
		return
	}
	_ = os.Remove(path)
}
