package report

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes a to dir atomically via a temp file + os.Rename and
// returns the final path.
func WriteFile(dir string, a *Artifact) (path string, err error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path = filepath.Join(dir, a.Filename)

	// Same directory as the target so the rename is atomic.
	tmp, err := os.CreateTemp(dir, ".clicktrail-*.tmp")
	if err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(a.Data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
