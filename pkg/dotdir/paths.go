package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultHistoryFile is the destination used when none is configured.
	DefaultHistoryFile = "history.json"

	logsDir = "logs"
)

// HistoryPath returns the default history destination inside the target
// .spool/ directory.
func (m *Manager) HistoryPath(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultHistoryFile), nil
}

// LogPath returns <target>/logs/<name>.log, creating the logs directory.
func (m *Manager) LogPath(overrideDir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty log name")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	logs := filepath.Join(dir, logsDir)
	if err := os.MkdirAll(logs, 0o755); err != nil { //nolint:gosec // dot dir is meant to be readable
		return "", fmt.Errorf("creating logs directory %s: %w", logs, err)
	}
	return filepath.Join(logs, name+".log"), nil
}
