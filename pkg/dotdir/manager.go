// Package dotdir resolves the .costwise/ directory that holds config.toml,
// the optional .env file, and the persisted chat state.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the name of the costwise state directory.
const DirName = ".costwise"

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path to a .costwise/ directory, creating it
// when missing. Precedence:
//  1. Provided override
//  2. Local ./.costwise/ dir
//  3. Home ~/.costwise/ dir
func (m *Manager) Target(overrideDir string) (string, error) {
	dir := overrideDir

	if dir == "" {
		base, err := m.baseDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, DirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating costwise directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// baseDir picks the working directory when it already carries a .costwise/
// directory and the home directory otherwise.
func (m *Manager) baseDir() (string, error) {
	cwd, err := os.Getwd()
	if err == nil {
		if info, statErr := os.Stat(filepath.Join(cwd, DirName)); statErr == nil && info.IsDir() {
			return cwd, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return home, nil
}
