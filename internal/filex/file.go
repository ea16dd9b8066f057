package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StateDirName is the directory under the user's home that holds local state.
const StateDirName = ".contentdesk"

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// DefaultStateDir returns "~/.contentdesk" unexpanded.
func DefaultStateDir() string {
	return "~/" + StateDirName
}

// EnsureDir expands path and creates it (owner-only) if it does not exist.
// It returns the absolute directory path.
func EnsureDir(path string) (string, error) {
	dir, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", path, err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
