package iri

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the install directory discovered from the executable.
const HomeEnv = "IRI90_HOME"

// InstallDir returns the directory that holds the kernel's data/ bundle.
// It is $IRI90_HOME when set, otherwise the directory of the running
// executable.
func InstallDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return filepath.Abs(dir)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// CheckInstall verifies that dir contains the data/ directory.
func CheckInstall(dir string) error {
	path := filepath.Join(dir, DataPath)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("iri90 data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("iri90 data directory: %s is not a directory", path)
	}
	return nil
}
