package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/c360/hlxmatrix/errors"
)

// Limits on configuration input.
const (
	maxFileSize = 1 << 20
	maxPathLen  = 4096
	maxEnvLen   = 4096
)

var fileExtensions = []string{".yaml", ".yml", ".json"}

// checkPath rejects paths that are empty, overlong, not YAML or JSON, or
// that climb out of the working directory.
func checkPath(path string) error {
	switch {
	case path == "":
		return errors.New("empty path")
	case len(path) > maxPathLen:
		return fmt.Errorf("path longer than %d bytes", maxPathLen)
	case !slices.Contains(fileExtensions, strings.ToLower(filepath.Ext(path))):
		return fmt.Errorf("%s: expected one of %s", path, strings.Join(fileExtensions, ", "))
	}

	if filepath.IsAbs(path) {
		if slices.Contains(strings.Split(filepath.ToSlash(path), "/"), "..") {
			return fmt.Errorf("%s: parent references not allowed", path)
		}
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	if rel, err := filepath.Rel(cwd, abs); err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("%s: outside the working directory", path)
	}
	return nil
}

// readConfigFile reads a configuration layer.
func readConfigFile(path string) ([]byte, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: not a regular file", path)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("%s: %d bytes exceeds %d", path, info.Size(), maxFileSize)
	}
	return os.ReadFile(path)
}

// writeConfigFile writes a configuration file readable only by its owner.
func writeConfigFile(path string, data []byte) error {
	if err := checkPath(path); err != nil {
		return err
	}
	if len(data) > maxFileSize {
		return fmt.Errorf("%d bytes exceeds %d", len(data), maxFileSize)
	}
	return os.WriteFile(path, data, 0o600)
}

// envUsable reports whether an environment value may be applied.
func envUsable(value string) bool {
	return value != "" && len(value) <= maxEnvLen && !strings.ContainsRune(value, 0)
}
