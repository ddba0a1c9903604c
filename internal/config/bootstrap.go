package config

import (
	"errors"
	"os"

	"github.com/rotisserie/eris"
)

// EnsureUserConfig writes the default config into dataDir unless one is
// already there, and returns its path.
func EnsureUserConfig(dataDir string) (string, error) {
	userPath := UserConfigPath(dataDir)

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", eris.Wrap(err, "config: stat user config")
	}

	cfg := Default()
	cfg.App.DataDir = dataDir
	if err := SaveAtomic(userPath, cfg); err != nil {
		return "", err
	}
	return userPath, nil
}
