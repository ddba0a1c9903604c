package config

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SaveAtomic validates cfg and replaces path with it, keeping one .bak copy.
func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return eris.Wrap(err, "config: marshal")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "config: mkdir")
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return eris.Wrap(err, "config: write tmp")
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return eris.Wrap(os.Rename(tmp, path), "config: rename")
}
