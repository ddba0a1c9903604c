package config

import (
	"errors"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// QueriesFile is an optional watch list kept next to the config.
type QueriesFile struct {
	Queries []string `yaml:"queries"`
}

// OverlayQueries replaces polling.queries with the contents of queriesPath
// when that file exists and lists anything.
func OverlayQueries(cfg *Config, queriesPath string) error {
	b, err := os.ReadFile(queriesPath)
	if errors.Is(err, os.ErrNotExist) {
		// Missing watch list should not kill startup
		return nil
	}
	if err != nil {
		return eris.Wrap(err, "config: read queries")
	}

	var qf QueriesFile
	if err := yaml.Unmarshal(b, &qf); err != nil {
		return eris.Wrap(err, "config: parse queries")
	}

	if len(qf.Queries) > 0 {
		cfg.Polling.Queries = qf.Queries
		*cfg, _ = NormalizeAndValidate(*cfg)
	}
	return nil
}
