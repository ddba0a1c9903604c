package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FileName  = "config.yml"
	EnvPrefix = "VAGAHUNTER"
)

type Rule struct {
	Tag    string   `yaml:"tag" mapstructure:"tag" json:"tag"`
	Weight int      `yaml:"weight" mapstructure:"weight" json:"weight"`
	Any    []string `yaml:"any" mapstructure:"any" json:"any"`
}

type Penalty struct {
	Reason string   `yaml:"reason" mapstructure:"reason" json:"reason"`
	Weight int      `yaml:"weight" mapstructure:"weight" json:"weight"`
	Any    []string `yaml:"any" mapstructure:"any" json:"any"`
}

// Config holds the full engine configuration.
type Config struct {
	App     AppConfig     `yaml:"app" mapstructure:"app" json:"app"`
	Log     LogConfig     `yaml:"log" mapstructure:"log" json:"log"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store" json:"store"`
	Scraper ScraperConfig `yaml:"scraper" mapstructure:"scraper" json:"scraper"`
	AI      AIConfig      `yaml:"ai" mapstructure:"ai" json:"ai"`
	Polling PollingConfig `yaml:"polling" mapstructure:"polling" json:"polling"`
}

type AppConfig struct {
	Port    int    `yaml:"port" mapstructure:"port" json:"port"`
	DataDir string `yaml:"data_dir" mapstructure:"data_dir" json:"data_dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" json:"level"`
	Format string `yaml:"format" mapstructure:"format" json:"format"`
}

// StoreConfig selects the database. sqlite:///relative.db, sqlite:////abs.db
// and postgres:// URLs are understood.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url" json:"database_url"`
}

// ScraperConfig tunes fetching and extraction for every board.
type ScraperConfig struct {
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout"`
	DetailTimeout     time.Duration `yaml:"detail_timeout" mapstructure:"detail_timeout" json:"detail_timeout"`
	SourceTimeout     time.Duration `yaml:"source_timeout" mapstructure:"source_timeout" json:"source_timeout"`
	MaxResults        int           `yaml:"max_results" mapstructure:"max_results" json:"max_results"`
	Sleep             time.Duration `yaml:"sleep" mapstructure:"sleep" json:"sleep"`
	DetailConcurrency int           `yaml:"detail_concurrency" mapstructure:"detail_concurrency" json:"detail_concurrency"`
	RetryAttempts     int           `yaml:"retry_attempts" mapstructure:"retry_attempts" json:"retry_attempts"`
	RetryDelay        time.Duration `yaml:"retry_delay" mapstructure:"retry_delay" json:"retry_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second" json:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst" json:"burst"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent" json:"user_agent"`
	Sources           []string      `yaml:"sources" mapstructure:"sources" json:"sources"`
}

// AIConfig picks the scoring collaborator. Provider is one of gemini,
// anthropic, keyword or none.
type AIConfig struct {
	Provider     string        `yaml:"provider" mapstructure:"provider" json:"provider"`
	Model        string        `yaml:"model" mapstructure:"model" json:"model"`
	APIKey       string        `yaml:"api_key" mapstructure:"api_key" json:"-"`
	BaseURL      string        `yaml:"base_url" mapstructure:"base_url" json:"base_url"`
	Concurrency  int           `yaml:"concurrency" mapstructure:"concurrency" json:"concurrency"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout"`
	KeywordRules []Rule        `yaml:"keyword_rules" mapstructure:"keyword_rules" json:"keyword_rules"`
	Penalties    []Penalty     `yaml:"penalties" mapstructure:"penalties" json:"penalties"`
}

// PollingConfig drives the periodic watch-query searches.
type PollingConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval" json:"interval"`
	Queries  []string      `yaml:"queries" mapstructure:"queries" json:"queries"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.port", 38471)
	v.SetDefault("app.data_dir", ".")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("store.database_url", "sqlite:///./data/vagahunter.db")
	v.SetDefault("scraper.timeout", 10*time.Second)
	v.SetDefault("scraper.detail_timeout", 5*time.Second)
	v.SetDefault("scraper.source_timeout", 2*time.Minute)
	v.SetDefault("scraper.max_results", 5)
	v.SetDefault("scraper.sleep", 500*time.Millisecond)
	v.SetDefault("scraper.detail_concurrency", 4)
	v.SetDefault("scraper.retry_attempts", 3)
	v.SetDefault("scraper.retry_delay", time.Second)
	v.SetDefault("scraper.requests_per_second", 2.0)
	v.SetDefault("scraper.burst", 2)
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (compatible; VagaHunter/1.0; +https://github.com/)")
	v.SetDefault("scraper.sources", []string{"programathor", "weworkremotely", "remoteok"})
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.concurrency", 3)
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("polling.enabled", false)
	v.SetDefault("polling.interval", 30*time.Minute)
	v.SetDefault("polling.queries", []string{})
	return v
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	_ = newViper().Unmarshal(&cfg)
	return cfg
}

// UserConfigPath is where the engine keeps its config inside dataDir.
func UserConfigPath(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// Load reads configuration from path (optional) and the environment.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, eris.Wrap(err, "config: read file")
			}
		} else if !os.IsNotExist(err) {
			return nil, eris.Wrap(err, "config: stat file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	cfg, res := NormalizeAndValidate(cfg)
	for _, w := range res.Warnings {
		zap.L().Warn("config warning", zap.String("warning", w))
	}
	if !res.OK() {
		return nil, eris.Errorf("config validation failed:\n- %s", strings.Join(res.Errors, "\n- "))
	}
	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
