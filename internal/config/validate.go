package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"vagahunter-engine/internal/scrape/board"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

var providers = map[string]bool{"gemini": true, "anthropic": true, "keyword": true, "none": true}

// NormalizeAndValidate returns a cleaned copy of cfg and what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string, lower bool) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if lower {
				x = strings.ToLower(x)
			}
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Scraper.Sources = trimList(out.Scraper.Sources, true)
	out.Polling.Queries = trimList(out.Polling.Queries, false)
	out.AI.Provider = strings.ToLower(strings.TrimSpace(out.AI.Provider))
	out.Log.Level = strings.ToLower(strings.TrimSpace(out.Log.Level))
	out.Store.DatabaseURL = strings.TrimSpace(out.Store.DatabaseURL)

	// App
	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}
	if strings.TrimSpace(out.App.DataDir) == "" {
		out.App.DataDir = "."
	}

	// Log
	switch out.Log.Format {
	case "console", "json":
	default:
		res.addErr("log.format must be console or json")
	}

	// Store
	if out.Store.DatabaseURL == "" {
		res.addErr("store.database_url is required")
	} else if u, err := url.Parse(out.Store.DatabaseURL); err == nil && u.Scheme != "" {
		switch u.Scheme {
		case "sqlite", "postgres", "postgresql", "file":
		default:
			res.addErr("store.database_url scheme %q is not supported", u.Scheme)
		}
	}

	// Scraper
	positive := func(name string, d time.Duration) {
		if d <= 0 {
			res.addErr("%s must be > 0", name)
		}
	}
	positive("scraper.timeout", out.Scraper.Timeout)
	positive("scraper.detail_timeout", out.Scraper.DetailTimeout)
	positive("scraper.source_timeout", out.Scraper.SourceTimeout)
	if out.Scraper.Sleep < 0 {
		res.addErr("scraper.sleep must be >= 0")
	}
	if out.Scraper.RetryDelay < 0 {
		res.addErr("scraper.retry_delay must be >= 0")
	}
	if out.Scraper.MaxResults < 1 || out.Scraper.MaxResults > 50 {
		res.addErr("scraper.max_results must be 1..50")
	}
	if out.Scraper.DetailConcurrency < 1 {
		res.addErr("scraper.detail_concurrency must be >= 1")
	}
	if out.Scraper.RetryAttempts < 1 || out.Scraper.RetryAttempts > 10 {
		res.addErr("scraper.retry_attempts must be 1..10")
	}
	if out.Scraper.RequestsPerSecond <= 0 {
		res.addWarn("scraper.requests_per_second <= 0 disables rate limiting")
	}
	if len(out.Scraper.Sources) == 0 {
		res.addErr("scraper.sources must list at least one of %s", strings.Join(board.Names(), ", "))
	} else if _, err := board.Lookup(out.Scraper.Sources); err != nil {
		res.addErr("scraper.sources: %v", err)
	}

	// AI
	if !providers[out.AI.Provider] {
		res.addErr("ai.provider must be gemini, anthropic, keyword or none")
	}
	if out.AI.Concurrency < 1 {
		res.addErr("ai.concurrency must be >= 1")
	}
	positive("ai.timeout", out.AI.Timeout)
	if out.AI.Provider == "keyword" && len(out.AI.KeywordRules) == 0 {
		res.addWarn("ai.provider is keyword but ai.keyword_rules is empty; only the query is matched")
	}
	for i, r := range out.AI.KeywordRules {
		if r.Tag == "" {
			res.addErr("ai.keyword_rules[%d].tag is required", i)
		}
		if len(r.Any) == 0 {
			res.addErr("ai.keyword_rules[%d].any must have at least 1 term", i)
		}
		for j, term := range r.Any {
			if strings.TrimSpace(term) == "" {
				res.addErr("ai.keyword_rules[%d].any[%d] cannot be empty", i, j)
			}
		}
	}
	for i, p := range out.AI.Penalties {
		if p.Reason == "" {
			res.addErr("ai.penalties[%d].reason is required", i)
		}
		if len(p.Any) == 0 {
			res.addErr("ai.penalties[%d].any must have at least 1 term", i)
		}
	}

	// Polling
	if out.Polling.Enabled {
		if out.Polling.Interval < time.Minute {
			res.addErr("polling.interval must be >= 1m")
		}
		if len(out.Polling.Queries) == 0 {
			res.addWarn("polling is enabled but polling.queries is empty")
		}
	}

	return out, res
}

// Validate reports the errors of NormalizeAndValidate as one error.
func Validate(cfg Config) error {
	_, res := NormalizeAndValidate(cfg)
	if res.OK() {
		return nil
	}
	return fmt.Errorf("config validation failed:\n- %s", strings.Join(res.Errors, "\n- "))
}
