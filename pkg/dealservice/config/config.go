package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"stillgrove.com/godealyourself/pkg/collection"
	"stillgrove.com/godealyourself/pkg/fetch"
)

var EnvVars = []string{
	"DYNAMO_ID",
	"DYNAMO_SECRET",
}

var paginationTypes = map[string]struct{}{
	"page_param": {},
	"offset":     {},
	"scroll":     {},
}

// Pagination describes how a source exposes its listing pages
type Pagination struct {
	Type     string `yaml:"type"`
	Param    string `yaml:"param"`
	Start    int    `yaml:"start"`
	PageSize int    `yaml:"page_size"`
}

// RateLimit holds the per-source request budget
type RateLimit struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

// Source configures one retailer pipeline
type Source struct {
	Name            string            `yaml:"name"`
	BaseURL         string            `yaml:"base_url"`
	Strategy        string            `yaml:"strategy"`
	Sport           string            `yaml:"sport"`
	RequiresJS      bool              `yaml:"requires_js"`
	Selectors       map[string]string `yaml:"selectors"`
	YouthKeywords   []string          `yaml:"youth_keywords"`
	Pagination      Pagination        `yaml:"pagination"`
	RateLimit       RateLimit         `yaml:"rate_limit"`
	MaxPages        int               `yaml:"max_pages"`
	MinItemsPerPage int               `yaml:"min_items_per_page"`
	TimeoutSeconds  int               `yaml:"timeout_seconds"`
	Enabled         *bool             `yaml:"enabled"`
}

// Timeout converts the configured request timeout
func (s *Source) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// IsEnabled defaults to true when the flag is omitted
func (s *Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Validate applies the per-source limits before any request is made
func (s *Source) Validate() error {
	if collection.IsEmpty(&s.Name) {
		return fetch.Errorf(fetch.KindConfig, s.Name, "source name is required")
	}
	if collection.IsEmpty(&s.BaseURL) {
		return fetch.Errorf(fetch.KindConfig, s.Name, "base_url is required")
	}
	for _, sel := range []string{"item", "title", "price"} {
		if s.Selectors[sel] == "" {
			return fetch.Errorf(fetch.KindConfig, s.Name, "missing required selector %q", sel)
		}
	}
	if _, ok := paginationTypes[s.Pagination.Type]; !ok {
		return fetch.Errorf(fetch.KindConfig, s.Name, "unknown pagination type %q", s.Pagination.Type)
	}
	if s.RateLimit.PerMinute <= 0 {
		return fetch.Errorf(fetch.KindConfig, s.Name, "rate_limit.per_minute must be positive, got %d", s.RateLimit.PerMinute)
	}
	if s.RateLimit.Burst <= 0 {
		return fetch.Errorf(fetch.KindConfig, s.Name, "rate_limit.burst must be positive, got %d", s.RateLimit.Burst)
	}
	if s.MaxPages < 1 || s.MaxPages > 1000 {
		return fetch.Errorf(fetch.KindConfig, s.Name, "max_pages must be 1-1000, got %d", s.MaxPages)
	}
	if s.TimeoutSeconds < 5 || s.TimeoutSeconds > 300 {
		return fetch.Errorf(fetch.KindConfig, s.Name, "timeout_seconds must be 5-300, got %d", s.TimeoutSeconds)
	}
	if s.MinItemsPerPage < 0 {
		return fetch.Errorf(fetch.KindConfig, s.Name, "min_items_per_page cannot be negative")
	}
	return nil
}

type dedupConfig struct {
	FuzzyThreshold int `yaml:"fuzzy_threshold"`
}

type rankingConfig struct {
	TargetSport string  `yaml:"target_sport"`
	MinDiscount float64 `yaml:"min_discount"`
	TopPerGroup int     `yaml:"top_per_group"`
}

type cacheConfig struct {
	Dir      string `yaml:"dir"`
	TTLHours int    `yaml:"ttl_hours"`
}

type dynamoConfig struct {
	ID        string
	secret    string
	Region    string `yaml:"region"`
	DealTable string `yaml:"dealTable"`
	Enabled   bool   `yaml:"enabled"`
}

type reportConfig struct {
	OutDir string `yaml:"out_dir"`
	Title  string `yaml:"title"`
}

// File contains all settings for a DealService instance
type File struct {
	Sources []Source      `yaml:"sources"`
	Dedup   dedupConfig   `yaml:"dedup"`
	Ranking rankingConfig `yaml:"ranking"`
	Cache   cacheConfig   `yaml:"cache"`
	Dynamo  dynamoConfig  `yaml:"dynamodb"`
	Report  reportConfig  `yaml:"report"`
}

// New reads and validates a config file, pulling storage
// credentials from the environment when storage is enabled.
func New(filePath string) (cfg *File, err error) {
	cfg = new(File)

	yamlFile, err := os.ReadFile(filePath)
	if err != nil {
		return cfg, fetch.Wrap(fetch.KindConfig, "", filePath, err)
	}

	err = yaml.Unmarshal(yamlFile, &cfg)
	if err != nil {
		return cfg, fetch.Wrap(fetch.KindConfig, "", filePath, err)
	}

	cfg.applyDefaults()
	if err = cfg.Validate(); err != nil {
		return cfg, err
	}

	if cfg.Dynamo.Enabled {
		envs, err := getEnvs(EnvVars)
		if err != nil {
			return cfg, err
		}
		cfg.Dynamo.ID = envs["DYNAMO_ID"]
		cfg.Dynamo.secret = envs["DYNAMO_SECRET"]
	}

	return cfg, nil
}

func (cfg *File) applyDefaults() {
	if cfg.Dedup.FuzzyThreshold == 0 {
		cfg.Dedup.FuzzyThreshold = 85
	}
	if cfg.Ranking.TopPerGroup == 0 {
		cfg.Ranking.TopPerGroup = 10
	}
	if cfg.Cache.TTLHours == 0 {
		cfg.Cache.TTLHours = 3
	}
	for i := range cfg.Sources {
		s := &cfg.Sources[i]
		if s.Pagination.Type == "" {
			s.Pagination.Type = "page_param"
		}
		if s.Pagination.Param == "" {
			s.Pagination.Param = "page"
		}
		if s.Pagination.Type == "page_param" && s.Pagination.Start == 0 {
			s.Pagination.Start = 1
		}
		if s.Pagination.Type == "offset" && s.Pagination.PageSize == 0 {
			s.Pagination.PageSize = 24
		}
		if s.RateLimit.PerMinute == 0 {
			s.RateLimit.PerMinute = 30
		}
		if s.RateLimit.Burst == 0 {
			s.RateLimit.Burst = 5
		}
		if s.MaxPages == 0 {
			s.MaxPages = 10
		}
		if s.TimeoutSeconds == 0 {
			s.TimeoutSeconds = 30
		}
		if s.MinItemsPerPage == 0 {
			s.MinItemsPerPage = 1
		}
	}
}

// Validate checks the file-level settings. Per-source problems
// are left to Source.Validate so a bad source disables itself
// without taking the rest of the file down.
func (cfg *File) Validate() error {
	if len(cfg.Sources) == 0 {
		return fetch.Errorf(fetch.KindConfig, "", "no sources configured")
	}
	seen := make(map[string]struct{}, len(cfg.Sources))
	for i := range cfg.Sources {
		s := &cfg.Sources[i]
		if _, dup := seen[s.Name]; dup {
			return fetch.Errorf(fetch.KindConfig, s.Name, "duplicate source name")
		}
		seen[s.Name] = struct{}{}
	}
	if cfg.Dedup.FuzzyThreshold < 0 || cfg.Dedup.FuzzyThreshold > 100 {
		return fetch.Errorf(fetch.KindConfig, "", "dedup.fuzzy_threshold must be 0-100, got %d", cfg.Dedup.FuzzyThreshold)
	}
	if cfg.Ranking.MinDiscount < 0 || cfg.Ranking.MinDiscount > 100 {
		return fetch.Errorf(fetch.KindConfig, "", "ranking.min_discount must be 0-100, got %v", cfg.Ranking.MinDiscount)
	}
	return nil
}

// EnabledSources filters out sources switched off in the file
func (cfg *File) EnabledSources() []Source {
	out := make([]Source, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		if s.IsEnabled() {
			out = append(out, s)
		}
	}
	return out
}

// GetDedup returns the fuzzy match threshold
func (cfg *File) GetDedup() int {
	return cfg.Dedup.FuzzyThreshold
}

// GetRanking returns target sport, minimum discount, and group size
func (cfg *File) GetRanking() (targetSport string, minDiscount float64, topPerGroup int) {
	return cfg.Ranking.TargetSport, cfg.Ranking.MinDiscount, cfg.Ranking.TopPerGroup
}

// GetCache returns the page cache directory and entry lifetime
func (cfg *File) GetCache() (dir string, ttl time.Duration) {
	return cfg.Cache.Dir, time.Duration(cfg.Cache.TTLHours) * time.Hour
}

// GetDynamo returns ID, secret, region, and table for deal storage
func (cfg *File) GetDynamo() (id, secret, region, dealTable string, err error) {
	if !cfg.Dynamo.Enabled {
		return id, secret, region, dealTable, fmt.Errorf("Dynamo storage disabled")
	}
	if collection.AnyEmpty(
		[]*string{
			&cfg.Dynamo.ID,
			&cfg.Dynamo.secret,
			&cfg.Dynamo.Region,
			&cfg.Dynamo.DealTable,
		},
	) {
		return id, secret, region, dealTable, fmt.Errorf("Empty fields in dynamo config")
	}
	return cfg.Dynamo.ID, cfg.Dynamo.secret, cfg.Dynamo.Region, cfg.Dynamo.DealTable, nil
}

// GetReport returns the report output directory and title
func (cfg *File) GetReport() (outDir, title string) {
	if cfg.Report.Title == "" {
		return cfg.Report.OutDir, "Weekly Deal Roundup"
	}
	return cfg.Report.OutDir, cfg.Report.Title
}

func getEnvs(names []string) (map[string]string, error) {
	variables := make(map[string]string, len(names))
	for _, n := range names {
		variables[n] = os.Getenv(n)
		if variables[n] == "" {
			return variables, fmt.Errorf("Couldn't find env variable: %s", n)
		}
	}
	return variables, nil
}
