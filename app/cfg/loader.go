package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DataDir  string `long:"data-dir" env:"DATA_DIR" default:"./data/patch_notes" description:"Directory for persisted patch notes"`
	CacheDir string `long:"cache-dir" env:"CACHE_DIR" default:"./scraper_cache" description:"Directory for scraper cache files"`

	// Scraping configuration
	SourcesFile   string `long:"sources-file" env:"SOURCES_FILE" default:"./sources.yml" description:"Optional YAML file with source overrides"`
	UserAgent     string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36" description:"User agent string for HTTP requests"`
	CacheTTLHours int    `long:"cache-ttl" env:"CACHE_TTL_HOURS" default:"24" description:"Scraper cache expiry in hours"`

	// LLM configuration
	AnthropicAPIKey string `long:"anthropic-api-key" env:"ANTHROPIC_API_KEY" description:"Anthropic API key for LLM summaries and build analysis (optional)"`
	AnthropicModel  string `long:"anthropic-model" env:"ANTHROPIC_MODEL" default:"claude-3-5-haiku-20241022" description:"Anthropic model name"`

	// Server configuration
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port (serve mode)"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for mutating endpoints (optional)"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"3600" description:"Seconds between scheduled scrape batches (serve mode)"`

	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses configuration from command-line flags and environment
// variables. The remaining positional arguments (the subcommand and its
// arguments) are returned to the caller. A nil Cfg with a nil error means
// help output was requested.
func Load() (*Cfg, []string, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.HelpFlag|flags.PassDoubleDash)

	args, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				fmt.Println(flagsErr.Message)
				return nil, nil, nil
			}
		}
		return nil, nil, err
	}

	cfg := &Cfg{
		DataDir:           raw.DataDir,
		CacheDir:          raw.CacheDir,
		SourcesFile:       raw.SourcesFile,
		UserAgent:         raw.UserAgent,
		CacheTTLHours:     raw.CacheTTLHours,
		AnthropicAPIKey:   raw.AnthropicAPIKey,
		AnthropicModel:    raw.AnthropicModel,
		Port:              raw.Port,
		APIAccessKey:      raw.APIAccessKey,
		SchedulerInterval: raw.SchedulerInterval,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	globalCfg = cfg

	return cfg, args, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}
