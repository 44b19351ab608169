package cfg

type Cfg struct {
	// Storage configuration
	DataDir  string
	CacheDir string

	// Scraping configuration
	SourcesFile   string
	UserAgent     string
	CacheTTLHours int

	// LLM configuration
	AnthropicAPIKey string
	AnthropicModel  string

	// Server configuration
	Port              string
	APIAccessKey      string
	SchedulerInterval int

	// Application metadata
	Debug   bool
	Version string
}
