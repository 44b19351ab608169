package scrape

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sources holds per-source tuning. Every field has a working default;
// a sources.yml file only needs to list overrides.
type Sources struct {
	Forum struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
	} `yaml:"forum"`

	NewsFeed struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
	} `yaml:"news_feed"`

	Wiki struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"wiki"`

	Community struct {
		Subreddit   string `yaml:"subreddit"`
		ForumSearch string `yaml:"forum_search"`
		Limit       int    `yaml:"limit"`
	} `yaml:"community"`

	PoE2DB struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"poe2db"`
}

func DefaultSources() *Sources {
	s := &Sources{}
	s.Forum.Enabled = true
	s.Forum.URL = "https://www.pathofexile.com/forum/view-forum/2212"
	s.NewsFeed.Enabled = true
	s.NewsFeed.URL = "https://www.pathofexile.com/news/rss"
	s.Wiki.BaseURL = "https://www.poewiki.net/wiki/"
	s.Community.Subreddit = "pathofexile2"
	s.Community.ForumSearch = "https://www.pathofexile.com/forum/search"
	s.Community.Limit = 5
	s.PoE2DB.BaseURL = "https://poe2db.tw/us/"
	return s
}

// LoadSources reads overrides from path on top of the defaults. A
// missing file is not an error; a malformed one is.
func LoadSources(path string) (*Sources, error) {
	sources := DefaultSources()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sources, nil
		}
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	if err := yaml.Unmarshal(data, sources); err != nil {
		return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}

	if sources.Community.Limit <= 0 {
		sources.Community.Limit = 5
	}

	return sources, nil
}
