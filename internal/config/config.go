package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "PEERFEED_CONFIG"
	mailtoEnv     = "PEERFEED_MAILTO"
	outputEnv     = "PEERFEED_OUTPUT"
	listingURLEnv = "PEERFEED_LISTING_URL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Listing  ListingConfig  `yaml:"listing"`
	CrossRef CrossRefConfig `yaml:"crossref"`
	Feed     FeedConfig     `yaml:"feed"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ListingConfig describes the source publications page.
type ListingConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// CrossRefConfig defines how to contact the metadata lookup service.
// Mailto is the courtesy contact for the CrossRef polite pool; it is not
// an authentication credential.
type CrossRefConfig struct {
	APIURL         string `yaml:"apiUrl"`
	Mailto         string `yaml:"mailto"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// FeedConfig carries the channel-level metadata and the output location.
// MaxItems caps how many records the document retains; zero means no cap.
type FeedConfig struct {
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
	Category    string `yaml:"category"`
	OutputPath  string `yaml:"outputPath"`
	MaxItems    int    `yaml:"maxItems"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(mailtoEnv); v != "" {
		c.CrossRef.Mailto = v
	}

	if v := os.Getenv(outputEnv); v != "" {
		c.Feed.OutputPath = v
	}

	if v := os.Getenv(listingURLEnv); v != "" {
		c.Listing.URL = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Listing.URL != "" {
		base.Listing.URL = override.Listing.URL
	}
	if override.Listing.TimeoutSeconds > 0 {
		base.Listing.TimeoutSeconds = override.Listing.TimeoutSeconds
	}

	if override.CrossRef.APIURL != "" {
		base.CrossRef.APIURL = override.CrossRef.APIURL
	}
	if override.CrossRef.Mailto != "" {
		base.CrossRef.Mailto = override.CrossRef.Mailto
	}
	if override.CrossRef.TimeoutSeconds > 0 {
		base.CrossRef.TimeoutSeconds = override.CrossRef.TimeoutSeconds
	}

	if override.Feed.Title != "" {
		base.Feed.Title = override.Feed.Title
	}
	if override.Feed.Link != "" {
		base.Feed.Link = override.Feed.Link
	}
	if override.Feed.Description != "" {
		base.Feed.Description = override.Feed.Description
	}
	if override.Feed.Language != "" {
		base.Feed.Language = override.Feed.Language
	}
	if override.Feed.Category != "" {
		base.Feed.Category = override.Feed.Category
	}
	if override.Feed.OutputPath != "" {
		base.Feed.OutputPath = override.Feed.OutputPath
	}
	if override.Feed.MaxItems > 0 {
		base.Feed.MaxItems = override.Feed.MaxItems
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Listing: ListingConfig{
			URL:            "https://peeriodicals.com/peeriodicals/high-throughput-automation-in-rampd",
			TimeoutSeconds: 20,
		},
		CrossRef: CrossRefConfig{
			APIURL:         "https://api.crossref.org/works/",
			TimeoutSeconds: 20,
		},
		Feed: FeedConfig{
			Title:       "High-Throughput Automation In R and D",
			Link:        "https://peeriodicals.com/peeriodicals/high-throughput-automation-in-rampd",
			Description: "This journal aims to be a repository of peer-reviewed articles on the use of HTE for small molecules and related topics in R&D laboratories.",
			Language:    "en-gb",
			Category:    "Science",
			OutputPath:  "rss.xml",
			MaxItems:    200,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
