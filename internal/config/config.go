package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "PIN_CURATOR_CONFIG"
	databasePathEnv  = "DATABASE_PATH"
	feedURLEnv       = "FEED_URL"
	openAIAPIKeyEnv  = "OPENAI_API_KEY"
	openAIModelEnv   = "OPENAI_MODEL"
	accessTokenEnv   = "PINTEREST_ACCESS_TOKEN"
	boardIDEnv       = "PINTEREST_BOARD_ID"
	publisherModeEnv = "PUBLISHER_MODE"
	imageBucketEnv   = "IMAGE_BUCKET"
	serverAddrEnv    = "SERVER_ADDR"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Feeds     []FeedConfig    `yaml:"feeds"`
	Content   ContentConfig   `yaml:"content"`
	Behavior  BehaviorConfig  `yaml:"behavior"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Images    ImageConfig     `yaml:"images"`
	Publisher PublisherConfig `yaml:"publisher"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig describes the review API listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig describes the SQLite ledger location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// FeedConfig describes a single affiliate feed with its loading strategy.
type FeedConfig struct {
	Name    string            `yaml:"name"`
	Source  string            `yaml:"source"`
	URL     string            `yaml:"url"`
	Options map[string]string `yaml:"options"`
}

// ContentConfig carries the copy-composition settings.
type ContentConfig struct {
	Disclaimer string   `yaml:"disclaimer"`
	Hashtags   []string `yaml:"hashtags"`
}

// BehaviorConfig bounds a single pipeline run.
type BehaviorConfig struct {
	MaxPerRun int `yaml:"maxPerRun"`
}

// OpenAIConfig defines how to contact an OpenAI-compatible API.
type OpenAIConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// ImageConfig controls formatting of product images.
type ImageConfig struct {
	WorkDir   string `yaml:"workDir"`
	MaxWidth  int    `yaml:"maxWidth"`
	MaxHeight int    `yaml:"maxHeight"`
	Quality   int    `yaml:"quality"`
}

// PublisherConfig selects and parametrizes the pin publisher.
type PublisherConfig struct {
	Mode        string   `yaml:"mode"` // "simulated" or "hosted"
	Endpoint    string   `yaml:"endpoint"`
	BoardID     string   `yaml:"boardId"`
	AccessToken string   `yaml:"accessToken"`
	S3          S3Config `yaml:"s3"`
}

// S3Config describes the public image-hosting bucket for hosted publishing.
type S3Config struct {
	Region        string `yaml:"region"`
	Bucket        string `yaml:"bucket"`
	KeyPrefix     string `yaml:"keyPrefix"`
	PublicBaseURL string `yaml:"publicBaseUrl"`
	UsePathStyle  bool   `yaml:"usePathStyle"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. A .env file in the working directory is honored first.
func Load() Config {
	_ = godotenv.Load()

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

	if len(cfg.Feeds) == 0 {
		cfg.Feeds = defaultConfig().Feeds
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(serverAddrEnv); v != "" {
		c.Server.Addr = v
	}

	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(feedURLEnv); v != "" {
		c.Feeds = []FeedConfig{{Name: "awin", Source: "csv", URL: v}}
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}

	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}

	if v := os.Getenv(accessTokenEnv); v != "" {
		c.Publisher.AccessToken = v
	}

	if v := os.Getenv(boardIDEnv); v != "" {
		c.Publisher.BoardID = v
	}

	if v := os.Getenv(publisherModeEnv); v != "" {
		c.Publisher.Mode = v
	}

	if v := os.Getenv(imageBucketEnv); v != "" {
		c.Publisher.S3.Bucket = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server = override.Server
	}

	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	if override.Content.Disclaimer != "" {
		base.Content.Disclaimer = override.Content.Disclaimer
	}
	if len(override.Content.Hashtags) > 0 {
		base.Content.Hashtags = override.Content.Hashtags
	}

	if override.Behavior.MaxPerRun > 0 {
		base.Behavior.MaxPerRun = override.Behavior.MaxPerRun
	}

	if override.OpenAI.Endpoint != "" {
		base.OpenAI.Endpoint = override.OpenAI.Endpoint
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}

	if override.Images.WorkDir != "" {
		base.Images.WorkDir = override.Images.WorkDir
	}
	if override.Images.MaxWidth > 0 {
		base.Images.MaxWidth = override.Images.MaxWidth
	}
	if override.Images.MaxHeight > 0 {
		base.Images.MaxHeight = override.Images.MaxHeight
	}
	if override.Images.Quality > 0 {
		base.Images.Quality = override.Images.Quality
	}

	if override.Publisher.Mode != "" {
		base.Publisher.Mode = override.Publisher.Mode
	}
	if override.Publisher.Endpoint != "" {
		base.Publisher.Endpoint = override.Publisher.Endpoint
	}
	if override.Publisher.BoardID != "" {
		base.Publisher.BoardID = override.Publisher.BoardID
	}
	if override.Publisher.AccessToken != "" {
		base.Publisher.AccessToken = override.Publisher.AccessToken
	}
	if override.Publisher.S3.Region != "" {
		base.Publisher.S3.Region = override.Publisher.S3.Region
	}
	if override.Publisher.S3.Bucket != "" {
		base.Publisher.S3.Bucket = override.Publisher.S3.Bucket
	}
	if override.Publisher.S3.KeyPrefix != "" {
		base.Publisher.S3.KeyPrefix = override.Publisher.S3.KeyPrefix
	}
	if override.Publisher.S3.PublicBaseURL != "" {
		base.Publisher.S3.PublicBaseURL = override.Publisher.S3.PublicBaseURL
	}
	if override.Publisher.S3.UsePathStyle {
		base.Publisher.S3.UsePathStyle = true
	}

	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "pin_curator.db"},
		Feeds: []FeedConfig{
			{
				Name:   "awin",
				Source: "csv",
				URL:    "https://productdata.awin.com/datafeed/download/apikey/...",
			},
		},
		Content: ContentConfig{
			Disclaimer: "#Ad #CommissionsEarned",
			Hashtags:   []string{"HomeDecor", "InteriorDesign", "DreamHome", "HomeInspo", "AffiliateMarketing"},
		},
		Behavior: BehaviorConfig{MaxPerRun: 5},
		OpenAI: OpenAIConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
			APIKey:   "",
		},
		Images: ImageConfig{
			WorkDir:   "temp_images",
			MaxWidth:  1000,
			MaxHeight: 1500,
			Quality:   85,
		},
		Publisher: PublisherConfig{
			Mode:     "simulated",
			Endpoint: "https://api.pinterest.com/v5",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
