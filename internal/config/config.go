package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "SITEFORGE_CONFIG"
	logLevelEnv      = "SITEFORGE_LOG_LEVEL"
	providerEnv      = "SITEFORGE_LLM_PROVIDER"
	anthropicKeyEnv  = "ANTHROPIC_API_KEY"
	openAIKeyEnv     = "OPENAI_API_KEY"
	geminiKeyEnv     = "GEMINI_API_KEY"
	storageDSNEnv    = "SITEFORGE_STORAGE_DSN"
	natsURLEnv       = "NATS_URL"
	internalTokenEnv = "SITEFORGE_INTERNAL_TOKEN"
	listenAddrEnv    = "SITEFORGE_ADDR"
	componentsURLEnv = "SITEFORGE_COMPONENTS_URL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	LLM        LLMConfig        `yaml:"llm"`
	Components ComponentsConfig `yaml:"components"`
	Storage    StorageConfig    `yaml:"storage"`
	Quality    QualityConfig    `yaml:"quality"`
	Enhancer   EnhancerConfig   `yaml:"enhancer"`
	Collab     CollabConfig     `yaml:"collab"`
	Audit      AuditConfig      `yaml:"audit"`
	Janitor    JanitorConfig    `yaml:"janitor"`
	Site       SiteConfig       `yaml:"site"`
	Templates  TemplatesConfig  `yaml:"templates"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	InternalToken string `yaml:"internalToken"`
}

// LoggingConfig sets the slog level and output format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LLMConfig defines how to contact the generative text service.
type LLMConfig struct {
	Provider       string        `yaml:"provider"`
	Endpoint       string        `yaml:"endpoint"`
	APIKey         string        `yaml:"apiKey"`
	CheapModel     string        `yaml:"cheapModel"`
	ExpensiveModel string        `yaml:"expensiveModel"`
	Timeout        time.Duration `yaml:"timeout"`
	SectionTokens  int           `yaml:"sectionTokens"`
}

// ComponentsConfig points at the reusable component catalog. An empty
// BaseURL disables the catalog and every slot is generated.
type ComponentsConfig struct {
	BaseURL  string `yaml:"baseUrl"`
	APIKey   string `yaml:"apiKey"`
	PageSize int    `yaml:"pageSize"`
}

// StorageConfig selects the artifact store backend.
type StorageConfig struct {
	Driver  string `yaml:"driver"`
	DSN     string `yaml:"dsn"`
	NATSURL string `yaml:"natsUrl"`
	Bucket  string `yaml:"bucket"`
}

// QualityConfig tunes the quality-gated retry loop.
type QualityConfig struct {
	Threshold             int  `yaml:"threshold"`
	MaxAttempts           int  `yaml:"maxAttempts"`
	Strict                bool `yaml:"strict"`
	GenerateOnFailedAdapt bool `yaml:"generateOnFailedAdapt"`
	Concurrency           int  `yaml:"concurrency"`
}

// EnhancerConfig tunes the save-time enhancer.
type EnhancerConfig struct {
	Enabled   bool `yaml:"enabled"`
	MaxTokens int  `yaml:"maxTokens"`
}

// CollabConfig selects how remote-save notifications reach rooms.
type CollabConfig struct {
	Notifier     string `yaml:"notifier"`
	BroadcastURL string `yaml:"broadcastUrl"`
	Subject      string `yaml:"subject"`
}

// AuditConfig wires the optional external audit scorer.
type AuditConfig struct {
	Endpoint      string `yaml:"endpoint"`
	APIKey        string `yaml:"apiKey"`
	PublicBaseURL string `yaml:"publicBaseUrl"`
}

// JanitorConfig controls the transient artifact sweep.
type JanitorConfig struct {
	Interval time.Duration `yaml:"interval"`
	TTL      time.Duration `yaml:"ttl"`
}

// SiteConfig holds page-level defaults.
type SiteConfig struct {
	CanonicalPattern string `yaml:"canonicalPattern"`
}

// TemplatesConfig points at an optional YAML file with extra templates.
type TemplatesConfig struct {
	File string `yaml:"file"`
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
				cfg.applyFlags(raw)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(listenAddrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(internalTokenEnv); v != "" {
		c.Server.InternalToken = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(providerEnv); v != "" {
		c.LLM.Provider = v
	}

	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "anthropic":
			c.LLM.APIKey = os.Getenv(anthropicKeyEnv)
		case "openai":
			c.LLM.APIKey = os.Getenv(openAIKeyEnv)
		case "gemini":
			c.LLM.APIKey = os.Getenv(geminiKeyEnv)
		}
	}

	if v := os.Getenv(componentsURLEnv); v != "" {
		c.Components.BaseURL = v
	}
	if v := os.Getenv(storageDSNEnv); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv(natsURLEnv); v != "" {
		c.Storage.NATSURL = v
	}
}

// fileFlags captures booleans that must be distinguishable from "unset".
type fileFlags struct {
	Quality struct {
		Strict                *bool `yaml:"strict"`
		GenerateOnFailedAdapt *bool `yaml:"generateOnFailedAdapt"`
	} `yaml:"quality"`
	Enhancer struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"enhancer"`
}

func (c *Config) applyFlags(raw []byte) {
	var flags fileFlags
	if err := yaml.Unmarshal(raw, &flags); err != nil {
		return
	}
	if flags.Quality.Strict != nil {
		c.Quality.Strict = *flags.Quality.Strict
	}
	if flags.Quality.GenerateOnFailedAdapt != nil {
		c.Quality.GenerateOnFailedAdapt = *flags.Quality.GenerateOnFailedAdapt
	}
	if flags.Enhancer.Enabled != nil {
		c.Enhancer.Enabled = *flags.Enhancer.Enabled
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.InternalToken != "" {
		base.Server.InternalToken = override.Server.InternalToken
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.LLM.Provider != "" {
		base.LLM.Provider = override.LLM.Provider
	}
	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.CheapModel != "" {
		base.LLM.CheapModel = override.LLM.CheapModel
	}
	if override.LLM.ExpensiveModel != "" {
		base.LLM.ExpensiveModel = override.LLM.ExpensiveModel
	}
	if override.LLM.Timeout > 0 {
		base.LLM.Timeout = override.LLM.Timeout
	}
	if override.LLM.SectionTokens > 0 {
		base.LLM.SectionTokens = override.LLM.SectionTokens
	}

	if override.Components.BaseURL != "" {
		base.Components.BaseURL = override.Components.BaseURL
	}
	if override.Components.APIKey != "" {
		base.Components.APIKey = override.Components.APIKey
	}
	if override.Components.PageSize > 0 {
		base.Components.PageSize = override.Components.PageSize
	}

	if override.Storage.Driver != "" {
		base.Storage.Driver = override.Storage.Driver
	}
	if override.Storage.DSN != "" {
		base.Storage.DSN = override.Storage.DSN
	}
	if override.Storage.NATSURL != "" {
		base.Storage.NATSURL = override.Storage.NATSURL
	}
	if override.Storage.Bucket != "" {
		base.Storage.Bucket = override.Storage.Bucket
	}

	if override.Quality.Threshold > 0 {
		base.Quality.Threshold = override.Quality.Threshold
	}
	if override.Quality.MaxAttempts > 0 {
		base.Quality.MaxAttempts = override.Quality.MaxAttempts
	}
	if override.Quality.Concurrency > 0 {
		base.Quality.Concurrency = override.Quality.Concurrency
	}
	if override.Enhancer.MaxTokens > 0 {
		base.Enhancer.MaxTokens = override.Enhancer.MaxTokens
	}

	if override.Collab.Notifier != "" {
		base.Collab.Notifier = override.Collab.Notifier
	}
	if override.Collab.BroadcastURL != "" {
		base.Collab.BroadcastURL = override.Collab.BroadcastURL
	}
	if override.Collab.Subject != "" {
		base.Collab.Subject = override.Collab.Subject
	}

	if override.Audit.Endpoint != "" {
		base.Audit = override.Audit
	}

	if override.Janitor.Interval > 0 {
		base.Janitor.Interval = override.Janitor.Interval
	}
	if override.Janitor.TTL > 0 {
		base.Janitor.TTL = override.Janitor.TTL
	}

	if override.Site.CanonicalPattern != "" {
		base.Site.CanonicalPattern = override.Site.CanonicalPattern
	}

	if override.Templates.File != "" {
		base.Templates.File = override.Templates.File
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		LLM: LLMConfig{
			Provider:       "anthropic",
			CheapModel:     "claude-3-5-haiku-latest",
			ExpensiveModel: "claude-sonnet-4-0",
			Timeout:        90 * time.Second,
			SectionTokens:  4096,
		},
		Components: ComponentsConfig{PageSize: 100},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "file:siteforge.db",
			Bucket: "pages",
		},
		Quality: QualityConfig{
			Threshold:   70,
			MaxAttempts: 3,
			Strict:      true,
			Concurrency: 4,
		},
		Enhancer: EnhancerConfig{Enabled: true, MaxTokens: 16000},
		Collab: CollabConfig{
			Notifier: "local",
			Subject:  "siteforge.pages.saved",
		},
		Janitor: JanitorConfig{Interval: 15 * time.Minute, TTL: time.Hour},
		Site:    SiteConfig{CanonicalPattern: "https://{site}.pages.example.org"},
	}
}
