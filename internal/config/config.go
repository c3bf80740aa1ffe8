package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "NEWS_RANKER_CONFIG"
	logLevelEnv       = "LOG_LEVEL"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	enrichProviderEnv = "ENRICH_PROVIDER"
	anthropicKeyEnv   = "ANTHROPIC_API_KEY"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
	mlAPIKeyEnv       = "ML_API_KEY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	httpAddrEnv       = "HTTP_ADDR"
	adminUserEnv      = "ADMIN_USERNAME"
	adminPasswordEnv  = "ADMIN_PASSWORD"
)

// Enrichment provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderChatGPT   = "chatgpt"
	ProviderML        = "ml"
	ProviderNone      = "none"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Fetch         FetchConfig        `yaml:"fetch"`
	Ingest        IngestConfig       `yaml:"ingest"`
	Enrich        EnrichConfig       `yaml:"enrich"`
	Ranking       RankingConfig      `yaml:"ranking"`
	HTTP          HTTPConfig         `yaml:"http"`
	Notifications NotificationConfig `yaml:"notifications"`
	Anthropic     AnthropicConfig    `yaml:"anthropic"`
	ML            MLConfig           `yaml:"ml"`
	ChatGPT       ChatGPTConfig      `yaml:"chatgpt"`
	Seeds         []SourceSeed       `yaml:"seeds"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig selects the SQL driver; sqlite DSNs are file paths.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig defines when refresh cycles run.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	RunOnStart     bool           `yaml:"runOnStart"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// FetchConfig tunes the per-source HTTP fetch and its backoff.
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	Attempts     int           `yaml:"attempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
	Multiplier   float64       `yaml:"multiplier"`
	Concurrency  int           `yaml:"concurrency"`
	UserAgent    string        `yaml:"userAgent"`
}

// IngestConfig bounds how many new articles a source may contribute per cycle.
type IngestConfig struct {
	PerSourceLimit int `yaml:"perSourceLimit"`
}

// EnrichConfig picks the provider and bounds its cost.
type EnrichConfig struct {
	Provider       string        `yaml:"provider"`
	MaxWords       int           `yaml:"maxWords"`
	Timeout        time.Duration `yaml:"timeout"`
	Concurrency    int           `yaml:"concurrency"`
	RatePerSecond  float64       `yaml:"ratePerSecond"`
	Burst          int           `yaml:"burst"`
	FallbackLength int           `yaml:"fallbackLength"`
}

// RankingConfig holds the default decay window for display requests.
type RankingConfig struct {
	MaxAgeDays int `yaml:"maxAgeDays"`
	DigestSize int `yaml:"digestSize"`
}

// HTTPConfig configures the read/admin surface.
type HTTPConfig struct {
	Addr          string `yaml:"addr"`
	AdminUsername string `yaml:"adminUsername"`
	AdminPassword string `yaml:"adminPassword"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both token and chat are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// AnthropicConfig configures the Messages API provider.
type AnthropicConfig struct {
	APIKey    string `yaml:"apiKey"`
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"maxTokens"`
}

// MLConfig describes the JSON inference service provider.
type MLConfig struct {
	InferenceURL string `yaml:"inferenceUrl"`
	APIKey       string `yaml:"apiKey"`
}

// ChatGPTConfig defines how to contact the ChatGPT API.
type ChatGPTConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"apiKey"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// SourceSeed is a source inserted by the seed command.
type SourceSeed struct {
	URL      string `yaml:"url"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	FeedType string `yaml:"feedType"`
}

// Load reads .env files, the YAML configuration (if present) and applies environment overrides.
func Load() Config {
	loadEnvFiles()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg, err := Parse(raw)
			if err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, err
	}
	return fileCfg, nil
}

func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("config: cannot load %s: %v", name, err)
		}
	}
}

func (c *Config) applyEnvOverrides() {
	overrides := map[string]*string{
		logLevelEnv:       &c.Logging.Level,
		databaseDriverEnv: &c.Database.Driver,
		databaseDSNEnv:    &c.Database.DSN,
		enrichProviderEnv: &c.Enrich.Provider,
		anthropicKeyEnv:   &c.Anthropic.APIKey,
		chatGPTAPIKeyEnv:  &c.ChatGPT.APIKey,
		chatGPTModelEnv:   &c.ChatGPT.Model,
		mlAPIKeyEnv:       &c.ML.APIKey,
		telegramTokenEnv:  &c.Notifications.Telegram.BotToken,
		telegramChatIDEnv: &c.Notifications.Telegram.ChatID,
		httpAddrEnv:       &c.HTTP.Addr,
		adminUserEnv:      &c.HTTP.AdminUsername,
		adminPasswordEnv:  &c.HTTP.AdminPassword,
	}

	for env, target := range overrides {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*target = v
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	mergeString(&base.Logging.Level, override.Logging.Level)

	mergeString(&base.Database.Driver, override.Database.Driver)
	mergeString(&base.Database.DSN, override.Database.DSN)

	mergeString(&base.Scheduler.CronExpression, override.Scheduler.CronExpression)
	mergeString(&base.Scheduler.Timezone, override.Scheduler.Timezone)
	if override.Scheduler.RunOnStart {
		base.Scheduler.RunOnStart = true
	}

	mergeDuration(&base.Fetch.Timeout, override.Fetch.Timeout)
	mergeInt(&base.Fetch.Attempts, override.Fetch.Attempts)
	mergeDuration(&base.Fetch.InitialDelay, override.Fetch.InitialDelay)
	mergeDuration(&base.Fetch.MaxDelay, override.Fetch.MaxDelay)
	if override.Fetch.Multiplier > 0 {
		base.Fetch.Multiplier = override.Fetch.Multiplier
	}
	mergeInt(&base.Fetch.Concurrency, override.Fetch.Concurrency)
	mergeString(&base.Fetch.UserAgent, override.Fetch.UserAgent)

	mergeInt(&base.Ingest.PerSourceLimit, override.Ingest.PerSourceLimit)

	mergeString(&base.Enrich.Provider, override.Enrich.Provider)
	mergeInt(&base.Enrich.MaxWords, override.Enrich.MaxWords)
	mergeDuration(&base.Enrich.Timeout, override.Enrich.Timeout)
	mergeInt(&base.Enrich.Concurrency, override.Enrich.Concurrency)
	if override.Enrich.RatePerSecond > 0 {
		base.Enrich.RatePerSecond = override.Enrich.RatePerSecond
	}
	mergeInt(&base.Enrich.Burst, override.Enrich.Burst)
	mergeInt(&base.Enrich.FallbackLength, override.Enrich.FallbackLength)

	mergeInt(&base.Ranking.MaxAgeDays, override.Ranking.MaxAgeDays)
	mergeInt(&base.Ranking.DigestSize, override.Ranking.DigestSize)

	mergeString(&base.HTTP.Addr, override.HTTP.Addr)
	mergeString(&base.HTTP.AdminUsername, override.HTTP.AdminUsername)
	mergeString(&base.HTTP.AdminPassword, override.HTTP.AdminPassword)

	mergeString(&base.Notifications.Telegram.BotToken, override.Notifications.Telegram.BotToken)
	mergeString(&base.Notifications.Telegram.ChatID, override.Notifications.Telegram.ChatID)

	mergeString(&base.Anthropic.APIKey, override.Anthropic.APIKey)
	mergeString(&base.Anthropic.Model, override.Anthropic.Model)
	if override.Anthropic.MaxTokens > 0 {
		base.Anthropic.MaxTokens = override.Anthropic.MaxTokens
	}

	mergeString(&base.ML.InferenceURL, override.ML.InferenceURL)
	mergeString(&base.ML.APIKey, override.ML.APIKey)

	mergeString(&base.ChatGPT.Endpoint, override.ChatGPT.Endpoint)
	mergeString(&base.ChatGPT.Model, override.ChatGPT.Model)
	mergeString(&base.ChatGPT.APIKey, override.ChatGPT.APIKey)
	mergeString(&base.ChatGPT.SystemPrompt, override.ChatGPT.SystemPrompt)

	if len(override.Seeds) > 0 {
		base.Seeds = override.Seeds
	}

	return base
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func mergeDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

// Default returns the built-in configuration without file or env input.
func Default() Config {
	cfg := defaultConfig()
	cfg.bindTimezone()
	return cfg
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Database:  DatabaseConfig{Driver: "sqlite", DSN: "news_ingestion.db"},
		Scheduler: SchedulerConfig{CronExpression: "*/30 * * * *", Timezone: defaultTimezone, RunOnStart: true, location: tz},
		Fetch: FetchConfig{
			Timeout:      10 * time.Second,
			Attempts:     3,
			InitialDelay: 2 * time.Second,
			MaxDelay:     10 * time.Second,
			Multiplier:   2,
			Concurrency:  8,
			UserAgent:    "NewsFeedRanker/1.0",
		},
		Ingest: IngestConfig{PerSourceLimit: 2},
		Enrich: EnrichConfig{
			Provider:       ProviderAnthropic,
			MaxWords:       5,
			Timeout:        20 * time.Second,
			Concurrency:    2,
			RatePerSecond:  2,
			Burst:          1,
			FallbackLength: 100,
		},
		Ranking: RankingConfig{MaxAgeDays: 7, DigestSize: 5},
		HTTP:    HTTPConfig{Addr: "127.0.0.1:5000", AdminUsername: "admin", AdminPassword: "password"},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
		Anthropic: AnthropicConfig{Model: "claude-3-haiku-20240307", MaxTokens: 250},
		ML:        MLConfig{InferenceURL: "", APIKey: ""},
		ChatGPT: ChatGPTConfig{
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			Model:        "gpt-4o-mini",
			APIKey:       "",
			SystemPrompt: "You classify and summarize news articles.",
		},
		Seeds: []SourceSeed{
			{URL: "https://www.prnewswire.co.uk/rss/news-releases-list.rss", Name: "PRNewswire", Category: "News", FeedType: "rss"},
			{URL: "https://feeds.bbci.co.uk/news/rss.xml", Name: "BBC", Category: "News", FeedType: "rss"},
			{URL: "https://www.theverge.com/rss/index.xml", Name: "The Verge", Category: "Technology", FeedType: "rss"},
		},
	}
}
