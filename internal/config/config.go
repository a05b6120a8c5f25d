package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "LICITRADAR_CONFIG"
	databasePathEnv  = "DATABASE_PATH"
	apiTicketEnv     = "MP_TICKET"
	geminiAPIKeyEnv  = "GEMINI_API_KEY"
	geminiModelEnv   = "GEMINI_MODEL"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Discovery     DiscoveryConfig    `yaml:"discovery"`
	Browser       BrowserConfig      `yaml:"browser"`
	Gemini        GeminiConfig       `yaml:"gemini"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	Web           WebConfig          `yaml:"web"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// DatabaseConfig describes the SQLite storage location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DiscoveryConfig wires the Mercado Publico listing API.
type DiscoveryConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Ticket  string `yaml:"ticket"`
}

// BrowserConfig controls the detail-extraction browser session.
type BrowserConfig struct {
	PortalURL      string `yaml:"portalUrl"`
	Headless       *bool  `yaml:"headless"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// IsHeadless reports the headless setting, defaulting to true.
func (b BrowserConfig) IsHeadless() bool {
	if b.Headless == nil {
		return true
	}
	return *b.Headless
}

// Timeout returns the navigation/wait budget for one extraction.
func (b BrowserConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 25 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// GeminiConfig defines how to contact the inference model.
type GeminiConfig struct {
	APIKey         string `yaml:"apiKey"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Timeout bounds a single inference call.
func (g GeminiConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 90 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// PipelineConfig owns the quota and pacing policy of one run.
type PipelineConfig struct {
	Quota            int `yaml:"quota"`
	ItemDelaySeconds int `yaml:"itemDelaySeconds"`
}

// ItemDelay is the blocking pause between processed tenders.
func (p PipelineConfig) ItemDelay() time.Duration {
	if p.ItemDelaySeconds < 0 {
		return 0
	}
	return time.Duration(p.ItemDelaySeconds) * time.Second
}

// SchedulerConfig defines when the recurring cycle should run.
type SchedulerConfig struct {
	IntervalHours int            `yaml:"intervalHours"`
	Timezone      string         `yaml:"timezone"`
	location      *time.Location `yaml:"-"`
}

// Interval resolves the recurrence period, defaulting to daily.
func (s SchedulerConfig) Interval() time.Duration {
	if s.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.IntervalHours) * time.Hour
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	return time.UTC
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send digest messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// WebConfig describes the dashboard listener.
type WebConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig controls console verbosity.
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
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(apiTicketEnv); v != "" {
		c.Discovery.Ticket = v
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		c.Scheduler.location = time.UTC
		return
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to UTC", tz)
		loc = time.UTC
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Discovery.BaseURL != "" {
		base.Discovery.BaseURL = override.Discovery.BaseURL
	}
	if override.Discovery.Ticket != "" {
		base.Discovery.Ticket = override.Discovery.Ticket
	}

	if override.Browser.PortalURL != "" {
		base.Browser.PortalURL = override.Browser.PortalURL
	}
	if override.Browser.TimeoutSeconds > 0 {
		base.Browser.TimeoutSeconds = override.Browser.TimeoutSeconds
	}
	if override.Browser.Headless != nil {
		base.Browser.Headless = override.Browser.Headless
	}

	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.TimeoutSeconds > 0 {
		base.Gemini.TimeoutSeconds = override.Gemini.TimeoutSeconds
	}

	if override.Pipeline.Quota > 0 {
		base.Pipeline.Quota = override.Pipeline.Quota
	}
	if override.Pipeline.ItemDelaySeconds > 0 {
		base.Pipeline.ItemDelaySeconds = override.Pipeline.ItemDelaySeconds
	}

	if override.Scheduler.IntervalHours > 0 {
		base.Scheduler.IntervalHours = override.Scheduler.IntervalHours
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Web.Addr != "" {
		base.Web.Addr = override.Web.Addr
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: "data/licitradar.db"},
		Discovery: DiscoveryConfig{
			BaseURL: "https://api.mercadopublico.cl/servicios/v1/publico/licitaciones.json",
		},
		Browser: BrowserConfig{
			PortalURL:      "https://www.mercadopublico.cl",
			TimeoutSeconds: 25,
		},
		Gemini: GeminiConfig{
			Model:          "gemini-3-flash-preview",
			TimeoutSeconds: 90,
		},
		Pipeline: PipelineConfig{
			Quota:            5,
			ItemDelaySeconds: 5,
		},
		Scheduler: SchedulerConfig{
			IntervalHours: 24,
			Timezone:      "America/Santiago",
		},
		Web:     WebConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info"},
	}
}
