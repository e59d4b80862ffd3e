package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Schedule    string `yaml:"schedule"`
	RunOnStart  bool   `yaml:"run_on_start"`
	Timezone    string `yaml:"timezone"`
	SecretsPath string `yaml:"secrets_path"`

	Logging    LoggingConfig    `yaml:"logging"`
	Search     SearchConfig     `yaml:"search"`
	Extractor  ExtractorConfig  `yaml:"extractor"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Runner     RunnerConfig     `yaml:"runner"`
	Store      StoreConfig      `yaml:"store"`
	Notifier   NotifierConfig   `yaml:"notifier"`
	Web        WebConfig        `yaml:"web"`
	Rates      RatesConfig      `yaml:"rates"`

	location *time.Location
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type SearchConfig struct {
	Keyword      string   `yaml:"keyword"`
	Sites        []string `yaml:"sites"`
	APIKey       string   `yaml:"api_key"`
	EngineID     string   `yaml:"engine_id"`
	Endpoint     string   `yaml:"endpoint" validate:"omitempty,url"`
	MaxResults   int      `yaml:"max_results" validate:"gte=1,lte=10"`
	DateRestrict string   `yaml:"date_restrict"`
}

type ExtractorConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	MinTextLength int           `yaml:"min_text_length"`
	MaxPages      int           `yaml:"max_pages"`
	UserAgent     string        `yaml:"user_agent"`
}

type SummarizerConfig struct {
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url" validate:"omitempty,url"`
	MaxTokens         int           `yaml:"max_tokens"`
	Temperature       float32       `yaml:"temperature"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxRetries        int           `yaml:"max_retries" validate:"gte=0"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	RequestsPerMinute int           `yaml:"requests_per_minute" validate:"gte=0"`
}

type RunnerConfig struct {
	DocumentConcurrency int `yaml:"document_concurrency" validate:"gte=1"`
}

type StoreConfig struct {
	Type string `yaml:"type"`
	DSN  string `yaml:"dsn"`
	Path string `yaml:"path"`
}

type NotifierConfig struct {
	Type       string        `yaml:"type"`
	AdminEmail string        `yaml:"admin_email" validate:"omitempty,email"`
	Email      EmailConfig   `yaml:"email"`
	Discord    DiscordConfig `yaml:"discord"`
}

type EmailConfig struct {
	SMTPHost   string `yaml:"smtp_host"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	From       string `yaml:"from" validate:"omitempty,email"`
	SenderName string `yaml:"sender_name"`
}

type DiscordConfig struct {
	WebhookURL string `yaml:"webhook_url" validate:"omitempty,url"`
}

type WebConfig struct {
	Addr string `yaml:"addr"`
}

type RatesConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint" validate:"omitempty,url"`
	Currency string `yaml:"currency"`
}

// Location returns the timezone used to stamp run dates.
func (c *Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	return time.UTC
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func setDefaults(cfg *Config) {
	if cfg.Schedule == "" {
		cfg.Schedule = "0 7 * * *"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Seoul"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Search.Keyword == "" {
		cfg.Search.Keyword = "Infrastructure Outlook"
	}
	if len(cfg.Search.Sites) == 0 {
		cfg.Search.Sites = DefaultSites()
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 10
	}
	if cfg.Search.DateRestrict == "" {
		cfg.Search.DateRestrict = "w1"
	}
	if cfg.Search.Endpoint == "" {
		cfg.Search.Endpoint = "https://www.googleapis.com/customsearch/v1"
	}
	if cfg.Extractor.Timeout == 0 {
		cfg.Extractor.Timeout = 15 * time.Second
	}
	if cfg.Extractor.MinTextLength == 0 {
		cfg.Extractor.MinTextLength = 500
	}
	if cfg.Extractor.MaxPages == 0 {
		cfg.Extractor.MaxPages = 10
	}
	if cfg.Extractor.UserAgent == "" {
		cfg.Extractor.UserAgent = "Mozilla/5.0"
	}
	if cfg.Summarizer.Provider == "" {
		cfg.Summarizer.Provider = "gemini"
	}
	if cfg.Summarizer.Model == "" {
		switch cfg.Summarizer.Provider {
		case "anthropic":
			cfg.Summarizer.Model = "claude-sonnet-4-20250514"
		case "ollama":
			cfg.Summarizer.Model = "mistral"
		default:
			cfg.Summarizer.Model = "gemini-2.5-flash"
		}
	}
	if cfg.Summarizer.MaxTokens == 0 {
		cfg.Summarizer.MaxTokens = 8192
	}
	if cfg.Summarizer.Timeout == 0 {
		cfg.Summarizer.Timeout = 120 * time.Second
	}
	if cfg.Summarizer.MaxRetries == 0 {
		cfg.Summarizer.MaxRetries = 1
	}
	if cfg.Summarizer.BaseDelay == 0 {
		cfg.Summarizer.BaseDelay = 30 * time.Second
	}
	if cfg.Summarizer.MaxDelay == 0 {
		cfg.Summarizer.MaxDelay = 90 * time.Second
	}
	if cfg.Summarizer.RequestsPerMinute == 0 {
		cfg.Summarizer.RequestsPerMinute = 10
	}
	if cfg.Runner.DocumentConcurrency == 0 {
		cfg.Runner.DocumentConcurrency = 1
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "postgres"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "data/daily-brief"
	}
	if cfg.Notifier.Type == "" {
		cfg.Notifier.Type = "email"
	}
	if cfg.Notifier.Email.SMTPHost == "" {
		cfg.Notifier.Email.SMTPHost = "smtp.gmail.com"
	}
	if cfg.Notifier.Email.SMTPPort == 0 {
		cfg.Notifier.Email.SMTPPort = 587
	}
	if cfg.Notifier.Email.From == "" {
		cfg.Notifier.Email.From = cfg.Notifier.Email.Username
	}
	if cfg.Notifier.Email.SenderName == "" {
		cfg.Notifier.Email.SenderName = "RevolTac"
	}
	if cfg.Web.Addr == "" {
		cfg.Web.Addr = ":8080"
	}
	if cfg.Rates.Schedule == "" {
		cfg.Rates.Schedule = "0 12 * * *"
	}
	if cfg.Rates.Endpoint == "" {
		cfg.Rates.Endpoint = "https://oapi.koreaexim.go.kr/site/program/financial/exchangeJSON"
	}
	if cfg.Rates.Currency == "" {
		cfg.Rates.Currency = "USD"
	}
}

// DefaultSites lists the institutions whose reports are searched when no
// sites are configured.
func DefaultSites() []string {
	return []string{
		"blackrock.com", "macquarie.com", "kkr.com", "brookfield.com",
		"goldmansachs.com", "jpmorgan.com", "morganstanley.com", "ubs.com",
		"mckinsey.com", "pwc.com", "bain.com", "deloitte.com",
		"worldbank.org", "adb.org", "imf.org",
	}
}

var validate = validator.New()

func check(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("config: invalid %s (%s)", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("config: %w", err)
	}

	switch cfg.Summarizer.Provider {
	case "gemini", "anthropic":
		if cfg.Summarizer.APIKey == "" {
			return fmt.Errorf("config: summarizer.api_key is required for provider %q", cfg.Summarizer.Provider)
		}
	case "ollama":
	default:
		return fmt.Errorf("config: unsupported summarizer provider %q (supported: gemini, anthropic, ollama)", cfg.Summarizer.Provider)
	}

	switch cfg.Store.Type {
	case "postgres":
		if cfg.Store.DSN == "" {
			return fmt.Errorf("config: store.dsn is required for postgres store")
		}
	case "badger":
	default:
		return fmt.Errorf("config: unsupported store type %q (supported: postgres, badger)", cfg.Store.Type)
	}

	switch cfg.Notifier.Type {
	case "stdout":
	case "email":
		if cfg.Notifier.Email.Username == "" || cfg.Notifier.Email.Password == "" {
			return fmt.Errorf("config: notifier.email.username and password are required for email notifier")
		}
	default:
		return fmt.Errorf("config: unsupported notifier type %q (supported: email, stdout)", cfg.Notifier.Type)
	}
	if cfg.Notifier.AdminEmail == "" && cfg.Notifier.Discord.WebhookURL == "" {
		return fmt.Errorf("config: notifier.admin_email or notifier.discord.webhook_url is required for admin alerts")
	}

	if cfg.Rates.Enabled && cfg.Rates.APIKey == "" {
		return fmt.Errorf("config: rates.api_key is required when rates are enabled (set EXIM_KEY env var)")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("config: invalid timezone %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	return nil
}

// Load reads the config file, expands environment variables, overlays the
// secrets file, applies defaults, and validates the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	if err := applySecrets(&cfg); err != nil {
		return nil, err
	}

	setDefaults(&cfg)

	if err := check(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
