package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// secretsFile mirrors the layout of the shared secrets.toml used by the
// dashboard deployment.
type secretsFile struct {
	Supabase struct {
		DatabaseURL string `toml:"DATABASE_URL"`
	} `toml:"supabase"`
	Google struct {
		GeminiAPIKey   string `toml:"GEMINI_API_KEY"`
		SearchAPIKey   string `toml:"GOOGLE_SEARCH_API_KEY"`
		SearchEngineID string `toml:"SEARCH_ENGINE_ID"`
	} `toml:"google"`
	Anthropic struct {
		APIKey string `toml:"ANTHROPIC_API_KEY"`
	} `toml:"anthropic"`
	Gmail struct {
		User        string `toml:"GMAIL_USER"`
		AppPassword string `toml:"GMAIL_APP_PWD"`
	} `toml:"GMAIL"`
	Admin struct {
		Email string `toml:"ADMIN_EMAIL"`
	} `toml:"admin"`
	Exim struct {
		Key string `toml:"EXIM_KEY"`
	} `toml:"exim"`
}

// applySecrets fills credentials left empty by the YAML file, first from the
// TOML secrets file and then from the environment.
func applySecrets(cfg *Config) error {
	var s secretsFile
	if cfg.SecretsPath != "" {
		data, err := os.ReadFile(cfg.SecretsPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return fmt.Errorf("config: failed to read secrets %s: %w", cfg.SecretsPath, err)
		default:
			if err := toml.Unmarshal(data, &s); err != nil {
				return fmt.Errorf("config: failed to parse secrets %s: %w", cfg.SecretsPath, err)
			}
		}
	}

	fill(&cfg.Store.DSN, s.Supabase.DatabaseURL, "DATABASE_URL")
	fill(&cfg.Search.APIKey, s.Google.SearchAPIKey, "GOOGLE_SEARCH_API_KEY")
	fill(&cfg.Search.EngineID, s.Google.SearchEngineID, "SEARCH_ENGINE_ID")
	fill(&cfg.Notifier.Email.Username, s.Gmail.User, "GMAIL_USER")
	fill(&cfg.Notifier.Email.Password, s.Gmail.AppPassword, "GMAIL_APP_PWD")
	fill(&cfg.Notifier.AdminEmail, s.Admin.Email, "ADMIN_EMAIL")
	fill(&cfg.Rates.APIKey, s.Exim.Key, "EXIM_KEY")

	switch cfg.Summarizer.Provider {
	case "anthropic":
		fill(&cfg.Summarizer.APIKey, s.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	case "", "gemini":
		fill(&cfg.Summarizer.APIKey, s.Google.GeminiAPIKey, "GEMINI_API_KEY")
	}

	return nil
}

func fill(dst *string, secret, envKey string) {
	if *dst != "" {
		return
	}
	if secret != "" {
		*dst = secret
		return
	}
	*dst = os.Getenv(envKey)
}
