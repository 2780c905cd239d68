// Package config handles loading and managing application configuration
// from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// OAuth holds the Google OAuth client settings.
type OAuth struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	RedirectURL  string   `yaml:"redirect_url"`
	Scopes       []string `yaml:"scopes"`
}

// Splunk holds the HTTP Event Collector settings for audit events.
// Audit is disabled when HECURL is empty.
type Splunk struct {
	HECURL   string `yaml:"hec_url"`
	HECToken string `yaml:"hec_token"`
}

// Label holds the layout settings for rendered QR labels.
type Label struct {
	ModuleSize       int      `yaml:"module_size"`
	Border           int      `yaml:"border"`
	SidePadding      int      `yaml:"side_padding"`
	TopPadding       int      `yaml:"top_padding"`
	BottomPadding    int      `yaml:"bottom_padding"`
	LineGap          int      `yaml:"line_gap"`
	BlockGap         int      `yaml:"block_gap"`
	MinCaptionHeight int      `yaml:"min_caption_height"`
	FontSize         float64  `yaml:"font_size"`
	FontPaths        []string `yaml:"font_paths"`
}

// Config holds all application configuration values.
type Config struct {
	Port              int      `yaml:"port"`
	DataDir           string   `yaml:"data_dir"`
	QRCodesDir        string   `yaml:"qrcodes_dir"`
	DatabaseFile      string   `yaml:"database_file"`
	LogLevel          string   `yaml:"log_level"`
	FrontendOrigin    string   `yaml:"frontend_origin"`
	PublicBaseURL     string   `yaml:"public_base_url"`
	TemplatesFolderID string   `yaml:"templates_folder_id"`
	SessionTTL        Duration `yaml:"session_ttl"`
	OAuth             OAuth    `yaml:"oauth"`
	Splunk            Splunk   `yaml:"splunk"`
	Label             Label    `yaml:"label"`
}

// Duration is a wrapper around time.Duration that supports YAML unmarshalling
// from human-readable strings like "30s", "5m", "1h".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	dataDir := filepath.Join(homeDir, ".siteqr")
	return &Config{
		Port:           5000,
		DataDir:        dataDir,
		QRCodesDir:     filepath.Join(dataDir, "qrcodes"),
		DatabaseFile:   filepath.Join(dataDir, "siteqr.db"),
		LogLevel:       "info",
		FrontendOrigin: "http://localhost:3000",
		PublicBaseURL:  "http://localhost:5000",
		SessionTTL:     Duration{168 * time.Hour},
		OAuth: OAuth{
			RedirectURL: "http://localhost:5000/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/drive",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
		},
		Label: Label{
			ModuleSize:       10,
			Border:           4,
			SidePadding:      10,
			TopPadding:       10,
			BottomPadding:    10,
			LineGap:          6,
			BlockGap:         12,
			MinCaptionHeight: 60,
			FontSize:         16,
		},
	}
}

// Load reads configuration from the YAML file at path, falling back to
// defaults if the file does not exist. Environment variables with the
// SQ_ prefix override any file or default values.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// File doesn't exist — proceed with defaults.
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies SQ_* environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SQ_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("SQ_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("SQ_QRCODES_DIR"); v != "" {
		cfg.QRCodesDir = v
	}
	if v := os.Getenv("SQ_DATABASE_FILE"); v != "" {
		cfg.DatabaseFile = v
	}
	if v := os.Getenv("SQ_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SQ_FRONTEND_ORIGIN"); v != "" {
		cfg.FrontendOrigin = v
	}
	if v := os.Getenv("SQ_PUBLIC_BASE_URL"); v != "" {
		cfg.PublicBaseURL = v
	}
	if v := os.Getenv("SQ_TEMPLATES_FOLDER_ID"); v != "" {
		cfg.TemplatesFolderID = v
	}
	if v := os.Getenv("SQ_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SessionTTL = Duration{d}
		}
	}
	if v := os.Getenv("SQ_OAUTH_CLIENT_ID"); v != "" {
		cfg.OAuth.ClientID = v
	}
	if v := os.Getenv("SQ_OAUTH_CLIENT_SECRET"); v != "" {
		cfg.OAuth.ClientSecret = v
	}
	if v := os.Getenv("SQ_OAUTH_REDIRECT_URL"); v != "" {
		cfg.OAuth.RedirectURL = v
	}
	if v := os.Getenv("SQ_SPLUNK_HEC_URL"); v != "" {
		cfg.Splunk.HECURL = v
	}
	if v := os.Getenv("SQ_SPLUNK_HEC_TOKEN"); v != "" {
		cfg.Splunk.HECToken = v
	}
}

// EnsureDirs creates the data and qrcodes directories if they do not
// already exist.
func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir %s: %w", c.DataDir, err)
	}
	if err := os.MkdirAll(c.QRCodesDir, 0o755); err != nil {
		return fmt.Errorf("creating qrcodes dir %s: %w", c.QRCodesDir, err)
	}
	return nil
}
