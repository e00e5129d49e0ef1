// Package config loads the YAML config file and applies environment
// overrides. Secrets (API keys) come exclusively from environment
// variables and never appear in the file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"voco/hotkey"
)

// EnvPrefix is the namespace prefix for all voco environment variables.
const EnvPrefix = "VOCO_"

type Config struct {
	DBPath string `yaml:"db_path"`

	// Device is the preferred microphone by name; empty means the system
	// default.
	Device string `yaml:"device"`

	// Hotkey chords, parseable by hotkey.Parse.
	DictationKey    string `yaml:"dictation_key"`
	ConversationKey string `yaml:"conversation_key"`
	MeetingKey      string `yaml:"meeting_key"`

	// Durations as strings so the file stays human-editable.
	WarmupTimeout  string `yaml:"warmup_timeout"`
	SpeechHold     string `yaml:"speech_hold"`
	DoneDwell      string `yaml:"done_dwell"`
	Language       string `yaml:"language"`
	DisableSounds  bool   `yaml:"disable_sounds"`
	DisableHistory bool   `yaml:"disable_history"`

	// Secrets — env vars only, never serialized to YAML.
	GroqAPIKey    string `yaml:"-"`
	OpenAIAPIKey  string `yaml:"-"`
	DiarizeAPIURL string `yaml:"-"`
	DiarizeAPIKey string `yaml:"-"`
}

func defaults() Config {
	return Config{
		DictationKey:    "ctrl+shift+space",
		ConversationKey: "ctrl+shift+c",
		MeetingKey:      "ctrl+shift+m",
		WarmupTimeout:   "20s",
		SpeechHold:      "1.5s",
		DoneDwell:       "2.5s",
	}
}

// Load reads configuration from a YAML file (if it exists), applies
// environment variable overrides, loads secrets, and validates the result.
// It returns the config, any validation warnings, and an error if the file
// exists but cannot be read or parsed.
func Load(path string) (Config, []string, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, nil, fmt.Errorf("read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	loadSecrets(&cfg)

	warnings := validate(&cfg)
	return cfg, warnings, nil
}

// DefaultPath is ~/.config/voco/config.yaml (or the XDG equivalent).
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = home + "/.config"
	}
	return base + "/voco/config.yaml"
}

func (c *Config) ParsedWarmupTimeout() time.Duration {
	return parseDurationOr(c.WarmupTimeout, 20*time.Second)
}

func (c *Config) ParsedSpeechHold() time.Duration {
	return parseDurationOr(c.SpeechHold, 1500*time.Millisecond)
}

func (c *Config) ParsedDoneDwell() time.Duration {
	return parseDurationOr(c.DoneDwell, 2500*time.Millisecond)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvPrefix + "DEVICE"); v != "" {
		cfg.Device = v
	}
	if v := os.Getenv(EnvPrefix + "DICTATION_KEY"); v != "" {
		cfg.DictationKey = v
	}
	if v := os.Getenv(EnvPrefix + "CONVERSATION_KEY"); v != "" {
		cfg.ConversationKey = v
	}
	if v := os.Getenv(EnvPrefix + "MEETING_KEY"); v != "" {
		cfg.MeetingKey = v
	}
	if v := os.Getenv(EnvPrefix + "WARMUP_TIMEOUT"); v != "" {
		cfg.WarmupTimeout = v
	}
	if v := os.Getenv(EnvPrefix + "SPEECH_HOLD"); v != "" {
		cfg.SpeechHold = v
	}
	if v := os.Getenv(EnvPrefix + "DONE_DWELL"); v != "" {
		cfg.DoneDwell = v
	}
	if v := os.Getenv(EnvPrefix + "LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv(EnvPrefix + "DISABLE_SOUNDS"); v == "1" || v == "true" {
		cfg.DisableSounds = true
	}
	if v := os.Getenv(EnvPrefix + "DISABLE_HISTORY"); v == "1" || v == "true" {
		cfg.DisableHistory = true
	}
}

func loadSecrets(cfg *Config) {
	cfg.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.DiarizeAPIURL = os.Getenv("DIARIZE_API_URL")
	cfg.DiarizeAPIKey = os.Getenv("DIARIZE_API_KEY")
}

func validate(cfg *Config) []string {
	var warnings []string

	if cfg.GroqAPIKey == "" && cfg.OpenAIAPIKey == "" {
		warnings = append(warnings, "No API key configured — transcription is disabled. Set GROQ_API_KEY or OPENAI_API_KEY.")
	}
	if cfg.OpenAIAPIKey == "" {
		warnings = append(warnings, "OpenAI API key not configured — spoken replies are disabled. Set OPENAI_API_KEY.")
	}
	if cfg.DiarizeAPIURL == "" || cfg.DiarizeAPIKey == "" {
		warnings = append(warnings, "Diarization not configured — meetings lose speaker attribution. Set DIARIZE_API_URL and DIARIZE_API_KEY.")
	}

	for name, chord := range map[string]string{
		"dictation_key":    cfg.DictationKey,
		"conversation_key": cfg.ConversationKey,
		"meeting_key":      cfg.MeetingKey,
	} {
		if _, err := hotkey.Parse(chord); err != nil {
			warnings = append(warnings, fmt.Sprintf("Invalid %s %q: %v", name, chord, err))
		}
	}

	for name, raw := range map[string]string{
		"warmup_timeout": cfg.WarmupTimeout,
		"speech_hold":    cfg.SpeechHold,
		"done_dwell":     cfg.DoneDwell,
	} {
		if _, err := time.ParseDuration(raw); err != nil {
			warnings = append(warnings, fmt.Sprintf("Invalid %s %q — using default.", name, raw))
		}
	}

	return warnings
}
