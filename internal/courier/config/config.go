// Package config provides configuration handling for the courier service.
// Configuration is loaded from a TOML file, validated, and backfilled with
// defaults for optional values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// BrainConfig holds brain service related configuration.
type BrainConfig struct {
	URL          string `toml:"url"`           // brain service base URL
	TextTimeout  string `toml:"text_timeout"`  // hard timeout for text requests
	MediaTimeout string `toml:"media_timeout"` // hard timeout for media requests
}

// GetTextTimeout returns the text request timeout as time.Duration.
// Panics if the configured value is invalid; ValidateConfig checks it first.
func (b *BrainConfig) GetTextTimeout() time.Duration {
	return mustParseDuration(b.TextTimeout)
}

// GetMediaTimeout returns the media request timeout as time.Duration.
func (b *BrainConfig) GetMediaTimeout() time.Duration {
	return mustParseDuration(b.MediaTimeout)
}

// MediaConfig holds inbound media handling configuration.
type MediaConfig struct {
	ImageMaxBytes    int64  `toml:"image_max_bytes"`    // encoded image payload ceiling
	DocumentMaxBytes int64  `toml:"document_max_bytes"` // encoded document payload ceiling
	DefaultDocMime   string `toml:"default_doc_mime"`   // fallback MIME for documents
	DownloadTimeout  string `toml:"download_timeout"`   // per-download timeout
}

// GetDownloadTimeout returns the media download timeout as time.Duration.
func (m *MediaConfig) GetDownloadTimeout() time.Duration {
	return mustParseDuration(m.DownloadTimeout)
}

// EngineConfig holds the protocol engine launch configuration. The engine is
// an external executable started once per tenant session.
type EngineConfig struct {
	Command string   `toml:"command"` // engine executable
	Args    []string `toml:"args"`    // extra arguments passed before the credential dir
}

// ReconnectConfig holds reconnect budget configuration for tenant sessions.
type ReconnectConfig struct {
	MaxAttempts int    `toml:"max_attempts"` // reconnect budget per episode
	BackoffUnit string `toml:"backoff_unit"` // per-attempt backoff unit
	BackoffCap  string `toml:"backoff_cap"`  // backoff ceiling
}

// GetBackoffUnit returns the backoff unit as time.Duration.
func (r *ReconnectConfig) GetBackoffUnit() time.Duration {
	return mustParseDuration(r.BackoffUnit)
}

// GetBackoffCap returns the backoff cap as time.Duration.
func (r *ReconnectConfig) GetBackoffCap() time.Duration {
	return mustParseDuration(r.BackoffCap)
}

// TypingConfig holds typing-simulation delay bands for outbound replies.
type TypingConfig struct {
	ShortReplyChars int    `toml:"short_reply_chars"` // replies at or under this length use the short band
	ShortMin        string `toml:"short_min"`         // short band lower bound
	ShortMax        string `toml:"short_max"`         // short band upper bound
	LongMin         string `toml:"long_min"`          // long band lower bound
	LongMax         string `toml:"long_max"`          // long band upper bound
}

// Band returns the delay band for a reply of the given length.
func (t *TypingConfig) Band(replyLen int) (min, max time.Duration) {
	if replyLen <= t.ShortReplyChars {
		return mustParseDuration(t.ShortMin), mustParseDuration(t.ShortMax)
	}
	return mustParseDuration(t.LongMin), mustParseDuration(t.LongMax)
}

// ConfigParam holds all configuration parameters for the courier service.
type ConfigParam struct {
	// Configuration version
	FormatVersion string `toml:"format_version"` // Version of this configuration file format

	// Server configuration
	ServerHostName string `toml:"server_hostname"` // Hostname for the server
	ServerPort     string `toml:"server_port"`     // Port for the server
	HandleCORS     bool   `toml:"handle_cors"`     // Whether to handle CORS
	APIToken       string `toml:"api_token"`       // Shared-secret bearer token; empty disables auth
	WorkingDir     string `toml:"working_dir"`     // Working directory for the server

	// Brain service configuration
	Brain BrainConfig `toml:"brain"`

	// Protocol engine configuration
	Engine EngineConfig `toml:"engine"`

	// Inbound media configuration
	Media MediaConfig `toml:"media"`

	// Reconnect budget configuration
	Reconnect ReconnectConfig `toml:"reconnect"`

	// Typing simulation configuration
	Typing TypingConfig `toml:"typing"`
}

var cfg *ConfigParam

// Config returns the current configuration.
func Config() *ConfigParam {
	return cfg
}

// GetURL returns the base URL of the courier admin API.
func GetURL() string {
	return "http://" + Config().ServerHostName + ":" + Config().ServerPort
}

// GetCredentialRoot returns the root directory of the per-tenant credential store.
func GetCredentialRoot() string {
	return filepath.Join(Config().WorkingDir, "credentials")
}

func mustParseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(fmt.Sprintf("invalid duration in config: %q: %v", s, err))
	}
	return d
}

func checkDuration(field, s string) error {
	if s == "" {
		return fmt.Errorf("%s is required", field)
	}
	if _, err := time.ParseDuration(s); err != nil {
		return fmt.Errorf("invalid %s: %v", field, err)
	}
	return nil
}

// ValidateConfig checks if all required configuration values are present and valid,
// and backfills defaults for optional values.
func ValidateConfig(cfg *ConfigParam) error {
	// Check if the config file format version is supported
	if cfg.FormatVersion != ConfigFormatVersion {
		return fmt.Errorf("unsupported config file format version: %s", cfg.FormatVersion)
	}

	// Server validation
	if cfg.ServerPort == "" {
		return fmt.Errorf("server_port is required")
	}
	if cfg.ServerHostName == "" {
		cfg.ServerHostName = "127.0.0.1"
	}

	// Brain validation
	if cfg.Brain.URL == "" {
		return fmt.Errorf("brain.url is required")
	}
	if cfg.Brain.TextTimeout == "" {
		cfg.Brain.TextTimeout = "30s"
	}
	if cfg.Brain.MediaTimeout == "" {
		cfg.Brain.MediaTimeout = "60s"
	}
	for field, v := range map[string]string{
		"brain.text_timeout":  cfg.Brain.TextTimeout,
		"brain.media_timeout": cfg.Brain.MediaTimeout,
	} {
		if err := checkDuration(field, v); err != nil {
			return err
		}
	}

	// Engine defaults
	if cfg.Engine.Command == "" {
		cfg.Engine.Command = "bizline-engine"
	}

	// Media defaults
	if cfg.Media.ImageMaxBytes == 0 {
		cfg.Media.ImageMaxBytes = 4 << 20
	}
	if cfg.Media.DocumentMaxBytes == 0 {
		cfg.Media.DocumentMaxBytes = 10 << 20
	}
	if cfg.Media.DefaultDocMime == "" {
		cfg.Media.DefaultDocMime = "application/octet-stream"
	}
	if cfg.Media.DownloadTimeout == "" {
		cfg.Media.DownloadTimeout = "30s"
	}
	if err := checkDuration("media.download_timeout", cfg.Media.DownloadTimeout); err != nil {
		return err
	}

	// Reconnect defaults
	if cfg.Reconnect.MaxAttempts == 0 {
		cfg.Reconnect.MaxAttempts = 5
	}
	if cfg.Reconnect.BackoffUnit == "" {
		cfg.Reconnect.BackoffUnit = "5s"
	}
	if cfg.Reconnect.BackoffCap == "" {
		cfg.Reconnect.BackoffCap = "60s"
	}
	for field, v := range map[string]string{
		"reconnect.backoff_unit": cfg.Reconnect.BackoffUnit,
		"reconnect.backoff_cap":  cfg.Reconnect.BackoffCap,
	} {
		if err := checkDuration(field, v); err != nil {
			return err
		}
	}

	// Typing defaults
	if cfg.Typing.ShortReplyChars == 0 {
		cfg.Typing.ShortReplyChars = 120
	}
	if cfg.Typing.ShortMin == "" {
		cfg.Typing.ShortMin = "3s"
	}
	if cfg.Typing.ShortMax == "" {
		cfg.Typing.ShortMax = "7s"
	}
	if cfg.Typing.LongMin == "" {
		cfg.Typing.LongMin = "12s"
	}
	if cfg.Typing.LongMax == "" {
		cfg.Typing.LongMax = "18s"
	}
	for field, v := range map[string]string{
		"typing.short_min": cfg.Typing.ShortMin,
		"typing.short_max": cfg.Typing.ShortMax,
		"typing.long_min":  cfg.Typing.LongMin,
		"typing.long_max":  cfg.Typing.LongMax,
	} {
		if err := checkDuration(field, v); err != nil {
			return err
		}
	}

	if cfg.WorkingDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error getting user home directory: %v", err)
		}
		cfg.WorkingDir = filepath.Join(homeDir, ".courier")
	}
	if err := os.MkdirAll(filepath.Join(cfg.WorkingDir, "credentials"), 0700); err != nil {
		return fmt.Errorf("error creating credential directory: %v", err)
	}

	return nil
}

// LoadConfig loads configuration from a file.
func LoadConfig(filename string) error {
	if filename == "" {
		return fmt.Errorf("config filename is required")
	}

	// Read and parse the config file
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	c := &ConfigParam{}
	if _, err := toml.Decode(string(content), c); err != nil {
		return fmt.Errorf("error parsing config file: %v", err)
	}

	// Validate the configuration
	if err := ValidateConfig(c); err != nil {
		return fmt.Errorf("invalid configuration: %v", err)
	}

	cfg = c
	return nil
}

// ConfigFormatVersion is the current version of the configuration file format.
const ConfigFormatVersion = "0.1.0"
