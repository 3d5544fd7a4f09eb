package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bizline/bizline/pkg/api"
)

// DefaultConfigFile is the default name of the config file
const DefaultConfigFile = "config.yaml"

// Environment variables that override the config file. A .env file in the
// working directory is loaded first if present.
const (
	envServerURL = "BIZLINE_SERVER_URL"
	envAPIToken  = "BIZLINE_API_TOKEN"
)

// Config represents the configuration for the Bizline CLI.
// It contains courier server connection details and authentication.
type Config struct {
	// Version of the configuration file format
	Version string `yaml:"version"`
	// ServerURL is the URL and port of the courier server
	ServerURL string `yaml:"server_url"`
	// APIToken is the shared-secret bearer token for the courier server
	APIToken string `yaml:"api_token"`
}

var config *Config

// GetDefaultConfigPath returns the default path for the config file
// It uses the OS-specific config directory (e.g., ~/.config/bizline on Linux)
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "bizline", DefaultConfigFile), nil
}

// LoadConfig loads the configuration from the specified file, then applies
// environment overrides from the process environment and a local .env file.
func LoadConfig(file string) error {
	if file == "" {
		var err error
		file, err = GetDefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get default config path: %w", err)
		}
	}

	c := Config{}
	yamlStr, err := os.ReadFile(file)
	if err == nil {
		if err := yaml.Unmarshal(yamlStr, &c); err != nil {
			return fmt.Errorf("unable to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("unable to read config file: %w", err)
	}

	// .env is optional; absence is not an error
	_ = godotenv.Load()

	if v := os.Getenv(envServerURL); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv(envAPIToken); v != "" {
		c.APIToken = v
	}

	if c.ServerURL == "" {
		if os.IsNotExist(err) {
			return err
		}
		return errors.New("server_url is required")
	}

	c.ServerURL = morphServer(c.ServerURL)
	config = &c
	return nil
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	return config
}

// WriteConfig writes the current configuration to the specified file
func (cfg *Config) WriteConfig(file string) error {
	if file == "" {
		return errors.New("file path cannot be empty")
	}

	err := os.MkdirAll(filepath.Dir(file), os.ModePerm)
	if err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}

	yamlStr, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("unable to generate configuration: %w", err)
	}

	err = os.WriteFile(file, yamlStr, os.FileMode(0600))
	if err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}

	return nil
}

// morphServer normalizes the server URL, defaulting the scheme to http.
func morphServer(server string) string {
	if strings.HasPrefix(server, "http://") || strings.HasPrefix(server, "https://") {
		return server
	}
	return "http://" + server
}

// newClient creates an admin API client from the loaded configuration.
func newClient() (*api.Client, error) {
	cfg := GetConfig()
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return api.NewClient(cfg.ServerURL, cfg.APIToken)
}

// newConfigCmd creates the config command with its subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage bizline CLI configuration",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	cmd.AddCommand(newConfigCreateCmd())
	return cmd
}

func newConfigCreateCmd() *cobra.Command {
	var serverURL string
	var apiToken string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the bizline CLI configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverURL == "" {
				return errors.New("--server is required")
			}

			path := configFile
			if path == "" {
				var err error
				path, err = GetDefaultConfigPath()
				if err != nil {
					return err
				}
			}

			cfg := &Config{
				Version:   "0.1.0",
				ServerURL: morphServer(serverURL),
				APIToken:  apiToken,
			}
			if err := cfg.WriteConfig(path); err != nil {
				return err
			}

			okLabel.Printf("Config written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Courier server URL (host:port)")
	cmd.Flags().StringVar(&apiToken, "token", "", "API bearer token")
	return cmd
}
