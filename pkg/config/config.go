package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

// DefaultAPIURL is the hosted skills API used when nothing else is
// configured.
const DefaultAPIURL = "https://api.qaskills.dev"

// Environment variables recognized on top of the config file. Environment
// values win over file values so tests and CI can point the CLI elsewhere
// without touching the user's config.
const (
	EnvAPIURL          = "QAS_API_URL"
	EnvTypesenseHost   = "QAS_TYPESENSE_HOST"
	EnvTypesenseAPIKey = "QAS_TYPESENSE_API_KEY"
	EnvPublishToken    = "QAS_PUBLISH_TOKEN"
	EnvGitHubToken     = "QAS_GITHUB_TOKEN"
)

type Config struct {
	// DBPath is the SQLite database holding the skills directory.
	DBPath string `toml:"db_path"`

	// APIURL is the base URL of the skills API the CLI talks to.
	APIURL string `toml:"api_url"`

	// Listen is the host:port the serve command binds to.
	Listen string `toml:"listen"`

	// PublishToken authorizes skill publishing, both as the bearer token the
	// CLI sends and as the token the serve command accepts.
	PublishToken string `toml:"publish_token"`

	Typesense TypesenseConfig `toml:"typesense"`
	GitHub    GitHubConfig    `toml:"github"`
}

// TypesenseConfig holds the hosted search engine connection. When Host or
// APIKey is empty the search service degrades gracefully instead of failing.
type TypesenseConfig struct {
	Host       string `toml:"host"`
	APIKey     string `toml:"api_key"`
	Collection string `toml:"collection"`
}

// GitHubConfig configures the skill sync importer.
type GitHubConfig struct {
	// Token is an optional OAuth token; unauthenticated requests work but
	// are heavily rate limited.
	Token string `toml:"token"`

	// Topic is the repository topic marking skill repositories.
	Topic string `toml:"topic"`
}

func GetDefaultConfig() (*Config, error) {
	dbPath, err := GetDefaultDBPath()
	if err != nil {
		return nil, fmt.Errorf("getting default database path: %w", err)
	}
	cfg := &Config{
		DBPath: dbPath,
		APIURL: DefaultAPIURL,
		Listen: "localhost:8080",
		Typesense: TypesenseConfig{
			Collection: "skills",
		},
		GitHub: GitHubConfig{
			Topic: "qa-skill",
		},
	}
	cfg.applyEnv()
	return cfg, nil
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.DBPath == "" {
		dbPath, err := GetDefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("getting default database path: %w", err)
		}
		config.DBPath = dbPath
	}

	if config.APIURL == "" {
		config.APIURL = DefaultAPIURL
	}

	if config.Listen == "" {
		config.Listen = "localhost:8080"
	}

	if config.Typesense.Collection == "" {
		config.Typesense.Collection = "skills"
	}

	if config.GitHub.Topic == "" {
		config.GitHub.Topic = "qa-skill"
	}

	config.applyEnv()

	return &config, nil
}

// applyEnv overlays recognized environment variables onto the config.
// Trailing slashes on the API URL are trimmed so request paths concatenate
// cleanly.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvTypesenseHost); v != "" {
		c.Typesense.Host = v
	}
	if v := os.Getenv(EnvTypesenseAPIKey); v != "" {
		c.Typesense.APIKey = v
	}
	if v := os.Getenv(EnvPublishToken); v != "" {
		c.PublishToken = v
	}
	if v := os.Getenv(EnvGitHubToken); v != "" {
		c.GitHub.Token = v
	}
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template, err := c.generateConfigTemplate()
	if err != nil {
		return fmt.Errorf("generating config template: %w", err)
	}
	return os.WriteFile(configPath, []byte(template), 0644)
}

func (c *Config) generateConfigTemplate() (string, error) {
	dbPath := c.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = GetDefaultDBPath()
		if err != nil {
			return "", fmt.Errorf("getting default database path: %w", err)
		}
	}

	// Replace the placeholder db_path with the actual path
	template := strings.Replace(configTemplate, "/home/user/.local/share/qas/qas.db", dbPath, 1)
	return template, nil
}

// GetDefaultStorageDir returns the default storage directory for the database
func GetDefaultStorageDir() (string, error) {
	// Use XDG_DATA_HOME if set, otherwise use ~/.local/share
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	qasDir := filepath.Join(dataDir, "qas")

	// Create the directory if it doesn't exist
	if err := os.MkdirAll(qasDir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", qasDir, err)
	}

	return qasDir, nil
}

// GetDefaultDBPath returns the default database path in the user's data directory
func GetDefaultDBPath() (string, error) {
	storageDir, err := GetDefaultStorageDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(storageDir, "qas.db"), nil
}

// GetConfigDir returns the configuration directory for qas
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	qasConfigDir := filepath.Join(configDir, "qas")

	// Create the directory if it doesn't exist
	if err := os.MkdirAll(qasConfigDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", qasConfigDir, err)
	}

	return qasConfigDir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
