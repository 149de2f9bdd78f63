package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/keyring"
)

const (
	DefaultConfigPath = "/etc/edgecontext"
	ConfigFileName    = "edgecontext.yml"

	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "EDGECONTEXT_"
)

const (
	SecretStoreFile     = "file"
	SecretStoreDatabase = "database"
)

// ValidSecretStores is the list of valid secret store backends
var ValidSecretStores = []string{SecretStoreFile, SecretStoreDatabase}

// Config holds all edge context host settings
type Config struct {
	// SecretStore selects the backend token public keys are read from
	SecretStore string `yaml:"secret_store" json:"secret_store"`

	// SecretsFile is the secrets JSON file used by the file backend
	SecretsFile string `yaml:"secrets_file" json:"secrets_file"`

	// PublicKeySecret is the versioned secret holding token public keys
	PublicKeySecret string `yaml:"public_key_secret" json:"public_key_secret"`

	// SigningAlgorithm is the only algorithm tokens are accepted with
	SigningAlgorithm string `yaml:"signing_algorithm" json:"signing_algorithm"`

	// TokenLeeway is the allowed clock skew in seconds when checking expiry
	TokenLeeway int `yaml:"token_leeway" json:"token_leeway"`

	// HeaderName is the HTTP header carrying the base64 encoded edge context
	HeaderName string `yaml:"header_name" json:"header_name"`

	// DatabaseURL is the PostgreSQL connection string used by the database backend
	DatabaseURL string `yaml:"database_url" json:"database_url"`

	// LogLevel is one of debug, info, warn or error
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BindAddress is the address the server listens on
	BindAddress string `yaml:"bind_address" json:"bind_address"`

	// Port is the port the server listens on
	Port int `yaml:"port" json:"port"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// newDefault returns a config with default values
func newDefault() *Config {
	return &Config{
		SecretStore:      SecretStoreFile,
		SecretsFile:      "/var/local/secrets.json",
		PublicKeySecret:  keyring.DefaultSecretPath,
		SigningAlgorithm: keyring.DefaultAlgorithm,
		HeaderName:       "X-Edge-Request",
		LogLevel:         "info",
		BindAddress:      "127.0.0.1",
		Port:             8080,
		sources:          make(map[string]string),
	}
}

// Load loads configuration from file and environment variables
// Environment variables take precedence over file values
func Load() (*Config, error) {
	config := newDefault()

	// Initialize all sources as "default"
	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	// Determine config file path
	configPath := os.Getenv(EnvPrefix + "CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	// Try to load from config file
	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	// Override with environment variables
	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"secret_store", "secrets_file", "public_key_secret",
		"signing_algorithm", "token_leeway", "header_name",
		"database_url", "log_level", "bind_address", "port",
	}
}

func (c *Config) applyFileConfig(file *Config) {
	setString := func(name string, dst *string, val string) {
		if val != "" {
			*dst = val
			c.sources[name] = "file"
		}
	}
	setString("secret_store", &c.SecretStore, file.SecretStore)
	setString("secrets_file", &c.SecretsFile, file.SecretsFile)
	setString("public_key_secret", &c.PublicKeySecret, file.PublicKeySecret)
	setString("signing_algorithm", &c.SigningAlgorithm, file.SigningAlgorithm)
	setString("header_name", &c.HeaderName, file.HeaderName)
	setString("database_url", &c.DatabaseURL, file.DatabaseURL)
	setString("log_level", &c.LogLevel, file.LogLevel)
	setString("bind_address", &c.BindAddress, file.BindAddress)
	if file.TokenLeeway != 0 {
		c.TokenLeeway = file.TokenLeeway
		c.sources["token_leeway"] = "file"
	}
	if file.Port != 0 {
		c.Port = file.Port
		c.sources["port"] = "file"
	}
}

func (c *Config) applyEnvConfig() {
	setString := func(name string, dst *string) {
		if val := os.Getenv(envName(name)); val != "" {
			*dst = strings.TrimSpace(val)
			c.sources[name] = "environment"
		}
	}
	setInt := func(name string, dst *int) {
		if val := os.Getenv(envName(name)); val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				*dst = i
				c.sources[name] = "environment"
			}
		}
	}
	setString("secret_store", &c.SecretStore)
	setString("secrets_file", &c.SecretsFile)
	setString("public_key_secret", &c.PublicKeySecret)
	setString("signing_algorithm", &c.SigningAlgorithm)
	setInt("token_leeway", &c.TokenLeeway)
	setString("header_name", &c.HeaderName)
	setString("database_url", &c.DatabaseURL)
	setString("log_level", &c.LogLevel)
	setString("bind_address", &c.BindAddress)
	setInt("port", &c.Port)
}

// envName returns the environment variable for an attribute, e.g.
// EDGECONTEXT_LOG_LEVEL for log_level.
func envName(attribute string) string {
	return EnvPrefix + strings.ToUpper(attribute)
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// Leeway returns the token leeway as a duration
func (c *Config) Leeway() time.Duration {
	return time.Duration(c.TokenLeeway) * time.Second
}

// Address returns the host:port the server listens on
func (c *Config) Address() string {
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.Port))
}

// SlogLevel returns the configured log level
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !slices.Contains(ValidSecretStores, c.SecretStore) {
		return fmt.Errorf("invalid secret_store value: %s", c.SecretStore)
	}
	if c.SecretStore == SecretStoreFile && c.SecretsFile == "" {
		return fmt.Errorf("secrets_file is required when secret_store is %s", SecretStoreFile)
	}
	if c.SecretStore == SecretStoreDatabase && c.DatabaseURL == "" {
		return fmt.Errorf("database_url is required when secret_store is %s", SecretStoreDatabase)
	}
	if c.PublicKeySecret == "" {
		return fmt.Errorf("public_key_secret must not be empty")
	}
	if !keyring.Supported(c.SigningAlgorithm) {
		return fmt.Errorf("invalid signing_algorithm value: %s", c.SigningAlgorithm)
	}
	if c.TokenLeeway < 0 {
		return fmt.Errorf("invalid token_leeway value: %d", c.TokenLeeway)
	}
	if c.HeaderName == "" {
		return fmt.Errorf("header_name must not be empty")
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level value: %s", c.LogLevel)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port value: %d", c.Port)
	}
	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *Config) Attributes() []Attribute {
	return []Attribute{
		{Name: "secret_store", Value: c.SecretStore, Source: c.Source("secret_store")},
		{Name: "secrets_file", Value: c.SecretsFile, Source: c.Source("secrets_file")},
		{Name: "public_key_secret", Value: c.PublicKeySecret, Source: c.Source("public_key_secret")},
		{Name: "signing_algorithm", Value: c.SigningAlgorithm, Source: c.Source("signing_algorithm")},
		{Name: "token_leeway", Value: strconv.Itoa(c.TokenLeeway), Source: c.Source("token_leeway")},
		{Name: "header_name", Value: c.HeaderName, Source: c.Source("header_name")},
		{Name: "database_url", Value: redactURL(c.DatabaseURL), Source: c.Source("database_url")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
		{Name: "bind_address", Value: c.BindAddress, Source: c.Source("bind_address")},
		{Name: "port", Value: strconv.Itoa(c.Port), Source: c.Source("port")},
	}
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// redactURL hides the password of a connection URL
func redactURL(s string) string {
	u, err := url.Parse(s)
	if err != nil || u.User == nil {
		return s
	}
	if _, ok := u.User.Password(); !ok {
		return s
	}
	return u.Redacted()
}
