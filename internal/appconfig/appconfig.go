// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// legacyConfigPath is the path to the configuration file used in previous versions.
	legacyConfigPath = "config.json"
	// DefaultAPIBaseURL is where the outputs API listens by default.
	DefaultAPIBaseURL = "http://localhost:8000"
	// defaultRequestTimeout is the default timeout for HTTP requests.
	defaultRequestTimeout = 30 * time.Second
	// defaultCacheTTL is how long cached output payloads live in redis.
	defaultCacheTTL = 5 * time.Minute
	// defaultServerAddr is the outputs API listen address.
	defaultServerAddr = ":8000"
	// defaultOutputsDir holds the trained model output files.
	defaultOutputsDir = "outputs"
	// defaultAssistantModel is the model name sent to the assistant host.
	defaultAssistantModel = "llama3.2"
)

// Alignment modes for comparison rows.
const (
	AlignTimestamp = "timestamp"
	AlignIndex     = "index"
)

// Config represents the top-level application configuration.
type Config struct {
	APIBaseURL        string        `json:"apiBaseURL" mapstructure:"apiBaseURL"`
	TimeoutSeconds    int           `json:"timeout,omitempty" mapstructure:"timeout"`
	RequestsPerSecond float64       `json:"requestsPerSecond,omitempty" mapstructure:"requestsPerSecond"`
	Debug             bool          `json:"debug" mapstructure:"debug"`
	LogFile           string        `json:"logFile,omitempty" mapstructure:"logFile"`
	LogLevel          string        `json:"logLevel,omitempty" mapstructure:"logLevel"`
	NumberLocale      string        `json:"numberLocale,omitempty" mapstructure:"numberLocale"`
	Alignment         string        `json:"alignment,omitempty" mapstructure:"alignment"`
	Models            []ModelInfo   `json:"models,omitempty" mapstructure:"models"`
	Assistant         AssistantHost `json:"assistant" mapstructure:"assistant"`
	Server            Server        `json:"server" mapstructure:"server"`
	Cache             Cache         `json:"cache" mapstructure:"cache"`
	ConfigPath        string        `json:"-" mapstructure:"-"`
}

// ModelInfo is a display entry for a forecasting model id.
type ModelInfo struct {
	ID    string `json:"id" mapstructure:"id"`
	Name  string `json:"name" mapstructure:"name"`
	Color string `json:"color,omitempty" mapstructure:"color"`
}

// AssistantHost describes the Ollama-compatible host that answers chat messages.
type AssistantHost struct {
	URL          string `json:"url,omitempty" mapstructure:"url"`
	Model        string `json:"model,omitempty" mapstructure:"model"`
	SystemPrompt string `json:"systemPrompt,omitempty" mapstructure:"systemPrompt"`
}

// Server configures the outputs API.
type Server struct {
	Addr        string   `json:"addr,omitempty" mapstructure:"addr"`
	OutputsDir  string   `json:"outputsDir,omitempty" mapstructure:"outputsDir"`
	CORSOrigins []string `json:"corsOrigins,omitempty" mapstructure:"corsOrigins"`
	// ChatRate caps chat requests per second; zero disables the limit.
	ChatRate    float64  `json:"chatRate,omitempty" mapstructure:"chatRate"`
}

// Cache configures the redis output cache. An empty RedisAddr disables caching.
type Cache struct {
	RedisAddr  string `json:"redisAddr,omitempty" mapstructure:"redisAddr"`
	RedisDB    int    `json:"redisDB,omitempty" mapstructure:"redisDB"`
	TTLSeconds int    `json:"ttlSeconds,omitempty" mapstructure:"ttlSeconds"`
}

// DefaultModels is the built-in display table for the trained model families.
var DefaultModels = []ModelInfo{
	{ID: "linear", Name: "Linear Regression", Color: "#3b82f6"},
	{ID: "rf", Name: "Random Forest", Color: "#10b981"},
	{ID: "xgb", Name: "XGBoost", Color: "#f59e0b"},
	{ID: "ebm", Name: "Explainable Boosting", Color: "#8b5cf6"},
}

// Defaults returns a configuration populated with every default value.
func Defaults() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = int(defaultRequestTimeout.Seconds())
	}
	if c.Alignment == "" {
		c.Alignment = AlignTimestamp
	}
	if c.Assistant.Model == "" {
		c.Assistant.Model = defaultAssistantModel
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultServerAddr
	}
	if c.Server.OutputsDir == "" {
		c.Server.OutputsDir = defaultOutputsDir
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:5173"}
	}
}

// Normalize fills in defaults for anything left unset. It is applied by Load and
// should be called on configurations assembled elsewhere (for example by viper).
func (c *Config) Normalize() error {
	c.applyDefaults()
	switch c.Alignment {
	case AlignTimestamp, AlignIndex:
	default:
		return fmt.Errorf("unknown alignment %q (want %q or %q)", c.Alignment, AlignTimestamp, AlignIndex)
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("requestsPerSecond must not be negative")
	}
	return nil
}

// RequestTimeout returns the timeout duration for HTTP requests, falling back to the default if not specified.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheTTL returns the lifetime of cached output payloads.
func (c Config) CacheTTL() time.Duration {
	if c.Cache.TTLSeconds <= 0 {
		return defaultCacheTTL
	}
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "gridcast.log"
}

// ModelTable returns the configured models followed by any built-in entries they do not override.
func (c Config) ModelTable() []ModelInfo {
	out := make([]ModelInfo, 0, len(c.Models)+len(DefaultModels))
	seen := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		if m.ID == "" || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	for _, m := range DefaultModels {
		if !seen[m.ID] {
			out = append(out, m)
		}
	}
	return out
}

func (c Config) lookupModel(id string) (ModelInfo, bool) {
	for _, m := range c.ModelTable() {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// ModelName returns the display name for a model id, or the id itself when unknown.
func (c Config) ModelName(id string) string {
	if m, ok := c.lookupModel(id); ok && m.Name != "" {
		return m.Name
	}
	return id
}

// ModelColor returns the display color for a model id, or "" when unknown.
func (c Config) ModelColor(id string) string {
	if m, ok := c.lookupModel(id); ok {
		return m.Color
	}
	return ""
}

// ErrNoConfigFile is returned when no configuration file exists at the searched paths.
var ErrNoConfigFile = errors.New("no configuration file found")

// ResolvePath returns the configuration file to read. An empty path or the
// default path falls back to the legacy location when the default is missing.
func ResolvePath(path string) (string, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	candidates := []string{path}
	if path == DefaultConfigPath {
		candidates = append(candidates, legacyConfigPath)
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("could not read config file %q: %w", c, err)
		}
	}
	return "", fmt.Errorf("%w (searched %s)", ErrNoConfigFile, strings.Join(candidates, ", "))
}

// Load reads the configuration file at path (see ResolvePath) into v and
// decodes the merged result. Flags and environment variables bound on v take
// precedence over the file. A nil v uses a fresh viper instance.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	resolved, err := ResolvePath(path)
	if err != nil {
		return Config{}, err
	}
	v.SetConfigFile(resolved)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("could not read config file %q: %w", resolved, err)
	}
	cfg, err := Decode(v)
	if err != nil {
		return Config{}, fmt.Errorf("config file %q: %w", resolved, err)
	}
	cfg.ConfigPath = resolved
	return cfg, nil
}

// Decode unmarshals the settings held by v and applies defaults.
func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
