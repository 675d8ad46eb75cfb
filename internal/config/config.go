package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/termgen/internal/db"
	"github.com/kailas-cloud/termgen/internal/domain"
	"github.com/kailas-cloud/termgen/internal/domain/event"
)

// Config holds the termgen job configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Source   SourceConfig   `yaml:"source"`
	Scroll   ScrollConfig   `yaml:"scroll"`
	Event    EventConfig    `yaml:"event"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Export   ExportConfig   `yaml:"export"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	Env   string `yaml:"env"`   // logger flavour: prod, local, dev, docker (default: the run env)
}

// LoggerEnv returns the logger flavour, falling back to the run env.
func (l LoggingConfig) LoggerEnv(runEnv string) string {
	if l.Env != "" {
		return l.Env
	}
	return runEnv
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis (FT.AGGREGATE cursors)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SourceConfig selects the scanned documents.
type SourceConfig struct {
	Index   string   `yaml:"index"`    // FT index name
	Type    string   `yaml:"type"`     // document key prefix, without ':'
	Fields  []string `yaml:"fields"`   // analysed fields, one event per (field, term)
	IDField string   `yaml:"id_field"` // field with the external user id
}

// ScrollConfig holds cursor settings.
type ScrollConfig struct {
	KeepAliveMs int `yaml:"keep_alive_ms"`
	Size        int `yaml:"size"`
}

// KeepAlive returns the cursor idle timeout.
func (s ScrollConfig) KeepAlive() time.Duration {
	return time.Duration(s.KeepAliveMs) * time.Millisecond
}

// EventConfig holds the emitted event shape and the taste key namespaces.
type EventConfig struct {
	ValueField      string            `yaml:"value_field"`
	TimestampField  string            `yaml:"timestamp_field"`
	UserIndex       string            `yaml:"user_index"`
	ItemIndex       string            `yaml:"item_index"`
	PreferenceIndex string            `yaml:"preference_index"`
	Params          map[string]string `yaml:"params"` // extra settings visible to handlers
}

// Settings returns the handler parameters, including the value and timestamp keys.
func (e EventConfig) Settings() map[string]string {
	out := make(map[string]string, len(e.Params)+2)
	for k, v := range e.Params {
		out[k] = v
	}
	out[event.ParamValueField] = e.ValueField
	out[event.ParamTimestampField] = e.TimestampField
	return out
}

// DispatchConfig holds chain execution settings.
type DispatchConfig struct {
	Workers int `yaml:"workers"`
}

// ExportConfig holds the optional parquet export.
type ExportConfig struct {
	ParquetPath string `yaml:"parquet_path"` // empty disables the export
}

// AnalysisConfig holds tokenizer settings.
type AnalysisConfig struct {
	MinTokenLength int      `yaml:"min_token_length"`
	Stopwords      []string `yaml:"stopwords"`
}

// MetricsConfig holds the ops endpoint settings.
type MetricsConfig struct {
	Addr    string   `yaml:"addr"` // empty disables the endpoint
	APIKeys []string `yaml:"api_keys"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates the configuration at path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Source.IDField == "" {
		c.Source.IDField = "id"
	}
	if c.Scroll.KeepAliveMs == 0 {
		c.Scroll.KeepAliveMs = 600000
	}
	if c.Scroll.Size == 0 {
		c.Scroll.Size = 100
	}
	if c.Event.ValueField == "" {
		c.Event.ValueField = event.DefaultValueField
	}
	if c.Event.TimestampField == "" {
		c.Event.TimestampField = event.DefaultTimestampField
	}
	if c.Event.UserIndex == "" {
		c.Event.UserIndex = "taste:user"
	}
	if c.Event.ItemIndex == "" {
		c.Event.ItemIndex = "taste:item"
	}
	if c.Event.PreferenceIndex == "" {
		c.Event.PreferenceIndex = "taste:pref"
	}
	if c.Dispatch.Workers <= 0 {
		c.Dispatch.Workers = 8
	}
	if c.Analysis.MinTokenLength <= 0 {
		c.Analysis.MinTokenLength = 2
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Logging.Env {
	case "", "prod", "local", "dev", "docker":
	default:
		return fmt.Errorf("logging.env must be one of prod, local, dev, docker, got %q", c.Logging.Env)
	}
	if c.Database.Driver != "redis" {
		return fmt.Errorf("database.driver must be \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if strings.TrimSpace(c.Source.Index) == "" {
		return fmt.Errorf("source.index is required")
	}
	if !db.IsValidIndexName(c.Source.Index) {
		return fmt.Errorf("source.index contains invalid characters: %q", c.Source.Index)
	}
	if strings.TrimSpace(c.Source.Type) == "" {
		return fmt.Errorf("source.type is required")
	}
	if strings.ContainsAny(c.Source.Type, `"\`) {
		return fmt.Errorf("source.type contains invalid characters: %q", c.Source.Type)
	}
	if len(c.Source.Fields) == 0 {
		return fmt.Errorf("source.fields is empty")
	}
	for i, f := range c.Source.Fields {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("source.fields[%d] is blank", i)
		}
	}
	if c.Scroll.KeepAliveMs <= 0 {
		return fmt.Errorf("scroll.keep_alive_ms must be positive, got %d", c.Scroll.KeepAliveMs)
	}
	if c.Scroll.Size <= 0 {
		return fmt.Errorf("scroll.size must be positive, got %d", c.Scroll.Size)
	}
	if c.Event.ValueField == c.Event.TimestampField {
		return fmt.Errorf("event.value_field and event.timestamp_field must differ, both are %q", c.Event.ValueField)
	}
	for _, reserved := range []string{"user", "item"} {
		if c.Event.ValueField == reserved || c.Event.TimestampField == reserved {
			return fmt.Errorf("event field name %q is reserved", reserved)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
