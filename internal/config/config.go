// Package config loads service settings from defaults, an optional YAML
// file, an optional .env file and IMAGE_TONE_* environment variables, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "IMAGE_TONE_"

// Config holds the settings shared by the HTTP API, the MCP server and the CLI.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`

	// UploadDir and OutputDir stage uploaded originals and processed results.
	UploadDir string `yaml:"upload_dir"`
	OutputDir string `yaml:"output_dir"`

	// AllowedOrigins lists the browser origins granted CORS access. "*"
	// allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxUploadBytes caps the size of a request body carrying images.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// ReadTimeout and WriteTimeout bound each HTTP request.
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// PreviewMaxSize bounds the longest side of base64 previews, in pixels.
	PreviewMaxSize int `yaml:"preview_max_size"`

	// LogLevel is a zerolog level name.
	LogLevel string `yaml:"log_level"`

	// Limits bounds the parameters accepted from clients.
	Limits Limits `yaml:"limits"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:           ":8000",
		UploadDir:      "temp/uploads",
		OutputDir:      "temp/outputs",
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		MaxUploadBytes: 32 << 20,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		PreviewMaxSize: 1024,
		LogLevel:       "info",
		Limits:         DefaultLimits(),
	}
}

// Options selects the optional files Load reads. Empty paths are skipped.
type Options struct {
	// ConfigFile is a YAML file; it must exist when set.
	ConfigFile string

	// EnvFile is a dotenv file; a missing file is ignored. Variables already
	// present in the environment win over the file.
	EnvFile string
}

// DefaultEnvFile is the dotenv file the commands read from the working
// directory.
const DefaultEnvFile = ".env"

// OptionsFromEnv returns the Options used by the commands: the YAML file
// named by IMAGE_TONE_CONFIG, if any, and DefaultEnvFile.
func OptionsFromEnv() Options {
	return Options{
		ConfigFile: strings.TrimSpace(os.Getenv(EnvPrefix + "CONFIG")),
		EnvFile:    DefaultEnvFile,
	}
}

// Load builds a Config from defaults, files and the environment, then
// validates it.
func Load(opts Options) (Config, error) {
	cfg := Default()

	if opts.ConfigFile != "" {
		b, err := os.ReadFile(opts.ConfigFile)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(b, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", opts.ConfigFile, err)
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides fields from IMAGE_TONE_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("ADDR"); ok {
		c.Addr = v
	}
	if v, ok := get("UPLOAD_DIR"); ok {
		c.UploadDir = v
	}
	if v, ok := get("OUTPUT_DIR"); ok {
		c.OutputDir = v
	}
	if v, ok := get("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_UPLOAD_BYTES: %w", EnvPrefix, err)
		}
		c.MaxUploadBytes = n
	}
	if v, ok := get("PREVIEW_MAX_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPREVIEW_MAX_SIZE: %w", EnvPrefix, err)
		}
		c.PreviewMaxSize = n
	}
	if v, ok := get("READ_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sREAD_TIMEOUT: %w", EnvPrefix, err)
		}
		c.ReadTimeout = d
	}
	if v, ok := get("WRITE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sWRITE_TIMEOUT: %w", EnvPrefix, err)
		}
		c.WriteTimeout = d
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.UploadDir == "" || c.OutputDir == "" {
		return errors.New("upload_dir and output_dir must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.PreviewMaxSize < 0 {
		return fmt.Errorf("preview_max_size must not be negative, got %d", c.PreviewMaxSize)
	}
	return c.Limits.Validate()
}

// AsYAML renders the configuration, for `--print-config` style output.
func (c Config) AsYAML() (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(b), nil
}
