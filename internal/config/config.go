// Package config loads the run configuration: defaults, then an optional
// YAML file, then an optional .env file, then CXR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete run configuration.
type Config struct {
	Workers   int             `yaml:"workers" validate:"min=1,max=64"`
	Inference InferenceConfig `yaml:"inference"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Storage   StorageConfig   `yaml:"storage"`
	Report    ReportConfig    `yaml:"report"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// InferenceConfig points at the scoring service.
type InferenceConfig struct {
	URL               string        `yaml:"url" validate:"required,url"`
	Weights           string        `yaml:"weights" validate:"required"`
	CUDA              bool          `yaml:"cuda"`
	Resize            bool          `yaml:"resize"`
	ResizeTo          int           `yaml:"resize_to" validate:"min=2"`
	Features          bool          `yaml:"features"`
	Timeout           time.Duration `yaml:"timeout" validate:"min=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" validate:"min=0"`
}

// ArchiveConfig points at the Orthanc server.
type ArchiveConfig struct {
	URL               string        `yaml:"url" validate:"required,url"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	Timeout           time.Duration `yaml:"timeout" validate:"min=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" validate:"min=0"`
}

// StorageConfig enables the artifact mirror when Endpoint is set.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket" validate:"required_with=Endpoint"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
	Prefix    string `yaml:"prefix"`
}

// Enabled reports whether a mirror endpoint is configured.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != ""
}

// ReportConfig tunes the structured report stage.
type ReportConfig struct {
	OutputDir           string `yaml:"output_dir" validate:"required"`
	ObserverName        string `yaml:"observer_name" validate:"required"`
	DeviceName          string `yaml:"device_name"`
	FreshSOPInstanceUID bool   `yaml:"fresh_sop_instance_uid"`
	PublishEvidence     bool   `yaml:"publish_evidence"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level    string `yaml:"level" validate:"oneof=debug info warn error"`
	Encoding string `yaml:"encoding" validate:"oneof=json console"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Workers: 1,
		Inference: InferenceConfig{
			URL:      "http://localhost:8000",
			Weights:  "densenet121-res224-all",
			ResizeTo: 224,
			Timeout:  60 * time.Second,
		},
		Archive: ArchiveConfig{
			URL:     "http://localhost:8042",
			Timeout: 30 * time.Second,
		},
		Report: ReportConfig{
			OutputDir:    "results",
			ObserverName: "observer",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Load reads the YAML file at path (skipped when empty) and a .env file
// from the working directory when one exists.
func Load(path string) (*Config, error) {
	return LoadFiles(path, ".env")
}

// LoadFiles is Load with an explicit .env location. A missing .env file is
// not an error; a missing YAML file is.
func LoadFiles(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks the struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	num("CXR_WORKERS", &cfg.Workers)
	str("CXR_INFERENCE_URL", &cfg.Inference.URL)
	str("CXR_INFERENCE_WEIGHTS", &cfg.Inference.Weights)
	flag("CXR_INFERENCE_CUDA", &cfg.Inference.CUDA)
	str("CXR_ARCHIVE_URL", &cfg.Archive.URL)
	str("CXR_ARCHIVE_USERNAME", &cfg.Archive.Username)
	str("CXR_ARCHIVE_PASSWORD", &cfg.Archive.Password)
	str("CXR_STORAGE_ENDPOINT", &cfg.Storage.Endpoint)
	str("CXR_STORAGE_ACCESS_KEY", &cfg.Storage.AccessKey)
	str("CXR_STORAGE_SECRET_KEY", &cfg.Storage.SecretKey)
	str("CXR_STORAGE_BUCKET", &cfg.Storage.Bucket)
	flag("CXR_STORAGE_USE_SSL", &cfg.Storage.UseSSL)
	str("CXR_REPORT_OUTPUT_DIR", &cfg.Report.OutputDir)
	str("CXR_LOG_LEVEL", &cfg.Logging.Level)
	str("CXR_LOG_ENCODING", &cfg.Logging.Encoding)

	return errors.Join(errs...)
}
