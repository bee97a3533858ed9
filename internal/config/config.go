package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tasnim.dev/aws-probe/internal/constants"
)

// Environment overrides, applied on top of the config file.
const (
	EnvBucket           = "AWS_PROBE_BUCKET"
	EnvKeyPrefix        = "AWS_PROBE_KEY_PREFIX"
	EnvSSE              = "AWS_PROBE_SSE"
	EnvMountPath        = "AWS_PROBE_MOUNT_PATH"
	EnvLogLevel         = "AWS_PROBE_LOG_LEVEL"
	EnvMetadataEndpoint = "AWS_EC2_METADATA_SERVICE_ENDPOINT"
	EnvMetadataTimeout  = "AWS_PROBE_METADATA_TIMEOUT"
)

// Config holds optional defaults loaded from ~/.config/aws-probe/config.yaml.
type Config struct {
	DefaultProfile       string `yaml:"default_profile"`
	DefaultRegion        string `yaml:"default_region"`
	Bucket               string `yaml:"bucket"`
	KeyPrefix            string `yaml:"key_prefix"`
	ServerSideEncryption string `yaml:"server_side_encryption"`
	MountPath            string `yaml:"mount_path"`
	MetadataEndpoint     string `yaml:"metadata_endpoint"`
	MetadataTimeoutSecs  int    `yaml:"metadata_timeout"`
	LogLevel             string `yaml:"log_level"`
}

// Path returns the default config file location.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", constants.AppName, "config.yaml"), nil
}

// Load reads the config file. Returns zero-value Config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return &Config{}, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config file at path. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overlays AWS_PROBE_* variables. A .env file in the working
// directory is loaded first if present; it never overrides the real environment.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv(EnvBucket); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv(EnvKeyPrefix); v != "" {
		c.KeyPrefix = v
	}
	if v := os.Getenv(EnvSSE); v != "" {
		c.ServerSideEncryption = v
	}
	if v := os.Getenv(EnvMountPath); v != "" {
		c.MountPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvMetadataEndpoint); v != "" {
		c.MetadataEndpoint = v
	}
	if v := os.Getenv(EnvMetadataTimeout); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.MetadataTimeoutSecs = secs
		}
	}
}

// Merge applies CLI flag overrides. Flags take precedence over config defaults.
func (c *Config) Merge(profile, region string) (string, string) {
	p := c.DefaultProfile
	if profile != "" {
		p = profile
	}
	r := c.DefaultRegion
	if region != "" {
		r = region
	}
	return p, r
}

// SSE returns the configured server-side encryption, defaulting to AES256.
func (c *Config) SSE() string {
	if c.ServerSideEncryption == "" {
		return constants.DefaultSSE
	}
	return c.ServerSideEncryption
}

// Endpoint returns the metadata service base URL.
func (c *Config) Endpoint() string {
	if c.MetadataEndpoint == "" {
		return constants.DefaultMetadataEndpoint
	}
	return c.MetadataEndpoint
}

// MetadataTimeout returns the per-request metadata timeout. Non-positive
// values fall back to the default.
func (c *Config) MetadataTimeout() time.Duration {
	if c.MetadataTimeoutSecs <= 0 {
		return constants.DefaultMetadataTimeout
	}
	return time.Duration(c.MetadataTimeoutSecs) * time.Second
}
