package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ObjectStoreConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	ObjectKey       string `yaml:"object_key"`
	Region          string `yaml:"region"`
	UseSSL          bool   `yaml:"use_ssl"`
}

// Enabled reports whether enough settings are present to publish the output.
func (c ObjectStoreConfig) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

type Config struct {
	InputDir         string            `yaml:"input_dir"`
	OutputPath       string            `yaml:"output_path"`
	Extension        string            `yaml:"extension"`
	ProgressInterval int               `yaml:"progress_interval"`
	DatabaseURL      string            `yaml:"database_url"`
	MetadataPath     string            `yaml:"metadata_path"`
	APIPort          string            `yaml:"api_port"`
	ObjectStore      ObjectStoreConfig `yaml:"object_store"`
}

func defaults() *Config {
	return &Config{
		OutputPath:       "metadata.json",
		Extension:        ".json",
		ProgressInterval: 100,
		MetadataPath:     "metadata.json",
		APIPort:          "8080",
		ObjectStore: ObjectStoreConfig{
			ObjectKey: "metadata.json",
		},
	}
}

// New builds the configuration from defaults and environment variables.
func New() (*Config, error) {
	return Load("")
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.InputDir = getEnv("METADATA_INPUT_DIR", cfg.InputDir)
	cfg.OutputPath = getEnv("METADATA_OUTPUT_PATH", cfg.OutputPath)
	cfg.Extension = getEnv("METADATA_EXTENSION", cfg.Extension)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.MetadataPath = getEnv("METADATA_PATH", cfg.MetadataPath)
	cfg.APIPort = getEnv("API_PORT", cfg.APIPort)

	cfg.ObjectStore.Endpoint = getEnv("S3_ENDPOINT", cfg.ObjectStore.Endpoint)
	cfg.ObjectStore.AccessKeyID = getEnv("S3_ACCESS_KEY_ID", cfg.ObjectStore.AccessKeyID)
	cfg.ObjectStore.SecretAccessKey = getEnv("S3_SECRET_ACCESS_KEY", cfg.ObjectStore.SecretAccessKey)
	cfg.ObjectStore.Bucket = getEnv("S3_BUCKET", cfg.ObjectStore.Bucket)
	cfg.ObjectStore.ObjectKey = getEnv("S3_OBJECT_KEY", cfg.ObjectStore.ObjectKey)
	cfg.ObjectStore.Region = getEnv("S3_REGION", cfg.ObjectStore.Region)

	var err error
	cfg.ProgressInterval, err = getEnvAsInt("PROGRESS_INTERVAL", cfg.ProgressInterval)
	if err != nil {
		return nil, err
	}

	cfg.ObjectStore.UseSSL, err = getEnvAsBool("S3_USE_SSL", cfg.ObjectStore.UseSSL)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings the aggregation run depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.InputDir) == "" {
		return fmt.Errorf("input directory is not set: pass it as an argument or set METADATA_INPUT_DIR")
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("output path is not set")
	}
	if !strings.HasPrefix(c.Extension, ".") || len(c.Extension) < 2 {
		return fmt.Errorf("invalid extension %q: expected a leading dot, e.g. .json", c.Extension)
	}
	return nil
}

func getEnv(key string, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected an integer, got '%s'", key, valueStr)
	}

	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: expected a boolean, got '%s'", key, valueStr)
	}

	return value, nil
}
