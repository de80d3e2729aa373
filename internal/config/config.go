package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitrise-io/go-utils/v2/env"
	"gopkg.in/yaml.v3"
)

// Secret is a string value that must not show up in logs.
type Secret string

const secretMask = "*****"

// String implements fmt.Stringer and masks the value.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return secretMask
}

// Config is the tool configuration, read from a YAML file with env var
// overrides on top. All paths are resolved relative to the config file.
type Config struct {
	// Google Photos credentials and caches
	ClientSecretFile string `yaml:"client_secret_file"`
	TokenFile        string `yaml:"token_file"`
	StateFile        string `yaml:"state_file"`

	// API endpoint, overridable for testing
	PhotosAPIBaseURL string `yaml:"photos_api_base_url"`

	// Offsite mirror defaults
	S3Region          string `yaml:"s3_region"`
	S3Bucket          string `yaml:"s3_bucket"`
	S3AccessKeyID     Secret `yaml:"s3_access_key_id"`
	S3SecretAccessKey Secret `yaml:"s3_secret_access_key"`
}

const (
	defaultPhotosAPIBaseURL = "https://photoslibrary.googleapis.com/v1"

	envClientSecretFile = "FAE_CLIENT_SECRET_FILE"
	envTokenFile        = "FAE_TOKEN_FILE"
	envStateFile        = "FAE_STATE_FILE"
	envPhotosAPIBaseURL = "FAE_PHOTOS_API_BASE_URL"
	envS3Region         = "FAE_S3_REGION"
	envS3Bucket         = "FAE_S3_BUCKET"
	envS3AccessKeyID    = "AWS_ACCESS_KEY_ID"
	envS3SecretKey      = "AWS_SECRET_ACCESS_KEY"
)

// Load reads the config file if it exists, applies env var overrides and
// fills in defaults. A missing config file is not an error: every value has
// either a default or an env override.
func Load(path string, envRepo env.Repository) (Config, error) {
	var cfg Config

	baseDir, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else {
			if err := yaml.Unmarshal(content, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return Config{}, err
			}
			baseDir = filepath.Dir(abs)
		}
	}

	applyOverride(&cfg.ClientSecretFile, envRepo.Get(envClientSecretFile))
	applyOverride(&cfg.TokenFile, envRepo.Get(envTokenFile))
	applyOverride(&cfg.StateFile, envRepo.Get(envStateFile))
	applyOverride(&cfg.PhotosAPIBaseURL, envRepo.Get(envPhotosAPIBaseURL))
	applyOverride(&cfg.S3Region, envRepo.Get(envS3Region))
	applyOverride(&cfg.S3Bucket, envRepo.Get(envS3Bucket))
	if v := envRepo.Get(envS3AccessKeyID); v != "" {
		cfg.S3AccessKeyID = Secret(v)
	}
	if v := envRepo.Get(envS3SecretKey); v != "" {
		cfg.S3SecretAccessKey = Secret(v)
	}

	if cfg.ClientSecretFile == "" {
		cfg.ClientSecretFile = "client_secret.json"
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = "google-photos-token.json"
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "upload-state.sqlite3"
	}
	if cfg.PhotosAPIBaseURL == "" {
		cfg.PhotosAPIBaseURL = defaultPhotosAPIBaseURL
	}

	cfg.ClientSecretFile = resolvePath(baseDir, cfg.ClientSecretFile)
	cfg.TokenFile = resolvePath(baseDir, cfg.TokenFile)
	cfg.StateFile = resolvePath(baseDir, cfg.StateFile)

	return cfg, nil
}

func applyOverride(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func resolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
