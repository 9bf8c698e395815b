// Package config loads the server configuration from the environment.
//
// An optional .env file in the working directory is read first with godotenv.
// Variables already set in the real environment win over the file, so the
// same binary can run locally with a .env and in a container without one.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port     string
	DBPath   string
	Debug    bool
	Auth     AuthConfig
	Upload   UploadConfig
	MailFrom string
}

type AuthConfig struct {
	SecretKey string
	TokenTTL  time.Duration
	// AdminUsername/AdminPassword, when both set, create an admin account at
	// startup if that username is free.
	AdminUsername string
	AdminPassword string
}

// UploadConfig controls where uploaded images go and how they are served.
type UploadConfig struct {
	Dir       string
	URLPrefix string
	MaxBytes  int64
}

// Load reads envFile (if present) and then the environment.
// Pass "" to skip the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: reading %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:   getEnv("PORT", "8080"),
		DBPath: getEnv("DB_PATH", "data/notes.db"),
		Debug:  getEnvAsBool("DEBUG", false),
		Auth: AuthConfig{
			SecretKey: os.Getenv("SECRET_KEY"),
			TokenTTL:  getEnvAsDuration("TOKEN_TTL", 10*time.Minute),

			AdminUsername: os.Getenv("ADMIN_USERNAME"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
		Upload: UploadConfig{
			Dir:       getEnv("UPLOAD_DIR", "data/uploads"),
			URLPrefix: strings.TrimRight(getEnv("UPLOAD_URL_PREFIX", "/uploads"), "/"),
			MaxBytes:  getEnvAsInt64("MAX_UPLOAD_BYTES", 10<<20),
		},
		MailFrom: getEnv("MAIL_SENDER", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Auth.SecretKey) < 16 {
		errs = append(errs, errors.New("SECRET_KEY must be set and at least 16 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if (c.Auth.AdminUsername == "") != (c.Auth.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set together"))
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %q is not a valid port", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH must not be empty"))
	}
	if c.Upload.Dir == "" {
		errs = append(errs, errors.New("UPLOAD_DIR must not be empty"))
	}
	if !strings.HasPrefix(c.Upload.URLPrefix, "/") {
		errs = append(errs, fmt.Errorf("UPLOAD_URL_PREFIX %q must start with /", c.Upload.URLPrefix))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr is the listen address for http.Server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultVal string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if result, err := strconv.ParseInt(value, 10, 64); err == nil {
			return result
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if result, err := strconv.ParseBool(value); err == nil {
			return result
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if result, err := time.ParseDuration(value); err == nil {
			return result
		}
	}
	return defaultVal
}
