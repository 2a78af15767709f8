// Package config loads the console's settings from an optional YAML file, a
// .env file and QUIZ_* environment variables, in that order of precedence
// from lowest to highest.
package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"quiz-dashboard/internal/gateway"
)

const (
	DefaultSessionDB = "quiz-session.db"

	EnvAPIURL      = "QUIZ_API_URL"
	EnvAPITimeout  = "QUIZ_API_TIMEOUT"
	EnvInsecureTLS = "QUIZ_API_INSECURE_TLS"
	EnvSessionDB   = "QUIZ_SESSION_DB"
	EnvExportDir   = "QUIZ_EXPORT_DIR"
)

type Config struct {
	API struct {
		URL         string        `yaml:"url" validate:"required,url"`
		Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
		InsecureTLS bool          `yaml:"insecure_tls"`
	} `yaml:"api"`
	Session struct {
		DB string `yaml:"db" validate:"required"`
	} `yaml:"session"`
	Export struct {
		Dir string `yaml:"dir"`
	} `yaml:"export"`
}

func Default() *Config {
	cfg := &Config{}
	cfg.API.URL = gateway.DefaultBaseURL
	cfg.API.Timeout = gateway.DefaultTimeout
	cfg.Session.DB = DefaultSessionDB
	cfg.Export.Dir = "."
	return cfg
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips it. A .env file in the working directory is loaded if present.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Printf("config: close %s: %v", path, err)
			}
		}()
		if err := cfg.decode(f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	err := yaml.NewDecoder(r).Decode(c)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if value := strings.TrimSpace(getenv(EnvAPIURL)); value != "" {
		c.API.URL = value
	}
	if value := strings.TrimSpace(getenv(EnvAPITimeout)); value != "" {
		timeout, err := parseTimeout(value)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAPITimeout, err)
		}
		c.API.Timeout = timeout
	}
	if value := strings.TrimSpace(getenv(EnvInsecureTLS)); value != "" {
		insecure, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvInsecureTLS, err)
		}
		c.API.InsecureTLS = insecure
	}
	if value := strings.TrimSpace(getenv(EnvSessionDB)); value != "" {
		c.Session.DB = value
	}
	if value := strings.TrimSpace(getenv(EnvExportDir)); value != "" {
		c.Export.Dir = value
	}
	return nil
}

// parseTimeout accepts a Go duration ("15s") or a bare number of seconds.
func parseTimeout(value string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(value)
}

func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	problems := make([]string, 0, len(fieldErrors))
	for _, fieldErr := range fieldErrors {
		problems = append(problems, fmt.Sprintf("%s failed %q", fieldErr.Namespace(), fieldErr.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(problems, ", "))
}

// GatewayOptions maps the API section onto gateway client options.
func (c *Config) GatewayOptions() gateway.Options {
	return gateway.Options{
		Timeout:            c.API.Timeout,
		InsecureSkipVerify: c.API.InsecureTLS,
	}
}
