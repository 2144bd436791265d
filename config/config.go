package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"diabetesrisk/logging"
	"diabetesrisk/session"
	"gopkg.in/yaml.v2"
)

const (
	EnvSessionSecret = "SESSION_SECRET"
	EnvDatabasePath  = "DIABETES_DB_PATH"

	// DevelopmentSecret is used when no session secret is configured.
	DevelopmentSecret = "development-secret-key"

	AuthStoreMemory = "memory"
	AuthStoreSQLite = "sqlite"
)

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Http struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	} `yaml:"http"`
	Log     logging.Config `yaml:"log"`
	Session session.Config `yaml:"session"`
	Auth    struct {
		Store string `yaml:"store"`
	} `yaml:"auth"`
	ML MLConfig `yaml:"ml"`
}

// MLConfig drives training. Seed 0 draws a time based seed.
type MLConfig struct {
	ModelPath string  `yaml:"model_path"`
	Seed      int64   `yaml:"seed"`
	Samples   int     `yaml:"samples"`
	Trees     int     `yaml:"trees"`
	MaxDepth  int     `yaml:"max_depth"`
	TestRatio float64 `yaml:"test_ratio"`
}

func Default() *Config {
	var c Config
	c.Database.Path = "app.db"
	c.Http.Port = 5000
	c.Http.ReadTimeout = 15 * time.Second
	c.Http.WriteTimeout = 15 * time.Second
	c.Http.ShutdownTimeout = 5 * time.Second
	c.Http.MaxBodyBytes = 1 << 20
	c.Log = logging.DefaultConfig()
	c.Session = session.DefaultConfig()
	c.Auth.Store = AuthStoreMemory
	c.ML = MLConfig{
		ModelPath: "models/diabetes_model.json",
		Seed:      42,
		Samples:   768,
		Trees:     100,
		TestRatio: 0.2,
	}
	return &c
}

// Load reads path over the defaults and applies environment overrides. A
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	file, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(config); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	if secret := os.Getenv(EnvSessionSecret); secret != "" {
		c.Session.Secret = secret
	}
	if path := os.Getenv(EnvDatabasePath); path != "" {
		c.Database.Path = path
	}
	if c.Session.Secret == "" {
		c.Session.Secret = DevelopmentSecret
	}
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.Auth.Store != AuthStoreMemory && c.Auth.Store != AuthStoreSQLite {
		return fmt.Errorf("auth.store must be %q or %q, got %q", AuthStoreMemory, AuthStoreSQLite, c.Auth.Store)
	}
	if c.ML.ModelPath == "" {
		return errors.New("ml.model_path is required")
	}
	if c.ML.Samples < 10 {
		return fmt.Errorf("ml.samples must be at least 10, got %d", c.ML.Samples)
	}
	if c.ML.Trees <= 0 {
		return fmt.Errorf("ml.trees must be positive, got %d", c.ML.Trees)
	}
	if c.ML.TestRatio <= 0 || c.ML.TestRatio >= 1 {
		return fmt.Errorf("ml.test_ratio must be in (0, 1), got %v", c.ML.TestRatio)
	}
	return nil
}

// UsesDevelopmentSecret reports whether sessions are signed with the
// built-in secret.
func (c *Config) UsesDevelopmentSecret() bool {
	return c.Session.Secret == DevelopmentSecret
}
