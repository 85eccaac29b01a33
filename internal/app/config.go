package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avilacode/bloomtrack-backend/internal/platform/envutil"
)

// Config is the process configuration. Environment variables are the
// source of truth; CONFIG_FILE (yaml) overlays defaults for anything the
// environment leaves unset.
type Config struct {
	LogMode      string        `yaml:"log_mode"`
	HTTPAddr     string        `yaml:"http_addr"`
	JWTSecret    string        `yaml:"jwt_secret"`
	AdminRole    string        `yaml:"admin_role"`
	StudentRole  string        `yaml:"student_role"`
	AllowOrigins []string      `yaml:"allow_origins"`
	WorkerTick   time.Duration `yaml:"worker_tick"`
	Environment  string        `yaml:"environment"`
	Version      string        `yaml:"version"`
}

func defaults() Config {
	return Config{
		LogMode:     "development",
		HTTPAddr:    ":8080",
		JWTSecret:   "defaultsecret",
		AdminRole:   "admin",
		StudentRole: "student",
		WorkerTick:  time.Second,
		Environment: "development",
	}
}

// Load builds the config: defaults, then the optional yaml file, then the
// environment on top.
func Load() (Config, error) {
	cfg := defaults()

	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.HTTPAddr = envutil.String("HTTP_ADDR", cfg.HTTPAddr)
	cfg.JWTSecret = envutil.String("JWT_SECRET_KEY", cfg.JWTSecret)
	cfg.AdminRole = envutil.String("ADMIN_ROLE", cfg.AdminRole)
	cfg.StudentRole = envutil.String("STUDENT_ROLE", cfg.StudentRole)
	cfg.WorkerTick = envutil.Duration("WORKER_TICK", cfg.WorkerTick)
	cfg.Environment = envutil.String("ENVIRONMENT", cfg.Environment)
	cfg.Version = envutil.String("VERSION", cfg.Version)
	return cfg, nil
}
