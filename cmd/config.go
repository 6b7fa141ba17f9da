package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"gig-wizard/internal/refclient"
	"gig-wizard/internal/scheduler"
)

// AppConfig 应用配置。
type AppConfig struct {
	Reference refclient.Config `yaml:"reference"`
	Cache     CacheConfig      `yaml:"cache"`
	Warmer    scheduler.Config `yaml:"warmer"`
	Server    ServerConfig     `yaml:"server"`
	Database  DatabaseConfig   `yaml:"database"`
}

type CacheConfig struct {
	Dedupe    bool `yaml:"dedupe"`
	LogEvents bool `yaml:"log_events"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// loadConfig 读取 YAML 配置，文件不存在时使用默认值；环境变量覆盖文件中的值。
func loadConfig(path string) (AppConfig, error) {
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		path = "config.yaml"
	}

	var cfg AppConfig
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("config %s not found, using defaults", path)
	case err != nil:
		return AppConfig{}, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("REFERENCE_BASE_URL"); v != "" {
		cfg.Reference.BaseURL = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "gigs.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	return cfg, nil
}
