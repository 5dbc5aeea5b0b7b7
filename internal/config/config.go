package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v2"

	"spacesBack/utils"
)

const defaultPath = "config/config.yaml"

type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`
	Database struct {
		// Driver is "mysql" or "memory".
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Firebase struct {
		Credentials string `yaml:"credentials"`
	} `yaml:"firebase"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	// Storage receives exported abuse reports. Optional.
	Storage utils.StorageConfig `yaml:"storage"`
}

// Load reads the YAML file at path. DATABASE_URL, REDIS_ADDR,
// FIREBASE_CREDENTIALS and JWT_SECRET override the file when set.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config data: %w", err)
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("FIREBASE_CREDENTIALS"); v != "" {
		cfg.Firebase.Credentials = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":4001"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}
	switch cfg.Database.Driver {
	case "mysql":
		if cfg.Database.URL == "" {
			return Config{}, fmt.Errorf("database.url is required for the mysql driver")
		}
	case "memory":
	default:
		return Config{}, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("auth.jwt_secret is required")
	}
	return cfg, nil
}

// LoadConfig loads the file named by CONFIG_PATH and exits on failure.
func LoadConfig() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultPath
	}
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", path, err)
	}
	return cfg
}
