package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AWS      AWSConfig      `yaml:"aws"`
	JWT      JWTConfig      `yaml:"jwt"`
	APNs     APNsConfig     `yaml:"apns"`
	Game     GameConfig     `yaml:"game"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region           string        `yaml:"region"`
	AvatarBucket     string        `yaml:"avatar_bucket"`
	SubmissionBucket string        `yaml:"submission_bucket"`
	AccessKey        string        `yaml:"access_key"`
	SecretKey        string        `yaml:"secret_key"`
	Endpoint         string        `yaml:"endpoint"` // custom S3-compatible endpoint, optional
	MediaURLExpiry   time.Duration `yaml:"media_url_expiry"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// APNsConfig holds Apple push notification configuration.
// Pushes are disabled when cert_path is empty.
type APNsConfig struct {
	CertPath     string `yaml:"cert_path"`
	CertPassword string `yaml:"cert_password"`
	Topic        string `yaml:"topic"`
	Production   bool   `yaml:"production"`
}

// GameConfig holds gameplay configuration
type GameConfig struct {
	// SelectionPolicy picks the representative challenge per difficulty
	// tier: "first" (lowest id) or "seeded" (hash of the round id).
	SelectionPolicy string        `yaml:"selection_policy"`
	PendingTTL      time.Duration `yaml:"pending_ttl"`
	ReaperSchedule  string        `yaml:"reaper_schedule"`
	LeaderboardTTL  time.Duration `yaml:"leaderboard_ttl"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Game.SelectionPolicy == "" {
		c.Game.SelectionPolicy = "seeded"
	}
	if c.Game.PendingTTL == 0 {
		c.Game.PendingTTL = 24 * time.Hour
	}
	if c.Game.ReaperSchedule == "" {
		c.Game.ReaperSchedule = "@every 1h"
	}
	if c.Game.LeaderboardTTL == 0 {
		c.Game.LeaderboardTTL = 30 * time.Second
	}
	if c.AWS.MediaURLExpiry == 0 {
		c.AWS.MediaURLExpiry = 15 * time.Minute
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
