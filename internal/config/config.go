package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/keyoor1989/united-crm-sub004/pkg/logger"

	"go.uber.org/zap"
)

// Config holds all configuration settings
type Config struct {
	Server struct {
		Port int    `json:"port"`
		Host string `json:"host"`
	} `json:"server"`
	Database struct {
		DSN string `json:"dsn"`
	} `json:"database"`
	Telegram struct {
		BotToken string `json:"bot_token"`
		APIURL   string `json:"api_url"`
	} `json:"telegram"`
	Admin struct {
		Key string `json:"key"`
	} `json:"admin"`
	Reminders struct {
		Hour int `json:"hour"`
	} `json:"reminders"`
	Logging struct {
		Level string `json:"level"`
		Path  string `json:"path"`
	} `json:"logging"`
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(path string) (*Config, error) {
	// Validate path to prevent directory traversal
	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		return nil, fmt.Errorf("config path must be absolute")
	}

	// Check if file exists and is a regular file
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("config file error: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("config path is not a regular file")
	}

	file, err := os.Open(cleanPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logger.Warn("Failed to close config file", zap.Error(closeErr))
		}
	}()

	config := DefaultConfig()
	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, err
	}

	// Deployment-time secrets may arrive via environment instead of the file
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		config.Telegram.BotToken = token
	}
	if key := os.Getenv("ADMIN_KEY"); key != "" {
		config.Admin.Key = key
	}

	return config, nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	config := &Config{}
	config.Server.Port = 8080
	config.Server.Host = "localhost"
	config.Database.DSN = "file:unitedcrm.db?cache=shared&mode=rwc"
	config.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	config.Telegram.APIURL = "https://api.telegram.org"
	config.Admin.Key = os.Getenv("ADMIN_KEY")
	config.Reminders.Hour = 10
	config.Logging.Level = "info"
	config.Logging.Path = "server.log"
	return config
}
