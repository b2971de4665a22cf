package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Aashish23092/contribution-calculator/dto"
)

type Config struct {
	ServerPort  string
	StoreURL    string
	StoreKey    string
	TargetCity  string
	TargetYear  string
	LogLevel    string
	Location    *time.Location
	MaxFileSize int64
}

// StoreSettings is the validated store endpoint and credential.
type StoreSettings struct {
	URL string
	Key string
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.
func LoadConfig() *Config {
	_ = godotenv.Load()

	loc, err := time.LoadLocation(getenvDefault("TIMEZONE", "Asia/Shanghai"))
	if err != nil {
		loc = time.FixedZone("CST", 8*60*60)
	}

	maxFileSize := int64(10 * 1024 * 1024) // 10 MB
	if v := os.Getenv("MAX_UPLOAD_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxFileSize = n
		}
	}

	return &Config{
		ServerPort:  getenvDefault("SERVER_PORT", "8080"),
		StoreURL:    strings.TrimSpace(os.Getenv("STORE_URL")),
		StoreKey:    strings.TrimSpace(os.Getenv("STORE_KEY")),
		TargetCity:  getenvDefault("TARGET_CITY", "佛山"),
		TargetYear:  strings.TrimSpace(os.Getenv("TARGET_YEAR")),
		LogLevel:    getenvDefault("LOG_LEVEL", "info"),
		Location:    loc,
		MaxFileSize: maxFileSize,
	}
}

// StoreSettings returns the store endpoint and key, or a StoreConfigError
// naming whichever of the two is unset.
func (c *Config) StoreSettings() (StoreSettings, error) {
	var missing []string
	if c.StoreURL == "" {
		missing = append(missing, "STORE_URL")
	}
	if c.StoreKey == "" {
		missing = append(missing, "STORE_KEY")
	}
	if len(missing) > 0 {
		return StoreSettings{}, &dto.StoreConfigError{Missing: missing}
	}
	return StoreSettings{URL: c.StoreURL, Key: c.StoreKey}, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
