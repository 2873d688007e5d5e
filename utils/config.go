package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds every setting read from the environment
type Config struct {
	Port           string
	AppEnv         string
	LogLevel       string
	MongoURI       string
	MongoDB        string
	RequestTimeout time.Duration

	JWTSecret     string
	TokenTTL      time.Duration
	ResetTokenTTL time.Duration
	BaseURL       string

	EmailProvider    string // postmark, sendgrid or empty for log-only
	EmailSender      string
	PostmarkAPIToken string
	SendgridAPIKey   string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
}

// LoadConfig reads the configuration from environment variables. The .env file,
// if any, must already have been loaded.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:                getenv("PORT", "5000"),
		AppEnv:              strings.ToLower(getenv("APP_ENV", "development")),
		LogLevel:            getenv("LOG_LEVEL", "info"),
		MongoURI:            getenv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:             getenv("MONGODB_DB", "storefront"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		BaseURL:             strings.TrimRight(getenv("BASE_URL", "http://localhost:5000"), "/"),
		EmailProvider:       strings.ToLower(os.Getenv("EMAIL_PROVIDER")),
		EmailSender:         os.Getenv("EMAIL_SENDER"),
		PostmarkAPIToken:    os.Getenv("POSTMARK_API_TOKEN"),
		SendgridAPIKey:      os.Getenv("SENDGRID_API_KEY"),
		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is not set")
	}

	var err error
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", 30*24*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.ResetTokenTTL, err = durationEnv("RESET_TOKEN_TTL", 3*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return cfg, err
	}

	switch cfg.EmailProvider {
	case "":
	case "postmark":
		if cfg.PostmarkAPIToken == "" {
			return cfg, errors.New("POSTMARK_API_TOKEN is not set")
		}
	case "sendgrid":
		if cfg.SendgridAPIKey == "" {
			return cfg, errors.New("SENDGRID_API_KEY is not set")
		}
	default:
		return cfg, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
	return cfg, nil
}

// Production reports whether the service runs in production mode
func (c Config) Production() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
