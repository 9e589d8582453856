package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"example.com/storefront/internal/media"
	"example.com/storefront/internal/service"
	"example.com/storefront/internal/store"
)

type Config struct {
	Env, Port string

	Store store.Options

	JWTSecret string
	JWTTTL    time.Duration
	// AdminAuth puts product mutations and the order list behind RequireAuth.
	AdminAuth bool

	ImageStore    string // disk | ftp
	ImageDir      string
	PublicBaseURL string
	FTP           media.FTPConfig

	SMTP       service.SMTPConfig
	CORSOrigin string
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// LoadConfig reads the process environment. Call godotenv.Load first to pick
// up a .env file.
func LoadConfig() (Config, error) {
	cfg := Config{
		Env:  getEnv("APP_ENV", "dev"),
		Port: getEnv("APP_PORT", "4040"),
		Store: store.Options{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			DSN:      os.Getenv("DB_DSN"),
			MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDB:  getEnv("MONGO_DB", "storefront"),
		},
		JWTSecret:     os.Getenv("JWT_SECRET"),
		ImageStore:    getEnv("IMAGE_STORE", "disk"),
		ImageDir:      getEnv("IMAGE_DIR", "./uploads"),
		PublicBaseURL: os.Getenv("PUBLIC_BASE_URL"),
		FTP: media.FTPConfig{
			Host:      os.Getenv("FTP_HOST"),
			Username:  os.Getenv("FTP_USER"),
			Password:  os.Getenv("FTP_PASSWORD"),
			RemoteDir: os.Getenv("FTP_DIR"),
			PublicURL: os.Getenv("FTP_PUBLIC_URL"),
		},
		SMTP: service.SMTPConfig{
			Host: os.Getenv("SMTP_HOST"),
			Port: getEnv("SMTP_PORT", "1025"),
			From: getEnv("SMTP_FROM", "shop@localhost"),
		},
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://localhost:" + cfg.Port
	}

	var err error
	if cfg.JWTTTL, err = time.ParseDuration(getEnv("JWT_TTL", "1h")); err != nil {
		return Config{}, fmt.Errorf("JWT_TTL: %w", err)
	}
	if cfg.AdminAuth, err = strconv.ParseBool(getEnv("ADMIN_AUTH", "false")); err != nil {
		return Config{}, fmt.Errorf("ADMIN_AUTH: %w", err)
	}
	if cfg.FTP.Port, err = strconv.Atoi(getEnv("FTP_PORT", "21")); err != nil {
		return Config{}, fmt.Errorf("FTP_PORT: %w", err)
	}
	if cfg.SMTP.Timeout, err = time.ParseDuration(getEnv("SMTP_TIMEOUT", "10s")); err != nil {
		return Config{}, fmt.Errorf("SMTP_TIMEOUT: %w", err)
	}

	if cfg.JWTSecret == "" {
		if cfg.Env == "prod" {
			return Config{}, errors.New("JWT_SECRET must be set in prod")
		}
		cfg.JWTSecret = "dev-secret"
	}
	return cfg, nil
}
