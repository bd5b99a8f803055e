package main

import (
	"log"
	"os"
	"strconv"
	"time"
)

type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	To   string
}

// Config is read from the environment; .env is loaded by godotenv/autoload.
type Config struct {
	Port         string
	DatabasePath string
	ContentPath  string
	TemplateGlob string

	TronStep        time.Duration
	TronMaxSessions int
	TronIdleTTL     time.Duration

	GitHubUsername string
	GitHubToken    string
	GitHubCacheTTL time.Duration
	GitHubTopRepos int

	SMTP SMTPConfig

	AdminUsername    string
	AdminPassword    string
	VisitorRetention time.Duration
}

func loadConfig() Config {
	return Config{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "portfolio.db"),
		ContentPath:  os.Getenv("CONTENT_PATH"),
		TemplateGlob: getEnv("TEMPLATE_GLOB", "templates/*"),

		TronStep:        time.Duration(getEnvInt("TRON_STEP_MILLIS", 100)) * time.Millisecond,
		TronMaxSessions: getEnvInt("TRON_MAX_SESSIONS", 64),
		TronIdleTTL:     time.Duration(getEnvInt("TRON_IDLE_MINUTES", 10)) * time.Minute,

		GitHubUsername: os.Getenv("GITHUB_USERNAME"),
		GitHubToken:    os.Getenv("GITHUB_TOKEN"),
		GitHubCacheTTL: time.Duration(getEnvInt("GITHUB_CACHE_MINUTES", 60)) * time.Minute,
		GitHubTopRepos: getEnvInt("GITHUB_TOP_REPOS", 10),

		SMTP: SMTPConfig{
			Host: getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port: getEnv("SMTP_PORT", "587"),
			User: os.Getenv("SMTP_USER"),
			Pass: os.Getenv("SMTP_PASS"),
			To:   os.Getenv("TO_EMAIL"),
		},

		AdminUsername:    os.Getenv("ADMIN_USERNAME"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		VisitorRetention: time.Duration(getEnvInt("VISITOR_RETENTION_DAYS", 365)) * 24 * time.Hour,
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("WARNING: ignoring invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
