package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	JWTSecret        string
	JWTRefreshSecret string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	GradebookURL string

	// NotificationSubject is the NATS subject notifications travel on.
	NotificationSubject string

	// SubmissionReceipts is the site-wide switch for submission receipts.
	SubmissionReceipts bool

	// FeedbackForGradebook names the feedback plugin whose text rides along
	// on gradebook pushes.
	FeedbackForGradebook string

	FeedbackMailerInterval time.Duration
	ConfirmTokenTTL        time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ASSIGNFLOW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "AssignFlow API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cloudinary.folder", "assignflow/areas")
	v.SetDefault("notification.subject", "assignflow.notifications")
	v.SetDefault("submission.receipts", true)
	v.SetDefault("feedback.gradebook_plugin", "comments")
	v.SetDefault("feedback.mailer_interval", "1m")
	v.SetDefault("confirm.token_ttl", "10m")

	mailerInterval, err := time.ParseDuration(v.GetString("feedback.mailer_interval"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid feedback mailer interval: %w", err)
	}

	tokenTTL, err := time.ParseDuration(v.GetString("confirm.token_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid confirm token ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTRefreshSecret:       v.GetString("jwt.refresh_secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		GradebookURL:           v.GetString("gradebook.url"),
		NotificationSubject:    v.GetString("notification.subject"),
		SubmissionReceipts:     v.GetBool("submission.receipts"),
		FeedbackForGradebook:   strings.ToLower(v.GetString("feedback.gradebook_plugin")),
		FeedbackMailerInterval: mailerInterval,
		ConfirmTokenTTL:        tokenTTL,
	}

	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("jwt secrets must be provided")
	}
	if cfg.GradebookURL == "" {
		return Config{}, fmt.Errorf("gradebook url must be provided")
	}

	return cfg, nil
}
