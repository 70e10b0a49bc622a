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
	AppName string
	AppEnv  string
	AppPort string

	DatabaseURL string
	RedisURL    string

	NatsURL           string
	NatsSubjectPrefix string

	JWTSecret string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	// Optical-mark analysis pipeline.
	OmrCommand     string
	OmrScript      string
	OmrOutputDir   string
	OmrTimeout     time.Duration
	OmrInflightTTL time.Duration

	// PasErrorTag is the annotation color counted as a PAS language error.
	PasErrorTag string

	AIProvider   string
	AIModel      string
	OpenAIAPIKey string
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
	v.SetEnvPrefix("ESCRIVO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Escrivo API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject_prefix", "escrivo.grading")
	v.SetDefault("cloudinary.folder", "escrivo/corrections")
	v.SetDefault("omr.command", "python3")
	v.SetDefault("omr.output_dir", "/tmp/escrivo-omr")
	v.SetDefault("omr.timeout_ms", 120000)
	v.SetDefault("omr.inflight_ttl", "10m")
	v.SetDefault("pas.error_tag", "green")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.model", "gpt-4o-mini")

	timeoutMs := v.GetInt("omr.timeout_ms")
	if timeoutMs <= 0 {
		timeoutMs = 120000
	}

	inflightTTL, err := time.ParseDuration(v.GetString("omr.inflight_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid omr inflight ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NatsURL:                v.GetString("nats.url"),
		NatsSubjectPrefix:      v.GetString("nats.subject_prefix"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		OmrCommand:             v.GetString("omr.command"),
		OmrScript:              v.GetString("omr.script"),
		OmrOutputDir:           v.GetString("omr.output_dir"),
		OmrTimeout:             time.Duration(timeoutMs) * time.Millisecond,
		OmrInflightTTL:         inflightTTL,
		PasErrorTag:            strings.ToLower(v.GetString("pas.error_tag")),
		AIProvider:             strings.ToLower(v.GetString("ai.provider")),
		AIModel:                v.GetString("ai.model"),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	return cfg, nil
}
