package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
)

// Config holds runtime configuration values for the attendance service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseDriver         string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	RealtimeChannel        string
	JWTSecret              string
	SchoolTimezone         string
	Location               *time.Location
	DefaultStartTime       string
	ReportsCacheTTL        time.Duration
	ReportsMaxDays         int
	ScanRateLimit          int
	ScanRateWindow         time.Duration
	AvatarMaxMB            int
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	SeedEnabled            bool
	SeedToken              string
	AIModel                string
	OpenAIAPIKey           string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// CloudinaryEnabled reports whether avatar storage credentials are present.
func (c Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("VIBECHECK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "VibeCheck Attendance API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("realtime.channel", "vibecheck")
	v.SetDefault("school.timezone", "Local")
	v.SetDefault("school.start_time", attendance.DefaultStartTime)
	v.SetDefault("reports.cache_ttl", "2m")
	v.SetDefault("reports.max_days", 31)
	v.SetDefault("scan.rate_limit", 120)
	v.SetDefault("scan.rate_window", "1m")
	v.SetDefault("avatar.max_mb", 2)
	v.SetDefault("cloudinary.folder", "vibecheck/avatars")
	v.SetDefault("seed.enabled", false)
	v.SetDefault("ai.model", "gpt-4o-mini")

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	ttl, err := parseDuration(v.GetString("reports.cache_ttl"), 2*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid reports cache ttl: %w", err)
	}

	window, err := parseDuration(v.GetString("scan.rate_window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid scan rate window: %w", err)
	}

	timezone := strings.TrimSpace(v.GetString("school.timezone"))
	loc, err := loadLocation(timezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid school timezone: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseDriver:         strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		RealtimeChannel:        v.GetString("realtime.channel"),
		JWTSecret:              v.GetString("jwt.secret"),
		SchoolTimezone:         timezone,
		Location:               loc,
		DefaultStartTime:       v.GetString("school.start_time"),
		ReportsCacheTTL:        ttl,
		ReportsMaxDays:         v.GetInt("reports.max_days"),
		ScanRateLimit:          v.GetInt("scan.rate_limit"),
		ScanRateWindow:         window,
		AvatarMaxMB:            v.GetInt("avatar.max_mb"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		SeedEnabled:            v.GetBool("seed.enabled"),
		SeedToken:              v.GetString("seed.token"),
		AIModel:                v.GetString("ai.model"),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if _, fellBack := attendance.EffectiveStartTime(cfg.DefaultStartTime); fellBack {
		cfg.DefaultStartTime = attendance.DefaultStartTime
	}

	if cfg.ReportsMaxDays <= 0 {
		cfg.ReportsMaxDays = 31
	}
	if cfg.ReportsMaxDays > attendance.MaxSeriesDays {
		cfg.ReportsMaxDays = attendance.MaxSeriesDays
	}

	if cfg.ScanRateLimit <= 0 {
		cfg.ScanRateLimit = 120
	}

	if cfg.AvatarMaxMB <= 0 {
		cfg.AvatarMaxMB = 2
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
