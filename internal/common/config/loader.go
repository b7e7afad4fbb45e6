// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_PASSWORD
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignored when absent
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env from the locations tests and binaries run from.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "parcinfo-verifier"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8085"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 20
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "parcinfo"
	}
	if cfg.Cache.DefaultTTL == 0 {
		cfg.Cache.DefaultTTL = 1800
	}
	if cfg.Cache.TTLs == nil {
		cfg.Cache.TTLs = map[string]int{
			"response":     1800,  // 30 minutes
			"embedding":    3600,  // 1 hour
			"intent":       7200,  // 2 hours
			"pattern":      14400, // 4 hours
			"user_session": 900,   // 15 minutes
			"db_query":     1800,  // 30 minutes
		}
	}

	if cfg.Pipeline.VerifyTimeout == 0 {
		cfg.Pipeline.VerifyTimeout = 5000
	}
	if cfg.Pipeline.MaxResponseBytes == 0 {
		cfg.Pipeline.MaxResponseBytes = 16 * 1024
	}

	if cfg.Scoring.LookupErrorPenalty == 0 {
		cfg.Scoring.LookupErrorPenalty = 0.3
	}
	if cfg.Scoring.UnverifiedPenalty == 0 {
		cfg.Scoring.UnverifiedPenalty = 0.1
	}
	if cfg.Scoring.HighSeverityPenalty == 0 {
		cfg.Scoring.HighSeverityPenalty = 0.2
	}
	if cfg.Scoring.MediumSeverityPenalty == 0 {
		cfg.Scoring.MediumSeverityPenalty = 0.1
	}
	if cfg.Scoring.LowSeverityPenalty == 0 {
		cfg.Scoring.LowSeverityPenalty = 0.05
	}

	if cfg.Alerts.ConfidenceThreshold == 0 {
		cfg.Alerts.ConfidenceThreshold = 0.5
	}
	if cfg.Audit.IndexPrefix == "" {
		cfg.Audit.IndexPrefix = "verification-audit"
	}
	if cfg.LoopGuard.MaxHistory == 0 {
		cfg.LoopGuard.MaxHistory = 10
	}
	if cfg.LoopGuard.MaxRepetitions == 0 {
		cfg.LoopGuard.MaxRepetitions = 3
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Pipeline.MaxResponseBytes < 1024 {
		return fmt.Errorf("pipeline.max_response_bytes must be at least 1024")
	}
	if cfg.Alerts.Enabled && cfg.Alerts.AWS.SNS.Enabled && cfg.Alerts.AWS.SNS.TopicARN == "" {
		return fmt.Errorf("alerts.aws.sns.topic_arn is required when SNS alerts are enabled")
	}
	if cfg.Alerts.Enabled && cfg.Alerts.AWS.SES.Enabled && cfg.Alerts.AWS.SES.FromEmail == "" {
		return fmt.Errorf("alerts.aws.ses.from_email is required when SES alerts are enabled")
	}
	return nil
}
