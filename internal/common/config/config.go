// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Pipeline      PipelineConfig      `mapstructure:"pipeline"`
	Scoring       ScoringConfig       `mapstructure:"scoring"`
	Alerts        AlertsConfig        `mapstructure:"alerts"`
	Audit         AuditConfig         `mapstructure:"audit"`
	LoopGuard     LoopGuardConfig     `mapstructure:"loop_guard"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // seconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // seconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // seconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

// CacheConfig holds the cache key prefix and per-category TTLs in seconds.
type CacheConfig struct {
	Enabled    bool           `mapstructure:"enabled"`
	KeyPrefix  string         `mapstructure:"key_prefix"`
	DefaultTTL int            `mapstructure:"default_ttl"` // seconds
	TTLs       map[string]int `mapstructure:"ttls"`        // per category, seconds
}

// PipelineConfig bounds a single verification invocation.
type PipelineConfig struct {
	VerifyTimeout    int  `mapstructure:"verify_timeout"`     // milliseconds, ground-truth lookups
	MaxResponseBytes int  `mapstructure:"max_response_bytes"` // input size bound
	ConcurrentLookup bool `mapstructure:"concurrent_lookup"`  // verify entity types in parallel
}

// ScoringConfig holds the confidence deduction weights. The values are
// tuning constants, not invariants.
type ScoringConfig struct {
	LookupErrorPenalty    float64 `mapstructure:"lookup_error_penalty"`
	UnverifiedPenalty     float64 `mapstructure:"unverified_penalty"`
	HighSeverityPenalty   float64 `mapstructure:"high_severity_penalty"`
	MediumSeverityPenalty float64 `mapstructure:"medium_severity_penalty"`
	LowSeverityPenalty    float64 `mapstructure:"low_severity_penalty"`
}

// AlertsConfig controls low-confidence alerting via AWS.
type AlertsConfig struct {
	Enabled             bool    `mapstructure:"enabled"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`

	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
			ToEmail   string `mapstructure:"to_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled  bool   `mapstructure:"enabled"`
			TopicARN string `mapstructure:"topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// AuditConfig controls the Elasticsearch verification audit trail.
type AuditConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	IndexPrefix string `mapstructure:"index_prefix"`
}

type LoopGuardConfig struct {
	MaxHistory     int `mapstructure:"max_history"`
	MaxRepetitions int `mapstructure:"max_repetitions"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ObservabilityConfig struct {
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}
