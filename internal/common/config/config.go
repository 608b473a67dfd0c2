// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Assignment    AssignmentConfig        `mapstructure:"assignment"`
	Rooms         RoomsConfig             `mapstructure:"rooms"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Reporting     ReportingConfig         `mapstructure:"reporting"`
	Integrations  IntegrationConfig       `mapstructure:"integrations"`
	Server        ServerConfig            `mapstructure:"server"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
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

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // single URL shorthand
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

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// WorkerConfig holds the core settings applicable to every job worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Domain Configuration ---

// Capacity guard modes.
const (
	CapacityGuardNone      = "none"
	CapacityGuardRedisLock = "redis_lock"
)

// AssignmentConfig controls consultant allocation.
type AssignmentConfig struct {
	CapacityGuard string `mapstructure:"capacity_guard"`
	LockTTL       int    `mapstructure:"lock_ttl_ms"`
	LockWait      int    `mapstructure:"lock_wait_ms"`
}

// RoomsConfig controls workflow room defaults.
type RoomsConfig struct {
	MaxNotes      int                `mapstructure:"max_notes"`
	WelcomeText   string             `mapstructure:"welcome_text"`
	UploadPolicy  UploadPolicyConfig `mapstructure:"upload_policy"`
	SystemActorID string             `mapstructure:"system_actor_id"`
}

type UploadPolicyConfig struct {
	AllowApplicantUploads bool     `mapstructure:"allow_applicant_uploads"`
	MaxFileSizeMB         int      `mapstructure:"max_file_size_mb"`
	AllowedExtensions     []string `mapstructure:"allowed_extensions"`
}

// NotificationConfig holds settings for the notification fanout and its delivery channels.
type NotificationConfig struct {
	TemplatePath    string `mapstructure:"template_path"`
	Async           bool   `mapstructure:"async"`
	DispatchTimeout int    `mapstructure:"dispatch_timeout_ms"`
	Email           struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	Push struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"push"`
}

// ReportingConfig controls the Elasticsearch reporting index.
type ReportingConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	AssignmentIndex string `mapstructure:"assignment_index"`
	RoomIndex       string `mapstructure:"room_index"`
}

// IntegrationConfig holds settings for external services.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		// Endpoint overrides the service endpoint, e.g. a localstack URL.
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"aws"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
