package config

import "time"

// Config represents the overall application configuration structure.
type Config struct {
	ClickUp       ClickUpConfig       `koanf:"clickup" json:"clickup" yaml:"clickup"`
	HTTP          HTTPConfig          `koanf:"http" json:"http" yaml:"http"`
	Log           LogConfig           `koanf:"log" json:"log" yaml:"log"`
	Sync          SyncConfig          `koanf:"sync" json:"sync" yaml:"sync"`
	Observability ObservabilityConfig `koanf:"observability" json:"observability" yaml:"observability"`
}

// ClickUpConfig holds the credentials and target identifiers.
type ClickUpConfig struct {
	APIToken    string `koanf:"apitoken" json:"-" yaml:"apitoken" validate:"required"`
	WorkspaceID string `koanf:"workspaceid" json:"workspaceid" yaml:"workspaceid" validate:"required"`
	SpaceID     string `koanf:"spaceid" json:"spaceid" yaml:"spaceid" validate:"required"`
	ListID      string `koanf:"listid" json:"listid" yaml:"listid" validate:"required"`
	BaseURL     string `koanf:"baseurl" json:"baseurl" yaml:"baseurl" validate:"required,url"`
}

// HTTPConfig configures the resilient request client.
type HTTPConfig struct {
	Timeout    time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" validate:"gt=0"`
	MaxRetries int           `koanf:"maxretries" json:"maxretries" yaml:"maxretries" validate:"gte=0"`
	RetryDelay time.Duration `koanf:"retrydelay" json:"retrydelay" yaml:"retrydelay" validate:"gt=0"`
	RetryAfter time.Duration `koanf:"retryafter" json:"retryafter" yaml:"retryafter" validate:"gte=0"`
	RateLimit  int           `koanf:"ratelimit" json:"ratelimit" yaml:"ratelimit" validate:"gte=0"` // requests per minute, 0 disables
	RateBurst  int           `koanf:"rateburst" json:"rateburst" yaml:"rateburst" validate:"gte=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}

// SyncConfig holds hierarchy creation settings.
type SyncConfig struct {
	Concurrency int    `koanf:"concurrency" json:"concurrency" yaml:"concurrency" validate:"gte=1"`
	TasksFile   string `koanf:"tasksfile" json:"tasksfile" yaml:"tasksfile"`
}

// ObservabilityConfig selects the OpenTelemetry exporters.
type ObservabilityConfig struct {
	Enabled     bool   `koanf:"enabled" json:"enabled" yaml:"enabled"`
	ServiceName string `koanf:"servicename" json:"servicename" yaml:"servicename" validate:"required"`
	Endpoint    string `koanf:"endpoint" json:"endpoint" yaml:"endpoint"` // "stdout" or host:port
	Protocol    string `koanf:"protocol" json:"protocol" yaml:"protocol" validate:"oneof=http grpc"`
	Insecure    bool   `koanf:"insecure" json:"insecure" yaml:"insecure"`
}
