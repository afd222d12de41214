package config

import (
	"time"
)

// Default configuration values.
const (
	defaultServiceName     = "report-classifier"
	defaultServiceVersion  = "1.0.0"
	defaultServicePort     = 8080
	defaultConcurrency     = 2
	defaultDBHost          = "localhost"
	defaultDBPort          = 5432
	defaultDBUser          = "postgres"
	defaultDBName          = "civicpulse"
	defaultDBSSLMode       = "disable"
	defaultDBMaxConns      = 25
	defaultDBMaxIdleConns  = 5
	defaultRedisAddress    = "localhost:6379"
	defaultQueueName       = "reports"
	defaultQueueAttempts   = 3
	defaultQueueBackoffSec = 5
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultModelTimeoutSec = 120
	defaultMaxImageWidth   = 1024
	defaultJPEGQuality     = 78
	defaultModelRateLimit  = 2.0
	defaultModelRateBurst  = 4
	defaultSTTTimeoutSec   = 60
	defaultSTTLanguage     = "en"
	defaultImageWeight     = 4.0
	defaultTextWeight      = 1.5
	defaultVoiceWeight     = 1.2
	defaultConsensusBoost  = 0.15
	defaultImageMinConfid  = 0.6
)

// Config holds all configuration for the report classifier service.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Queue    QueueConfig    `yaml:"queue"`
	Logging  LoggingConfig  `yaml:"logging"`
	Model    ModelConfig    `yaml:"model"`
	Analysis AnalysisConfig `yaml:"analysis"`
	STT      STTConfig      `yaml:"stt"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Port        int    `env:"SERVICE_PORT"       yaml:"port"`
	Debug       bool   `env:"APP_DEBUG"          yaml:"debug"`
	Concurrency int    `env:"WORKER_CONCURRENCY" yaml:"concurrency"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `env:"POSTGRES_HOST"     yaml:"host"`
	Port            int           `env:"POSTGRES_PORT"     yaml:"port"`
	User            string        `env:"POSTGRES_USER"     yaml:"user"`
	Password        string        `env:"POSTGRES_PASSWORD" yaml:"password"`
	Database        string        `env:"POSTGRES_DB"       yaml:"database"`
	SSLMode         string        `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
	MaxConnections  int           `yaml:"max_connections"`
	MaxIdleConns    int           `yaml:"max_idle_connections"`
	ConnMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"  yaml:"address"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	Database int    `env:"REDIS_DB"       yaml:"database"`
}

// QueueConfig holds report job queue settings.
type QueueConfig struct {
	Name        string        `yaml:"name"`
	Attempts    int           `env:"QUEUE_ATTEMPTS" yaml:"attempts"`
	BackoffBase time.Duration `yaml:"backoff_base"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// ModelConfig holds remote multimodal model settings.
type ModelConfig struct {
	Enabled bool   `env:"MODEL_ENABLED"  yaml:"enabled"`
	APIKey  string `env:"GEMINI_API_KEY" yaml:"api_key"`
	// Models is an ordered preference list tried once at startup;
	// the first model that responds is used for the process lifetime.
	Models        []string      `env:"MODEL_NAMES" yaml:"models"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxImageWidth int           `env:"MODEL_MAX_IMAGE_WIDTH" yaml:"max_image_width"`
	JPEGQuality   int           `yaml:"jpeg_quality"`
	RateLimit     float64       `yaml:"rate_limit"`
	RateBurst     int           `yaml:"rate_burst"`
}

// AnalysisConfig holds modality weighting for the consensus engine.
type AnalysisConfig struct {
	ImageWeight        float64 `env:"AI_IMAGE_WEIGHT"         yaml:"image_weight"`
	TextWeight         float64 `env:"AI_TEXT_WEIGHT"          yaml:"text_weight"`
	VoiceWeight        float64 `env:"AI_VOICE_WEIGHT"         yaml:"voice_weight"`
	ConsensusBoost     float64 `env:"AI_CONSENSUS_BOOST"      yaml:"consensus_boost"`
	ImageMinConfidence float64 `env:"AI_IMAGE_MIN_CONFIDENCE" yaml:"image_min_confidence"`
}

// STTConfig holds speech-to-text collaborator settings.
type STTConfig struct {
	URL      string        `env:"STT_URL"      yaml:"url"`
	Language string        `env:"STT_LANGUAGE" yaml:"language"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return loadWithDefaults[Config](path, setDefaults)
}

// Defaults returns a configuration built purely from defaults and
// environment overrides, without reading a file.
func Defaults() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setDatabaseDefaults(&cfg.Database)
	setRedisDefaults(&cfg.Redis)
	setQueueDefaults(&cfg.Queue)
	setLoggingDefaults(&cfg.Logging)
	setModelDefaults(&cfg.Model)
	setAnalysisDefaults(&cfg.Analysis)
	setSTTDefaults(&cfg.STT)
}

func setServiceDefaults(s *ServiceConfig) {
	if s.Name == "" {
		s.Name = defaultServiceName
	}
	if s.Version == "" {
		s.Version = defaultServiceVersion
	}
	if s.Port == 0 {
		s.Port = defaultServicePort
	}
	if s.Concurrency == 0 {
		s.Concurrency = defaultConcurrency
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Database == "" {
		d.Database = defaultDBName
	}
	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}
	if d.ConnMaxLifetime == 0 {
		d.ConnMaxLifetime = time.Hour
	}
}

func setRedisDefaults(r *RedisConfig) {
	if r.Address == "" {
		r.Address = defaultRedisAddress
	}
}

func setQueueDefaults(q *QueueConfig) {
	if q.Name == "" {
		q.Name = defaultQueueName
	}
	if q.Attempts == 0 {
		q.Attempts = defaultQueueAttempts
	}
	if q.BackoffBase == 0 {
		q.BackoffBase = defaultQueueBackoffSec * time.Second
	}
}

func setLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Format == "" {
		l.Format = defaultLogFormat
	}
}

func setModelDefaults(m *ModelConfig) {
	if len(m.Models) == 0 {
		m.Models = []string{"gemini-2.5-flash", "gemini-1.5-flash", "gemini-pro-vision"}
	}
	if m.Timeout == 0 {
		m.Timeout = defaultModelTimeoutSec * time.Second
	}
	if m.MaxImageWidth == 0 {
		m.MaxImageWidth = defaultMaxImageWidth
	}
	if m.JPEGQuality == 0 {
		m.JPEGQuality = defaultJPEGQuality
	}
	if m.RateLimit == 0 {
		m.RateLimit = defaultModelRateLimit
	}
	if m.RateBurst == 0 {
		m.RateBurst = defaultModelRateBurst
	}
}

func setAnalysisDefaults(a *AnalysisConfig) {
	if a.ImageWeight == 0 {
		a.ImageWeight = defaultImageWeight
	}
	if a.TextWeight == 0 {
		a.TextWeight = defaultTextWeight
	}
	if a.VoiceWeight == 0 {
		a.VoiceWeight = defaultVoiceWeight
	}
	if a.ConsensusBoost == 0 {
		a.ConsensusBoost = defaultConsensusBoost
	}
	if a.ImageMinConfidence == 0 {
		a.ImageMinConfidence = defaultImageMinConfid
	}
}

func setSTTDefaults(s *STTConfig) {
	if s.Language == "" {
		s.Language = defaultSTTLanguage
	}
	if s.Timeout == 0 {
		s.Timeout = defaultSTTTimeoutSec * time.Second
	}
}
