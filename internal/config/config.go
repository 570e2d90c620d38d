package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	CORS    CORSConfig    `yaml:"cors"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
	Speech  SpeechConfig  `yaml:"speech"`
	Janitor JanitorConfig `yaml:"janitor"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"         validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"0s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	RateLimit       int           `yaml:"rate_limit"       env:"SERVER_RATE_LIMIT"       env-default:"600"          validate:"gte=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json" validate:"oneof=json text"`
}

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StorageConfig selects and configures the deck and snapshot stores.
type StorageConfig struct {
	Driver     string         `yaml:"driver"      env:"STORAGE_DRIVER"      env-default:"sqlite" validate:"oneof=memory sqlite postgres"`
	SQLitePath string         `yaml:"sqlite_path" env:"STORAGE_SQLITE_PATH" env-default:"./session.db"`
	Database   DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"       env-default:"true"`
}

// SessionConfig holds the learning engine timings.
type SessionConfig struct {
	DeckID           string        `yaml:"deck_id"           env:"SESSION_DECK_ID"           validate:"required,uuid"`
	CountdownTicks   int           `yaml:"countdown_ticks"   env:"SESSION_COUNTDOWN_TICKS"   env-default:"5"      validate:"min=1"`
	TickInterval     time.Duration `yaml:"tick_interval"     env:"SESSION_TICK_INTERVAL"     env-default:"1s"`
	SettleDelay      time.Duration `yaml:"settle_delay"      env:"SESSION_SETTLE_DELAY"      env-default:"600ms"`
	SourceFloor      time.Duration `yaml:"source_floor"      env:"SESSION_SOURCE_FLOOR"      env-default:"8s"`
	TargetFloor      time.Duration `yaml:"target_floor"      env:"SESSION_TARGET_FLOOR"      env-default:"8s"`
	RepeatFloor      time.Duration `yaml:"repeat_floor"      env:"SESSION_REPEAT_FLOOR"      env-default:"5s"`
	ProgressInterval time.Duration `yaml:"progress_interval" env:"SESSION_PROGRESS_INTERVAL" env-default:"100ms"`
	SpeechTimeout    time.Duration `yaml:"speech_timeout"    env:"SESSION_SPEECH_TIMEOUT"    env-default:"20s"`
	PersistTimeout   time.Duration `yaml:"persist_timeout"   env:"SESSION_PERSIST_TIMEOUT"   env-default:"2s"`
	ResumePolicy     string        `yaml:"resume_policy"     env:"SESSION_RESUME_POLICY"     env-default:"resume" validate:"oneof=resume manual"`
	// Seed fixes the shuffle order. Zero seeds from the clock.
	Seed uint64 `yaml:"seed" env:"SESSION_SEED" env-default:"0"`
}

// Speech providers.
const (
	SpeechPaced  = "paced"
	SpeechOpenAI = "openai"
)

// SpeechConfig selects and configures the narration backend.
type SpeechConfig struct {
	Provider       string       `yaml:"provider"         env:"SPEECH_PROVIDER"         env-default:"paced" validate:"oneof=paced openai"`
	WordsPerMinute int          `yaml:"words_per_minute" env:"SPEECH_WORDS_PER_MINUTE" env-default:"150"   validate:"min=1"`
	Source         VoiceConfig  `yaml:"source"           env-prefix:"SPEECH_SOURCE_"`
	Target         VoiceConfig  `yaml:"target"           env-prefix:"SPEECH_TARGET_"`
	OpenAI         OpenAIConfig `yaml:"openai"`
}

// VoiceConfig describes one narration voice.
type VoiceConfig struct {
	Name     string  `yaml:"name"     env:"NAME"`
	Language string  `yaml:"language" env:"LANGUAGE"`
	Speed    float64 `yaml:"speed"    env:"SPEED"    env-default:"1.0" validate:"gt=0,lte=4"`
}

// OpenAIConfig holds OpenAI text-to-speech settings.
type OpenAIConfig struct {
	APIKey   string `yaml:"api_key"   env:"OPENAI_API_KEY"`
	BaseURL  string `yaml:"base_url"  env:"OPENAI_BASE_URL"`
	Model    string `yaml:"model"     env:"OPENAI_TTS_MODEL"  env-default:"tts-1"`
	CacheDir string `yaml:"cache_dir" env:"OPENAI_TTS_CACHE"  env-default:"./audio_cache"`
	// Player is the command that plays an mp3 file; the path is appended.
	Player string `yaml:"player" env:"OPENAI_TTS_PLAYER" env-default:"ffplay -nodisp -autoexit -loglevel quiet"`
}

// JanitorConfig controls removal of abandoned session snapshots.
type JanitorConfig struct {
	Enabled   bool          `yaml:"enabled"   env:"JANITOR_ENABLED"   env-default:"true"`
	Interval  time.Duration `yaml:"interval"  env:"JANITOR_INTERVAL"  env-default:"1h"`
	Retention time.Duration `yaml:"retention" env:"JANITOR_RETENTION" env-default:"720h"`
}
