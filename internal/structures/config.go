package structures

import (
	"net/http"
	"time"
)

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

type Route struct {
	Url     string
	Handler http.Handler
}

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type BackupConfig struct {
	Dir         string        `yaml:"dir" validate:"required|unixPath"`
	ConfigFile  string        `yaml:"configFile" validate:"required|unixPath"`
	JournalFile string        `yaml:"journalFile" validate:"required|unixPath"`
	JournalSize int           `yaml:"journalSize"`
	Checkpoint  time.Duration `yaml:"checkpoint" validate:"required|min:1"`
	StopTimeout time.Duration `yaml:"stopTimeout" validate:"required|min:1"`
}

type CatalogConfig struct {
	Url               string        `yaml:"url" validate:"required|fullUrl"`
	Timeout           time.Duration `yaml:"timeout" validate:"required|min:1"`
	RequestsPerMinute int           `yaml:"requestsPerMinute"`
}

type EventsConfig struct {
	BufferSize int `yaml:"bufferSize"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server        `yaml:"webServer"`
	Backup    BackupConfig  `yaml:"backup"`
	Catalog   CatalogConfig `yaml:"catalog"`
	Logger    LoggerConfig  `yaml:"logger"`
	Events    EventsConfig  `yaml:"events"`
	Cache     CacheConfig   `yaml:"cache"`
	Metrics   MetricsConfig `yaml:"metrics"`
}
