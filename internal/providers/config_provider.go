package providers

import (
	"fmt"
	"listkeeper/internal/structures"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("webServer.host", "0.0.0.0")
	v.SetDefault("webServer.port", 5000)
	v.SetDefault("backup.dir", "backups")
	v.SetDefault("backup.configFile", "config.json")
	v.SetDefault("backup.journalFile", "logs.zst")
	v.SetDefault("backup.journalSize", 100)
	v.SetDefault("backup.checkpoint", 60*time.Second)
	v.SetDefault("backup.stopTimeout", 2*time.Second)
	v.SetDefault("catalog.url", "https://graphql.anilist.co")
	v.SetDefault("catalog.timeout", 30*time.Second)
	v.SetDefault("catalog.requestsPerMinute", 60)
	v.SetDefault("events.bufferSize", 100)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("logger.dir", "logs")
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	setConfigDefaults(v)

	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.BindEnv("logger.level", "LK_LOG_LEVEL")
	v.BindEnv("backup.dir", "LK_BACKUP_DIR")
	v.BindEnv("backup.checkpoint", "LK_BACKUP_CHECKPOINT")
	v.BindEnv("catalog.url", "LK_CATALOG_URL")
	v.BindEnv("cache.enabled", "LK_CACHE_ENABLED")
	v.BindEnv("cache.size", "LK_CACHE_SIZE")
	v.BindEnv("metrics.enabled", "LK_METRICS_ENABLED")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "ListKeeper"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
