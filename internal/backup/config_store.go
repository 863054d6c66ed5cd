package backup

import (
	"listkeeper/internal/models"
	"listkeeper/internal/structures"
	"os"

	json "github.com/goccy/go-json"
)

type ConfigStoreInterface interface {
	Load() (*models.SchedulerConfig, error)
	Save(cfg models.SchedulerConfig) error
	Remove() error
}

// ConfigStore persists the active scheduler config so a restart resumes the schedule.
type ConfigStore struct {
	path string
}

func NewConfigStore(conf *structures.Config) ConfigStoreInterface {
	return &ConfigStore{path: resolvePath(conf.Backup.Dir, conf.Backup.ConfigFile)}
}

// Load returns nil without error when nothing is persisted.
func (c *ConfigStore) Load() (*models.SchedulerConfig, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cfg models.SchedulerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ConfigStore) Save(cfg models.SchedulerConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(c.path, data, 0644)
}

func (c *ConfigStore) Remove() error {
	err := os.Remove(c.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
