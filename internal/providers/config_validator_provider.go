package providers

import (
	"fmt"
	"listkeeper/internal/structures"
	"time"

	"github.com/gookit/validate"
)

// maxCheckpoint bounds how long the scheduler may sleep before it looks at the stop signal again.
const maxCheckpoint = 60 * time.Second

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return v.Errors
	}
	if cv.conf.Backup.Checkpoint > maxCheckpoint {
		return fmt.Errorf("backup.checkpoint must not exceed %s, got %s", maxCheckpoint, cv.conf.Backup.Checkpoint)
	}
	if cv.conf.Backup.JournalSize < 0 {
		return fmt.Errorf("backup.journalSize must not be negative")
	}
	return nil
}
