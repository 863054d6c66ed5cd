package models

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gookit/validate"
)

// Interval bounds in hours. The upper bound keeps the duration far from int64 overflow.
const (
	MinIntervalHours = 1.0 / 3600 / 1000
	MaxIntervalHours = 24 * 365 * 10
)

// IdentityPattern restricts identities to characters that are safe inside file names.
const IdentityPattern = `^[A-Za-z0-9_-]+$`

type SchedulerConfig struct {
	Username string  `json:"username" validate:"required|regex:^[A-Za-z0-9_-]+$"`
	KeepLast int     `json:"keepLast" validate:"required|int|min:1"`
	Interval float64 `json:"interval" validate:"required"`
}

func (c SchedulerConfig) Validate() error {
	v := validate.Struct(&c)
	if !v.Validate() {
		return v.Errors
	}
	if !(c.Interval > 0) {
		return errors.New("interval must be a positive number of hours")
	}
	if c.Interval < MinIntervalHours || c.Interval > MaxIntervalHours {
		return fmt.Errorf("interval must be between 1ms and %d hours", MaxIntervalHours)
	}
	return nil
}

// IntervalDuration converts the configured interval in hours into a duration,
// clamped to the accepted bounds.
func (c SchedulerConfig) IntervalDuration() time.Duration {
	hours := c.Interval
	if !(hours >= MinIntervalHours) {
		hours = MinIntervalHours
	}
	if hours > MaxIntervalHours {
		hours = MaxIntervalHours
	}
	return time.Duration(math.Round(hours * float64(time.Hour)))
}

type SchedulerStatus struct {
	Running bool             `json:"running"`
	Config  *SchedulerConfig `json:"config"`
}
