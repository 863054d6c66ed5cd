package interfaces

import (
	"context"
	"listkeeper/internal/models"
)

type CompressorInterface interface {
	Compress(val []byte) ([]byte, error)
	Decompress(val []byte) ([]byte, error)
	Close()
}

type SchedulerInterface interface {
	Start(cfg models.SchedulerConfig) error
	Stop() error
	Status() models.SchedulerStatus
	Restore() error
	Shutdown()
}

// RunnerInterface performs one scheduled backup cycle.
type RunnerInterface interface {
	RunCycle(ctx context.Context, cfg models.SchedulerConfig) error
}
