package backup

import (
	"context"
	"fmt"
	"listkeeper/internal/backup/interfaces"
	"listkeeper/internal/events"
	"listkeeper/internal/models"
	"listkeeper/internal/providers"
	"listkeeper/internal/structures"
	"sync"
	"time"

	"go.uber.org/atomic"
)

const (
	defaultCheckpoint  = 60 * time.Second
	defaultStopTimeout = 2 * time.Second
)

// worker runs the periodic loop for one config. stop is closed and ctx cancelled exactly once.
type worker struct {
	cfg      models.SchedulerConfig
	ctx      context.Context
	cancel   context.CancelFunc
	stop     chan struct{}
	done     chan struct{}
	stopping *atomic.Bool
	alive    *atomic.Bool
	once     sync.Once
}

func newWorker(cfg models.SchedulerConfig) *worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &worker{
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		stopping: atomic.NewBool(false),
		alive:    atomic.NewBool(true),
	}
}

func (w *worker) signal() {
	w.once.Do(func() {
		w.stopping.Store(true)
		w.cancel()
		close(w.stop)
	})
}

type Scheduler struct {
	opsMu       sync.Mutex
	stateMu     sync.RWMutex
	current     *worker
	configs     ConfigStoreInterface
	runner      interfaces.RunnerInterface
	publisher   events.PublisherInterface
	logger      providers.Logger
	metrics     providers.MetricsProviderInterface
	checkpoint  time.Duration
	stopTimeout time.Duration
}

func NewScheduler(
	conf *structures.Config,
	configs ConfigStoreInterface,
	runner interfaces.RunnerInterface,
	publisher events.PublisherInterface,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) interfaces.SchedulerInterface {
	checkpoint := conf.Backup.Checkpoint
	if checkpoint <= 0 || checkpoint > defaultCheckpoint {
		checkpoint = defaultCheckpoint
	}
	stopTimeout := conf.Backup.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = defaultStopTimeout
	}
	return &Scheduler{
		configs:     configs,
		runner:      runner,
		publisher:   publisher,
		logger:      logger,
		metrics:     metrics,
		checkpoint:  checkpoint,
		stopTimeout: stopTimeout,
	}
}

// Start replaces any running schedule with cfg and persists it.
func (s *Scheduler) Start(cfg models.SchedulerConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrConfigInvalid, err)
	}

	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.stopCurrent()
	if err := s.configs.Save(cfg); err != nil {
		return fmt.Errorf("persist scheduler config: %w", err)
	}
	s.spawn(cfg)
	return nil
}

// Stop halts the schedule and forgets the persisted config. Stopping twice is a no-op.
func (s *Scheduler) Stop() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	if stopped := s.stopCurrent(); stopped != nil {
		s.publisher.Publish(events.New(events.SchedulerStopped, stopped.cfg))
		s.logger.Infof(providers.TypeBackup, "Auto-backup for %s stopped", stopped.cfg.Username)
	}
	if err := s.configs.Remove(); err != nil {
		return fmt.Errorf("remove scheduler config: %w", err)
	}
	return nil
}

// Shutdown stops the worker but keeps the persisted config for the next start.
func (s *Scheduler) Shutdown() {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	if stopped := s.stopCurrent(); stopped != nil {
		s.logger.Infof(providers.TypeBackup, "Auto-backup for %s paused for shutdown", stopped.cfg.Username)
	}
}

// Restore resumes a persisted schedule. An invalid persisted config is discarded.
func (s *Scheduler) Restore() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	cfg, err := s.configs.Load()
	if err != nil {
		s.discard(err)
		return fmt.Errorf("%w: %s", ErrConfigInvalid, err)
	}
	if cfg == nil {
		return nil
	}
	if err := cfg.Validate(); err != nil {
		s.discard(err)
		return fmt.Errorf("%w: %s", ErrConfigInvalid, err)
	}

	s.stopCurrent()
	s.spawn(*cfg)
	s.logger.Infof(providers.TypeApp, "Restored auto-backup for %s", cfg.Username)
	return nil
}

func (s *Scheduler) discard(reason error) {
	s.logger.Warnf(providers.TypeApp, "Discarding persisted scheduler config: %s", reason)
	if err := s.configs.Remove(); err != nil {
		s.logger.Errorf(providers.TypeApp, "Unable to remove scheduler config: %s", err)
	}
}

func (s *Scheduler) Status() models.SchedulerStatus {
	s.stateMu.RLock()
	w := s.current
	s.stateMu.RUnlock()

	if w != nil {
		cfg := w.cfg
		return models.SchedulerStatus{
			Running: w.alive.Load() && !w.stopping.Load(),
			Config:  &cfg,
		}
	}

	cfg, err := s.configs.Load()
	if err != nil {
		cfg = nil
	}
	return models.SchedulerStatus{Running: false, Config: cfg}
}

// spawn must be called with opsMu held and no current worker.
func (s *Scheduler) spawn(cfg models.SchedulerConfig) {
	w := newWorker(cfg)

	s.stateMu.Lock()
	s.current = w
	s.stateMu.Unlock()

	go s.run(w)

	s.metrics.SetSchedulerRunning(true)
	s.publisher.Publish(events.New(events.SchedulerStarted, cfg))
	s.logger.Infof(providers.TypeBackup, "Auto-backup for %s every %.2fh keeping %d", cfg.Username, cfg.Interval, cfg.KeepLast)
}

// stopCurrent signals the current worker and waits up to stopTimeout for it to exit.
// Signalling cancels an in-flight fetch; a worker already committing is detached
// and exits after the commit completes.
func (s *Scheduler) stopCurrent() *worker {
	s.stateMu.Lock()
	w := s.current
	s.current = nil
	s.stateMu.Unlock()

	if w == nil {
		return nil
	}
	w.signal()
	s.metrics.SetSchedulerRunning(false)

	timer := time.NewTimer(s.stopTimeout)
	defer timer.Stop()
	select {
	case <-w.done:
	case <-timer.C:
		s.logger.Warnf(providers.TypeBackup, "Auto-backup worker for %s did not exit within %s", w.cfg.Username, s.stopTimeout)
	}
	return w
}

func (s *Scheduler) run(w *worker) {
	defer close(w.done)
	defer w.alive.Store(false)
	defer w.cancel()

	for {
		if w.stopping.Load() {
			return
		}
		if err := s.runner.RunCycle(w.ctx, w.cfg); err != nil {
			if w.ctx.Err() != nil {
				s.logger.Infof(providers.TypeBackup, "Scheduled backup for %s cancelled: %s", w.cfg.Username, err)
				return
			}
			s.logger.Errorf(providers.TypeBackup, "Scheduled backup for %s failed: %s", w.cfg.Username, err)
		}
		if !s.sleep(w, w.cfg.IntervalDuration()) {
			return
		}
	}
}

// sleep waits for d in checkpoint-sized steps. It returns false as soon as the worker is signalled.
func (s *Scheduler) sleep(w *worker, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return !w.stopping.Load()
		}
		timer := time.NewTimer(min(remaining, s.checkpoint))
		select {
		case <-w.stop:
			timer.Stop()
			return false
		case <-timer.C:
		}
		if w.stopping.Load() {
			return false
		}
	}
}
