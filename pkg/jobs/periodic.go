package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of periodic work.
type Task func(context.Context) error

// Periodic runs a task once at start and then on every tick until stopped.
type Periodic struct {
	name     string
	interval time.Duration
	task     Task
	logger   *zap.Logger

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewPeriodic builds a periodic runner. Intervals below one second are raised to one second.
func NewPeriodic(name string, interval time.Duration, task Task, logger *zap.Logger) *Periodic {
	if interval < time.Second {
		interval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Periodic{name: name, interval: interval, task: task, logger: logger, stop: make(chan struct{})}
}

// Start launches the background loop.
func (p *Periodic) Start(ctx context.Context) {
	p.logger.Info("starting periodic task", zap.String("task", p.name), zap.Duration("interval", p.interval))
	p.wg.Add(1)
	go p.loop(ctx)
}

// Stop ends the loop and waits for the current run to return.
func (p *Periodic) Stop() {
	p.once.Do(func() { close(p.stop) })
	p.wg.Wait()
}

func (p *Periodic) loop(ctx context.Context) {
	defer p.wg.Done()
	p.run(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.run(ctx)
		case <-p.stop:
			p.logger.Info("periodic task stopped", zap.String("task", p.name))
			return
		case <-ctx.Done():
			p.logger.Info("periodic task cancelled", zap.String("task", p.name))
			return
		}
	}
}

func (p *Periodic) run(ctx context.Context) {
	start := time.Now()
	if err := p.task(ctx); err != nil {
		p.logger.Error("periodic task failed", zap.String("task", p.name), zap.Error(err))
		return
	}
	p.logger.Debug("periodic task completed", zap.String("task", p.name), zap.Duration("took", time.Since(start)))
}
