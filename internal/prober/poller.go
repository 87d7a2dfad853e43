// Package prober drives the periodic comparison of the canonical Bitcoin
// height with the height reported by the Bitcoin canister.
package prober

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wemix/btcprobe/internal/height"
	"github.com/wemix/btcprobe/internal/metrics"
	"github.com/wemix/btcprobe/pkg/logger"
)

// DefaultPollInterval is the default interval between poll cycles
const DefaultPollInterval = 10 * time.Second

// ErrAlreadyRunning is returned when Run is called on a running poller
var ErrAlreadyRunning = errors.New("poller already running")

// State is the lifecycle state of a Poller
type State int

const (
	// StateIdle means Run has not been called or has returned
	StateIdle State = iota
	// StateRunning means the poll loop is active
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Recorder receives the results of poll cycles.
// *metrics.Registry is the production implementation.
type Recorder interface {
	Observe(sample metrics.Sample)
	IncCycleFailures()
}

// Options tunes the behaviour of a Poller
type Options struct {
	// ContinueOnError keeps the loop running after a failed cycle. The
	// error is logged, counted, and the previous gauge values are kept.
	// When false, the first failed cycle ends Run with that error.
	ContinueOnError bool
}

// Poller periodically reads two height sources and publishes the result.
//
// Thread-safe: State and LastSample may be called while Run is active.
type Poller struct {
	// Core dependencies (injected)
	target   height.Source
	canister height.Source
	recorder Recorder
	logger   *logger.Logger

	interval time.Duration
	opts     Options

	// State (protected by mu)
	state      State
	lastSample *metrics.Sample
	mu         sync.RWMutex
}

// NewPoller creates a Poller in the idle state. A non-positive interval is
// replaced with DefaultPollInterval.
func NewPoller(target, canister height.Source, recorder Recorder, interval time.Duration, opts Options, logger *logger.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Poller{
		target:   target,
		canister: canister,
		recorder: recorder,
		logger:   logger,
		interval: interval,
		opts:     opts,
		state:    StateIdle,
	}
}

// Run executes poll cycles until ctx is cancelled or, in fail-fast mode, a
// cycle fails. The first cycle starts immediately.
//
// Returns nil when ctx is cancelled and the cycle error otherwise.
func (p *Poller) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.state == StateRunning {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	p.state = StateRunning
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.state = StateIdle
		p.mu.Unlock()
	}()

	p.logger.Info("starting poll loop",
		zap.Duration("interval", p.interval),
		zap.Bool("continue_on_error", p.opts.ContinueOnError))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poll loop stopped")
			return nil

		case <-timer.C:
			if _, err := p.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					p.logger.Info("poll loop stopped")
					return nil
				}
				if !p.opts.ContinueOnError {
					return err
				}
				p.recorder.IncCycleFailures()
				p.logger.Warn("poll cycle failed, keeping previous values", zap.Error(err))
			}
			timer.Reset(p.interval)
		}
	}
}

// RunOnce performs a single fetch-compute-publish cycle. When either fetch
// fails nothing is published.
func (p *Poller) RunOnce(ctx context.Context) (metrics.Sample, error) {
	target, err := p.target.Height(ctx)
	if err != nil {
		return metrics.Sample{}, fmt.Errorf("target height: %w", err)
	}

	canister, err := p.canister.Height(ctx)
	if err != nil {
		return metrics.Sample{}, fmt.Errorf("canister height: %w", err)
	}

	sample := metrics.NewSample(target, canister)
	p.recorder.Observe(sample)

	p.mu.Lock()
	p.lastSample = &sample
	p.mu.Unlock()

	p.logger.Info("heights updated",
		zap.Uint32("target_height", sample.Target),
		zap.Uint32("canister_height", sample.Canister),
		zap.Int64("difference", sample.Difference))

	return sample, nil
}

// State returns the current lifecycle state.
func (p *Poller) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// LastSample returns the most recent successful sample, if any.
func (p *Poller) LastSample() (metrics.Sample, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.lastSample == nil {
		return metrics.Sample{}, false
	}
	return *p.lastSample, true
}
