package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Status is the two-valued polling state.
type Status string

const (
	StatusRunning Status = "RUNNING"
	StatusStopped Status = "STOPPED"
)

// Poller owns a single background periodic task behind a three-operation
// control surface. One mutex guards the state and the cancel handle, making
// Status linearizable with respect to Start/Stop.
//
// Ticks are not queued: if a tick's work is still running when the next tick
// fires, the next tick starts anyway. This no-back-pressure behavior is a
// known limitation, kept deliberately.
type Poller struct {
	interval time.Duration
	run      func(context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a stopped poller. The interval is validated by configuration
// before construction (minimum 1s).
func New(interval time.Duration, run func(context.Context)) *Poller {
	return &Poller{
		interval: interval,
		run:      run,
	}
}

// Start transitions to Running and begins ticking. Calling Start while
// already running is a no-op: there is never more than one active ticker.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		log.Debug().Msg("Poller already running, start ignored")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	go p.loop(ctx)

	log.Info().Dur("interval", p.interval).Msg("Poller started")
}

// Stop cancels the ticker and transitions to Stopped. It does not wait for
// in-flight tick work: a tick already dispatched completes and its effects
// remain valid. Calling Stop while already stopped is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel == nil {
		log.Debug().Msg("Poller already stopped, stop ignored")
		return
	}

	p.cancel()
	p.cancel = nil

	log.Info().Msg("Poller stopped")
}

// Status reports Running or Stopped, consistent with the last completed
// Start/Stop call.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return StatusRunning
	}
	return StatusStopped
}

// loop fires ticks until the poller context is cancelled. Each tick runs in
// its own goroutine so a slow cycle never delays the ticker or a Stop call.
// The cancellable context only schedules future ticks: dispatched work gets
// a fresh context, so Stop never aborts a cycle already in flight.
func (p *Poller) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go p.tick()
		}
	}
}

// tick runs one cycle. A panicking or failing cycle is contained here: it
// is logged and swallowed so the timer itself never stops.
func (p *Poller) tick() {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Polling tick panicked, timer continues")
		}
	}()

	p.run(context.Background())
}
