package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Driver runs a cycle function on a fixed interval. The first cycle starts
// immediately and cycles never overlap. Stop prevents future cycles; a cycle
// already in flight finishes on its own.
type Driver struct {
	name     string
	interval time.Duration
	cycle    func(ctx context.Context)
	log      zerolog.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewDriver(name string, interval time.Duration, cycle func(ctx context.Context), log zerolog.Logger) *Driver {
	return &Driver{
		name:     name,
		interval: interval,
		cycle:    cycle,
		log:      log.With().Str("driver", name).Logger(),
	}
}

// Start launches the loop. It returns false when the driver is already running.
func (d *Driver) Start(ctx context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return false
	}
	d.running = true
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	go d.loop(ctx, d.stop, d.done)

	d.log.Info().Dur("interval", d.interval).Msg("started")
	return true
}

// Stop returns without waiting for an in-flight cycle
func (d *Driver) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return false
	}
	d.running = false
	close(d.stop)

	d.log.Info().Msg("stopped")
	return true
}

func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Wait blocks until the loop has exited or ctx is done
func (d *Driver) Wait(ctx context.Context) error {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Driver) loop(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	// Cycles run detached from the loop context so stopping never cuts one short
	cycleCtx := context.WithoutCancel(ctx)
	d.cycle(cycleCtx)

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			d.cycle(cycleCtx)
		}
	}
}
