// Package sink delivers decoded frames to their consumers: the log, UDP
// listeners, an MQTT broker, the frame database and the trunking tracker.
// Sinks are fed through a Dispatcher so that a slow consumer never stalls
// the decoder.
package sink

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dbehnke/p25cai/internal/lookup"
	"github.com/dbehnke/p25cai/internal/protocol/p25"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("sink: dispatcher closed")

// Sink consumes decoded frames.
type Sink interface {
	Name() string
	Send(ctx context.Context, f p25.Frame) error
	Close() error
}

// Describer builds the records of the record based sinks.
type Describer struct {
	Session string
	Lookup  lookup.AliasLookup // optional
}

// Describe returns the annotated record of a frame.
func (d Describer) Describe(f p25.Frame) Record {
	r := NewRecord(f)
	r.Session = d.Session
	r.Annotate(d.Lookup)
	return r
}

// Stats counts dispatcher traffic. Delivered and Errors are keyed by sink
// name.
type Stats struct {
	Submitted uint64
	Dropped   uint64
	Delivered map[string]uint64
	Errors    map[string]uint64
}

// Dispatcher fans frames out to sinks from one worker goroutine.
type Dispatcher struct {
	logger *log.Logger
	sinks  []Sink
	queue  chan p25.Frame
	done   chan struct{}

	mu     sync.Mutex
	closed bool
	stats  Stats
}

// NewDispatcher starts a dispatcher with a queue of size frames. ctx is
// passed to every Send.
func NewDispatcher(ctx context.Context, logger *log.Logger, size int, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	if size <= 0 {
		size = 1
	}
	d := &Dispatcher{
		logger: logger.WithPrefix("sink"),
		sinks:  sinks,
		queue:  make(chan p25.Frame, size),
		done:   make(chan struct{}),
		stats: Stats{
			Delivered: make(map[string]uint64),
			Errors:    make(map[string]uint64),
		},
	}
	go d.run(ctx)
	return d
}

// Submit queues a frame without blocking. A full queue drops the frame
// and returns false.
func (d *Dispatcher) Submit(f p25.Frame) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false, ErrClosed
	}
	d.stats.Submitted++
	select {
	case d.queue <- f:
		return true, nil
	default:
		d.stats.Dropped++
		return false, nil
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)
	for f := range d.queue {
		for _, s := range d.sinks {
			err := s.Send(ctx, f)
			d.mu.Lock()
			if err != nil {
				d.stats.Errors[s.Name()]++
			} else {
				d.stats.Delivered[s.Name()]++
			}
			d.mu.Unlock()
			if err != nil {
				d.logger.Warn("send failed", "sink", s.Name(), "err", err)
			}
		}
	}
}

// Close delivers the queued frames, stops the worker and closes every
// sink.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done

	var errs []error
	for _, s := range d.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.stats
	out.Delivered = make(map[string]uint64, len(d.stats.Delivered))
	for k, v := range d.stats.Delivered {
		out.Delivered[k] = v
	}
	out.Errors = make(map[string]uint64, len(d.stats.Errors))
	for k, v := range d.stats.Errors {
		out.Errors[k] = v
	}
	return out
}
