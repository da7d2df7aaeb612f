package logsink

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMaxInFlight bounds concurrent pushes when none is configured.
const DefaultMaxInFlight = 64

// Shipper sends records to a Sink in the background. At most maxInFlight
// pushes run at once; records arriving beyond that are dropped and counted.
// Push errors are counted and otherwise ignored.
type Shipper struct {
	sink        Sink
	sem         chan struct{}
	pushTimeout time.Duration
	wg          sync.WaitGroup

	dropped atomic.Int64
	failed  atomic.Int64
}

func NewShipper(sink Sink, maxInFlight int, pushTimeout time.Duration) *Shipper {
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	return &Shipper{
		sink:        sink,
		sem:         make(chan struct{}, maxInFlight),
		pushTimeout: pushTimeout,
	}
}

// Ship queues rec for delivery and returns immediately.
func (s *Shipper) Ship(rec Record) {
	select {
	case s.sem <- struct{}{}:
	default:
		s.dropped.Add(1)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { <-s.sem }()

		ctx := context.Background()
		if s.pushTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.pushTimeout)
			defer cancel()
		}
		if err := s.sink.Push(ctx, rec); err != nil {
			s.failed.Add(1)
		}
	}()
}

// Drain waits up to timeout for in-flight pushes and reports whether all of
// them finished.
func (s *Shipper) Drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Dropped is the number of records discarded because the shipper was full.
func (s *Shipper) Dropped() int64 { return s.dropped.Load() }

// Failed is the number of pushes the sink rejected.
func (s *Shipper) Failed() int64 { return s.failed.Load() }
