package logsink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type memSink struct {
	mu      sync.Mutex
	records []Record
	block   chan struct{}
	err     error
}

func (s *memSink) Push(ctx context.Context, rec Record) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return s.err
}

func (s *memSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func TestShipper_DeliversAndDrains(t *testing.T) {
	sink := &memSink{}
	s := NewShipper(sink, 8, time.Second)
	for range 5 {
		s.Ship(Record{Message: "x", Level: LevelInfo})
	}
	assert.True(t, s.Drain(time.Second))
	assert.Equal(t, 5, sink.Len())
	assert.Zero(t, s.Dropped())
	assert.Zero(t, s.Failed())
}

func TestShipper_DropsWhenFull(t *testing.T) {
	sink := &memSink{block: make(chan struct{})}
	s := NewShipper(sink, 2, time.Second)

	for range 5 {
		s.Ship(Record{Message: "x"})
	}
	assert.Equal(t, int64(3), s.Dropped())

	close(sink.block)
	assert.True(t, s.Drain(time.Second))
	assert.Equal(t, 2, sink.Len())
}

func TestShipper_DrainTimesOut(t *testing.T) {
	sink := &memSink{block: make(chan struct{})}
	defer close(sink.block)
	s := NewShipper(sink, 1, 0)

	s.Ship(Record{Message: "stuck"})
	start := time.Now()
	assert.False(t, s.Drain(50*time.Millisecond))
	assert.Less(t, time.Since(start), time.Second)
}

func TestShipper_CountsFailures(t *testing.T) {
	sink := &memSink{err: errors.New("boom")}
	s := NewShipper(sink, 0, time.Second)
	s.Ship(Record{})
	s.Ship(Record{})
	assert.True(t, s.Drain(time.Second))
	assert.Equal(t, int64(2), s.Failed())
}
