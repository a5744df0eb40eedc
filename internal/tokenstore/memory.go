package tokenstore

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

type entry[T Tokener] struct {
	record   T
	deadline time.Time
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	now func() time.Time
}

// WithClock overrides the time source, mostly for tests
func WithClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) {
		o.now = now
	}
}

// MemoryStore is an in-process Store. Expired entries are dropped lazily on
// read and by Sweep.
type MemoryStore[T Tokener] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a store whose entries live for ttl
func NewMemoryStore[T Tokener](ttl time.Duration, opts ...MemoryOption) *MemoryStore[T] {
	o := memoryOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
		now:     o.now,
	}
}

func (s *MemoryStore[T]) Put(_ context.Context, key string, record T) error {
	if s.ttl <= 0 {
		return ErrInvalidTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry[T]{record: record, deadline: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore[T]) Get(_ context.Context, key string) (T, bool, error) {
	rec, ok := s.lookup(key)
	return rec, ok, nil
}

func (s *MemoryStore[T]) Validate(_ context.Context, key, candidate string) (bool, error) {
	rec, ok := s.lookup(key)
	return validate(rec, ok, candidate), nil
}

func (s *MemoryStore[T]) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore[T]) lookup(key string) (T, bool) {
	var zero T
	now := s.now()

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if now.Before(e.deadline) {
		return e.record, true
	}

	s.mu.Lock()
	// A concurrent Put may have refreshed the entry
	if cur, ok := s.entries[key]; ok && !now.Before(cur.deadline) {
		delete(s.entries, key)
	}
	s.mu.Unlock()
	return zero, false
}

// Sweep evicts every expired entry and returns how many were removed
func (s *MemoryStore[T]) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if !now.Before(e.deadline) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, expired ones included
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// StartSweeper schedules Sweep every interval. The caller owns the returned
// scheduler and must shut it down.
func (s *MemoryStore[T]) StartSweeper(interval time.Duration) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if n := s.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Msg("swept expired tokens")
			}
		}),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}

	scheduler.Start()
	return scheduler, nil
}
