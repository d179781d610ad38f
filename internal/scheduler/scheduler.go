// Package scheduler debounces reconciliation passes per community.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// PassFunc runs one reconciliation pass for a community.
type PassFunc func(ctx context.Context, communityID string) error

// Option configures optional behaviour for the Scheduler.
type Option func(*Scheduler)

// WithLogger overrides the logger used to report pass failures.
func WithLogger(logger *log.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// Scheduler coalesces bursts of activity into at most one pending pass per
// community. Each community is either idle or armed with a single running
// timer; events arriving while armed are absorbed. State is owned by the
// instance and dies with it.
type Scheduler struct {
	cooldown time.Duration
	run      PassFunc
	logger   *log.Logger

	mu      sync.Mutex
	armed   map[string]*time.Timer
	stopped bool
}

// New constructs a Scheduler that invokes run after cooldown has elapsed
// since the first event that armed a community.
func New(cooldown time.Duration, run PassFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		cooldown: cooldown,
		run:      run,
		logger:   log.New(log.Writer(), "[scheduler] ", log.LstdFlags),
		armed:    make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify records an activity event for the community, arming the cooldown
// timer when the community is idle. Safe for concurrent use.
func (s *Scheduler) Notify(communityID string) {
	s.NotifyAfter(communityID, s.cooldown)
}

// NotifyAfter arms the community with an explicit delay, used for the
// longer warm-up before an initial pass. If the community is already armed
// the call is absorbed and the existing timer keeps its deadline.
func (s *Scheduler) NotifyAfter(communityID string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if _, ok := s.armed[communityID]; ok {
		return
	}
	s.armed[communityID] = time.AfterFunc(delay, func() {
		s.fire(communityID)
	})
}

// Armed reports whether a pass is currently pending for the community.
func (s *Scheduler) Armed(communityID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.armed[communityID]
	return ok
}

// Stop cancels every pending timer. Passes already running are unaffected.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, timer := range s.armed {
		timer.Stop()
		delete(s.armed, id)
	}
}

func (s *Scheduler) fire(communityID string) {
	// Disarm before running so a failed pass still returns the community
	// to idle and a later burst can arm again.
	s.mu.Lock()
	delete(s.armed, communityID)
	stopped := s.stopped
	s.mu.Unlock()

	if stopped {
		return
	}

	if err := s.run(context.Background(), communityID); err != nil {
		s.logger.Printf("pass failed (community=%s): %v", communityID, err)
	}
}
