package services

import (
	"log"
	"sync"
	"time"
)

// Scheduler runs a task once after a delay, detached from the caller.
type Scheduler interface {
	Schedule(delay time.Duration, task func())
}

// TimerScheduler is the in-process Scheduler. Tasks must re-check state
// themselves; Stop only drops tasks that have not fired yet.
type TimerScheduler struct {
	mu      sync.Mutex
	nextID  uint64
	timers  map[uint64]*time.Timer
	stopped bool
	running sync.WaitGroup
}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{timers: make(map[uint64]*time.Timer)}
}

func (s *TimerScheduler) Schedule(delay time.Duration, task func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	id := s.nextID
	s.nextID++
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if _, ok := s.timers[id]; !ok {
			s.mu.Unlock()
			return
		}
		delete(s.timers, id)
		s.running.Add(1)
		s.mu.Unlock()

		defer s.running.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[scheduler] task panicked: %v", r)
			}
		}()
		task()
	})
}

// Pending is the number of armed timers.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels pending timers and waits for running tasks to finish.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.running.Wait()
}
