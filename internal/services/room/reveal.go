package room

import (
	"sync"
	"time"
)

// revealScheduler owns the pending draw-result broadcast of each room.
// At most one reveal is pending per room; scheduling a new one or
// cancelling drops the previous timer.
type revealScheduler struct {
	mu    sync.Mutex
	tasks map[string]*revealTask
}

type revealTask struct {
	token string
	timer *time.Timer
}

func newRevealScheduler() *revealScheduler {
	return &revealScheduler{tasks: make(map[string]*revealTask)}
}

func (s *revealScheduler) schedule(code, token string, delay time.Duration, fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.tasks[code]; ok {
		prev.timer.Stop()
	}
	s.tasks[code] = &revealTask{
		token: token,
		timer: time.AfterFunc(delay, fire),
	}
}

// cancel stops the pending reveal of code, if any.
func (s *revealScheduler) cancel(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[code]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(s.tasks, code)
	return true
}

// claim removes the task of code if it still carries token. A fired timer
// whose task was cancelled or replaced gets false and must do nothing.
func (s *revealScheduler) claim(code, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[code]
	if !ok || t.token != token {
		return false
	}
	delete(s.tasks, code)
	return true
}

func (s *revealScheduler) pending(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[code]
	return ok
}

// stopAll cancels every pending reveal. Used at shutdown.
func (s *revealScheduler) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, code)
	}
}
