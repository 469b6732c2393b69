package pdk

import (
	"sync"
	"time"
)

// Errors logged shortly before the last event still count as recent
const recentErrorWindow = 2 * time.Minute

/*
 * Runtime state of a single agent instance,
 * collected by the core service and used to tell
 * whether the agent is working as expected
 */
type State struct {
	lastEventAt time.Time
	lastErrorAt time.Time
	lastError   string
	events      int
	errors      int

	mx sync.RWMutex
}

/*
 * Public copy of the state fields
 */
type StateInfo struct {
	LastEventAt *time.Time `json:"lastEventAt,omitempty"`
	LastErrorAt *time.Time `json:"lastErrorAt,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
	Events      int        `json:"events"`
	Errors      int        `json:"errors"`
}

func NewState() *State {
	return &State{}
}

/*
 * Remember a new event creation time
 */
func (s *State) EventCreated(ts time.Time) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if ts.After(s.lastEventAt) {
		s.lastEventAt = ts
	}
	s.events++
}

/*
 * Remember an error logged by the agent
 */
func (s *State) ErrorLogged(ts time.Time, message string) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if ts.After(s.lastErrorAt) {
		s.lastErrorAt = ts
		s.lastError = message
	}
	s.errors++
}

/*
 * Check whether the last event was created within the given amount of days
 */
func (s *State) EventCreatedWithin(days int) bool {
	s.mx.RLock()
	defer s.mx.RUnlock()

	if s.lastEventAt.IsZero() {
		return false
	}

	return time.Since(s.lastEventAt) < time.Duration(days)*24*time.Hour
}

/*
 * Check whether an error was logged after the last event
 * or just a moment before it
 */
func (s *State) RecentErrorLogs() bool {
	s.mx.RLock()
	defer s.mx.RUnlock()

	if s.lastEventAt.IsZero() || s.lastErrorAt.IsZero() {
		return false
	}

	return s.lastErrorAt.After(s.lastEventAt.Add(-recentErrorWindow))
}

func (s *State) Info() *StateInfo {
	s.mx.RLock()
	defer s.mx.RUnlock()

	info := &StateInfo{
		LastError: s.lastError,
		Events:    s.events,
		Errors:    s.errors,
	}

	if !s.lastEventAt.IsZero() {
		ts := s.lastEventAt
		info.LastEventAt = &ts
	}

	if !s.lastErrorAt.IsZero() {
		ts := s.lastErrorAt
		info.LastErrorAt = &ts
	}

	return info
}
