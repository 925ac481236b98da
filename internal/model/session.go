package model

import (
	"fmt"
	"time"
)

// SessionID uniquely identifies a session record
type SessionID string

// Module is a timed slot within a competition day
type Module string

const (
	ModuleMorning Module = "morning"
	ModuleEvening Module = "evening"
)

// Modules lists the modules of a day in order
var Modules = []Module{ModuleMorning, ModuleEvening}

// Valid reports whether the module is one of the supported values
func (m Module) Valid() bool {
	return m == ModuleMorning || m == ModuleEvening
}

// SessionKey addresses the single session of a competitor within a (day, module) slot
type SessionKey struct {
	CompetitorID CompetitorID `json:"competitorId"`
	Day          int          `json:"day"`
	Module       Module       `json:"module"`
}

// String renders the key as "competitor-day-module"
func (k SessionKey) String() string {
	return fmt.Sprintf("%s-%d-%s", k.CompetitorID, k.Day, k.Module)
}

// Validate checks the key against the number of competition days
func (k SessionKey) Validate(days int) error {
	if k.CompetitorID == "" {
		return ErrCompetitorNotFound
	}
	if k.Day < 1 || k.Day > days {
		return ErrInvalidDay
	}
	if !k.Module.Valid() {
		return ErrInvalidModule
	}
	return nil
}

// Session accumulates the timed internet access of one competitor in one slot
type Session struct {
	ID           SessionID    `json:"id"`
	CompetitorID CompetitorID `json:"competitorId"`
	Day          int          `json:"day"`
	Module       Module       `json:"module"`

	// StartTime is set only while the timer is running
	StartTime *time.Time `json:"startTime"`
	// EndTime is the last stop time
	EndTime *time.Time `json:"endTime"`
	// TotalTime is the accumulated time in whole seconds
	TotalTime int `json:"totalTime"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Key returns the composite key of the session
func (s *Session) Key() SessionKey {
	return SessionKey{CompetitorID: s.CompetitorID, Day: s.Day, Module: s.Module}
}

// IsRunning reports whether the timer is currently running
func (s *Session) IsRunning() bool {
	return s.StartTime != nil
}

// ElapsedSince returns the whole seconds between the start time and now
func (s *Session) ElapsedSince(now time.Time) int {
	if s.StartTime == nil {
		return 0
	}
	elapsed := int(now.Sub(*s.StartTime) / time.Second)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// LiveTotal returns the accumulated time including the running interval
func (s *Session) LiveTotal(now time.Time) int {
	return s.TotalTime + s.ElapsedSince(now)
}

// IsCapped reports whether the stored total has reached the cap
func (s *Session) IsCapped(capSeconds int) bool {
	return s.TotalTime >= capSeconds
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	cp := *s
	if s.StartTime != nil {
		t := *s.StartTime
		cp.StartTime = &t
	}
	if s.EndTime != nil {
		t := *s.EndTime
		cp.EndTime = &t
	}
	return &cp
}
