package model

import (
	"errors"
	"testing"
	"time"
)

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{-5, "00:00"},
		{9, "00:09"},
		{61, "01:01"},
		{599, "09:59"},
		{600, "10:00"},
		{3600, "60:00"},
		{6000, "100:00"},
	}

	for _, tt := range tests {
		if got := FormatSeconds(tt.seconds); got != tt.want {
			t.Errorf("FormatSeconds(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestSessionKeyValidate(t *testing.T) {
	tests := []struct {
		name string
		key  SessionKey
		want error
	}{
		{"valid", SessionKey{"c1", 1, ModuleMorning}, nil},
		{"last day", SessionKey{"c1", 3, ModuleEvening}, nil},
		{"missing competitor", SessionKey{"", 1, ModuleMorning}, ErrCompetitorNotFound},
		{"day zero", SessionKey{"c1", 0, ModuleMorning}, ErrInvalidDay},
		{"day past end", SessionKey{"c1", 4, ModuleMorning}, ErrInvalidDay},
		{"unknown module", SessionKey{"c1", 1, "afternoon"}, ErrInvalidModule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.key.Validate(3); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSessionTiming(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s := &Session{TotalTime: 100}

	if s.IsRunning() {
		t.Fatal("idle session reported running")
	}
	if got := s.LiveTotal(start); got != 100 {
		t.Errorf("idle LiveTotal = %d, want 100", got)
	}

	s.StartTime = &start
	if !s.IsRunning() {
		t.Fatal("started session not running")
	}
	// Partial seconds are dropped
	if got := s.ElapsedSince(start.Add(59*time.Second + 999*time.Millisecond)); got != 59 {
		t.Errorf("ElapsedSince = %d, want 59", got)
	}
	if got := s.LiveTotal(start.Add(30 * time.Second)); got != 130 {
		t.Errorf("LiveTotal = %d, want 130", got)
	}
	// A clock behind the start time never counts backwards
	if got := s.ElapsedSince(start.Add(-time.Minute)); got != 0 {
		t.Errorf("ElapsedSince before start = %d, want 0", got)
	}
}

func TestSessionIsCapped(t *testing.T) {
	tests := []struct {
		total int
		want  bool
	}{
		{0, false},
		{599, false},
		{600, true},
		{660, true},
	}

	for _, tt := range tests {
		s := &Session{TotalTime: tt.total}
		if got := s.IsCapped(600); got != tt.want {
			t.Errorf("IsCapped with total %d = %v, want %v", tt.total, got, tt.want)
		}
	}
}

func TestSessionCloneIsDeep(t *testing.T) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s := &Session{ID: "s1", StartTime: &start}

	cp := s.Clone()
	*cp.StartTime = start.Add(time.Hour)

	if !s.StartTime.Equal(start) {
		t.Error("mutating the clone changed the original start time")
	}
}

func TestCompetitorFieldsNormalize(t *testing.T) {
	got := CompetitorFields{
		FirstName: "  Amélie ",
		LastName:  "Dupont ",
		Language:  " French",
		Country:   "fr ",
	}.Normalize()

	want := CompetitorFields{FirstName: "Amélie", LastName: "Dupont", Language: LanguageFrench, Country: "FR"}
	if got != want {
		t.Errorf("Normalize() = %+v, want %+v", got, want)
	}
}

func TestCompetitorCloneIsDeep(t *testing.T) {
	n := 4
	c := &Competitor{ID: "c1", Number: &n}

	cp := c.Clone()
	*cp.Number = 9

	if *c.Number != 4 {
		t.Error("mutating the clone changed the original number")
	}
	if !cp.HasNumber() || (&Competitor{}).HasNumber() {
		t.Error("HasNumber mismatch")
	}
}
