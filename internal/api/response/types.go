package response

import (
	"time"

	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/services/auth"
	"github.com/mcoot/competition-console/internal/services/numbers"
	"github.com/mcoot/competition-console/internal/services/timer"
)

// Admin represents an admin account in API responses
type Admin struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AdminFromModel converts a model.Admin to a response Admin
func AdminFromModel(a *model.Admin) Admin {
	return Admin{
		ID:    string(a.ID),
		Email: a.Email,
		Role:  a.Role,
	}
}

// AuthResponse is the response for the login endpoint
type AuthResponse struct {
	Admin        Admin     `json:"admin"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Admin: Admin{
			ID:    string(s.AdminID),
			Email: s.Email,
			Role:  model.RoleAdmin,
		},
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Competitor represents a competitor in API responses
type Competitor struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Language         string    `json:"language"`
	Country          string    `json:"country"`
	CountryName      string    `json:"country_name,omitempty"`
	CompetitorNumber *int      `json:"competitor_number"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CompetitorFromModel converts a model.Competitor; countryName may be empty
func CompetitorFromModel(c *model.Competitor, countryName string) Competitor {
	return Competitor{
		ID:               string(c.ID),
		FirstName:        c.FirstName,
		LastName:         c.LastName,
		Language:         string(c.Language),
		Country:          c.Country,
		CountryName:      countryName,
		CompetitorNumber: c.Number,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// CompetitorList is the response for listing competitors
type CompetitorList struct {
	Competitors []Competitor `json:"competitors"`
}

// NumberStatus is the current numbering state
type NumberStatus struct {
	Locked     bool  `json:"locked"`
	Total      int   `json:"total"`
	Assigned   int   `json:"assigned"`
	Unnumbered int   `json:"unnumbered"`
	Missing    []int `json:"missing"`
}

// NumberStatusFromModel converts a numbers.Status
func NumberStatusFromModel(s *numbers.Status) NumberStatus {
	missing := s.Missing
	if missing == nil {
		missing = []int{}
	}
	return NumberStatus{
		Locked:     s.Locked,
		Total:      s.Total,
		Assigned:   s.Assigned,
		Unnumbered: s.Unnumbered,
		Missing:    missing,
	}
}

// AssignNumbersResponse is the response after drawing numbers
type AssignNumbersResponse struct {
	Numbers map[string]int `json:"numbers"`
}

// AssignNumbersFromModel converts an assignment map
func AssignNumbersFromModel(assigned map[model.CompetitorID]int) AssignNumbersResponse {
	out := make(map[string]int, len(assigned))
	for id, n := range assigned {
		out[string(id)] = n
	}
	return AssignNumbersResponse{Numbers: out}
}

// Session represents a session timer in API responses
type Session struct {
	ID           string     `json:"id"`
	CompetitorID string     `json:"competitor_id"`
	Day          int        `json:"day"`
	Module       string     `json:"module"`
	StartTime    *time.Time `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	TotalTime    int        `json:"total_time"`
	LiveTotal    int        `json:"live_total"`
	Remaining    int        `json:"remaining"`
	Running      bool       `json:"running"`
	Capped       bool       `json:"capped"`
	Display      string     `json:"display"`
}

// SessionFromView converts a timer.SessionView
func SessionFromView(v *timer.SessionView) Session {
	return Session{
		ID:           string(v.ID),
		CompetitorID: string(v.CompetitorID),
		Day:          v.Day,
		Module:       string(v.Module),
		StartTime:    v.StartTime,
		EndTime:      v.EndTime,
		TotalTime:    v.TotalTime,
		LiveTotal:    v.LiveTotal,
		Remaining:    v.Remaining,
		Running:      v.Running,
		Capped:       v.Capped,
		Display:      v.Display,
	}
}

// BoardRow is one competitor's sessions for a day
type BoardRow struct {
	Competitor Competitor          `json:"competitor"`
	Sessions   map[string]*Session `json:"sessions"`
}

// Board is the response for the day board
type Board struct {
	Day    int        `json:"day"`
	Cap    int        `json:"cap"`
	Active *Session   `json:"active"`
	Rows   []BoardRow `json:"rows"`
}

// BoardFromModel converts the controller's board rows
func BoardFromModel(day, capSeconds int, rows []timer.BoardRow, active *timer.SessionView) Board {
	out := Board{Day: day, Cap: capSeconds, Rows: make([]BoardRow, len(rows))}
	for i, row := range rows {
		sessions := make(map[string]*Session, len(model.Modules))
		for _, m := range model.Modules {
			if v := row.Sessions[m]; v != nil {
				s := SessionFromView(v)
				sessions[string(m)] = &s
			} else {
				sessions[string(m)] = nil
			}
		}
		out.Rows[i] = BoardRow{
			Competitor: CompetitorFromModel(&row.Competitor, ""),
			Sessions:   sessions,
		}
	}
	if active != nil {
		s := SessionFromView(active)
		out.Active = &s
	}
	return out
}

// ActiveSession is the response for the active timer lookup
type ActiveSession struct {
	Active *Session `json:"active"`
}

// Health is the health check response
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}
