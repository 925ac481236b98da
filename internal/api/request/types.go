package request

import (
	"strings"

	"github.com/mcoot/competition-console/internal/model"
)

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CompetitorRequest is the request body for creating or updating a competitor
type CompetitorRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Language  string `json:"language"`
	Country   string `json:"country"`
}

// Fields converts the request into model fields
func (r CompetitorRequest) Fields() model.CompetitorFields {
	return model.CompetitorFields{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Language:  model.Language(r.Language),
		Country:   r.Country,
	}
}

// AssignNumbersRequest is the request body for drawing competitor numbers
type AssignNumbersRequest struct {
	// Confirm must be set to replace numbers that are already assigned
	Confirm bool `json:"confirm"`
}

// SessionRequest addresses a session for start and stop
type SessionRequest struct {
	CompetitorID string `json:"competitor_id"`
	Day          int    `json:"day"`
	Module       string `json:"module"`
}

// Key converts the request into a session key
func (r SessionRequest) Key() model.SessionKey {
	return model.SessionKey{
		CompetitorID: model.CompetitorID(strings.TrimSpace(r.CompetitorID)),
		Day:          r.Day,
		Module:       model.Module(strings.ToLower(strings.TrimSpace(r.Module))),
	}
}
