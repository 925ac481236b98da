package model

import (
	"strings"
	"time"
)

// CompetitorID uniquely identifies a competitor
type CompetitorID string

// Language is the working language a competitor registered with
type Language string

const (
	LanguageEnglish Language = "english"
	LanguageFrench  Language = "french"
)

// Languages lists every supported language in display order
var Languages = []Language{LanguageEnglish, LanguageFrench}

// Valid reports whether the language is one of the supported values
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageFrench
}

// Competitor is a registered participant of the competition
type Competitor struct {
	ID        CompetitorID `json:"id"`
	FirstName string       `json:"firstName"`
	LastName  string       `json:"lastName"`
	Language  Language     `json:"language"`
	Country   string       `json:"country"`

	// Number is the draw position, nil until the numbers are randomized
	Number *int `json:"competitorNumber,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CompetitorFields holds the editable attributes of a competitor
type CompetitorFields struct {
	FirstName string
	LastName  string
	Language  Language
	Country   string
}

// Normalize trims whitespace and canonicalises the country code
func (f CompetitorFields) Normalize() CompetitorFields {
	return CompetitorFields{
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Language:  Language(strings.ToLower(strings.TrimSpace(string(f.Language)))),
		Country:   strings.ToUpper(strings.TrimSpace(f.Country)),
	}
}

// FullName returns "First Last"
func (c *Competitor) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// HasNumber reports whether a competitor number has been assigned
func (c *Competitor) HasNumber() bool {
	return c.Number != nil
}

// Clone returns a deep copy of the competitor
func (c *Competitor) Clone() *Competitor {
	cp := *c
	if c.Number != nil {
		n := *c.Number
		cp.Number = &n
	}
	return &cp
}
