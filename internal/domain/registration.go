package domain

import (
	"strings"
	"time"
)

// NotSpecified is rendered in place of an empty optional field.
const NotSpecified = "Not specified"

// Submission is the inbound registration form as posted by the frontend.
// All values are free text; Normalize must run before validation.
type Submission struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,max=254,email"`
	Phone      string `json:"phone" validate:"required,max=32"`
	College    string `json:"college" validate:"required,max=200"`
	Year       string `json:"year" validate:"required,max=16"`
	Department string `json:"department" validate:"required,max=200"`
	TeamSize   string `json:"teamSize" validate:"required,max=16"`
	Experience string `json:"experience,omitempty" validate:"omitempty,max=2000"`
	Skills     string `json:"skills,omitempty" validate:"omitempty,max=2000"`
	Motivation string `json:"motivation,omitempty" validate:"omitempty,max=2000"`
}

// Normalize trims every field and lowercases the email address.
func (s *Submission) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.Phone = strings.TrimSpace(s.Phone)
	s.College = strings.TrimSpace(s.College)
	s.Year = strings.TrimSpace(s.Year)
	s.Department = strings.TrimSpace(s.Department)
	s.TeamSize = strings.TrimSpace(s.TeamSize)
	s.Experience = strings.TrimSpace(s.Experience)
	s.Skills = strings.TrimSpace(s.Skills)
	s.Motivation = strings.TrimSpace(s.Motivation)
}

// Registration is a stored submission. ID, CreatedAt and UpdatedAt are
// assigned by the store and never set by callers.
type Registration struct {
	ID string `json:"id"`
	Submission
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrPlaceholder returns v, or NotSpecified when v is empty.
func OrPlaceholder(v string) string {
	if v == "" {
		return NotSpecified
	}
	return v
}

// Field limits in characters; they mirror the validate tags on Submission.
const (
	MaxNameLen       = 200
	MaxEmailLen      = 254
	MaxPhoneLen      = 32
	MaxCollegeLen    = 200
	MaxDepartmentLen = 200
	MaxShortLen      = 16 // year, teamSize
	MaxFreeTextLen   = 2000
)
