package domain

import (
	"time"

	"github.com/google/uuid"
)

type Election struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	IsActive         bool      `json:"isActive"`
	IsLive           bool      `json:"isLive"`
	FaceVerification bool      `json:"faceVerification"`
	OTPVerification  bool      `json:"otpVerification"`
	CreatedAt        time.Time `json:"createdAt"`
}

// IsOpen reports whether t falls inside the voting window [StartTime, EndTime).
func (e *Election) IsOpen(t time.Time) bool {
	return !t.Before(e.StartTime) && t.Before(e.EndTime)
}

// ActiveElection is the public view of the single active election together
// with the candidates a voter can choose from.
type ActiveElection struct {
	Election
	IsOpen     bool        `json:"isOpen"`
	Categories []Category  `json:"categories"`
	Candidates []Candidate `json:"candidates"`
}
