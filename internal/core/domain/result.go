package domain

import (
	"time"

	"github.com/google/uuid"
)

type CandidateResult struct {
	Candidate
	Votes      int `json:"votes"`
	Percentage int `json:"percentage"`
}

type CategoryResult struct {
	Category   Category          `json:"category"`
	TotalVotes int               `json:"totalVotes"`
	Candidates []CandidateResult `json:"candidates"`
	Winner     *CandidateResult  `json:"winner"`
	Tied       bool              `json:"tied"`
}

// ResultSnapshot is a point-in-time tally of one election. Version is the
// number of ballots it reflects, so it only grows.
type ResultSnapshot struct {
	ElectionID   uuid.UUID        `json:"electionId"`
	Title        string           `json:"title"`
	StartTime    time.Time        `json:"startTime"`
	EndTime      time.Time        `json:"endTime"`
	IsActive     bool             `json:"isActive"`
	IsLive       bool             `json:"isLive"`
	Version      int64            `json:"version"`
	TotalBallots int              `json:"totalBallots"`
	GeneratedAt  time.Time        `json:"generatedAt"`
	Results      []CategoryResult `json:"results"`
}

const EventTypeVoteCast = "VOTE_CAST"

// Event is the message the relay fans out to subscribers.
type Event struct {
	Type       string          `json:"type"`
	ElectionID uuid.UUID       `json:"electionId"`
	Version    int64           `json:"version"`
	Timestamp  time.Time       `json:"timestamp"`
	Results    *ResultSnapshot `json:"results"`
}

func NewVoteCastEvent(s *ResultSnapshot) Event {
	return Event{
		Type:       EventTypeVoteCast,
		ElectionID: s.ElectionID,
		Version:    s.Version,
		Timestamp:  time.Now(),
		Results:    s,
	}
}
