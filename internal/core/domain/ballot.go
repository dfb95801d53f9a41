package domain

import (
	"time"

	"github.com/google/uuid"
)

// Ballot records one voter's choice in one category. Ballots are append-only.
type Ballot struct {
	ID          uuid.UUID `json:"id"`
	VoterID     uuid.UUID `json:"voterId"`
	ElectionID  uuid.UUID `json:"electionId"`
	CategoryID  uuid.UUID `json:"categoryId"`
	CandidateID uuid.UUID `json:"candidateId"`
	CastAt      time.Time `json:"castAt"`
}

type Selection struct {
	CategoryID  uuid.UUID `json:"categoryId"`
	CandidateID uuid.UUID `json:"candidateId"`
}

// BallotSet is everything a single submission writes: the ballots plus the
// participation marker for (VoterID, ElectionID).
type BallotSet struct {
	VoterID     uuid.UUID
	ElectionID  uuid.UUID
	SubmittedAt time.Time
	Ballots     []Ballot
}
