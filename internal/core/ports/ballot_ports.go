package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
)

type VoterRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Voter, error)
}

type BallotRepository interface {
	HasVoted(ctx context.Context, voterID, electionID uuid.UUID) (bool, error)
	// SaveBallots writes the whole set or nothing. A uniqueness conflict on
	// (voter, election) or (voter, election, category) is domain.ErrAlreadyVoted.
	SaveBallots(ctx context.Context, set *domain.BallotSet) error
	ListByElection(ctx context.Context, electionID uuid.UUID) ([]domain.Ballot, error)
}

type SubmitInput struct {
	VoterID    uuid.UUID
	ElectionID uuid.UUID
	Selections []domain.Selection
}

type Receipt struct {
	VoterID    uuid.UUID              `json:"voterId"`
	ElectionID uuid.UUID              `json:"electionId"`
	Ballots    []domain.Ballot        `json:"ballots"`
	Snapshot   *domain.ResultSnapshot `json:"results"`
}

type AdmissionService interface {
	Submit(ctx context.Context, input SubmitInput) (*Receipt, error)
}
