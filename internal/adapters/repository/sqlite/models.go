package sqlite

import (
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
)

type Election struct {
	ID               uuid.UUID `gorm:"primaryKey;type:text"`
	Title            string    `gorm:"not null"`
	Description      string
	StartTime        time.Time `gorm:"not null"`
	EndTime          time.Time `gorm:"not null"`
	IsActive         bool      `gorm:"not null;default:false"`
	IsLive           bool      `gorm:"not null;default:false"`
	FaceVerification bool
	OTPVerification  bool
	CreatedAt        time.Time
}

func (Election) TableName() string { return "elections" }

func (e *Election) toDomain() *domain.Election {
	return &domain.Election{
		ID:               e.ID,
		Title:            e.Title,
		Description:      e.Description,
		StartTime:        e.StartTime,
		EndTime:          e.EndTime,
		IsActive:         e.IsActive,
		IsLive:           e.IsLive,
		FaceVerification: e.FaceVerification,
		OTPVerification:  e.OTPVerification,
		CreatedAt:        e.CreatedAt,
	}
}

type Category struct {
	ID          uuid.UUID `gorm:"primaryKey;type:text"`
	Name        string    `gorm:"not null;uniqueIndex"`
	DisplayName string
	Description string
}

func (Category) TableName() string { return "categories" }

type Candidate struct {
	ID           uuid.UUID `gorm:"primaryKey;type:text"`
	CategoryID   uuid.UUID `gorm:"type:text;not null;index"`
	Name         string    `gorm:"not null"`
	Party        string
	BallotNumber int `gorm:"not null"`
	ImageURL     string
	CreatedAt    time.Time
}

func (Candidate) TableName() string { return "candidates" }

// ElectionCandidate assigns a candidate to an election. ID order is
// registration order.
type ElectionCandidate struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	ElectionID  uuid.UUID `gorm:"type:text;not null;uniqueIndex:idx_election_candidate"`
	CandidateID uuid.UUID `gorm:"type:text;not null;uniqueIndex:idx_election_candidate"`
	AssignedAt  time.Time `gorm:"autoCreateTime"`
}

func (ElectionCandidate) TableName() string { return "election_candidates" }

type Voter struct {
	ID            uuid.UUID `gorm:"primaryKey;type:text"`
	VoterID       string    `gorm:"not null;uniqueIndex"`
	Name          string    `gorm:"not null"`
	FaceVerified  bool
	PhoneVerified bool
}

func (Voter) TableName() string { return "voters" }

type VoterParticipation struct {
	VoterID     uuid.UUID `gorm:"primaryKey;type:text"`
	ElectionID  uuid.UUID `gorm:"primaryKey;type:text"`
	SubmittedAt time.Time `gorm:"not null"`
}

func (VoterParticipation) TableName() string { return "voter_participations" }

type Ballot struct {
	ID          uuid.UUID `gorm:"primaryKey;type:text"`
	VoterID     uuid.UUID `gorm:"type:text;not null;uniqueIndex:idx_ballot_category"`
	ElectionID  uuid.UUID `gorm:"type:text;not null;uniqueIndex:idx_ballot_category;index"`
	CategoryID  uuid.UUID `gorm:"type:text;not null;uniqueIndex:idx_ballot_category"`
	CandidateID uuid.UUID `gorm:"type:text;not null"`
	CastAt      time.Time `gorm:"not null"`
}

func (Ballot) TableName() string { return "ballots" }

func (b *Ballot) toDomain() domain.Ballot {
	return domain.Ballot{
		ID:          b.ID,
		VoterID:     b.VoterID,
		ElectionID:  b.ElectionID,
		CategoryID:  b.CategoryID,
		CandidateID: b.CandidateID,
		CastAt:      b.CastAt,
	}
}
