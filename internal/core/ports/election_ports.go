package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
)

type ElectionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Election, error)
	GetActive(ctx context.Context) (*domain.Election, error)
	CandidateGraph(ctx context.Context, electionID uuid.UUID) (*domain.CandidateGraph, error)
}

// ElectionLifecycle is the admin side of elections. Activate must leave
// exactly one active election.
type ElectionLifecycle interface {
	Activate(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	SetLive(ctx context.Context, id uuid.UUID, live bool) error
}

type ElectionService interface {
	Active(ctx context.Context) (*domain.ActiveElection, error)
	Activate(ctx context.Context, id uuid.UUID) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	SetLive(ctx context.Context, id uuid.UUID, live bool) error
}
