package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
)

// Seeder loads reference data (elections, categories, candidates, voters)
// into a store. Creating these records belongs to the admin surface; the
// seeder exists for fixtures and single-node deployments.
type Seeder interface {
	SeedElection(ctx context.Context, election *domain.Election) error
	SeedCategory(ctx context.Context, category *domain.Category) error
	SeedCandidate(ctx context.Context, electionID uuid.UUID, candidate *domain.Candidate) error
	SeedVoter(ctx context.Context, voter *domain.Voter) error
}
