package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/evote/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type fixture struct {
	store     *memory.Store
	election  domain.Election
	president domain.Category
	senate    domain.Category
	alice     domain.Candidate
	bob       domain.Candidate
	carol     domain.Candidate
	voters    []domain.Voter
}

// newFixture seeds one active, live election with two categories
// (president: alice, bob; senate: carol) and n voters.
func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: memory.NewStore()}
	seed := f.store.Seeder()

	f.election = domain.Election{
		Title:     "Student Council",
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
		IsActive:  true,
		IsLive:    true,
	}
	require.NoError(t, seed.SeedElection(ctx, &f.election))

	f.president = domain.Category{Name: "president", DisplayName: "President"}
	f.senate = domain.Category{Name: "senate", DisplayName: "Senate"}
	require.NoError(t, seed.SeedCategory(ctx, &f.president))
	require.NoError(t, seed.SeedCategory(ctx, &f.senate))

	f.alice = domain.Candidate{CategoryID: f.president.ID, Name: "Alice", BallotNumber: 2}
	f.bob = domain.Candidate{CategoryID: f.president.ID, Name: "Bob", BallotNumber: 1}
	f.carol = domain.Candidate{CategoryID: f.senate.ID, Name: "Carol", BallotNumber: 7}
	for _, c := range []*domain.Candidate{&f.alice, &f.bob, &f.carol} {
		require.NoError(t, seed.SeedCandidate(ctx, f.election.ID, c))
	}

	for i := range n {
		v := domain.Voter{VoterID: uuid.NewString(), Name: "voter", FaceVerified: true, PhoneVerified: i%2 == 0}
		require.NoError(t, seed.SeedVoter(ctx, &v))
		f.voters = append(f.voters, v)
	}
	return f
}

func (f *fixture) input(voter int, selections ...domain.Selection) ports.SubmitInput {
	return ports.SubmitInput{
		VoterID:    f.voters[voter].ID,
		ElectionID: f.election.ID,
		Selections: selections,
	}
}

func pick(c domain.Candidate) domain.Selection {
	return domain.Selection{CategoryID: c.CategoryID, CandidateID: c.ID}
}

type recordingPublisher struct {
	mu        sync.Mutex
	snapshots []*domain.ResultSnapshot
}

func (p *recordingPublisher) Publish(s *domain.ResultSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, s)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.snapshots)
}

type failingSnapshots struct{}

func (failingSnapshots) Snapshot(context.Context, uuid.UUID) (*domain.ResultSnapshot, error) {
	return nil, errors.New("tally exploded")
}

type brokenBallots struct {
	ports.BallotRepository
}

func (brokenBallots) HasVoted(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, errors.New("connection reset")
}

// stalledElections blocks every election lookup until the context ends.
type stalledElections struct {
	ports.ElectionRepository
}

func (stalledElections) GetByID(ctx context.Context, _ uuid.UUID) (*domain.Election, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
