package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vncsmyrnk/evote/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/evote/internal/core/domain"
)

var (
	containerOnce sync.Once
	container     testcontainers.Container
	sharedDB      *sql.DB
	setupErr      error
)

func TestMain(m *testing.M) {
	code := m.Run()
	if sharedDB != nil {
		sharedDB.Close()
	}
	if container != nil {
		_ = container.Terminate(context.Background())
	}
	os.Exit(code)
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("evote"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return pgContainer, "", err
	}
	return pgContainer, connStr, nil
}

// setupDB returns a migrated database with every table emptied.
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	containerOnce.Do(func() {
		var connStr string
		container, connStr, setupErr = setupPostgresContainer(ctx)
		if setupErr != nil {
			return
		}
		sharedDB, setupErr = postgres.Open(ctx, connStr)
		if setupErr != nil {
			return
		}
		_, setupErr = postgres.Migrate(ctx, sharedDB)
	})
	require.NoError(t, setupErr)

	_, err := sharedDB.ExecContext(ctx, `
		TRUNCATE ballots, voter_participations, election_candidates, candidates, categories, voters, elections CASCADE
	`)
	require.NoError(t, err)
	return sharedDB
}

type seeded struct {
	election domain.Election
	category domain.Category
	first    domain.Candidate
	second   domain.Candidate
	voter    domain.Voter
}

func seed(t *testing.T, db *sql.DB) seeded {
	t.Helper()
	ctx := context.Background()
	s := postgres.NewSeeder(db)

	out := seeded{
		election: domain.Election{
			Title:     "Board",
			StartTime: time.Now().Add(-time.Hour),
			EndTime:   time.Now().Add(time.Hour),
			IsActive:  true,
			IsLive:    true,
		},
		category: domain.Category{Name: "chair", DisplayName: "Chair"},
		voter:    domain.Voter{VoterID: "V-001", Name: "Dana", FaceVerified: true, PhoneVerified: true},
	}
	require.NoError(t, s.SeedElection(ctx, &out.election))
	require.NoError(t, s.SeedCategory(ctx, &out.category))
	out.first = domain.Candidate{CategoryID: out.category.ID, Name: "Zed", BallotNumber: 9}
	out.second = domain.Candidate{CategoryID: out.category.ID, Name: "Amy", BallotNumber: 1}
	require.NoError(t, s.SeedCandidate(ctx, out.election.ID, &out.first))
	require.NoError(t, s.SeedCandidate(ctx, out.election.ID, &out.second))
	require.NoError(t, s.SeedVoter(ctx, &out.voter))
	return out
}

func ballotSet(s seeded, candidates ...domain.Candidate) *domain.BallotSet {
	set := &domain.BallotSet{VoterID: s.voter.ID, ElectionID: s.election.ID, SubmittedAt: time.Now()}
	for _, c := range candidates {
		set.Ballots = append(set.Ballots, domain.Ballot{
			ID:          uuid.New(),
			VoterID:     s.voter.ID,
			ElectionID:  s.election.ID,
			CategoryID:  c.CategoryID,
			CandidateID: c.ID,
			CastAt:      time.Now(),
		})
	}
	return set
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := setupDB(t)

	applied, err := postgres.Migrate(context.Background(), db)

	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestLookups(t *testing.T) {
	db := setupDB(t)
	s := seed(t, db)
	ctx := context.Background()

	voter, err := postgres.NewVoterRepository(db).GetByID(ctx, s.voter.ID)
	require.NoError(t, err)
	assert.Equal(t, "V-001", voter.VoterID)
	_, err = postgres.NewVoterRepository(db).GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrVoterNotFound)

	elections := postgres.NewElectionRepository(db)
	active, err := elections.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.election.ID, active.ID)
	_, err = elections.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrElectionNotFound)

	graph, err := elections.CandidateGraph(ctx, s.election.ID)
	require.NoError(t, err)
	require.Len(t, graph.Candidates, 2)
	assert.Equal(t, "Zed", graph.Candidates[0].Name, "registration order is kept")
	assert.Equal(t, "Chair", graph.Categories[s.category.ID].DisplayName)
	_, err = elections.CandidateGraph(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrElectionNotFound)
}

func TestSaveBallotsOncePerElection(t *testing.T) {
	db := setupDB(t)
	s := seed(t, db)
	repo := postgres.NewBallotRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.SaveBallots(ctx, ballotSet(s, s.first)))
	err := repo.SaveBallots(ctx, ballotSet(s, s.second))
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)

	voted, err := repo.HasVoted(ctx, s.voter.ID, s.election.ID)
	require.NoError(t, err)
	assert.True(t, voted)
	ballots, err := repo.ListByElection(ctx, s.election.ID)
	require.NoError(t, err)
	require.Len(t, ballots, 1)
	assert.Equal(t, s.first.ID, ballots[0].CandidateID)
}

func TestSaveBallotsIsAtomic(t *testing.T) {
	db := setupDB(t)
	s := seed(t, db)
	repo := postgres.NewBallotRepository(db)
	ctx := context.Background()

	// Two ballots in the same category trip the unique constraint mid-batch.
	err := repo.SaveBallots(ctx, ballotSet(s, s.first, s.second))
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)

	voted, err := repo.HasVoted(ctx, s.voter.ID, s.election.ID)
	require.NoError(t, err)
	assert.False(t, voted)
	ballots, err := repo.ListByElection(ctx, s.election.ID)
	require.NoError(t, err)
	assert.Empty(t, ballots)
}

func TestConcurrentSaveBallots(t *testing.T) {
	db := setupDB(t)
	s := seed(t, db)
	repo := postgres.NewBallotRepository(db)

	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
	)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			choice := s.first
			if i%2 == 0 {
				choice = s.second
			}
			err := repo.SaveBallots(context.Background(), ballotSet(s, choice))
			if err == nil {
				accepted.Add(1)
				return
			}
			assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
	ballots, err := repo.ListByElection(context.Background(), s.election.ID)
	require.NoError(t, err)
	assert.Len(t, ballots, 1)
}

func TestActivateKeepsOneActive(t *testing.T) {
	db := setupDB(t)
	s := seed(t, db)
	ctx := context.Background()
	other := domain.Election{Title: "Runoff", StartTime: time.Now(), EndTime: time.Now().Add(time.Hour)}
	require.NoError(t, postgres.NewSeeder(db).SeedElection(ctx, &other))

	lifecycle := postgres.NewElectionLifecycle(db)
	require.NoError(t, lifecycle.Activate(ctx, other.ID))
	assert.ErrorIs(t, lifecycle.Activate(ctx, uuid.New()), domain.ErrElectionNotFound)

	var active int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM elections WHERE is_active`).Scan(&active))
	assert.Equal(t, 1, active)

	current, err := postgres.NewElectionRepository(db).GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, other.ID, current.ID)

	require.NoError(t, lifecycle.SetLive(ctx, s.election.ID, false))
	require.NoError(t, lifecycle.Deactivate(ctx, other.ID))
	_, err = postgres.NewElectionRepository(db).GetActive(ctx)
	assert.ErrorIs(t, err, domain.ErrElectionNotFound)
}
