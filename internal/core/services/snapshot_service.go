package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

type SnapshotOptions struct {
	// Timeout bounds the whole read-then-aggregate pass. Defaults to
	// DefaultSnapshotTimeout.
	Timeout time.Duration
	Logger  *slog.Logger
}

type snapshotService struct {
	electionRepo ports.ElectionRepository
	ballotRepo   ports.BallotRepository
	timeout      time.Duration
	logger       *slog.Logger
}

func NewSnapshotService(electionRepo ports.ElectionRepository, ballotRepo ports.BallotRepository, opts SnapshotOptions) ports.SnapshotService {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultSnapshotTimeout
	}
	return &snapshotService{
		electionRepo: electionRepo,
		ballotRepo:   ballotRepo,
		timeout:      opts.Timeout,
		logger:       ResolveLogger(opts.Logger).With("module", "snapshot"),
	}
}

// Snapshot tallies the election as currently stored. Ballots are never
// removed, so the version (ballot count) of successive snapshots never
// decreases and two snapshots with the same version have the same tally.
func (s *snapshotService) Snapshot(ctx context.Context, electionID uuid.UUID) (*domain.ResultSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	election, err := s.electionRepo.GetByID(ctx, electionID)
	if err != nil {
		return nil, storageErr("failed to fetch election", err)
	}

	var (
		graph   *domain.CandidateGraph
		ballots []domain.Ballot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		graph, err = s.electionRepo.CandidateGraph(gctx, electionID)
		if err != nil {
			return storageErr("failed to fetch candidates", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		ballots, err = s.ballotRepo.ListByElection(gctx, electionID)
		if err != nil {
			return storageErr("failed to fetch ballots", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot := &domain.ResultSnapshot{
		ElectionID:   election.ID,
		Title:        election.Title,
		StartTime:    election.StartTime,
		EndTime:      election.EndTime,
		IsActive:     election.IsActive,
		IsLive:       election.IsLive,
		Version:      int64(len(ballots)),
		TotalBallots: len(ballots),
		GeneratedAt:  time.Now(),
		Results:      Aggregate(graph, ballots),
	}
	s.logger.Debug("snapshot assembled",
		"election_id", electionID,
		"version", snapshot.Version,
	)
	return snapshot, nil
}
