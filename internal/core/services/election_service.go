package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type electionService struct {
	electionRepo ports.ElectionRepository
	lifecycle    ports.ElectionLifecycle
	logger       *slog.Logger
	now          func() time.Time
}

func NewElectionService(electionRepo ports.ElectionRepository, lifecycle ports.ElectionLifecycle, logger *slog.Logger) ports.ElectionService {
	return &electionService{
		electionRepo: electionRepo,
		lifecycle:    lifecycle,
		logger:       ResolveLogger(logger).With("module", "election"),
		now:          time.Now,
	}
}

func (s *electionService) Active(ctx context.Context) (*domain.ActiveElection, error) {
	election, err := s.electionRepo.GetActive(ctx)
	if err != nil {
		return nil, storageErr("failed to fetch active election", err)
	}

	graph, err := s.electionRepo.CandidateGraph(ctx, election.ID)
	if err != nil {
		return nil, storageErr("failed to fetch candidates", err)
	}

	return &domain.ActiveElection{
		Election:   *election,
		IsOpen:     election.IsOpen(s.now()),
		Categories: graph.OrderedCategories(),
		Candidates: graph.Candidates,
	}, nil
}

func (s *electionService) Activate(ctx context.Context, id uuid.UUID) error {
	if err := s.lifecycle.Activate(ctx, id); err != nil {
		return storageErr("failed to activate election", err)
	}
	s.logger.Info("election activated", "event", "election.activated", "election_id", id)
	return nil
}

func (s *electionService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.lifecycle.Deactivate(ctx, id); err != nil {
		return storageErr("failed to deactivate election", err)
	}
	s.logger.Info("election deactivated", "event", "election.deactivated", "election_id", id)
	return nil
}

func (s *electionService) SetLive(ctx context.Context, id uuid.UUID, live bool) error {
	if err := s.lifecycle.SetLive(ctx, id, live); err != nil {
		return storageErr("failed to update live flag", err)
	}
	s.logger.Info("election live flag changed", "event", "election.live", "election_id", id, "live", live)
	return nil
}
