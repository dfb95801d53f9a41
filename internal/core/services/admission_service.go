package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

const (
	DefaultStoreTimeout    = 5 * time.Second
	DefaultSnapshotTimeout = 10 * time.Second
)

type AdmissionOptions struct {
	StoreTimeout    time.Duration
	SnapshotTimeout time.Duration
	Logger          *slog.Logger
	PromRegistry    prometheus.Registerer
	// Now defaults to time.Now.
	Now func() time.Time
}

type admissionMetrics struct {
	submissions *prometheus.CounterVec
	latency     prometheus.Histogram
}

type admissionService struct {
	voterRepo    ports.VoterRepository
	electionRepo ports.ElectionRepository
	ballotRepo   ports.BallotRepository
	snapshots    ports.SnapshotService
	publisher    ports.SnapshotPublisher
	opts         AdmissionOptions
	logger       *slog.Logger
	metrics      *admissionMetrics
}

// NewAdmissionService builds the ballot admission controller. publisher may
// be nil, in which case snapshots are only returned to the submitter.
func NewAdmissionService(
	voterRepo ports.VoterRepository,
	electionRepo ports.ElectionRepository,
	ballotRepo ports.BallotRepository,
	snapshots ports.SnapshotService,
	publisher ports.SnapshotPublisher,
	opts AdmissionOptions,
) ports.AdmissionService {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.SnapshotTimeout <= 0 {
		opts.SnapshotTimeout = DefaultSnapshotTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &admissionService{
		voterRepo:    voterRepo,
		electionRepo: electionRepo,
		ballotRepo:   ballotRepo,
		snapshots:    snapshots,
		publisher:    publisher,
		opts:         opts,
		logger:       ResolveLogger(opts.Logger).With("module", "admission"),
	}
	if opts.PromRegistry != nil {
		s.initMetrics(opts.PromRegistry)
	}
	return s
}

func (s *admissionService) initMetrics(reg prometheus.Registerer) {
	factory := promauto.With(reg)
	s.metrics = &admissionMetrics{
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evote_ballot_submissions_total",
			Help: "ballot submissions by outcome",
		}, []string{"outcome"}),
		latency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "evote_ballot_submission_seconds",
			Help:    "time spent admitting a ballot submission",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (s *admissionService) Submit(ctx context.Context, input ports.SubmitInput) (*ports.Receipt, error) {
	start := time.Now()
	receipt, err := s.submit(ctx, input)

	log := s.logger.With(
		"voter_id", input.VoterID,
		"election_id", input.ElectionID,
		"duration", time.Since(start),
	)
	outcome := "accepted"
	if err != nil {
		outcome = string(domain.KindOf(err))
		if errors.Is(err, domain.ErrStorageFault) {
			log.Error("ballot submission failed", "event", "ballot.failed", "error", err)
		} else {
			log.Info("ballot submission rejected", "event", "ballot.rejected", "kind", outcome)
		}
	} else {
		log.Info("ballot submission accepted", "event", "ballot.accepted", "ballots", len(receipt.Ballots))
	}
	if s.metrics != nil {
		s.metrics.submissions.WithLabelValues(outcome).Inc()
		s.metrics.latency.Observe(time.Since(start).Seconds())
	}
	return receipt, err
}

func (s *admissionService) submit(ctx context.Context, input ports.SubmitInput) (*ports.Receipt, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	if _, err := s.voterRepo.GetByID(storeCtx, input.VoterID); err != nil {
		return nil, storageErr("failed to look up voter", err)
	}

	election, err := s.electionRepo.GetByID(storeCtx, input.ElectionID)
	if err != nil {
		return nil, storageErr("failed to look up election", err)
	}
	if !election.IsActive {
		return nil, domain.ErrElectionInactive
	}
	now := s.opts.Now()
	if !election.IsOpen(now) {
		return nil, domain.ErrVotingWindowClosed
	}

	// Fast path only; SaveBallots enforces uniqueness for racing submissions.
	hasVoted, err := s.ballotRepo.HasVoted(storeCtx, input.VoterID, input.ElectionID)
	if err != nil {
		return nil, storageErr("failed to check existing ballots", err)
	}
	if hasVoted {
		return nil, domain.ErrAlreadyVoted
	}

	seen := make(map[uuid.UUID]bool, len(input.Selections))
	for _, sel := range input.Selections {
		if seen[sel.CategoryID] {
			return nil, domain.ErrDuplicateCategorySelection
		}
		seen[sel.CategoryID] = true
	}

	if len(input.Selections) == 0 {
		return nil, domain.ErrInvalidSelection
	}
	graph, err := s.electionRepo.CandidateGraph(storeCtx, input.ElectionID)
	if err != nil {
		return nil, storageErr("failed to load candidates", err)
	}
	for _, sel := range input.Selections {
		if !graph.Allows(sel.CategoryID, sel.CandidateID) {
			return nil, domain.ErrInvalidSelection
		}
	}

	set := &domain.BallotSet{
		VoterID:     input.VoterID,
		ElectionID:  input.ElectionID,
		SubmittedAt: now,
		Ballots:     make([]domain.Ballot, 0, len(input.Selections)),
	}
	for _, sel := range input.Selections {
		set.Ballots = append(set.Ballots, domain.Ballot{
			ID:          uuid.New(),
			VoterID:     input.VoterID,
			ElectionID:  input.ElectionID,
			CategoryID:  sel.CategoryID,
			CandidateID: sel.CandidateID,
			CastAt:      now,
		})
	}
	if err := s.ballotRepo.SaveBallots(storeCtx, set); err != nil {
		return nil, storageErr("failed to save ballots", err)
	}

	receipt := &ports.Receipt{
		VoterID:    input.VoterID,
		ElectionID: input.ElectionID,
		Ballots:    set.Ballots,
	}

	// The ballots are committed at this point; a tally failure must not
	// turn an accepted submission into an error.
	snapCtx, cancelSnap := context.WithTimeout(ctx, s.opts.SnapshotTimeout)
	defer cancelSnap()
	snapshot, err := s.snapshots.Snapshot(snapCtx, input.ElectionID)
	if err != nil {
		s.logger.Warn("snapshot after admission failed",
			"event", "snapshot.failed",
			"election_id", input.ElectionID,
			"error", err,
		)
		return receipt, nil
	}
	receipt.Snapshot = snapshot

	if s.publisher != nil {
		s.publisher.Publish(snapshot)
	}
	return receipt, nil
}
