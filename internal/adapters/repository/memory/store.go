// Package memory is a process-local store. It enforces the same uniqueness
// rules as the SQL stores and is used for tests and throwaway deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type participationKey struct {
	voter, election uuid.UUID
}

type ballotKey struct {
	voter, election, category uuid.UUID
}

type Store struct {
	mu             sync.RWMutex
	voters         map[uuid.UUID]domain.Voter
	elections      map[uuid.UUID]domain.Election
	categories     map[uuid.UUID]domain.Category
	candidates     map[uuid.UUID]domain.Candidate
	assignments    map[uuid.UUID][]uuid.UUID
	participations map[participationKey]time.Time
	ballotKeys     map[ballotKey]struct{}
	ballots        map[uuid.UUID][]domain.Ballot
}

func NewStore() *Store {
	return &Store{
		voters:         make(map[uuid.UUID]domain.Voter),
		elections:      make(map[uuid.UUID]domain.Election),
		categories:     make(map[uuid.UUID]domain.Category),
		candidates:     make(map[uuid.UUID]domain.Candidate),
		assignments:    make(map[uuid.UUID][]uuid.UUID),
		participations: make(map[participationKey]time.Time),
		ballotKeys:     make(map[ballotKey]struct{}),
		ballots:        make(map[uuid.UUID][]domain.Ballot),
	}
}

func (s *Store) Voters() ports.VoterRepository       { return voterRepository{s} }
func (s *Store) Elections() ports.ElectionRepository { return electionRepository{s} }
func (s *Store) Lifecycle() ports.ElectionLifecycle  { return electionRepository{s} }
func (s *Store) Ballots() ports.BallotRepository     { return ballotRepository{s} }
func (s *Store) Seeder() ports.Seeder                { return s }

func (s *Store) SeedElection(_ context.Context, e *domain.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.IsActive {
		for id, other := range s.elections {
			other.IsActive = false
			s.elections[id] = other
		}
	}
	s.elections[e.ID] = *e
	return nil
}

func (s *Store) SeedCategory(_ context.Context, c *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.categories[c.ID] = *c
	return nil
}

func (s *Store) SeedCandidate(_ context.Context, electionID uuid.UUID, c *domain.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.elections[electionID]; !ok {
		return domain.ErrElectionNotFound
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.candidates[c.ID] = *c
	s.assignments[electionID] = append(s.assignments[electionID], c.ID)
	return nil
}

func (s *Store) SeedVoter(_ context.Context, v *domain.Voter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	s.voters[v.ID] = *v
	return nil
}

type voterRepository struct{ s *Store }

func (r voterRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Voter, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.voters[id]
	if !ok {
		return nil, domain.ErrVoterNotFound
	}
	return &v, nil
}

type electionRepository struct{ s *Store }

func (r electionRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Election, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.elections[id]
	if !ok {
		return nil, domain.ErrElectionNotFound
	}
	return &e, nil
}

func (r electionRepository) GetActive(_ context.Context) (*domain.Election, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.elections {
		if e.IsActive {
			return &e, nil
		}
	}
	return nil, domain.ErrElectionNotFound
}

func (r electionRepository) CandidateGraph(_ context.Context, electionID uuid.UUID) (*domain.CandidateGraph, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.elections[electionID]; !ok {
		return nil, domain.ErrElectionNotFound
	}
	graph := &domain.CandidateGraph{
		ElectionID: electionID,
		Categories: make(map[uuid.UUID]domain.Category),
	}
	for _, id := range r.s.assignments[electionID] {
		c := r.s.candidates[id]
		graph.Candidates = append(graph.Candidates, c)
		if cat, ok := r.s.categories[c.CategoryID]; ok {
			graph.Categories[cat.ID] = cat
		}
	}
	return graph, nil
}

func (r electionRepository) Activate(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.elections[id]; !ok {
		return domain.ErrElectionNotFound
	}
	for eid, e := range r.s.elections {
		e.IsActive = eid == id
		r.s.elections[eid] = e
	}
	return nil
}

func (r electionRepository) Deactivate(_ context.Context, id uuid.UUID) error {
	return r.update(id, func(e *domain.Election) { e.IsActive = false })
}

func (r electionRepository) SetLive(_ context.Context, id uuid.UUID, live bool) error {
	return r.update(id, func(e *domain.Election) { e.IsLive = live })
}

func (r electionRepository) update(id uuid.UUID, fn func(*domain.Election)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.elections[id]
	if !ok {
		return domain.ErrElectionNotFound
	}
	fn(&e)
	r.s.elections[id] = e
	return nil
}

type ballotRepository struct{ s *Store }

func (r ballotRepository) HasVoted(_ context.Context, voterID, electionID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.participations[participationKey{voterID, electionID}]
	return ok, nil
}

func (r ballotRepository) SaveBallots(_ context.Context, set *domain.BallotSet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	pk := participationKey{set.VoterID, set.ElectionID}
	if _, ok := r.s.participations[pk]; ok {
		return domain.ErrAlreadyVoted
	}
	keys := make([]ballotKey, 0, len(set.Ballots))
	for _, b := range set.Ballots {
		k := ballotKey{b.VoterID, b.ElectionID, b.CategoryID}
		if _, ok := r.s.ballotKeys[k]; ok {
			return domain.ErrAlreadyVoted
		}
		for _, pending := range keys {
			if pending == k {
				return domain.ErrAlreadyVoted
			}
		}
		keys = append(keys, k)
	}

	r.s.participations[pk] = set.SubmittedAt
	for _, k := range keys {
		r.s.ballotKeys[k] = struct{}{}
	}
	r.s.ballots[set.ElectionID] = append(r.s.ballots[set.ElectionID], set.Ballots...)
	return nil
}

func (r ballotRepository) ListByElection(_ context.Context, electionID uuid.UUID) ([]domain.Ballot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Ballot, len(r.s.ballots[electionID]))
	copy(out, r.s.ballots[electionID])
	return out, nil
}
