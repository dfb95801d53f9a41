package relay

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vncsmyrnk/evote/internal/core/domain"
)

// Filter selects which events a subscription receives. A nil ElectionID
// means every election and requires Admin. Non-admin subscriptions only see
// elections whose results are published live.
type Filter struct {
	ElectionID uuid.UUID
	Admin      bool
}

func (f Filter) scope() string {
	if f.Admin {
		return "admin"
	}
	return "public"
}

func (f Filter) matches(evt domain.Event) bool {
	if f.ElectionID != uuid.Nil && evt.ElectionID != f.ElectionID {
		return false
	}
	if !f.Admin && (evt.Results == nil || !evt.Results.IsLive) {
		return false
	}
	return true
}

// Subscription is a live, append-only stream of events. It starts with the
// next event published after Subscribe returns and cannot be resumed once
// closed; subscribe again for a new stream.
type Subscription struct {
	ID     uuid.UUID
	Filter Filter

	ch     chan domain.Event
	broker *Broker

	// last delivered version per election, bounded for long-lived admin streams
	lastVersion *lru.Cache[uuid.UUID, int64]

	mu     sync.RWMutex
	closed bool
}

func newSubscription(b *Broker, filter Filter, buffer int) (*Subscription, error) {
	tracked := b.opts.SubscriberTrackedElections
	if filter.ElectionID != uuid.Nil {
		tracked = 1
	} else if tracked <= 0 {
		tracked = DefaultSubscriberTrackedElections
	}
	lastVersion, err := lru.New[uuid.UUID, int64](tracked)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscriber version cache: %w", err)
	}
	return &Subscription{
		ID:          uuid.New(),
		Filter:      filter,
		ch:          make(chan domain.Event, buffer),
		broker:      b,
		lastVersion: lastVersion,
	}, nil
}

// Events is closed when the subscription ends.
func (s *Subscription) Events() <-chan domain.Event {
	return s.ch
}

// Close detaches the subscription from the broker. Safe to call more than once.
func (s *Subscription) Close() {
	s.broker.remove(s)
	s.close()
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

type deliverResult int

const (
	skipped deliverResult = iota
	delivered
	droppedStale
	droppedFull
)

// deliver never blocks: a full buffer drops the event for this subscriber only.
func (s *Subscription) deliver(evt domain.Event) deliverResult {
	if !s.Filter.matches(evt) {
		return skipped
	}
	if last, ok := s.lastVersion.Peek(evt.ElectionID); ok && evt.Version < last {
		return droppedStale
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return skipped
	}
	select {
	case s.ch <- evt:
		s.lastVersion.Add(evt.ElectionID, evt.Version)
		return delivered
	default:
		return droppedFull
	}
}
