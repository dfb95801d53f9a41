// Package relay fans result snapshots out to live subscribers without ever
// blocking the publisher.
package relay

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vncsmyrnk/evote/internal/core/domain"
)

const (
	DefaultQueueSize        = 1000
	DefaultSubscriberBuffer = 16
	DefaultTrackedElections = 256
	// DefaultSubscriberTrackedElections caps the per-subscriber version
	// guard of streams that follow every election.
	DefaultSubscriberTrackedElections = 1024
)

var (
	ErrStopped       = errors.New("relay stopped")
	ErrAdminRequired = errors.New("subscribing to all elections requires admin access")
)

type Options struct {
	QueueSize        int
	SubscriberBuffer int
	// TrackedElections bounds how many elections remember their latest
	// published version.
	TrackedElections int
	// SubscriberTrackedElections bounds the same table per admin
	// subscription.
	SubscriberTrackedElections int
	Logger                     *slog.Logger
	PromRegistry               prometheus.Registerer
}

type Broker struct {
	opts    Options
	logger  *slog.Logger
	metrics *brokerMetrics

	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscription

	latest *lru.Cache[uuid.UUID, int64]

	queue    chan domain.Event
	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopMu   sync.RWMutex
	stopped  bool
	stopOnce sync.Once
}

// NewBroker starts the dispatcher. Call Stop to release it.
func NewBroker(opts Options) (*Broker, error) {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.SubscriberBuffer <= 0 {
		opts.SubscriberBuffer = DefaultSubscriberBuffer
	}
	if opts.TrackedElections <= 0 {
		opts.TrackedElections = DefaultTrackedElections
	}
	if opts.SubscriberTrackedElections <= 0 {
		opts.SubscriberTrackedElections = DefaultSubscriberTrackedElections
	}
	latest, err := lru.New[uuid.UUID, int64](opts.TrackedElections)
	if err != nil {
		return nil, fmt.Errorf("failed to create version cache: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	b := &Broker{
		opts:   opts,
		logger: logger.With("component", "relay"),
		subs:   make(map[uuid.UUID]*Subscription),
		latest: latest,
		queue:  make(chan domain.Event, opts.QueueSize),
		stopCh: make(chan struct{}),
	}
	if opts.PromRegistry != nil {
		b.initMetrics(opts.PromRegistry)
	}

	b.wg.Add(1)
	go b.dispatch()
	return b, nil
}

// Publish enqueues a VOTE_CAST event for snapshot. It returns immediately.
func (b *Broker) Publish(snapshot *domain.ResultSnapshot) {
	if snapshot == nil {
		return
	}
	b.PublishEvent(domain.NewVoteCastEvent(snapshot))
}

// PublishEvent enqueues evt and reports whether it was accepted. A full
// queue or a stopped broker drops the event.
func (b *Broker) PublishEvent(evt domain.Event) bool {
	b.stopMu.RLock()
	defer b.stopMu.RUnlock()
	if b.stopped {
		b.countDrop(dropStopped)
		return false
	}

	select {
	case b.queue <- evt:
		if b.metrics != nil {
			b.metrics.published.Inc()
		}
		return true
	default:
		b.logger.Warn("relay queue full, dropping event",
			"event", "relay.dropped",
			"election_id", evt.ElectionID,
			"version", evt.Version,
		)
		b.countDrop(dropQueueFull)
		return false
	}
}

// Subscribe registers a new live stream. There is no replay: the first
// event received is the next one published.
func (b *Broker) Subscribe(filter Filter) (*Subscription, error) {
	if filter.ElectionID == uuid.Nil && !filter.Admin {
		return nil, ErrAdminRequired
	}

	b.stopMu.RLock()
	defer b.stopMu.RUnlock()
	if b.stopped {
		return nil, ErrStopped
	}

	sub, err := newSubscription(b, filter, b.opts.SubscriberBuffer)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.subs[sub.ID] = sub
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.subscribers.WithLabelValues(filter.scope()).Inc()
	}
	b.logger.Debug("subscriber attached", "subscriber_id", sub.ID, "election_id", filter.ElectionID, "scope", filter.scope())
	return sub, nil
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	_, ok := b.subs[sub.ID]
	delete(b.subs, sub.ID)
	b.mu.Unlock()

	if ok && b.metrics != nil {
		b.metrics.subscribers.WithLabelValues(sub.Filter.scope()).Dec()
	}
}

// Subscribers returns the number of attached subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker) dispatch() {
	defer b.wg.Done()
	for {
		select {
		case <-b.stopCh:
			return
		case evt := <-b.queue:
			b.fanOut(evt)
		}
	}
}

func (b *Broker) fanOut(evt domain.Event) {
	if last, ok := b.latest.Get(evt.ElectionID); ok && evt.Version < last {
		b.logger.Debug("dropping stale snapshot",
			"election_id", evt.ElectionID,
			"version", evt.Version,
			"latest", last,
		)
		b.countDrop(dropStale)
		return
	}
	b.latest.Add(evt.ElectionID, evt.Version)

	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		switch sub.deliver(evt) {
		case delivered:
			if b.metrics != nil {
				b.metrics.delivered.Inc()
			}
		case droppedFull:
			b.logger.Debug("subscriber buffer full, dropping event", "subscriber_id", sub.ID, "version", evt.Version)
			b.countDrop(dropSubscriberFull)
		case droppedStale:
			b.countDrop(dropStale)
		}
	}
}

// Stop halts the dispatcher and closes every subscription. Queued events
// that were not dispatched yet are discarded.
func (b *Broker) Stop() {
	b.stopOnce.Do(func() {
		b.stopMu.Lock()
		b.stopped = true
		b.stopMu.Unlock()

		close(b.stopCh)
		b.wg.Wait()

		b.mu.Lock()
		subs := b.subs
		b.subs = make(map[uuid.UUID]*Subscription)
		b.mu.Unlock()

		for _, sub := range subs {
			sub.close()
		}
		if b.metrics != nil {
			b.metrics.subscribers.Reset()
		}
	})
}
