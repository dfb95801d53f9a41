package relay

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/evote/internal/core/domain"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func snapshot(election uuid.UUID, version int64, live bool) *domain.ResultSnapshot {
	return &domain.ResultSnapshot{ElectionID: election, Version: version, IsLive: live, IsActive: true}
}

func newTestBroker(t *testing.T, opts Options) *Broker {
	t.Helper()
	b, err := NewBroker(opts)
	require.NoError(t, err)
	t.Cleanup(b.Stop)
	return b
}

// newIdleBroker builds a broker without a dispatcher so tests can drive
// fanOut and the queue deterministically.
func newIdleBroker(t *testing.T, opts Options) *Broker {
	t.Helper()
	latest, err := lru.New[uuid.UUID, int64](max(opts.TrackedElections, 1))
	require.NoError(t, err)
	if opts.SubscriberBuffer == 0 {
		opts.SubscriberBuffer = DefaultSubscriberBuffer
	}
	return &Broker{
		opts:   opts,
		logger: slog.Default(),
		subs:   make(map[uuid.UUID]*Subscription),
		latest: latest,
		queue:  make(chan domain.Event, max(opts.QueueSize, 1)),
		stopCh: make(chan struct{}),
	}
}

func receive(t *testing.T, sub *Subscription) domain.Event {
	t.Helper()
	select {
	case evt, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return domain.Event{}
	}
}

func assertNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case evt := <-sub.Events():
		t.Fatalf("unexpected event: version %d", evt.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishReachesElectionSubscriber(t *testing.T) {
	b := newTestBroker(t, Options{})
	election := uuid.New()
	sub, err := b.Subscribe(Filter{ElectionID: election})
	require.NoError(t, err)
	other, err := b.Subscribe(Filter{ElectionID: uuid.New()})
	require.NoError(t, err)

	b.Publish(snapshot(election, 3, true))

	evt := receive(t, sub)
	assert.Equal(t, domain.EventTypeVoteCast, evt.Type)
	assert.Equal(t, election, evt.ElectionID)
	assert.Equal(t, int64(3), evt.Version)
	assertNoEvent(t, other)
}

func TestPublicSubscribersOnlySeeLiveElections(t *testing.T) {
	b := newTestBroker(t, Options{})
	election := uuid.New()
	public, err := b.Subscribe(Filter{ElectionID: election})
	require.NoError(t, err)
	admin, err := b.Subscribe(Filter{Admin: true})
	require.NoError(t, err)

	b.Publish(snapshot(election, 1, false))

	assert.Equal(t, int64(1), receive(t, admin).Version)
	assertNoEvent(t, public)
}

func TestAllElectionsRequiresAdmin(t *testing.T) {
	b := newTestBroker(t, Options{})

	_, err := b.Subscribe(Filter{})

	assert.ErrorIs(t, err, ErrAdminRequired)
}

func TestSubscribeHasNoReplay(t *testing.T) {
	b := newTestBroker(t, Options{})
	election := uuid.New()
	probe, err := b.Subscribe(Filter{ElectionID: election})
	require.NoError(t, err)

	b.Publish(snapshot(election, 1, true))
	receive(t, probe)

	late, err := b.Subscribe(Filter{ElectionID: election})
	require.NoError(t, err)
	assertNoEvent(t, late)

	b.Publish(snapshot(election, 2, true))
	assert.Equal(t, int64(2), receive(t, late).Version)
}

func TestStaleSnapshotsAreDropped(t *testing.T) {
	b := newTestBroker(t, Options{})
	election := uuid.New()
	sub, err := b.Subscribe(Filter{ElectionID: election})
	require.NoError(t, err)

	for _, v := range []int64{5, 3, 5, 6} {
		b.Publish(snapshot(election, v, true))
	}

	var got []int64
	for range 3 {
		got = append(got, receive(t, sub).Version)
	}
	assert.Equal(t, []int64{5, 5, 6}, got)
}

func TestSubscriberGuardSurvivesCacheEviction(t *testing.T) {
	b := newIdleBroker(t, Options{TrackedElections: 1})
	a, other := uuid.New(), uuid.New()
	sub, err := b.Subscribe(Filter{Admin: true})
	require.NoError(t, err)

	b.fanOut(domain.NewVoteCastEvent(snapshot(a, 5, true)))
	b.fanOut(domain.NewVoteCastEvent(snapshot(other, 1, true)))
	b.fanOut(domain.NewVoteCastEvent(snapshot(a, 3, true)))

	assert.Equal(t, int64(5), receive(t, sub).Version)
	assert.Equal(t, int64(1), receive(t, sub).Version)
	assertNoEvent(t, sub)
}

func TestSubscriberVersionGuardIsBounded(t *testing.T) {
	b := newIdleBroker(t, Options{SubscriberTrackedElections: 2})
	admin, err := b.Subscribe(Filter{Admin: true})
	require.NoError(t, err)
	single, err := b.Subscribe(Filter{ElectionID: uuid.New()})
	require.NoError(t, err)

	for range 5 {
		b.fanOut(domain.NewVoteCastEvent(snapshot(uuid.New(), 1, true)))
		receive(t, admin)
	}

	assert.Equal(t, 2, admin.lastVersion.Len())
	assert.LessOrEqual(t, single.lastVersion.Len(), 1)
}

func TestSlowSubscriberDoesNotStallOthers(t *testing.T) {
	reg := prometheus.NewRegistry()
	b := newIdleBroker(t, Options{SubscriberBuffer: 2})
	b.initMetrics(reg)
	election := uuid.New()
	slow, err := b.Subscribe(Filter{ElectionID: election})
	require.NoError(t, err)
	fast, err := b.Subscribe(Filter{ElectionID: election})
	require.NoError(t, err)

	for v := int64(1); v <= 10; v++ {
		b.fanOut(domain.NewVoteCastEvent(snapshot(election, v, true)))
		assert.Equal(t, v, receive(t, fast).Version)
	}

	assert.Equal(t, int64(1), receive(t, slow).Version)
	assert.Equal(t, int64(2), receive(t, slow).Version)
	assertNoEvent(t, slow)
	assert.Equal(t, float64(8), testutil.ToFloat64(b.metrics.dropped.WithLabelValues(dropSubscriberFull)))
}

func TestPublishNeverBlocksWhenQueueFull(t *testing.T) {
	b := newIdleBroker(t, Options{QueueSize: 2})
	election := uuid.New()

	done := make(chan []bool)
	go func() {
		var accepted []bool
		for v := int64(1); v <= 3; v++ {
			accepted = append(accepted, b.PublishEvent(domain.NewVoteCastEvent(snapshot(election, v, true))))
		}
		done <- accepted
	}()

	select {
	case accepted := <-done:
		assert.Equal(t, []bool{true, true, false}, accepted)
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full queue")
	}
}

func TestStopClosesSubscriptions(t *testing.T) {
	b, err := NewBroker(Options{})
	require.NoError(t, err)
	sub, err := b.Subscribe(Filter{ElectionID: uuid.New()})
	require.NoError(t, err)

	b.Stop()
	b.Stop()

	_, ok := <-sub.Events()
	assert.False(t, ok)
	assert.False(t, b.PublishEvent(domain.NewVoteCastEvent(snapshot(uuid.New(), 1, true))))
	_, err = b.Subscribe(Filter{Admin: true})
	assert.ErrorIs(t, err, ErrStopped)
	sub.Close()
}

func TestCloseIsIdempotent(t *testing.T) {
	b := newTestBroker(t, Options{})
	sub, err := b.Subscribe(Filter{ElectionID: uuid.New()})
	require.NoError(t, err)
	require.Equal(t, 1, b.Subscribers())

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, b.Subscribers())
	_, ok := <-sub.Events()
	assert.False(t, ok)
}

func TestConcurrentPublishSubscribeStop(t *testing.T) {
	for range 50 {
		b, err := NewBroker(Options{QueueSize: 8, SubscriberBuffer: 1})
		require.NoError(t, err)
		election := uuid.New()

		var wg sync.WaitGroup
		for p := range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for v := range 20 {
					b.Publish(snapshot(election, int64(p*20+v), true))
				}
			}()
		}
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				sub, err := b.Subscribe(Filter{ElectionID: election})
				if err != nil {
					return
				}
				for range 3 {
					select {
					case <-sub.Events():
					case <-time.After(time.Millisecond):
					}
				}
				sub.Close()
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Stop()
		}()
		wg.Wait()
	}
}
