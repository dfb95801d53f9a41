package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/services"
)

func TestSnapshotEmptyElection(t *testing.T) {
	f := newFixture(t, 0)
	svc := services.NewSnapshotService(f.store.Elections(), f.store.Ballots(), services.SnapshotOptions{})

	snap, err := svc.Snapshot(context.Background(), f.election.ID)

	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Version)
	assert.Equal(t, f.election.Title, snap.Title)
	assert.True(t, snap.IsLive)
	require.Len(t, snap.Results, 2)
	assert.Equal(t, "president", snap.Results[0].Category.Name)
	assert.Equal(t, "Bob", snap.Results[0].Winner.Name, "lowest ballot number leads with no votes")
}

func TestSnapshotUnknownElection(t *testing.T) {
	f := newFixture(t, 0)
	svc := services.NewSnapshotService(f.store.Elections(), f.store.Ballots(), services.SnapshotOptions{})

	_, err := svc.Snapshot(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrElectionNotFound)
}

func TestSnapshotVersionIsMonotonic(t *testing.T) {
	f := newFixture(t, 5)
	snapshots := services.NewSnapshotService(f.store.Elections(), f.store.Ballots(), services.SnapshotOptions{})
	admission := newAdmission(f, nil, services.AdmissionOptions{})
	ctx := context.Background()

	var last int64 = -1
	for i := range f.voters {
		_, err := admission.Submit(ctx, f.input(i, pick(f.bob)))
		require.NoError(t, err)

		snap, err := snapshots.Snapshot(ctx, f.election.ID)
		require.NoError(t, err)
		assert.Greater(t, snap.Version, last)
		last = snap.Version
	}

	again, err := snapshots.Snapshot(ctx, f.election.ID)
	require.NoError(t, err)
	assert.Equal(t, last, again.Version)
	assert.Equal(t, 5, again.Results[0].Winner.Votes)
	assert.Equal(t, 100, again.Results[0].Winner.Percentage)
}

func TestSnapshotIsBoundedByTimeout(t *testing.T) {
	f := newFixture(t, 0)
	svc := services.NewSnapshotService(stalledElections{f.store.Elections()}, f.store.Ballots(), services.SnapshotOptions{
		Timeout: 50 * time.Millisecond,
	})

	start := time.Now()
	_, err := svc.Snapshot(context.Background(), f.election.ID)

	assert.ErrorIs(t, err, domain.ErrStorageFault)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.KindStorageFault, domain.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}
