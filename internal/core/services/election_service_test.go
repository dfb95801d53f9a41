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

func TestActiveElection(t *testing.T) {
	f := newFixture(t, 0)
	svc := services.NewElectionService(f.store.Elections(), f.store.Lifecycle(), nil)

	active, err := svc.Active(context.Background())

	require.NoError(t, err)
	assert.Equal(t, f.election.ID, active.ID)
	assert.True(t, active.IsOpen)
	assert.Len(t, active.Candidates, 3)
	require.Len(t, active.Categories, 2)
	assert.Equal(t, f.president.ID, active.Categories[0].ID)
}

func TestActivateKeepsSingleActiveElection(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	other := domain.Election{Title: "Other", StartTime: time.Now(), EndTime: time.Now().Add(time.Hour)}
	require.NoError(t, f.store.Seeder().SeedElection(ctx, &other))
	svc := services.NewElectionService(f.store.Elections(), f.store.Lifecycle(), nil)

	require.NoError(t, svc.Activate(ctx, other.ID))

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, other.ID, active.ID)
	first, err := f.store.Elections().GetByID(ctx, f.election.ID)
	require.NoError(t, err)
	assert.False(t, first.IsActive)
}

func TestLifecycleUnknownElection(t *testing.T) {
	f := newFixture(t, 0)
	svc := services.NewElectionService(f.store.Elections(), f.store.Lifecycle(), nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Activate(ctx, uuid.New()), domain.ErrElectionNotFound)
	assert.ErrorIs(t, svc.Deactivate(ctx, uuid.New()), domain.ErrElectionNotFound)
	assert.ErrorIs(t, svc.SetLive(ctx, uuid.New(), true), domain.ErrElectionNotFound)
}

func TestNoActiveElection(t *testing.T) {
	f := newFixture(t, 0)
	svc := services.NewElectionService(f.store.Elections(), f.store.Lifecycle(), nil)
	ctx := context.Background()

	require.NoError(t, svc.Deactivate(ctx, f.election.ID))
	_, err := svc.Active(ctx)

	assert.ErrorIs(t, err, domain.ErrElectionNotFound)
}

func TestSetLive(t *testing.T) {
	f := newFixture(t, 0)
	svc := services.NewElectionService(f.store.Elections(), f.store.Lifecycle(), nil)
	ctx := context.Background()

	require.NoError(t, svc.SetLive(ctx, f.election.ID, false))

	e, err := f.store.Elections().GetByID(ctx, f.election.ID)
	require.NoError(t, err)
	assert.False(t, e.IsLive)
}
