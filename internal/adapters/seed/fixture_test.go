package seed_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/evote/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/evote/internal/adapters/seed"
)

const fixtureYAML = `
categories:
  - name: president
    displayName: President
  - name: senate
elections:
  - id: 6f1c2a7e-3a52-4f2b-9a3c-1d2e3f405060
    title: General 2026
    startTime: 2026-01-01T00:00:00Z
    endTime: 2099-01-01T00:00:00Z
    active: true
    live: true
    candidates:
      - name: Alice
        category: president
        ballotNumber: 2
      - name: Bob
        category: president
        ballotNumber: 1
      - name: Carol
        category: senate
        ballotNumber: 7
voters:
  - voterId: V-1
    name: Dana
  - id: 0b5c1f8e-8d1e-4f0a-b7f1-5a6b7c8d9e00
    voterId: V-2
    name: Eli
`

func TestApplyFixture(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	f, err := seed.Decode(strings.NewReader(fixtureYAML))
	require.NoError(t, err)
	require.NoError(t, f.Apply(ctx, store.Seeder(), nil))

	active, err := store.Elections().GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "General 2026", active.Title)
	assert.True(t, active.IsLive)

	graph, err := store.Elections().CandidateGraph(ctx, active.ID)
	require.NoError(t, err)
	require.Len(t, graph.Candidates, 3)
	assert.Equal(t, "Alice", graph.Candidates[0].Name)

	ordered := graph.OrderedCategories()
	require.Len(t, ordered, 2)
	assert.Equal(t, "President", ordered[0].DisplayName)
	assert.Equal(t, "senate", ordered[1].DisplayName, "display name defaults to name")

	voter, err := store.Voters().GetByID(ctx, uuid.MustParse("0b5c1f8e-8d1e-4f0a-b7f1-5a6b7c8d9e00"))
	require.NoError(t, err)
	assert.Equal(t, "Eli", voter.Name)
}

func TestApplyRejectsUnknownCategory(t *testing.T) {
	f, err := seed.Decode(strings.NewReader(`
elections:
  - title: Broken
    startTime: 2026-01-01T00:00:00Z
    endTime: 2026-02-01T00:00:00Z
    candidates:
      - name: Ghost
        category: nowhere
`))
	require.NoError(t, err)

	err = f.Apply(context.Background(), memory.NewStore().Seeder(), nil)
	assert.ErrorContains(t, err, "unknown category")
}

func TestApplyRejectsInvertedWindow(t *testing.T) {
	f, err := seed.Decode(strings.NewReader(`
elections:
  - title: Backwards
    startTime: 2026-02-01T00:00:00Z
    endTime: 2026-01-01T00:00:00Z
`))
	require.NoError(t, err)

	assert.Error(t, f.Apply(context.Background(), memory.NewStore().Seeder(), nil))
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := seed.Decode(strings.NewReader("voters:\n  - voterId: V-1\n    nickname: x\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o600))
	store := memory.NewStore()

	require.NoError(t, seed.LoadFile(context.Background(), path, store.Seeder(), nil))

	_, err := store.Elections().GetActive(context.Background())
	assert.NoError(t, err)
	assert.Error(t, seed.LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"), store.Seeder(), nil))
}
