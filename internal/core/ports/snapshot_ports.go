package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
)

type SnapshotService interface {
	Snapshot(ctx context.Context, electionID uuid.UUID) (*domain.ResultSnapshot, error)
}

// SnapshotPublisher hands a snapshot to the distribution relay. Publish must
// return immediately and never fail the caller.
type SnapshotPublisher interface {
	Publish(snapshot *domain.ResultSnapshot)
}
