package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type seeder struct {
	db *sql.DB
}

func NewSeeder(db *sql.DB) ports.Seeder {
	return &seeder{db: db}
}

func (s *seeder) SeedElection(ctx context.Context, e *domain.Election) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if e.IsActive {
		if _, err := tx.ExecContext(ctx, `UPDATE elections SET is_active = FALSE WHERE is_active`); err != nil {
			return fmt.Errorf("failed to deactivate elections: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO elections (`+electionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, e.ID, e.Title, e.Description, e.StartTime, e.EndTime,
		e.IsActive, e.IsLive, e.FaceVerification, e.OTPVerification, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert election: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *seeder) SeedCategory(ctx context.Context, c *domain.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, display_name, description) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.DisplayName, c.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

func (s *seeder) SeedCandidate(ctx context.Context, electionID uuid.UUID, c *domain.Candidate) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO candidates (id, category_id, name, party, ballot_number, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, c.ID, c.CategoryID, c.Name, c.Party, c.BallotNumber, c.ImageURL, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert candidate: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO election_candidates (election_id, candidate_id) VALUES ($1, $2)`,
		electionID, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to assign candidate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *seeder) SeedVoter(ctx context.Context, v *domain.Voter) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO voters (id, voter_id, name, face_verified, phone_verified)
		VALUES ($1, $2, $3, $4, $5)
	`, v.ID, v.VoterID, v.Name, v.FaceVerified, v.PhoneVerified)
	if err != nil {
		return fmt.Errorf("failed to insert voter: %w", err)
	}
	return nil
}
