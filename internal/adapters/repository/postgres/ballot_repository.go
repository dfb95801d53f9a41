package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type ballotRepository struct {
	db *sql.DB
}

func NewBallotRepository(db *sql.DB) ports.BallotRepository {
	return &ballotRepository{
		db: db,
	}
}

func (r *ballotRepository) HasVoted(ctx context.Context, voterID, electionID uuid.UUID) (bool, error) {
	query := `SELECT 1 FROM voter_participations WHERE voter_id = $1 AND election_id = $2`
	var exists int
	err := r.db.QueryRowContext(ctx, query, voterID, electionID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check participation: %w", err)
	}
	return true, nil
}

// SaveBallots writes the participation row and every ballot in one
// transaction. The primary key on voter_participations and the unique
// constraint on ballots decide racing submissions.
func (r *ballotRepository) SaveBallots(ctx context.Context, set *domain.BallotSet) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO voter_participations (voter_id, election_id, submitted_at) VALUES ($1, $2, $3)`,
		set.VoterID, set.ElectionID, set.SubmittedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyVoted
		}
		return fmt.Errorf("failed to record participation: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ballots (id, voter_id, election_id, category_id, candidate_id, cast_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare ballot statement: %w", err)
	}
	defer stmt.Close()

	for _, b := range set.Ballots {
		_, err = stmt.ExecContext(ctx, b.ID, b.VoterID, b.ElectionID, b.CategoryID, b.CandidateID, b.CastAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAlreadyVoted
			}
			return fmt.Errorf("failed to insert ballot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyVoted
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *ballotRepository) ListByElection(ctx context.Context, electionID uuid.UUID) ([]domain.Ballot, error) {
	query := `
		SELECT id, voter_id, election_id, category_id, candidate_id, cast_at
		FROM ballots
		WHERE election_id = $1
		ORDER BY cast_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ballots: %w", err)
	}
	defer rows.Close()

	var ballots []domain.Ballot
	for rows.Next() {
		var b domain.Ballot
		if err := rows.Scan(&b.ID, &b.VoterID, &b.ElectionID, &b.CategoryID, &b.CandidateID, &b.CastAt); err != nil {
			return nil, fmt.Errorf("failed to scan ballot: %w", err)
		}
		ballots = append(ballots, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ballots: %w", err)
	}
	return ballots, nil
}
