package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
)

type electionRepository struct {
	db *sql.DB
}

func NewElectionRepository(db *sql.DB) ports.ElectionRepository {
	return &electionRepository{
		db: db,
	}
}

func NewElectionLifecycle(db *sql.DB) ports.ElectionLifecycle {
	return &electionRepository{
		db: db,
	}
}

const electionColumns = `id, title, description, start_time, end_time, is_active, is_live, face_verification, otp_verification, created_at`

func scanElection(row interface{ Scan(...any) error }) (*domain.Election, error) {
	var e domain.Election
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.StartTime, &e.EndTime,
		&e.IsActive, &e.IsLive, &e.FaceVerification, &e.OTPVerification, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *electionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Election, error) {
	query := `SELECT ` + electionColumns + ` FROM elections WHERE id = $1`
	election, err := scanElection(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrElectionNotFound
		}
		return nil, fmt.Errorf("failed to get election: %w", err)
	}
	return election, nil
}

func (r *electionRepository) GetActive(ctx context.Context) (*domain.Election, error) {
	query := `SELECT ` + electionColumns + ` FROM elections WHERE is_active LIMIT 1`
	election, err := scanElection(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrElectionNotFound
		}
		return nil, fmt.Errorf("failed to get active election: %w", err)
	}
	return election, nil
}

func (r *electionRepository) CandidateGraph(ctx context.Context, electionID uuid.UUID) (*domain.CandidateGraph, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM elections WHERE id = $1`, electionID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrElectionNotFound
		}
		return nil, fmt.Errorf("failed to check election: %w", err)
	}

	query := `
		SELECT c.id, c.category_id, c.name, c.party, c.ballot_number, c.image_url, c.created_at,
		       cat.name, cat.display_name, cat.description
		FROM election_candidates ec
		JOIN candidates c ON c.id = ec.candidate_id
		JOIN categories cat ON cat.id = c.category_id
		WHERE ec.election_id = $1
		ORDER BY ec.position
	`
	rows, err := r.db.QueryContext(ctx, query, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidates: %w", err)
	}
	defer rows.Close()

	graph := &domain.CandidateGraph{
		ElectionID: electionID,
		Categories: make(map[uuid.UUID]domain.Category),
	}
	for rows.Next() {
		var c domain.Candidate
		var cat domain.Category
		if err := rows.Scan(
			&c.ID, &c.CategoryID, &c.Name, &c.Party, &c.BallotNumber, &c.ImageURL, &c.CreatedAt,
			&cat.Name, &cat.DisplayName, &cat.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		cat.ID = c.CategoryID
		graph.Categories[cat.ID] = cat
		graph.Candidates = append(graph.Candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}
	return graph, nil
}

func (r *electionRepository) Activate(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Deactivate first so the single-active index never sees two rows.
	if _, err := tx.ExecContext(ctx, `UPDATE elections SET is_active = FALSE WHERE is_active AND id <> $1`, id); err != nil {
		return fmt.Errorf("failed to deactivate elections: %w", err)
	}
	if err := execOne(ctx, tx, `UPDATE elections SET is_active = TRUE WHERE id = $1`, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *electionRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, r.db, `UPDATE elections SET is_active = FALSE WHERE id = $1`, id)
}

func (r *electionRepository) SetLive(ctx context.Context, id uuid.UUID, live bool) error {
	return execOne(ctx, r.db, `UPDATE elections SET is_live = $2 WHERE id = $1`, id, live)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execOne runs an update that must touch exactly one election.
func execOne(ctx context.Context, db execer, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update election: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrElectionNotFound
	}
	return nil
}
