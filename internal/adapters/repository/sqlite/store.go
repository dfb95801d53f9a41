// Package sqlite is the single-node store, backed by gorm over a pure-Go
// sqlite driver.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

// Open connects to the sqlite database at dsn and migrates the schema.
// Use "file::memory:?cache=shared" for an in-memory database.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	// sqlite allows one writer; serialising here keeps transactions from
	// failing with SQLITE_BUSY under concurrent submissions.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&Election{},
		&Category{},
		&Candidate{},
		&ElectionCandidate{},
		&Voter{},
		&VoterParticipation{},
		&Ballot{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_elections_single_active ON elections (is_active) WHERE is_active`,
	).Error; err != nil {
		return nil, fmt.Errorf("failed to create active election index: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Voters() ports.VoterRepository {
	return voterRepository{s.db}
}

func (s *Store) Elections() ports.ElectionRepository {
	return electionRepository{s.db}
}

func (s *Store) Lifecycle() ports.ElectionLifecycle {
	return electionRepository{s.db}
}

func (s *Store) Ballots() ports.BallotRepository {
	return ballotRepository{s.db}
}

func (s *Store) Seeder() ports.Seeder {
	return seeder{s.db}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type voterRepository struct{ db *gorm.DB }

func (r voterRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Voter, error) {
	var v Voter
	err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVoterNotFound
		}
		return nil, fmt.Errorf("failed to get voter: %w", err)
	}
	return &domain.Voter{
		ID:            v.ID,
		VoterID:       v.VoterID,
		Name:          v.Name,
		FaceVerified:  v.FaceVerified,
		PhoneVerified: v.PhoneVerified,
	}, nil
}

type electionRepository struct{ db *gorm.DB }

func (r electionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Election, error) {
	var e Election
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrElectionNotFound
		}
		return nil, fmt.Errorf("failed to get election: %w", err)
	}
	return e.toDomain(), nil
}

func (r electionRepository) GetActive(ctx context.Context) (*domain.Election, error) {
	var e Election
	err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrElectionNotFound
		}
		return nil, fmt.Errorf("failed to get active election: %w", err)
	}
	return e.toDomain(), nil
}

type graphRow struct {
	Candidate
	CategoryName        string
	CategoryDisplayName string
	CategoryDescription string
}

func (r electionRepository) CandidateGraph(ctx context.Context, electionID uuid.UUID) (*domain.CandidateGraph, error) {
	if _, err := r.GetByID(ctx, electionID); err != nil {
		return nil, err
	}

	var rows []graphRow
	err := r.db.WithContext(ctx).
		Table("election_candidates AS ec").
		Select(`c.*, cat.name AS category_name, cat.display_name AS category_display_name, cat.description AS category_description`).
		Joins("JOIN candidates c ON c.id = ec.candidate_id").
		Joins("JOIN categories cat ON cat.id = c.category_id").
		Where("ec.election_id = ?", electionID).
		Order("ec.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get candidates: %w", err)
	}

	graph := &domain.CandidateGraph{
		ElectionID: electionID,
		Categories: make(map[uuid.UUID]domain.Category),
	}
	for _, row := range rows {
		graph.Categories[row.CategoryID] = domain.Category{
			ID:          row.CategoryID,
			Name:        row.CategoryName,
			DisplayName: row.CategoryDisplayName,
			Description: row.CategoryDescription,
		}
		graph.Candidates = append(graph.Candidates, domain.Candidate{
			ID:           row.ID,
			CategoryID:   row.CategoryID,
			Name:         row.Name,
			Party:        row.Party,
			BallotNumber: row.BallotNumber,
			ImageURL:     row.ImageURL,
			CreatedAt:    row.CreatedAt,
		})
	}
	return graph, nil
}

func (r electionRepository) Activate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&Election{}).
			Where("is_active = ? AND id <> ?", true, id).
			Update("is_active", false).Error
		if err != nil {
			return fmt.Errorf("failed to deactivate elections: %w", err)
		}
		return updateOne(tx, id, "is_active", true)
	})
}

func (r electionRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return updateOne(r.db.WithContext(ctx), id, "is_active", false)
}

func (r electionRepository) SetLive(ctx context.Context, id uuid.UUID, live bool) error {
	return updateOne(r.db.WithContext(ctx), id, "is_live", live)
}

func updateOne(db *gorm.DB, id uuid.UUID, column string, value any) error {
	res := db.Model(&Election{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("failed to update election: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrElectionNotFound
	}
	return nil
}

type ballotRepository struct{ db *gorm.DB }

func (r ballotRepository) HasVoted(ctx context.Context, voterID, electionID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&VoterParticipation{}).
		Where("voter_id = ? AND election_id = ?", voterID, electionID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check participation: %w", err)
	}
	return count > 0, nil
}

func (r ballotRepository) SaveBallots(ctx context.Context, set *domain.BallotSet) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		participation := VoterParticipation{
			VoterID:     set.VoterID,
			ElectionID:  set.ElectionID,
			SubmittedAt: set.SubmittedAt,
		}
		if err := tx.Create(&participation).Error; err != nil {
			return err
		}
		if len(set.Ballots) == 0 {
			return nil
		}
		rows := make([]Ballot, 0, len(set.Ballots))
		for _, b := range set.Ballots {
			rows = append(rows, Ballot{
				ID:          b.ID,
				VoterID:     b.VoterID,
				ElectionID:  b.ElectionID,
				CategoryID:  b.CategoryID,
				CandidateID: b.CandidateID,
				CastAt:      b.CastAt,
			})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyVoted
		}
		return fmt.Errorf("failed to save ballots: %w", err)
	}
	return nil
}

func (r ballotRepository) ListByElection(ctx context.Context, electionID uuid.UUID) ([]domain.Ballot, error) {
	var rows []Ballot
	err := r.db.WithContext(ctx).
		Where("election_id = ?", electionID).
		Order("cast_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ballots: %w", err)
	}
	out := make([]domain.Ballot, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

type seeder struct{ db *gorm.DB }

func (s seeder) SeedElection(ctx context.Context, e *domain.Election) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if e.IsActive {
			err := tx.Model(&Election{}).Where("is_active = ?", true).Update("is_active", false).Error
			if err != nil {
				return fmt.Errorf("failed to deactivate elections: %w", err)
			}
		}
		row := Election{
			ID:               e.ID,
			Title:            e.Title,
			Description:      e.Description,
			StartTime:        e.StartTime,
			EndTime:          e.EndTime,
			IsActive:         e.IsActive,
			IsLive:           e.IsLive,
			FaceVerification: e.FaceVerification,
			OTPVerification:  e.OTPVerification,
			CreatedAt:        e.CreatedAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert election: %w", err)
		}
		return nil
	})
}

func (s seeder) SeedCategory(ctx context.Context, c *domain.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	row := Category{ID: c.ID, Name: c.Name, DisplayName: c.DisplayName, Description: c.Description}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

func (s seeder) SeedCandidate(ctx context.Context, electionID uuid.UUID, c *domain.Candidate) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Election{}).Where("id = ?", electionID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check election: %w", err)
		}
		if count == 0 {
			return domain.ErrElectionNotFound
		}
		row := Candidate{
			ID:           c.ID,
			CategoryID:   c.CategoryID,
			Name:         c.Name,
			Party:        c.Party,
			BallotNumber: c.BallotNumber,
			ImageURL:     c.ImageURL,
			CreatedAt:    c.CreatedAt,
		}
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("failed to insert candidate: %w", err)
		}
		assignment := ElectionCandidate{ElectionID: electionID, CandidateID: c.ID}
		if err := tx.Create(&assignment).Error; err != nil {
			return fmt.Errorf("failed to assign candidate: %w", err)
		}
		return nil
	})
}

func (s seeder) SeedVoter(ctx context.Context, v *domain.Voter) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	row := Voter{
		ID:            v.ID,
		VoterID:       v.VoterID,
		Name:          v.Name,
		FaceVerified:  v.FaceVerified,
		PhoneVerified: v.PhoneVerified,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert voter: %w", err)
	}
	return nil
}
