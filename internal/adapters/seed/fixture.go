// Package seed loads reference data from a YAML fixture into any store that
// implements ports.Seeder.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
	"github.com/vncsmyrnk/evote/internal/core/ports"
	"gopkg.in/yaml.v3"
)

type Fixture struct {
	Categories []Category `yaml:"categories"`
	Elections  []Election `yaml:"elections"`
	Voters     []Voter    `yaml:"voters"`
}

type Category struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	DisplayName string `yaml:"displayName"`
	Description string `yaml:"description"`
}

type Election struct {
	ID               string      `yaml:"id"`
	Title            string      `yaml:"title"`
	Description      string      `yaml:"description"`
	StartTime        time.Time   `yaml:"startTime"`
	EndTime          time.Time   `yaml:"endTime"`
	Active           bool        `yaml:"active"`
	Live             bool        `yaml:"live"`
	FaceVerification bool        `yaml:"faceVerification"`
	OTPVerification  bool        `yaml:"otpVerification"`
	Candidates       []Candidate `yaml:"candidates"`
}

type Candidate struct {
	ID           string `yaml:"id"`
	Category     string `yaml:"category"`
	Name         string `yaml:"name"`
	Party        string `yaml:"party"`
	BallotNumber int    `yaml:"ballotNumber"`
	ImageURL     string `yaml:"imageUrl"`
}

type Voter struct {
	ID            string `yaml:"id"`
	VoterID       string `yaml:"voterId"`
	Name          string `yaml:"name"`
	FaceVerified  bool   `yaml:"faceVerified"`
	PhoneVerified bool   `yaml:"phoneVerified"`
}

func Decode(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

func LoadFile(ctx context.Context, path string, seeder ports.Seeder, logger *slog.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer file.Close()

	f, err := Decode(file)
	if err != nil {
		return err
	}
	return f.Apply(ctx, seeder, logger)
}

// Apply writes categories first so candidates can reference them by name.
func (f *Fixture) Apply(ctx context.Context, seeder ports.Seeder, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	categories := make(map[string]uuid.UUID, len(f.Categories))
	for _, c := range f.Categories {
		id, err := parseID(c.ID)
		if err != nil {
			return fmt.Errorf("category %q: %w", c.Name, err)
		}
		category := domain.Category{ID: id, Name: c.Name, DisplayName: c.DisplayName, Description: c.Description}
		if category.DisplayName == "" {
			category.DisplayName = c.Name
		}
		if err := seeder.SeedCategory(ctx, &category); err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
		categories[c.Name] = category.ID
	}

	for _, e := range f.Elections {
		if err := applyElection(ctx, seeder, e, categories); err != nil {
			return err
		}
	}

	for _, v := range f.Voters {
		id, err := parseID(v.ID)
		if err != nil {
			return fmt.Errorf("voter %q: %w", v.VoterID, err)
		}
		voter := domain.Voter{
			ID:            id,
			VoterID:       v.VoterID,
			Name:          v.Name,
			FaceVerified:  v.FaceVerified,
			PhoneVerified: v.PhoneVerified,
		}
		if err := seeder.SeedVoter(ctx, &voter); err != nil {
			return fmt.Errorf("seed voter %q: %w", v.VoterID, err)
		}
	}

	logger.Info("fixture applied",
		"event", "seed.applied",
		"categories", len(f.Categories),
		"elections", len(f.Elections),
		"voters", len(f.Voters))
	return nil
}

func applyElection(ctx context.Context, seeder ports.Seeder, e Election, categories map[string]uuid.UUID) error {
	id, err := parseID(e.ID)
	if err != nil {
		return fmt.Errorf("election %q: %w", e.Title, err)
	}
	if !e.EndTime.After(e.StartTime) {
		return fmt.Errorf("election %q: end time must be after start time", e.Title)
	}
	election := domain.Election{
		ID:               id,
		Title:            e.Title,
		Description:      e.Description,
		StartTime:        e.StartTime,
		EndTime:          e.EndTime,
		IsActive:         e.Active,
		IsLive:           e.Live,
		FaceVerification: e.FaceVerification,
		OTPVerification:  e.OTPVerification,
	}
	if err := seeder.SeedElection(ctx, &election); err != nil {
		return fmt.Errorf("seed election %q: %w", e.Title, err)
	}

	for _, c := range e.Candidates {
		categoryID, ok := categories[c.Category]
		if !ok {
			return fmt.Errorf("candidate %q: unknown category %q", c.Name, c.Category)
		}
		candidateID, err := parseID(c.ID)
		if err != nil {
			return fmt.Errorf("candidate %q: %w", c.Name, err)
		}
		candidate := domain.Candidate{
			ID:           candidateID,
			CategoryID:   categoryID,
			Name:         c.Name,
			Party:        c.Party,
			BallotNumber: c.BallotNumber,
			ImageURL:     c.ImageURL,
		}
		if err := seeder.SeedCandidate(ctx, election.ID, &candidate); err != nil {
			return fmt.Errorf("seed candidate %q: %w", c.Name, err)
		}
	}
	return nil
}

// parseID accepts an empty string, leaving ID assignment to the store.
func parseID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}
