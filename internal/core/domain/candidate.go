package domain

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Description string    `json:"description,omitempty"`
}

type Candidate struct {
	ID           uuid.UUID `json:"id"`
	CategoryID   uuid.UUID `json:"categoryId"`
	Name         string    `json:"name"`
	Party        string    `json:"party,omitempty"`
	BallotNumber int       `json:"ballotNumber"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CandidateGraph is the set of candidates assigned to one election, in
// registration order, together with the categories they belong to.
type CandidateGraph struct {
	ElectionID uuid.UUID
	Categories map[uuid.UUID]Category
	Candidates []Candidate
}

// Allows reports whether candidateID is assigned to the election under categoryID.
func (g *CandidateGraph) Allows(categoryID, candidateID uuid.UUID) bool {
	for _, c := range g.Candidates {
		if c.ID == candidateID {
			return c.CategoryID == categoryID
		}
	}
	return false
}

// OrderedCategories returns the categories in order of first appearance in
// the candidate list.
func (g *CandidateGraph) OrderedCategories() []Category {
	seen := make(map[uuid.UUID]bool, len(g.Categories))
	var out []Category
	for _, c := range g.Candidates {
		if seen[c.CategoryID] {
			continue
		}
		seen[c.CategoryID] = true
		cat, ok := g.Categories[c.CategoryID]
		if !ok {
			cat = Category{ID: c.CategoryID}
		}
		out = append(out, cat)
	}
	return out
}
