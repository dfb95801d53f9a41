package services

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/evote/internal/core/domain"
)

// Aggregate tallies ballots against the candidate graph. It is pure: the
// same graph and ballot multiset always produce the same result.
//
// Categories appear in order of first registration. Within a category,
// candidates are ordered by votes desc, then ballot number asc, then
// registration order, and the first entry is the winner. Ballots naming a
// candidate outside the graph are ignored.
func Aggregate(graph *domain.CandidateGraph, ballots []domain.Ballot) []domain.CategoryResult {
	if graph == nil {
		return []domain.CategoryResult{}
	}

	type key struct{ category, candidate uuid.UUID }
	counts := make(map[key]int, len(graph.Candidates))
	for _, b := range ballots {
		counts[key{b.CategoryID, b.CandidateID}]++
	}

	registered := make(map[uuid.UUID]int, len(graph.Candidates))
	byCategory := make(map[uuid.UUID][]domain.CandidateResult)
	for i, c := range graph.Candidates {
		registered[c.ID] = i
		byCategory[c.CategoryID] = append(byCategory[c.CategoryID], domain.CandidateResult{
			Candidate: c,
			Votes:     counts[key{c.CategoryID, c.ID}],
		})
	}

	categories := graph.OrderedCategories()
	results := make([]domain.CategoryResult, 0, len(categories))
	for _, cat := range categories {
		entries := byCategory[cat.ID]

		total := 0
		for _, e := range entries {
			total += e.Votes
		}
		for i := range entries {
			entries[i].Percentage = percentage(entries[i].Votes, total)
		}

		sort.SliceStable(entries, func(i, j int) bool {
			a, b := entries[i], entries[j]
			if a.Votes != b.Votes {
				return a.Votes > b.Votes
			}
			if a.BallotNumber != b.BallotNumber {
				return a.BallotNumber < b.BallotNumber
			}
			return registered[a.ID] < registered[b.ID]
		})

		res := domain.CategoryResult{
			Category:   cat,
			TotalVotes: total,
			Candidates: entries,
		}
		if len(entries) > 0 {
			winner := entries[0]
			res.Winner = &winner
			res.Tied = total > 0 && len(entries) > 1 && entries[1].Votes == winner.Votes
		}
		results = append(results, res)
	}
	return results
}

func percentage(votes, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(votes) / float64(total) * 100))
}
