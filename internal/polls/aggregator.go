package polls

import (
	"math"

	"github.com/classpulse/backend/internal/models"
)

// ComputeResults aggregates a poll's responses into per-option tallies.
// Pure function: every option gets a tally (zero included), responses
// naming an unknown option are ignored, and percentages are rounded
// half-up. AllAnswered uses the one-teacher convention: every connected
// participant except one is an eligible respondent.
func ComputeResults(poll *models.Poll, responses map[string]string, totalUsers int) *models.Results {
	tallies := make(map[string]models.OptionTally, len(poll.Options))
	for _, opt := range poll.Options {
		tallies[opt] = models.OptionTally{}
	}

	total := 0
	for _, answer := range responses {
		t, ok := tallies[answer]
		if !ok {
			continue
		}
		t.Votes++
		tallies[answer] = t
		total++
	}

	if total > 0 {
		for opt, t := range tallies {
			t.Percentage = int(math.Round(float64(t.Votes) / float64(total) * 100))
			tallies[opt] = t
		}
	}

	return &models.Results{
		Results:        tallies,
		TotalResponses: total,
		TotalUsers:     totalUsers,
		AllAnswered:    total == totalUsers-1,
	}
}
