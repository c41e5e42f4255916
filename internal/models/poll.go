package models

import "time"

// Poll is a multiple-choice question with a time window. Exactly one poll
// may be current at a time; only the coordinator mutates IsActive.
type Poll struct {
	ID           string    `json:"id"`
	Question     string    `json:"question"`
	Options      []string  `json:"options"`
	TimeLimitSec int       `json:"timeLimit"`
	CreatedAt    time.Time `json:"createdAt"`
	StartTime    time.Time `json:"startTime"`
	ExpiresAt    time.Time `json:"expiresAt"`
	IsActive     bool      `json:"isActive"`
}

// HasOption reports whether label is one of the poll's options.
func (p *Poll) HasOption(label string) bool {
	for _, o := range p.Options {
		if o == label {
			return true
		}
	}
	return false
}

// OptionTally is the vote count and rounded percentage for one option.
type OptionTally struct {
	Votes      int `json:"votes"`
	Percentage int `json:"percentage"`
}

// Results is the aggregate view of a poll's responses.
type Results struct {
	Results        map[string]OptionTally `json:"results"`
	TotalResponses int                    `json:"totalResponses"`
	TotalUsers     int                    `json:"totalUsers"`
	AllAnswered    bool                   `json:"allAnswered"`
}

// PollHistoryEntry is an immutable snapshot of an ended poll with its
// final tallies.
type PollHistoryEntry struct {
	Poll
	Results        map[string]OptionTally `json:"results"`
	TotalResponses int                    `json:"totalResponses"`
}
