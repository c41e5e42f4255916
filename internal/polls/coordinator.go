package polls

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/common/clock"
	"github.com/classpulse/backend/internal/models"
)

// EventSink receives coordinator events for fan-out to connected clients.
// Implemented by the realtime hub.
type EventSink interface {
	Broadcast(event string, payload interface{})
}

// ParticipantCounter reports the number of connected participants.
// Implemented by the session registry.
type ParticipantCounter interface {
	Count() int
}

// Config holds coordinator settings.
type Config struct {
	// DefaultTimeLimitSec is used when a poll is created without a limit.
	DefaultTimeLimitSec int
}

// Coordinator owns the current-poll slot and the poll history. All state
// transitions (create, answer, expire, join-window check) serialize on one
// mutex, and the end transition is idempotent keyed by poll ID, so the
// three end triggers (all answered, timer, join check) compose safely.
type Coordinator struct {
	mu          sync.Mutex
	current     *models.Poll
	responses   map[string]string // participant ID -> chosen option, current poll only
	history     []models.PollHistoryEntry
	expireTimer *time.Timer

	cfg     Config
	counter ParticipantCounter
	sink    EventSink
	clock   clock.Clock
	logger  *zap.Logger
}

// NewCoordinator creates a coordinator with no current poll.
func NewCoordinator(cfg Config, counter ParticipantCounter, sink EventSink, clk clock.Clock, logger *zap.Logger) *Coordinator {
	if cfg.DefaultTimeLimitSec <= 0 {
		cfg.DefaultTimeLimitSec = 60
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		cfg:     cfg,
		counter: counter,
		sink:    sink,
		clock:   clk,
		logger:  logger,
	}
}

// CreatePoll validates and activates a new poll. A new poll is allowed when
// no poll is active, when no students are connected (the stale poll is
// auto-ended), or when everyone already answered (the poll should have been
// ended on the answer path; it is re-ended here defensively).
func (c *Coordinator) CreatePoll(question string, options []string, timeLimitSec int) (*models.Poll, error) {
	if strings.TrimSpace(question) == "" || len(options) < 2 {
		return nil, ErrInvalidPoll
	}
	if timeLimitSec <= 0 {
		timeLimitSec = c.cfg.DefaultTimeLimitSec
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && c.current.IsActive {
		hasStudents := c.counter.Count() > 1
		if !hasStudents {
			c.logger.Warn("no students connected, ending previous poll",
				zap.String("poll_id", c.current.ID))
			c.endLocked(c.current.ID)
		} else {
			results := ComputeResults(c.current, c.responses, c.counter.Count())
			if !results.AllAnswered {
				return nil, ErrPollInProgress
			}
			c.endLocked(c.current.ID)
		}
	}

	now := c.clock.Now()
	poll := &models.Poll{
		ID:           uuid.New().String(),
		Question:     question,
		Options:      options,
		TimeLimitSec: timeLimitSec,
		CreatedAt:    now,
		StartTime:    now,
		ExpiresAt:    now.Add(time.Duration(timeLimitSec) * time.Second),
		IsActive:     true,
	}
	c.current = poll
	c.responses = make(map[string]string)

	pollID := poll.ID
	c.expireTimer = time.AfterFunc(time.Duration(timeLimitSec)*time.Second, func() {
		c.ExpirePollIfDue(pollID)
	})

	c.logger.Info("poll created",
		zap.String("poll_id", poll.ID),
		zap.String("question", poll.Question),
		zap.Strings("options", poll.Options),
		zap.Int("time_limit_sec", timeLimitSec),
	)
	c.sink.Broadcast("new-poll", poll)

	out := *poll
	return &out, nil
}

// RecordAnswer records a participant's answer for the current poll.
// A repeat answer from the same participant overwrites the previous one.
// Ends the poll when every eligible respondent has answered.
func (c *Coordinator) RecordAnswer(pollID, participantID, option string) (*models.Results, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || c.current.ID != pollID {
		return nil, ErrPollNotFound
	}
	if !c.current.IsActive {
		return nil, ErrPollClosed
	}
	if !c.current.HasOption(option) {
		return nil, ErrInvalidOption
	}

	c.responses[participantID] = option
	results := ComputeResults(c.current, c.responses, c.counter.Count())

	c.logger.Info("answer recorded",
		zap.String("poll_id", pollID),
		zap.String("user_id", participantID),
		zap.String("option", option),
		zap.Int("responses", results.TotalResponses),
	)
	c.sink.Broadcast("poll-results-updated", results)

	if results.AllAnswered {
		c.logger.Info("all students answered", zap.String("poll_id", pollID))
		c.endLocked(pollID)
	}
	return results, nil
}

// ExpirePollIfDue ends the poll if it is still the current active poll.
// Invoked by the deferred timer; a poll that already ended by other means
// makes this a no-op.
func (c *Coordinator) ExpirePollIfDue(pollID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.endLocked(pollID) {
		c.logger.Info("poll expired", zap.String("poll_id", pollID))
	}
}

// PollForJoin returns the poll and results to deliver to a joining
// participant. If the active poll has outlived its time window it is ended
// here and nil is returned.
func (c *Coordinator) PollForJoin() (*models.Poll, *models.Results) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || !c.current.IsActive {
		return nil, nil
	}
	elapsed := c.clock.Now().Sub(c.current.StartTime)
	if elapsed >= time.Duration(c.current.TimeLimitSec)*time.Second {
		id := c.current.ID
		c.endLocked(id)
		c.logger.Info("poll expired at join check", zap.String("poll_id", id))
		return nil, nil
	}

	poll := *c.current
	return &poll, ComputeResults(c.current, c.responses, c.counter.Count())
}

// CurrentPoll returns the current poll (active or not) and its results, or
// nils when none exists.
func (c *Coordinator) CurrentPoll() (*models.Poll, *models.Results) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil, nil
	}
	poll := *c.current
	return &poll, ComputeResults(c.current, c.responses, c.counter.Count())
}

// History returns ended polls in completion order.
func (c *Coordinator) History() []models.PollHistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.PollHistoryEntry, len(c.history))
	copy(out, c.history)
	return out
}

// ClearHistory wipes the poll history.
func (c *Coordinator) ClearHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Info("poll history cleared", zap.Int("removed", len(c.history)))
	c.history = nil
}

// endLocked performs the single end-of-life transition: deactivate, stop
// the expiry timer, snapshot to history and broadcast poll-ended. Safe to
// call from any trigger; ending a poll that is not the active current poll
// is a no-op. Caller must hold c.mu.
func (c *Coordinator) endLocked(pollID string) bool {
	if c.current == nil || c.current.ID != pollID || !c.current.IsActive {
		return false
	}
	c.current.IsActive = false
	if c.expireTimer != nil {
		c.expireTimer.Stop()
		c.expireTimer = nil
	}

	final := ComputeResults(c.current, c.responses, c.counter.Count())
	c.history = append(c.history, models.PollHistoryEntry{
		Poll:           *c.current,
		Results:        final.Results,
		TotalResponses: final.TotalResponses,
	})

	c.logger.Info("poll ended",
		zap.String("poll_id", pollID),
		zap.Int("total_responses", final.TotalResponses),
		zap.Int("history_size", len(c.history)),
	)
	c.sink.Broadcast("poll-ended", map[string]interface{}{
		"pollId":  pollID,
		"results": final,
	})
	return true
}
