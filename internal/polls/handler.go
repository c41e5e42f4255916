package polls

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/classpulse/backend/pkg/response"
)

// CreateRequest is the body for POST /api/polls.
type CreateRequest struct {
	Question     string   `json:"question" binding:"required"`
	Options      []string `json:"options" binding:"required"`
	TimeLimitSec int      `json:"timeLimit"`
}

// AnswerRequest is the body for POST /api/polls/:pollId/answer.
type AnswerRequest struct {
	UserID string `json:"userId" binding:"required"`
	Answer string `json:"answer" binding:"required"`
}

// Handler handles poll HTTP endpoints.
type Handler struct {
	coordinator *Coordinator
}

// NewHandler creates a polls handler.
func NewHandler(coordinator *Coordinator) *Handler {
	return &Handler{coordinator: coordinator}
}

// Create handles POST /api/polls.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, ErrInvalidPoll.Error())
		return
	}

	poll, err := h.coordinator.CreatePoll(req.Question, req.Options, req.TimeLimitSec)
	switch {
	case errors.Is(err, ErrInvalidPoll):
		response.BadRequest(c, err.Error())
		return
	case errors.Is(err, ErrPollInProgress):
		response.Conflict(c, err.Error())
		return
	case err != nil:
		response.Internal(c, "failed to create poll")
		return
	}
	response.Created(c, gin.H{"poll": poll})
}

// Answer handles POST /api/polls/:pollId/answer.
func (h *Handler) Answer(c *gin.Context) {
	pollID := c.Param("pollId")

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "userId and answer are required")
		return
	}

	results, err := h.coordinator.RecordAnswer(pollID, req.UserID, req.Answer)
	switch {
	case errors.Is(err, ErrPollNotFound):
		response.NotFound(c, err.Error())
		return
	case errors.Is(err, ErrPollClosed), errors.Is(err, ErrInvalidOption):
		response.BadRequest(c, err.Error())
		return
	case err != nil:
		response.Internal(c, "failed to record answer")
		return
	}
	response.OK(c, gin.H{"results": results})
}

// Current handles GET /api/current-poll.
func (h *Handler) Current(c *gin.Context) {
	poll, results := h.coordinator.CurrentPoll()
	response.OK(c, gin.H{"poll": poll, "results": results})
}

// History handles GET /api/poll-history.
func (h *Handler) History(c *gin.Context) {
	response.OK(c, gin.H{"history": h.coordinator.History()})
}

// ClearHistory handles DELETE /api/poll-history.
func (h *Handler) ClearHistory(c *gin.Context) {
	h.coordinator.ClearHistory()
	response.OK(c, gin.H{"message": "poll history cleared"})
}
