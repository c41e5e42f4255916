package polls

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(coordinator *Coordinator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(coordinator)
	router := gin.New()
	api := router.Group("/api")
	api.GET("/current-poll", handler.Current)
	api.GET("/poll-history", handler.History)
	api.DELETE("/poll-history", handler.ClearHistory)
	api.POST("/polls", handler.Create)
	api.POST("/polls/:pollId/answer", handler.Answer)
	return router
}

func newTestCoordinator(students int) (*Coordinator, *fakeCounter) {
	clk := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	counter := &fakeCounter{n: students + 1}
	return NewCoordinator(Config{DefaultTimeLimitSec: 60}, counter, &recordingSink{}, clk, nil), counter
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return w, envelope
}

func TestCreatePollEndpoint(t *testing.T) {
	coordinator, _ := newTestCoordinator(2)
	router := newTestRouter(coordinator)

	w, envelope := doJSON(t, router, http.MethodPost, "/api/polls",
		`{"question":"Q","options":["A","B"],"timeLimit":60}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, envelope["success"])
	data := envelope["data"].(map[string]interface{})
	poll := data["poll"].(map[string]interface{})
	assert.Equal(t, "Q", poll["question"])
	assert.Equal(t, true, poll["isActive"])
}

func TestCreatePollEndpointValidation(t *testing.T) {
	coordinator, _ := newTestCoordinator(2)
	router := newTestRouter(coordinator)

	w, envelope := doJSON(t, router, http.MethodPost, "/api/polls", `{"question":"Q"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, envelope["success"])

	w, _ = doJSON(t, router, http.MethodPost, "/api/polls", `{"question":"Q","options":["A"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePollEndpointConflict(t *testing.T) {
	coordinator, _ := newTestCoordinator(2)
	router := newTestRouter(coordinator)

	w, _ := doJSON(t, router, http.MethodPost, "/api/polls", `{"question":"Q","options":["A","B"]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w, envelope := doJSON(t, router, http.MethodPost, "/api/polls", `{"question":"Q2","options":["X","Y"]}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotEmpty(t, envelope["error"])
}

func TestAnswerEndpoint(t *testing.T) {
	coordinator, _ := newTestCoordinator(2)
	router := newTestRouter(coordinator)

	poll, err := coordinator.CreatePoll("Q", []string{"A", "B"}, 60)
	require.NoError(t, err)

	w, envelope := doJSON(t, router, http.MethodPost, "/api/polls/"+poll.ID+"/answer",
		`{"userId":"student_1","answer":"A"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	data := envelope["data"].(map[string]interface{})
	results := data["results"].(map[string]interface{})
	assert.Equal(t, float64(1), results["totalResponses"])

	w, _ = doJSON(t, router, http.MethodPost, "/api/polls/unknown/answer",
		`{"userId":"student_1","answer":"A"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doJSON(t, router, http.MethodPost, "/api/polls/"+poll.ID+"/answer",
		`{"userId":"student_1","answer":"Z"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	coordinator, _ := newTestCoordinator(2)
	router := newTestRouter(coordinator)

	poll, err := coordinator.CreatePoll("Q", []string{"A", "B"}, 60)
	require.NoError(t, err)
	coordinator.ExpirePollIfDue(poll.ID)

	w, envelope := doJSON(t, router, http.MethodGet, "/api/poll-history", "")
	assert.Equal(t, http.StatusOK, w.Code)
	data := envelope["data"].(map[string]interface{})
	assert.Len(t, data["history"], 1)

	w, _ = doJSON(t, router, http.MethodDelete, "/api/poll-history", "")
	assert.Equal(t, http.StatusOK, w.Code)

	_, envelope = doJSON(t, router, http.MethodGet, "/api/poll-history", "")
	data = envelope["data"].(map[string]interface{})
	assert.Empty(t, data["history"])
}

func TestCurrentPollEndpoint(t *testing.T) {
	coordinator, _ := newTestCoordinator(2)
	router := newTestRouter(coordinator)

	_, envelope := doJSON(t, router, http.MethodGet, "/api/current-poll", "")
	data := envelope["data"].(map[string]interface{})
	assert.Nil(t, data["poll"])

	_, err := coordinator.CreatePoll("Q", []string{"A", "B"}, 60)
	require.NoError(t, err)

	_, envelope = doJSON(t, router, http.MethodGet, "/api/current-poll", "")
	data = envelope["data"].(map[string]interface{})
	require.NotNil(t, data["poll"])
	poll := data["poll"].(map[string]interface{})
	assert.Equal(t, "Q", poll["question"])
}
