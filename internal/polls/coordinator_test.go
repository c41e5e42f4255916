package polls

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/classpulse/backend/internal/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type fakeCounter struct {
	n int
}

func (f *fakeCounter) Count() int { return f.n }

type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSink) Broadcast(event string, payload interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) count(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e == event {
			n++
		}
	}
	return n
}

func (s *recordingSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	copy(out, s.events)
	return out
}

type CoordinatorTestSuite struct {
	suite.Suite
	clock       *fakeClock
	counter     *fakeCounter
	sink        *recordingSink
	coordinator *Coordinator
}

func (s *CoordinatorTestSuite) SetupTest() {
	s.clock = &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	s.counter = &fakeCounter{n: 3} // one teacher, two students
	s.sink = &recordingSink{}
	s.coordinator = NewCoordinator(Config{DefaultTimeLimitSec: 60}, s.counter, s.sink, s.clock, nil)
}

func (s *CoordinatorTestSuite) createPoll() *models.Poll {
	poll, err := s.coordinator.CreatePoll("Q", []string{"A", "B"}, 60)
	s.Require().NoError(err)
	return poll
}

func (s *CoordinatorTestSuite) TestCreatePollValidation() {
	_, err := s.coordinator.CreatePoll("", []string{"A", "B"}, 60)
	s.ErrorIs(err, ErrInvalidPoll)

	_, err = s.coordinator.CreatePoll("Q", []string{"A"}, 60)
	s.ErrorIs(err, ErrInvalidPoll)

	_, err = s.coordinator.CreatePoll("   ", []string{"A", "B"}, 60)
	s.ErrorIs(err, ErrInvalidPoll)
}

func (s *CoordinatorTestSuite) TestCreatePoll() {
	poll := s.createPoll()

	s.True(poll.IsActive)
	s.Equal("Q", poll.Question)
	s.Equal(poll.StartTime.Add(60*time.Second), poll.ExpiresAt)
	s.Equal([]string{"new-poll"}, s.sink.names())
}

func (s *CoordinatorTestSuite) TestCreatePollDefaultTimeLimit() {
	poll, err := s.coordinator.CreatePoll("Q", []string{"A", "B"}, 0)
	s.Require().NoError(err)
	s.Equal(60, poll.TimeLimitSec)
}

func (s *CoordinatorTestSuite) TestCreateBlockedWhileStudentsAnswering() {
	first := s.createPoll()

	_, err := s.coordinator.CreatePoll("Q2", []string{"X", "Y"}, 60)
	s.ErrorIs(err, ErrPollInProgress)

	current, _ := s.coordinator.CurrentPoll()
	s.Equal(first.ID, current.ID)
	s.True(current.IsActive)
	s.Empty(s.coordinator.History())
}

func (s *CoordinatorTestSuite) TestCreateAutoEndsPollWithNoStudents() {
	first := s.createPoll()
	s.counter.n = 1 // teacher alone

	second, err := s.coordinator.CreatePoll("Q2", []string{"X", "Y"}, 60)
	s.Require().NoError(err)

	history := s.coordinator.History()
	s.Require().Len(history, 1)
	s.Equal(first.ID, history[0].ID)
	s.False(history[0].IsActive)

	current, _ := s.coordinator.CurrentPoll()
	s.Equal(second.ID, current.ID)
	s.Equal(1, s.sink.count("poll-ended"))
}

func (s *CoordinatorTestSuite) TestCreateProceedsAfterAllAnswered() {
	first := s.createPoll()
	_, err := s.coordinator.RecordAnswer(first.ID, "student_1", "A")
	s.Require().NoError(err)
	_, err = s.coordinator.RecordAnswer(first.ID, "student_2", "B")
	s.Require().NoError(err)

	second, err := s.coordinator.CreatePoll("Q2", []string{"X", "Y"}, 60)
	s.Require().NoError(err)
	s.NotEqual(first.ID, second.ID)
	s.Len(s.coordinator.History(), 1)
}

func (s *CoordinatorTestSuite) TestAnswerFlowEndsWhenAllAnswered() {
	poll := s.createPoll()

	results, err := s.coordinator.RecordAnswer(poll.ID, "student_1", "A")
	s.Require().NoError(err)
	s.Equal(1, results.Results["A"].Votes)
	s.Equal(0, results.Results["B"].Votes)
	s.Equal(1, results.TotalResponses)
	s.False(results.AllAnswered)

	results, err = s.coordinator.RecordAnswer(poll.ID, "student_2", "B")
	s.Require().NoError(err)
	s.Equal(1, results.Results["A"].Votes)
	s.Equal(1, results.Results["B"].Votes)
	s.Equal(2, results.TotalResponses)
	s.True(results.AllAnswered)

	current, _ := s.coordinator.CurrentPoll()
	s.False(current.IsActive)
	s.Require().Len(s.coordinator.History(), 1)
	s.Equal(2, s.coordinator.History()[0].TotalResponses)

	// poll-ended fires once, after the final results update.
	names := s.sink.names()
	s.Equal(1, s.sink.count("poll-ended"))
	s.Equal("poll-results-updated", names[len(names)-2])
	s.Equal("poll-ended", names[len(names)-1])
}

func (s *CoordinatorTestSuite) TestDuplicateAnswerOverwrites() {
	poll := s.createPoll()

	_, err := s.coordinator.RecordAnswer(poll.ID, "student_1", "A")
	s.Require().NoError(err)
	results, err := s.coordinator.RecordAnswer(poll.ID, "student_1", "B")
	s.Require().NoError(err)

	s.Equal(0, results.Results["A"].Votes)
	s.Equal(1, results.Results["B"].Votes)
	s.Equal(1, results.TotalResponses)
}

func (s *CoordinatorTestSuite) TestAnswerErrors() {
	poll := s.createPoll()

	_, err := s.coordinator.RecordAnswer("bogus", "student_1", "A")
	s.ErrorIs(err, ErrPollNotFound)

	_, err = s.coordinator.RecordAnswer(poll.ID, "student_1", "C")
	s.ErrorIs(err, ErrInvalidOption)

	// Rejected answer leaves the response set unchanged.
	_, results := s.coordinator.CurrentPoll()
	s.Equal(0, results.TotalResponses)

	s.coordinator.ExpirePollIfDue(poll.ID)
	_, err = s.coordinator.RecordAnswer(poll.ID, "student_1", "A")
	s.ErrorIs(err, ErrPollClosed)
}

func (s *CoordinatorTestSuite) TestExpireEndsActivePoll() {
	poll := s.createPoll()

	s.coordinator.ExpirePollIfDue(poll.ID)

	current, _ := s.coordinator.CurrentPoll()
	s.False(current.IsActive)
	s.Len(s.coordinator.History(), 1)
	s.Equal(1, s.sink.count("poll-ended"))
}

func (s *CoordinatorTestSuite) TestExpireAfterAllAnsweredIsNoOp() {
	poll := s.createPoll()
	_, err := s.coordinator.RecordAnswer(poll.ID, "student_1", "A")
	s.Require().NoError(err)
	_, err = s.coordinator.RecordAnswer(poll.ID, "student_2", "B")
	s.Require().NoError(err)

	s.coordinator.ExpirePollIfDue(poll.ID)

	s.Len(s.coordinator.History(), 1)
	s.Equal(1, s.sink.count("poll-ended"))
}

func (s *CoordinatorTestSuite) TestExpireStalePollIDIsNoOp() {
	first := s.createPoll()
	s.coordinator.ExpirePollIfDue(first.ID)
	second, err := s.coordinator.CreatePoll("Q2", []string{"X", "Y"}, 60)
	s.Require().NoError(err)

	s.coordinator.ExpirePollIfDue(first.ID)

	current, _ := s.coordinator.CurrentPoll()
	s.Equal(second.ID, current.ID)
	s.True(current.IsActive)
	s.Len(s.coordinator.History(), 1)
}

func (s *CoordinatorTestSuite) TestPollForJoinWithinWindow() {
	created := s.createPoll()
	s.clock.Advance(30 * time.Second)

	poll, results := s.coordinator.PollForJoin()
	s.Require().NotNil(poll)
	s.Equal(created.ID, poll.ID)
	s.NotNil(results)
}

func (s *CoordinatorTestSuite) TestPollForJoinExpiresStalePoll() {
	s.createPoll()
	s.clock.Advance(61 * time.Second)

	poll, results := s.coordinator.PollForJoin()
	s.Nil(poll)
	s.Nil(results)
	s.Len(s.coordinator.History(), 1)
	s.Equal(1, s.sink.count("poll-ended"))
}

func (s *CoordinatorTestSuite) TestPollForJoinNoPoll() {
	poll, results := s.coordinator.PollForJoin()
	s.Nil(poll)
	s.Nil(results)
}

func (s *CoordinatorTestSuite) TestClearHistoryIdempotent() {
	poll := s.createPoll()
	s.coordinator.ExpirePollIfDue(poll.ID)
	s.Len(s.coordinator.History(), 1)

	s.coordinator.ClearHistory()
	s.Empty(s.coordinator.History())
	s.coordinator.ClearHistory()
	s.Empty(s.coordinator.History())
}

func (s *CoordinatorTestSuite) TestTallySumMatchesTotalResponses() {
	poll := s.createPoll()
	s.counter.n = 5

	answers := map[string]string{
		"student_1": "A",
		"student_2": "B",
		"student_3": "A",
	}
	var results *models.Results
	for id, opt := range answers {
		var err error
		results, err = s.coordinator.RecordAnswer(poll.ID, id, opt)
		s.Require().NoError(err)

		sum := 0
		for _, t := range results.Results {
			sum += t.Votes
		}
		s.Equal(results.TotalResponses, sum)
	}
	s.Equal(3, results.TotalResponses)
}

func (s *CoordinatorTestSuite) TestConcurrentEndTriggersEndPollOnce() {
	poll := s.createPoll()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.coordinator.ExpirePollIfDue(poll.ID)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.coordinator.RecordAnswer(poll.ID, "student_1", "A")
		}()
	}
	wg.Wait()

	s.Len(s.coordinator.History(), 1)
	s.Equal(1, s.sink.count("poll-ended"))

	current, _ := s.coordinator.CurrentPoll()
	s.False(current.IsActive)
}

func TestCoordinatorTestSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorTestSuite))
}
