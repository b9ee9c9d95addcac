package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "open test store")
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSet(user string, questions ...string) GeneratedSet {
	set := GeneratedSet{
		UserID:  user,
		Summary: ChatSummary{FilePath: "/tmp/" + user + "_sum.txt", SummaryDate: time.Now().UTC()},
	}
	for _, q := range questions {
		set.Quizzes = append(set.Quizzes, NewQuiz{
			Question:    q,
			Choices:     []string{"a", "b", "c", "d"},
			Correct:     "b",
			Wrong:       []string{"a", "c", "d"},
			Explanation: "because",
			Reference:   "ref",
		})
	}
	return set
}

func count(t *testing.T, s *Store, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.DB().Model(model).Count(&n).Error)
	return n
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}
	for _, tt := range tests {
		var got string
		require.NoError(t, s.DB().Raw("PRAGMA "+tt.pragma).Scan(&got).Error, tt.pragma)
		assert.Equal(t, tt.want, got, "PRAGMA %s", tt.pragma)
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t,
		"a.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)",
		sqliteDSN("a.db"))
	assert.Contains(t, sqliteDSN("file:a.db?mode=rwc"), "mode=rwc&_pragma=")
	assert.True(t, isPostgres("postgres://u@h/db"))
	assert.False(t, isPostgres("/var/lib/ssquiz.db"))
}

func TestCreateGenerated(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuizRepo()
	ctx := context.Background()
	require.NoError(t, s.UserRepo().Ensure(ctx, "alice", ""))

	ids, err := repo.CreateGenerated(ctx, sampleSet("alice", "What is squat depth?", "Why brace the core?"))
	require.NoError(t, err)
	require.Len(t, ids, 2)

	rec, err := repo.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("quiz%d", ids[0]), rec.Quiz.Title)
	assert.Equal(t, "What is squat depth?", rec.Question.Text)
	assert.Equal(t, []string{"a", "b", "c", "d"}, []string(rec.Question.Choices))
	assert.Nil(t, rec.Quiz.TriedAt)

	assert.EqualValues(t, 1, count(t, s, &ChatSummary{}))
	assert.EqualValues(t, 2, count(t, s, &CorrectAnswer{}))
	assert.EqualValues(t, 6, count(t, s, &WrongAnswer{}))

	texts, err := repo.AllQuestionTexts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"What is squat depth?", "Why brace the core?"}, texts)

	recent, err := repo.RecentQuestionTexts(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Why brace the core?"}, recent)
}

func TestCreateGenerated_AllOrNothing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.DB().Callback().Create().Before("gorm:create").Register("test:fail_wrong_answers", func(db *gorm.DB) {
		if db.Statement.Table == "wrong_answers" {
			db.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	_, err = s.QuizRepo().CreateGenerated(ctx, sampleSet("alice", "q1", "q2"))
	require.Error(t, err)

	assert.Zero(t, count(t, s, &ChatSummary{}))
	assert.Zero(t, count(t, s, &Quiz{}))
	assert.Zero(t, count(t, s, &Question{}))
	assert.Zero(t, count(t, s, &CorrectAnswer{}))
}

func TestDeleteCascades(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuizRepo()
	ctx := context.Background()

	ids, err := repo.CreateGenerated(ctx, sampleSet("alice", "keep me", "drop me"))
	require.NoError(t, err)
	drop, err := repo.Get(ctx, ids[1])
	require.NoError(t, err)

	require.NoError(t, s.AttemptRepo().Record(ctx, AttemptInput{
		QuizID: drop.Quiz.ID, QuestionID: drop.Question.ID, UserID: "bob", CreatorID: "alice",
		Answer: "a", CorrectAnswer: "b", At: time.Now(),
	}))

	require.NoError(t, repo.Delete(ctx, ids[1]))

	_, err = repo.Get(ctx, ids[1])
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 1, count(t, s, &Quiz{}))
	assert.EqualValues(t, 1, count(t, s, &Question{}))
	assert.EqualValues(t, 1, count(t, s, &CorrectAnswer{}))
	assert.EqualValues(t, 3, count(t, s, &WrongAnswer{}))
	assert.Zero(t, count(t, s, &Attempt{}))
	assert.Zero(t, count(t, s, &WrongNote{}))

	assert.ErrorIs(t, repo.Delete(ctx, ids[1]), ErrNotFound)
}

func TestUpdatePartial(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuizRepo()
	ctx := context.Background()

	ids, err := repo.CreateGenerated(ctx, sampleSet("alice", "original"))
	require.NoError(t, err)

	title := "renamed"
	choices := []string{"w", "x", "y", "z"}
	require.NoError(t, repo.Update(ctx, ids[0], QuizPatch{Title: &title, Choices: &choices}))

	rec, err := repo.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "renamed", rec.Quiz.Title)
	assert.Equal(t, choices, []string(rec.Question.Choices))
	assert.Equal(t, "original", rec.Question.Text)
	assert.Equal(t, "b", rec.Question.Correct)

	assert.ErrorIs(t, repo.Update(ctx, 9999, QuizPatch{Title: &title}), ErrNotFound)
}

func TestNavigationAndPosition(t *testing.T) {
	s := openTestStore(t)
	repo := s.QuizRepo()
	ctx := context.Background()

	a, err := repo.CreateGenerated(ctx, sampleSet("alice", "a1", "a2"))
	require.NoError(t, err)
	b, err := repo.CreateGenerated(ctx, sampleSet("bob", "b1"))
	require.NoError(t, err)

	id, err := repo.LatestID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, a[1], id)

	id, err = repo.LatestID(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, b[0], id)

	id, err = repo.FirstID(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, a[0], id)

	id, err = repo.NextID(ctx, "alice", a[0])
	require.NoError(t, err)
	assert.Equal(t, a[1], id)

	_, err = repo.NextID(ctx, "alice", a[1])
	assert.ErrorIs(t, err, ErrNotFound)

	id, err = repo.NextID(ctx, "", a[1])
	require.NoError(t, err)
	assert.Equal(t, b[0], id)

	id, err = repo.PrevID(ctx, "", b[0])
	require.NoError(t, err)
	assert.Equal(t, a[1], id)

	idx, total, err := repo.Position(ctx, "alice", a[1])
	require.NoError(t, err)
	assert.EqualValues(t, 2, idx)
	assert.EqualValues(t, 2, total)

	idx, total, err = repo.Position(ctx, "", b[0])
	require.NoError(t, err)
	assert.EqualValues(t, 3, idx)
	assert.EqualValues(t, 3, total)

	_, err = repo.LatestID(ctx, "carol")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordAttempt_FirstSolveWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ids, err := s.QuizRepo().CreateGenerated(ctx, sampleSet("alice", "q"))
	require.NoError(t, err)
	rec, err := s.QuizRepo().Get(ctx, ids[0])
	require.NoError(t, err)

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	for _, at := range []time.Time{first, second} {
		require.NoError(t, s.AttemptRepo().Record(ctx, AttemptInput{
			QuizID: rec.Quiz.ID, QuestionID: rec.Question.ID, UserID: "bob",
			Answer: "b", IsCorrect: true, At: at,
		}))
	}

	rec, err = s.QuizRepo().Get(ctx, ids[0])
	require.NoError(t, err)
	require.NotNil(t, rec.Quiz.SolvedAt)
	require.NotNil(t, rec.Quiz.TriedAt)
	assert.True(t, rec.Quiz.SolvedAt.Equal(first), "solved_at = %s", rec.Quiz.SolvedAt)
	assert.True(t, rec.Quiz.TriedAt.Equal(second), "tried_at = %s", rec.Quiz.TriedAt)
	assert.Zero(t, count(t, s, &WrongNote{}))
}

func TestRecordAttempt_WrongNoteAccumulates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ids, err := s.QuizRepo().CreateGenerated(ctx, sampleSet("alice", "q"))
	require.NoError(t, err)
	rec, err := s.QuizRepo().Get(ctx, ids[0])
	require.NoError(t, err)

	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(5 * time.Minute)
	for i, ans := range []string{"a", "c"} {
		require.NoError(t, s.AttemptRepo().Record(ctx, AttemptInput{
			QuizID: rec.Quiz.ID, QuestionID: rec.Question.ID, UserID: "bob", CreatorID: "alice",
			Answer: ans, CorrectAnswer: "b", WrongAnswers: []string{"a", "c", "d"},
			Reference: "ref", At: []time.Time{t1, t2}[i],
		}))
	}

	note, err := s.WrongNoteRepo().Get(ctx, rec.Question.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, []string(note.Answers))
	assert.Equal(t, "alice", note.CreatorID)
	assert.Equal(t, "b", note.CorrectAnswer)
	require.NotNil(t, note.LastSolvedAt)
	assert.True(t, note.LastSolvedAt.Equal(t2))
	assert.EqualValues(t, 1, count(t, s, &WrongNote{}))

	history, err := s.AttemptRepo().History(ctx, rec.Question.ID, "bob")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].IsWrong)
	assert.False(t, history[0].IsCorrect)

	rec, err = s.QuizRepo().Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Nil(t, rec.Quiz.SolvedAt)
}

func TestRecordAttempt_ConcurrentWrongAnswers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ids, err := s.QuizRepo().CreateGenerated(ctx, sampleSet("alice", "q"))
	require.NoError(t, err)
	rec, err := s.QuizRepo().Get(ctx, ids[0])
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.AttemptRepo().Record(ctx, AttemptInput{
				QuizID: rec.Quiz.ID, QuestionID: rec.Question.ID, UserID: "bob", CreatorID: "alice",
				Answer: fmt.Sprintf("wrong-%d", i), CorrectAnswer: "b", WrongAnswers: []string{"a", "c", "d"},
				At: time.Now().UTC(),
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	assert.EqualValues(t, 1, count(t, s, &WrongNote{}))
	note, err := s.WrongNoteRepo().Get(ctx, rec.Question.ID, "bob")
	require.NoError(t, err)
	assert.Len(t, note.Answers, n)
	assert.EqualValues(t, n, count(t, s, &Attempt{}))
}

func TestWrongNotesOrderedByLastSolved(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ids, err := s.QuizRepo().CreateGenerated(ctx, sampleSet("alice", "older", "newer", "never"))
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range ids[:2] {
		rec, err := s.QuizRepo().Get(ctx, id)
		require.NoError(t, err)
		require.NoError(t, s.AttemptRepo().Record(ctx, AttemptInput{
			QuizID: rec.Quiz.ID, QuestionID: rec.Question.ID, UserID: "bob", CreatorID: "alice",
			Answer: "a", CorrectAnswer: "b", At: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	// A note without a timestamp sorts last.
	rec, err := s.QuizRepo().Get(ctx, ids[2])
	require.NoError(t, err)
	require.NoError(t, s.DB().Create(&WrongNote{
		QuestionID: rec.Question.ID, SolverID: "bob", CreatorID: "alice",
		WrongAnswer: datatypes.JSONSlice[string]{}, Answers: datatypes.JSONSlice[string]{"x"},
	}).Error)

	entries, err := s.WrongNoteRepo().ListBySolver(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "newer", entries[0].Question)
	assert.Equal(t, "older", entries[1].Question)
	assert.Equal(t, "never", entries[2].Question)
}

func TestFirstAttemptStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	a, err := s.QuizRepo().CreateGenerated(ctx, sampleSet("alice", "q1", "q2", "q3"))
	require.NoError(t, err)
	_, err = s.QuizRepo().CreateGenerated(ctx, sampleSet("bob", "q4"))
	require.NoError(t, err)

	answer := func(quizID uint, ans string, correct bool) {
		rec, err := s.QuizRepo().Get(ctx, quizID)
		require.NoError(t, err)
		require.NoError(t, s.AttemptRepo().Record(ctx, AttemptInput{
			QuizID: rec.Quiz.ID, QuestionID: rec.Question.ID, UserID: "alice",
			Answer: ans, IsCorrect: correct, CorrectAnswer: "b", At: time.Now(),
		}))
	}
	answer(a[0], "b", true)
	answer(a[1], "a", false)
	answer(a[1], "b", true) // only the first attempt counts

	stats, err := s.AttemptRepo().FirstAttemptStats(ctx, "alice", "alice")
	require.NoError(t, err)
	assert.Equal(t, FirstAttemptStats{Total: 3, Correct: 1, Wrong: 1}, stats)

	stats, err = s.AttemptRepo().FirstAttemptStats(ctx, "alice", "")
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.Total)
}

func TestJobLifecycle(t *testing.T) {
	s := openTestStore(t)
	repo := s.JobRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Job{ID: "job-1", Kind: "generate-one"}))

	job, err := repo.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, JobPending, job.Status)
	assert.Zero(t, job.Progress)

	claimed, err := repo.ClaimNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, JobRunning, claimed.Status)

	again, err := repo.ClaimNext(ctx)
	require.NoError(t, err)
	assert.Nil(t, again, "a running job must not be claimed twice")

	ok, err := repo.SetProgress(ctx, "job-1", 40, "generating")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetProgress(ctx, "job-1", 20, "")
	require.NoError(t, err)
	assert.False(t, ok, "progress must not go backwards")

	ok, err = repo.Finish(ctx, "job-1", JobCompleted, datatypes.JSON(`{"id":1}`), "", "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Finish(ctx, "job-1", JobFailed, nil, "late failure", "")
	require.NoError(t, err)
	assert.False(t, ok, "terminal state must not be overwritten")

	ok, err = repo.SetProgress(ctx, "job-1", 100, "")
	require.NoError(t, err)
	assert.False(t, ok)

	job, err = repo.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, "generating", job.Message)
	assert.JSONEq(t, `{"id":1}`, string(job.Result))
	assert.Empty(t, job.Error)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Finish(ctx, "job-1", JobRunning, nil, "", "")
	assert.Error(t, err)

	latest, err := repo.LatestOfKind(ctx, "generate-one")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "job-1", latest.ID)

	latest, err = repo.LatestOfKind(ctx, "learn-corpus")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestUsersAndSummaries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UserRepo().Ensure(ctx, "alice", "Alice"))
	require.NoError(t, s.UserRepo().Ensure(ctx, "alice", "ignored"))
	require.NoError(t, s.UserRepo().Ensure(ctx, "bob", ""))

	users, err := s.UserRepo().List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	u, err := s.UserRepo().Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)

	latest, err := s.SummaryRepo().Latest(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, latest)

	set := sampleSet("alice", "q")
	set.Summary.SummaryDate = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err = s.QuizRepo().CreateGenerated(ctx, set)
	require.NoError(t, err)

	latest, err = s.SummaryRepo().Latest(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.SummaryDate.Equal(set.Summary.SummaryDate))
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, d := range []LLMRequestEventData{
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "quiz-gen", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "summarize", InputTokens: 300, OutputTokens: 80, LatencyMs: 400, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "quiz-gen", LatencyMs: 100, ErrorMessage: "rate limited"},
	} {
		require.NoError(t, repo.AppendLLMRequest(ctx, d))
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "rate limited", events[0].ErrorMessage, "newest first")

	ev, err := repo.GetLLMEvent(ctx, events[1].ID)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "summarize", ev.Purpose)

	missing, err := repo.GetLLMEvent(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, "quiz-gen", byPurpose[0].Purpose)
	assert.Equal(t, 2, byPurpose[0].Calls)
	assert.Equal(t, 100, byPurpose[0].InputTokens)
	assert.EqualValues(t, 150, byPurpose[0].AvgLatencyMs)

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 1)
	assert.Equal(t, 2, byModel[0].Calls)
	assert.Equal(t, 130, byModel[0].OutputTokens)
}
