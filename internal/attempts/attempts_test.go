package attempts

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssai/ssquiz/internal/apperr"
	"github.com/ssai/ssquiz/internal/store"
)

func newTracker(t *testing.T) (*Tracker, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "attempts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewTracker(st.QuizRepo(), st.AttemptRepo(), st.WrongNoteRepo(), nil), st
}

func seed(t *testing.T, st *store.Store, user string, quizzes ...store.NewQuiz) []uint {
	t.Helper()
	ids, err := st.QuizRepo().CreateGenerated(context.Background(), store.GeneratedSet{
		UserID:  user,
		Summary: store.ChatSummary{FilePath: "/s/" + user, SummaryDate: time.Now()},
		Quizzes: quizzes,
	})
	require.NoError(t, err)
	return ids
}

func abcd(correct string) store.NewQuiz {
	return store.NewQuiz{
		Question:  "Pick " + correct,
		Choices:   []string{"A", correct, "C", "D"},
		Correct:   correct,
		Wrong:     []string{"A", "C", "D"},
		Reference: "ref",
	}
}

func TestSubmit_TrimmedMatch(t *testing.T) {
	tr, st := newTracker(t)
	ids := seed(t, st, "kim", abcd("B "))

	res, err := tr.Submit(context.Background(), ids[0], "u1", " B\n")
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.False(t, res.IsWrong)
	assert.Equal(t, "B", res.Answer)
	assert.Equal(t, []string{"B"}, res.AnswerHistory)
	assert.True(t, res.HasCorrectAttempt)
	assert.False(t, res.HasWrongAttempt)
	require.NotNil(t, res.SolvedAt)
	require.NotNil(t, res.TriedAt)

	_, err = st.WrongNoteRepo().Get(context.Background(), res.QuestionID, "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSubmit_CaseSensitive(t *testing.T) {
	tr, st := newTracker(t)
	ids := seed(t, st, "kim", abcd("B"))

	res, err := tr.Submit(context.Background(), ids[0], "u1", "b")
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.True(t, res.IsWrong)
	assert.Nil(t, res.SolvedAt)
}

func TestSubmit_WrongThenRight(t *testing.T) {
	tr, st := newTracker(t)
	ctx := context.Background()
	ids := seed(t, st, "kim", abcd("B"))

	first, err := tr.Submit(ctx, ids[0], "lee", "A")
	require.NoError(t, err)
	assert.True(t, first.IsWrong)
	assert.Nil(t, first.SolvedAt)

	second, err := tr.Submit(ctx, ids[0], "lee", "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, second.AnswerHistory)

	third, err := tr.Submit(ctx, ids[0], "lee", "B")
	require.NoError(t, err)
	assert.True(t, third.HasCorrectAttempt)
	assert.True(t, third.HasWrongAttempt)
	assert.Equal(t, []string{"A", "C", "B"}, third.AnswerHistory)
	require.NotNil(t, third.SolvedAt)
	solved := *third.SolvedAt

	// A later correct answer keeps the first solve time.
	fourth, err := tr.Submit(ctx, ids[0], "lee", "B")
	require.NoError(t, err)
	assert.True(t, solved.Equal(*fourth.SolvedAt))

	note, err := st.WrongNoteRepo().Get(ctx, third.QuestionID, "lee")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, []string(note.Answers))
	assert.Equal(t, "kim", note.CreatorID)
	assert.Equal(t, "B", note.CorrectAnswer)
	assert.Equal(t, "ref", note.ReferenceLink)

	notes, err := tr.WrongNotes(ctx, "lee")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, ids[0], notes[0].QuizID)
	assert.Equal(t, []string{"A", "C"}, notes[0].Answers)
}

func TestSubmit_Errors(t *testing.T) {
	tr, st := newTracker(t)
	ctx := context.Background()
	ids := seed(t, st, "kim", abcd("B"))

	_, err := tr.Submit(ctx, 999, "u1", "B")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = tr.Submit(ctx, ids[0], "", "B")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = tr.Submit(ctx, ids[0], "u1", "   ")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestSummary_FirstAttemptOnly(t *testing.T) {
	tr, st := newTracker(t)
	ctx := context.Background()
	kim := seed(t, st, "kim", abcd("B"), abcd("X"), abcd("Y"))
	seed(t, st, "lee", abcd("Z"))

	// Wrong first, right later: counts as wrong.
	_, err := tr.Submit(ctx, kim[0], "kim", "A")
	require.NoError(t, err)
	_, err = tr.Submit(ctx, kim[0], "kim", "B")
	require.NoError(t, err)
	_, err = tr.Submit(ctx, kim[1], "kim", "X")
	require.NoError(t, err)

	s, err := tr.Summary(ctx, "kim", "kim")
	require.NoError(t, err)
	assert.Equal(t, &Summary{TotalCount: 3, CorrectCount: 1, WrongCount: 1, AccuracyRate: 33.3}, s)

	all, err := tr.Summary(ctx, "kim", "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.TotalCount)
	assert.InDelta(t, 25.0, all.AccuracyRate, 0.001)
}

func TestSummary_Empty(t *testing.T) {
	tr, _ := newTracker(t)
	s, err := tr.Summary(context.Background(), "kim", "kim")
	require.NoError(t, err)
	assert.Equal(t, &Summary{}, s)
}
