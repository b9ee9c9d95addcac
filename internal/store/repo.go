package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int       // id > After
	Before int       // id < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// QuizRecord is a quiz together with its single question.
type QuizRecord struct {
	Quiz     Quiz
	Question Question
}

// NewQuiz is one accepted candidate ready to be persisted.
type NewQuiz struct {
	Link        string
	Question    string
	Choices     []string
	Correct     string
	Wrong       []string
	Explanation string
	Reference   string
}

// GeneratedSet is everything one generation run persists atomically.
type GeneratedSet struct {
	UserID  string
	Summary ChatSummary
	Quizzes []NewQuiz
}

// QuizPatch is a partial admin edit; nil fields are left untouched.
type QuizPatch struct {
	Title       *string
	Link        *string
	Question    *string
	Choices     *[]string
	Correct     *string
	Wrong       *[]string
	Explanation *string
	Reference   *string
}

// QuizRepo manages quizzes, their questions and answer-choice records.
type QuizRepo interface {
	// AllQuestionTexts returns the raw text of every persisted question.
	AllQuestionTexts(ctx context.Context) ([]string, error)

	// RecentQuestionTexts returns up to limit question texts, newest first.
	RecentQuestionTexts(ctx context.Context, limit int) ([]string, error)

	// CreateGenerated writes the summary record and every quiz of set in one
	// transaction and returns the created quiz ids in order.
	CreateGenerated(ctx context.Context, set GeneratedSet) ([]uint, error)

	// Get returns the quiz and its question, or ErrNotFound.
	Get(ctx context.Context, id uint) (*QuizRecord, error)

	// ListOldestFirst returns every quiz ordered by (created_at, id).
	ListOldestFirst(ctx context.Context) ([]QuizRecord, error)

	// ListNewestFirst returns every quiz ordered by created_at descending.
	ListNewestFirst(ctx context.Context) ([]QuizRecord, error)

	// UpdateChoices replaces the stored choice list of a question.
	UpdateChoices(ctx context.Context, questionID uint, choices []string) error

	// Update applies a partial edit to a quiz and its question.
	Update(ctx context.Context, id uint, patch QuizPatch) error

	// Delete removes a quiz and all of its dependents.
	Delete(ctx context.Context, id uint) error

	// Navigation. An empty userID means all quizzes.
	LatestID(ctx context.Context, userID string) (uint, error)
	FirstID(ctx context.Context, userID string) (uint, error)
	NextID(ctx context.Context, userID string, afterID uint) (uint, error)
	PrevID(ctx context.Context, userID string, beforeID uint) (uint, error)

	// Position returns the 1-based index of quizID within the scope and the
	// scope size.
	Position(ctx context.Context, userID string, quizID uint) (index, total int64, err error)
}

// AttemptInput is one evaluated answer submission.
type AttemptInput struct {
	QuizID        uint
	QuestionID    uint
	UserID        string
	CreatorID     string
	Answer        string
	IsCorrect     bool
	CorrectAnswer string
	WrongAnswers  []string
	Reference     string
	At            time.Time
}

// FirstAttemptStats counts first attempts of one solver over a quiz scope.
type FirstAttemptStats struct {
	Total   int64
	Correct int64
	Wrong   int64
}

// AttemptRepo records answer submissions.
type AttemptRepo interface {
	// Record appends the attempt, stamps the quiz and updates the wrong-note
	// ledger in one transaction.
	Record(ctx context.Context, in AttemptInput) error

	// History returns the attempts of userID on questionID, oldest first.
	History(ctx context.Context, questionID uint, userID string) ([]Attempt, error)

	// FirstAttemptStats evaluates the first attempt of solverID on every quiz
	// in scope (scopeUserID empty means all quizzes).
	FirstAttemptStats(ctx context.Context, solverID, scopeUserID string) (FirstAttemptStats, error)
}

// WrongNoteEntry is a wrong note joined with its question and quiz.
type WrongNoteEntry struct {
	QuizID       uint
	QuestionID   uint
	Question     string
	Choices      []string
	Correct      string
	Wrong        []string
	Explanation  string
	Reference    string
	Link         string
	Answers      []string
	LastSolvedAt *time.Time
}

// WrongNoteRepo reads the wrong-note ledger.
type WrongNoteRepo interface {
	// Get returns the note for (questionID, solverID), or ErrNotFound.
	Get(ctx context.Context, questionID uint, solverID string) (*WrongNote, error)

	// ListBySolver returns the solver's notes, most recently solved first.
	ListBySolver(ctx context.Context, solverID string) ([]WrongNoteEntry, error)
}

// JobRepo persists background jobs. All state changes are conditional
// updates so concurrent writers cannot move a job backwards.
type JobRepo interface {
	Create(ctx context.Context, job *Job) error

	// Get reads the job directly from the database, or ErrNotFound.
	Get(ctx context.Context, id string) (*Job, error)

	// LatestOfKind returns the newest job of kind, or nil when there is none.
	LatestOfKind(ctx context.Context, kind string) (*Job, error)

	// ClaimNext moves the oldest pending job to running and returns it, or
	// nil when nothing is pending.
	ClaimNext(ctx context.Context) (*Job, error)

	// MarkRunning moves a pending job to running. Reports whether it did.
	MarkRunning(ctx context.Context, id string) (bool, error)

	// SetProgress raises progress on a non-terminal job. Lower values and
	// terminal jobs are left untouched. An empty message keeps the old one.
	SetProgress(ctx context.Context, id string, progress int, message string) (bool, error)

	// Finish writes a terminal status unless the job is already terminal.
	Finish(ctx context.Context, id, status string, result datatypes.JSON, errText, message string) (bool, error)
}

// UserRepo manages users.
type UserRepo interface {
	// Ensure creates the user if missing.
	Ensure(ctx context.Context, id, name string) error
	Get(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]User, error)
}

// SummaryRepo reads chat summary records.
type SummaryRepo interface {
	// Latest returns the newest summary of userID, or nil when none exist.
	Latest(ctx context.Context, userID string) (*ChatSummary, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID           int
	Timestamp    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMUsageStats aggregates calls per purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates calls per model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns a single event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
