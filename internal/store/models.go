package store

import (
	"time"

	"gorm.io/datatypes"
)

// Job statuses. pending → running → {completed, failed}; terminal states
// never change.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// User is a quiz author and solver, keyed by its external user id.
type User struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:100"`
	CreatedAt time.Time
}

// Quiz owns exactly one Question.
type Quiz struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"size:64;not null;index"`
	Title     string    `gorm:"size:100"`
	Link      string    `gorm:"not null;default:''"`
	CreatedAt time.Time `gorm:"index"`
	TriedAt   *time.Time
	SolvedAt  *time.Time
}

type Question struct {
	ID          uint                        `gorm:"primaryKey"`
	QuizID      uint                        `gorm:"not null;uniqueIndex"`
	Text        string                      `gorm:"column:question;not null"`
	Choices     datatypes.JSONSlice[string] `gorm:"not null"`
	Correct     string                      `gorm:"not null"`
	Wrong       datatypes.JSONSlice[string] `gorm:"not null"`
	Explanation string
	Reference   string
	CreatedAt   time.Time
}

// CorrectAnswer and WrongAnswer are the answer-choice records derived from
// a question at creation time.
type CorrectAnswer struct {
	ID         uint   `gorm:"primaryKey"`
	QuizID     uint   `gorm:"not null;index"`
	QuestionID uint   `gorm:"not null;index"`
	AnswerText string `gorm:"not null"`
	CreatedAt  time.Time
}

type WrongAnswer struct {
	ID         uint   `gorm:"primaryKey"`
	QuizID     uint   `gorm:"not null;index"`
	QuestionID uint   `gorm:"not null;index"`
	AnswerText string `gorm:"not null"`
	CreatedAt  time.Time
}

// Attempt is one answer submission. Append-only.
type Attempt struct {
	ID         uint      `gorm:"primaryKey"`
	QuestionID uint      `gorm:"not null;index:idx_attempt_pair"`
	UserID     string    `gorm:"size:64;not null;index:idx_attempt_pair"`
	AnswerText string    `gorm:"not null"`
	IsCorrect  bool      `gorm:"not null;default:false"`
	IsWrong    bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"index"`
}

// WrongNote is the per (question, solver) ledger of wrong answers.
type WrongNote struct {
	ID            uint                        `gorm:"primaryKey"`
	QuestionID    uint                        `gorm:"not null;uniqueIndex:idx_wrong_note_pair"`
	SolverID      string                      `gorm:"size:64;not null;uniqueIndex:idx_wrong_note_pair"`
	CreatorID     string                      `gorm:"size:64;not null"`
	CorrectAnswer string                      `gorm:"not null"`
	WrongAnswer   datatypes.JSONSlice[string] `gorm:"not null"`
	ReferenceLink string
	Answers       datatypes.JSONSlice[string] `gorm:"column:user_answers;not null"`
	LastSolvedAt  *time.Time                  `gorm:"index"`
	CreatedAt     time.Time
}

// ChatSummary marks a summarized source record; the text lives in FilePath.
type ChatSummary struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      string    `gorm:"size:64;not null;index"`
	FilePath    string    `gorm:"not null"`
	SummaryDate time.Time `gorm:"not null;index"`
}

// Job is a background unit of work, polled by id. Never deleted.
type Job struct {
	ID        string         `gorm:"primaryKey;size:36"`
	Kind      string         `gorm:"size:32;not null;index:idx_job_kind_created"`
	Status    string         `gorm:"size:16;not null;index"`
	Progress  int            `gorm:"not null;default:0"`
	Message   string         `gorm:"not null;default:''"`
	Params    datatypes.JSON
	Result    datatypes.JSON
	Error     string    `gorm:"not null;default:''"`
	CreatedAt time.Time `gorm:"index:idx_job_kind_created"`
	UpdatedAt time.Time
}

// LLMRequestEvent records a single provider call.
type LLMRequestEvent struct {
	ID           int       `gorm:"primaryKey"`
	Timestamp    time.Time `gorm:"not null;index"`
	Provider     string    `gorm:"size:32"`
	Model        string    `gorm:"size:128;index"`
	Purpose      string    `gorm:"size:32;index"`
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}
