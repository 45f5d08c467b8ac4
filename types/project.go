package types

import "time"

// Stage names the three pipeline stages.
type Stage string

const (
	StageResearch Stage = "research"
	StageWriting  Stage = "writing"
	StageReview   Stage = "review"
)

// ParseStage validates a stage name.
func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StageResearch, StageWriting, StageReview:
		return Stage(s), nil
	default:
		return "", NewErrorf(ErrInvalidInput, "unknown stage %q", s)
	}
}

// Status is the project lifecycle state. It moves monotonically along the
// happy path; each in-progress state may instead drop to its failed variant,
// from which the same stage can be restarted.
type Status string

const (
	StatusCreated          Status = "created"
	StatusResearching      Status = "researching"
	StatusResearchComplete Status = "research_complete"
	StatusResearchFailed   Status = "research_failed"
	StatusWriting          Status = "writing"
	StatusWritingComplete  Status = "writing_complete"
	StatusWritingFailed    Status = "writing_failed"
	StatusReviewing        Status = "reviewing"
	StatusReviewComplete   Status = "review_complete"
	StatusReviewFailed     Status = "review_failed"
)

// InProgress reports whether a stage body is currently running.
func (s Status) InProgress() bool {
	switch s {
	case StatusResearching, StatusWriting, StatusReviewing:
		return true
	}
	return false
}

// Failed reports whether the last stage attempt errored.
func (s Status) Failed() bool {
	switch s {
	case StatusResearchFailed, StatusWritingFailed, StatusReviewFailed:
		return true
	}
	return false
}

// Progress tracks per-stage completion percentages. Counters only move
// forward within a stage attempt and reset when the stage restarts.
type Progress struct {
	Research int `json:"research"`
	Writing  int `json:"writing"`
	Review   int `json:"review"`
}

// ProjectConfig is the immutable per-project configuration chosen at
// creation time.
type ProjectConfig struct {
	Model      ModelConfig `json:"model" yaml:"model"`
	Sources    []string    `json:"sources,omitempty" yaml:"sources"`
	PaperType  string      `json:"paper_type,omitempty" yaml:"paper_type"`
	Language   Language    `json:"language,omitempty" yaml:"language"`
	MaxResults int         `json:"max_results,omitempty" yaml:"max_results"`
}

// Project is the unit of work: one paper, from topic to reviewed draft.
type Project struct {
	ID            string        `json:"id"`
	Topic         string        `json:"topic"`
	Config        ProjectConfig `json:"config"`
	Status        Status        `json:"status"`
	LastError     string        `json:"last_error,omitempty"`
	References    []Reference   `json:"references,omitempty"`
	Draft         string        `json:"draft,omitempty"`
	ReviewedDraft string        `json:"reviewed_draft,omitempty"`
	Progress      Progress      `json:"progress"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
