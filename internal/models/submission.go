package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// SubmissionStatusStarted indicates an attempt that has been created but has no answers yet.
	SubmissionStatusStarted = "started"
	// SubmissionStatusInProgress indicates an attempt with at least one recorded answer.
	SubmissionStatusInProgress = "in_progress"
	// SubmissionStatusSubmitted indicates a finalized, graded attempt. Terminal.
	SubmissionStatusSubmitted = "submitted"
)

// Submission is one attempt by one user at one assessment. It exclusively owns
// its snapshot questions and answers; rows are superseded by new attempts, never deleted.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssessmentID uint       `gorm:"not null;index" json:"assessment_id"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	Status       string     `gorm:"size:32;not null;default:started" json:"status"`
	StartedAt    time.Time  `gorm:"not null" json:"started_at"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	TotalScore   *float64   `json:"total_score"`
	IsPassed     *bool      `json:"is_passed"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Assessment Assessment           `json:"assessment"`
	Questions  []SubmissionQuestion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions,omitempty"`
}

// IsFinalized reports whether the submission has reached its terminal state.
func (s Submission) IsFinalized() bool {
	return s.Status == SubmissionStatusSubmitted
}

// SubmissionQuestion is an immutable snapshot of a bank question taken when the
// attempt started. OriginalQuestionID is kept for audit only; content here is
// authoritative even if the bank question is later edited or deleted.
type SubmissionQuestion struct {
	ID                 uint         `gorm:"primaryKey" json:"id"`
	SubmissionID       uint         `gorm:"not null;index" json:"submission_id"`
	OriginalQuestionID uint         `gorm:"not null" json:"original_question_id"`
	Content            string       `gorm:"type:text;not null" json:"content"`
	QuestionType       QuestionType `gorm:"size:32;not null" json:"question_type"`
	Score              float64      `gorm:"not null" json:"score"`
	OrderIndex         int          `gorm:"not null;default:0" json:"order_index"`
	CreatedAt          time.Time    `json:"created_at"`

	Options []SubmissionOption `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"options,omitempty"`
	Answer  *SubmissionAnswer  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answer,omitempty"`
}

// CorrectOptionIDs returns the ids of the frozen options flagged correct.
func (q SubmissionQuestion) CorrectOptionIDs() map[uint]struct{} {
	correct := make(map[uint]struct{})
	for _, option := range q.Options {
		if option.IsCorrect {
			correct[option.ID] = struct{}{}
		}
	}
	return correct
}

// HasOption reports whether the given id belongs to the frozen option set.
func (q SubmissionQuestion) HasOption(id uint) bool {
	for _, option := range q.Options {
		if option.ID == id {
			return true
		}
	}
	return false
}

// SubmissionOption is the frozen copy of one bank option.
type SubmissionOption struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	SubmissionQuestionID uint      `gorm:"not null;index" json:"submission_question_id"`
	OriginalOptionID     uint      `gorm:"not null" json:"original_option_id"`
	Content              string    `gorm:"type:text;not null" json:"content"`
	IsCorrect            bool      `gorm:"not null;default:false" json:"is_correct"`
	OrderIndex           int       `gorm:"not null;default:0" json:"order_index"`
	CreatedAt            time.Time `json:"created_at"`
}

// SubmissionAnswer is one learner response to one snapshot question. At most
// one row exists per question; resubmission overwrites it until the submission
// is finalized. AnswerValue stores the raw selected option ids as JSON.
type SubmissionAnswer struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	SubmissionQuestionID uint           `gorm:"not null;uniqueIndex" json:"submission_question_id"`
	AnswerValue          datatypes.JSON `json:"answer_value"`
	IsCorrect            bool           `gorm:"not null;default:false" json:"is_correct"`
	Score                float64        `gorm:"not null;default:0" json:"score"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}
