package models

import "time"

// QuestionType enumerates the supported selection styles. The set is closed:
// grading dispatches on it through a fixed strategy table.
type QuestionType string

const (
	// QuestionTypeSingle expects exactly one selected option.
	QuestionTypeSingle QuestionType = "single"
	// QuestionTypeMultiple expects the full set of correct options, no partial credit.
	QuestionTypeMultiple QuestionType = "multiple"
)

// Question is a bank question owned by an assessment. Bank content is mutable
// over time, which is why submissions snapshot it instead of referencing it live.
type Question struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	AssessmentID uint         `gorm:"not null;index" json:"assessment_id"`
	Content      string       `gorm:"type:text;not null" json:"content"`
	QuestionType QuestionType `gorm:"size:32;not null" json:"question_type"`
	Score        float64      `gorm:"not null" json:"score"`
	OrderIndex   int          `gorm:"not null;default:0" json:"order_index"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	Options []QuestionOption `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"options,omitempty"`
}

// QuestionOption is one selectable choice of a bank question.
type QuestionOption struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsCorrect  bool      `gorm:"not null;default:false" json:"is_correct"`
	OrderIndex int       `gorm:"not null;default:0" json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
