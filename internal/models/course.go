package models

import "time"

// GradingMethod enumerates the policies for combining multiple submissions of
// one assessment type into a single component score.
type GradingMethod string

const (
	// GradingMethodHighest takes the best normalized score.
	GradingMethodHighest GradingMethod = "highest"
	// GradingMethodLatest takes the score of the most recently submitted attempt.
	GradingMethodLatest GradingMethod = "latest"
	// GradingMethodAverage takes the arithmetic mean of normalized scores.
	GradingMethodAverage GradingMethod = "average"
)

// Course groups assessments and carries the per-type weight configuration.
type Course struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Weights []CourseAssessmentTypeWeight `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"weights,omitempty"`
}

// CourseClass is one delivery of a course; gradebook cells are scoped to it.
type CourseClass struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Code      string    `gorm:"size:64;uniqueIndex;not null" json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Course Course `json:"course"`
}

// CourseAssessmentTypeWeight configures, per course and assessment type, the
// weight of that type in the final mark and how multiple submissions combine.
// Weights configured on one course are expected to sum to 1.0.
type CourseAssessmentTypeWeight struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	CourseID         uint          `gorm:"not null;index:idx_course_type,unique" json:"course_id"`
	AssessmentTypeID uint          `gorm:"not null;index:idx_course_type,unique" json:"assessment_type_id"`
	Weight           float64       `gorm:"not null" json:"weight"`
	GradingMethod    GradingMethod `gorm:"size:32;not null;default:highest" json:"grading_method"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`

	AssessmentType AssessmentType `json:"assessment_type"`
}
