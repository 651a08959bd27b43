package models

import "time"

// AssessmentType is a named category of assessments. It exists purely as a
// grouping key for gradebook weighting: many assessments share one type.
type AssessmentType struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Assessment represents a gradeable test definition built from a question bank.
type Assessment struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Code             string     `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	AssessmentTypeID uint       `gorm:"not null;index" json:"assessment_type_id"`
	CourseID         uint       `gorm:"not null;index" json:"course_id"`
	TotalScore       float64    `gorm:"not null" json:"total_score"`
	PassScore        float64    `gorm:"not null" json:"pass_score"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	AttemptLimit     int        `gorm:"not null;default:1" json:"attempt_limit"`
	ShuffleQuestions bool       `json:"shuffle_questions"`
	ShuffleOptions   bool       `json:"shuffle_options"`
	Status           string     `gorm:"size:32;not null;default:published" json:"status"`
	Difficulty       string     `gorm:"size:32" json:"difficulty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	AssessmentType AssessmentType `json:"assessment_type"`
	Questions      []Question     `json:"questions,omitempty"`
}

// TimeLimit returns the attempt duration, or zero when the assessment is untimed.
func (a Assessment) TimeLimit() time.Duration {
	if a.TimeLimitMinutes <= 0 {
		return 0
	}
	return time.Duration(a.TimeLimitMinutes) * time.Minute
}

// Deadline computes the latest on-time submit instant for an attempt started at the given time.
func (a Assessment) Deadline(startedAt time.Time) (time.Time, bool) {
	limit := a.TimeLimit()
	if limit == 0 {
		return time.Time{}, false
	}
	return startedAt.Add(limit), true
}
