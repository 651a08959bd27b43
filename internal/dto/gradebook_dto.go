package dto

import (
	"time"

	"github.com/praxisedu/assessment-api/internal/models"
)

// RecalculateRequest asks for one gradebook cell to be rebuilt.
type RecalculateRequest struct {
	UserID uint `json:"user_id" validate:"required,gt=0"`
}

// TopicMarkCommentRequest updates the free-text comment on a gradebook cell
// without triggering a score recalculation.
type TopicMarkCommentRequest struct {
	UserID  uint   `json:"user_id" validate:"required,gt=0"`
	Comment string `json:"comment" validate:"max=2000"`
}

// GradebookColumn describes one weighted assessment-type component.
type GradebookColumn struct {
	AssessmentTypeID uint                 `json:"assessment_type_id"`
	Name             string               `json:"name"`
	Weight           float64              `json:"weight"`
	GradingMethod    models.GradingMethod `json:"grading_method"`
}

// GradebookRow is one user's derived mark in the class.
type GradebookRow struct {
	UserID         uint      `json:"user_id"`
	FinalScore     float64   `json:"final_score"`
	Comment        string    `json:"comment"`
	RecalculatedAt time.Time `json:"recalculated_at"`
}

// GradebookResponse is the full gradebook of one course class.
type GradebookResponse struct {
	CourseClassID uint              `json:"course_class_id"`
	Columns       []GradebookColumn `json:"columns"`
	Rows          []GradebookRow    `json:"rows"`
	GeneratedAt   time.Time         `json:"generated_at"`
	CacheHit      bool              `json:"cache_hit"`
}

// NewGradebookColumn converts a weight configuration row.
func NewGradebookColumn(model models.CourseAssessmentTypeWeight) GradebookColumn {
	return GradebookColumn{
		AssessmentTypeID: model.AssessmentTypeID,
		Name:             model.AssessmentType.Name,
		Weight:           model.Weight,
		GradingMethod:    model.GradingMethod,
	}
}

// NewGradebookRow converts a topic mark.
func NewGradebookRow(model models.TopicMark) GradebookRow {
	return GradebookRow{
		UserID:         model.UserID,
		FinalScore:     model.FinalScore,
		Comment:        model.Comment,
		RecalculatedAt: model.RecalculatedAt,
	}
}
