package dto

import (
	"time"

	"github.com/praxisedu/assessment-api/internal/models"
)

// AssessmentResponse summarizes an assessment for catalog listings.
type AssessmentResponse struct {
	ID               uint      `json:"id"`
	Code             string    `json:"code"`
	Title            string    `json:"title"`
	AssessmentTypeID uint      `json:"assessment_type_id"`
	AssessmentType   string    `json:"assessment_type"`
	CourseID         uint      `json:"course_id"`
	TotalScore       float64   `json:"total_score"`
	PassScore        float64   `json:"pass_score"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	AttemptLimit     int       `json:"attempt_limit"`
	Status           string    `json:"status"`
	Difficulty       string    `json:"difficulty"`
	QuestionCount    int       `json:"question_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// AssessmentFilter narrows catalog listings.
type AssessmentFilter struct {
	CourseID         *uint `query:"course_id"`
	AssessmentTypeID *uint `query:"assessment_type_id"`
}

// NewAssessmentResponse converts an Assessment model into a DTO. Question
// content and correctness never leave through this shape.
func NewAssessmentResponse(model models.Assessment) AssessmentResponse {
	return AssessmentResponse{
		ID:               model.ID,
		Code:             model.Code,
		Title:            model.Title,
		AssessmentTypeID: model.AssessmentTypeID,
		AssessmentType:   model.AssessmentType.Name,
		CourseID:         model.CourseID,
		TotalScore:       model.TotalScore,
		PassScore:        model.PassScore,
		TimeLimitMinutes: model.TimeLimitMinutes,
		AttemptLimit:     model.AttemptLimit,
		Status:           model.Status,
		Difficulty:       model.Difficulty,
		QuestionCount:    len(model.Questions),
		CreatedAt:        model.CreatedAt,
	}
}

// NewAssessmentResponseSlice converts a slice of models.
func NewAssessmentResponseSlice(items []models.Assessment) []AssessmentResponse {
	responses := make([]AssessmentResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewAssessmentResponse(item))
	}
	return responses
}
