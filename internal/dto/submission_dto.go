package dto

import (
	"encoding/json"
	"time"

	"github.com/praxisedu/assessment-api/internal/models"
)

// SubmissionStartRequest starts a new attempt at an assessment.
type SubmissionStartRequest struct {
	AssessmentID uint `json:"assessment_id" validate:"required,gt=0"`
}

// AnswerSubmitRequest records or replaces the answer to one snapshot question.
type AnswerSubmitRequest struct {
	SubmissionQuestionID uint   `json:"submission_question_id" validate:"required,gt=0"`
	SelectedOptionIDs    []uint `json:"selected_option_ids" validate:"required,min=1"`
}

// SubmissionSearchFilter narrows submission searches.
type SubmissionSearchFilter struct {
	UserID           *uint `query:"user_id"`
	AssessmentTypeID *uint `query:"assessment_type_id"`
	Page             int   `query:"page" validate:"omitempty,gte=1"`
	PageSize         int   `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// SubmissionOptionView is a frozen option as shown to the learner. Correctness
// is deliberately absent so an in-progress client cannot see the answer key.
type SubmissionOptionView struct {
	ID         uint   `json:"id"`
	Content    string `json:"content"`
	OrderIndex int    `json:"order_index"`
}

// SubmissionQuestionView is a snapshot question as shown to the learner.
type SubmissionQuestionView struct {
	ID           uint                   `json:"id"`
	Content      string                 `json:"content"`
	QuestionType models.QuestionType    `json:"question_type"`
	Score        float64                `json:"score"`
	OrderIndex   int                    `json:"order_index"`
	Options      []SubmissionOptionView `json:"options"`
}

// SubmissionStartResponse is returned when an attempt is created.
type SubmissionStartResponse struct {
	SubmissionID uint                     `json:"submission_id"`
	AssessmentID uint                     `json:"assessment_id"`
	Status       string                   `json:"status"`
	StartedAt    time.Time                `json:"started_at"`
	Deadline     *time.Time               `json:"deadline,omitempty"`
	Questions    []SubmissionQuestionView `json:"questions"`
}

// AnswerAck confirms an answer was recorded. It reports acceptance only;
// correctness stays hidden until the submission is finalized.
type AnswerAck struct {
	SubmissionQuestionID uint      `json:"submission_question_id"`
	Accepted             bool      `json:"accepted"`
	AnsweredAt           time.Time `json:"answered_at"`
}

// SubmissionResult is the finalized outcome of an attempt.
type SubmissionResult struct {
	SubmissionID uint       `json:"submission_id"`
	TotalScore   float64    `json:"total_score"`
	PassScore    float64    `json:"pass_score"`
	IsPassed     bool       `json:"is_passed"`
	SubmittedAt  *time.Time `json:"submitted_at"`
}

// AnsweredQuestionView extends the question view with the learner's answer.
// Grading fields are populated only once the submission is finalized.
type AnsweredQuestionView struct {
	SubmissionQuestionView
	SelectedOptionIDs []uint   `json:"selected_option_ids,omitempty"`
	IsCorrect         *bool    `json:"is_correct,omitempty"`
	Score             *float64 `json:"score,omitempty"`
}

// SubmissionDetail is the full view of one attempt.
type SubmissionDetail struct {
	ID           uint                   `json:"id"`
	AssessmentID uint                   `json:"assessment_id"`
	UserID       uint                   `json:"user_id"`
	Status       string                 `json:"status"`
	StartedAt    time.Time              `json:"started_at"`
	SubmittedAt  *time.Time             `json:"submitted_at"`
	TotalScore   *float64               `json:"total_score"`
	IsPassed     *bool                  `json:"is_passed"`
	Questions    []AnsweredQuestionView `json:"questions"`
}

// SubmissionSummary is one row of a submission search.
type SubmissionSummary struct {
	ID               uint       `json:"id"`
	AssessmentID     uint       `json:"assessment_id"`
	AssessmentTitle  string     `json:"assessment_title"`
	AssessmentTypeID uint       `json:"assessment_type_id"`
	UserID           uint       `json:"user_id"`
	Status           string     `json:"status"`
	TotalScore       *float64   `json:"total_score"`
	IsPassed         *bool      `json:"is_passed"`
	StartedAt        time.Time  `json:"started_at"`
	SubmittedAt      *time.Time `json:"submitted_at"`
}

// SubmissionPage wraps paged search results.
type SubmissionPage struct {
	Items    []SubmissionSummary `json:"items"`
	Total    int64               `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

// NewSubmissionQuestionView converts a snapshot question, hiding correctness.
func NewSubmissionQuestionView(model models.SubmissionQuestion) SubmissionQuestionView {
	options := make([]SubmissionOptionView, 0, len(model.Options))
	for _, option := range model.Options {
		options = append(options, SubmissionOptionView{
			ID:         option.ID,
			Content:    option.Content,
			OrderIndex: option.OrderIndex,
		})
	}

	return SubmissionQuestionView{
		ID:           model.ID,
		Content:      model.Content,
		QuestionType: model.QuestionType,
		Score:        model.Score,
		OrderIndex:   model.OrderIndex,
		Options:      options,
	}
}

// NewSubmissionDetail converts a submission with its questions and answers.
func NewSubmissionDetail(model models.Submission) SubmissionDetail {
	questions := make([]AnsweredQuestionView, 0, len(model.Questions))
	finalized := model.IsFinalized()

	for _, question := range model.Questions {
		view := AnsweredQuestionView{SubmissionQuestionView: NewSubmissionQuestionView(question)}
		if question.Answer != nil {
			view.SelectedOptionIDs = decodeSelectedOptionIDs(question.Answer.AnswerValue)
			if finalized {
				isCorrect := question.Answer.IsCorrect
				score := question.Answer.Score
				view.IsCorrect = &isCorrect
				view.Score = &score
			}
		}
		questions = append(questions, view)
	}

	return SubmissionDetail{
		ID:           model.ID,
		AssessmentID: model.AssessmentID,
		UserID:       model.UserID,
		Status:       model.Status,
		StartedAt:    model.StartedAt,
		SubmittedAt:  model.SubmittedAt,
		TotalScore:   model.TotalScore,
		IsPassed:     model.IsPassed,
		Questions:    questions,
	}
}

// NewSubmissionSummary converts a submission into a search row.
func NewSubmissionSummary(model models.Submission) SubmissionSummary {
	return SubmissionSummary{
		ID:               model.ID,
		AssessmentID:     model.AssessmentID,
		AssessmentTitle:  model.Assessment.Title,
		AssessmentTypeID: model.Assessment.AssessmentTypeID,
		UserID:           model.UserID,
		Status:           model.Status,
		TotalScore:       model.TotalScore,
		IsPassed:         model.IsPassed,
		StartedAt:        model.StartedAt,
		SubmittedAt:      model.SubmittedAt,
	}
}

func decodeSelectedOptionIDs(raw []byte) []uint {
	if len(raw) == 0 {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil
	}
	return ids
}
