package service

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/praxisedu/assessment-api/internal/dto"
	"github.com/praxisedu/assessment-api/internal/models"
	"github.com/praxisedu/assessment-api/internal/observability"
	"github.com/praxisedu/assessment-api/internal/repository"
)

// ErrSubmissionNotFound indicates the submission could not be located.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrQuestionNotFound indicates the question does not belong to the submission.
var ErrQuestionNotFound = errors.New("submission question not found")

// ErrSubmissionFinalized indicates a write was attempted on a submitted attempt.
var ErrSubmissionFinalized = errors.New("submission already finalized")

// ErrAttemptLimitExceeded indicates the learner used up all allowed attempts.
var ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")

// ErrAttemptInProgress indicates an unsubmitted attempt already exists.
var ErrAttemptInProgress = errors.New("an attempt is already in progress")

// ErrNoQuestions indicates the assessment has an empty question bank.
var ErrNoQuestions = errors.New("assessment has no questions")

const defaultPageSize = 20

// SubmissionService owns the attempt lifecycle: start, answer, submit.
// No other component writes to submissions or their snapshot children.
type SubmissionService interface {
	Start(ctx context.Context, userID, assessmentID uint) (dto.SubmissionStartResponse, error)
	SubmitAnswer(ctx context.Context, submissionID uint, payload dto.AnswerSubmitRequest) (dto.AnswerAck, error)
	Submit(ctx context.Context, submissionID uint) (dto.SubmissionResult, error)
	Get(ctx context.Context, submissionID uint) (dto.SubmissionDetail, error)
	Search(ctx context.Context, filter dto.SubmissionSearchFilter) (dto.SubmissionPage, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assessments repository.AssessmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
	rng         *rand.Rand
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(subRepo repository.SubmissionRepository, assessmentRepo repository.AssessmentRepository, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		assessments: assessmentRepo,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *submissionService) Start(ctx context.Context, userID, assessmentID uint) (dto.SubmissionStartResponse, error) {
	assessment, err := s.assessments.GetWithQuestions(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionStartResponse{}, ErrAssessmentNotFound
		}
		return dto.SubmissionStartResponse{}, err
	}

	if len(assessment.Questions) == 0 {
		return dto.SubmissionStartResponse{}, ErrNoQuestions
	}

	if assessment.AttemptLimit > 0 {
		count, err := s.submissions.CountByUserAndAssessment(ctx, userID, assessmentID)
		if err != nil {
			return dto.SubmissionStartResponse{}, err
		}
		if count >= int64(assessment.AttemptLimit) {
			return dto.SubmissionStartResponse{}, ErrAttemptLimitExceeded
		}
	}

	active, err := s.submissions.HasUnsubmittedAttempt(ctx, userID, assessmentID)
	if err != nil {
		return dto.SubmissionStartResponse{}, err
	}
	if active {
		return dto.SubmissionStartResponse{}, ErrAttemptInProgress
	}

	startedAt := s.now()
	submission := models.Submission{
		AssessmentID: assessmentID,
		UserID:       userID,
		Status:       models.SubmissionStatusStarted,
		StartedAt:    startedAt,
		Questions:    buildSnapshot(assessment, s.rng),
	}

	if err := s.submissions.CreateWithSnapshot(ctx, &submission); err != nil {
		return dto.SubmissionStartResponse{}, err
	}

	observability.SubmissionsStarted().Inc()
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("user_id", userID).
		Uint("assessment_id", assessmentID).
		Int("questions", len(submission.Questions)).
		Msg("submission started")

	response := dto.SubmissionStartResponse{
		SubmissionID: submission.ID,
		AssessmentID: assessmentID,
		Status:       submission.Status,
		StartedAt:    startedAt,
	}
	if deadline, ok := assessment.Deadline(startedAt); ok {
		response.Deadline = &deadline
	}
	for _, question := range submission.Questions {
		response.Questions = append(response.Questions, dto.NewSubmissionQuestionView(question))
	}

	return response, nil
}

func (s *submissionService) SubmitAnswer(ctx context.Context, submissionID uint, payload dto.AnswerSubmitRequest) (dto.AnswerAck, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AnswerAck{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnswerAck{}, ErrSubmissionNotFound
		}
		return dto.AnswerAck{}, err
	}

	if submission.IsFinalized() {
		return dto.AnswerAck{}, ErrSubmissionFinalized
	}

	question, err := s.submissions.GetQuestion(ctx, submissionID, payload.SubmissionQuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AnswerAck{}, ErrQuestionNotFound
		}
		return dto.AnswerAck{}, err
	}

	outcome, gradeErr := gradeAnswer(question, payload.SelectedOptionIDs)
	if gradeErr != nil {
		// Absorbed: the answer is stored as incorrect with score 0 so the
		// finalize path never has to deal with ungraded rows.
		s.logger.Warn().Err(gradeErr).
			Uint("submission_id", submissionID).
			Uint("submission_question_id", question.ID).
			Msg("answer could not be graded, scoring 0")
		observability.AnswersGraded().WithLabelValues("ungradable").Inc()
	} else if outcome.IsCorrect {
		observability.AnswersGraded().WithLabelValues("correct").Inc()
	} else {
		observability.AnswersGraded().WithLabelValues("incorrect").Inc()
	}

	answerValue, err := json.Marshal(payload.SelectedOptionIDs)
	if err != nil {
		return dto.AnswerAck{}, err
	}

	answer := models.SubmissionAnswer{
		SubmissionQuestionID: question.ID,
		AnswerValue:          answerValue,
		IsCorrect:            outcome.IsCorrect,
		Score:                outcome.Score,
	}

	if err := s.submissions.UpsertAnswer(ctx, &answer); err != nil {
		return dto.AnswerAck{}, err
	}

	if submission.Status == models.SubmissionStatusStarted {
		if err := s.submissions.MarkInProgress(ctx, submissionID); err != nil {
			return dto.AnswerAck{}, err
		}
	}

	return dto.AnswerAck{
		SubmissionQuestionID: question.ID,
		Accepted:             true,
		AnsweredAt:           s.now(),
	}, nil
}

func (s *submissionService) Submit(ctx context.Context, submissionID uint) (dto.SubmissionResult, error) {
	tracer := otel.Tracer("github.com/praxisedu/assessment-api/internal/service/submission")
	ctx, span := tracer.Start(ctx, "submission.submit")
	span.SetAttributes(attribute.Int64("submission.id", int64(submissionID)))
	defer span.End()

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResult{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResult{}, err
	}

	// Retrying submit on a finalized attempt returns the stored result
	// unchanged instead of re-finalizing.
	if submission.IsFinalized() {
		span.SetAttributes(attribute.Bool("submission.idempotent", true))
		return newSubmissionResult(submission), nil
	}

	submittedAt := s.now()
	if deadline, ok := submission.Assessment.Deadline(submission.StartedAt); ok && submittedAt.After(deadline) {
		// Policy: overrunning the time limit never rejects the submit call.
		// Whatever was answered gets graded; a hard reject would strand the learner.
		span.SetAttributes(attribute.Bool("submission.time_exceeded", true))
		s.logger.Warn().
			Uint("submission_id", submissionID).
			Time("deadline", deadline).
			Msg("submission past time limit, grading anyway")
	}

	totalScore := 0.0
	for _, question := range submission.Questions {
		if question.Answer != nil {
			totalScore += question.Answer.Score
		}
	}
	isPassed := totalScore >= submission.Assessment.PassScore

	won, err := s.submissions.Finalize(ctx, submissionID, totalScore, isPassed, submittedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "finalize_failed")
		return dto.SubmissionResult{}, err
	}

	if !won {
		// A concurrent submit finalized first; surface its result.
		finalized, err := s.submissions.GetByID(ctx, submissionID)
		if err != nil {
			return dto.SubmissionResult{}, err
		}
		span.SetAttributes(attribute.Bool("submission.idempotent", true))
		return newSubmissionResult(finalized), nil
	}

	observability.SubmissionsFinalized().WithLabelValues(boolLabel(isPassed)).Inc()
	span.SetAttributes(
		attribute.Float64("submission.total_score", totalScore),
		attribute.Bool("submission.passed", isPassed),
	)
	s.logger.Info().
		Uint("submission_id", submissionID).
		Float64("total_score", totalScore).
		Bool("is_passed", isPassed).
		Msg("submission finalized")

	return dto.SubmissionResult{
		SubmissionID: submissionID,
		TotalScore:   totalScore,
		PassScore:    submission.Assessment.PassScore,
		IsPassed:     isPassed,
		SubmittedAt:  &submittedAt,
	}, nil
}

func (s *submissionService) Get(ctx context.Context, submissionID uint) (dto.SubmissionDetail, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionDetail{}, ErrSubmissionNotFound
		}
		return dto.SubmissionDetail{}, err
	}

	return dto.NewSubmissionDetail(submission), nil
}

func (s *submissionService) Search(ctx context.Context, filter dto.SubmissionSearchFilter) (dto.SubmissionPage, error) {
	if err := s.validator.Struct(filter); err != nil {
		return dto.SubmissionPage{}, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	repoFilter := repository.SubmissionSearchFilter{
		UserID:           filter.UserID,
		AssessmentTypeID: filter.AssessmentTypeID,
	}

	submissions, total, err := s.submissions.Search(ctx, repoFilter, page, pageSize)
	if err != nil {
		return dto.SubmissionPage{}, err
	}

	items := make([]dto.SubmissionSummary, 0, len(submissions))
	for _, submission := range submissions {
		items = append(items, dto.NewSubmissionSummary(submission))
	}

	return dto.SubmissionPage{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func newSubmissionResult(submission models.Submission) dto.SubmissionResult {
	result := dto.SubmissionResult{
		SubmissionID: submission.ID,
		PassScore:    submission.Assessment.PassScore,
		SubmittedAt:  submission.SubmittedAt,
	}
	if submission.TotalScore != nil {
		result.TotalScore = *submission.TotalScore
	}
	if submission.IsPassed != nil {
		result.IsPassed = *submission.IsPassed
	}
	return result
}

func boolLabel(value bool) string {
	if value {
		return "true"
	}
	return "false"
}
