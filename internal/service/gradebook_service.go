package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
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

// ErrCourseClassNotFound indicates the course class could not be located.
var ErrCourseClassNotFound = errors.New("course class not found")

// GradebookService recomputes topic marks and serves the class gradebook.
// Recalculation only ever overwrites the topic mark row; it reads submissions
// without locking them, so re-running it is always safe.
type GradebookService interface {
	Recalculate(ctx context.Context, courseClassID, userID uint) error
	GetGradebook(ctx context.Context, courseClassID uint) (dto.GradebookResponse, error)
	UpdateComment(ctx context.Context, courseClassID, userID uint, comment string) error
}

type gradebookService struct {
	courses     repository.CourseRepository
	submissions repository.SubmissionRepository
	topicMarks  repository.TopicMarkRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradebookService builds the gradebook aggregator.
func NewGradebookService(courseRepo repository.CourseRepository, submissionRepo repository.SubmissionRepository, topicMarkRepo repository.TopicMarkRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) GradebookService {
	return &gradebookService{
		courses:     courseRepo,
		submissions: submissionRepo,
		topicMarks:  topicMarkRepo,
		cache:       cache,
		cacheTTL:    ttl,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "gradebook_service").Logger(),
		now:         time.Now,
	}
}

func gradebookCacheKey(courseClassID uint) string {
	return fmt.Sprintf("gradebook:class:%d", courseClassID)
}

func (s *gradebookService) Recalculate(ctx context.Context, courseClassID, userID uint) error {
	tracer := otel.Tracer("github.com/praxisedu/assessment-api/internal/service/gradebook")
	ctx, span := tracer.Start(ctx, "gradebook.recalculate")
	span.SetAttributes(
		attribute.Int64("gradebook.course_class_id", int64(courseClassID)),
		attribute.Int64("gradebook.user_id", int64(userID)),
	)
	defer span.End()

	class, err := s.courses.GetClass(ctx, courseClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "course_class_not_found")
			return ErrCourseClassNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "course_class_lookup_failed")
		return err
	}

	weights, err := s.courses.ListWeights(ctx, class.CourseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "weight_lookup_failed")
		return err
	}

	weightSum := 0.0
	for _, weight := range weights {
		weightSum += weight.Weight
	}
	if len(weights) > 0 && math.Abs(weightSum-1.0) > 1e-9 {
		s.logger.Warn().
			Uint("course_id", class.CourseID).
			Float64("weight_sum", weightSum).
			Msg("configured weights do not sum to 1.0, marks are provisional")
	}

	submissions, err := s.submissions.ListSubmittedForCourseUser(ctx, class.CourseID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return err
	}

	byType := groupNormalizedScores(submissions, s.logger)

	finalScore := 0.0
	configured := make(map[uint]struct{}, len(weights))
	for _, weight := range weights {
		configured[weight.AssessmentTypeID] = struct{}{}
		// A configured type with no submissions contributes 0, it is not
		// excluded from the weighted sum.
		component := combineScores(weight.GradingMethod, byType[weight.AssessmentTypeID], s.logger)
		finalScore += weight.Weight * component
	}

	for typeID := range byType {
		if _, ok := configured[typeID]; !ok {
			s.logger.Warn().
				Uint("course_id", class.CourseID).
				Uint("assessment_type_id", typeID).
				Msg("submissions exist for assessment type with no configured weight, excluded from mark")
		}
	}

	if err := s.topicMarks.UpsertScore(ctx, courseClassID, userID, finalScore, s.now()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "topic_mark_write_failed")
		return err
	}

	s.invalidateGradebookCache(ctx, courseClassID)
	observability.TopicMarkRecalculations().Inc()

	span.SetAttributes(attribute.Float64("gradebook.final_score", finalScore))
	s.logger.Info().
		Uint("course_class_id", courseClassID).
		Uint("user_id", userID).
		Float64("final_score", finalScore).
		Msg("topic mark recalculated")

	return nil
}

func (s *gradebookService) GetGradebook(ctx context.Context, courseClassID uint) (dto.GradebookResponse, error) {
	cacheKey := gradebookCacheKey(courseClassID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.GradebookResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				s.logger.Debug().Uint("course_class_id", courseClassID).Msg("gradebook cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read gradebook cache")
		}
	}

	class, err := s.courses.GetClass(ctx, courseClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradebookResponse{}, ErrCourseClassNotFound
		}
		return dto.GradebookResponse{}, err
	}

	weights, err := s.courses.ListWeights(ctx, class.CourseID)
	if err != nil {
		return dto.GradebookResponse{}, err
	}

	marks, err := s.topicMarks.ListByClass(ctx, courseClassID)
	if err != nil {
		return dto.GradebookResponse{}, err
	}

	response := dto.GradebookResponse{
		CourseClassID: courseClassID,
		Columns:       make([]dto.GradebookColumn, 0, len(weights)),
		Rows:          make([]dto.GradebookRow, 0, len(marks)),
		GeneratedAt:   s.now().UTC(),
	}
	for _, weight := range weights {
		response.Columns = append(response.Columns, dto.NewGradebookColumn(weight))
	}
	for _, mark := range marks {
		response.Rows = append(response.Rows, dto.NewGradebookRow(mark))
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store gradebook cache")
			}
		}
	}

	return response, nil
}

func (s *gradebookService) UpdateComment(ctx context.Context, courseClassID, userID uint, comment string) error {
	if _, err := s.courses.GetClass(ctx, courseClassID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseClassNotFound
		}
		return err
	}

	sanitized := strings.TrimSpace(s.sanitizer.Sanitize(comment))

	if err := s.topicMarks.UpdateComment(ctx, courseClassID, userID, sanitized); err != nil {
		return err
	}

	s.invalidateGradebookCache(ctx, courseClassID)
	s.logger.Info().
		Uint("course_class_id", courseClassID).
		Uint("user_id", userID).
		Msg("topic mark comment updated")

	return nil
}

func (s *gradebookService) invalidateGradebookCache(ctx context.Context, courseClassID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, gradebookCacheKey(courseClassID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("course_class_id", courseClassID).Msg("failed to invalidate gradebook cache")
	}
}

// scoredSubmission pairs a normalized 0-100 score with its submit time.
type scoredSubmission struct {
	Normalized  float64
	SubmittedAt time.Time
}

func groupNormalizedScores(submissions []models.Submission, logger zerolog.Logger) map[uint][]scoredSubmission {
	byType := make(map[uint][]scoredSubmission)
	for _, submission := range submissions {
		if submission.TotalScore == nil || submission.SubmittedAt == nil {
			continue
		}
		if submission.Assessment.TotalScore <= 0 {
			logger.Warn().
				Uint("assessment_id", submission.AssessmentID).
				Msg("assessment has non-positive total score, skipping submission in aggregation")
			continue
		}

		typeID := submission.Assessment.AssessmentTypeID
		byType[typeID] = append(byType[typeID], scoredSubmission{
			Normalized:  *submission.TotalScore / submission.Assessment.TotalScore * 100,
			SubmittedAt: *submission.SubmittedAt,
		})
	}
	return byType
}

// combineScores folds multiple normalized submission scores of one assessment
// type into a single component score per the configured grading method.
func combineScores(method models.GradingMethod, scores []scoredSubmission, logger zerolog.Logger) float64 {
	if len(scores) == 0 {
		return 0
	}

	switch method {
	case models.GradingMethodHighest:
		highest := scores[0].Normalized
		for _, score := range scores[1:] {
			if score.Normalized > highest {
				highest = score.Normalized
			}
		}
		return highest
	case models.GradingMethodLatest:
		latest := scores[0]
		for _, score := range scores[1:] {
			if score.SubmittedAt.After(latest.SubmittedAt) {
				latest = score
			}
		}
		return latest.Normalized
	case models.GradingMethodAverage:
		sum := 0.0
		for _, score := range scores {
			sum += score.Normalized
		}
		return sum / float64(len(scores))
	default:
		logger.Warn().Str("grading_method", string(method)).Msg("unknown grading method, falling back to highest")
		return combineScores(models.GradingMethodHighest, scores, logger)
	}
}
