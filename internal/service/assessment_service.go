package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/praxisedu/assessment-api/internal/dto"
	"github.com/praxisedu/assessment-api/internal/repository"
)

// ErrAssessmentNotFound indicates an assessment could not be found.
var ErrAssessmentNotFound = errors.New("assessment not found")

// AssessmentService exposes the read-only assessment catalog to learners.
type AssessmentService interface {
	List(ctx context.Context, filter dto.AssessmentFilter) ([]dto.AssessmentResponse, error)
	Get(ctx context.Context, id uint) (dto.AssessmentResponse, error)
}

type assessmentService struct {
	assessments repository.AssessmentRepository
	logger      zerolog.Logger
}

// NewAssessmentService constructs an AssessmentService instance.
func NewAssessmentService(repo repository.AssessmentRepository, logger zerolog.Logger) AssessmentService {
	return &assessmentService{
		assessments: repo,
		logger:      logger.With().Str("component", "assessment_service").Logger(),
	}
}

func (s *assessmentService) List(ctx context.Context, filter dto.AssessmentFilter) ([]dto.AssessmentResponse, error) {
	repoFilter := repository.AssessmentFilter{
		CourseID:         filter.CourseID,
		AssessmentTypeID: filter.AssessmentTypeID,
	}

	assessments, err := s.assessments.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	return dto.NewAssessmentResponseSlice(assessments), nil
}

func (s *assessmentService) Get(ctx context.Context, id uint) (dto.AssessmentResponse, error) {
	assessment, err := s.assessments.GetWithQuestions(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	return dto.NewAssessmentResponse(assessment), nil
}
