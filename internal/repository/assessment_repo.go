package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/praxisedu/assessment-api/internal/models"
)

// AssessmentFilter allows narrowing catalog queries.
type AssessmentFilter struct {
	CourseID         *uint
	AssessmentTypeID *uint
	Status           *string
}

// AssessmentRepository defines read-only access to the assessment bank.
// Writes to assessments and bank questions happen in the course-configuration
// system; this service only snapshots them.
type AssessmentRepository interface {
	List(ctx context.Context, filter AssessmentFilter) ([]models.Assessment, error)
	GetByID(ctx context.Context, id uint) (models.Assessment, error)
	GetWithQuestions(ctx context.Context, id uint) (models.Assessment, error)
}

type assessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository instantiates the repository.
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Assessment{}).
		Preload("AssessmentType")
}

func (r *assessmentRepository) List(ctx context.Context, filter AssessmentFilter) ([]models.Assessment, error) {
	query := r.baseQuery(ctx).Preload("Questions")

	if filter.CourseID != nil {
		query = query.Where("course_id = ?", *filter.CourseID)
	}

	if filter.AssessmentTypeID != nil {
		query = query.Where("assessment_type_id = ?", *filter.AssessmentTypeID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var assessments []models.Assessment
	if err := query.Order("created_at DESC").Find(&assessments).Error; err != nil {
		return nil, err
	}

	return assessments, nil
}

func (r *assessmentRepository) GetByID(ctx context.Context, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	if err := r.baseQuery(ctx).First(&assessment, id).Error; err != nil {
		return models.Assessment{}, err
	}

	return assessment, nil
}

func (r *assessmentRepository) GetWithQuestions(ctx context.Context, id uint) (models.Assessment, error) {
	var assessment models.Assessment
	if err := r.baseQuery(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		First(&assessment, id).Error; err != nil {
		return models.Assessment{}, err
	}

	return assessment, nil
}
