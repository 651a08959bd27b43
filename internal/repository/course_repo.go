package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/praxisedu/assessment-api/internal/models"
)

// CourseRepository exposes read-only access to course classes and the
// per-type weight configuration. Weight writes belong to the course
// configuration system, which signals changes over NATS instead.
type CourseRepository interface {
	GetClass(ctx context.Context, id uint) (models.CourseClass, error)
	ListWeights(ctx context.Context, courseID uint) ([]models.CourseAssessmentTypeWeight, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates the repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetClass(ctx context.Context, id uint) (models.CourseClass, error) {
	var class models.CourseClass
	if err := r.db.WithContext(ctx).
		Preload("Course").
		First(&class, id).Error; err != nil {
		return models.CourseClass{}, err
	}

	return class, nil
}

func (r *courseRepository) ListWeights(ctx context.Context, courseID uint) ([]models.CourseAssessmentTypeWeight, error) {
	var weights []models.CourseAssessmentTypeWeight
	if err := r.db.WithContext(ctx).Model(&models.CourseAssessmentTypeWeight{}).
		Preload("AssessmentType").
		Where("course_id = ?", courseID).
		Order("assessment_type_id ASC").
		Find(&weights).Error; err != nil {
		return nil, err
	}

	return weights, nil
}
