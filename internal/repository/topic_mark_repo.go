package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/praxisedu/assessment-api/internal/models"
)

// TopicMarkRepository persists derived gradebook cells. Score writes always
// overwrite; the comment column is never touched by score upserts so it
// survives recalculation.
type TopicMarkRepository interface {
	Get(ctx context.Context, courseClassID, userID uint) (models.TopicMark, error)
	ListByClass(ctx context.Context, courseClassID uint) ([]models.TopicMark, error)
	UpsertScore(ctx context.Context, courseClassID, userID uint, finalScore float64, recalculatedAt time.Time) error
	UpdateComment(ctx context.Context, courseClassID, userID uint, comment string) error
}

type topicMarkRepository struct {
	db *gorm.DB
}

// NewTopicMarkRepository instantiates the repository.
func NewTopicMarkRepository(db *gorm.DB) TopicMarkRepository {
	return &topicMarkRepository{db: db}
}

func (r *topicMarkRepository) Get(ctx context.Context, courseClassID, userID uint) (models.TopicMark, error) {
	var mark models.TopicMark
	if err := r.db.WithContext(ctx).
		Where("course_class_id = ?", courseClassID).
		Where("user_id = ?", userID).
		First(&mark).Error; err != nil {
		return models.TopicMark{}, err
	}

	return mark, nil
}

func (r *topicMarkRepository) ListByClass(ctx context.Context, courseClassID uint) ([]models.TopicMark, error) {
	var marks []models.TopicMark
	if err := r.db.WithContext(ctx).Model(&models.TopicMark{}).
		Where("course_class_id = ?", courseClassID).
		Order("user_id ASC").
		Find(&marks).Error; err != nil {
		return nil, err
	}

	return marks, nil
}

func (r *topicMarkRepository) UpsertScore(ctx context.Context, courseClassID, userID uint, finalScore float64, recalculatedAt time.Time) error {
	mark := models.TopicMark{
		CourseClassID:  courseClassID,
		UserID:         userID,
		FinalScore:     finalScore,
		RecalculatedAt: recalculatedAt,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "course_class_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"final_score", "recalculated_at", "updated_at",
			}),
		}).
		Create(&mark).Error
}

func (r *topicMarkRepository) UpdateComment(ctx context.Context, courseClassID, userID uint, comment string) error {
	var mark models.TopicMark
	err := r.db.WithContext(ctx).
		Where("course_class_id = ?", courseClassID).
		Where("user_id = ?", userID).
		First(&mark).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		mark = models.TopicMark{
			CourseClassID: courseClassID,
			UserID:        userID,
			Comment:       comment,
		}
		return r.db.WithContext(ctx).Create(&mark).Error
	}
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Model(&mark).Update("comment", comment).Error
}
