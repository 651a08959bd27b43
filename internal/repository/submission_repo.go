package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/praxisedu/assessment-api/internal/models"
)

// SubmissionSearchFilter narrows submission searches.
type SubmissionSearchFilter struct {
	UserID           *uint
	AssessmentTypeID *uint
	Status           *string
}

// SubmissionRepository defines data operations for attempts and their
// snapshot children. All mutations of submissions flow through here.
type SubmissionRepository interface {
	CreateWithSnapshot(ctx context.Context, submission *models.Submission) error
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetQuestion(ctx context.Context, submissionID, questionID uint) (models.SubmissionQuestion, error)
	CountByUserAndAssessment(ctx context.Context, userID, assessmentID uint) (int64, error)
	HasUnsubmittedAttempt(ctx context.Context, userID, assessmentID uint) (bool, error)
	UpsertAnswer(ctx context.Context, answer *models.SubmissionAnswer) error
	MarkInProgress(ctx context.Context, submissionID uint) error
	Finalize(ctx context.Context, submissionID uint, totalScore float64, isPassed bool, submittedAt time.Time) (bool, error)
	Search(ctx context.Context, filter SubmissionSearchFilter, page, pageSize int) ([]models.Submission, int64, error)
	ListSubmittedForCourseUser(ctx context.Context, courseID, userID uint) ([]models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// CreateWithSnapshot persists the submission together with its snapshot
// questions and options in one transaction, so a learner who starts and never
// answers still has a durable, gradable skeleton.
func (r *submissionRepository) CreateWithSnapshot(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(submission).Error
	})
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Assessment").
		Preload("Assessment.AssessmentType").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Preload("Questions.Answer").
		First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

// GetQuestion loads a snapshot question scoped to its submission. The scoping
// guards against cross-submission tampering with question ids.
func (r *submissionRepository) GetQuestion(ctx context.Context, submissionID, questionID uint) (models.SubmissionQuestion, error) {
	var question models.SubmissionQuestion
	if err := r.db.WithContext(ctx).
		Preload("Options").
		Preload("Answer").
		Where("submission_id = ?", submissionID).
		First(&question, questionID).Error; err != nil {
		return models.SubmissionQuestion{}, err
	}

	return question, nil
}

func (r *submissionRepository) CountByUserAndAssessment(ctx context.Context, userID, assessmentID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("user_id = ?", userID).
		Where("assessment_id = ?", assessmentID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (r *submissionRepository) HasUnsubmittedAttempt(ctx context.Context, userID, assessmentID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("user_id = ?", userID).
		Where("assessment_id = ?", assessmentID).
		Where("status <> ?", models.SubmissionStatusSubmitted).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// UpsertAnswer writes the answer row keyed by its snapshot question. The
// unique index on submission_question_id makes concurrent resubmissions of the
// same question serialize to last-write-wins instead of duplicating rows.
func (r *submissionRepository) UpsertAnswer(ctx context.Context, answer *models.SubmissionAnswer) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "submission_question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"answer_value", "is_correct", "score", "updated_at",
			}),
		}).
		Create(answer).Error
}

func (r *submissionRepository) MarkInProgress(ctx context.Context, submissionID uint) error {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", submissionID).
		Where("status = ?", models.SubmissionStatusStarted).
		Update("status", models.SubmissionStatusInProgress).Error
}

// Finalize performs a status-guarded conditional update so that concurrent or
// retried submit calls are exactly-once-effective. It returns false when
// another call already finalized the submission.
func (r *submissionRepository) Finalize(ctx context.Context, submissionID uint, totalScore float64, isPassed bool, submittedAt time.Time) (bool, error) {
	var won bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Submission{}).
			Where("id = ?", submissionID).
			Where("status <> ?", models.SubmissionStatusSubmitted).
			Updates(map[string]interface{}{
				"status":       models.SubmissionStatusSubmitted,
				"submitted_at": submittedAt,
				"total_score":  totalScore,
				"is_passed":    isPassed,
			})
		if result.Error != nil {
			return result.Error
		}

		won = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	return won, nil
}

func (r *submissionRepository) Search(ctx context.Context, filter SubmissionSearchFilter, page, pageSize int) ([]models.Submission, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{}).
		Joins("JOIN assessments ON assessments.id = submissions.assessment_id")

	if filter.UserID != nil {
		query = query.Where("submissions.user_id = ?", *filter.UserID)
	}

	if filter.AssessmentTypeID != nil {
		query = query.Where("assessments.assessment_type_id = ?", *filter.AssessmentTypeID)
	}

	if filter.Status != nil {
		query = query.Where("submissions.status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var submissions []models.Submission
	if err := query.
		Preload("Assessment").
		Order("submissions.started_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&submissions).Error; err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

// ListSubmittedForCourseUser returns all finalized attempts of one user across
// the assessments of one course. Read-only; the aggregator never locks
// submission rows.
func (r *submissionRepository) ListSubmittedForCourseUser(ctx context.Context, courseID, userID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Joins("JOIN assessments ON assessments.id = submissions.assessment_id").
		Where("assessments.course_id = ?", courseID).
		Where("submissions.user_id = ?", userID).
		Where("submissions.status = ?", models.SubmissionStatusSubmitted).
		Preload("Assessment").
		Order("submissions.submitted_at ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}
