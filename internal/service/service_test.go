package service

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/praxisedu/assessment-api/internal/models"
	"github.com/praxisedu/assessment-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// fakeAssessmentRepo serves a fixed set of assessments keyed by id.
type fakeAssessmentRepo struct {
	assessments map[uint]models.Assessment
}

func (f *fakeAssessmentRepo) List(ctx context.Context, filter repository.AssessmentFilter) ([]models.Assessment, error) {
	var items []models.Assessment
	for _, assessment := range f.assessments {
		if filter.CourseID != nil && assessment.CourseID != *filter.CourseID {
			continue
		}
		if filter.AssessmentTypeID != nil && assessment.AssessmentTypeID != *filter.AssessmentTypeID {
			continue
		}
		items = append(items, assessment)
	}
	return items, nil
}

func (f *fakeAssessmentRepo) GetByID(ctx context.Context, id uint) (models.Assessment, error) {
	assessment, ok := f.assessments[id]
	if !ok {
		return models.Assessment{}, gorm.ErrRecordNotFound
	}
	return assessment, nil
}

func (f *fakeAssessmentRepo) GetWithQuestions(ctx context.Context, id uint) (models.Assessment, error) {
	return f.GetByID(ctx, id)
}

// fakeSubmissionRepo keeps submissions in memory and mimics the conditional
// updates of the real repository.
type fakeSubmissionRepo struct {
	submissions   map[uint]*models.Submission
	nextID        uint
	finalizeWins  int
	upsertedCount int
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{submissions: map[uint]*models.Submission{}, nextID: 1}
}

func (f *fakeSubmissionRepo) CreateWithSnapshot(ctx context.Context, submission *models.Submission) error {
	submission.ID = f.nextID
	f.nextID++

	questionID := submission.ID * 100
	optionID := submission.ID * 1000
	for i := range submission.Questions {
		questionID++
		submission.Questions[i].ID = questionID
		submission.Questions[i].SubmissionID = submission.ID
		for j := range submission.Questions[i].Options {
			optionID++
			submission.Questions[i].Options[j].ID = optionID
			submission.Questions[i].Options[j].SubmissionQuestionID = questionID
		}
	}

	stored := *submission
	f.submissions[submission.ID] = &stored
	return nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	submission, ok := f.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return *submission, nil
}

func (f *fakeSubmissionRepo) GetQuestion(ctx context.Context, submissionID, questionID uint) (models.SubmissionQuestion, error) {
	submission, ok := f.submissions[submissionID]
	if !ok {
		return models.SubmissionQuestion{}, gorm.ErrRecordNotFound
	}
	for _, question := range submission.Questions {
		if question.ID == questionID {
			return question, nil
		}
	}
	return models.SubmissionQuestion{}, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) CountByUserAndAssessment(ctx context.Context, userID, assessmentID uint) (int64, error) {
	var count int64
	for _, submission := range f.submissions {
		if submission.UserID == userID && submission.AssessmentID == assessmentID {
			count++
		}
	}
	return count, nil
}

func (f *fakeSubmissionRepo) HasUnsubmittedAttempt(ctx context.Context, userID, assessmentID uint) (bool, error) {
	for _, submission := range f.submissions {
		if submission.UserID == userID && submission.AssessmentID == assessmentID && submission.Status != models.SubmissionStatusSubmitted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSubmissionRepo) UpsertAnswer(ctx context.Context, answer *models.SubmissionAnswer) error {
	f.upsertedCount++
	for _, submission := range f.submissions {
		for i := range submission.Questions {
			if submission.Questions[i].ID == answer.SubmissionQuestionID {
				stored := *answer
				if submission.Questions[i].Answer != nil {
					stored.ID = submission.Questions[i].Answer.ID
				} else {
					stored.ID = answer.SubmissionQuestionID + 5000
				}
				submission.Questions[i].Answer = &stored
				return nil
			}
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) MarkInProgress(ctx context.Context, submissionID uint) error {
	if submission, ok := f.submissions[submissionID]; ok && submission.Status == models.SubmissionStatusStarted {
		submission.Status = models.SubmissionStatusInProgress
	}
	return nil
}

func (f *fakeSubmissionRepo) Finalize(ctx context.Context, submissionID uint, totalScore float64, isPassed bool, submittedAt time.Time) (bool, error) {
	submission, ok := f.submissions[submissionID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if submission.Status == models.SubmissionStatusSubmitted {
		return false, nil
	}

	submission.Status = models.SubmissionStatusSubmitted
	submission.SubmittedAt = &submittedAt
	submission.TotalScore = &totalScore
	submission.IsPassed = &isPassed
	f.finalizeWins++
	return true, nil
}

func (f *fakeSubmissionRepo) Search(ctx context.Context, filter repository.SubmissionSearchFilter, page, pageSize int) ([]models.Submission, int64, error) {
	var items []models.Submission
	for _, submission := range f.submissions {
		if filter.UserID != nil && submission.UserID != *filter.UserID {
			continue
		}
		if filter.AssessmentTypeID != nil && submission.Assessment.AssessmentTypeID != *filter.AssessmentTypeID {
			continue
		}
		items = append(items, *submission)
	}
	return items, int64(len(items)), nil
}

func (f *fakeSubmissionRepo) ListSubmittedForCourseUser(ctx context.Context, courseID, userID uint) ([]models.Submission, error) {
	var items []models.Submission
	for _, submission := range f.submissions {
		if submission.UserID != userID || submission.Status != models.SubmissionStatusSubmitted {
			continue
		}
		if submission.Assessment.CourseID != courseID {
			continue
		}
		items = append(items, *submission)
	}
	return items, nil
}

// fakeCourseRepo serves a single class and its weight configuration.
type fakeCourseRepo struct {
	class   models.CourseClass
	weights []models.CourseAssessmentTypeWeight
}

func (f *fakeCourseRepo) GetClass(ctx context.Context, id uint) (models.CourseClass, error) {
	if f.class.ID != id {
		return models.CourseClass{}, gorm.ErrRecordNotFound
	}
	return f.class, nil
}

func (f *fakeCourseRepo) ListWeights(ctx context.Context, courseID uint) ([]models.CourseAssessmentTypeWeight, error) {
	return f.weights, nil
}

// fakeTopicMarkRepo mimics the comment-preserving upsert of the real repository.
type fakeTopicMarkRepo struct {
	marks        map[[2]uint]*models.TopicMark
	upsertCalls  int
	commentCalls int
}

func newFakeTopicMarkRepo() *fakeTopicMarkRepo {
	return &fakeTopicMarkRepo{marks: map[[2]uint]*models.TopicMark{}}
}

func (f *fakeTopicMarkRepo) Get(ctx context.Context, courseClassID, userID uint) (models.TopicMark, error) {
	mark, ok := f.marks[[2]uint{courseClassID, userID}]
	if !ok {
		return models.TopicMark{}, gorm.ErrRecordNotFound
	}
	return *mark, nil
}

func (f *fakeTopicMarkRepo) ListByClass(ctx context.Context, courseClassID uint) ([]models.TopicMark, error) {
	var marks []models.TopicMark
	for key, mark := range f.marks {
		if key[0] == courseClassID {
			marks = append(marks, *mark)
		}
	}
	return marks, nil
}

func (f *fakeTopicMarkRepo) UpsertScore(ctx context.Context, courseClassID, userID uint, finalScore float64, recalculatedAt time.Time) error {
	f.upsertCalls++
	key := [2]uint{courseClassID, userID}
	if mark, ok := f.marks[key]; ok {
		mark.FinalScore = finalScore
		mark.RecalculatedAt = recalculatedAt
		return nil
	}
	f.marks[key] = &models.TopicMark{
		CourseClassID:  courseClassID,
		UserID:         userID,
		FinalScore:     finalScore,
		RecalculatedAt: recalculatedAt,
	}
	return nil
}

func (f *fakeTopicMarkRepo) UpdateComment(ctx context.Context, courseClassID, userID uint, comment string) error {
	f.commentCalls++
	key := [2]uint{courseClassID, userID}
	if mark, ok := f.marks[key]; ok {
		mark.Comment = comment
		return nil
	}
	f.marks[key] = &models.TopicMark{
		CourseClassID: courseClassID,
		UserID:        userID,
		Comment:       comment,
	}
	return nil
}
