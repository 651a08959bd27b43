package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/praxisedu/assessment-api/internal/models"
)

const (
	examTypeID       = uint(1)
	assignmentTypeID = uint(2)
)

func gradebookFixture(weights []models.CourseAssessmentTypeWeight) (*fakeCourseRepo, *fakeSubmissionRepo, *fakeTopicMarkRepo) {
	courses := &fakeCourseRepo{
		class:   models.CourseClass{ID: 9, CourseID: 3, Code: "CS101-A"},
		weights: weights,
	}
	return courses, newFakeSubmissionRepo(), newFakeTopicMarkRepo()
}

func seedSubmission(repo *fakeSubmissionRepo, id, userID, typeID uint, assessmentTotal, totalScore float64, submittedAt time.Time) {
	passed := totalScore >= assessmentTotal/2
	repo.submissions[id] = &models.Submission{
		ID:           id,
		UserID:       userID,
		AssessmentID: id,
		Status:       models.SubmissionStatusSubmitted,
		TotalScore:   &totalScore,
		SubmittedAt:  &submittedAt,
		IsPassed:     &passed,
		Assessment: models.Assessment{
			ID:               id,
			CourseID:         3,
			AssessmentTypeID: typeID,
			TotalScore:       assessmentTotal,
		},
	}
}

func TestRecalculateAverageMethod(t *testing.T) {
	courses, submissions, topicMarks := gradebookFixture([]models.CourseAssessmentTypeWeight{
		{CourseID: 3, AssessmentTypeID: examTypeID, Weight: 1.0, GradingMethod: models.GradingMethodAverage},
	})
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedSubmission(submissions, 1, 42, examTypeID, 100, 60, base)
	seedSubmission(submissions, 2, 42, examTypeID, 100, 80, base.Add(time.Hour))
	seedSubmission(submissions, 3, 42, examTypeID, 100, 100, base.Add(2*time.Hour))

	svc := NewGradebookService(courses, submissions, topicMarks, nil, time.Minute, testLogger())
	require.NoError(t, svc.Recalculate(context.Background(), 9, 42))

	mark, err := topicMarks.Get(context.Background(), 9, 42)
	require.NoError(t, err)
	require.InDelta(t, 80.0, mark.FinalScore, 1e-9)
}

func TestRecalculateHighestMethod(t *testing.T) {
	courses, submissions, topicMarks := gradebookFixture([]models.CourseAssessmentTypeWeight{
		{CourseID: 3, AssessmentTypeID: examTypeID, Weight: 1.0, GradingMethod: models.GradingMethodHighest},
	})
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedSubmission(submissions, 1, 42, examTypeID, 100, 100, base)
	seedSubmission(submissions, 2, 42, examTypeID, 100, 40, base.Add(time.Hour))

	svc := NewGradebookService(courses, submissions, topicMarks, nil, time.Minute, testLogger())
	require.NoError(t, svc.Recalculate(context.Background(), 9, 42))

	mark, err := topicMarks.Get(context.Background(), 9, 42)
	require.NoError(t, err)
	require.InDelta(t, 100.0, mark.FinalScore, 1e-9)
}

func TestRecalculateLatestMethod(t *testing.T) {
	courses, submissions, topicMarks := gradebookFixture([]models.CourseAssessmentTypeWeight{
		{CourseID: 3, AssessmentTypeID: examTypeID, Weight: 1.0, GradingMethod: models.GradingMethodLatest},
	})
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedSubmission(submissions, 1, 42, examTypeID, 100, 100, base)
	seedSubmission(submissions, 2, 42, examTypeID, 100, 40, base.Add(time.Hour))

	svc := NewGradebookService(courses, submissions, topicMarks, nil, time.Minute, testLogger())
	require.NoError(t, svc.Recalculate(context.Background(), 9, 42))

	mark, err := topicMarks.Get(context.Background(), 9, 42)
	require.NoError(t, err)
	require.InDelta(t, 40.0, mark.FinalScore, 1e-9)
}

func TestRecalculateNormalizesAgainstAssessmentTotal(t *testing.T) {
	courses, submissions, topicMarks := gradebookFixture([]models.CourseAssessmentTypeWeight{
		{CourseID: 3, AssessmentTypeID: examTypeID, Weight: 1.0, GradingMethod: models.GradingMethodHighest},
	})
	// 10 out of 20 normalizes to 50, regardless of the raw point scale.
	seedSubmission(submissions, 1, 42, examTypeID, 20, 10, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	svc := NewGradebookService(courses, submissions, topicMarks, nil, time.Minute, testLogger())
	require.NoError(t, svc.Recalculate(context.Background(), 9, 42))

	mark, err := topicMarks.Get(context.Background(), 9, 42)
	require.NoError(t, err)
	require.InDelta(t, 50.0, mark.FinalScore, 1e-9)
}

func TestRecalculateWeightedSumWithEmptyComponent(t *testing.T) {
	courses, submissions, topicMarks := gradebookFixture([]models.CourseAssessmentTypeWeight{
		{CourseID: 3, AssessmentTypeID: examTypeID, Weight: 0.3, GradingMethod: models.GradingMethodHighest},
		{CourseID: 3, AssessmentTypeID: assignmentTypeID, Weight: 0.7, GradingMethod: models.GradingMethodAverage},
	})
	// One exam at 50, no assignments: 0.3*50 + 0.7*0 = 15.
	seedSubmission(submissions, 1, 42, examTypeID, 100, 50, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	svc := NewGradebookService(courses, submissions, topicMarks, nil, time.Minute, testLogger())
	require.NoError(t, svc.Recalculate(context.Background(), 9, 42))

	mark, err := topicMarks.Get(context.Background(), 9, 42)
	require.NoError(t, err)
	require.InDelta(t, 15.0, mark.FinalScore, 1e-9)
}

func TestRecalculateExcludesUnconfiguredType(t *testing.T) {
	courses, submissions, topicMarks := gradebookFixture([]models.CourseAssessmentTypeWeight{
		{CourseID: 3, AssessmentTypeID: examTypeID, Weight: 1.0, GradingMethod: models.GradingMethodHighest},
	})
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedSubmission(submissions, 1, 42, examTypeID, 100, 70, base)
	// Assignment submissions carry no weight row and must not move the mark.
	seedSubmission(submissions, 2, 42, assignmentTypeID, 100, 100, base.Add(time.Hour))

	svc := NewGradebookService(courses, submissions, topicMarks, nil, time.Minute, testLogger())
	require.NoError(t, svc.Recalculate(context.Background(), 9, 42))

	mark, err := topicMarks.Get(context.Background(), 9, 42)
	require.NoError(t, err)
	require.InDelta(t, 70.0, mark.FinalScore, 1e-9)
}

func TestRecalculatePreservesComment(t *testing.T) {
	courses, submissions, topicMarks := gradebookFixture([]models.CourseAssessmentTypeWeight{
		{CourseID: 3, AssessmentTypeID: examTypeID, Weight: 1.0, GradingMethod: models.GradingMethodHighest},
	})
	seedSubmission(submissions, 1, 42, examTypeID, 100, 90, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	svc := NewGradebookService(courses, submissions, topicMarks, nil, time.Minute, testLogger())
	require.NoError(t, svc.UpdateComment(context.Background(), 9, 42, "resit approved"))
	require.NoError(t, svc.Recalculate(context.Background(), 9, 42))

	mark, err := topicMarks.Get(context.Background(), 9, 42)
	require.NoError(t, err)
	require.InDelta(t, 90.0, mark.FinalScore, 1e-9)
	require.Equal(t, "resit approved", mark.Comment)
}

func TestRecalculateIsRepeatable(t *testing.T) {
	courses, submissions, topicMarks := gradebookFixture([]models.CourseAssessmentTypeWeight{
		{CourseID: 3, AssessmentTypeID: examTypeID, Weight: 1.0, GradingMethod: models.GradingMethodAverage},
	})
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedSubmission(submissions, 1, 42, examTypeID, 100, 60, base)
	seedSubmission(submissions, 2, 42, examTypeID, 100, 80, base.Add(time.Hour))

	svc := NewGradebookService(courses, submissions, topicMarks, nil, time.Minute, testLogger())
	require.NoError(t, svc.Recalculate(context.Background(), 9, 42))
	require.NoError(t, svc.Recalculate(context.Background(), 9, 42))

	mark, err := topicMarks.Get(context.Background(), 9, 42)
	require.NoError(t, err)
	require.InDelta(t, 70.0, mark.FinalScore, 1e-9)
	require.Equal(t, 2, topicMarks.upsertCalls)
}

func TestRecalculateUnknownClass(t *testing.T) {
	courses, submissions, topicMarks := gradebookFixture(nil)

	svc := NewGradebookService(courses, submissions, topicMarks, nil, time.Minute, testLogger())
	err := svc.Recalculate(context.Background(), 999, 42)
	require.ErrorIs(t, err, ErrCourseClassNotFound)
}

func TestGetGradebookUsesCache(t *testing.T) {
	courses, submissions, topicMarks := gradebookFixture([]models.CourseAssessmentTypeWeight{
		{CourseID: 3, AssessmentTypeID: examTypeID, Weight: 1.0, GradingMethod: models.GradingMethodHighest,
			AssessmentType: models.AssessmentType{ID: examTypeID, Name: "Exam"}},
	})
	seedSubmission(submissions, 1, 42, examTypeID, 100, 90, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	svc := NewGradebookService(courses, submissions, topicMarks, cache, time.Minute, testLogger())
	require.NoError(t, svc.Recalculate(context.Background(), 9, 42))

	first, err := svc.GetGradebook(context.Background(), 9)
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Len(t, first.Columns, 1)
	require.Equal(t, "Exam", first.Columns[0].Name)
	require.Len(t, first.Rows, 1)
	require.InDelta(t, 90.0, first.Rows[0].FinalScore, 1e-9)

	second, err := svc.GetGradebook(context.Background(), 9)
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.Rows, second.Rows)
}

func TestRecalculateInvalidatesGradebookCache(t *testing.T) {
	courses, submissions, topicMarks := gradebookFixture([]models.CourseAssessmentTypeWeight{
		{CourseID: 3, AssessmentTypeID: examTypeID, Weight: 1.0, GradingMethod: models.GradingMethodHighest},
	})
	seedSubmission(submissions, 1, 42, examTypeID, 100, 50, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	svc := NewGradebookService(courses, submissions, topicMarks, cache, time.Minute, testLogger())
	require.NoError(t, svc.Recalculate(context.Background(), 9, 42))

	_, err := svc.GetGradebook(context.Background(), 9)
	require.NoError(t, err)
	require.True(t, mr.Exists("gradebook:class:9"))

	seedSubmission(submissions, 2, 42, examTypeID, 100, 100, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	require.NoError(t, svc.Recalculate(context.Background(), 9, 42))
	require.False(t, mr.Exists("gradebook:class:9"))

	refreshed, err := svc.GetGradebook(context.Background(), 9)
	require.NoError(t, err)
	require.False(t, refreshed.CacheHit)
	require.InDelta(t, 100.0, refreshed.Rows[0].FinalScore, 1e-9)
}

func TestUpdateCommentSanitizesAndInvalidates(t *testing.T) {
	courses, submissions, topicMarks := gradebookFixture(nil)

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	svc := NewGradebookService(courses, submissions, topicMarks, cache, time.Minute, testLogger())

	_, err := svc.GetGradebook(context.Background(), 9)
	require.NoError(t, err)
	require.True(t, mr.Exists("gradebook:class:9"))

	require.NoError(t, svc.UpdateComment(context.Background(), 9, 42, "good work <script>alert(1)</script>"))
	require.False(t, mr.Exists("gradebook:class:9"))

	mark, err := topicMarks.Get(context.Background(), 9, 42)
	require.NoError(t, err)
	require.Equal(t, "good work", mark.Comment)
	require.Equal(t, 1, topicMarks.commentCalls)
}

func TestUpdateCommentUnknownClass(t *testing.T) {
	courses, submissions, topicMarks := gradebookFixture(nil)

	svc := NewGradebookService(courses, submissions, topicMarks, nil, time.Minute, testLogger())
	err := svc.UpdateComment(context.Background(), 999, 42, "late penalty waived")
	require.ErrorIs(t, err, ErrCourseClassNotFound)
}
