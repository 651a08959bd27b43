package service

import (
	"errors"

	"github.com/praxisedu/assessment-api/internal/models"
)

// ErrUngradableAnswer indicates a malformed selection or an unrecognized
// question type. Callers absorb it: the answer is stored as incorrect with
// score 0 so a single bad answer never blocks finalization.
var ErrUngradableAnswer = errors.New("answer cannot be graded")

// gradeOutcome is the result of scoring one answer against its snapshot.
type gradeOutcome struct {
	IsCorrect bool
	Score     float64
}

type gradeFunc func(question models.SubmissionQuestion, selected []uint) (gradeOutcome, error)

// Question types are a small, closed set, so grading dispatches through a
// fixed strategy table rather than open-ended polymorphism.
var gradeStrategies = map[models.QuestionType]gradeFunc{
	models.QuestionTypeSingle:   gradeSingle,
	models.QuestionTypeMultiple: gradeMultiple,
}

// gradeAnswer scores a raw selection against the frozen snapshot question.
// Grading only ever reads the frozen options; bank edits after snapshot time
// cannot change the outcome.
func gradeAnswer(question models.SubmissionQuestion, selected []uint) (gradeOutcome, error) {
	strategy, ok := gradeStrategies[question.QuestionType]
	if !ok {
		return gradeOutcome{}, ErrUngradableAnswer
	}

	return strategy(question, selected)
}

func gradeSingle(question models.SubmissionQuestion, selected []uint) (gradeOutcome, error) {
	if len(selected) != 1 {
		return gradeOutcome{}, ErrUngradableAnswer
	}

	id := selected[0]
	if !question.HasOption(id) {
		return gradeOutcome{}, ErrUngradableAnswer
	}

	for _, option := range question.Options {
		if option.ID == id && option.IsCorrect {
			return gradeOutcome{IsCorrect: true, Score: question.Score}, nil
		}
	}

	return gradeOutcome{}, nil
}

func gradeMultiple(question models.SubmissionQuestion, selected []uint) (gradeOutcome, error) {
	if len(selected) == 0 {
		return gradeOutcome{}, ErrUngradableAnswer
	}

	selectedSet := make(map[uint]struct{}, len(selected))
	for _, id := range selected {
		if !question.HasOption(id) {
			return gradeOutcome{}, ErrUngradableAnswer
		}
		selectedSet[id] = struct{}{}
	}

	correct := question.CorrectOptionIDs()

	// No partial credit: the selected set must equal the correct set exactly.
	if len(selectedSet) != len(correct) {
		return gradeOutcome{}, nil
	}
	for id := range selectedSet {
		if _, ok := correct[id]; !ok {
			return gradeOutcome{}, nil
		}
	}

	return gradeOutcome{IsCorrect: true, Score: question.Score}, nil
}
