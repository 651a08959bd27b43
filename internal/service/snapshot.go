package service

import (
	"math/rand"

	"github.com/praxisedu/assessment-api/internal/models"
)

// buildSnapshot freezes the assessment's current question set into
// submission-owned copies. Once these rows exist, grading uses them
// exclusively, decoupling correctness from concurrent bank edits.
func buildSnapshot(assessment models.Assessment, rng *rand.Rand) []models.SubmissionQuestion {
	questions := make([]models.Question, len(assessment.Questions))
	copy(questions, assessment.Questions)

	if assessment.ShuffleQuestions && rng != nil {
		rng.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}

	snapshot := make([]models.SubmissionQuestion, 0, len(questions))
	for index, question := range questions {
		options := make([]models.QuestionOption, len(question.Options))
		copy(options, question.Options)

		if assessment.ShuffleOptions && rng != nil {
			rng.Shuffle(len(options), func(i, j int) {
				options[i], options[j] = options[j], options[i]
			})
		}

		frozen := models.SubmissionQuestion{
			OriginalQuestionID: question.ID,
			Content:            question.Content,
			QuestionType:       question.QuestionType,
			Score:              question.Score,
			OrderIndex:         index,
		}

		for optionIndex, option := range options {
			frozen.Options = append(frozen.Options, models.SubmissionOption{
				OriginalOptionID: option.ID,
				Content:          option.Content,
				IsCorrect:        option.IsCorrect,
				OrderIndex:       optionIndex,
			})
		}

		snapshot = append(snapshot, frozen)
	}

	return snapshot
}
