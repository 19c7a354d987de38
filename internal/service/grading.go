package service

import (
	"strings"

	"github.com/nqkhanh/edutest/internal/model"
)

// GradeAnswer compares one submitted answer against its question and returns
// correctness and points earned. No partial credit: full points or zero.
//
//   - multiple-choice / true-false: exact string equality after trimming
//   - short-answer: case-insensitive equality after trimming
//   - essay: always incorrect with zero points, pending manual review
func GradeAnswer(question *model.Question, submitted string) (bool, int) {
	switch question.Type {
	case model.QuestionMultipleChoice, model.QuestionTrueFalse:
		if strings.TrimSpace(submitted) == strings.TrimSpace(question.CorrectAnswer) {
			return true, question.Points
		}
	case model.QuestionShortAnswer:
		if strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(question.CorrectAnswer)) {
			return true, question.Points
		}
	case model.QuestionEssay:
		return false, 0
	}
	return false, 0
}

// LetterGrade buckets a percentage into the A-F scale used by the analytics
// dashboard.
func LetterGrade(percentage int) string {
	switch {
	case percentage >= 90:
		return "A (90-100%)"
	case percentage >= 80:
		return "B (80-89%)"
	case percentage >= 70:
		return "C (70-79%)"
	case percentage >= 60:
		return "D (60-69%)"
	default:
		return "F (0-59%)"
	}
}
