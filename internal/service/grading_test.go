package service

import (
	"testing"

	"github.com/nqkhanh/edutest/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestGradeAnswer(t *testing.T) {
	tests := []struct {
		name        string
		question    model.Question
		submitted   string
		wantCorrect bool
		wantPoints  int
	}{
		{
			name:        "multiple choice exact match",
			question:    model.Question{Type: model.QuestionMultipleChoice, CorrectAnswer: "Paris", Points: 4},
			submitted:   "Paris",
			wantCorrect: true,
			wantPoints:  4,
		},
		{
			name:        "multiple choice is case sensitive",
			question:    model.Question{Type: model.QuestionMultipleChoice, CorrectAnswer: "Paris", Points: 4},
			submitted:   "paris",
			wantCorrect: false,
			wantPoints:  0,
		},
		{
			name:        "multiple choice trims whitespace",
			question:    model.Question{Type: model.QuestionMultipleChoice, CorrectAnswer: "Paris", Points: 4},
			submitted:   "  Paris  ",
			wantCorrect: true,
			wantPoints:  4,
		},
		{
			name:        "true false match",
			question:    model.Question{Type: model.QuestionTrueFalse, CorrectAnswer: "true", Points: 2},
			submitted:   "true",
			wantCorrect: true,
			wantPoints:  2,
		},
		{
			name:        "true false mismatch",
			question:    model.Question{Type: model.QuestionTrueFalse, CorrectAnswer: "true", Points: 2},
			submitted:   "false",
			wantCorrect: false,
			wantPoints:  0,
		},
		{
			name:        "short answer ignores case",
			question:    model.Question{Type: model.QuestionShortAnswer, CorrectAnswer: "Oslo", Points: 3},
			submitted:   "oslo",
			wantCorrect: true,
			wantPoints:  3,
		},
		{
			name:        "short answer trims and folds case",
			question:    model.Question{Type: model.QuestionShortAnswer, CorrectAnswer: "Oslo", Points: 3},
			submitted:   "  OSLO ",
			wantCorrect: true,
			wantPoints:  3,
		},
		{
			name:        "short answer mismatch",
			question:    model.Question{Type: model.QuestionShortAnswer, CorrectAnswer: "Oslo", Points: 3},
			submitted:   "Bergen",
			wantCorrect: false,
			wantPoints:  0,
		},
		{
			name:        "essay earns nothing until manually graded",
			question:    model.Question{Type: model.QuestionEssay, Points: 10},
			submitted:   "A long and thoughtful essay.",
			wantCorrect: false,
			wantPoints:  0,
		},
		{
			name:        "empty answer is wrong",
			question:    model.Question{Type: model.QuestionMultipleChoice, CorrectAnswer: "Paris", Points: 4},
			submitted:   "",
			wantCorrect: false,
			wantPoints:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			correct, points := GradeAnswer(&tt.question, tt.submitted)
			assert.Equal(t, tt.wantCorrect, correct)
			assert.Equal(t, tt.wantPoints, points)
		})
	}
}

func TestLetterGrade(t *testing.T) {
	tests := []struct {
		percentage int
		want       string
	}{
		{100, "A (90-100%)"},
		{90, "A (90-100%)"},
		{89, "B (80-89%)"},
		{80, "B (80-89%)"},
		{79, "C (70-79%)"},
		{70, "C (70-79%)"},
		{69, "D (60-69%)"},
		{60, "D (60-69%)"},
		{59, "F (0-59%)"},
		{0, "F (0-59%)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LetterGrade(tt.percentage), "percentage %d", tt.percentage)
	}
}
