package service

import (
	"testing"

	"github.com/nqkhanh/edutest/internal/apperr"
	"github.com/nqkhanh/edutest/internal/dto"
	"github.com/nqkhanh/edutest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreateRequest() dto.TestCreateDTO {
	return dto.TestCreateDTO{
		Title:       "Geography Quiz",
		Description: "European capitals",
		Subject:     "Geography",
		Duration:    30,
		Questions: []dto.QuestionCreateDTO{
			{Prompt: "Capital of France?", Type: model.QuestionMultipleChoice, Options: []string{"Paris", "London"}, CorrectAnswer: "Paris", Points: 4},
			{Prompt: "The earth is round.", Type: model.QuestionTrueFalse, Options: []string{"true", "false"}, CorrectAnswer: "true", Points: 2},
			{Prompt: "Capital of Norway?", Type: model.QuestionShortAnswer, CorrectAnswer: "Oslo", Points: 4},
		},
	}
}

func TestCreateTest_ComputesTotalPoints(t *testing.T) {
	repo := newFakeTestRepo()
	svc := NewTestService(repo)

	test, err := svc.CreateTest(1, validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, 10, test.TotalPoints)
	assert.Equal(t, 1, test.AllowedAttempts, "defaults to one attempt")
	assert.True(t, test.ShowResults)
	require.Len(t, test.Questions, 3)
	assert.Equal(t, 1, test.Questions[0].OrderInTest)
	assert.Equal(t, 3, test.Questions[2].OrderInTest)
}

func TestCreateTest_ValidatesQuestions(t *testing.T) {
	repo := newFakeTestRepo()
	svc := NewTestService(repo)

	tests := []struct {
		name     string
		question dto.QuestionCreateDTO
	}{
		{
			name:     "multiple choice needs at least two options",
			question: dto.QuestionCreateDTO{Prompt: "?", Type: model.QuestionMultipleChoice, Options: []string{"only"}, CorrectAnswer: "only", Points: 1},
		},
		{
			name:     "multiple choice needs a correct answer",
			question: dto.QuestionCreateDTO{Prompt: "?", Type: model.QuestionMultipleChoice, Options: []string{"a", "b"}, Points: 1},
		},
		{
			name:     "true false needs exactly two options",
			question: dto.QuestionCreateDTO{Prompt: "?", Type: model.QuestionTrueFalse, Options: []string{"true"}, CorrectAnswer: "true", Points: 1},
		},
		{
			name:     "true false answer must be true or false",
			question: dto.QuestionCreateDTO{Prompt: "?", Type: model.QuestionTrueFalse, Options: []string{"true", "false"}, CorrectAnswer: "yes", Points: 1},
		},
		{
			name:     "short answer needs a correct answer",
			question: dto.QuestionCreateDTO{Prompt: "?", Type: model.QuestionShortAnswer, Points: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			req.Questions = []dto.QuestionCreateDTO{tt.question}
			_, err := svc.CreateTest(1, req)
			assert.ErrorIs(t, err, apperr.ErrInvalid)
		})
	}
}

func TestCreateTest_EssayNeedsNoCorrectAnswer(t *testing.T) {
	repo := newFakeTestRepo()
	svc := NewTestService(repo)

	req := validCreateRequest()
	req.Questions = []dto.QuestionCreateDTO{
		{Prompt: "Discuss.", Type: model.QuestionEssay, Points: 10},
	}
	test, err := svc.CreateTest(1, req)
	require.NoError(t, err)
	assert.Equal(t, 10, test.TotalPoints)
}

func TestUpdateTest_ReplacingQuestionsRecomputesTotals(t *testing.T) {
	repo := newFakeTestRepo()
	svc := NewTestService(repo)

	created, err := svc.CreateTest(1, validCreateRequest())
	require.NoError(t, err)

	updated, err := svc.UpdateTest(1, created.ID, dto.TestUpdateDTO{
		Questions: []dto.QuestionCreateDTO{
			{Prompt: "New question", Type: model.QuestionShortAnswer, CorrectAnswer: "x", Points: 7},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 7, updated.TotalPoints)
	require.Len(t, updated.Questions, 1)
}

func TestUpdateTest_OwnershipEnforced(t *testing.T) {
	repo := newFakeTestRepo()
	svc := NewTestService(repo)

	created, err := svc.CreateTest(1, validCreateRequest())
	require.NoError(t, err)

	title := "Hijacked"
	_, err = svc.UpdateTest(2, created.ID, dto.TestUpdateDTO{Title: &title})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestGetTestForStudent_StripsAnswers(t *testing.T) {
	repo := newFakeTestRepo()
	svc := NewTestService(repo)

	created, err := svc.CreateTest(1, validCreateRequest())
	require.NoError(t, err)
	_, err = svc.SetPublished(1, created.ID, true)
	require.NoError(t, err)

	view, err := svc.GetTestForStudent(created.ID)
	require.NoError(t, err)
	for _, q := range view.Questions {
		assert.Empty(t, q.CorrectAnswer)
		assert.Empty(t, q.Explanation)
	}
}

func TestGetTestForStudent_UnpublishedHidden(t *testing.T) {
	repo := newFakeTestRepo()
	svc := NewTestService(repo)

	created, err := svc.CreateTest(1, validCreateRequest())
	require.NoError(t, err)

	_, err = svc.GetTestForStudent(created.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestGetTest_AdminSeesAnswers(t *testing.T) {
	repo := newFakeTestRepo()
	svc := NewTestService(repo)

	created, err := svc.CreateTest(1, validCreateRequest())
	require.NoError(t, err)

	view, err := svc.GetTest(1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Paris", view.Questions[0].CorrectAnswer)
}
