package service

import (
	"testing"
	"time"

	"github.com/nqkhanh/edutest/internal/apperr"
	"github.com/nqkhanh/edutest/internal/dto"
	"github.com/nqkhanh/edutest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAttemptFixture(t *testing.T) (*fakeTestRepo, *fakeResultRepo, AttemptService) {
	t.Helper()
	testRepo := newFakeTestRepo()
	resultRepo := newFakeResultRepo(testRepo)
	return testRepo, resultRepo, NewAttemptService(testRepo, resultRepo)
}

func seedTest(t *testing.T, repo *fakeTestRepo, mutate func(*model.Test)) *model.Test {
	t.Helper()
	test := &model.Test{
		Title:           "Geography Quiz",
		Subject:         "Geography",
		Duration:        30,
		CreatedByID:     1,
		IsPublished:     true,
		AllowedAttempts: 1,
		ShowResults:     true,
		Questions: []model.Question{
			{Prompt: "Capital of France?", Type: model.QuestionMultipleChoice, CorrectAnswer: "Paris", Points: 4},
			{Prompt: "The earth is round.", Type: model.QuestionTrueFalse, CorrectAnswer: "true", Points: 2},
			{Prompt: "Capital of Norway?", Type: model.QuestionShortAnswer, CorrectAnswer: "Oslo", Points: 4},
		},
	}
	if mutate != nil {
		mutate(test)
	}
	test.RecalculateTotalPoints()
	require.NoError(t, repo.Create(test))
	return test
}

func TestStartAttempt_CreatesInProgressAttempt(t *testing.T) {
	testRepo, _, svc := newAttemptFixture(t)
	test := seedTest(t, testRepo, nil)

	result, err := svc.StartAttempt(42, test.ID, ClientInfo{IPAddress: "10.0.0.1", UserAgent: "go-test"})
	require.NoError(t, err)

	assert.Equal(t, model.StatusInProgress, result.Status)
	assert.Equal(t, 1, result.AttemptNumber)
	assert.Equal(t, 10, result.TotalPoints)
	assert.Equal(t, uint(42), result.StudentID)
}

func TestStartAttempt_ResumesExistingAttempt(t *testing.T) {
	testRepo, _, svc := newAttemptFixture(t)
	test := seedTest(t, testRepo, nil)

	first, err := svc.StartAttempt(42, test.ID, ClientInfo{})
	require.NoError(t, err)
	second, err := svc.StartAttempt(42, test.ID, ClientInfo{})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.AttemptNumber, second.AttemptNumber)
}

func TestStartAttempt_ResumeWinsOverAttemptLimit(t *testing.T) {
	testRepo, resultRepo, svc := newAttemptFixture(t)
	test := seedTest(t, testRepo, nil) // AllowedAttempts = 1

	// A prior submitted attempt exhausts the limit, but the open attempt must
	// still be resumable.
	require.NoError(t, resultRepo.Create(&model.Result{
		StudentID: 42, TestID: test.ID, AttemptNumber: 1, Status: model.StatusSubmitted,
	}))
	open := &model.Result{
		StudentID: 42, TestID: test.ID, AttemptNumber: 2, Status: model.StatusInProgress,
	}
	require.NoError(t, resultRepo.Create(open))

	result, err := svc.StartAttempt(42, test.ID, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, open.ID, result.ID)
}

func TestStartAttempt_LimitCountsOnlySubmitted(t *testing.T) {
	testRepo, resultRepo, svc := newAttemptFixture(t)
	test := seedTest(t, testRepo, func(tst *model.Test) { tst.AllowedAttempts = 2 })

	// auto-submitted and completed attempts do not consume the limit
	require.NoError(t, resultRepo.Create(&model.Result{
		StudentID: 42, TestID: test.ID, AttemptNumber: 1, Status: model.StatusAutoSubmitted,
	}))
	require.NoError(t, resultRepo.Create(&model.Result{
		StudentID: 42, TestID: test.ID, AttemptNumber: 2, Status: model.StatusSubmitted,
	}))

	result, err := svc.StartAttempt(42, test.ID, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.AttemptNumber)
}

func TestStartAttempt_MaximumAttemptsReached(t *testing.T) {
	testRepo, resultRepo, svc := newAttemptFixture(t)
	test := seedTest(t, testRepo, nil) // AllowedAttempts = 1

	require.NoError(t, resultRepo.Create(&model.Result{
		StudentID: 42, TestID: test.ID, AttemptNumber: 1, Status: model.StatusSubmitted,
	}))

	_, err := svc.StartAttempt(42, test.ID, ClientInfo{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestStartAttempt_AfterAttemptDeleted(t *testing.T) {
	testRepo, resultRepo, svc := newAttemptFixture(t)
	test := seedTest(t, testRepo, nil) // AllowedAttempts = 1

	submitted := &model.Result{
		StudentID: 42, TestID: test.ID, AttemptNumber: 1, Status: model.StatusSubmitted,
	}
	require.NoError(t, resultRepo.Create(submitted))
	_, err := svc.StartAttempt(42, test.ID, ClientInfo{})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	// Destroying the attempt must free both the allowance and its slot in
	// the (student, test, attempt_number) index, or the student could never
	// start again.
	require.NoError(t, resultRepo.Delete(submitted.ID))

	result, err := svc.StartAttempt(42, test.ID, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.AttemptNumber)
	assert.Equal(t, model.StatusInProgress, result.Status)
}

func TestStartAttempt_LimitScopedPerTest(t *testing.T) {
	testRepo, resultRepo, svc := newAttemptFixture(t)
	exhausted := seedTest(t, testRepo, nil) // AllowedAttempts = 1
	other := seedTest(t, testRepo, func(tst *model.Test) { tst.Title = "History Quiz" })

	require.NoError(t, resultRepo.Create(&model.Result{
		StudentID: 42, TestID: exhausted.ID, AttemptNumber: 1, Status: model.StatusSubmitted,
	}))
	// An open attempt on another test must not be resumed here, nor loosen
	// the limit on the exhausted one.
	require.NoError(t, resultRepo.Create(&model.Result{
		StudentID: 42, TestID: other.ID, AttemptNumber: 1, Status: model.StatusInProgress,
	}))

	_, err := svc.StartAttempt(42, exhausted.ID, ClientInfo{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestStartAttempt_UnpublishedTest(t *testing.T) {
	testRepo, _, svc := newAttemptFixture(t)
	test := seedTest(t, testRepo, func(tst *model.Test) { tst.IsPublished = false })

	_, err := svc.StartAttempt(42, test.ID, ClientInfo{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestStartAttempt_ExpiredTest(t *testing.T) {
	testRepo, _, svc := newAttemptFixture(t)
	past := time.Now().Add(-time.Hour)
	test := seedTest(t, testRepo, func(tst *model.Test) { tst.ExpiresAt = &past })

	_, err := svc.StartAttempt(42, test.ID, ClientInfo{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestStartAttempt_TestNotFound(t *testing.T) {
	_, _, svc := newAttemptFixture(t)
	_, err := svc.StartAttempt(42, 999, ClientInfo{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStartAttempt_ConcurrentStartConflict(t *testing.T) {
	testRepo, resultRepo, svc := newAttemptFixture(t)
	test := seedTest(t, testRepo, nil)

	resultRepo.failCreate = gorm.ErrDuplicatedKey
	_, err := svc.StartAttempt(42, test.ID, ClientInfo{})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestSaveAnswer_LastWriteWins(t *testing.T) {
	testRepo, resultRepo, svc := newAttemptFixture(t)
	test := seedTest(t, testRepo, nil)

	started, err := svc.StartAttempt(42, test.ID, ClientInfo{})
	require.NoError(t, err)

	q1 := test.Questions[0].ID
	require.NoError(t, svc.SaveAnswer(42, test.ID, dto.SaveAnswerRequest{QuestionID: q1, Answer: "London"}))
	require.NoError(t, svc.SaveAnswer(42, test.ID, dto.SaveAnswerRequest{QuestionID: q1, Answer: "Paris"}))

	stored, err := resultRepo.FindByID(started.ID)
	require.NoError(t, err)
	require.Len(t, stored.Answers, 1)
	assert.Equal(t, "Paris", stored.Answers[0].Value)
}

func TestSaveAnswer_NoActiveSession(t *testing.T) {
	testRepo, _, svc := newAttemptFixture(t)
	test := seedTest(t, testRepo, nil)

	err := svc.SaveAnswer(42, test.ID, dto.SaveAnswerRequest{QuestionID: 1, Answer: "Paris"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSubmitAttempt_AllCorrect(t *testing.T) {
	testRepo, _, svc := newAttemptFixture(t)
	test := seedTest(t, testRepo, nil)

	_, err := svc.StartAttempt(42, test.ID, ClientInfo{})
	require.NoError(t, err)

	result, err := svc.SubmitAttempt(42, test.ID, dto.SubmitTestRequest{
		Answers: []dto.SubmittedAnswerDTO{
			{QuestionID: test.Questions[0].ID, Answer: "Paris"},
			{QuestionID: test.Questions[1].ID, Answer: "true"},
			{QuestionID: test.Questions[2].ID, Answer: " oslo "},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 10, result.Score)
	assert.Equal(t, 100, result.Percentage)
	assert.Equal(t, model.StatusSubmitted, result.Status)
	assert.True(t, result.Graded)
	require.NotNil(t, result.SubmittedAt)
	assert.NotNil(t, result.GradedAt)
}

func TestSubmitAttempt_PartiallyCorrect(t *testing.T) {
	testRepo, _, svc := newAttemptFixture(t)
	test := seedTest(t, testRepo, nil)

	_, err := svc.StartAttempt(42, test.ID, ClientInfo{})
	require.NoError(t, err)

	result, err := svc.SubmitAttempt(42, test.ID, dto.SubmitTestRequest{
		Answers: []dto.SubmittedAnswerDTO{
			{QuestionID: test.Questions[0].ID, Answer: "London"},
			{QuestionID: test.Questions[1].ID, Answer: "true"},
			{QuestionID: test.Questions[2].ID, Answer: "Bergen"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 20, result.Percentage)
}

func TestSubmitAttempt_EssayDefersGrading(t *testing.T) {
	testRepo, _, svc := newAttemptFixture(t)
	test := seedTest(t, testRepo, func(tst *model.Test) {
		tst.Questions = append(tst.Questions, model.Question{
			Prompt: "Discuss.", Type: model.QuestionEssay, Points: 10,
		})
	})

	_, err := svc.StartAttempt(42, test.ID, ClientInfo{})
	require.NoError(t, err)

	result, err := svc.SubmitAttempt(42, test.ID, dto.SubmitTestRequest{
		Answers: []dto.SubmittedAnswerDTO{
			{QuestionID: test.Questions[0].ID, Answer: "Paris"},
			{QuestionID: test.Questions[3].ID, Answer: "My essay."},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Score)
	assert.False(t, result.Graded, "essays require manual grading")
	assert.Nil(t, result.GradedAt)

	var essay *dto.AnswerResponseDTO
	for i := range result.Answers {
		if result.Answers[i].QuestionID == test.Questions[3].ID {
			essay = &result.Answers[i]
		}
	}
	require.NotNil(t, essay)
	assert.False(t, essay.IsCorrect)
	assert.Equal(t, 0, essay.PointsEarned)
}

func TestSubmitAttempt_AutoSubmitStatus(t *testing.T) {
	testRepo, _, svc := newAttemptFixture(t)
	test := seedTest(t, testRepo, nil)

	_, err := svc.StartAttempt(42, test.ID, ClientInfo{})
	require.NoError(t, err)

	result, err := svc.SubmitAttempt(42, test.ID, dto.SubmitTestRequest{
		Answers:    []dto.SubmittedAnswerDTO{{QuestionID: test.Questions[0].ID, Answer: "Paris"}},
		AutoSubmit: true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusAutoSubmitted, result.Status)
}

func TestSubmitAttempt_DoubleSubmit(t *testing.T) {
	testRepo, _, svc := newAttemptFixture(t)
	test := seedTest(t, testRepo, nil)

	_, err := svc.StartAttempt(42, test.ID, ClientInfo{})
	require.NoError(t, err)

	req := dto.SubmitTestRequest{
		Answers: []dto.SubmittedAnswerDTO{{QuestionID: test.Questions[0].ID, Answer: "Paris"}},
	}
	_, err = svc.SubmitAttempt(42, test.ID, req)
	require.NoError(t, err)

	_, err = svc.SubmitAttempt(42, test.ID, req)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSubmitAttempt_SkipsUnknownQuestions(t *testing.T) {
	testRepo, _, svc := newAttemptFixture(t)
	test := seedTest(t, testRepo, nil)

	_, err := svc.StartAttempt(42, test.ID, ClientInfo{})
	require.NoError(t, err)

	result, err := svc.SubmitAttempt(42, test.ID, dto.SubmitTestRequest{
		Answers: []dto.SubmittedAnswerDTO{
			{QuestionID: test.Questions[0].ID, Answer: "Paris"},
			{QuestionID: 9999, Answer: "stale"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Score)
	assert.Len(t, result.Answers, 1)
}
