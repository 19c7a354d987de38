package service

import (
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/nqkhanh/edutest/internal/apperr"
	"github.com/nqkhanh/edutest/internal/dto"
	"github.com/nqkhanh/edutest/internal/model"
	"github.com/nqkhanh/edutest/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// TestService covers admin test authoring plus the student-facing reads.
type TestService interface {
	CreateTest(adminID uint, req dto.TestCreateDTO) (*dto.TestResponseDTO, error)
	GetTests(adminID uint) ([]dto.TestSummaryDTO, error)
	GetTest(adminID, testID uint) (*dto.TestResponseDTO, error)
	UpdateTest(adminID, testID uint, req dto.TestUpdateDTO) (*dto.TestResponseDTO, error)
	DeleteTest(adminID, testID uint) error
	SetPublished(adminID, testID uint, published bool) (*dto.TestResponseDTO, error)

	GetPublishedTests() ([]dto.TestSummaryDTO, error)
	GetTestForStudent(testID uint) (*dto.TestResponseDTO, error)
}

type testService struct {
	testRepo repository.TestRepository
}

func NewTestService(testRepo repository.TestRepository) TestService {
	return &testService{testRepo: testRepo}
}

func validateQuestion(q dto.QuestionCreateDTO) error {
	switch q.Type {
	case model.QuestionMultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: multiple-choice questions must have at least 2 options", apperr.ErrInvalid)
		}
		if q.CorrectAnswer == "" {
			return fmt.Errorf("%w: multiple-choice questions require a correct answer", apperr.ErrInvalid)
		}
	case model.QuestionTrueFalse:
		if len(q.Options) != 2 {
			return fmt.Errorf("%w: true-false questions must have exactly 2 options", apperr.ErrInvalid)
		}
		if q.CorrectAnswer != "true" && q.CorrectAnswer != "false" {
			return fmt.Errorf("%w: true-false correct answer must be \"true\" or \"false\"", apperr.ErrInvalid)
		}
	case model.QuestionShortAnswer:
		if q.CorrectAnswer == "" {
			return fmt.Errorf("%w: short-answer questions require a correct answer", apperr.ErrInvalid)
		}
	case model.QuestionEssay:
		// No correct answer; graded manually.
	}
	return nil
}

func buildQuestions(reqs []dto.QuestionCreateDTO) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(reqs))
	for i, q := range reqs {
		if err := validateQuestion(q); err != nil {
			return nil, err
		}
		questions = append(questions, model.Question{
			Prompt:        q.Prompt,
			Type:          q.Type,
			Options:       datatypes.NewJSONSlice(q.Options),
			CorrectAnswer: q.CorrectAnswer,
			Points:        q.Points,
			Explanation:   q.Explanation,
			OrderInTest:   i + 1,
		})
	}
	return questions, nil
}

func (s *testService) CreateTest(adminID uint, req dto.TestCreateDTO) (*dto.TestResponseDTO, error) {
	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	test := model.Test{
		Title:              req.Title,
		Description:        req.Description,
		Subject:            req.Subject,
		Duration:           req.Duration,
		Questions:          questions,
		Instructions:       req.Instructions,
		CreatedByID:        adminID,
		ScheduledAt:        req.ScheduledAt,
		ExpiresAt:          req.ExpiresAt,
		AllowedAttempts:    req.AllowedAttempts,
		RandomizeQuestions: req.RandomizeQuestions,
		ShowResults:        true,
		Tags:               datatypes.NewJSONSlice(req.Tags),
	}
	if test.AllowedAttempts < 1 {
		test.AllowedAttempts = 1
	}
	if req.ShowResults != nil {
		test.ShowResults = *req.ShowResults
	}
	test.RecalculateTotalPoints()

	if err := s.testRepo.Create(&test); err != nil {
		log.Error().Err(err).Msg("CreateTest: failed to create test")
		return nil, err
	}
	return toTestDTO(&test, true), nil
}

func (s *testService) GetTests(adminID uint) ([]dto.TestSummaryDTO, error) {
	tests, err := s.testRepo.FindAllByCreator(adminID)
	if err != nil {
		return nil, err
	}
	summaries := make([]dto.TestSummaryDTO, 0, len(tests))
	for i := range tests {
		summaries = append(summaries, toTestSummary(&tests[i]))
	}
	return summaries, nil
}

func (s *testService) GetTest(adminID, testID uint) (*dto.TestResponseDTO, error) {
	test, err := s.testRepo.FindByIDWithQuestions(testID)
	if err != nil {
		return nil, fmt.Errorf("%w: test not found", apperr.ErrNotFound)
	}
	if test.CreatedByID != adminID {
		return nil, fmt.Errorf("%w: not authorized to access this test", apperr.ErrForbidden)
	}
	return toTestDTO(test, true), nil
}

func (s *testService) UpdateTest(adminID, testID uint, req dto.TestUpdateDTO) (*dto.TestResponseDTO, error) {
	test, err := s.testRepo.FindByIDWithQuestions(testID)
	if err != nil {
		return nil, fmt.Errorf("%w: test not found", apperr.ErrNotFound)
	}
	if test.CreatedByID != adminID {
		return nil, fmt.Errorf("%w: not authorized to update this test", apperr.ErrForbidden)
	}

	if req.Title != nil {
		test.Title = *req.Title
	}
	if req.Description != nil {
		test.Description = *req.Description
	}
	if req.Subject != nil {
		test.Subject = *req.Subject
	}
	if req.Duration != nil {
		test.Duration = *req.Duration
	}
	if req.Instructions != nil {
		test.Instructions = *req.Instructions
	}
	if req.ScheduledAt != nil {
		test.ScheduledAt = req.ScheduledAt
	}
	if req.ExpiresAt != nil {
		test.ExpiresAt = req.ExpiresAt
	}
	if req.AllowedAttempts != nil {
		test.AllowedAttempts = *req.AllowedAttempts
	}
	if req.RandomizeQuestions != nil {
		test.RandomizeQuestions = *req.RandomizeQuestions
	}
	if req.ShowResults != nil {
		test.ShowResults = *req.ShowResults
	}
	if req.Tags != nil {
		test.Tags = datatypes.NewJSONSlice(req.Tags)
	}

	if req.Questions != nil {
		questions, err := buildQuestions(req.Questions)
		if err != nil {
			return nil, err
		}
		// ReplaceQuestions recomputes total points as part of the swap.
		if err := s.testRepo.ReplaceQuestions(test, questions); err != nil {
			log.Error().Err(err).Uint("testID", testID).Msg("UpdateTest: failed to replace questions")
			return nil, err
		}
	} else {
		test.RecalculateTotalPoints()
		if err := s.testRepo.Update(test); err != nil {
			log.Error().Err(err).Uint("testID", testID).Msg("UpdateTest: failed to update test")
			return nil, err
		}
	}

	return toTestDTO(test, true), nil
}

// DeleteTest cascades: every result referencing the test is removed with it.
func (s *testService) DeleteTest(adminID, testID uint) error {
	test, err := s.testRepo.FindByID(testID)
	if err != nil {
		return fmt.Errorf("%w: test not found", apperr.ErrNotFound)
	}
	if test.CreatedByID != adminID {
		return fmt.Errorf("%w: not authorized to delete this test", apperr.ErrForbidden)
	}
	return s.testRepo.Delete(testID)
}

func (s *testService) SetPublished(adminID, testID uint, published bool) (*dto.TestResponseDTO, error) {
	test, err := s.testRepo.FindByIDWithQuestions(testID)
	if err != nil {
		return nil, fmt.Errorf("%w: test not found", apperr.ErrNotFound)
	}
	if test.CreatedByID != adminID {
		return nil, fmt.Errorf("%w: not authorized to publish this test", apperr.ErrForbidden)
	}
	test.IsPublished = published
	if err := s.testRepo.Update(test); err != nil {
		return nil, err
	}
	return toTestDTO(test, true), nil
}

func (s *testService) GetPublishedTests() ([]dto.TestSummaryDTO, error) {
	tests, err := s.testRepo.FindPublished(time.Now())
	if err != nil {
		return nil, err
	}
	summaries := make([]dto.TestSummaryDTO, 0, len(tests))
	for i := range tests {
		summaries = append(summaries, toTestSummary(&tests[i]))
	}
	return summaries, nil
}

// GetTestForStudent returns the test with correct answers and explanations
// stripped. Unpublished or out-of-window tests are not available.
func (s *testService) GetTestForStudent(testID uint) (*dto.TestResponseDTO, error) {
	test, err := s.testRepo.FindByIDWithQuestions(testID)
	if err != nil {
		return nil, fmt.Errorf("%w: test not found", apperr.ErrNotFound)
	}
	if !test.IsPublished {
		return nil, fmt.Errorf("%w: test is not available", apperr.ErrForbidden)
	}
	now := time.Now()
	if test.ScheduledAt != nil && test.ScheduledAt.After(now) {
		return nil, fmt.Errorf("%w: test is not yet available", apperr.ErrForbidden)
	}
	if test.ExpiresAt != nil && test.ExpiresAt.Before(now) {
		return nil, fmt.Errorf("%w: test has expired", apperr.ErrForbidden)
	}
	return toTestDTO(test, false), nil
}

func toTestDTO(test *model.Test, includeAnswers bool) *dto.TestResponseDTO {
	var resp dto.TestResponseDTO
	copier.Copy(&resp, test)
	resp.Tags = test.Tags
	resp.Questions = make([]dto.QuestionResponseDTO, 0, len(test.Questions))
	for _, q := range test.Questions {
		qDTO := dto.QuestionResponseDTO{
			ID:          q.ID,
			TestID:      q.TestID,
			Prompt:      q.Prompt,
			Type:        q.Type,
			Options:     q.Options,
			Points:      q.Points,
			OrderInTest: q.OrderInTest,
		}
		if includeAnswers {
			qDTO.CorrectAnswer = q.CorrectAnswer
			qDTO.Explanation = q.Explanation
		}
		resp.Questions = append(resp.Questions, qDTO)
	}
	return &resp
}

func toTestSummary(test *model.Test) dto.TestSummaryDTO {
	return dto.TestSummaryDTO{
		ID:            test.ID,
		Title:         test.Title,
		Description:   test.Description,
		Subject:       test.Subject,
		Duration:      test.Duration,
		TotalPoints:   test.TotalPoints,
		QuestionCount: len(test.Questions),
		IsPublished:   test.IsPublished,
		ScheduledAt:   test.ScheduledAt,
		ExpiresAt:     test.ExpiresAt,
		CreatedAt:     test.CreatedAt,
	}
}
