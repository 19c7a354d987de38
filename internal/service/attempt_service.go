package service

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jinzhu/copier"
	"github.com/nqkhanh/edutest/internal/apperr"
	"github.com/nqkhanh/edutest/internal/dto"
	"github.com/nqkhanh/edutest/internal/model"
	"github.com/nqkhanh/edutest/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ClientInfo is captured from the request at attempt start.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// AttemptService drives the attempt lifecycle: start, auto-save, submit.
type AttemptService interface {
	StartAttempt(studentID, testID uint, client ClientInfo) (*dto.ResultResponseDTO, error)
	SaveAnswer(studentID, testID uint, req dto.SaveAnswerRequest) error
	SubmitAttempt(studentID, testID uint, req dto.SubmitTestRequest) (*dto.ResultResponseDTO, error)
}

type attemptService struct {
	testRepo   repository.TestRepository
	resultRepo repository.ResultRepository
}

func NewAttemptService(testRepo repository.TestRepository, resultRepo repository.ResultRepository) AttemptService {
	return &attemptService{testRepo: testRepo, resultRepo: resultRepo}
}

// StartAttempt creates a new in-progress attempt, or resumes the existing one.
//
// The resume check deliberately runs before the attempt-count check: resuming
// an open attempt must never be blocked by the attempt limit. A true race
// between two concurrent starts is caught by the (student, test,
// attempt_number) unique index and surfaced as a retryable conflict.
func (s *attemptService) StartAttempt(studentID, testID uint, client ClientInfo) (*dto.ResultResponseDTO, error) {
	test, err := s.testRepo.FindByID(testID)
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

	if existing, err := s.resultRepo.FindInProgress(studentID, testID); err == nil {
		log.Debug().Uint("resultID", existing.ID).Msg("StartAttempt: resuming in-progress attempt")
		return toResultDTO(existing), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	submitted, err := s.resultRepo.CountByStatus(studentID, testID, model.StatusSubmitted)
	if err != nil {
		return nil, err
	}
	if int(submitted) >= test.AllowedAttempts {
		return nil, fmt.Errorf("%w: maximum attempts reached", apperr.ErrForbidden)
	}

	// Numbered past every prior attempt, not just the submitted ones, so the
	// unique index never collides with an abandoned or auto-submitted attempt.
	maxAttempt, err := s.resultRepo.MaxAttemptNumber(studentID, testID)
	if err != nil {
		return nil, err
	}

	result := model.Result{
		StudentID:     studentID,
		TestID:        testID,
		TotalPoints:   test.TotalPoints,
		AttemptNumber: maxAttempt + 1,
		Status:        model.StatusInProgress,
		StartedAt:     now,
		IPAddress:     client.IPAddress,
		UserAgent:     client.UserAgent,
	}

	if err := s.resultRepo.Create(&result); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: attempt already being created, retry", apperr.ErrConflict)
		}
		log.Error().Err(err).Uint("testID", testID).Uint("studentID", studentID).Msg("StartAttempt: failed to create attempt")
		return nil, err
	}

	return toResultDTO(&result), nil
}

// SaveAnswer is the idempotent auto-save path: it upserts one answer into the
// in-progress attempt, last write wins. No scoring happens here.
func (s *attemptService) SaveAnswer(studentID, testID uint, req dto.SaveAnswerRequest) error {
	result, err := s.resultRepo.FindInProgress(studentID, testID)
	if err != nil {
		return fmt.Errorf("%w: no active test session found", apperr.ErrNotFound)
	}
	return s.resultRepo.UpsertAnswer(result.ID, req.QuestionID, req.Answer)
}

// SubmitAttempt grades the submitted answers and finalizes the attempt. The
// whole score is computed locally before any persistence call, and the final
// write is conditional on the attempt still being in-progress, so a second
// submit fails with NotFound instead of double-grading.
func (s *attemptService) SubmitAttempt(studentID, testID uint, req dto.SubmitTestRequest) (*dto.ResultResponseDTO, error) {
	test, err := s.testRepo.FindByIDWithQuestions(testID)
	if err != nil {
		return nil, fmt.Errorf("%w: test not found", apperr.ErrNotFound)
	}
	result, err := s.resultRepo.FindInProgress(studentID, testID)
	if err != nil {
		return nil, fmt.Errorf("%w: no active test session found", apperr.ErrNotFound)
	}

	questionMap := make(map[uint]*model.Question, len(test.Questions))
	for i := range test.Questions {
		questionMap[test.Questions[i].ID] = &test.Questions[i]
	}

	score := 0
	graded := make([]model.Answer, 0, len(req.Answers))
	for _, submitted := range req.Answers {
		question, ok := questionMap[submitted.QuestionID]
		if !ok {
			// Stale client question ids must not block the rest of the
			// submission.
			log.Warn().Uint("questionID", submitted.QuestionID).Uint("testID", testID).Msg("SubmitAttempt: answer references unknown question, skipping")
			continue
		}
		isCorrect, points := GradeAnswer(question, submitted.Answer)
		score += points
		graded = append(graded, model.Answer{
			QuestionID:   submitted.QuestionID,
			Value:        submitted.Answer,
			IsCorrect:    isCorrect,
			PointsEarned: points,
			TimeSpent:    submitted.TimeSpent,
		})
	}

	now := time.Now()
	status := model.StatusSubmitted
	if req.AutoSubmit {
		status = model.StatusAutoSubmitted
	}

	upd := repository.SubmissionUpdate{
		Answers:     graded,
		Score:       score,
		Percentage:  model.ComputePercentage(score, result.TotalPoints),
		Status:      status,
		SubmittedAt: now,
		TimeSpent:   int(math.Round(now.Sub(result.StartedAt).Minutes())),
		Graded:      !test.HasEssayQuestions(),
	}
	if upd.Graded {
		upd.GradedAt = &now
	}

	if err := s.resultRepo.FinalizeSubmission(result.ID, upd); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no active test session found", apperr.ErrNotFound)
		}
		log.Error().Err(err).Uint("resultID", result.ID).Msg("SubmitAttempt: failed to finalize submission")
		return nil, err
	}

	final, err := s.resultRepo.FindByIDWithDetails(result.ID)
	if err != nil {
		log.Warn().Err(err).Uint("resultID", result.ID).Msg("SubmitAttempt: failed to reload submitted attempt")
		// Fall back to the locally computed state.
		result.Answers = graded
		result.Score = upd.Score
		result.Percentage = upd.Percentage
		result.Status = upd.Status
		result.SubmittedAt = &now
		result.TimeSpent = upd.TimeSpent
		result.Graded = upd.Graded
		result.GradedAt = upd.GradedAt
		return toResultDTO(result), nil
	}
	return toResultDTO(final), nil
}

func toResultDTO(result *model.Result) *dto.ResultResponseDTO {
	var resp dto.ResultResponseDTO
	copier.Copy(&resp, result)
	if result.Test.ID != 0 {
		resp.TestTitle = result.Test.Title
	}
	if result.Student.ID != 0 {
		var student dto.UserResponseDTO
		copier.Copy(&student, &result.Student)
		resp.Student = &student
	}
	return &resp
}
