package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nqkhanh/edutest/internal/apperr"
	"github.com/nqkhanh/edutest/internal/dto"
	"github.com/nqkhanh/edutest/internal/model"
	"github.com/nqkhanh/edutest/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ResultService interface {
	GetMyResults(studentID uint) ([]dto.ResultSummaryDTO, error)
	GetResult(callerID uint, callerRole string, resultID uint) (*dto.ResultResponseDTO, error)
	GetAllResults(status string, page, limit int) (*dto.PaginatedResponse, error)
	GetResultsByTest(adminID, testID uint, page, limit int) (*dto.PaginatedResponse, error)
	GetResultsByStudent(studentID uint, page, limit int) (*dto.PaginatedResponse, error)
	ManualGrade(adminID, resultID uint, req dto.ManualGradeRequest) (*dto.ResultResponseDTO, error)
	DeleteResult(adminID, resultID uint) error
	ExportResultsCSV(adminID, testID uint) ([]byte, string, error)
}

type resultService struct {
	resultRepo repository.ResultRepository
	testRepo   repository.TestRepository
}

func NewResultService(resultRepo repository.ResultRepository, testRepo repository.TestRepository) ResultService {
	return &resultService{resultRepo: resultRepo, testRepo: testRepo}
}

func (s *resultService) GetMyResults(studentID uint) ([]dto.ResultSummaryDTO, error) {
	results, err := s.resultRepo.FindSubmittedByStudent(studentID)
	if err != nil {
		return nil, err
	}
	summaries := make([]dto.ResultSummaryDTO, 0, len(results))
	for i := range results {
		summaries = append(summaries, toResultSummary(&results[i]))
	}
	return summaries, nil
}

// GetResult serves both roles: a student may read their own attempt, an admin
// may read attempts on tests they created. Answer details are withheld from
// students when the test was configured not to show results.
func (s *resultService) GetResult(callerID uint, callerRole string, resultID uint) (*dto.ResultResponseDTO, error) {
	result, err := s.resultRepo.FindByIDWithDetails(resultID)
	if err != nil {
		return nil, fmt.Errorf("%w: result not found", apperr.ErrNotFound)
	}

	switch callerRole {
	case model.RoleAdmin:
		if result.Test.CreatedByID != callerID {
			return nil, fmt.Errorf("%w: not authorized to access this result", apperr.ErrForbidden)
		}
	default:
		if result.StudentID != callerID {
			return nil, fmt.Errorf("%w: not authorized to access this result", apperr.ErrForbidden)
		}
	}

	resp := toResultDTO(result)
	if callerRole != model.RoleAdmin && !result.Test.ShowResults {
		resp.Answers = nil
	}
	return resp, nil
}

func (s *resultService) GetAllResults(status string, page, limit int) (*dto.PaginatedResponse, error) {
	page, limit = normalizePage(page, limit)
	results, total, err := s.resultRepo.FindAll(status, page, limit)
	if err != nil {
		return nil, err
	}
	return paginatedResults(results, total, page, limit), nil
}

func (s *resultService) GetResultsByTest(adminID, testID uint, page, limit int) (*dto.PaginatedResponse, error) {
	test, err := s.testRepo.FindByID(testID)
	if err != nil {
		return nil, fmt.Errorf("%w: test not found", apperr.ErrNotFound)
	}
	if test.CreatedByID != adminID {
		return nil, fmt.Errorf("%w: not authorized to access this test's results", apperr.ErrForbidden)
	}

	page, limit = normalizePage(page, limit)
	results, total, err := s.resultRepo.FindByTest(testID, page, limit)
	if err != nil {
		return nil, err
	}
	return paginatedResults(results, total, page, limit), nil
}

func (s *resultService) GetResultsByStudent(studentID uint, page, limit int) (*dto.PaginatedResponse, error) {
	page, limit = normalizePage(page, limit)
	results, total, err := s.resultRepo.FindByStudent(studentID, page, limit)
	if err != nil {
		return nil, err
	}
	return paginatedResults(results, total, page, limit), nil
}

// ManualGrade overwrites only the supplied fields. The percentage is
// recomputed from whichever score ends up current, so score and percentage
// never drift apart.
func (s *resultService) ManualGrade(adminID, resultID uint, req dto.ManualGradeRequest) (*dto.ResultResponseDTO, error) {
	result, err := s.resultRepo.FindByIDWithDetails(resultID)
	if err != nil {
		return nil, fmt.Errorf("%w: result not found", apperr.ErrNotFound)
	}
	if result.Test.CreatedByID != adminID {
		return nil, fmt.Errorf("%w: not authorized to grade this result", apperr.ErrForbidden)
	}
	if result.Status == model.StatusInProgress {
		return nil, fmt.Errorf("%w: cannot grade an attempt that is still in progress", apperr.ErrInvalid)
	}

	now := time.Now()
	fields := map[string]interface{}{
		"graded":       true,
		"graded_by_id": adminID,
		"graded_at":    now,
	}

	score := result.Score
	if req.Score != nil {
		if *req.Score > result.TotalPoints {
			return nil, fmt.Errorf("%w: score cannot exceed total points (%d)", apperr.ErrInvalid, result.TotalPoints)
		}
		score = *req.Score
		fields["score"] = score
	}
	fields["percentage"] = model.ComputePercentage(score, result.TotalPoints)

	if req.ReviewNotes != nil {
		fields["review_notes"] = *req.ReviewNotes
	}
	if req.FlaggedForReview != nil {
		fields["flagged_for_review"] = *req.FlaggedForReview
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}

	if err := s.resultRepo.ApplyManualGrade(resultID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: result not found", apperr.ErrNotFound)
		}
		log.Error().Err(err).Uint("resultID", resultID).Msg("ManualGrade: failed to apply grade")
		return nil, err
	}

	updated, err := s.resultRepo.FindByIDWithDetails(resultID)
	if err != nil {
		return nil, err
	}
	return toResultDTO(updated), nil
}

func (s *resultService) DeleteResult(adminID, resultID uint) error {
	result, err := s.resultRepo.FindByIDWithDetails(resultID)
	if err != nil {
		return fmt.Errorf("%w: result not found", apperr.ErrNotFound)
	}
	if result.Test.CreatedByID != adminID {
		return fmt.Errorf("%w: not authorized to delete this result", apperr.ErrForbidden)
	}
	return s.resultRepo.Delete(resultID)
}

// ExportResultsCSV streams the submitted attempts for a test as CSV. Only the
// test's creator may export.
func (s *resultService) ExportResultsCSV(adminID, testID uint) ([]byte, string, error) {
	test, err := s.testRepo.FindByID(testID)
	if err != nil {
		return nil, "", fmt.Errorf("%w: test not found", apperr.ErrNotFound)
	}
	if test.CreatedByID != adminID {
		return nil, "", fmt.Errorf("%w: not authorized to export this test's results", apperr.ErrForbidden)
	}

	results, err := s.resultRepo.FindSubmittedByTest(testID)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"Student Name", "Email", "Student ID", "Score", "Percentage", "Time Spent (min)", "Submitted At", "Status"}
	if err := w.Write(header); err != nil {
		return nil, "", err
	}
	for i := range results {
		r := &results[i]
		studentID := ""
		if r.Student.StudentID != nil {
			studentID = *r.Student.StudentID
		}
		submittedAt := ""
		if r.SubmittedAt != nil {
			submittedAt = r.SubmittedAt.Format(time.RFC3339)
		}
		row := []string{
			r.Student.Name,
			r.Student.Email,
			studentID,
			strconv.Itoa(r.Score),
			strconv.Itoa(r.Percentage),
			strconv.Itoa(r.TimeSpent),
			submittedAt,
			r.Status,
		}
		if err := w.Write(row); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("test_%d_results.csv", testID)
	return buf.Bytes(), filename, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func paginatedResults(results []model.Result, total int64, page, limit int) *dto.PaginatedResponse {
	data := make([]dto.ResultResponseDTO, 0, len(results))
	for i := range results {
		data = append(data, *toResultDTO(&results[i]))
	}
	return &dto.PaginatedResponse{
		Count: len(data),
		Total: total,
		Page:  page,
		Limit: limit,
		Data:  data,
	}
}

func toResultSummary(result *model.Result) dto.ResultSummaryDTO {
	summary := dto.ResultSummaryDTO{
		ID:            result.ID,
		TestID:        result.TestID,
		Score:         result.Score,
		TotalPoints:   result.TotalPoints,
		Percentage:    result.Percentage,
		Status:        result.Status,
		SubmittedAt:   result.SubmittedAt,
		TimeSpent:     result.TimeSpent,
		AttemptNumber: result.AttemptNumber,
		Graded:        result.Graded,
	}
	if result.Test.ID != 0 {
		summary.TestTitle = result.Test.Title
	}
	return summary
}
