package user

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nqkhanh/edutest/internal/apperr"
	"github.com/nqkhanh/edutest/internal/dto"
	"github.com/nqkhanh/edutest/internal/middleware"
	"github.com/nqkhanh/edutest/internal/service"
	"github.com/rs/zerolog/log"
)

// TestController serves the student-facing test and attempt endpoints.
type TestController struct {
	testService    service.TestService
	attemptService service.AttemptService
}

func NewTestController(testService service.TestService, attemptService service.AttemptService) *TestController {
	return &TestController{testService: testService, attemptService: attemptService}
}

func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(val), true
}

// GetPublishedTests godoc
// @Summary (Student) List available tests
// @Description Lists published tests currently inside their availability window.
// @Tags Student - Tests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TestSummaryDTO
// @Failure 401 {object} dto.ErrorResponse
// @Router /tests [get]
func (c *TestController) GetPublishedTests(ctx *gin.Context) {
	tests, err := c.testService.GetPublishedTests()
	if err != nil {
		log.Error().Err(err).Msg("GetPublishedTests failed")
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, tests)
}

// GetTest godoc
// @Summary (Student) Get a test's questions
// @Description Returns the test with its questions. Correct answers and explanations are never included.
// @Tags Student - Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Test not published or outside its window"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /tests/{test_id} [get]
func (c *TestController) GetTest(ctx *gin.Context) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	test, err := c.testService.GetTestForStudent(testID)
	if err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, test)
}

// StartAttempt godoc
// @Summary (Student) Start or resume an attempt
// @Description Returns the existing in-progress attempt if one exists, otherwise creates a new one subject to the attempt limit.
// @Tags Student - Attempts
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.ResultResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Attempt limit reached or test unavailable"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Failure 409 {object} dto.ErrorResponse "Concurrent start detected, retry"
// @Router /tests/{test_id}/start [post]
func (c *TestController) StartAttempt(ctx *gin.Context) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(ctx)

	client := service.ClientInfo{
		IPAddress: ctx.ClientIP(),
		UserAgent: ctx.Request.UserAgent(),
	}
	result, err := c.attemptService.StartAttempt(claims.UserID, testID, client)
	if err != nil {
		log.Warn().Err(err).Uint("studentID", claims.UserID).Uint("testID", testID).Msg("StartAttempt failed")
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// SaveAnswer godoc
// @Summary (Student) Save a draft answer
// @Description Auto-save path: stores the latest answer for a question on the active attempt. Last write wins; no grading happens here.
// @Tags Student - Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param answer body dto.SaveAnswerRequest true "Question ID and answer text"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} dto.ErrorResponse "No active attempt"
// @Router /tests/{test_id}/save-answer [post]
func (c *TestController) SaveAnswer(ctx *gin.Context) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.SaveAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	claims := middleware.GetClaims(ctx)
	if err := c.attemptService.SaveAnswer(claims.UserID, testID, req); err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Answer saved"})
}

// SubmitAttempt godoc
// @Summary (Student) Submit an attempt
// @Description Grades objective questions and finalizes the attempt. Safe against double submission; the second submit gets a 404.
// @Tags Student - Attempts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param submission body dto.SubmitTestRequest true "Answers and auto-submit flag"
// @Success 200 {object} dto.ResultResponseDTO
// @Failure 404 {object} dto.ErrorResponse "No active attempt"
// @Router /tests/{test_id}/submit [post]
func (c *TestController) SubmitAttempt(ctx *gin.Context) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.SubmitTestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	claims := middleware.GetClaims(ctx)
	result, err := c.attemptService.SubmitAttempt(claims.UserID, testID, req)
	if err != nil {
		log.Warn().Err(err).Uint("studentID", claims.UserID).Uint("testID", testID).Msg("SubmitAttempt failed")
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, result)
}
