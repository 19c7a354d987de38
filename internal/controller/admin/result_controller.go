package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nqkhanh/edutest/internal/apperr"
	"github.com/nqkhanh/edutest/internal/dto"
	"github.com/nqkhanh/edutest/internal/middleware"
	"github.com/nqkhanh/edutest/internal/service"
	"github.com/rs/zerolog/log"
)

type ResultController struct {
	resultService    service.ResultService
	analyticsService service.AnalyticsService
	reviewService    service.ReviewAssistService
}

func NewResultController(resultService service.ResultService, analyticsService service.AnalyticsService, reviewService service.ReviewAssistService) *ResultController {
	return &ResultController{
		resultService:    resultService,
		analyticsService: analyticsService,
		reviewService:    reviewService,
	}
}

// GetAllResults godoc
// @Summary (Admin) List results
// @Tags Admin - Results
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (in-progress, submitted, auto-submitted, completed)"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} dto.PaginatedResponse
// @Router /admin/results [get]
func (c *ResultController) GetAllResults(ctx *gin.Context) {
	status := ctx.Query("status")
	page := queryInt(ctx, "page", 1)
	limit := queryInt(ctx, "limit", 20)

	results, err := c.resultService.GetAllResults(status, page, limit)
	if err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, results)
}

// GetResult godoc
// @Summary (Admin) Get a result with full details
// @Tags Admin - Results
// @Produce json
// @Security BearerAuth
// @Param result_id path int true "Result ID"
// @Success 200 {object} dto.ResultResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Not the creator of the attempted test"
// @Failure 404 {object} dto.ErrorResponse "Result not found"
// @Router /admin/results/{result_id} [get]
func (c *ResultController) GetResult(ctx *gin.Context) {
	resultID, ok := parseIDParam(ctx, "result_id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(ctx)
	result, err := c.resultService.GetResult(claims.UserID, claims.Role, resultID)
	if err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetResultsByTest godoc
// @Summary (Admin) List results for one of my tests
// @Tags Admin - Results
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} dto.PaginatedResponse
// @Failure 403 {object} dto.ErrorResponse "Not the creator of this test"
// @Router /admin/results/test/{test_id} [get]
func (c *ResultController) GetResultsByTest(ctx *gin.Context) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(ctx)
	page := queryInt(ctx, "page", 1)
	limit := queryInt(ctx, "limit", 20)

	results, err := c.resultService.GetResultsByTest(claims.UserID, testID, page, limit)
	if err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, results)
}

// GetResultsByStudent godoc
// @Summary (Admin) List a student's results
// @Tags Admin - Results
// @Produce json
// @Security BearerAuth
// @Param student_id path int true "Student ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} dto.PaginatedResponse
// @Router /admin/results/student/{student_id} [get]
func (c *ResultController) GetResultsByStudent(ctx *gin.Context) {
	studentID, ok := parseIDParam(ctx, "student_id")
	if !ok {
		return
	}
	page := queryInt(ctx, "page", 1)
	limit := queryInt(ctx, "limit", 20)

	results, err := c.resultService.GetResultsByStudent(studentID, page, limit)
	if err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, results)
}

// ManualGrade godoc
// @Summary (Admin) Manually grade a result
// @Description Overwrites only the supplied fields. The percentage is recomputed from the effective score. Status may be moved to completed once essays are scored.
// @Tags Admin - Results
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param result_id path int true "Result ID"
// @Param grade body dto.ManualGradeRequest true "Score, review notes, flag, status"
// @Success 200 {object} dto.ResultResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Score exceeds total points or attempt still in progress"
// @Failure 403 {object} dto.ErrorResponse "Not the creator of the attempted test"
// @Failure 404 {object} dto.ErrorResponse "Result not found"
// @Router /admin/results/{result_id}/grade [put]
func (c *ResultController) ManualGrade(ctx *gin.Context) {
	resultID, ok := parseIDParam(ctx, "result_id")
	if !ok {
		return
	}
	var req dto.ManualGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	claims := middleware.GetClaims(ctx)
	result, err := c.resultService.ManualGrade(claims.UserID, resultID, req)
	if err != nil {
		log.Warn().Err(err).Uint("resultID", resultID).Msg("ManualGrade failed")
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// DeleteResult godoc
// @Summary (Admin) Delete a result
// @Tags Admin - Results
// @Produce json
// @Security BearerAuth
// @Param result_id path int true "Result ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 403 {object} dto.ErrorResponse "Not the creator of the attempted test"
// @Failure 404 {object} dto.ErrorResponse "Result not found"
// @Router /admin/results/{result_id} [delete]
func (c *ResultController) DeleteResult(ctx *gin.Context) {
	resultID, ok := parseIDParam(ctx, "result_id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(ctx)
	if err := c.resultService.DeleteResult(claims.UserID, resultID); err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Result deleted"})
}

// ExportResults godoc
// @Summary (Admin) Export a test's results as CSV
// @Tags Admin - Results
// @Produce text/csv
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {string} string "CSV file"
// @Failure 403 {object} dto.ErrorResponse "Not the creator of this test"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/results/export/{test_id} [get]
func (c *ResultController) ExportResults(ctx *gin.Context) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(ctx)
	data, filename, err := c.resultService.ExportResultsCSV(claims.UserID, testID)
	if err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.Header("Content-Disposition", "attachment; filename="+filename)
	ctx.Data(http.StatusOK, "text/csv", data)
}

// Dashboard godoc
// @Summary (Admin) Analytics dashboard
// @Description Aggregates are recomputed on every call from the submitted results of the caller's tests.
// @Tags Admin - Analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.DashboardDTO
// @Router /admin/results/analytics [get]
func (c *ResultController) Dashboard(ctx *gin.Context) {
	claims := middleware.GetClaims(ctx)
	dashboard, err := c.analyticsService.Dashboard(claims.UserID)
	if err != nil {
		log.Error().Err(err).Uint("adminID", claims.UserID).Msg("Dashboard failed")
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, dashboard)
}

// TestAnalytics godoc
// @Summary (Admin) Per-question analytics for a test
// @Tags Admin - Analytics
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestAnalyticsDTO
// @Failure 403 {object} dto.ErrorResponse "Not the creator of this test"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/results/test/{test_id}/analytics [get]
func (c *ResultController) TestAnalytics(ctx *gin.Context) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(ctx)
	analytics, err := c.analyticsService.TestAnalytics(claims.UserID, testID)
	if err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, analytics)
}

// ReviewAssist godoc
// @Summary (Admin) AI-drafted essay grading suggestions
// @Description Drafts a suggested score and feedback for each answered essay question of a submitted attempt. Advisory only; nothing is persisted.
// @Tags Admin - Results
// @Produce json
// @Security BearerAuth
// @Param result_id path int true "Result ID"
// @Success 200 {array} dto.EssayReviewSuggestionDTO
// @Failure 400 {object} dto.ErrorResponse "Attempt not submitted yet"
// @Failure 403 {object} dto.ErrorResponse "Not the creator of the attempted test"
// @Failure 404 {object} dto.ErrorResponse "Result not found"
// @Router /admin/results/{result_id}/review-assist [get]
func (c *ResultController) ReviewAssist(ctx *gin.Context) {
	resultID, ok := parseIDParam(ctx, "result_id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(ctx)
	suggestions, err := c.reviewService.SuggestEssayGrades(claims.UserID, resultID)
	if err != nil {
		log.Warn().Err(err).Uint("resultID", resultID).Msg("ReviewAssist failed")
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, suggestions)
}
