package admin

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

type TestController struct {
	testService service.TestService
}

func NewTestController(testService service.TestService) *TestController {
	return &TestController{testService: testService}
}

func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(val), true
}

func queryInt(ctx *gin.Context, name string, def int) int {
	val, err := strconv.Atoi(ctx.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return val
}

// CreateTest godoc
// @Summary (Admin) Create a test with its questions
// @Description Total points are computed from the question list; clients never supply them.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test body dto.TestCreateDTO true "Test definition including questions"
// @Success 201 {object} dto.TestResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Router /admin/tests [post]
func (c *TestController) CreateTest(ctx *gin.Context) {
	var req dto.TestCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	claims := middleware.GetClaims(ctx)
	test, err := c.testService.CreateTest(claims.UserID, req)
	if err != nil {
		log.Warn().Err(err).Uint("adminID", claims.UserID).Msg("CreateTest failed")
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, test)
}

// GetTests godoc
// @Summary (Admin) List my tests
// @Tags Admin - Tests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.TestSummaryDTO
// @Router /admin/tests [get]
func (c *TestController) GetTests(ctx *gin.Context) {
	claims := middleware.GetClaims(ctx)
	tests, err := c.testService.GetTests(claims.UserID)
	if err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, tests)
}

// GetTest godoc
// @Summary (Admin) Get one of my tests with answers
// @Tags Admin - Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Not the creator of this test"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id} [get]
func (c *TestController) GetTest(ctx *gin.Context) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(ctx)
	test, err := c.testService.GetTest(claims.UserID, testID)
	if err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, test)
}

// UpdateTest godoc
// @Summary (Admin) Update a test
// @Description Supplying a questions list replaces the existing questions; total points are recomputed either way.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Param test body dto.TestUpdateDTO true "Fields to update"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Not the creator of this test"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id} [put]
func (c *TestController) UpdateTest(ctx *gin.Context) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	var req dto.TestUpdateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	claims := middleware.GetClaims(ctx)
	test, err := c.testService.UpdateTest(claims.UserID, testID, req)
	if err != nil {
		log.Warn().Err(err).Uint("testID", testID).Msg("UpdateTest failed")
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, test)
}

// DeleteTest godoc
// @Summary (Admin) Delete a test
// @Description Deletes the test, its questions and every result recorded against it.
// @Tags Admin - Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 403 {object} dto.ErrorResponse "Not the creator of this test"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id} [delete]
func (c *TestController) DeleteTest(ctx *gin.Context) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(ctx)
	if err := c.testService.DeleteTest(claims.UserID, testID); err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "Test deleted"})
}

// PublishTest godoc
// @Summary (Admin) Publish a test
// @Tags Admin - Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id}/publish [put]
func (c *TestController) PublishTest(ctx *gin.Context) {
	c.setPublished(ctx, true)
}

// UnpublishTest godoc
// @Summary (Admin) Unpublish a test
// @Tags Admin - Tests
// @Produce json
// @Security BearerAuth
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Router /admin/tests/{test_id}/unpublish [put]
func (c *TestController) UnpublishTest(ctx *gin.Context) {
	c.setPublished(ctx, false)
}

func (c *TestController) setPublished(ctx *gin.Context, published bool) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(ctx)
	test, err := c.testService.SetPublished(claims.UserID, testID, published)
	if err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, test)
}
