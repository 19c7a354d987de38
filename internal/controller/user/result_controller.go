package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nqkhanh/edutest/internal/apperr"
	"github.com/nqkhanh/edutest/internal/dto"
	"github.com/nqkhanh/edutest/internal/middleware"
	"github.com/nqkhanh/edutest/internal/service"
)

type ResultController struct {
	resultService service.ResultService
}

func NewResultController(resultService service.ResultService) *ResultController {
	return &ResultController{resultService: resultService}
}

// GetMyResults godoc
// @Summary (Student) List my submitted results
// @Tags Student - Results
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.ResultSummaryDTO
// @Failure 401 {object} dto.ErrorResponse
// @Router /results/my [get]
func (c *ResultController) GetMyResults(ctx *gin.Context) {
	claims := middleware.GetClaims(ctx)
	results, err := c.resultService.GetMyResults(claims.UserID)
	if err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, results)
}

// GetResult godoc
// @Summary (Student) Get one of my results
// @Description Answer details are withheld when the test was configured not to show results.
// @Tags Student - Results
// @Produce json
// @Security BearerAuth
// @Param result_id path int true "Result ID"
// @Success 200 {object} dto.ResultResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Not the owner of this result"
// @Failure 404 {object} dto.ErrorResponse "Result not found"
// @Router /results/{result_id} [get]
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
