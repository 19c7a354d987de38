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

type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{userService: userService}
}

// GetUsers godoc
// @Summary (Admin) List users
// @Tags Admin - Users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Filter by role (admin, student)"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} dto.PaginatedResponse
// @Router /admin/users [get]
func (c *UserController) GetUsers(ctx *gin.Context) {
	role := ctx.Query("role")
	page := queryInt(ctx, "page", 1)
	limit := queryInt(ctx, "limit", 20)

	users, err := c.userService.GetUsers(role, page, limit)
	if err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, users)
}

// GetStudents godoc
// @Summary (Admin) List all students
// @Tags Admin - Users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.UserResponseDTO
// @Router /admin/users/students [get]
func (c *UserController) GetStudents(ctx *gin.Context) {
	students, err := c.userService.GetStudents()
	if err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, students)
}

// GetAdmins godoc
// @Summary (Admin) List all admins
// @Tags Admin - Users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.UserResponseDTO
// @Router /admin/users/admins [get]
func (c *UserController) GetAdmins(ctx *gin.Context) {
	admins, err := c.userService.GetAdmins()
	if err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, admins)
}

// GetUser godoc
// @Summary (Admin) Get a user
// @Tags Admin - Users
// @Produce json
// @Security BearerAuth
// @Param user_id path int true "User ID"
// @Success 200 {object} dto.UserResponseDTO
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /admin/users/{user_id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	userID, ok := parseIDParam(ctx, "user_id")
	if !ok {
		return
	}
	user, err := c.userService.GetUser(userID)
	if err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, user)
}

// CreateUser godoc
// @Summary (Admin) Create a user
// @Description Unlike self-registration, admins may create accounts with either role and assign a student ID.
// @Tags Admin - Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body dto.CreateUserRequest true "User definition"
// @Success 201 {object} dto.UserResponseDTO
// @Failure 409 {object} dto.ErrorResponse "Email or student ID already in use"
// @Router /admin/users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req dto.CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	user, err := c.userService.CreateUser(req)
	if err != nil {
		log.Warn().Err(err).Str("email", req.Email).Msg("CreateUser failed")
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, user)
}

// UpdateUser godoc
// @Summary (Admin) Update a user
// @Tags Admin - Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user_id path int true "User ID"
// @Param user body dto.UpdateUserRequest true "Fields to update"
// @Success 200 {object} dto.UserResponseDTO
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Failure 409 {object} dto.ErrorResponse "Email or student ID already in use"
// @Router /admin/users/{user_id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	userID, ok := parseIDParam(ctx, "user_id")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	user, err := c.userService.UpdateUser(userID, req)
	if err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary (Admin) Delete a user
// @Description Admins cannot delete their own account.
// @Tags Admin - Users
// @Produce json
// @Security BearerAuth
// @Param user_id path int true "User ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 403 {object} dto.ErrorResponse "Attempted self-deletion"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /admin/users/{user_id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	userID, ok := parseIDParam(ctx, "user_id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(ctx)
	if err := c.userService.DeleteUser(claims.UserID, userID); err != nil {
		ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "User deleted"})
}
