package service

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/nqkhanh/edutest/internal/apperr"
	"github.com/nqkhanh/edutest/internal/dto"
	"github.com/nqkhanh/edutest/internal/model"
	"github.com/nqkhanh/edutest/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// UserService is the admin-only user management surface.
type UserService interface {
	GetUsers(role string, page, limit int) (*dto.PaginatedResponse, error)
	GetStudents() ([]dto.UserResponseDTO, error)
	GetAdmins() ([]dto.UserResponseDTO, error)
	GetUser(userID uint) (*dto.UserResponseDTO, error)
	CreateUser(req dto.CreateUserRequest) (*dto.UserResponseDTO, error)
	UpdateUser(userID uint, req dto.UpdateUserRequest) (*dto.UserResponseDTO, error)
	DeleteUser(callerID, userID uint) error
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetUsers(role string, page, limit int) (*dto.PaginatedResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	users, total, err := s.userRepo.FindAll(role, page, limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.UserResponseDTO, 0, len(users))
	for i := range users {
		data = append(data, toUserDTO(&users[i]))
	}
	return &dto.PaginatedResponse{
		Count: len(data),
		Total: total,
		Page:  page,
		Limit: limit,
		Data:  data,
	}, nil
}

func (s *userService) GetStudents() ([]dto.UserResponseDTO, error) {
	return s.usersByRole(model.RoleStudent)
}

func (s *userService) GetAdmins() ([]dto.UserResponseDTO, error) {
	return s.usersByRole(model.RoleAdmin)
}

func (s *userService) usersByRole(role string) ([]dto.UserResponseDTO, error) {
	users, err := s.userRepo.FindByRole(role)
	if err != nil {
		return nil, err
	}
	data := make([]dto.UserResponseDTO, 0, len(users))
	for i := range users {
		data = append(data, toUserDTO(&users[i]))
	}
	return data, nil
}

func (s *userService) GetUser(userID uint) (*dto.UserResponseDTO, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}
	resp := toUserDTO(user)
	return &resp, nil
}

func (s *userService) CreateUser(req dto.CreateUserRequest) (*dto.UserResponseDTO, error) {
	if existing, _ := s.userRepo.FindByEmail(req.Email); existing != nil {
		return nil, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	}
	if req.StudentID != nil {
		if existing, _ := s.userRepo.FindByStudentID(*req.StudentID); existing != nil {
			return nil, fmt.Errorf("%w: student ID already in use", apperr.ErrConflict)
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := model.User{
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      req.Role,
		StudentID: req.StudentID,
		IsActive:  true,
	}
	if err := s.userRepo.Create(&user); err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("CreateUser: failed to create user")
		return nil, err
	}
	resp := toUserDTO(&user)
	return &resp, nil
}

func (s *userService) UpdateUser(userID uint, req dto.UpdateUserRequest) (*dto.UserResponseDTO, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}

	if req.Email != nil && *req.Email != user.Email {
		if existing, _ := s.userRepo.FindByEmail(*req.Email); existing != nil {
			return nil, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
		}
		user.Email = *req.Email
	}
	if req.StudentID != nil {
		if existing, _ := s.userRepo.FindByStudentID(*req.StudentID); existing != nil && existing.ID != user.ID {
			return nil, fmt.Errorf("%w: student ID already in use", apperr.ErrConflict)
		}
		user.StudentID = req.StudentID
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.Password = string(hashed)
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	resp := toUserDTO(user)
	return &resp, nil
}

func toUserDTO(user *model.User) dto.UserResponseDTO {
	var resp dto.UserResponseDTO
	copier.Copy(&resp, user)
	return resp
}

func (s *userService) DeleteUser(callerID, userID uint) error {
	if callerID == userID {
		return fmt.Errorf("%w: cannot delete your own account", apperr.ErrForbidden)
	}
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}
	return s.userRepo.Delete(userID)
}
