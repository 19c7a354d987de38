package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jinzhu/copier"
	"github.com/nqkhanh/edutest/config"
	"github.com/nqkhanh/edutest/internal/apperr"
	"github.com/nqkhanh/edutest/internal/dto"
	"github.com/nqkhanh/edutest/internal/middleware"
	"github.com/nqkhanh/edutest/internal/model"
	"github.com/nqkhanh/edutest/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Register(req dto.RegisterRequest) (*dto.AuthResponseDTO, error)
	Login(req dto.LoginRequest) (*dto.AuthResponseDTO, error)
	GetMe(userID uint) (*dto.UserResponseDTO, error)
	UpdateProfile(userID uint, req dto.UpdateProfileRequest) (*dto.UserResponseDTO, error)
	ChangePassword(userID uint, req dto.ChangePasswordRequest) (*dto.AuthResponseDTO, error)
}

type authService struct {
	userRepo repository.UserRepository
	cfg      *config.Config
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) AuthService {
	return &authService{userRepo: userRepo, cfg: cfg}
}

// Register always creates a student account; admins are provisioned through
// user management. The student id is generated, not caller-supplied.
func (s *authService) Register(req dto.RegisterRequest) (*dto.AuthResponseDTO, error) {
	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, fmt.Errorf("%w: user with this email already exists", apperr.ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	studentID := fmt.Sprintf("STU%d", time.Now().UnixMilli())
	now := time.Now()
	user := model.User{
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      model.RoleStudent,
		StudentID: &studentID,
		IsActive:  true,
		LastLogin: &now,
	}

	if err := s.userRepo.Create(&user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: user with this email already exists", apperr.ErrConflict)
		}
		log.Error().Err(err).Msg("Register: failed to create user")
		return nil, err
	}

	return s.tokenResponse(&user)
}

func (s *authService) Login(req dto.LoginRequest) (*dto.AuthResponseDTO, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrForbidden)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account has been deactivated", apperr.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrForbidden)
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.userRepo.Update(user); err != nil {
		log.Warn().Err(err).Uint("userID", user.ID).Msg("Login: failed to update last login")
	}

	return s.tokenResponse(user)
}

func (s *authService) GetMe(userID uint) (*dto.UserResponseDTO, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}
	var resp dto.UserResponseDTO
	copier.Copy(&resp, user)
	return &resp, nil
}

func (s *authService) UpdateProfile(userID uint, req dto.UpdateProfileRequest) (*dto.UserResponseDTO, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}

	if req.Email != nil && *req.Email != user.Email {
		if existing, err := s.userRepo.FindByEmail(*req.Email); err == nil && existing.ID != userID {
			return nil, fmt.Errorf("%w: email is already taken", apperr.ErrConflict)
		}
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	var resp dto.UserResponseDTO
	copier.Copy(&resp, user)
	return &resp, nil
}

func (s *authService) ChangePassword(userID uint, req dto.ChangePasswordRequest) (*dto.AuthResponseDTO, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return nil, fmt.Errorf("%w: current password is incorrect", apperr.ErrForbidden)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	user.Password = string(hashed)
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	return s.tokenResponse(user)
}

func (s *authService) tokenResponse(user *model.User) (*dto.AuthResponseDTO, error) {
	expiry := time.Duration(s.cfg.JWT.ExpiryHours) * time.Hour
	claims := &middleware.Claims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	var userDTO dto.UserResponseDTO
	copier.Copy(&userDTO, user)
	return &dto.AuthResponseDTO{Token: token, User: userDTO}, nil
}
