package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/internal/repository"
	"github.com/nurlyy/guestbook/pkg/auth"
	"github.com/nurlyy/guestbook/pkg/logger"
	"github.com/nurlyy/guestbook/pkg/validator"
)

// UserService представляет бизнес-логику для работы с пользователями
type UserService struct {
	repo       repository.UserRepository
	jwtManager *auth.JWTManager
	validator  *validator.CustomValidator
	logger     logger.Logger
	cost       int
}

// NewUserService создает новый экземпляр UserService
func NewUserService(
	repo repository.UserRepository,
	jwtManager *auth.JWTManager,
	validator *validator.CustomValidator,
	logger logger.Logger,
) *UserService {
	return &UserService{
		repo:       repo,
		jwtManager: jwtManager,
		validator:  validator,
		logger:     logger,
		cost:       bcrypt.DefaultCost,
	}
}

// Register регистрирует пользователя с ролью ROLE_USER
func (s *UserService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.UserResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	return s.create(ctx, req.Email, req.Password, domain.RoleUser)
}

// CreateUser создает пользователя с произвольной ролью (используется из CLI)
func (s *UserService) CreateUser(ctx context.Context, req domain.UserCreateRequest) (*domain.UserResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	return s.create(ctx, req.Email, req.Password, req.Role)
}

func (s *UserService) create(ctx context.Context, email, password, role string) (*domain.UserResponse, error) {
	// Хешируем пароль
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		s.logger.Error("Failed to hash password", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        strings.ToLower(email),
		PasswordHash: string(hashedPassword),
		Role:         role,
		CreatedAt:    time.Now(),
	}

	// Уникальность email проверяет база данных
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})

	response := user.ToResponse()
	return &response, nil
}

// Login выполняет вход пользователя
func (s *UserService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	// Получаем пользователя по email
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn("Unknown email during login", map[string]interface{}{
				"email": req.Email,
			})
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// Проверяем пароль
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("Invalid password during login", map[string]interface{}{
			"email": req.Email,
		})
		return nil, domain.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.jwtManager.GenerateTokenPair(user.ID, user.Email, user.Role)
	if err != nil {
		s.logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}

	return s.loginResponse(user, accessToken, refreshToken)
}

// RefreshToken обновляет пару токенов
func (s *UserService) RefreshToken(ctx context.Context, req domain.RefreshTokenRequest) (*domain.LoginResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := s.jwtManager.RefreshTokens(req.RefreshToken)
	if err != nil {
		s.logger.Warn("Failed to refresh tokens", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("refresh token rejected: %w", domain.ErrUnauthorized)
	}

	claims, err := s.jwtManager.VerifyToken(accessToken)
	if err != nil {
		return nil, err
	}

	// Пользователь мог быть удален после выдачи токена
	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("refresh token rejected: %w", domain.ErrUnauthorized)
		}
		return nil, err
	}

	return s.loginResponse(user, accessToken, refreshToken)
}

// Me возвращает текущего пользователя
func (s *UserService) Me(ctx context.Context, userID int64) (*domain.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	response := user.ToResponse()
	return &response, nil
}

func (s *UserService) loginResponse(user *domain.User, accessToken, refreshToken string) (*domain.LoginResponse, error) {
	claims, err := s.jwtManager.VerifyToken(accessToken)
	if err != nil {
		s.logger.Error("Failed to read token expiration", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}

	return &domain.LoginResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    claims.ExpiresAt.Time,
	}, nil
}
