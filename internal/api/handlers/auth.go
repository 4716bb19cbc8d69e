package handlers

import (
	"context"
	"net/http"

	"github.com/nurlyy/guestbook/internal/domain"
)

// UserService - операции с пользователями, нужные обработчику
type UserService interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.UserResponse, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
	RefreshToken(ctx context.Context, req domain.RefreshTokenRequest) (*domain.LoginResponse, error)
	Me(ctx context.Context, userID int64) (*domain.UserResponse, error)
}

// AuthHandler обрабатывает запросы, связанные с аутентификацией
type AuthHandler struct {
	BaseHandler
	userService UserService
}

// NewAuthHandler создает новый экземпляр AuthHandler
func NewAuthHandler(base BaseHandler, userService UserService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		userService: userService,
	}
}

// Register обрабатывает запрос на регистрацию нового пользователя
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.RespondWithError(w, r, FormatJSON, err)
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		h.RespondWithError(w, r, FormatJSON, err)
		return
	}

	h.RespondWithSuccess(w, r, http.StatusCreated, user)
}

// Login обрабатывает запрос на вход пользователя
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.RespondWithError(w, r, FormatJSON, err)
		return
	}

	response, err := h.userService.Login(r.Context(), req)
	if err != nil {
		h.RespondWithError(w, r, FormatJSON, err)
		return
	}

	h.RespondWithSuccess(w, r, http.StatusOK, response)
}

// RefreshToken обрабатывает запрос на обновление токена доступа
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshTokenRequest
	if err := h.ParseJSON(r, &req); err != nil {
		h.RespondWithError(w, r, FormatJSON, err)
		return
	}

	response, err := h.userService.RefreshToken(r.Context(), req)
	if err != nil {
		h.RespondWithError(w, r, FormatJSON, err)
		return
	}

	h.RespondWithSuccess(w, r, http.StatusOK, response)
}

// GetCurrentUser возвращает информацию о текущем пользователе
func (h *AuthHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal, err := h.GetPrincipal(r)
	if err != nil {
		h.RespondWithError(w, r, FormatJSON, err)
		return
	}

	user, err := h.userService.Me(r.Context(), principal.UserID)
	if err != nil {
		h.RespondWithError(w, r, FormatJSON, err)
		return
	}

	h.RespondWithSuccess(w, r, http.StatusOK, user)
}
