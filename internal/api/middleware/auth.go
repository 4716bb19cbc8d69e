package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/pkg/auth"
	apperrors "github.com/nurlyy/guestbook/pkg/errors"
	"github.com/nurlyy/guestbook/pkg/logger"
)

// TokenCookie - cookie с access-токеном для админки
const TokenCookie = "guestbook_token"

// ErrNoToken возвращается, если запрос не содержит токена
var ErrNoToken = errors.New("no token in request")

type principalKey struct{}

// Principal - аутентифицированный пользователь запроса
type Principal struct {
	UserID int64
	Email  string
	Role   string
}

// HasRole проверяет роль с учетом иерархии
func (p Principal) HasRole(role string) bool {
	return domain.RoleGrants(p.Role, role)
}

// WithPrincipal помещает пользователя в контекст
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext извлекает пользователя из контекста
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// AuthMiddleware предоставляет middleware для аутентификации пользователей
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	logger     logger.Logger
}

// NewAuthMiddleware создает новый экземпляр AuthMiddleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, logger logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Identify проверяет access-токен из заголовка Authorization или cookie
func (m *AuthMiddleware) Identify(r *http.Request) (Principal, error) {
	tokenString, err := tokenFromRequest(r)
	if err != nil {
		return Principal{}, err
	}

	claims, err := m.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return Principal{}, err
	}

	// Refresh-токен не дает доступа к ресурсам
	if claims.Type != string(auth.AccessToken) {
		return Principal{}, auth.ErrInvalidToken
	}

	return Principal{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}

// Authenticate требует валидный access-токен
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.Identify(r)
		if err != nil {
			if !errors.Is(err, ErrNoToken) {
				m.logger.Warn("Invalid JWT token", map[string]interface{}{
					"error": err.Error(),
				})
			}
			WriteError(w, apperrors.Unauthorized(""))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// Optional проверяет токен, если он есть, но не требует его наличия
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal, err := m.Identify(r); err == nil {
			r = r.WithContext(WithPrincipal(r.Context(), principal))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole требует аутентификации и роль role (ROLE_ADMIN включает ROLE_USER)
func (m *AuthMiddleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := PrincipalFromContext(r.Context())
			if !principal.HasRole(role) {
				m.logger.Warn("Insufficient permissions", map[string]interface{}{
					"user_id":  principal.UserID,
					"role":     principal.Role,
					"required": role,
				})
				WriteError(w, apperrors.Forbidden(""))
				return
			}

			next.ServeHTTP(w, r)
		}))
	}
}

func tokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", auth.ErrInvalidToken
		}
		return parts[1], nil
	}

	if cookie, err := r.Cookie(TokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	return "", ErrNoToken
}

// errorBody - тело ответа с ошибкой
type errorBody struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error"`
	ErrorCode    string `json:"error_code,omitempty"`
}

// WriteError отправляет ошибку приложения в формате JSON
func WriteError(w http.ResponseWriter, appErr *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Success:      false,
		ErrorMessage: appErr.Message,
		ErrorCode:    appErr.Code,
	})
}
