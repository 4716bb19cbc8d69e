package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nurlyy/guestbook/pkg/config"
)

// Стандартные ошибки
var (
	ErrInvalidToken  = errors.New("token is invalid")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// TokenType определяет тип токена
type TokenType string

const (
	// AccessToken используется для аутентификации запросов API
	AccessToken TokenType = "access"
	// RefreshToken используется для обновления access токена
	RefreshToken TokenType = "refresh"
)

// Claims содержит информацию о пользователе в JWT
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// JWTManager предоставляет функции для работы с JWT
type JWTManager struct {
	config *config.JWTConfig
	now    func() time.Time
}

// NewJWTManager создает новый менеджер JWT токенов
func NewJWTManager(cfg *config.JWTConfig) *JWTManager {
	return &JWTManager{
		config: cfg,
		now:    time.Now,
	}
}

// GenerateToken создает новый JWT токен для пользователя
func (m *JWTManager) GenerateToken(userID int64, email, role string, tokenType TokenType) (string, time.Time, error) {
	now := m.now()

	expiration := now.Add(m.config.AccessExpiresIn)
	if tokenType == RefreshToken {
		expiration = now.Add(m.config.RefreshExpiresIn)
	}

	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Type:   string(tokenType),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
			Subject:   strconv.FormatInt(userID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(m.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiration, nil
}

// GenerateTokenPair создает пару токенов (access и refresh)
func (m *JWTManager) GenerateTokenPair(userID int64, email, role string) (accessToken, refreshToken string, err error) {
	accessToken, _, err = m.GenerateToken(userID, email, role, AccessToken)
	if err != nil {
		return "", "", err
	}

	refreshToken, _, err = m.GenerateToken(userID, email, role, RefreshToken)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// VerifyToken проверяет валидность JWT токена
func (m *JWTManager) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(m.config.Secret), nil
		},
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidToken
		case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrExpiredToken
		default:
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}

// RefreshTokens обновляет пару токенов, используя refresh токен
func (m *JWTManager) RefreshTokens(refreshToken string) (accessToken, newRefreshToken string, err error) {
	claims, err := m.VerifyToken(refreshToken)
	if err != nil {
		return "", "", err
	}

	if claims.Type != string(RefreshToken) {
		return "", "", ErrInvalidToken
	}

	return m.GenerateTokenPair(claims.UserID, claims.Email, claims.Role)
}
