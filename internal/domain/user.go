package domain

import (
	"time"
)

// Роли пользователей
const (
	// RoleUser - аутентифицированный пользователь
	RoleUser = "ROLE_USER"
	// RoleAdmin - администратор, включает RoleUser
	RoleAdmin = "ROLE_ADMIN"
)

// roleHierarchy перечисляет роли, которые наследует каждая роль
var roleHierarchy = map[string][]string{
	RoleAdmin: {RoleUser},
}

// RoleGrants проверяет, дает ли роль have права роли want
func RoleGrants(have, want string) bool {
	if have == want {
		return true
	}
	for _, inherited := range roleHierarchy[have] {
		if RoleGrants(inherited, want) {
			return true
		}
	}
	return false
}

// IsValidRole проверяет, известна ли роль
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// User представляет модель пользователя
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// HasRole проверяет роль пользователя с учетом иерархии
func (u *User) HasRole(role string) bool {
	return RoleGrants(u.Role, role)
}

// IsAdmin проверяет, является ли пользователь администратором
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// UserResponse представляет данные пользователя для API-ответов
type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToResponse преобразует User в UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// RegisterRequest представляет данные для регистрации
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UserCreateRequest - создание пользователя с произвольной ролью (CLI)
type UserCreateRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=ROLE_USER ROLE_ADMIN"`
}

// LoginRequest представляет данные для входа пользователя
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse представляет ответ при успешном входе
type LoginResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

// RefreshTokenRequest представляет запрос на обновление токенов
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
