package domain

import (
	"errors"
	"fmt"
)

// Стандартные ошибки приложения
var (
	// ErrNotFound возвращается, когда запрашиваемый ресурс не найден
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput возвращается при невалидных входных данных
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized возвращается при отсутствии аутентификации
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden возвращается при недостаточных правах доступа
	ErrForbidden = errors.New("forbidden")

	// ErrConflict возвращается при конфликте данных
	ErrConflict = errors.New("conflict")
)

// Ошибки ресурсов
var (
	ErrCommentNotFound    = fmt.Errorf("comment: %w", ErrNotFound)
	ErrConferenceNotFound = fmt.Errorf("conference: %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user: %w", ErrNotFound)

	// ErrInvalidConferenceRef - ссылка на конференцию не разбирается или указывает на несуществующую
	ErrInvalidConferenceRef = fmt.Errorf("invalid conference reference: %w", ErrInvalidInput)

	ErrEmailAlreadyExists = fmt.Errorf("email already exists: %w", ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
)
