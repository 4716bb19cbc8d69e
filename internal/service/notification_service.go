package service

import (
	"context"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/internal/repository"
	"github.com/nurlyy/guestbook/pkg/logger"
)

// NotificationService предоставляет журнал уведомлений администратору
type NotificationService struct {
	repo   repository.NotificationRepository
	logger logger.Logger
}

// NewNotificationService создает новый экземпляр NotificationService
func NewNotificationService(repo repository.NotificationRepository, logger logger.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		logger: logger,
	}
}

// List возвращает страницу журнала уведомлений
func (s *NotificationService) List(ctx context.Context, filter domain.NotificationFilterOptions) (domain.PagedResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 30
	}

	notifications, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.PagedResponse{}, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return domain.PagedResponse{}, err
	}

	return domain.NewPagedResponse(notifications, total, filter.Page, filter.PageSize), nil
}
