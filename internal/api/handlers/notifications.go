package handlers

import (
	"context"
	"net/http"

	"github.com/nurlyy/guestbook/internal/domain"
)

// NotificationService - журнал отправленных администратору писем
type NotificationService interface {
	List(ctx context.Context, filter domain.NotificationFilterOptions) (domain.PagedResponse, error)
}

// NotificationHandler обрабатывает запросы к журналу уведомлений
type NotificationHandler struct {
	BaseHandler
	notificationService NotificationService
}

// NewNotificationHandler создает новый экземпляр NotificationHandler
func NewNotificationHandler(base BaseHandler, notificationService NotificationService) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         base,
		notificationService: notificationService,
	}
}

// ListNotifications возвращает страницу журнала с фильтрами ?type= и ?status=
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	page, pageSize := h.GetPaginationParams(r)
	filter := domain.NotificationFilterOptions{
		Page:     page,
		PageSize: pageSize,
	}

	if t := r.URL.Query().Get("type"); t != "" {
		notificationType := domain.NotificationType(t)
		filter.Type = &notificationType
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.NotificationStatus(s)
		filter.Status = &status
	}

	paged, err := h.notificationService.List(r.Context(), filter)
	if err != nil {
		h.RespondWithError(w, r, FormatJSON, err)
		return
	}

	h.RespondWithPagination(w, r, paged)
}
