package handlers

import (
	"context"
	"net/http"

	"github.com/nurlyy/guestbook/internal/domain"
)

// ConferenceService - операции над конференциями, нужные обработчику
type ConferenceService interface {
	Create(ctx context.Context, in domain.ConferenceInput) (*domain.ConferenceWithCount, error)
	Get(ctx context.Context, id int64) (*domain.ConferenceWithCount, error)
	List(ctx context.Context, page, pageSize int) ([]*domain.ConferenceWithCount, int, error)
	Replace(ctx context.Context, id int64, in domain.ConferenceInput) (*domain.ConferenceWithCount, error)
	Patch(ctx context.Context, id int64, in domain.ConferenceInput) (*domain.ConferenceWithCount, error)
	Delete(ctx context.Context, id int64) error
}

// ConferenceHandler обрабатывает запросы, связанные с конференциями
type ConferenceHandler struct {
	BaseHandler
	conferenceService ConferenceService
}

// NewConferenceHandler создает новый экземпляр ConferenceHandler
func NewConferenceHandler(base BaseHandler, conferenceService ConferenceService) *ConferenceHandler {
	return &ConferenceHandler{
		BaseHandler:       base,
		conferenceService: conferenceService,
	}
}

// ListConferences возвращает страницу конференций
func (h *ConferenceHandler) ListConferences(w http.ResponseWriter, r *http.Request) {
	f, ok := h.Negotiate(w, r)
	if !ok {
		return
	}

	page := h.GetPage(r)
	conferences, total, err := h.conferenceService.List(r.Context(), page, h.Config.ConferencesPerPage)
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	items := make([]Item, 0, len(conferences))
	for _, c := range conferences {
		items = append(items, conferenceItem(c))
	}

	h.RespondPage(w, r, f, conferenceResource, Page{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: h.Config.ConferencesPerPage,
	})
}

// GetConference возвращает конференцию по ID
func (h *ConferenceHandler) GetConference(w http.ResponseWriter, r *http.Request) {
	f, ok := h.Negotiate(w, r)
	if !ok {
		return
	}

	id, err := h.GetIDParam(r, "id")
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	conference, err := h.conferenceService.Get(r.Context(), id)
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	h.RespondItem(w, r, f, http.StatusOK, conferenceResource, conferenceItem(conference))
}

// CreateConference создает конференцию
func (h *ConferenceHandler) CreateConference(w http.ResponseWriter, r *http.Request) {
	f, ok := h.Negotiate(w, r)
	if !ok {
		return
	}

	in, err := h.conferenceInput(r)
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	conference, err := h.conferenceService.Create(r.Context(), in)
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	h.RespondItem(w, r, f, http.StatusCreated, conferenceResource, conferenceItem(conference))
}

// ReplaceConference заменяет конференцию (PUT)
func (h *ConferenceHandler) ReplaceConference(w http.ResponseWriter, r *http.Request) {
	h.updateConference(w, r, h.conferenceService.Replace)
}

// PatchConference частично обновляет конференцию (PATCH)
func (h *ConferenceHandler) PatchConference(w http.ResponseWriter, r *http.Request) {
	h.updateConference(w, r, h.conferenceService.Patch)
}

func (h *ConferenceHandler) updateConference(
	w http.ResponseWriter,
	r *http.Request,
	apply func(context.Context, int64, domain.ConferenceInput) (*domain.ConferenceWithCount, error),
) {
	f, ok := h.Negotiate(w, r)
	if !ok {
		return
	}

	id, err := h.GetIDParam(r, "id")
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	in, err := h.conferenceInput(r)
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	conference, err := apply(r.Context(), id, in)
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	h.RespondItem(w, r, f, http.StatusOK, conferenceResource, conferenceItem(conference))
}

// DeleteConference удаляет конференцию; ее комментарии остаются без конференции
func (h *ConferenceHandler) DeleteConference(w http.ResponseWriter, r *http.Request) {
	f, ok := h.Negotiate(w, r)
	if !ok {
		return
	}

	id, err := h.GetIDParam(r, "id")
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	if err := h.conferenceService.Delete(r.Context(), id); err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ConferenceHandler) conferenceInput(r *http.Request) (domain.ConferenceInput, error) {
	var in domain.ConferenceInput

	raw, err := h.decodeWritable(r, domain.ConferenceFieldGroups)
	if err != nil {
		return in, err
	}

	for name, value := range raw {
		switch name {
		case "city":
			err = decodeField(name, value, &in.City)
		case "year":
			err = decodeField(name, value, &in.Year)
		case "isInternational":
			err = decodeField(name, value, &in.IsInternational)
		}
		if err != nil {
			return in, err
		}
		in.Mark(name)
	}

	return in, nil
}

func conferenceItem(c *domain.ConferenceWithCount) Item {
	return Item{ID: c.ID, Fields: c.Conference.Fields(c.CommentCount)}
}
