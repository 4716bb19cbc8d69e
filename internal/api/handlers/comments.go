package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/nurlyy/guestbook/internal/domain"
)

// CommentService - операции над комментариями, нужные обработчику
type CommentService interface {
	Create(ctx context.Context, in domain.CommentInput) (*domain.Comment, error)
	Get(ctx context.Context, id int64) (*domain.Comment, error)
	List(ctx context.Context, opts domain.CommentFilterOptions) ([]*domain.Comment, int, error)
	ListByConference(ctx context.Context, conferenceID int64, page, pageSize int) ([]*domain.Comment, int, error)
	Replace(ctx context.Context, id int64, in domain.CommentInput) (*domain.Comment, error)
	Patch(ctx context.Context, id int64, in domain.CommentInput) (*domain.Comment, error)
	Delete(ctx context.Context, id int64) error
}

// CommentHandler обрабатывает запросы, связанные с комментариями
type CommentHandler struct {
	BaseHandler
	commentService CommentService
}

// NewCommentHandler создает новый экземпляр CommentHandler
func NewCommentHandler(base BaseHandler, commentService CommentService) *CommentHandler {
	return &CommentHandler{
		BaseHandler:    base,
		commentService: commentService,
	}
}

// ListComments возвращает страницу всех комментариев
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	f, ok := h.Negotiate(w, r)
	if !ok {
		return
	}

	opts := domain.CommentFilterOptions{
		Page:     h.GetPage(r),
		PageSize: h.Config.CommentsPerPage,
	}

	// ?conference= принимает IRI или ID
	if ref := r.URL.Query().Get("conference"); ref != "" {
		id, err := strconv.ParseInt(ref, 10, 64)
		if err != nil {
			id, err = h.ParseIRI(conferenceResource.Collection, ref)
		}
		if err != nil || id <= 0 {
			h.RespondWithError(w, r, f, domain.ErrInvalidConferenceRef)
			return
		}
		opts.ConferenceID = &id
	}

	comments, total, err := h.commentService.List(r.Context(), opts)
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	h.RespondPage(w, r, f, commentResource, h.commentPage(comments, total, opts.Page))
}

// ListConferenceComments возвращает комментарии конференции
func (h *CommentHandler) ListConferenceComments(w http.ResponseWriter, r *http.Request) {
	f, ok := h.Negotiate(w, r)
	if !ok {
		return
	}

	conferenceID, err := h.GetIDParam(r, "id")
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	page := h.GetPage(r)
	comments, total, err := h.commentService.ListByConference(r.Context(), conferenceID, page, h.Config.CommentsPerPage)
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	h.RespondPage(w, r, f, commentResource, h.commentPage(comments, total, page))
}

// CreateComment создает комментарий; поля вне группы записи игнорируются
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	f, ok := h.Negotiate(w, r)
	if !ok {
		return
	}

	in, err := h.commentInput(r)
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	comment, err := h.commentService.Create(r.Context(), in)
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	h.RespondItem(w, r, f, http.StatusCreated, commentResource, h.commentItem(comment))
}

// GetComment возвращает комментарий по ID
func (h *CommentHandler) GetComment(w http.ResponseWriter, r *http.Request) {
	f, ok := h.Negotiate(w, r)
	if !ok {
		return
	}

	id, err := h.GetIDParam(r, "id")
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	comment, err := h.commentService.Get(r.Context(), id)
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	h.RespondItem(w, r, f, http.StatusOK, commentResource, h.commentItem(comment))
}

// ReplaceComment заменяет все записываемые поля комментария (PUT)
func (h *CommentHandler) ReplaceComment(w http.ResponseWriter, r *http.Request) {
	h.updateComment(w, r, h.commentService.Replace)
}

// PatchComment обновляет только переданные поля (PATCH)
func (h *CommentHandler) PatchComment(w http.ResponseWriter, r *http.Request) {
	h.updateComment(w, r, h.commentService.Patch)
}

func (h *CommentHandler) updateComment(
	w http.ResponseWriter,
	r *http.Request,
	apply func(context.Context, int64, domain.CommentInput) (*domain.Comment, error),
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

	in, err := h.commentInput(r)
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	comment, err := apply(r.Context(), id, in)
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	h.RespondItem(w, r, f, http.StatusOK, commentResource, h.commentItem(comment))
}

// DeleteComment удаляет комментарий
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	f, ok := h.Negotiate(w, r)
	if !ok {
		return
	}

	id, err := h.GetIDParam(r, "id")
	if err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	if err := h.commentService.Delete(r.Context(), id); err != nil {
		h.RespondWithError(w, r, f, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// commentInput разбирает тело запроса в поля группы записи
func (h *CommentHandler) commentInput(r *http.Request) (domain.CommentInput, error) {
	var in domain.CommentInput

	raw, err := h.decodeWritable(r, domain.CommentFieldGroups)
	if err != nil {
		return in, err
	}

	for name, value := range raw {
		switch name {
		case "author":
			err = decodeField(name, value, &in.Author)
		case "text":
			err = decodeField(name, value, &in.Text)
		case "email":
			err = decodeField(name, value, &in.Email)
		case "note":
			var note *int64
			if err = decodeField(name, value, &note); err == nil && note != nil {
				in.Note = domain.NoteFromInt(*note)
			}
		case "conference":
			in.ConferenceID, err = h.conferenceRef(value)
		}
		if err != nil {
			return in, err
		}
		in.Mark(name)
	}

	return in, nil
}

func (h *CommentHandler) commentItem(c *domain.Comment) Item {
	return Item{ID: c.ID, Fields: c.Fields(h.now(), h.Config.Locale)}
}

func (h *CommentHandler) commentPage(comments []*domain.Comment, total, page int) Page {
	items := make([]Item, 0, len(comments))
	for _, c := range comments {
		items = append(items, h.commentItem(c))
	}
	return Page{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: h.Config.CommentsPerPage,
	}
}
