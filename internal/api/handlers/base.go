package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nurlyy/guestbook/internal/api/middleware"
	"github.com/nurlyy/guestbook/internal/domain"
	apperrors "github.com/nurlyy/guestbook/pkg/errors"
	"github.com/nurlyy/guestbook/pkg/logger"
	"github.com/nurlyy/guestbook/pkg/validator"
)

// ErrMalformedBody возвращается, если тело запроса не разбирается
var ErrMalformedBody = errors.New("malformed request body")

// StandardResponseData представляет стандартную структуру ответа API
type StandardResponseData struct {
	Success      bool        `json:"success"`
	Data         interface{} `json:"data,omitempty"`
	ErrorMessage string      `json:"error,omitempty"`
	ErrorCode    string      `json:"error_code,omitempty"`
	Meta         interface{} `json:"meta,omitempty"`
}

// ErrorResponse представляет структуру ответа с ошибкой
type ErrorResponse struct {
	Success      bool                        `json:"success"`
	ErrorMessage string                      `json:"error"`
	ErrorCode    string                      `json:"error_code,omitempty"`
	Errors       []validator.ValidationError `json:"errors,omitempty"`
}

// PaginationMeta представляет метаданные для постраничной навигации
type PaginationMeta struct {
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
}

// BaseConfig - общие настройки обработчиков
type BaseConfig struct {
	// BasePath - префикс, под которым смонтировано приложение
	BasePath           string
	Locale             string
	CommentsPerPage    int
	ConferencesPerPage int
}

// BaseHandler содержит общие методы для всех обработчиков
type BaseHandler struct {
	Logger    logger.Logger
	Validator *validator.CustomValidator
	Config    BaseConfig

	encoder encoder
	now     func() time.Time
}

// NewBaseHandler создает новый экземпляр BaseHandler
func NewBaseHandler(logger logger.Logger, validator *validator.CustomValidator, cfg BaseConfig) BaseHandler {
	if cfg.Locale == "" {
		cfg.Locale = domain.LocaleFR
	}
	if cfg.CommentsPerPage <= 0 {
		cfg.CommentsPerPage = 2
	}
	if cfg.ConferencesPerPage <= 0 {
		cfg.ConferencesPerPage = 30
	}

	return BaseHandler{
		Logger:    logger,
		Validator: validator,
		Config:    cfg,
		encoder:   encoder{prefix: strings.TrimSuffix(cfg.BasePath, "/") + "/api"},
		now:       time.Now,
	}
}

// Negotiate выбирает формат ответа; при неподдерживаемом Accept отвечает 406
func (h *BaseHandler) Negotiate(w http.ResponseWriter, r *http.Request) (Format, bool) {
	accept := r.Header.Get("Accept")
	f, ok := NegotiateFormat(accept)
	if !ok {
		h.writeEnvelopeError(w, apperrors.NotAcceptable(accept))
		return "", false
	}
	return f, true
}

// Respond отправляет стандартный ответ с указанным кодом статуса
func (h *BaseHandler) Respond(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	var buf bytes.Buffer
	if data != nil {
		if err := json.NewEncoder(&buf).Encode(data); err != nil {
			h.Logger.Error("Failed to encode response", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
}

// RespondWithSuccess отправляет успешный ответ
func (h *BaseHandler) RespondWithSuccess(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	h.Respond(w, r, statusCode, StandardResponseData{
		Success: true,
		Data:    data,
	})
}

// RespondWithPagination отправляет ответ с пагинацией
func (h *BaseHandler) RespondWithPagination(w http.ResponseWriter, r *http.Request, paged domain.PagedResponse) {
	h.Respond(w, r, http.StatusOK, StandardResponseData{
		Success: true,
		Data:    paged.Items,
		Meta: PaginationMeta{
			TotalItems:  paged.TotalItems,
			TotalPages:  paged.TotalPages,
			CurrentPage: paged.Page,
			PageSize:    paged.PageSize,
		},
	})
}

// RespondItem отправляет элемент ресурса в согласованном формате
func (h *BaseHandler) RespondItem(w http.ResponseWriter, r *http.Request, f Format, statusCode int, res Resource, it Item) {
	var buf bytes.Buffer
	if err := h.encoder.EncodeItem(&buf, f, res, it); err != nil {
		h.RespondWithError(w, r, f, fmt.Errorf("failed to encode %s: %w", res.Type, err))
		return
	}

	w.Header().Set("Content-Type", f.ContentType())
	if statusCode == http.StatusCreated {
		w.Header().Set("Location", h.encoder.iri(res.Collection, it.ID))
	}
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
}

// RespondPage отправляет страницу коллекции в согласованном формате
func (h *BaseHandler) RespondPage(w http.ResponseWriter, r *http.Request, f Format, res Resource, p Page) {
	if p.Path == "" {
		p.Path = r.URL.Path
	}

	var buf bytes.Buffer
	if err := h.encoder.EncodePage(&buf, f, res, p); err != nil {
		h.RespondWithError(w, r, f, fmt.Errorf("failed to encode %s collection: %w", res.Type, err))
		return
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// RespondWithError преобразует ошибку в ответ. JSON-LD клиенты получают
// hydra:Error или ConstraintViolationList, остальные - стандартный конверт.
func (h *BaseHandler) RespondWithError(w http.ResponseWriter, r *http.Request, f Format, err error) {
	appErr := toAppError(err)

	if appErr.StatusCode >= http.StatusInternalServerError {
		h.Logger.Error("Request failed", err, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
	}

	if f == FormatJSONLD {
		h.writeHydraError(w, appErr)
		return
	}
	h.writeEnvelopeError(w, appErr)
}

func (h *BaseHandler) writeEnvelopeError(w http.ResponseWriter, appErr *apperrors.AppError) {
	violations, _ := appErr.Data.([]validator.ValidationError)
	h.Respond(w, nil, appErr.StatusCode, ErrorResponse{
		Success:      false,
		ErrorMessage: appErr.Message,
		ErrorCode:    appErr.Code,
		Errors:       violations,
	})
}

func (h *BaseHandler) writeHydraError(w http.ResponseWriter, appErr *apperrors.AppError) {
	var body object

	if violations, ok := appErr.Data.([]validator.ValidationError); ok {
		list := make([]object, 0, len(violations))
		lines := make([]string, 0, len(violations))
		for _, v := range violations {
			list = append(list, object{{"propertyPath", v.Field}, {"message", v.Message}})
			lines = append(lines, v.Field+": "+v.Message)
		}
		body = object{
			{"@context", h.encoder.prefix + "/contexts/ConstraintViolationList"},
			{"@type", "ConstraintViolationList"},
			{"hydra:title", "An error occurred"},
			{"hydra:description", strings.Join(lines, "\n")},
			{"violations", list},
		}
	} else {
		body = object{
			{"@context", h.encoder.prefix + "/contexts/Error"},
			{"@type", "hydra:Error"},
			{"hydra:title", "An error occurred"},
			{"hydra:description", appErr.Message},
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		h.writeEnvelopeError(w, appErr)
		return
	}
	w.Header().Set("Content-Type", FormatJSONLD.ContentType())
	w.WriteHeader(appErr.StatusCode)
	_, _ = w.Write(append(data, '\n'))
}

// toAppError сопоставляет доменные ошибки с HTTP-статусами
func toAppError(err error) *apperrors.AppError {
	var ve validator.ValidationErrors
	var appErr *apperrors.AppError

	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.As(err, &ve):
		return apperrors.ValidationError(ve.Errors)
	case errors.Is(err, ErrMalformedBody):
		return apperrors.BadRequest("Malformed request body")
	case errors.Is(err, domain.ErrInvalidConferenceRef):
		return apperrors.BadRequest("Invalid conference reference")
	case errors.Is(err, domain.ErrInvalidInput):
		return apperrors.BadRequest(err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return apperrors.NewAppError(err, http.StatusNotFound, "Not Found", "not_found", nil)
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return apperrors.NewAppError(err, http.StatusConflict, "Email already exists", "email_exists", nil)
	case errors.Is(err, domain.ErrConflict):
		return apperrors.NewAppError(err, http.StatusConflict, "Conflict", "conflict", nil)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return apperrors.Unauthorized("Invalid credentials")
	case errors.Is(err, domain.ErrUnauthorized):
		return apperrors.Unauthorized("")
	case errors.Is(err, domain.ErrForbidden):
		return apperrors.Forbidden("")
	default:
		return apperrors.InternalServer(err)
	}
}

// ParseJSON разбирает JSON из тела запроса
func (h *BaseHandler) ParseJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return nil
}

// decodeWritable читает объект из тела запроса и отбрасывает поля вне группы записи
func (h *BaseHandler) decodeWritable(r *http.Request, groups domain.FieldGroups) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := h.ParseJSON(r, &raw); err != nil {
		return nil, err
	}

	for name := range raw {
		if !groups.CanWrite(name) {
			h.Logger.Debug("Ignoring non-writable field", map[string]interface{}{
				"field": name,
				"path":  r.URL.Path,
			})
			delete(raw, name)
		}
	}
	return raw, nil
}

// decodeField разбирает значение одного поля тела
func decodeField(name string, raw json.RawMessage, dst interface{}) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: field %q: %v", ErrMalformedBody, name, err)
	}
	return nil
}

// ParseIRI извлекает ID из IRI вида /api/<collection>/<id>
func (h *BaseHandler) ParseIRI(collection, iri string) (int64, error) {
	prefix := h.encoder.prefix + "/" + collection + "/"
	if !strings.HasPrefix(iri, prefix) {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidConferenceRef, iri)
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(iri, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidConferenceRef, iri)
	}
	return id, nil
}

// conferenceRef разбирает ссылку на конференцию: IRI, число или null
func (h *BaseHandler) conferenceRef(raw json.RawMessage) (*int64, error) {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: field \"conference\": %v", ErrMalformedBody, err)
	}

	switch ref := v.(type) {
	case nil:
		return nil, nil
	case string:
		id, err := h.ParseIRI(conferenceResource.Collection, ref)
		if err != nil {
			return nil, err
		}
		return &id, nil
	case json.Number:
		id, err := ref.Int64()
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidConferenceRef, ref)
		}
		return &id, nil
	default:
		return nil, domain.ErrInvalidConferenceRef
	}
}

// GetPage возвращает номер страницы из ?page=N (с 1)
func (h *BaseHandler) GetPage(r *http.Request) int {
	if pageParam := r.URL.Query().Get("page"); pageParam != "" {
		if parsed, err := strconv.Atoi(pageParam); err == nil && parsed > 0 {
			return parsed
		}
	}
	return 1
}

// GetPaginationParams извлекает параметры пагинации из запроса
func (h *BaseHandler) GetPaginationParams(r *http.Request) (int, int) {
	pageSize := 20
	if pageSizeParam := r.URL.Query().Get("page_size"); pageSizeParam != "" {
		if parsed, err := strconv.Atoi(pageSizeParam); err == nil && parsed > 0 && parsed <= 100 {
			pageSize = parsed
		}
	}
	return h.GetPage(r), pageSize
}

// GetIDParam извлекает числовой ID из URL; нечисловой ID дает 404
func (h *BaseHandler) GetIDParam(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", domain.ErrNotFound, chi.URLParam(r, key))
	}
	return id, nil
}

// GetPrincipal возвращает аутентифицированного пользователя запроса
func (h *BaseHandler) GetPrincipal(r *http.Request) (middleware.Principal, error) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return middleware.Principal{}, domain.ErrUnauthorized
	}
	return principal, nil
}
