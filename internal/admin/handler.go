// Package admin реализует HTML-панель администратора: конференции и комментарии.
package admin

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nurlyy/guestbook/internal/api/middleware"
	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/pkg/logger"
	"github.com/nurlyy/guestbook/pkg/validator"
)

//go:embed templates/*.html
var templateFS embed.FS

// Страницы панели; каждая рендерится внутри layout.html
const (
	pageDashboard   = "dashboard"
	pageLogin       = "login"
	pageConferences = "conferences"
	pageComments    = "comments"
)

// Authenticator определяет пользователя по токену запроса
type Authenticator interface {
	Identify(r *http.Request) (middleware.Principal, error)
}

// LoginService выдает токены по email и паролю
type LoginService interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
}

// ConferenceService - операции над конференциями, доступные из панели
type ConferenceService interface {
	All(ctx context.Context) ([]*domain.ConferenceWithCount, error)
	Create(ctx context.Context, in domain.ConferenceInput) (*domain.ConferenceWithCount, error)
	Delete(ctx context.Context, id int64) error
}

// CommentService - операции над комментариями, доступные из панели
type CommentService interface {
	List(ctx context.Context, opts domain.CommentFilterOptions) ([]*domain.Comment, int, error)
	Delete(ctx context.Context, id int64) error
}

// Config содержит настройки панели
type Config struct {
	// Prefix - полный путь, под которым смонтирована панель, например /admin
	Prefix       string
	Locale       string
	PageSize     int
	SecureCookie bool
}

// Handler - HTTP-обработчик панели администратора
type Handler struct {
	router      chi.Router
	pages       map[string]*template.Template
	dashboard   Dashboard
	auth        Authenticator
	users       LoginService
	conferences ConferenceService
	comments    CommentService
	logger      logger.Logger
	config      Config
}

type conferenceForm struct {
	City            string
	Year            string
	IsInternational bool
}

type commentRow struct {
	ID         int64
	Author     string
	Email      string
	ShortText  string
	Note       string
	Conference string
	Age        string
}

type pager struct {
	Page int
	Last int
	Prev int
	Next int
}

type pageData struct {
	Dashboard  Dashboard
	Prefix     string
	Heading    string
	User       *middleware.Principal
	Error      string
	Violations []validator.ValidationError

	Email       string
	Conferences []*domain.ConferenceWithCount
	Form        conferenceForm
	Comments    []commentRow
	Pager       *pager
}

// NewHandler создает панель и разбирает встроенные шаблоны
func NewHandler(
	cfg Config,
	auth Authenticator,
	users LoginService,
	conferences ConferenceService,
	comments CommentService,
	logger logger.Logger,
) (*Handler, error) {
	cfg.Prefix = strings.TrimSuffix(cfg.Prefix, "/")
	if cfg.Prefix == "" {
		cfg.Prefix = "/admin"
	}
	if cfg.Locale == "" {
		cfg.Locale = domain.LocaleFR
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}

	pages := make(map[string]*template.Template)
	for _, name := range []string{pageDashboard, pageLogin, pageConferences, pageComments} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		pages[name] = tmpl
	}

	h := &Handler{
		router:      chi.NewRouter(),
		pages:       pages,
		dashboard:   NewDashboard(cfg.Prefix),
		auth:        auth,
		users:       users,
		conferences: conferences,
		comments:    comments,
		logger:      logger,
		config:      cfg,
	}
	h.routes()

	return h, nil
}

func (h *Handler) routes() {
	h.router.Get("/login", h.handleLoginPage)
	h.router.Post("/login", h.handleLoginSubmit)
	h.router.Post("/logout", h.handleLogout)

	h.router.Group(func(r chi.Router) {
		r.Use(h.requireAdmin)

		r.Get("/", h.handleDashboard)
		r.Get("/conferences", h.handleConferences)
		r.Post("/conferences", h.handleConferenceCreate)
		r.Post("/conferences/{id}/delete", h.handleConferenceDelete)
		r.Get("/commentaires", h.handleComments)
		r.Post("/commentaires/{id}/delete", h.handleCommentDelete)
	})
}

// ServeHTTP реализует интерфейс http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// requireAdmin отправляет анонимов на страницу входа, остальным без ROLE_ADMIN отвечает 403
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := h.auth.Identify(r)
		if err != nil {
			http.Redirect(w, r, h.config.Prefix+"/login", http.StatusSeeOther)
			return
		}

		if !principal.HasRole(domain.RoleAdmin) {
			h.render(w, http.StatusForbidden, pageLogin, pageData{
				Heading: "Connexion",
				Email:   principal.Email,
				Error:   "Accès réservé aux administrateurs",
			})
			return
		}

		next.ServeHTTP(w, r.WithContext(middleware.WithPrincipal(r.Context(), principal)))
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, pageDashboard, h.data(r, pageData{}))
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, pageLogin, pageData{Heading: "Connexion"})
}

func (h *Handler) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, pageLogin, pageData{Heading: "Connexion", Error: "Formulaire invalide"})
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	resp, err := h.users.Login(r.Context(), domain.LoginRequest{
		Email:    email,
		Password: r.FormValue("password"),
	})
	if err != nil {
		status, message := http.StatusInternalServerError, "Erreur interne"
		var ve validator.ValidationErrors
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			status, message = http.StatusUnauthorized, "Identifiants invalides"
		case errors.As(err, &ve):
			status, message = http.StatusUnprocessableEntity, "Email et mot de passe obligatoires"
		default:
			h.logger.Error("Admin login failed", err)
		}
		h.render(w, status, pageLogin, pageData{Heading: "Connexion", Email: email, Error: message})
		return
	}

	if !domain.RoleGrants(resp.User.Role, domain.RoleAdmin) {
		h.logger.Warn("Admin login denied", map[string]interface{}{"user_id": resp.User.ID})
		h.render(w, http.StatusForbidden, pageLogin, pageData{
			Heading: "Connexion",
			Email:   email,
			Error:   "Accès réservé aux administrateurs",
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    resp.AccessToken,
		Path:     h.config.Prefix,
		Expires:  resp.ExpiresAt,
		HttpOnly: true,
		Secure:   h.config.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	h.logger.Info("Admin logged in", map[string]interface{}{"user_id": resp.User.ID})
	http.Redirect(w, r, h.config.Prefix, http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     h.config.Prefix,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	http.Redirect(w, r, h.config.Prefix+"/login", http.StatusSeeOther)
}

func (h *Handler) handleConferences(w http.ResponseWriter, r *http.Request) {
	h.renderConferences(w, r, http.StatusOK, pageData{})
}

func (h *Handler) renderConferences(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	conferences, err := h.conferences.All(r.Context())
	if err != nil {
		h.serverError(w, "Failed to list conferences", err)
		return
	}

	data.Heading = "Conférences"
	data.Conferences = conferences
	h.render(w, status, pageConferences, h.data(r, data))
}

func (h *Handler) handleConferenceCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderConferences(w, r, http.StatusBadRequest, pageData{Error: "Formulaire invalide"})
		return
	}

	form := conferenceForm{
		City:            strings.TrimSpace(r.FormValue("city")),
		Year:            strings.TrimSpace(r.FormValue("year")),
		IsInternational: r.FormValue("isInternational") != "",
	}

	in := domain.ConferenceInput{City: form.City, Year: form.Year, IsInternational: form.IsInternational}
	in.Mark("city")
	in.Mark("year")
	in.Mark("isInternational")

	if _, err := h.conferences.Create(r.Context(), in); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			h.renderConferences(w, r, http.StatusUnprocessableEntity, pageData{Form: form, Violations: ve.Errors})
			return
		}
		h.serverError(w, "Failed to create conference", err)
		return
	}

	http.Redirect(w, r, h.config.Prefix+"/conferences", http.StatusSeeOther)
}

func (h *Handler) handleConferenceDelete(w http.ResponseWriter, r *http.Request) {
	h.deleteAndRedirect(w, r, h.conferences.Delete, "/conferences")
}

func (h *Handler) handleComments(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	comments, total, err := h.comments.List(r.Context(), domain.CommentFilterOptions{
		Page:     page,
		PageSize: h.config.PageSize,
	})
	if err != nil {
		h.serverError(w, "Failed to list comments", err)
		return
	}

	conferences, err := h.conferences.All(r.Context())
	if err != nil {
		h.serverError(w, "Failed to list conferences", err)
		return
	}
	labels := make(map[int64]string, len(conferences))
	for _, c := range conferences {
		labels[c.ID] = c.String()
	}

	rows := make([]commentRow, 0, len(comments))
	for _, c := range comments {
		row := commentRow{
			ID:        c.ID,
			Author:    c.Author,
			Email:     c.Email,
			ShortText: c.ShortText(),
			Age:       c.AgeIn(h.config.Locale),
		}
		if c.Note != nil {
			row.Note = strconv.Itoa(int(*c.Note))
		}
		if c.ConferenceID != nil {
			row.Conference = labels[*c.ConferenceID]
		}
		rows = append(rows, row)
	}

	h.render(w, http.StatusOK, pageComments, h.data(r, pageData{
		Heading:  "Commentaires",
		Comments: rows,
		Pager:    newPager(page, total, h.config.PageSize),
	}))
}

func (h *Handler) handleCommentDelete(w http.ResponseWriter, r *http.Request) {
	h.deleteAndRedirect(w, r, h.comments.Delete, "/commentaires")
}

func (h *Handler) deleteAndRedirect(w http.ResponseWriter, r *http.Request, del func(context.Context, int64) error, back string) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return
	}

	if err := del(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.serverError(w, "Failed to delete resource", err)
		return
	}

	http.Redirect(w, r, h.config.Prefix+back, http.StatusSeeOther)
}

// newPager возвращает nil, если все помещается на одну страницу
func newPager(page, total, pageSize int) *pager {
	last := domain.TotalPages(total, pageSize)
	if last <= 1 && page <= 1 {
		return nil
	}

	p := &pager{Page: page, Last: last}
	if page > 1 {
		p.Prev = page - 1
	}
	if page < last {
		p.Next = page + 1
	}
	return p
}

func (h *Handler) data(r *http.Request, data pageData) pageData {
	if principal, ok := middleware.PrincipalFromContext(r.Context()); ok {
		data.User = &principal
	}
	return data
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, err)
	http.Error(w, "Erreur interne", http.StatusInternalServerError)
}

// render сначала пишет страницу в буфер, чтобы ошибка шаблона не оставила половину ответа
func (h *Handler) render(w http.ResponseWriter, status int, page string, data pageData) {
	data.Dashboard = h.dashboard
	data.Prefix = h.config.Prefix

	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.serverError(w, "Failed to render admin page", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
