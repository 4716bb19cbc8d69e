package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nurlyy/guestbook/internal/api/handlers"
	mw "github.com/nurlyy/guestbook/internal/api/middleware"
	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/pkg/auth"
	"github.com/nurlyy/guestbook/pkg/config"
	"github.com/nurlyy/guestbook/pkg/logger"
	"github.com/nurlyy/guestbook/pkg/metrics"
	"github.com/nurlyy/guestbook/pkg/validator"
)

// Services содержит все сервисы для обработчиков API
type Services struct {
	CommentService      handlers.CommentService
	ConferenceService   handlers.ConferenceService
	UserService         handlers.UserService
	NotificationService handlers.NotificationService
}

// Options - необязательные зависимости сервера
type Options struct {
	// Redis включает общий для экземпляров ограничитель запросов
	Redis   *redis.Client
	Metrics *metrics.Metrics
	// Admin монтируется в /admin
	Admin http.Handler
}

// Server представляет HTTP сервер API
type Server struct {
	router      chi.Router
	handler     http.Handler
	httpServer  *http.Server
	logger      logger.Logger
	config      *config.Config
	authMW      *mw.AuthMiddleware
	baseHandler handlers.BaseHandler
	services    *Services
	options     Options
}

// NewServer создает новый экземпляр сервера API
func NewServer(
	cfg *config.Config,
	logger logger.Logger,
	jwtManager *auth.JWTManager,
	validator *validator.CustomValidator,
	services *Services,
	options Options,
) *Server {
	baseHandler := handlers.NewBaseHandler(logger, validator, handlers.BaseConfig{
		BasePath:           cfg.HTTP.BasePath,
		Locale:             cfg.App.Locale,
		CommentsPerPage:    cfg.API.CommentsPerPage,
		ConferencesPerPage: cfg.API.ConferencesPerPage,
	})

	server := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		config:      cfg,
		authMW:      mw.NewAuthMiddleware(jwtManager, logger),
		baseHandler: baseHandler,
		services:    services,
		options:     options,
	}

	// Настраиваем маршрутизацию
	server.setupRoutes()

	server.handler = otelhttp.NewHandler(server.router, cfg.App.Name,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)

	server.httpServer = &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      server.handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return server
}

// setupRoutes настраивает маршруты API
func (s *Server) setupRoutes() {
	commentHandler := handlers.NewCommentHandler(s.baseHandler, s.services.CommentService)
	conferenceHandler := handlers.NewConferenceHandler(s.baseHandler, s.services.ConferenceService)
	authHandler := handlers.NewAuthHandler(s.baseHandler, s.services.UserService)
	notificationHandler := handlers.NewNotificationHandler(s.baseHandler, s.services.NotificationService)

	loggingMiddleware := mw.NewLoggingMiddleware(s.logger)

	rateLimiter := mw.NewRateLimiter(mw.RateLimiterConfig{
		Limit:    s.config.API.RateLimit,
		Period:   s.config.API.RateLimitPeriod,
		Strategy: mw.RateLimitIP,
	}, s.options.Redis, s.logger)

	if s.config.App.Context != nil {
		rateLimiter.StartCleanupTask(s.config.App.Context)
	}

	// Настраиваем middleware для всех запросов
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(loggingMiddleware.LogRequest)
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics(s.options.Metrics))
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Приложение может быть смонтировано под префиксом
	root := chi.Router(s.router)
	if basePath := strings.TrimSuffix(s.config.HTTP.BasePath, "/"); basePath != "" {
		root = chi.NewRouter()
		s.router.Mount(basePath, root)
	}

	root.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK"}`))
	})

	if s.options.Metrics != nil {
		root.Handle("/metrics", s.options.Metrics.Handler())
	}

	if s.options.Admin != nil {
		root.Mount("/admin", s.options.Admin)
	}

	requireUser := s.authMW.RequireRole(domain.RoleUser)
	requireAdmin := s.authMW.RequireRole(domain.RoleAdmin)

	root.Route("/api", func(r chi.Router) {
		r.Use(s.authMW.Optional)
		r.Use(rateLimiter.Limit)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
			r.With(s.authMW.Authenticate).Get("/me", authHandler.GetCurrentUser)
		})

		r.Route("/commentaires", func(r chi.Router) {
			r.With(requireAdmin).Get("/", commentHandler.ListComments)
			r.Post("/", commentHandler.CreateComment)
			r.With(requireUser).Get("/{id}", commentHandler.GetComment)
			r.Put("/{id}", commentHandler.ReplaceComment)
			r.Patch("/{id}", commentHandler.PatchComment)
			r.With(requireAdmin).Delete("/{id}", commentHandler.DeleteComment)
		})

		r.Route("/conferences", func(r chi.Router) {
			r.Get("/", conferenceHandler.ListConferences)
			r.With(requireAdmin).Post("/", conferenceHandler.CreateConference)
			r.Get("/{id}", conferenceHandler.GetConference)
			r.With(requireAdmin).Put("/{id}", conferenceHandler.ReplaceConference)
			r.With(requireAdmin).Patch("/{id}", conferenceHandler.PatchConference)
			r.With(requireAdmin).Delete("/{id}", conferenceHandler.DeleteConference)
			r.Get("/{id}/commentaires", commentHandler.ListConferenceComments)
		})

		r.With(requireAdmin).Get("/notifications", notificationHandler.ListNotifications)
	})
}

// ServeHTTP реализует интерфейс http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Start запускает HTTP сервер и блокируется до его остановки
func (s *Server) Start() error {
	s.logger.Info("Starting API server", map[string]interface{}{
		"port":      s.config.HTTP.Port,
		"base_path": s.config.HTTP.BasePath,
	})

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown дожидается завершения текущих запросов и останавливает сервер
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
