package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/internal/messaging"
	"github.com/nurlyy/guestbook/internal/repository"
	"github.com/nurlyy/guestbook/pkg/logger"
	"github.com/nurlyy/guestbook/pkg/metrics"
	"github.com/nurlyy/guestbook/pkg/validator"
)

// CommentService представляет бизнес-логику для работы с комментариями
type CommentService struct {
	commentRepo    repository.CommentRepository
	conferenceRepo repository.ConferenceRepository
	cache          repository.CacheRepository
	producer       messaging.EventPublisher
	validator      *validator.CustomValidator
	metrics        *metrics.Metrics
	logger         logger.Logger
}

// NewCommentService создает новый экземпляр CommentService
func NewCommentService(
	commentRepo repository.CommentRepository,
	conferenceRepo repository.ConferenceRepository,
	cache repository.CacheRepository,
	producer messaging.EventPublisher,
	validator *validator.CustomValidator,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *CommentService {
	return &CommentService{
		commentRepo:    commentRepo,
		conferenceRepo: conferenceRepo,
		cache:          cache,
		producer:       producer,
		validator:      validator,
		metrics:        metrics,
		logger:         logger,
	}
}

// Create создает новый комментарий. Время создания выставляется здесь и
// не может прийти из запроса.
func (s *CommentService) Create(ctx context.Context, in domain.CommentInput) (*domain.Comment, error) {
	comment := domain.NewComment().Apply(in, true)

	if err := s.check(ctx, comment); err != nil {
		return nil, err
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		s.logger.Error("Failed to create comment", err)
		return nil, err
	}

	s.cacheComment(ctx, comment)
	s.invalidateCount(ctx, comment.ConferenceID)
	s.metrics.IncComment("create")
	s.publish(ctx, messaging.EventTypeCommentCreated, comment)

	s.logger.Info("Comment created", map[string]interface{}{
		"comment_id": comment.ID,
		"author":     comment.Author,
	})

	return comment, nil
}

// Get возвращает комментарий по ID; хранимые поля читаются через кэш
func (s *CommentService) Get(ctx context.Context, id int64) (*domain.Comment, error) {
	comment, err := s.cache.GetComment(ctx, id)
	if err == nil {
		s.metrics.IncCache(true)
		return comment, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.Warn("Failed to read comment from cache", map[string]interface{}{
			"comment_id": id,
			"error":      err.Error(),
		})
	}
	s.metrics.IncCache(false)

	comment, err = s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheComment(ctx, comment)
	return comment, nil
}

// List возвращает страницу комментариев и их общее количество
func (s *CommentService) List(ctx context.Context, opts domain.CommentFilterOptions) ([]*domain.Comment, int, error) {
	filter := repository.CommentFilter{
		ConferenceID: opts.ConferenceID,
		Limit:        opts.PageSize,
		Offset:       domain.Offset(opts.Page, opts.PageSize),
	}

	comments, err := s.commentRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.commentRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

// ListByConference возвращает страницу комментариев конференции
func (s *CommentService) ListByConference(ctx context.Context, conferenceID int64, page, pageSize int) ([]*domain.Comment, int, error) {
	exists, err := s.conferenceRepo.Exists(ctx, conferenceID)
	if err != nil {
		return nil, 0, err
	}
	if !exists {
		return nil, 0, domain.ErrConferenceNotFound
	}

	return s.List(ctx, domain.CommentFilterOptions{
		ConferenceID: &conferenceID,
		Page:         page,
		PageSize:     pageSize,
	})
}

// Replace заменяет все записываемые поля комментария (PUT)
func (s *CommentService) Replace(ctx context.Context, id int64, in domain.CommentInput) (*domain.Comment, error) {
	return s.update(ctx, id, in, true)
}

// Patch обновляет только переданные поля комментария (PATCH)
func (s *CommentService) Patch(ctx context.Context, id int64, in domain.CommentInput) (*domain.Comment, error) {
	return s.update(ctx, id, in, false)
}

func (s *CommentService) update(ctx context.Context, id int64, in domain.CommentInput, replace bool) (*domain.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousConference := comment.ConferenceID

	comment.Apply(in, replace)
	if err := s.check(ctx, comment); err != nil {
		return nil, err
	}

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		s.logger.Error("Failed to update comment", err, map[string]interface{}{
			"comment_id": id,
		})
		return nil, err
	}

	s.cacheComment(ctx, comment)
	s.invalidateCount(ctx, previousConference)
	if !sameConference(previousConference, comment.ConferenceID) {
		s.invalidateCount(ctx, comment.ConferenceID)
	}
	s.metrics.IncComment("update")
	s.publish(ctx, messaging.EventTypeCommentUpdated, comment)

	return comment, nil
}

// Delete удаляет комментарий
func (s *CommentService) Delete(ctx context.Context, id int64) error {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.commentRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete comment", err, map[string]interface{}{
			"comment_id": id,
		})
		return err
	}

	if err := s.cache.InvalidateComment(ctx, id); err != nil {
		s.logger.Warn("Failed to invalidate comment cache", map[string]interface{}{
			"comment_id": id,
			"error":      err.Error(),
		})
	}
	s.invalidateCount(ctx, comment.ConferenceID)
	s.metrics.IncComment("delete")
	s.publish(ctx, messaging.EventTypeCommentDeleted, comment)

	s.logger.Info("Comment deleted", map[string]interface{}{
		"comment_id": id,
	})

	return nil
}

// check проверяет правила полей и ссылку на конференцию
func (s *CommentService) check(ctx context.Context, comment *domain.Comment) error {
	if err := s.validator.ValidateFields(comment.ValidationRules()); err != nil {
		return err
	}

	if comment.ConferenceID == nil {
		return nil
	}

	exists, err := s.conferenceRepo.Exists(ctx, *comment.ConferenceID)
	if err != nil {
		return fmt.Errorf("failed to resolve conference: %w", err)
	}
	if !exists {
		return domain.ErrInvalidConferenceRef
	}
	return nil
}

func (s *CommentService) cacheComment(ctx context.Context, comment *domain.Comment) {
	if err := s.cache.CacheComment(ctx, comment); err != nil {
		s.logger.Warn("Failed to cache comment", map[string]interface{}{
			"comment_id": comment.ID,
			"error":      err.Error(),
		})
	}
}

func (s *CommentService) invalidateCount(ctx context.Context, conferenceID *int64) {
	if conferenceID == nil {
		return
	}
	if err := s.cache.InvalidateCommentCount(ctx, *conferenceID); err != nil {
		s.logger.Warn("Failed to invalidate comment count", map[string]interface{}{
			"conference_id": *conferenceID,
			"error":         err.Error(),
		})
	}
}

// publish отправляет событие; ошибка доставки не прерывает операцию
func (s *CommentService) publish(ctx context.Context, eventType string, comment *domain.Comment) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishCommentEvent(ctx, eventType, comment); err != nil {
		s.logger.Warn("Failed to publish comment event", map[string]interface{}{
			"event":      eventType,
			"comment_id": comment.ID,
			"error":      err.Error(),
		})
	}
}

func sameConference(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
