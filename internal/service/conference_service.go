package service

import (
	"context"
	"errors"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/internal/repository"
	"github.com/nurlyy/guestbook/pkg/logger"
	"github.com/nurlyy/guestbook/pkg/metrics"
	"github.com/nurlyy/guestbook/pkg/validator"
)

// ConferenceService представляет бизнес-логику для работы с конференциями
type ConferenceService struct {
	conferenceRepo repository.ConferenceRepository
	commentRepo    repository.CommentRepository
	cache          repository.CacheRepository
	validator      *validator.CustomValidator
	metrics        *metrics.Metrics
	logger         logger.Logger
}

// NewConferenceService создает новый экземпляр ConferenceService
func NewConferenceService(
	conferenceRepo repository.ConferenceRepository,
	commentRepo repository.CommentRepository,
	cache repository.CacheRepository,
	validator *validator.CustomValidator,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *ConferenceService {
	return &ConferenceService{
		conferenceRepo: conferenceRepo,
		commentRepo:    commentRepo,
		cache:          cache,
		validator:      validator,
		metrics:        metrics,
		logger:         logger,
	}
}

// Create создает новую конференцию
func (s *ConferenceService) Create(ctx context.Context, in domain.ConferenceInput) (*domain.ConferenceWithCount, error) {
	conference := domain.NewConference().Apply(in, true)

	if err := s.validator.ValidateFields(conference.ValidationRules()); err != nil {
		return nil, err
	}

	if err := s.conferenceRepo.Create(ctx, conference); err != nil {
		return nil, err
	}

	s.logger.Info("Conference created", map[string]interface{}{
		"conference_id": conference.ID,
		"conference":    conference.String(),
	})

	return &domain.ConferenceWithCount{Conference: *conference}, nil
}

// Get возвращает конференцию вместе с числом комментариев
func (s *ConferenceService) Get(ctx context.Context, id int64) (*domain.ConferenceWithCount, error) {
	conference, err := s.conferenceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.CommentCount(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.ConferenceWithCount{Conference: *conference, CommentCount: count}, nil
}

// List возвращает страницу конференций и их общее количество
func (s *ConferenceService) List(ctx context.Context, page, pageSize int) ([]*domain.ConferenceWithCount, int, error) {
	conferences, err := s.conferenceRepo.List(ctx, pageSize, domain.Offset(page, pageSize))
	if err != nil {
		return nil, 0, err
	}

	total, err := s.conferenceRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*domain.ConferenceWithCount, 0, len(conferences))
	for _, conference := range conferences {
		count, err := s.CommentCount(ctx, conference.ID)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, &domain.ConferenceWithCount{Conference: *conference, CommentCount: count})
	}

	return result, total, nil
}

// All возвращает все конференции (для выпадающих списков админки)
func (s *ConferenceService) All(ctx context.Context) ([]*domain.ConferenceWithCount, error) {
	total, err := s.conferenceRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return []*domain.ConferenceWithCount{}, nil
	}

	conferences, _, err := s.List(ctx, 1, total)
	return conferences, err
}

// Replace заменяет записываемые поля конференции (PUT)
func (s *ConferenceService) Replace(ctx context.Context, id int64, in domain.ConferenceInput) (*domain.ConferenceWithCount, error) {
	return s.update(ctx, id, in, true)
}

// Patch обновляет переданные поля конференции (PATCH)
func (s *ConferenceService) Patch(ctx context.Context, id int64, in domain.ConferenceInput) (*domain.ConferenceWithCount, error) {
	return s.update(ctx, id, in, false)
}

func (s *ConferenceService) update(ctx context.Context, id int64, in domain.ConferenceInput, replace bool) (*domain.ConferenceWithCount, error) {
	conference, err := s.conferenceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	conference.Apply(in, replace)
	if err := s.validator.ValidateFields(conference.ValidationRules()); err != nil {
		return nil, err
	}

	if err := s.conferenceRepo.Update(ctx, conference); err != nil {
		return nil, err
	}

	count, err := s.CommentCount(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.ConferenceWithCount{Conference: *conference, CommentCount: count}, nil
}

// Delete удаляет конференцию. Комментарии остаются без конференции,
// поэтому их записи в кэше сбрасываются.
func (s *ConferenceService) Delete(ctx context.Context, id int64) error {
	count, err := s.conferenceRepo.CountComments(ctx, id)
	if err != nil {
		return err
	}

	var orphaned []*domain.Comment
	if count > 0 {
		orphaned, err = s.commentRepo.List(ctx, repository.CommentFilter{ConferenceID: &id, Limit: count})
		if err != nil {
			return err
		}
	}

	if err := s.conferenceRepo.Delete(ctx, id); err != nil {
		return err
	}

	for _, comment := range orphaned {
		if err := s.cache.InvalidateComment(ctx, comment.ID); err != nil {
			s.logger.Warn("Failed to invalidate comment cache", map[string]interface{}{
				"comment_id": comment.ID,
				"error":      err.Error(),
			})
		}
	}
	if err := s.cache.InvalidateCommentCount(ctx, id); err != nil {
		s.logger.Warn("Failed to invalidate comment count", map[string]interface{}{
			"conference_id": id,
			"error":         err.Error(),
		})
	}

	s.logger.Info("Conference deleted", map[string]interface{}{
		"conference_id": id,
		"orphaned":      len(orphaned),
	})

	return nil
}

// CommentCount возвращает число комментариев конференции, сначала из кэша
func (s *ConferenceService) CommentCount(ctx context.Context, id int64) (int, error) {
	count, err := s.cache.GetCommentCount(ctx, id)
	if err == nil {
		s.metrics.IncCache(true)
		return count, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.Warn("Failed to read comment count from cache", map[string]interface{}{
			"conference_id": id,
			"error":         err.Error(),
		})
	}
	s.metrics.IncCache(false)

	count, err = s.conferenceRepo.CountComments(ctx, id)
	if err != nil {
		return 0, err
	}

	if err := s.cache.CacheCommentCount(ctx, id, count); err != nil {
		s.logger.Warn("Failed to cache comment count", map[string]interface{}{
			"conference_id": id,
			"error":         err.Error(),
		})
	}

	return count, nil
}
