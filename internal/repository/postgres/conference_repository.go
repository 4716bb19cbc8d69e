package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/internal/repository"
	"github.com/nurlyy/guestbook/pkg/logger"
)

const conferenceColumns = `id, city, year, is_international, created_at`

// ConferenceRepository реализует репозиторий конференций с использованием PostgreSQL
type ConferenceRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

// NewConferenceRepository создает новый экземпляр ConferenceRepository
func NewConferenceRepository(db *sqlx.DB, logger logger.Logger) *ConferenceRepository {
	return &ConferenceRepository{
		db:     db,
		logger: logger,
	}
}

// Create создает новую конференцию
func (r *ConferenceRepository) Create(ctx context.Context, conference *domain.Conference) error {
	query := `
		INSERT INTO conferences (city, year, is_international, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRowxContext(ctx, query,
		conference.City,
		conference.Year,
		conference.IsInternational,
		conference.CreatedAt,
	).Scan(&conference.ID)
	if err != nil {
		r.logger.Error("Failed to create conference", err, map[string]interface{}{
			"city": conference.City,
			"year": conference.Year,
		})
		return fmt.Errorf("failed to create conference: %w", err)
	}

	return nil
}

// GetByID возвращает конференцию по ID
func (r *ConferenceRepository) GetByID(ctx context.Context, id int64) (*domain.Conference, error) {
	var conference domain.Conference
	err := r.db.GetContext(ctx, &conference, `SELECT `+conferenceColumns+` FROM conferences WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConferenceNotFound
		}
		r.logger.Error("Failed to get conference by ID", err, map[string]interface{}{
			"id": id,
		})
		return nil, fmt.Errorf("failed to get conference by ID: %w", err)
	}

	return &conference, nil
}

// Exists проверяет наличие конференции
func (r *ConferenceRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM conferences WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check conference: %w", err)
	}
	return exists, nil
}

// Update обновляет данные конференции
func (r *ConferenceRepository) Update(ctx context.Context, conference *domain.Conference) error {
	query := `
		UPDATE conferences
		SET city = $1, year = $2, is_international = $3
		WHERE id = $4
	`

	result, err := r.db.ExecContext(ctx, query,
		conference.City,
		conference.Year,
		conference.IsInternational,
		conference.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update conference", err, map[string]interface{}{
			"id": conference.ID,
		})
		return fmt.Errorf("failed to update conference: %w", err)
	}

	return expectAffected(result, domain.ErrConferenceNotFound)
}

// Delete удаляет конференцию
func (r *ConferenceRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM conferences WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete conference", err, map[string]interface{}{
			"id": id,
		})
		return fmt.Errorf("failed to delete conference: %w", err)
	}

	return expectAffected(result, domain.ErrConferenceNotFound)
}

// List возвращает страницу конференций, последние по году первыми
func (r *ConferenceRepository) List(ctx context.Context, limit, offset int) ([]*domain.Conference, error) {
	query := `SELECT ` + conferenceColumns + `
		FROM conferences
		ORDER BY year DESC, city ASC, id ASC
		LIMIT $1 OFFSET $2`

	conferences := []*domain.Conference{}
	if err := r.db.SelectContext(ctx, &conferences, query, limit, offset); err != nil {
		r.logger.Error("Failed to list conferences", err)
		return nil, fmt.Errorf("failed to list conferences: %w", err)
	}

	return conferences, nil
}

// Count возвращает количество конференций
func (r *ConferenceRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM conferences`); err != nil {
		r.logger.Error("Failed to count conferences", err)
		return 0, fmt.Errorf("failed to count conferences: %w", err)
	}
	return count, nil
}

// CountComments возвращает число комментариев конференции
func (r *ConferenceRepository) CountComments(ctx context.Context, id int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM comments WHERE conference_id = $1`, id); err != nil {
		r.logger.Error("Failed to count conference comments", err, map[string]interface{}{
			"conference_id": id,
		})
		return 0, fmt.Errorf("failed to count conference comments: %w", err)
	}
	return count, nil
}

// CommentCounts возвращает число комментариев по всем конференциям
func (r *ConferenceRepository) CommentCounts(ctx context.Context) ([]repository.ConferenceCount, error) {
	query := `
		SELECT f.id AS conference_id, f.city, f.year, COUNT(c.id) AS count
		FROM conferences f
		LEFT JOIN comments c ON c.conference_id = f.id
		GROUP BY f.id, f.city, f.year
		ORDER BY f.id
	`

	counts := []repository.ConferenceCount{}
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		r.logger.Error("Failed to count comments by conference", err)
		return nil, fmt.Errorf("failed to count comments by conference: %w", err)
	}
	return counts, nil
}
