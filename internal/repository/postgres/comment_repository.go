package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nurlyy/guestbook/internal/domain"
	"github.com/nurlyy/guestbook/internal/repository"
	"github.com/nurlyy/guestbook/pkg/logger"
)

const commentColumns = `id, author, text, email, created_at, note, conference_id`

// CommentRepository реализует репозиторий комментариев с использованием PostgreSQL
type CommentRepository struct {
	db     *sqlx.DB
	logger logger.Logger
}

// NewCommentRepository создает новый экземпляр CommentRepository
func NewCommentRepository(db *sqlx.DB, logger logger.Logger) *CommentRepository {
	return &CommentRepository{
		db:     db,
		logger: logger,
	}
}

// Create создает новый комментарий
func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO comments (
			author, text, email, created_at, note, conference_id
		) VALUES (
			$1, $2, $3, $4, $5, $6
		) RETURNING id
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		comment.Author,
		comment.Text,
		comment.Email,
		comment.CreatedAt,
		comment.Note,
		comment.ConferenceID,
	).Scan(&comment.ID)

	if err != nil {
		r.logger.Error("Failed to create comment", err, map[string]interface{}{
			"author": comment.Author,
		})
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// GetByID возвращает комментарий по ID
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	var comment domain.Comment
	err := r.db.GetContext(ctx, &comment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCommentNotFound
		}
		r.logger.Error("Failed to get comment by ID", err, map[string]interface{}{
			"id": id,
		})
		return nil, fmt.Errorf("failed to get comment by ID: %w", err)
	}

	return &comment, nil
}

// Update обновляет записываемые поля комментария; created_at не меняется
func (r *CommentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	query := `
		UPDATE comments
		SET
			author = $1,
			text = $2,
			email = $3,
			note = $4,
			conference_id = $5
		WHERE id = $6
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		comment.Author,
		comment.Text,
		comment.Email,
		comment.Note,
		comment.ConferenceID,
		comment.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update comment", err, map[string]interface{}{
			"id": comment.ID,
		})
		return fmt.Errorf("failed to update comment: %w", err)
	}

	return expectAffected(result, domain.ErrCommentNotFound)
}

// Delete удаляет комментарий по ID
func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete comment", err, map[string]interface{}{
			"id": id,
		})
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return expectAffected(result, domain.ErrCommentNotFound)
}

// List возвращает список комментариев с фильтрацией, новые первыми
func (r *CommentRepository) List(ctx context.Context, filter repository.CommentFilter) ([]*domain.Comment, error) {
	where, args := buildCommentWhere(filter)
	args = append(args, filter.Limit, filter.Offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM comments
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, commentColumns, where, len(args)-1, len(args))

	comments := []*domain.Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, args...); err != nil {
		r.logger.Error("Failed to list comments", err)
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

// Count возвращает количество комментариев с фильтрацией
func (r *CommentRepository) Count(ctx context.Context, filter repository.CommentFilter) (int, error) {
	where, args := buildCommentWhere(filter)

	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM comments `+where, args...); err != nil {
		r.logger.Error("Failed to count comments", err)
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}

	return count, nil
}

// CountSince возвращает число новых комментариев по конференциям
func (r *CommentRepository) CountSince(ctx context.Context, since time.Time) ([]repository.ConferenceCount, error) {
	query := `
		SELECT
			c.conference_id,
			COALESCE(f.city, '') AS city,
			COALESCE(f.year, '') AS year,
			COUNT(*) AS count
		FROM comments c
		LEFT JOIN conferences f ON f.id = c.conference_id
		WHERE c.created_at >= $1
		GROUP BY c.conference_id, f.city, f.year
		ORDER BY count DESC
	`

	counts := []repository.ConferenceCount{}
	if err := r.db.SelectContext(ctx, &counts, query, since); err != nil {
		r.logger.Error("Failed to count recent comments", err, map[string]interface{}{
			"since": since,
		})
		return nil, fmt.Errorf("failed to count recent comments: %w", err)
	}

	return counts, nil
}

// Вспомогательные функции

func buildCommentWhere(filter repository.CommentFilter) (string, []interface{}) {
	if filter.ConferenceID != nil {
		return "WHERE conference_id = $1", []interface{}{*filter.ConferenceID}
	}
	return "", []interface{}{}
}

func expectAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
