package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/digkill/TivoaArt/internal/models"
)

type ImageRepository struct {
	db DBTX
}

func NewImageRepository(db DBTX) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) InsertImages(ctx context.Context, userID int64, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	args := make([]any, 0, len(urls)*2)
	for _, u := range urls {
		args = append(args, userID, u)
	}
	query := `INSERT INTO user_images (user_id, image_url) VALUES ` + strings.TrimSuffix(strings.Repeat("(?, ?), ", len(urls)), ", ")
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert user images: %w", err)
	}
	return nil
}

// ListByUser returns non-deleted images, newest first. A positive limit caps the result.
func (r *ImageRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.UserImage, error) {
	query := `
SELECT id, user_id, image_url, is_favorite, is_deleted, created_at
FROM user_images WHERE user_id = ? AND is_deleted = 0
ORDER BY created_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list user images: %w", err)
	}
	defer rows.Close()

	var images []models.UserImage
	for rows.Next() {
		var img models.UserImage
		if err := rows.Scan(&img.ID, &img.UserID, &img.ImageURL, &img.IsFavorite, &img.IsDeleted, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// SetFavorite reports false when the image is missing, deleted or owned by another user.
func (r *ImageRepository) SetFavorite(ctx context.Context, userID, imageID int64, favorite bool) (bool, error) {
	const query = `UPDATE user_images SET is_favorite = ? WHERE id = ? AND user_id = ? AND is_deleted = 0`
	return r.update(ctx, query, favorite, imageID, userID)
}

func (r *ImageRepository) SoftDelete(ctx context.Context, userID, imageID int64) (bool, error) {
	const query = `UPDATE user_images SET is_deleted = 1 WHERE id = ? AND user_id = ? AND is_deleted = 0`
	return r.update(ctx, query, imageID, userID)
}

func (r *ImageRepository) update(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update user image: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("image rows affected: %w", err)
	}
	return affected > 0, nil
}
