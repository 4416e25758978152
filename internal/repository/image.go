package repository

import (
	"context"
	"fmt"

	"github.com/hostelreview/hostelreview/internal/model"
)

// CreateHostelImage records an uploaded image.
func (r *Repository) CreateHostelImage(ctx context.Context, img *model.HostelImage) error {
	query := `
		INSERT INTO hostel_images (id, hostel_id, object_key, content_type, size_bytes, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		img.ID,
		img.HostelID,
		img.Key,
		img.ContentType,
		img.Size,
		img.UploadedBy,
		img.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create hostel image: %w", err)
	}
	return nil
}

// ListHostelImages returns the images of a hostel, oldest first.
func (r *Repository) ListHostelImages(ctx context.Context, hostelID int64) ([]*model.HostelImage, error) {
	query := `
		SELECT id, hostel_id, object_key, content_type, size_bytes, uploaded_by, created_at
		FROM hostel_images
		WHERE hostel_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, hostelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list hostel images: %w", err)
	}
	defer rows.Close()

	var images []*model.HostelImage
	for rows.Next() {
		var img model.HostelImage
		if err := rows.Scan(&img.ID, &img.HostelID, &img.Key, &img.ContentType, &img.Size, &img.UploadedBy, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan hostel image: %w", err)
		}
		images = append(images, &img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hostel images: %w", err)
	}

	return images, nil
}
