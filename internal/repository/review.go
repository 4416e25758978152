package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hostelreview/hostelreview/internal/model"
)

// Common errors for review repository operations.
var (
	ErrReviewExists   = errors.New("review already exists for this room")
	ErrReviewNotFound = errors.New("review not found")
)

const reviewColumns = `id, hostel_id, floor_id, room_number, jio_speed, airtel_speed, vit_wifi_speed, cleanliness_score, remarks, submitted_by, created_at`

// CreateReview inserts a review. A second review for the same hostel and
// room number returns ErrReviewExists.
func (r *Repository) CreateReview(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.HostelID,
		review.FloorID,
		review.RoomNumber,
		review.JioSpeed,
		review.AirtelSpeed,
		review.VITWifiSpeed,
		review.CleanlinessScore,
		review.Remarks,
		review.SubmittedBy,
		review.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrReviewExists
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// GetReviewByRoom returns the review for a hostel room, if any.
func (r *Repository) GetReviewByRoom(ctx context.Context, hostelID int64, roomNumber string) (*model.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE hostel_id = $1 AND room_number = $2`

	review, err := scanReview(r.pool.QueryRow(ctx, query, hostelID, roomNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review by room: %w", err)
	}

	return review, nil
}

// ListReviewsByFloor returns the reviews of a floor, newest first.
func (r *Repository) ListReviewsByFloor(ctx context.Context, floorID int64) ([]*model.Review, error) {
	return r.listReviews(ctx, `WHERE floor_id = $1`, floorID)
}

// ListReviewsByHostel returns the reviews of a hostel, newest first.
func (r *Repository) ListReviewsByHostel(ctx context.Context, hostelID int64) ([]*model.Review, error) {
	return r.listReviews(ctx, `WHERE hostel_id = $1`, hostelID)
}

// ListReviewsByUser returns the reviews submitted by a user, newest first.
func (r *Repository) ListReviewsByUser(ctx context.Context, userID string) ([]*model.Review, error) {
	return r.listReviews(ctx, `WHERE submitted_by = $1`, userID)
}

func (r *Repository) listReviews(ctx context.Context, where string, arg any) ([]*model.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews ` + where + ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*model.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

func scanReview(row pgx.Row) (*model.Review, error) {
	var rv model.Review
	err := row.Scan(
		&rv.ID,
		&rv.HostelID,
		&rv.FloorID,
		&rv.RoomNumber,
		&rv.JioSpeed,
		&rv.AirtelSpeed,
		&rv.VITWifiSpeed,
		&rv.CleanlinessScore,
		&rv.Remarks,
		&rv.SubmittedBy,
		&rv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}
