package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hostelreview/hostelreview/internal/model"
)

// Common errors for catalog repository operations.
var (
	ErrHostelNotFound    = errors.New("hostel not found")
	ErrFloorPlanNotFound = errors.New("floor plan not found")
)

const hostelColumns = `hostel_id, name, hostel_type, bed_type, chota_dhobi_facility, description, image_url, created_at`

// ListHostels returns every hostel ordered by name.
func (r *Repository) ListHostels(ctx context.Context) ([]*model.Hostel, error) {
	query := `SELECT ` + hostelColumns + ` FROM hostels ORDER BY name, hostel_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list hostels: %w", err)
	}
	defer rows.Close()

	return collectHostels(rows)
}

// GetHostel retrieves a hostel by id.
func (r *Repository) GetHostel(ctx context.Context, id int64) (*model.Hostel, error) {
	query := `SELECT ` + hostelColumns + ` FROM hostels WHERE hostel_id = $1`

	hostel, err := scanHostel(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHostelNotFound
		}
		return nil, fmt.Errorf("failed to get hostel: %w", err)
	}

	return hostel, nil
}

// HostelExists reports whether a hostel with id exists.
func (r *Repository) HostelExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM hostels WHERE hostel_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check hostel: %w", err)
	}
	return exists, nil
}

// ListSimilarHostels returns hostels sharing h's type, bed type and dhobi
// facility, excluding h itself.
func (r *Repository) ListSimilarHostels(ctx context.Context, h *model.Hostel) ([]*model.Hostel, error) {
	query := `
		SELECT ` + hostelColumns + `
		FROM hostels
		WHERE hostel_type = $1 AND bed_type = $2 AND chota_dhobi_facility = $3 AND hostel_id <> $4
		ORDER BY name, hostel_id
	`

	rows, err := r.pool.Query(ctx, query, h.HostelType, h.BedType, h.ChotaDhobiFacility, h.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list similar hostels: %w", err)
	}
	defer rows.Close()

	return collectHostels(rows)
}

// CreateHostel inserts a hostel and sets its id and created_at.
func (r *Repository) CreateHostel(ctx context.Context, h *model.Hostel) error {
	query := `
		INSERT INTO hostels (name, hostel_type, bed_type, chota_dhobi_facility, description, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING hostel_id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		h.Name,
		h.HostelType,
		h.BedType,
		h.ChotaDhobiFacility,
		h.Description,
		h.ImageURL,
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create hostel: %w", err)
	}
	return nil
}

// ListFloorPlans returns the floor plans of a hostel.
func (r *Repository) ListFloorPlans(ctx context.Context, hostelID int64) ([]*model.FloorPlan, error) {
	query := `
		SELECT id, hostel_id, floor, block, image_url, created_at
		FROM floor_plans
		WHERE hostel_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, hostelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list floor plans: %w", err)
	}
	defer rows.Close()

	var plans []*model.FloorPlan
	for rows.Next() {
		plan, err := scanFloorPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan floor plan: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating floor plans: %w", err)
	}

	return plans, nil
}

// GetFloorPlan retrieves a floor plan by id.
func (r *Repository) GetFloorPlan(ctx context.Context, id int64) (*model.FloorPlan, error) {
	query := `
		SELECT id, hostel_id, floor, block, image_url, created_at
		FROM floor_plans
		WHERE id = $1
	`

	plan, err := scanFloorPlan(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFloorPlanNotFound
		}
		return nil, fmt.Errorf("failed to get floor plan: %w", err)
	}

	return plan, nil
}

// CreateFloorPlan inserts a floor plan and sets its id and created_at.
func (r *Repository) CreateFloorPlan(ctx context.Context, plan *model.FloorPlan) error {
	query := `
		INSERT INTO floor_plans (hostel_id, floor, block, image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, plan.HostelID, plan.Floor, plan.Block, plan.ImageURL).
		Scan(&plan.ID, &plan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create floor plan: %w", err)
	}
	return nil
}

// ListFloors returns the id and floor label of each floor plan of a hostel.
func (r *Repository) ListFloors(ctx context.Context, hostelID int64) ([]model.Floor, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, floor FROM floor_plans WHERE hostel_id = $1 ORDER BY id`, hostelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list floors: %w", err)
	}
	defer rows.Close()

	floors := []model.Floor{}
	for rows.Next() {
		var f model.Floor
		if err := rows.Scan(&f.ID, &f.Floor); err != nil {
			return nil, fmt.Errorf("failed to scan floor: %w", err)
		}
		floors = append(floors, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating floors: %w", err)
	}

	return floors, nil
}

// ListRoomDetails returns the room configurations of a hostel.
func (r *Repository) ListRoomDetails(ctx context.Context, hostelID int64) ([]*model.RoomDetail, error) {
	query := `
		SELECT id, hostel_id, room_type, occupancy, ac, fee, created_at
		FROM room_details
		WHERE hostel_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, hostelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list room details: %w", err)
	}
	defer rows.Close()

	var details []*model.RoomDetail
	for rows.Next() {
		var d model.RoomDetail
		if err := rows.Scan(&d.ID, &d.HostelID, &d.RoomType, &d.Occupancy, &d.AC, &d.Fee, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room detail: %w", err)
		}
		details = append(details, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating room details: %w", err)
	}

	return details, nil
}

func collectHostels(rows pgx.Rows) ([]*model.Hostel, error) {
	var hostels []*model.Hostel
	for rows.Next() {
		h, err := scanHostel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hostel: %w", err)
		}
		hostels = append(hostels, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hostels: %w", err)
	}
	return hostels, nil
}

func scanHostel(row pgx.Row) (*model.Hostel, error) {
	var h model.Hostel
	err := row.Scan(
		&h.ID,
		&h.Name,
		&h.HostelType,
		&h.BedType,
		&h.ChotaDhobiFacility,
		&h.Description,
		&h.ImageURL,
		&h.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanFloorPlan(row pgx.Row) (*model.FloorPlan, error) {
	var p model.FloorPlan
	if err := row.Scan(&p.ID, &p.HostelID, &p.Floor, &p.Block, &p.ImageURL, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
