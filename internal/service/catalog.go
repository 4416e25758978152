// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hostelreview/hostelreview/internal/model"
	"github.com/hostelreview/hostelreview/internal/repository"
)

// Service errors.
var (
	ErrHostelNotFound    = errors.New("hostel not found")
	ErrFloorPlanNotFound = errors.New("floor plan not found")
)

// CatalogStore is the persistence the catalog reads from.
type CatalogStore interface {
	ListHostels(ctx context.Context) ([]*model.Hostel, error)
	GetHostel(ctx context.Context, id int64) (*model.Hostel, error)
	ListSimilarHostels(ctx context.Context, h *model.Hostel) ([]*model.Hostel, error)
	ListFloorPlans(ctx context.Context, hostelID int64) ([]*model.FloorPlan, error)
	GetFloorPlan(ctx context.Context, id int64) (*model.FloorPlan, error)
	ListFloors(ctx context.Context, hostelID int64) ([]model.Floor, error)
	ListRoomDetails(ctx context.Context, hostelID int64) ([]*model.RoomDetail, error)
	ListReviewsByFloor(ctx context.Context, floorID int64) ([]*model.Review, error)
	ListReviewsByHostel(ctx context.Context, hostelID int64) ([]*model.Review, error)
}

// HostelPage is everything shown on a hostel's page.
type HostelPage struct {
	Hostel         *model.Hostel
	FloorPlans     []*model.FloorPlan
	Reviews        []*model.Review
	RoomDetails    []*model.RoomDetail
	SimilarHostels []*model.Hostel
}

// FloorPage is a floor plan with its hostel and reviews.
type FloorPage struct {
	FloorPlan *model.FloorPlan
	Hostel    *model.Hostel
	Reviews   []*model.Review
}

// CatalogService reads hostels, floors and reviews.
type CatalogService struct {
	store CatalogStore
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

// ListHostels returns all hostels.
func (s *CatalogService) ListHostels(ctx context.Context) ([]*model.Hostel, error) {
	hostels, err := s.store.ListHostels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list hostels: %w", err)
	}
	return hostels, nil
}

// GetHostel returns a hostel by id.
func (s *CatalogService) GetHostel(ctx context.Context, id int64) (*model.Hostel, error) {
	hostel, err := s.store.GetHostel(ctx, id)
	if err != nil {
		return nil, mapCatalogError(err)
	}
	return hostel, nil
}

// HostelPage loads a hostel and everything listed under it.
func (s *CatalogService) HostelPage(ctx context.Context, id int64) (*HostelPage, error) {
	hostel, err := s.GetHostel(ctx, id)
	if err != nil {
		return nil, err
	}

	page := &HostelPage{Hostel: hostel}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		plans, err := s.store.ListFloorPlans(gctx, id)
		page.FloorPlans = plans
		return err
	})
	g.Go(func() error {
		reviews, err := s.store.ListReviewsByHostel(gctx, id)
		page.Reviews = reviews
		return err
	})
	g.Go(func() error {
		details, err := s.store.ListRoomDetails(gctx, id)
		page.RoomDetails = details
		return err
	})
	g.Go(func() error {
		similar, err := s.store.ListSimilarHostels(gctx, hostel)
		page.SimilarHostels = similar
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load hostel page: %w", err)
	}
	return page, nil
}

// FloorPage loads a floor plan, its hostel and its reviews.
func (s *CatalogService) FloorPage(ctx context.Context, floorID int64) (*FloorPage, error) {
	plan, hostel, err := s.FloorWithHostel(ctx, floorID)
	if err != nil {
		return nil, err
	}

	reviews, err := s.store.ListReviewsByFloor(ctx, floorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list floor reviews: %w", err)
	}

	return &FloorPage{FloorPlan: plan, Hostel: hostel, Reviews: reviews}, nil
}

// FloorWithHostel returns a floor plan and the hostel it belongs to.
func (s *CatalogService) FloorWithHostel(ctx context.Context, floorID int64) (*model.FloorPlan, *model.Hostel, error) {
	plan, err := s.store.GetFloorPlan(ctx, floorID)
	if err != nil {
		return nil, nil, mapCatalogError(err)
	}

	hostel, err := s.store.GetHostel(ctx, plan.HostelID)
	if err != nil {
		return nil, nil, mapCatalogError(err)
	}

	return plan, hostel, nil
}

// ListFloors returns the floors of a hostel.
func (s *CatalogService) ListFloors(ctx context.Context, hostelID int64) ([]model.Floor, error) {
	floors, err := s.store.ListFloors(ctx, hostelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list floors: %w", err)
	}
	return floors, nil
}

func mapCatalogError(err error) error {
	switch {
	case errors.Is(err, repository.ErrHostelNotFound):
		return ErrHostelNotFound
	case errors.Is(err, repository.ErrFloorPlanNotFound):
		return ErrFloorPlanNotFound
	default:
		return fmt.Errorf("catalog lookup failed: %w", err)
	}
}
