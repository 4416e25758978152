package service

import (
	"context"
	"errors"
	"testing"

	"github.com/hostelreview/hostelreview/internal/model"
)

func seededStore() *fakeStore {
	store := newFakeStore()
	store.hostels[1] = &model.Hostel{ID: 1, Name: "Alpha", HostelType: "boys", BedType: "double", ChotaDhobiFacility: true}
	store.hostels[2] = &model.Hostel{ID: 2, Name: "Bravo", HostelType: "boys", BedType: "double", ChotaDhobiFacility: true}
	store.hostels[3] = &model.Hostel{ID: 3, Name: "Charlie", HostelType: "girls", BedType: "double"}
	store.plans[10] = &model.FloorPlan{ID: 10, HostelID: 1, Floor: "Ground"}
	store.plans[11] = &model.FloorPlan{ID: 11, HostelID: 1, Floor: "First"}
	store.plans[20] = &model.FloorPlan{ID: 20, HostelID: 99, Floor: "Orphan"}
	store.details[1] = []*model.RoomDetail{{ID: 1, HostelID: 1, RoomType: "2 bed AC", Occupancy: 2, AC: true}}
	return store
}

func TestCatalogService_HostelPage(t *testing.T) {
	t.Parallel()

	svc := NewCatalogService(seededStore())

	page, err := svc.HostelPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("HostelPage() error = %v", err)
	}
	if page.Hostel.Name != "Alpha" {
		t.Errorf("hostel = %s", page.Hostel.Name)
	}
	if len(page.FloorPlans) != 2 {
		t.Errorf("floor plans = %d, want 2", len(page.FloorPlans))
	}
	if len(page.RoomDetails) != 1 {
		t.Errorf("room details = %d, want 1", len(page.RoomDetails))
	}
	if len(page.SimilarHostels) != 1 || page.SimilarHostels[0].ID != 2 {
		t.Errorf("similar hostels = %+v, want only Bravo", page.SimilarHostels)
	}
}

func TestCatalogService_HostelPage_NotFound(t *testing.T) {
	t.Parallel()

	svc := NewCatalogService(seededStore())

	_, err := svc.HostelPage(context.Background(), 404)
	if !errors.Is(err, ErrHostelNotFound) {
		t.Errorf("expected ErrHostelNotFound, got %v", err)
	}
}

func TestCatalogService_HostelPage_StoreError(t *testing.T) {
	t.Parallel()

	store := seededStore()
	store.failWith = errStoreDown
	svc := NewCatalogService(store)

	_, err := svc.HostelPage(context.Background(), 1)
	if !errors.Is(err, errStoreDown) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}

func TestCatalogService_FloorWithHostel(t *testing.T) {
	t.Parallel()

	svc := NewCatalogService(seededStore())
	ctx := context.Background()

	tests := []struct {
		name    string
		floorID int64
		wantErr error
	}{
		{"found", 10, nil},
		{"missing floor", 999, ErrFloorPlanNotFound},
		{"missing hostel", 20, ErrHostelNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, hostel, err := svc.FloorWithHostel(ctx, tt.floorID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("FloorWithHostel() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && (plan.ID != tt.floorID || hostel.ID != plan.HostelID) {
				t.Errorf("FloorWithHostel() = %+v, %+v", plan, hostel)
			}
		})
	}
}

func TestCatalogService_ListFloors(t *testing.T) {
	t.Parallel()

	svc := NewCatalogService(seededStore())

	floors, err := svc.ListFloors(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListFloors() error = %v", err)
	}
	if len(floors) != 2 {
		t.Errorf("floors = %d, want 2", len(floors))
	}
}
