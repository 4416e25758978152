package service

import (
	"context"
	"errors"
	"sync"

	"github.com/hostelreview/hostelreview/internal/model"
	"github.com/hostelreview/hostelreview/internal/repository"
)

// fakeStore is an in-memory implementation of the service stores.
type fakeStore struct {
	mu       sync.Mutex
	hostels  map[int64]*model.Hostel
	plans    map[int64]*model.FloorPlan
	details  map[int64][]*model.RoomDetail
	reviews  []*model.Review
	users    map[string]*model.User
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		hostels: make(map[int64]*model.Hostel),
		plans:   make(map[int64]*model.FloorPlan),
		details: make(map[int64][]*model.RoomDetail),
		users:   make(map[string]*model.User),
	}
}

func (f *fakeStore) ListHostels(ctx context.Context) ([]*model.Hostel, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []*model.Hostel
	for _, h := range f.hostels {
		out = append(out, h)
	}
	return out, nil
}

func (f *fakeStore) GetHostel(ctx context.Context, id int64) (*model.Hostel, error) {
	if h, ok := f.hostels[id]; ok {
		return h, nil
	}
	return nil, repository.ErrHostelNotFound
}

func (f *fakeStore) ListSimilarHostels(ctx context.Context, h *model.Hostel) ([]*model.Hostel, error) {
	var out []*model.Hostel
	for _, other := range f.hostels {
		if h.SimilarTo(other) {
			out = append(out, other)
		}
	}
	return out, nil
}

func (f *fakeStore) ListFloorPlans(ctx context.Context, hostelID int64) ([]*model.FloorPlan, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []*model.FloorPlan
	for _, p := range f.plans {
		if p.HostelID == hostelID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) GetFloorPlan(ctx context.Context, id int64) (*model.FloorPlan, error) {
	if p, ok := f.plans[id]; ok {
		return p, nil
	}
	return nil, repository.ErrFloorPlanNotFound
}

func (f *fakeStore) ListFloors(ctx context.Context, hostelID int64) ([]model.Floor, error) {
	floors := []model.Floor{}
	for _, p := range f.plans {
		if p.HostelID == hostelID {
			floors = append(floors, model.Floor{ID: p.ID, Floor: p.Floor})
		}
	}
	return floors, nil
}

func (f *fakeStore) ListRoomDetails(ctx context.Context, hostelID int64) ([]*model.RoomDetail, error) {
	return f.details[hostelID], nil
}

func (f *fakeStore) ListReviewsByFloor(ctx context.Context, floorID int64) ([]*model.Review, error) {
	return f.filterReviews(func(r *model.Review) bool { return r.FloorID == floorID }), nil
}

func (f *fakeStore) ListReviewsByHostel(ctx context.Context, hostelID int64) ([]*model.Review, error) {
	return f.filterReviews(func(r *model.Review) bool { return r.HostelID == hostelID }), nil
}

func (f *fakeStore) ListReviewsByUser(ctx context.Context, userID string) ([]*model.Review, error) {
	return f.filterReviews(func(r *model.Review) bool { return r.SubmittedBy != nil && *r.SubmittedBy == userID }), nil
}

func (f *fakeStore) filterReviews(keep func(*model.Review) bool) []*model.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Review
	for _, r := range f.reviews {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeStore) GetReviewByRoom(ctx context.Context, hostelID int64, roomNumber string) (*model.Review, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.HostelID == hostelID && r.RoomNumber == roomNumber {
			return r, nil
		}
	}
	return nil, repository.ErrReviewNotFound
}

func (f *fakeStore) CreateReview(ctx context.Context, review *model.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.HostelID == review.HostelID && r.RoomNumber == review.RoomNumber {
			return repository.ErrReviewExists
		}
	}
	f.reviews = append(f.reviews, review)
	return nil
}

func (f *fakeStore) UpsertUserByProviderUID(ctx context.Context, user *model.User) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ProviderUID == user.ProviderUID {
			u.Name, u.Email, u.ProfilePicture = user.Name, user.Email, user.ProfilePicture
			return u, nil
		}
	}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

var errStoreDown = errors.New("connection refused")
