package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/hostelreview/hostelreview/internal/metrics"
	"github.com/hostelreview/hostelreview/internal/model"
	"github.com/hostelreview/hostelreview/internal/repository"
)

// Review errors.
var (
	ErrInvalidHostel      = errors.New("hostel id is required")
	ErrInvalidFloor       = errors.New("floor id is required")
	ErrInvalidRoomNumber  = errors.New("room number is required and must be at most 20 characters")
	ErrInvalidSpeed       = errors.New("speeds must be non-negative numbers")
	ErrInvalidCleanliness = errors.New("cleanliness must be between 1 and 5")
	ErrRemarksTooLong     = errors.New("remarks must be at most 1000 characters")
	ErrFloorMismatch      = errors.New("floor does not belong to hostel")
	ErrReviewExists       = errors.New("a review already exists for this room")
)

const maxRoomNumberLength = 20

// ReviewStore is the persistence used for reviews.
type ReviewStore interface {
	GetFloorPlan(ctx context.Context, id int64) (*model.FloorPlan, error)
	GetReviewByRoom(ctx context.Context, hostelID int64, roomNumber string) (*model.Review, error)
	CreateReview(ctx context.Context, review *model.Review) error
}

// SubmitReviewInput defines input for submitting a review.
type SubmitReviewInput struct {
	HostelID    int64
	FloorID     int64
	RoomNumber  string
	JioSpeed    float64
	AirtelSpeed float64
	VITSpeed    float64
	Cleanliness int
	Remarks     string
	SubmittedBy string
}

// ReviewService handles review submission.
type ReviewService struct {
	store   ReviewStore
	metrics metrics.Recorder
	now     func() time.Time
}

// NewReviewService creates a new ReviewService.
func NewReviewService(store ReviewStore, recorder metrics.Recorder) *ReviewService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ReviewService{
		store:   store,
		metrics: recorder,
		now:     time.Now,
	}
}

// SubmitReview validates and stores a review. Only one review is accepted
// per hostel and room number.
func (s *ReviewService) SubmitReview(ctx context.Context, input SubmitReviewInput) (*model.Review, error) {
	input.RoomNumber = strings.TrimSpace(input.RoomNumber)
	input.Remarks = strings.TrimSpace(input.Remarks)

	if err := validateReview(input); err != nil {
		s.metrics.IncReviewSubmitted(metrics.OutcomeRejected)
		return nil, err
	}

	plan, err := s.store.GetFloorPlan(ctx, input.FloorID)
	if err != nil {
		if errors.Is(err, repository.ErrFloorPlanNotFound) {
			s.metrics.IncReviewSubmitted(metrics.OutcomeRejected)
			return nil, ErrFloorPlanNotFound
		}
		s.metrics.IncReviewSubmitted(metrics.OutcomeFailed)
		return nil, fmt.Errorf("failed to load floor plan: %w", err)
	}
	if plan.HostelID != input.HostelID {
		s.metrics.IncReviewSubmitted(metrics.OutcomeRejected)
		return nil, ErrFloorMismatch
	}

	if _, err := s.store.GetReviewByRoom(ctx, input.HostelID, input.RoomNumber); err == nil {
		s.metrics.IncReviewSubmitted(metrics.OutcomeRejected)
		return nil, ErrReviewExists
	} else if !errors.Is(err, repository.ErrReviewNotFound) {
		s.metrics.IncReviewSubmitted(metrics.OutcomeFailed)
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}

	review := &model.Review{
		ID:               ulid.Make().String(),
		HostelID:         input.HostelID,
		FloorID:          input.FloorID,
		RoomNumber:       input.RoomNumber,
		JioSpeed:         input.JioSpeed,
		AirtelSpeed:      input.AirtelSpeed,
		VITWifiSpeed:     input.VITSpeed,
		CleanlinessScore: input.Cleanliness,
		Remarks:          input.Remarks,
		CreatedAt:        s.now().UTC(),
	}
	if input.SubmittedBy != "" {
		submitter := input.SubmittedBy
		review.SubmittedBy = &submitter
	}

	// The unique constraint settles concurrent submissions for the same room.
	if err := s.store.CreateReview(ctx, review); err != nil {
		if errors.Is(err, repository.ErrReviewExists) {
			s.metrics.IncReviewSubmitted(metrics.OutcomeRejected)
			return nil, ErrReviewExists
		}
		s.metrics.IncReviewSubmitted(metrics.OutcomeFailed)
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.metrics.IncReviewSubmitted(metrics.OutcomeSuccess)
	return review, nil
}

func validateReview(input SubmitReviewInput) error {
	if input.HostelID <= 0 {
		return ErrInvalidHostel
	}
	if input.FloorID <= 0 {
		return ErrInvalidFloor
	}
	if input.RoomNumber == "" || utf8.RuneCountInString(input.RoomNumber) > maxRoomNumberLength {
		return ErrInvalidRoomNumber
	}
	for _, speed := range []float64{input.JioSpeed, input.AirtelSpeed, input.VITSpeed} {
		if speed < 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
			return ErrInvalidSpeed
		}
	}
	if input.Cleanliness < model.MinCleanliness || input.Cleanliness > model.MaxCleanliness {
		return ErrInvalidCleanliness
	}
	if utf8.RuneCountInString(input.Remarks) > model.MaxRemarksLength {
		return ErrRemarksTooLong
	}
	return nil
}
