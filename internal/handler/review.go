package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/hostelreview/hostelreview/internal/auth"
	"github.com/hostelreview/hostelreview/internal/handler/dto"
	"github.com/hostelreview/hostelreview/internal/model"
	"github.com/hostelreview/hostelreview/internal/service"
)

// ReviewSubmitter stores room reviews.
type ReviewSubmitter interface {
	SubmitReview(ctx context.Context, input service.SubmitReviewInput) (*model.Review, error)
}

// ReviewHandler handles review submission.
type ReviewHandler struct {
	svc    ReviewSubmitter
	logger *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(svc ReviewSubmitter, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		svc:    svc,
		logger: logger,
	}
}

// Submit handles POST /reviews. It accepts a JSON body or the HTML form.
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	review, err := h.svc.SubmitReview(r.Context(), service.SubmitReviewInput{
		HostelID:    req.HostelID,
		FloorID:     req.FloorID,
		RoomNumber:  req.RoomNumber,
		JioSpeed:    req.JioSpeed,
		AirtelSpeed: req.AirtelSpeed,
		VITSpeed:    req.VITSpeed,
		Cleanliness: req.Cleanliness,
		Remarks:     req.Remarks,
		SubmittedBy: auth.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("review_submitted",
		"review_id", review.ID,
		"hostel_id", review.HostelID,
		"floor_id", review.FloorID,
		"signed_in", review.SubmittedBy != nil,
	)

	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) decode(w http.ResponseWriter, r *http.Request) (dto.SubmitReviewRequest, bool) {
	var req dto.SubmitReviewRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
			return req, false
		}
		return req, true
	}

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Invalid form body")
		return req, false
	}
	req, err := dto.SubmitReviewRequestFromForm(r.PostForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return req, false
	}
	return req, true
}

func (h *ReviewHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidHostel),
		errors.Is(err, service.ErrInvalidFloor),
		errors.Is(err, service.ErrInvalidRoomNumber),
		errors.Is(err, service.ErrInvalidSpeed),
		errors.Is(err, service.ErrInvalidCleanliness),
		errors.Is(err, service.ErrRemarksTooLong),
		errors.Is(err, service.ErrFloorMismatch):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, service.ErrFloorPlanNotFound):
		writeError(w, http.StatusNotFound, "FLOOR_NOT_FOUND", "Floor plan not found")
	case errors.Is(err, service.ErrReviewExists):
		writeError(w, http.StatusConflict, "REVIEW_EXISTS", "A review already exists for this room in this hostel. Only one review per room is allowed.")
	default:
		h.logger.Error("review submission failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
