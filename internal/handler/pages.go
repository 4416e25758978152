package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hostelreview/hostelreview/internal/handler/dto"
	"github.com/hostelreview/hostelreview/internal/model"
	"github.com/hostelreview/hostelreview/internal/service"
	"github.com/hostelreview/hostelreview/internal/telemetry"
)

// Catalog is the read side of the hostel catalog.
type Catalog interface {
	ListHostels(ctx context.Context) ([]*model.Hostel, error)
	HostelPage(ctx context.Context, id int64) (*service.HostelPage, error)
	FloorPage(ctx context.Context, floorID int64) (*service.FloorPage, error)
	FloorWithHostel(ctx context.Context, floorID int64) (*model.FloorPlan, *model.Hostel, error)
	ListFloors(ctx context.Context, hostelID int64) ([]model.Floor, error)
}

// PageHandler serves the catalog views and their trending flags.
type PageHandler struct {
	catalog Catalog
	tracker *telemetry.Tracker
	logger  *slog.Logger
}

// NewPageHandler creates a new PageHandler. tracker may be disabled but
// not nil.
func NewPageHandler(catalog Catalog, tracker *telemetry.Tracker, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		catalog: catalog,
		tracker: tracker,
		logger:  logger,
	}
}

// Home handles GET /.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	hostels, err := h.catalog.ListHostels(r.Context())
	if err != nil {
		h.handleCatalogError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HomeResponse{
		Hostels:    nonNil(hostels),
		IsTrending: h.tracker.IsTrending(r.Context(), r.URL.Path),
	})
}

// Hostel handles GET /hostels/{id}. The view is counted before the
// trending check so a hostel can become the leader on this request.
func (h *PageHandler) Hostel(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Hostel ID must be a positive integer")
		return
	}

	page, err := h.catalog.HostelPage(r.Context(), id)
	if err != nil {
		h.handleCatalogError(w, r, err)
		return
	}

	entityID := strconv.FormatInt(id, 10)
	if views, ok := h.tracker.RecordEntityView(r.Context(), entityID); ok {
		h.logger.Debug("hostel view recorded", "hostel_id", id, "views", views)
	}

	resp := dto.HostelResponse{
		Hostel:         page.Hostel,
		FloorPlans:     nonNil(page.FloorPlans),
		Reviews:        nonNil(page.Reviews),
		RoomDetails:    nonNil(page.RoomDetails),
		SimilarHostels: nonNil(page.SimilarHostels),
	}

	if leader := h.tracker.MostViewedEntity(r.Context()); leader != nil {
		resp.TrendingViews = leader.Views
		resp.IsTrending = leader.EntityID == entityID && leader.Views > 0
		if resp.IsTrending {
			h.logger.Info("hostel is trending", "hostel_id", id, "views", leader.Views)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Floor handles GET /floors/{floorID}.
func (h *PageHandler) Floor(w http.ResponseWriter, r *http.Request) {
	floorID, ok := idParam(r, "floorID")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Floor ID must be a positive integer")
		return
	}

	page, err := h.catalog.FloorPage(r.Context(), floorID)
	if err != nil {
		h.handleCatalogError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.FloorResponse{
		FloorPlan:  page.FloorPlan,
		Hostel:     page.Hostel,
		Reviews:    nonNil(page.Reviews),
		IsTrending: h.tracker.IsTrending(r.Context(), r.URL.Path),
	})
}

// ReviewForm handles GET /review/{floorID}.
func (h *PageHandler) ReviewForm(w http.ResponseWriter, r *http.Request) {
	floorID, ok := idParam(r, "floorID")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Floor ID must be a positive integer")
		return
	}

	plan, hostel, err := h.catalog.FloorWithHostel(r.Context(), floorID)
	if err != nil {
		h.handleCatalogError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReviewFormResponse{
		FloorPlan:  plan,
		Hostel:     hostel,
		IsTrending: h.tracker.IsTrending(r.Context(), r.URL.Path),
	})
}

// Floors handles GET /api/hostels/{id}/floors.
func (h *PageHandler) Floors(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Hostel ID must be a positive integer")
		return
	}

	floors, err := h.catalog.ListFloors(r.Context(), id)
	if err != nil {
		h.handleCatalogError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(floors))
}

// Trending handles GET /api/trending.
func (h *PageHandler) Trending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.TrendingResponse{
		Page:   h.tracker.MostViewedPage(r.Context()),
		Hostel: h.tracker.MostViewedEntity(r.Context()),
	})
}

func (h *PageHandler) handleCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrHostelNotFound):
		writeError(w, http.StatusNotFound, "HOSTEL_NOT_FOUND", "Hostel not found")
	case errors.Is(err, service.ErrFloorPlanNotFound):
		writeError(w, http.StatusNotFound, "FLOOR_NOT_FOUND", "Floor plan not found")
	default:
		h.logger.Error("catalog request failed",
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

// nonNil keeps empty lists as [] rather than null in responses.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
