package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/hostelreview/hostelreview/internal/auth"
	"github.com/hostelreview/hostelreview/internal/handler/dto"
	"github.com/hostelreview/hostelreview/internal/model"
	"github.com/hostelreview/hostelreview/internal/upload"
)

// multipartOverhead allows for boundaries and headers around the file.
const multipartOverhead = 64 << 10

// imageNamePattern matches object names produced by upload.ObjectKey.
var imageNamePattern = regexp.MustCompile(`^[0-9A-Z]{26}\.(jpg|png|webp)$`)

// ImageStore uploads and serves hostel images.
type ImageStore interface {
	Upload(ctx context.Context, hostelID int64, r io.Reader, uploadedBy string) (*model.HostelImage, error)
	Open(ctx context.Context, key string) (*blob.Reader, error)
	MaxSize() int64
}

// ImageHandler handles hostel image uploads and downloads.
type ImageHandler struct {
	images ImageStore
	logger *slog.Logger
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images ImageStore, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{
		images: images,
		logger: logger,
	}
}

// Upload handles POST /api/hostels/{id}/images with a multipart "image"
// field. RequireSession must run first.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	hostelID, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Hostel ID must be a positive integer")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.images.MaxSize()+multipartOverhead)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Image exceeds the maximum upload size")
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Expected a multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_IMAGE", "Form field 'image' is required")
		return
	}
	defer file.Close()

	img, err := h.images.Upload(r.Context(), hostelID, file, auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.handleUploadError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToImageResponse(img))
}

// Serve handles GET /images/hostels/{id}/{name}.
func (h *ImageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	hostelID, ok := idParam(r, "id")
	name := chi.URLParam(r, "name")
	if !ok || !imageNamePattern.MatchString(name) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}

	key := "hostels/" + strconv.FormatInt(hostelID, 10) + "/" + name
	reader, err := h.images.Open(r.Context(), key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
			return
		}
		h.logger.Error("failed to open image", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", reader.ContentType())
	w.Header().Set("Content-Length", strconv.FormatInt(reader.Size(), 10))
	// Keys are content-unique, so the object never changes.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("image copy interrupted", "key", key, "error", err)
	}
}

func (h *ImageHandler) handleUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, upload.ErrEmpty):
		writeError(w, http.StatusBadRequest, "EMPTY_IMAGE", err.Error())
	case errors.Is(err, upload.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", err.Error())
	case errors.Is(err, upload.ErrUnsupportedType):
		writeError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", err.Error())
	case errors.Is(err, upload.ErrHostelNotFound):
		writeError(w, http.StatusNotFound, "HOSTEL_NOT_FOUND", "Hostel not found")
	default:
		h.logger.Error("image upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
