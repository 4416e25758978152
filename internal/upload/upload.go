// Package upload stores hostel images in a gocloud.dev blob bucket.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/memblob"  // mem:// buckets for tests and local runs

	"github.com/hostelreview/hostelreview/internal/metrics"
	"github.com/hostelreview/hostelreview/internal/model"
)

// Upload errors.
var (
	ErrEmpty           = errors.New("image is empty")
	ErrTooLarge        = errors.New("image exceeds the maximum upload size")
	ErrUnsupportedType = errors.New("image must be jpeg, png or webp")
	ErrHostelNotFound  = errors.New("hostel not found")
)

// allowedTypes maps sniffed content types to file extensions.
var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ImageStore records uploaded images.
type ImageStore interface {
	HostelExists(ctx context.Context, id int64) (bool, error)
	CreateHostelImage(ctx context.Context, img *model.HostelImage) error
}

// OpenBucket opens the bucket at url, e.g. file:///var/uploads or mem://.
func OpenBucket(ctx context.Context, url string) (*blob.Bucket, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("upload: open bucket %s: %w", url, err)
	}
	return bucket, nil
}

// Service validates images and writes them to the bucket.
type Service struct {
	bucket  *blob.Bucket
	store   ImageStore
	maxSize int64
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewService creates a new upload Service.
func NewService(bucket *blob.Bucket, store ImageStore, maxSize int64, logger *slog.Logger, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Service{
		bucket:  bucket,
		store:   store,
		maxSize: maxSize,
		logger:  logger.With("component", "upload"),
		metrics: recorder,
	}
}

// MaxSize returns the largest accepted image in bytes.
func (s *Service) MaxSize() int64 {
	return s.maxSize
}

// Upload stores the image read from r under hostels/<id>/ and records it.
func (s *Service) Upload(ctx context.Context, hostelID int64, r io.Reader, uploadedBy string) (*model.HostelImage, error) {
	img, err := s.upload(ctx, hostelID, r, uploadedBy)
	switch {
	case err == nil:
		s.metrics.IncImageUploaded(metrics.OutcomeSuccess)
	case errors.Is(err, ErrEmpty), errors.Is(err, ErrTooLarge),
		errors.Is(err, ErrUnsupportedType), errors.Is(err, ErrHostelNotFound):
		s.metrics.IncImageUploaded(metrics.OutcomeRejected)
	default:
		s.metrics.IncImageUploaded(metrics.OutcomeFailed)
	}
	return img, err
}

func (s *Service) upload(ctx context.Context, hostelID int64, r io.Reader, uploadedBy string) (*model.HostelImage, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, ErrUnsupportedType
	}

	exists, err := s.store.HostelExists(ctx, hostelID)
	if err != nil {
		return nil, fmt.Errorf("check hostel: %w", err)
	}
	if !exists {
		return nil, ErrHostelNotFound
	}

	id := ulid.Make().String()
	key := ObjectKey(hostelID, id, ext)

	err = s.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", key, err)
	}

	img := &model.HostelImage{
		ID:          id,
		HostelID:    hostelID,
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   time.Now().UTC(),
	}
	if uploadedBy != "" {
		img.UploadedBy = &uploadedBy
	}

	if err := s.store.CreateHostelImage(ctx, img); err != nil {
		if delErr := s.bucket.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned image", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("record image: %w", err)
	}

	s.logger.Info("image uploaded",
		"hostel_id", hostelID,
		"key", key,
		"content_type", contentType,
		"size", img.Size,
	)
	return img, nil
}

// Open returns a reader for a stored image and its attributes.
func (s *Service) Open(ctx context.Context, key string) (*blob.Reader, error) {
	reader, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return reader, nil
}

// ObjectKey builds the bucket key for an image.
func ObjectKey(hostelID int64, id, ext string) string {
	return "hostels/" + strconv.FormatInt(hostelID, 10) + "/" + id + "." + ext
}
