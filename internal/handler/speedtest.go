package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hostelreview/hostelreview/internal/handler/dto"
	"github.com/hostelreview/hostelreview/internal/probe"
)

// deadlineSlack is added on top of both measurement timeouts.
const deadlineSlack = 10 * time.Second

// SpeedTester runs the throughput probe.
type SpeedTester interface {
	Run(ctx context.Context, opts probe.Options) (probe.Result, error)
	DefaultOptions() probe.Options
	Timeout() time.Duration
}

// SpeedTestHandler serves GET /api/speedtest.
type SpeedTestHandler struct {
	prober SpeedTester
	logger *slog.Logger
}

// NewSpeedTestHandler creates a new SpeedTestHandler.
func NewSpeedTestHandler(prober SpeedTester, logger *slog.Logger) *SpeedTestHandler {
	return &SpeedTestHandler{
		prober: prober,
		logger: logger,
	}
}

// SpeedTest measures download then upload throughput and reports Mbps.
// A failed measurement reports 0 for that direction; only an aborted
// run is a 500.
func (h *SpeedTestHandler) SpeedTest(w http.ResponseWriter, r *http.Request) {
	// The server-wide write timeout is far shorter than a full probe.
	deadline := time.Now().Add(h.prober.Timeout()*2 + deadlineSlack)
	if err := http.NewResponseController(w).SetWriteDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn("failed to extend write deadline", "error", err)
	}

	h.logger.Info("speed test started")

	result, err := h.prober.Run(r.Context(), h.prober.DefaultOptions())
	if err != nil {
		h.logger.Error("speed test failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.SpeedTestResponse{
			Success: false,
			Error:   "Speed test failed",
		})
		return
	}

	h.logger.Info("speed test completed",
		"download_mbps", result.DownloadMbps,
		"upload_mbps", result.UploadMbps,
	)

	writeJSON(w, http.StatusOK, dto.SpeedTestResponse{
		Success:       true,
		DownloadSpeed: result.DownloadMbps,
		UploadSpeed:   result.UploadMbps,
		Unit:          "Mbps",
	})
}
