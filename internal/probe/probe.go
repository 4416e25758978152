// Package probe measures download and upload throughput against a remote
// echo service such as speed.cloudflare.com.
package probe

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hostelreview/hostelreview/internal/metrics"
)

// Defaults match the public Cloudflare speed test endpoints.
const (
	DefaultBaseURL       = "https://speed.cloudflare.com"
	DefaultDownloadBytes = 25_000_000
	DefaultUploadBytes   = 10_000_000
	DefaultTimeout       = 60 * time.Second

	breakerFailures = 3
	breakerOpenFor  = 30 * time.Second
)

// Sentinel errors for probe transfers.
var (
	ErrUnexpectedStatus = errors.New("unexpected status from echo service")
	ErrShortBody        = errors.New("echo service returned fewer bytes than requested")
)

// Config configures a Prober.
type Config struct {
	BaseURL       string
	DownloadBytes int64
	UploadBytes   int64
	Timeout       time.Duration
	Parallel      bool
}

// Options selects the transfer sizes and mode for one Run.
// Zero sizes fall back to the Prober's configured sizes.
type Options struct {
	DownloadBytes int64
	UploadBytes   int64
	Parallel      bool
}

// Result is a pair of throughput samples in Mbps.
type Result struct {
	DownloadMbps float64
	UploadMbps   float64
}

// Prober runs throughput measurements. It is safe for concurrent use;
// each measurement owns its payload and timer.
type Prober struct {
	baseURL       string
	downloadBytes int64
	uploadBytes   int64
	timeout       time.Duration
	parallel      bool

	client  *http.Client
	breaker *gobreaker.CircuitBreaker[int64]
	logger  *slog.Logger
	metrics metrics.Recorder
}

// New creates a Prober. A nil client uses NewHTTPClient.
func New(cfg Config, client *http.Client, logger *slog.Logger, recorder metrics.Recorder) *Prober {
	if client == nil {
		client = NewHTTPClient()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.DownloadBytes == 0 {
		cfg.DownloadBytes = DefaultDownloadBytes
	}
	if cfg.UploadBytes == 0 {
		cfg.UploadBytes = DefaultUploadBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	logger = logger.With("component", "probe")

	breaker := gobreaker.NewCircuitBreaker[int64](gobreaker.Settings{
		Name:    "speedtest",
		Timeout: breakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation does not count against the remote.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("probe circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &Prober{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		downloadBytes: cfg.DownloadBytes,
		uploadBytes:   cfg.UploadBytes,
		timeout:       cfg.Timeout,
		parallel:      cfg.Parallel,
		client:        client,
		breaker:       breaker,
		logger:        logger,
		metrics:       recorder,
	}
}

// Timeout returns the per-measurement deadline.
func (p *Prober) Timeout() time.Duration {
	return p.timeout
}

// DefaultOptions returns the configured sizes and mode.
func (p *Prober) DefaultOptions() Options {
	return Options{
		DownloadBytes: p.downloadBytes,
		UploadBytes:   p.uploadBytes,
		Parallel:      p.parallel,
	}
}

// CalculateMbps converts a transfer into megabits per second rounded to two
// decimals. Non-positive inputs yield 0.
func CalculateMbps(bytes int64, elapsed time.Duration) float64 {
	if bytes <= 0 || elapsed <= 0 {
		return 0
	}
	mbps := float64(bytes) * 8 / elapsed.Seconds() / 1_000_000
	if math.IsNaN(mbps) || math.IsInf(mbps, 0) {
		return 0
	}
	return math.Round(mbps*100) / 100
}

// MeasureDownload fetches byteCount bytes and returns the rate in Mbps,
// or 0 on any failure.
func (p *Prober) MeasureDownload(ctx context.Context, byteCount int64) float64 {
	return p.measure(ctx, metrics.DirectionDownload, byteCount, func(ctx context.Context) (int64, error) {
		return p.download(ctx, byteCount)
	})
}

// MeasureUpload posts byteCount random bytes and returns the rate in Mbps,
// or 0 on any failure.
func (p *Prober) MeasureUpload(ctx context.Context, byteCount int64) float64 {
	if byteCount <= 0 {
		return 0
	}

	payload := make([]byte, byteCount)
	if _, err := rand.Read(payload); err != nil {
		p.logger.Error("failed to generate upload payload", "error", err)
		return 0
	}

	return p.measure(ctx, metrics.DirectionUpload, byteCount, func(ctx context.Context) (int64, error) {
		return p.upload(ctx, payload)
	})
}

// Run measures download then upload, or both at once when opts.Parallel
// is set. It fails only when ctx ends before the measurements finish.
func (p *Prober) Run(ctx context.Context, opts Options) (Result, error) {
	if opts.DownloadBytes == 0 {
		opts.DownloadBytes = p.downloadBytes
	}
	if opts.UploadBytes == 0 {
		opts.UploadBytes = p.uploadBytes
	}

	var result Result

	if opts.Parallel {
		var g errgroup.Group
		g.Go(func() error {
			result.DownloadMbps = p.MeasureDownload(ctx, opts.DownloadBytes)
			return nil
		})
		g.Go(func() error {
			result.UploadMbps = p.MeasureUpload(ctx, opts.UploadBytes)
			return nil
		})
		_ = g.Wait()
	} else {
		result.DownloadMbps = p.MeasureDownload(ctx, opts.DownloadBytes)
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("speed test interrupted: %w", err)
		}
		result.UploadMbps = p.MeasureUpload(ctx, opts.UploadBytes)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("speed test interrupted: %w", err)
	}
	return result, nil
}

type transferFunc func(ctx context.Context) (int64, error)

func (p *Prober) measure(ctx context.Context, direction string, byteCount int64, transfer transferFunc) float64 {
	if byteCount <= 0 {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	n, err := p.breaker.Execute(func() (int64, error) {
		return transfer(ctx)
	})
	elapsed := time.Since(start)

	if err != nil {
		p.metrics.ObserveProbe(direction, metrics.OutcomeFailed, 0, elapsed)
		p.logger.Warn("throughput measurement failed",
			"direction", direction,
			"bytes", byteCount,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return 0
	}

	mbps := CalculateMbps(n, elapsed)
	p.metrics.ObserveProbe(direction, metrics.OutcomeSuccess, mbps, elapsed)
	p.logger.Info("throughput measured",
		"direction", direction,
		"bytes", n,
		"duration_ms", elapsed.Milliseconds(),
		"mbps", mbps,
	)
	return mbps
}

func (p *Prober) download(ctx context.Context, byteCount int64) (int64, error) {
	url := p.baseURL + "/__down?bytes=" + strconv.FormatInt(byteCount, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build download request: %w", err)
	}
	setProbeHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("%w: HTTP %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return n, fmt.Errorf("read download body: %w", err)
	}
	if n < byteCount {
		return n, fmt.Errorf("%w: got %d of %d", ErrShortBody, n, byteCount)
	}
	return n, nil
}

func (p *Prober) upload(ctx context.Context, payload []byte) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/__up", bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build upload request: %w", err)
	}
	setProbeHeaders(req)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("%w: HTTP %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return int64(len(payload)), nil
}
