// Package telemetry records page and hostel view counts in an ephemeral
// store and answers "what is trending" queries. Telemetry is advisory:
// no entry point in this package returns a store error to its caller.
package telemetry

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/hostelreview/hostelreview/internal/metrics"
)

// State is the connection state of a Client.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

const (
	// DefaultMaxReconnects bounds a single reconnect cycle.
	DefaultMaxReconnects = 10

	reconnectInitialInterval = 100 * time.Millisecond
	reconnectMaxInterval     = 3 * time.Second
	pingTimeout              = 2 * time.Second
	readyHookTimeout         = 30 * time.Second
)

// ClientOptions configures the Redis connection.
type ClientOptions struct {
	Addr          string
	Password      string
	TLS           bool
	TLSSkipVerify bool
	MaxReconnects int
}

// Client owns the Redis connection and its Disconnected -> Connecting -> Ready
// state machine. A fatal connection error while Ready moves the client back to
// Disconnected and starts a fresh bounded reconnect cycle. When a cycle runs
// out of attempts the client stays Disconnected.
type Client struct {
	rdb     *redis.Client
	ping    func(ctx context.Context) error
	logger  *slog.Logger
	metrics metrics.Recorder

	maxReconnects   int
	initialInterval time.Duration
	maxInterval     time.Duration

	state        atomic.Int32
	reconnecting atomic.Bool

	mu      sync.Mutex
	onReady []func(ctx context.Context)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient creates a Client for the given options. It does not connect;
// call Start to begin the first connect cycle.
func NewClient(opts ClientOptions, logger *slog.Logger, recorder metrics.Recorder) *Client {
	redisOpts := &redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		MaxRetries:   1,

		// Connection pool settings
		PoolSize:        10,
		MinIdleConns:    2,
		PoolTimeout:     time.Second,
		ConnMaxIdleTime: 5 * time.Minute,
	}

	if opts.TLS {
		host, _, err := net.SplitHostPort(opts.Addr)
		if err != nil {
			host = opts.Addr
		}
		redisOpts.TLSConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			ServerName:         host,
			InsecureSkipVerify: opts.TLSSkipVerify, //nolint:gosec // managed caches may present self-signed certs
		}
	}

	rdb := redis.NewClient(redisOpts)
	c := newClient(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }, opts.MaxReconnects, logger, recorder)
	c.rdb = rdb
	return c
}

func newClient(ping func(ctx context.Context) error, maxReconnects int, logger *slog.Logger, recorder metrics.Recorder) *Client {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if maxReconnects <= 0 {
		maxReconnects = DefaultMaxReconnects
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		ping:            ping,
		logger:          logger.With("component", "telemetry.client"),
		metrics:         recorder,
		maxReconnects:   maxReconnects,
		initialInterval: reconnectInitialInterval,
		maxInterval:     reconnectMaxInterval,
		ctx:             ctx,
		cancel:          cancel,
	}
	c.metrics.SetTelemetryState(StateDisconnected.String())
	return c
}

// OnReady registers fn to run every time the client becomes Ready.
func (c *Client) OnReady(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReady = append(c.onReady, fn)
}

// Start begins the first connect cycle in the background.
func (c *Client) Start() {
	c.reconnect()
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Ready reports whether commands may be issued.
func (c *Client) Ready() bool {
	return c.State() == StateReady
}

// Redis returns the underlying client.
// Use sparingly - prefer going through a Backend.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.ping(ctx)
}

// ReportError inspects a command error. Connection-level failures while Ready
// move the client to Disconnected and start a new reconnect cycle.
func (c *Client) ReportError(err error) {
	if !isConnectionError(err) {
		return
	}
	if !c.state.CompareAndSwap(int32(StateReady), int32(StateDisconnected)) {
		return
	}
	c.metrics.SetTelemetryState(StateDisconnected.String())
	c.logger.Warn("telemetry store connection lost", "error", err)
	c.reconnect()
}

// Close stops reconnect loops and closes the connection.
func (c *Client) Close() error {
	c.cancel()
	c.wg.Wait()
	c.setState(StateDisconnected)
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

func (c *Client) reconnect() {
	if c.ctx.Err() != nil {
		return
	}
	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}
	c.wg.Add(1)
	go c.connectLoop()
}

func (c *Client) connectLoop() {
	defer c.wg.Done()

	c.setState(StateConnecting)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.MaxInterval = c.maxInterval
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxReconnects)), c.ctx)

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		ctx, cancel := context.WithTimeout(c.ctx, pingTimeout)
		defer cancel()
		return c.ping(ctx)
	}, policy, func(err error, wait time.Duration) {
		c.logger.Warn("telemetry store connect failed",
			"attempt", attempt,
			"retry_in", wait,
			"error", err,
		)
	})

	if err != nil {
		c.setState(StateDisconnected)
		c.reconnecting.Store(false)
		if c.ctx.Err() != nil {
			return
		}
		c.logger.Error("telemetry store: max reconnection attempts reached, trending disabled",
			"attempts", attempt,
			"error", err,
		)
		return
	}

	// Release the flag before publishing Ready so a failure seen by a
	// ready hook can start the next cycle.
	c.reconnecting.Store(false)
	c.setState(StateReady)
	c.logger.Info("telemetry store ready", "attempts", attempt)

	c.mu.Lock()
	hooks := append([]func(context.Context){}, c.onReady...)
	c.mu.Unlock()

	for _, hook := range hooks {
		ctx, cancel := context.WithTimeout(c.ctx, readyHookTimeout)
		hook(ctx)
		cancel()
	}
}

func (c *Client) setState(s State) {
	if State(c.state.Swap(int32(s))) != s {
		c.metrics.SetTelemetryState(s.String())
	}
}

// isConnectionError reports whether err means the connection itself is gone,
// as opposed to a slow reply or a command-level error.
func isConnectionError(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}
	if errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return !netErr.Timeout()
	}
	return false
}
