package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/muurk/bobil/internal/heater"
	"github.com/muurk/bobil/internal/logging"
)

// refreshKey is the single-flight key; a coordinator only ever has one fetch.
const refreshKey = "refresh"

// Fetcher produces a fresh snapshot. *heater.Client implements it.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (*heater.Snapshot, error)
}

// Outcome describes how a refresh cycle ended.
type Outcome string

const (
	// OutcomeSuccess means a new snapshot was fetched and published
	OutcomeSuccess Outcome = "success"
	// OutcomeFallback means a communication error was masked by the cache
	OutcomeFallback Outcome = "fallback"
	// OutcomeFailed means the refresh surfaced an UpdateFailedError
	OutcomeFailed Outcome = "failed"
)

// Recorder observes refresh cycles, e.g. to export metrics.
type Recorder interface {
	RecordRefresh(outcome Outcome, duration time.Duration)
	RecordSnapshot(snapshot *heater.Snapshot)
}

// UpdateFailedError is returned by Refresh when no snapshot could be
// published: either an API error, or a communication error before any fetch
// ever succeeded.
type UpdateFailedError struct {
	Err error
}

func (e *UpdateFailedError) Error() string {
	return "update failed: " + e.Err.Error()
}

func (e *UpdateFailedError) Unwrap() error {
	return e.Err
}

// IsUpdateFailed reports whether err is (or wraps) an UpdateFailedError.
func IsUpdateFailed(err error) bool {
	var failed *UpdateFailedError
	return errors.As(err, &failed)
}

// Update is delivered to subscribers after every refresh cycle.
type Update struct {
	// Snapshot is the published snapshot, nil when the refresh failed
	Snapshot *heater.Snapshot
	// Stale is true when Snapshot is the cached one re-published after a
	// communication error
	Stale bool
	// Cause is the communication error that was masked (Stale only)
	Cause error
	// Err is the UpdateFailedError for failed refreshes
	Err error
	// At is when the refresh cycle completed
	At time.Time
}

// Coordinator owns the last known good snapshot of one heater and refreshes
// it periodically or on demand.
//
// Concurrent Refresh calls collapse into a single fetch and all callers see
// the same result. A communication error is masked by re-publishing the last
// successful snapshot; API errors are never masked.
type Coordinator struct {
	fetcher  Fetcher
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time

	group singleflight.Group

	// mu guards the two cache slots
	mu             sync.RWMutex
	lastSuccessful *heater.Snapshot
	current        *heater.Snapshot
	lastErr        error

	subMu       sync.Mutex
	subscribers map[int]chan Update
	nextSubID   int
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLogger sets the logger. Defaults to the global logging logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithRecorder attaches a Recorder that observes every refresh.
func WithRecorder(recorder Recorder) Option {
	return func(c *Coordinator) {
		c.recorder = recorder
	}
}

// New creates a coordinator with an empty cache.
func New(fetcher Fetcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		fetcher:     fetcher,
		now:         time.Now,
		subscribers: make(map[int]chan Update),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.GetLogger()
	}
	return c
}

// Current returns the published snapshot. ok is false until the first
// successful fetch.
func (c *Coordinator) Current() (snapshot *heater.Snapshot, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.current != nil
}

// LastSuccessful returns the snapshot of the most recent successful fetch.
func (c *Coordinator) LastSuccessful() (snapshot *heater.Snapshot, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSuccessful, c.lastSuccessful != nil
}

// LastError returns the error of the most recent failed refresh, or nil if
// the most recent refresh published a snapshot.
func (c *Coordinator) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Refresh fetches a new snapshot, or joins the fetch already in flight.
//
// It returns the published snapshot (possibly the cached one after a
// communication error) or an *UpdateFailedError. If ctx ends first Refresh
// returns ctx.Err(); the shared fetch still completes for other callers. A ctx
// that is already done returns at once without fetching.
func (c *Coordinator) Refresh(ctx context.Context) (*heater.Snapshot, error) {
	// A caller that has already given up must not start a detached fetch
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(refreshKey, func() (any, error) {
		return c.refresh(fetchCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*heater.Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// refresh runs one fetch and applies the fallback policy.
func (c *Coordinator) refresh(ctx context.Context) (*heater.Snapshot, error) {
	start := c.now()
	snapshot, err := c.fetcher.FetchSnapshot(ctx)
	duration := c.now().Sub(start)

	if err == nil {
		c.mu.Lock()
		changed := c.lastSuccessful == nil || !c.lastSuccessful.SameMeasurements(snapshot)
		c.lastSuccessful = snapshot
		c.current = snapshot
		c.lastErr = nil
		c.mu.Unlock()

		c.logger.Debug("Heater snapshot refreshed",
			zap.Duration("duration", duration),
			zap.Bool("changed", changed),
			zap.Int("fields", len(snapshot.Fields())),
		)
		c.record(OutcomeSuccess, duration, snapshot)
		c.publish(Update{Snapshot: snapshot, At: c.now()})
		return snapshot, nil
	}

	if heater.IsCommunicationError(err) {
		c.mu.Lock()
		cached := c.lastSuccessful
		if cached != nil {
			c.current = cached
			c.lastErr = nil
		}
		c.mu.Unlock()

		if cached != nil {
			c.logger.Warn("Communication error with heater, using cached data",
				zap.Time("cached_at", cached.LastUpdate),
				zap.Error(err),
			)
			c.record(OutcomeFallback, duration, cached)
			c.publish(Update{Snapshot: cached, Stale: true, Cause: err, At: c.now()})
			return cached, nil
		}
	}

	failed := &UpdateFailedError{Err: err}

	c.mu.Lock()
	c.lastErr = failed
	c.mu.Unlock()

	c.logger.Error("Heater refresh failed",
		zap.Bool("communication_error", heater.IsCommunicationError(err)),
		zap.Error(err),
	)
	c.record(OutcomeFailed, duration, nil)
	c.publish(Update{Err: failed, At: c.now()})
	return nil, failed
}

func (c *Coordinator) record(outcome Outcome, duration time.Duration, snapshot *heater.Snapshot) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordRefresh(outcome, duration)
	if snapshot != nil {
		c.recorder.RecordSnapshot(snapshot)
	}
}

// Run refreshes immediately and then once per interval until ctx is done.
// Failures are logged by the refresh itself and do not stop the loop.
func (c *Coordinator) Run(ctx context.Context, interval time.Duration) {
	c.logger.Info("Starting heater polling", zap.Duration("interval", interval))

	_, _ = c.Refresh(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Heater polling stopped")
			return
		case <-t.C:
			_, _ = c.Refresh(ctx)
		}
	}
}
