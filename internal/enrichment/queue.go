// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package enrichment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/cache"
	"github.com/tomtom215/lineup/internal/logging"
	"github.com/tomtom215/lineup/internal/metrics"
	"github.com/tomtom215/lineup/internal/models"
)

// Topic carries enrichment jobs.
const Topic = "artist.enrich"

// ErrQueueClosed is returned by Serve, Ready and Publish after Close.
var ErrQueueClosed = errors.New("enrichment queue closed")

const (
	handlerName          = "enrich-artist"
	correlationMetadata  = "correlation_id"
	defaultBuffer        = 256
	defaultDedupTTL      = 10 * time.Minute
	defaultCloseTimeout  = 30 * time.Second
	defaultRetryInterval = time.Second
)

// Job asks for one artist to be enriched.
type Job struct {
	ArtistID   string `json:"artist_id"`
	FestivalID string `json:"festival_id,omitempty"`
}

// Processor enriches one stored artist.
type Processor interface {
	EnrichByID(ctx context.Context, id string) error
}

// QueueConfig tunes Queue. Zero values take defaults.
type QueueConfig struct {
	// Buffer is the gochannel output buffer.
	Buffer int

	// RetryMaxRetries bounds retries of transient failures. Negative
	// disables retries.
	RetryMaxRetries      int
	RetryInitialInterval time.Duration

	// DedupTTL is how long an artist ID stays deduplicated after publish.
	DedupTTL time.Duration

	CloseTimeout time.Duration
}

// DefaultQueueConfig returns production defaults.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		Buffer:               defaultBuffer,
		RetryMaxRetries:      3,
		RetryInitialInterval: defaultRetryInterval,
		DedupTTL:             defaultDedupTTL,
		CloseTimeout:         defaultCloseTimeout,
	}
}

// Queue is the asynchronous enrichment queue. The pub/sub lives as long as
// the queue; each Serve call builds and runs its own router, so a
// supervisor can restart it.
type Queue struct {
	cfg      QueueConfig
	pubsub   *gochannel.GoChannel
	wmLogger watermill.LoggerAdapter
	proc     Processor
	seen     *cache.RecentKeys
	logger   zerolog.Logger

	mu      sync.Mutex
	pending int
	idle    chan struct{}
	router  *message.Router
	// ready closes once the serving router consumes. Between runs it
	// closes when the next router is installed or the queue is closed.
	ready  chan struct{}
	closed bool
}

// NewQueue wires the pub/sub. Call Serve to start consuming.
func NewQueue(cfg QueueConfig, proc Processor, logger zerolog.Logger) (*Queue, error) {
	if proc == nil {
		return nil, models.NewOpError(models.KindConfiguration, "new_queue", "", errors.New("enrichment processor is required"))
	}

	d := DefaultQueueConfig()
	if cfg.Buffer <= 0 {
		cfg.Buffer = d.Buffer
	}
	if cfg.RetryMaxRetries == 0 {
		cfg.RetryMaxRetries = d.RetryMaxRetries
	} else if cfg.RetryMaxRetries < 0 {
		cfg.RetryMaxRetries = 0
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = d.RetryInitialInterval
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = d.DedupTTL
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = d.CloseTimeout
	}

	logger = logger.With().Str("component", "enrichment_queue").Logger()
	wmLogger := watermill.NewSlogLogger(slog.New(logging.NewSlogHandler(logger)))

	idle := make(chan struct{})
	close(idle)
	return &Queue{
		cfg: cfg,
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: int64(cfg.Buffer),
		}, wmLogger),
		wmLogger: wmLogger,
		proc:     proc,
		seen:     cache.NewRecentKeys(0, cfg.DedupTTL),
		logger:   logger,
		idle:     idle,
		ready:    make(chan struct{}),
	}, nil
}

func (q *Queue) newRouter() (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: q.cfg.CloseTimeout}, q.wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	// Outer to inner: settle every message exactly once, recover panics,
	// retry transient failures.
	router.AddMiddleware(q.settle)
	router.AddMiddleware(middleware.Recoverer)
	if q.cfg.RetryMaxRetries > 0 {
		retry := middleware.Retry{
			MaxRetries:      q.cfg.RetryMaxRetries,
			InitialInterval: q.cfg.RetryInitialInterval,
			MaxInterval:     q.cfg.RetryInitialInterval * 16,
			Multiplier:      2.0,
			Logger:          q.wmLogger,
		}
		router.AddMiddleware(retry.Middleware)
	}

	router.AddNoPublisherHandler(handlerName, Topic, q.pubsub, q.handle)
	return router, nil
}

// Serve runs a fresh router until ctx is cancelled. It implements
// suture.Service and may be called again after it returns.
func (q *Queue) Serve(ctx context.Context) error {
	router, err := q.newRouter()
	if err != nil {
		return err
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	if q.router != nil {
		q.mu.Unlock()
		return errors.New("enrichment queue is already serving")
	}
	q.router = router
	running := make(chan struct{})
	var markRunning sync.Once
	wake := func() { markRunning.Do(func() { close(running) }) }
	close(q.ready)
	q.ready = running
	q.mu.Unlock()

	stop := make(chan struct{})
	go func() {
		select {
		case <-router.Running():
			wake()
		case <-stop:
		}
	}()

	q.logger.Info().Msg("Enrichment queue started")
	defer q.logger.Info().Msg("Enrichment queue stopped")

	runErr := router.Run(ctx)
	close(stop)

	q.mu.Lock()
	q.router = nil
	q.ready = make(chan struct{})
	q.mu.Unlock()
	// Waiters on this run re-check state and move to the new channel.
	wake()

	if runErr != nil {
		return fmt.Errorf("enrichment router: %w", runErr)
	}
	if q.isClosed() {
		return ErrQueueClosed
	}
	return ctx.Err()
}

// String names the service in supervisor logs.
func (q *Queue) String() string { return "enrichment-queue" }

// Ready blocks until a router is consuming or ctx ends.
func (q *Queue) Ready(ctx context.Context) error {
	for {
		q.mu.Lock()
		ready, serving, closed := q.ready, q.router != nil, q.closed
		q.mu.Unlock()
		if closed {
			return ErrQueueClosed
		}

		select {
		case <-ready:
			if serving && q.serving(ready) {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// serving reports whether ready still belongs to the running router.
func (q *Queue) serving(ready chan struct{}) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.router != nil && q.ready == ready
}

// Publish queues jobs. Artists queued within the dedup TTL are skipped.
// Publish waits for a router to be running.
func (q *Queue) Publish(ctx context.Context, jobs ...Job) (int, error) {
	if err := q.Ready(ctx); err != nil {
		return 0, err
	}

	queued := 0
	correlationID := logging.CorrelationIDFromContext(ctx)
	for _, job := range jobs {
		if job.ArtistID == "" {
			continue
		}
		if dup, _ := q.seen.IsDuplicate(ctx, job.ArtistID); dup {
			continue
		}

		payload, err := json.Marshal(job)
		if err != nil {
			q.seen.Forget(job.ArtistID)
			return queued, fmt.Errorf("marshal job: %w", err)
		}
		msg := message.NewMessage(watermill.NewUUID(), payload)
		if correlationID != "" {
			msg.Metadata.Set(correlationMetadata, correlationID)
		}

		q.track()
		if err := q.pubsub.Publish(Topic, msg); err != nil {
			q.done()
			q.seen.Forget(job.ArtistID)
			return queued, fmt.Errorf("publish job: %w", err)
		}
		metrics.EnrichmentQueued.Inc()
		queued++
	}
	return queued, nil
}

// Wait blocks until every published job has settled or ctx ends.
func (q *Queue) Wait(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the serving router, if any, and the pub/sub. A queue that
// was never served closes immediately.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	router := q.router
	if router == nil {
		close(q.ready)
	}
	q.mu.Unlock()

	var rerr error
	if router != nil {
		rerr = router.Close()
	}
	perr := q.pubsub.Close()
	if rerr != nil {
		return rerr
	}
	return perr
}

func (q *Queue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue) handle(msg *message.Message) error {
	var job Job
	if err := json.Unmarshal(msg.Payload, &job); err != nil || job.ArtistID == "" {
		q.logger.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed enrichment job")
		metrics.RecordEnrichment(ResultFailed)
		return nil
	}

	ctx := msg.Context()
	if id := msg.Metadata.Get(correlationMetadata); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}

	err := q.proc.EnrichByID(ctx, job.ArtistID)
	if err != nil && models.KindOf(err) == models.KindTransientFetch {
		return err
	}
	if err != nil {
		logger := logging.Annotate(ctx, q.logger)
		logger.Warn().Err(err).Str("artist_id", job.ArtistID).Msg("Enrichment failed permanently")
	}
	return nil
}

// settle acknowledges every message after retries are exhausted, so the
// gochannel never redelivers, and releases the dedup slot of failures.
func (q *Queue) settle(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		defer q.done()

		produced, err := h(msg)
		if err != nil {
			var job Job
			if json.Unmarshal(msg.Payload, &job) == nil {
				q.seen.Forget(job.ArtistID)
			}
			q.logger.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Enrichment job failed after retries")
		}
		return produced, nil
	}
}

func (q *Queue) track() {
	q.mu.Lock()
	if q.pending == 0 {
		q.idle = make(chan struct{})
	}
	q.pending++
	q.mu.Unlock()
}

func (q *Queue) done() {
	q.mu.Lock()
	q.pending--
	if q.pending == 0 {
		close(q.idle)
	}
	q.mu.Unlock()
}
