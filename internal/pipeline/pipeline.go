package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/radar-composite/internal/job"
	"github.com/couchcryptid/radar-composite/internal/observability"
)

// JobSource reads up to batchSize composite job messages from the broker.
type JobSource interface {
	FetchJobs(ctx context.Context, batchSize int) ([]job.Raw, error)
}

// Processor generates the composite a job message asks for and describes
// the stored product.
type Processor interface {
	Process(ctx context.Context, raw job.Raw) (job.Completion, error)
}

// CompletionPublisher announces finished products.
type CompletionPublisher interface {
	PublishCompletions(ctx context.Context, done []job.Completion) error
}

// Pipeline consumes composite jobs, generates each product and publishes a
// completion notice for it.
type Pipeline struct {
	source    JobSource
	processor Processor
	publisher CompletionPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	batchSize int
}

// New creates a Pipeline reading jobs from src and announcing products on pub.
func New(src JobSource, p Processor, pub CompletionPublisher, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		source:    src,
		processor: p,
		publisher: pub,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// CheckReadiness returns nil once a completion notice has been published.
// Failed jobs alone never make the pipeline ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not produced any composites yet")
	}
	return nil
}

// Run consumes jobs until the context is cancelled. Broker failures are
// retried with backoff and never end the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// 200ms doubling to 5s between failed broker round trips.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch fetches one batch of jobs and generates it. Returns false if
// the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	jobs, err := p.source.FetchJobs(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("fetch jobs failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(jobs) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.JobsConsumed.Add(float64(len(jobs)))
	p.metrics.BatchSize.Observe(float64(len(jobs)))
	*backoff = 200 * time.Millisecond

	loaded, ok := p.generateAndPublish(ctx, jobs, backoff, maxBackoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// generateAndPublish generates each job in the batch and publishes the
// completions. A job that cannot be decoded or generated is a poison message:
// its offset is committed at once so it is never redelivered. Offsets of
// generated jobs are committed only after their completions are published,
// so a publish failure leaves them for redelivery.
func (p *Pipeline) generateAndPublish(ctx context.Context, jobs []job.Raw, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	done := make([]job.Completion, 0, len(jobs))
	succeeded := make([]job.Raw, 0, len(jobs))

	for _, raw := range jobs {
		c, err := p.processor.Process(ctx, raw)
		if err != nil {
			if ctx.Err() != nil {
				return 0, false
			}
			p.logger.Warn("composite job failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.JobErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		done = append(done, c)
		succeeded = append(succeeded, raw)
	}

	if len(done) == 0 {
		return 0, true
	}

	if err := p.publisher.PublishCompletions(ctx, done); err != nil {
		p.logger.Error("publish completions failed", "error", err, "batch_size", len(done))
		return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.JobsProduced.Add(float64(len(done)))

	for _, raw := range succeeded {
		p.commitOffset(ctx, raw)
	}

	return len(done), true
}

// backoffOrStop sleeps with the current backoff and advances it. Returns
// false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func (p *Pipeline) commitOffset(ctx context.Context, raw job.Raw) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
