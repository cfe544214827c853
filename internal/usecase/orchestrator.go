package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"
	"time"

	"github.com/user/bfs-crawler/internal/entity"
	"github.com/user/bfs-crawler/internal/repository"
	"github.com/user/bfs-crawler/pkg/metrics"
	"go.uber.org/zap"
)

// ErrNoStartURLs aborts a run that has neither seed file entries nor fallback start URLs.
var ErrNoStartURLs = errors.New("no start URLs defined: provide an input file or startUrls")

// Executor runs a single crawl job.
type Executor interface {
	Execute(ctx context.Context, job entity.Job) (*ExecutionResult, error)
}

// State is the lifecycle phase of a run.
type State int32

const (
	StateSeeding State = iota
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateSeeding:
		return "seeding"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// OrchestratorDeps are the collaborators of one run.
type OrchestratorDeps struct {
	RunID     string
	Frontier  repository.FrontierRepository
	Executor  Executor
	Seeds     repository.SeedRepository
	Sinks     []repository.ResultSink
	Limits    entity.CrawlLimits
	StartURLs []string // used when Seeds yields nothing
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Orchestrator owns the frontier and statistics of a single crawl run and
// processes jobs one at a time in FIFO order.
type Orchestrator struct {
	deps   OrchestratorDeps
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration)

	state   atomic.Int32
	queued  atomic.Int64
	crawled atomic.Int64
	failed  atomic.Int64
}

// NewOrchestrator creates an orchestrator for one run.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Orchestrator{
		deps:   deps,
		logger: deps.Logger.Named("orchestrator").With(zap.String("run_id", deps.RunID)),
		sleep:  sleepContext,
	}
}

// Stats returns a snapshot of the run's counters. It is safe to call while Run is in progress.
func (o *Orchestrator) Stats() entity.CrawlStats {
	return entity.CrawlStats{
		Queued:  int(o.queued.Load()),
		Crawled: int(o.crawled.Load()),
		Failed:  int(o.failed.Load()),
	}
}

// State returns the current lifecycle phase.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Status returns the run ID, phase and counters.
func (o *Orchestrator) Status() entity.RunStatus {
	return entity.RunStatus{RunID: o.deps.RunID, State: o.State().String(), Stats: o.Stats()}
}

// Run seeds the frontier, processes jobs until it is empty and hands the output
// to every sink. Only ErrNoStartURLs and frontier backend errors are returned;
// job failures are counted and logged. Cancelling ctx stops the run after the
// current job; the partial output is still written.
func (o *Orchestrator) Run(ctx context.Context) (*entity.CrawlOutput, error) {
	o.state.Store(int32(StateSeeding))
	defer func() {
		if err := o.deps.Frontier.Close(context.WithoutCancel(ctx)); err != nil {
			o.logger.Warn("failed to release frontier", zap.Error(err))
		}
	}()

	if err := o.seed(ctx); err != nil {
		o.state.Store(int32(StateDone))
		return nil, err
	}

	o.state.Store(int32(StateRunning))
	output := &entity.CrawlOutput{RunID: o.deps.RunID, Results: []entity.PageResult{}}
	if err := o.loop(ctx, output); err != nil {
		o.state.Store(int32(StateDone))
		return nil, err
	}

	o.state.Store(int32(StateDone))
	output.Stats = o.Stats()
	o.logger.Info("crawl finished",
		zap.Int("queued", output.Stats.Queued),
		zap.Int("crawled", output.Stats.Crawled),
		zap.Int("failed", output.Stats.Failed),
	)

	o.save(context.WithoutCancel(ctx), output)
	return output, nil
}

func (o *Orchestrator) seed(ctx context.Context) error {
	startURLs := o.resolveStartURLs(ctx)
	if len(startURLs) == 0 {
		return ErrNoStartURLs
	}
	for _, u := range startURLs {
		if err := o.enqueue(ctx, entity.NewSeedJob(u)); err != nil {
			return fmt.Errorf("failed to enqueue seed %s: %w", u, err)
		}
	}
	o.logger.Info("frontier seeded", zap.Int("seeds", len(startURLs)))
	return nil
}

// resolveStartURLs prefers the seed source and falls back to the configured list
// when the source is missing, unreadable or empty.
func (o *Orchestrator) resolveStartURLs(ctx context.Context) []string {
	if o.deps.Seeds != nil {
		urls, err := o.deps.Seeds.Load(ctx)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			o.logger.Debug("seed file not found, using configured start URLs")
		case err != nil:
			o.logger.Warn("failed to read seed file, using configured start URLs", zap.Error(err))
		case len(urls) > 0:
			return urls
		}
	}
	return append([]string(nil), o.deps.StartURLs...)
}

func (o *Orchestrator) loop(ctx context.Context, output *entity.CrawlOutput) error {
	limits := o.deps.Limits
	processed := 0

	for {
		if err := ctx.Err(); err != nil {
			o.logger.Warn("crawl cancelled", zap.Error(err))
			return nil
		}
		if limits.MaxPages > 0 && processed >= limits.MaxPages {
			remaining, _ := o.deps.Frontier.Len(ctx)
			o.logger.Info("page budget reached", zap.Int("max_pages", limits.MaxPages), zap.Int64("dropped_jobs", remaining))
			return nil
		}

		job, err := o.deps.Frontier.Dequeue(ctx)
		if errors.Is(err, repository.ErrFrontierEmpty) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to dequeue job: %w", err)
		}
		o.observeQueue(ctx)

		visited, err := o.deps.Frontier.IsVisited(ctx, job.URL)
		if err != nil {
			return fmt.Errorf("failed to check visited state of %s: %w", job.URL, err)
		}
		if visited {
			o.deps.Metrics.JobsTotal.WithLabelValues("skipped").Inc()
			continue
		}
		if err := o.deps.Frontier.MarkVisited(ctx, job.URL); err != nil {
			return fmt.Errorf("failed to mark %s visited: %w", job.URL, err)
		}

		processed++
		if err := o.process(ctx, job, output); err != nil {
			return err
		}

		if limits.DelayMs > 0 {
			o.sleep(ctx, time.Duration(limits.DelayMs)*time.Millisecond)
		}
	}
}

// process executes one job and records its outcome. Only frontier errors are returned.
func (o *Orchestrator) process(ctx context.Context, job entity.Job, output *entity.CrawlOutput) error {
	startTime := time.Now()
	result, execErr := o.deps.Executor.Execute(ctx, job)
	duration := time.Since(startTime)

	if execErr != nil && ctx.Err() != nil && errors.Is(execErr, ctx.Err()) {
		o.logger.Info("job interrupted by cancellation", zap.String("url", job.URL), zap.Int("depth", job.Depth))
		return nil
	}
	if execErr != nil {
		o.failed.Add(1)
		o.deps.Metrics.JobsTotal.WithLabelValues("failed").Inc()
		o.deps.Metrics.JobDuration.WithLabelValues("failed").Observe(duration.Seconds())
		o.logger.Error("failed to crawl", zap.String("url", job.URL), zap.Int("depth", job.Depth), zap.Error(execErr))
		output.Failures = append(output.Failures, entity.FailedURL{
			URL:                  job.URL,
			Depth:                job.Depth,
			Label:                job.Label,
			FailureReason:        execErr.Error(),
			LastAttemptTimestamp: time.Now().UTC(),
		})
		return nil
	}

	output.Results = append(output.Results, result.Page)
	o.crawled.Add(1)
	o.deps.Metrics.JobsTotal.WithLabelValues("crawled").Inc()
	o.deps.Metrics.JobDuration.WithLabelValues("crawled").Observe(duration.Seconds())

	// A cancelled run keeps the page but does not expand it.
	if ctx.Err() != nil {
		o.logger.Info("page crawled, link expansion skipped after cancellation", zap.String("url", job.URL), zap.Int("depth", job.Depth))
		return nil
	}

	children, err := FilterLinks(ctx, result.DiscoveredURLs, o.deps.Limits, o.deps.Frontier, job.Depth)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := o.enqueue(ctx, child); err != nil {
			return fmt.Errorf("failed to enqueue %s: %w", child.URL, err)
		}
	}
	o.logger.Info("page crawled",
		zap.String("url", job.URL),
		zap.Int("depth", job.Depth),
		zap.Int("status", result.Page.ResponseStatus),
		zap.Int("discovered", len(result.DiscoveredURLs)),
		zap.Int("enqueued", len(children)),
		zap.Int64("duration_ms", duration.Milliseconds()),
	)
	return nil
}

func (o *Orchestrator) enqueue(ctx context.Context, job entity.Job) error {
	if err := o.deps.Frontier.Enqueue(ctx, job); err != nil {
		return err
	}
	o.queued.Add(1)
	o.deps.Metrics.JobsQueuedTotal.Inc()
	o.observeQueue(ctx)
	return nil
}

func (o *Orchestrator) observeQueue(ctx context.Context) {
	if n, err := o.deps.Frontier.Len(ctx); err == nil {
		o.deps.Metrics.URLsInQueue.Set(float64(n))
	}
}

// save hands the output to every sink. Sink failures never affect the returned output.
func (o *Orchestrator) save(ctx context.Context, output *entity.CrawlOutput) {
	for _, sink := range o.deps.Sinks {
		if err := sink.Save(ctx, output); err != nil {
			o.logger.Error("failed to save crawl output", zap.String("sink", sink.Name()), zap.Error(err))
			continue
		}
		o.logger.Info("crawl output saved", zap.String("sink", sink.Name()), zap.Int("results", len(output.Results)))
	}
}

// sleepContext pauses for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
