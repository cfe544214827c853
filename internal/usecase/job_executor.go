package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/bfs-crawler/internal/entity"
	"github.com/user/bfs-crawler/internal/pagefunc"
	"github.com/user/bfs-crawler/internal/repository"
	"github.com/user/bfs-crawler/pkg/utils"
	"go.uber.org/zap"
)

// ErrExecution wraps every error that makes a job fail.
var ErrExecution = errors.New("job execution failed")

// ExecutorOptions configures every rendering session the executor opens.
type ExecutorOptions struct {
	UserAgent      string
	Viewport       *entity.Viewport
	Cookies        []entity.Cookie
	BlockResources []string
	PageFunction   pagefunc.Func
}

// ExecutionResult is the outcome of one successfully executed job.
type ExecutionResult struct {
	Page           entity.PageResult
	DiscoveredURLs []string
}

// JobExecutor drives one job through the renderer.
type JobExecutor struct {
	renderer repository.Renderer
	rotator  repository.ProxyRotator
	opts     ExecutorOptions
	logger   *zap.Logger
	now      func() time.Time
}

// NewJobExecutor creates a new job executor. A zero PageFunction means pagefunc.Default.
func NewJobExecutor(renderer repository.Renderer, rotator repository.ProxyRotator, opts ExecutorOptions, logger *zap.Logger) *JobExecutor {
	if opts.PageFunction.Script == "" && opts.PageFunction.Document == nil {
		opts.PageFunction = pagefunc.Default
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobExecutor{
		renderer: renderer,
		rotator:  rotator,
		opts:     opts,
		logger:   logger.Named("executor"),
		now:      time.Now,
	}
}

// Execute renders job.URL, runs the page function and collects outbound links.
//
// Launch, page creation, session configuration and navigation errors fail the
// job with ErrExecution. Page function and link discovery errors are logged and
// degrade to a nil result and an empty link list. The page and the instance are
// released on every path; release errors are only logged.
func (e *JobExecutor) Execute(ctx context.Context, job entity.Job) (*ExecutionResult, error) {
	log := e.logger.With(zap.String("url", job.URL))

	proxyURL := e.rotator.NextProxy()
	args := e.rotator.BuildLaunchArgs(proxyURL)
	log.Debug("launching renderer", zap.Strings("args", redactLaunchArgs(args)))

	instance, err := e.renderer.Launch(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("%w: launch renderer: %w", ErrExecution, err)
	}
	defer func() {
		if err := instance.Exit(); err != nil {
			log.Warn("failed to exit renderer instance", zap.Error(err))
		}
	}()

	page, err := instance.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create page: %w", ErrExecution, err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warn("failed to close page", zap.Error(err))
		}
	}()

	if err := e.configure(ctx, page); err != nil {
		return nil, fmt.Errorf("%w: configure page: %w", ErrExecution, err)
	}

	requestedAt := e.now().UTC()
	log.Info("opening URL")
	status, err := page.Navigate(ctx, job.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: navigate: %w", ErrExecution, err)
	}
	if status < 0 {
		status = 0
	}

	result, err := page.Evaluate(ctx, e.opts.PageFunction, string(job.Label))
	if err != nil {
		log.Error("page function failed", zap.String("page_function", e.opts.PageFunction.Name), zap.Error(err))
		result = nil
	}

	var links []string
	rawLinks, err := page.Evaluate(ctx, pagefunc.Links)
	if err != nil {
		log.Error("link discovery failed", zap.Error(err))
	} else {
		links = toStrings(rawLinks)
	}

	var proxy *string
	if proxyURL != "" {
		proxy = &proxyURL
	}

	return &ExecutionResult{
		Page: entity.PageResult{
			LoadedURL:          job.URL,
			RequestedAt:        requestedAt,
			Label:              job.Label,
			PageFunctionResult: result,
			ResponseStatus:     status,
			Method:             entity.MethodGET,
			Proxy:              proxy,
		},
		DiscoveredURLs: links,
	}, nil
}

func (e *JobExecutor) configure(ctx context.Context, page repository.Page) error {
	if e.opts.UserAgent != "" {
		if err := page.SetUserAgent(ctx, e.opts.UserAgent); err != nil {
			return fmt.Errorf("set user agent: %w", err)
		}
	}
	if vp := e.opts.Viewport; vp != nil && vp.Width > 0 && vp.Height > 0 {
		if err := page.SetViewport(ctx, *vp); err != nil {
			return fmt.Errorf("set viewport: %w", err)
		}
	}
	if len(e.opts.BlockResources) > 0 {
		if err := page.BlockResources(ctx, e.opts.BlockResources); err != nil {
			return fmt.Errorf("block resources: %w", err)
		}
	}
	if len(e.opts.Cookies) > 0 {
		if err := page.SetCookies(ctx, e.opts.Cookies); err != nil {
			return fmt.Errorf("set cookies: %w", err)
		}
	}
	return nil
}

// redactLaunchArgs masks proxy credentials before the arguments are logged.
func redactLaunchArgs(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		if name, _, ok := utils.ParseLaunchFlag(arg); ok && name == repository.FlagProxyAuth {
			arg = "--" + repository.FlagProxyAuth + "=***"
		}
		out[i] = arg
	}
	return out
}

// toStrings keeps the string entries of an evaluation result.
func toStrings(v any) []string {
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
