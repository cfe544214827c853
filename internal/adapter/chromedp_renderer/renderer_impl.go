package chromedp_renderer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/user/bfs-crawler/internal/entity"
	"github.com/user/bfs-crawler/internal/pagefunc"
	"github.com/user/bfs-crawler/internal/repository"
	"github.com/user/bfs-crawler/pkg/utils"
	"go.uber.org/zap"
)

// Options configures the headless browser.
type Options struct {
	ExecPath          string // empty means look up Chrome on PATH
	Headless          bool
	NavigationTimeout time.Duration
}

// ChromedpRenderer launches one Chrome process per instance through chromedp.
type ChromedpRenderer struct {
	opts   Options
	logger *zap.Logger
}

// NewChromedpRenderer creates a new renderer implementation using chromedp.
func NewChromedpRenderer(opts Options, logger *zap.Logger) *ChromedpRenderer {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 60 * time.Second
	}
	return &ChromedpRenderer{opts: opts, logger: logger.Named("chromedp")}
}

// proxyCredentials are answered to proxy auth challenges.
type proxyCredentials struct {
	username string
	password string
}

// allocatorOptions turns launch flags into allocator options. The proxy-auth
// flag is not a Chrome switch; its credentials are returned instead.
func (r *ChromedpRenderer) allocatorOptions(args []string) ([]chromedp.ExecAllocatorOption, *proxyCredentials) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.opts.ExecPath))
	}

	var creds *proxyCredentials
	for _, arg := range args {
		name, value, ok := utils.ParseLaunchFlag(arg)
		if !ok {
			r.logger.Warn("ignoring malformed launch flag", zap.String("flag", arg))
			continue
		}
		if name == repository.FlagProxyAuth {
			user, pass, _ := strings.Cut(value, ":")
			creds = &proxyCredentials{username: user, password: pass}
			continue
		}
		if value == "" {
			opts = append(opts, chromedp.Flag(name, true))
		} else {
			opts = append(opts, chromedp.Flag(name, value))
		}
	}
	return opts, creds
}

// Launch starts a browser process and waits until it accepts commands.
func (r *ChromedpRenderer) Launch(ctx context.Context, args []string) (repository.Instance, error) {
	opts, creds := r.allocatorOptions(args)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(r.logger.Sugar().Debugf))

	stop := context.AfterFunc(ctx, browserCancel)
	err := chromedp.Run(browserCtx)
	stop()
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &browserInstance{
		renderer:      r,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		creds:         creds,
	}, nil
}

type browserInstance struct {
	renderer      *ChromedpRenderer
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	creds         *proxyCredentials
}

// NewPage opens a new tab.
func (b *browserInstance) NewPage(ctx context.Context) (repository.Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)

	stop := context.AfterFunc(ctx, tabCancel)
	err := chromedp.Run(tabCtx)
	stop()
	if err != nil {
		tabCancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}

	p := &tabPage{
		tabCtx:    tabCtx,
		tabCancel: tabCancel,
		timeout:   b.renderer.opts.NavigationTimeout,
		creds:     b.creds,
		blocked:   make(map[string]struct{}),
		logger:    b.renderer.logger,
	}
	chromedp.ListenTarget(tabCtx, p.onEvent)
	return p, nil
}

// Exit closes the browser and kills the process.
func (b *browserInstance) Exit() error {
	err := chromedp.Cancel(b.browserCtx)
	b.browserCancel()
	b.allocCancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type tabPage struct {
	tabCtx    context.Context
	tabCancel context.CancelFunc
	timeout   time.Duration
	creds     *proxyCredentials
	logger    *zap.Logger

	mu      sync.RWMutex
	blocked map[string]struct{} // lowercased network.ResourceType values
}

// run executes actions in the tab, bounded by ctx and the navigation timeout.
func (p *tabPage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.tabCtx, p.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *tabPage) SetUserAgent(ctx context.Context, userAgent string) error {
	return p.run(ctx, emulation.SetUserAgentOverride(userAgent))
}

func (p *tabPage) SetViewport(ctx context.Context, viewport entity.Viewport) error {
	return p.run(ctx, chromedp.EmulateViewport(int64(viewport.Width), int64(viewport.Height)))
}

func (p *tabPage) SetCookies(ctx context.Context, cookies []entity.Cookie) error {
	actions := make([]chromedp.Action, 0, len(cookies))
	for _, c := range cookies {
		params := network.SetCookie(c.Name, c.Value).
			WithDomain(c.Domain).
			WithPath(c.Path).
			WithSecure(c.Secure).
			WithHTTPOnly(c.HTTPOnly)
		if !c.Expires.IsZero() {
			expires := cdp.TimeSinceEpoch(c.Expires)
			params = params.WithExpires(&expires)
		}
		actions = append(actions, params)
	}
	return p.run(ctx, actions...)
}

func (p *tabPage) BlockResources(_ context.Context, resourceTypes []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range resourceTypes {
		p.blocked[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return nil
}

func (p *tabPage) isBlocked(resourceType network.ResourceType) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.blocked[strings.ToLower(string(resourceType))]
	return ok
}

// interceptsRequests reports whether requests must pass through the Fetch domain.
func (p *tabPage) interceptsRequests() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.creds != nil || len(p.blocked) > 0
}

// Navigate loads url and returns the status of the main document response.
func (p *tabPage) Navigate(ctx context.Context, url string) (int, error) {
	if p.interceptsRequests() {
		enable := fetch.Enable().
			WithPatterns([]*fetch.RequestPattern{{URLPattern: "*"}}).
			WithHandleAuthRequests(p.creds != nil)
		if err := p.run(ctx, enable); err != nil {
			return 0, fmt.Errorf("enable request interception: %w", err)
		}
	}

	runCtx, cancel := context.WithTimeout(p.tabCtx, p.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		return 0, err
	}
	if resp == nil {
		return 0, nil
	}
	return int(resp.Status), nil
}

// onEvent answers paused requests and proxy auth challenges. Responses are
// sent from a new goroutine since listeners must not block the event loop.
func (p *tabPage) onEvent(ev any) {
	switch ev := ev.(type) {
	case *fetch.EventRequestPaused:
		go func() {
			execCtx := cdp.WithExecutor(p.tabCtx, chromedp.FromContext(p.tabCtx).Target)
			var err error
			if p.isBlocked(ev.ResourceType) {
				err = fetch.FailRequest(ev.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
			} else {
				err = fetch.ContinueRequest(ev.RequestID).Do(execCtx)
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				p.logger.Debug("failed to resolve paused request", zap.String("request_url", ev.Request.URL), zap.Error(err))
			}
		}()
	case *fetch.EventAuthRequired:
		if p.creds == nil {
			return
		}
		go func() {
			execCtx := cdp.WithExecutor(p.tabCtx, chromedp.FromContext(p.tabCtx).Target)
			err := fetch.ContinueWithAuth(ev.RequestID, &fetch.AuthChallengeResponse{
				Response: fetch.AuthChallengeResponseResponseProvideCredentials,
				Username: p.creds.username,
				Password: p.creds.password,
			}).Do(execCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				p.logger.Debug("failed to answer proxy auth challenge", zap.Error(err))
			}
		}()
	}
}

// Evaluate calls fn.Script with args in the page and decodes its JSON-serializable result.
func (p *tabPage) Evaluate(ctx context.Context, fn pagefunc.Func, args ...any) (any, error) {
	if fn.Script == "" {
		return nil, fmt.Errorf("page function %s has no script", fn.Name)
	}
	expr, err := wrapScript(fn.Script, args)
	if err != nil {
		return nil, fmt.Errorf("page function %s: %w", fn.Name, err)
	}

	var encoded string
	err = p.run(ctx, chromedp.Evaluate(expr, &encoded, func(params *runtime.EvaluateParams) *runtime.EvaluateParams {
		return params.WithAwaitPromise(true)
	}))
	if err != nil {
		return nil, fmt.Errorf("page function %s: %w", fn.Name, err)
	}

	var result any
	if err := json.Unmarshal([]byte(encoded), &result); err != nil {
		return nil, fmt.Errorf("page function %s returned invalid JSON: %w", fn.Name, err)
	}
	return result, nil
}

// wrapScript builds an expression that awaits fn(...args) and serializes the result.
func wrapScript(script string, args []any) (string, error) {
	if args == nil {
		args = []any{}
	}
	encodedArgs, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encode arguments: %w", err)
	}
	return fmt.Sprintf(
		"(async () => { const v = await (%s)(...%s); return JSON.stringify(v === undefined ? null : v); })()",
		script, encodedArgs,
	), nil
}

// Close closes the tab.
func (p *tabPage) Close() error {
	err := chromedp.Cancel(p.tabCtx)
	p.tabCancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
