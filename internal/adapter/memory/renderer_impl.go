package memory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/user/bfs-crawler/internal/entity"
	"github.com/user/bfs-crawler/internal/pagefunc"
	"github.com/user/bfs-crawler/internal/repository"
)

// PageScript is the scripted behaviour of one URL.
type PageScript struct {
	Status      int
	Links       []string
	Result      any
	NavigateErr error
	ResultErr   error
	LinksErr    error
}

// Session records what happened to one launched instance and its page.
type Session struct {
	Args           []string
	URL            string
	UserAgent      string
	Viewport       *entity.Viewport
	Cookies        []entity.Cookie
	Blocked        []string
	PageFuncArgs   []any
	PageClosed     bool
	InstanceExited bool
}

// Renderer is an in-memory renderer that serves scripted pages. Unknown URLs
// load with status 404 and no links.
type Renderer struct {
	// Errors injected into the session lifecycle.
	LaunchErr  error
	NewPageErr error
	CloseErr   error
	ExitErr    error

	mu       sync.Mutex
	pages    map[string]PageScript
	sessions []*Session
	live     int
	maxLive  int
}

// NewRenderer creates a renderer serving the given pages.
func NewRenderer(pages map[string]PageScript) *Renderer {
	if pages == nil {
		pages = make(map[string]PageScript)
	}
	return &Renderer{pages: pages}
}

// SetPage scripts or replaces the behaviour of a URL.
func (r *Renderer) SetPage(url string, page PageScript) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[url] = page
}

// Launch starts a fake instance.
func (r *Renderer) Launch(ctx context.Context, args []string) (repository.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	session := &Session{Args: append([]string(nil), args...)}
	r.sessions = append(r.sessions, session)
	if r.LaunchErr != nil {
		return nil, r.LaunchErr
	}
	r.live++
	r.maxLive = max(r.maxLive, r.live)
	return &instance{renderer: r, session: session}, nil
}

// Sessions returns a copy of the recorded sessions in launch order.
func (r *Renderer) Sessions() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out
}

// Navigations returns the URLs navigated to, in order.
func (r *Renderer) Navigations() []string {
	var urls []string
	for _, s := range r.Sessions() {
		if s.URL != "" {
			urls = append(urls, s.URL)
		}
	}
	return urls
}

// Live returns the number of instances that have not exited.
func (r *Renderer) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// MaxLive returns the highest number of simultaneously live instances seen.
func (r *Renderer) MaxLive() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxLive
}

type instance struct {
	renderer *Renderer
	session  *Session
}

func (i *instance) NewPage(ctx context.Context) (repository.Page, error) {
	if i.renderer.NewPageErr != nil {
		return nil, i.renderer.NewPageErr
	}
	return &page{renderer: i.renderer, session: i.session}, nil
}

func (i *instance) Exit() error {
	i.renderer.mu.Lock()
	defer i.renderer.mu.Unlock()
	if !i.session.InstanceExited {
		i.session.InstanceExited = true
		i.renderer.live--
	}
	return i.renderer.ExitErr
}

type page struct {
	renderer *Renderer
	session  *Session
	script   *PageScript
}

func (p *page) SetUserAgent(_ context.Context, userAgent string) error {
	p.renderer.mu.Lock()
	defer p.renderer.mu.Unlock()
	p.session.UserAgent = userAgent
	return nil
}

func (p *page) SetViewport(_ context.Context, viewport entity.Viewport) error {
	p.renderer.mu.Lock()
	defer p.renderer.mu.Unlock()
	p.session.Viewport = &viewport
	return nil
}

func (p *page) SetCookies(_ context.Context, cookies []entity.Cookie) error {
	p.renderer.mu.Lock()
	defer p.renderer.mu.Unlock()
	p.session.Cookies = append(p.session.Cookies, cookies...)
	return nil
}

func (p *page) BlockResources(_ context.Context, resourceTypes []string) error {
	p.renderer.mu.Lock()
	defer p.renderer.mu.Unlock()
	p.session.Blocked = append(p.session.Blocked, resourceTypes...)
	return nil
}

func (p *page) Navigate(ctx context.Context, url string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.renderer.mu.Lock()
	defer p.renderer.mu.Unlock()
	p.session.URL = url

	script, ok := p.renderer.pages[url]
	if !ok {
		script = PageScript{Status: http.StatusNotFound}
	}
	if script.NavigateErr != nil {
		return 0, script.NavigateErr
	}
	p.script = &script
	return script.Status, nil
}

func (p *page) Evaluate(_ context.Context, fn pagefunc.Func, args ...any) (any, error) {
	if p.script == nil {
		return nil, errors.New("page not loaded")
	}
	if fn.Name == pagefunc.Links.Name {
		if p.script.LinksErr != nil {
			return nil, p.script.LinksErr
		}
		return append([]string(nil), p.script.Links...), nil
	}

	p.renderer.mu.Lock()
	p.session.PageFuncArgs = args
	p.renderer.mu.Unlock()
	if p.script.ResultErr != nil {
		return nil, fmt.Errorf("evaluate %s: %w", fn.Name, p.script.ResultErr)
	}
	return p.script.Result, nil
}

func (p *page) Close() error {
	p.renderer.mu.Lock()
	defer p.renderer.mu.Unlock()
	p.session.PageClosed = true
	return p.renderer.CloseErr
}
