package static_renderer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/bfs-crawler/internal/entity"
	"github.com/user/bfs-crawler/internal/pagefunc"
	"github.com/user/bfs-crawler/internal/repository"
	"github.com/user/bfs-crawler/pkg/utils"
	"go.uber.org/zap"
)

const defaultMaxBodySize = 10 * 1024 * 1024

// Options configures the HTTP client behind each page.
type Options struct {
	RequestTimeout time.Duration
	MaxBodySize    int64
}

// StaticRenderer fetches pages over plain HTTP and evaluates page functions
// against the parsed HTML. Scripts on the page never run.
type StaticRenderer struct {
	opts   Options
	logger *zap.Logger
}

// NewStaticRenderer creates a renderer that needs no browser.
func NewStaticRenderer(opts Options, logger *zap.Logger) *StaticRenderer {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = defaultMaxBodySize
	}
	return &StaticRenderer{opts: opts, logger: logger.Named("static")}
}

// Launch builds the transport described by the launch flags.
func (r *StaticRenderer) Launch(ctx context.Context, args []string) (repository.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	var proxyURL *url.URL
	var proxyUser *url.Userinfo

	for _, arg := range args {
		name, value, ok := utils.ParseLaunchFlag(arg)
		if !ok {
			r.logger.Warn("ignoring malformed launch flag", zap.String("flag", arg))
			continue
		}
		switch name {
		case repository.FlagProxyServer:
			u, err := url.Parse(value)
			if err != nil || u.Host == "" {
				return nil, fmt.Errorf("invalid proxy server %q", value)
			}
			proxyURL = u
		case repository.FlagProxyAuth:
			user, pass, _ := strings.Cut(value, ":")
			proxyUser = url.UserPassword(user, pass)
		case repository.FlagIgnoreCertificateErrors:
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		default:
			r.logger.Debug("launch flag has no effect on static renderer", zap.String("flag", name))
		}
	}

	if proxyURL != nil {
		if proxyUser != nil {
			proxyURL.User = proxyUser
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	} else {
		transport.Proxy = nil
	}

	return &httpInstance{renderer: r, transport: transport}, nil
}

type httpInstance struct {
	renderer  *StaticRenderer
	transport *http.Transport
}

// NewPage creates a client with its own cookie jar.
func (i *httpInstance) NewPage(_ context.Context) (repository.Page, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &httpPage{
		client: &http.Client{
			Transport: i.transport,
			Jar:       jar,
			Timeout:   i.renderer.opts.RequestTimeout,
		},
		maxBodySize: i.renderer.opts.MaxBodySize,
	}, nil
}

func (i *httpInstance) Exit() error {
	i.transport.CloseIdleConnections()
	return nil
}

type httpPage struct {
	client      *http.Client
	maxBodySize int64
	userAgent   string
	doc         *goquery.Document
}

func (p *httpPage) SetUserAgent(_ context.Context, userAgent string) error {
	p.userAgent = userAgent
	return nil
}

// SetViewport is a no-op: there is no layout.
func (p *httpPage) SetViewport(context.Context, entity.Viewport) error { return nil }

// BlockResources is a no-op: subresources are never fetched.
func (p *httpPage) BlockResources(context.Context, []string) error { return nil }

func (p *httpPage) SetCookies(_ context.Context, cookies []entity.Cookie) error {
	for _, c := range cookies {
		host := strings.TrimPrefix(c.Domain, ".")
		if host == "" {
			return fmt.Errorf("cookie %s has no domain", c.Name)
		}
		scheme := "http"
		if c.Secure {
			scheme = "https"
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		p.client.Jar.SetCookies(&url.URL{Scheme: scheme, Host: host, Path: path}, []*http.Cookie{{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
			Expires:  c.Expires,
		}})
	}
	return nil
}

// Navigate fetches url, following redirects, and parses the body as HTML.
func (p *httpPage) Navigate(ctx context.Context, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, p.maxBodySize))
	if err != nil {
		return 0, fmt.Errorf("parse HTML from %s: %w", rawURL, err)
	}
	doc.Url = resp.Request.URL
	p.doc = doc
	return resp.StatusCode, nil
}

// Evaluate runs the Document variant of fn against the parsed page.
func (p *httpPage) Evaluate(_ context.Context, fn pagefunc.Func, args ...any) (any, error) {
	if p.doc == nil {
		return nil, errors.New("page not loaded")
	}
	if fn.Document == nil {
		return nil, fmt.Errorf("page function %s cannot run without a browser", fn.Name)
	}
	return fn.Document(p.doc, args...)
}

func (p *httpPage) Close() error {
	p.doc = nil
	return nil
}
