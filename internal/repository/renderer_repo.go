package repository

import (
	"context"

	"github.com/user/bfs-crawler/internal/entity"
	"github.com/user/bfs-crawler/internal/pagefunc"
)

// Launch flags understood by every renderer.
const (
	FlagProxyServer             = "proxy-server"
	FlagProxyAuth               = "proxy-auth"
	FlagIgnoreCertificateErrors = "ignore-certificate-errors"
)

// Renderer defines the contract for the page rendering mechanism.
type Renderer interface {
	// Launch starts a rendering instance configured by launch flags ("--name" or "--name=value").
	Launch(ctx context.Context, args []string) (Instance, error)
}

// Instance is a running renderer, e.g. one browser process.
type Instance interface {
	// NewPage opens a page context in the instance.
	NewPage(ctx context.Context) (Page, error)
	// Exit stops the instance and releases its resources.
	Exit() error
}

// Page is a single page context inside an Instance.
type Page interface {
	SetUserAgent(ctx context.Context, userAgent string) error
	SetViewport(ctx context.Context, viewport entity.Viewport) error
	SetCookies(ctx context.Context, cookies []entity.Cookie) error
	// BlockResources drops subresource requests of the given types (e.g. "Image", "Font").
	BlockResources(ctx context.Context, resourceTypes []string) error
	// Navigate loads the URL and returns the response status code, 0 when unknown.
	Navigate(ctx context.Context, url string) (int, error)
	// Evaluate runs fn against the loaded page and returns its serializable result.
	Evaluate(ctx context.Context, fn pagefunc.Func, args ...any) (any, error)
	// Close releases the page context.
	Close() error
}
