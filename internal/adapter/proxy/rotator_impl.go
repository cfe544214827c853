package proxy

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/user/bfs-crawler/internal/repository"
)

// Rotator hands out proxies round-robin and builds renderer launch flags from them.
type Rotator struct {
	proxies    []*url.URL
	mu         sync.Mutex
	proxyIndex int
}

// NewRotator validates the proxy URLs and creates a rotator over them.
// An empty list is valid: every job then runs without a proxy.
func NewRotator(proxyURLs []string) (*Rotator, error) {
	r := &Rotator{}
	for _, raw := range proxyURLs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", raw, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL %q: scheme and host are required", raw)
		}
		r.proxies = append(r.proxies, u)
	}
	return r, nil
}

// NextProxy returns a proxy URL from the list, rotating sequentially.
func (r *Rotator) NextProxy() string {
	if len(r.proxies) == 0 {
		return "" // No proxy
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	proxy := r.proxies[r.proxyIndex]
	r.proxyIndex = (r.proxyIndex + 1) % len(r.proxies)
	return proxy.String()
}

// BuildLaunchArgs returns the launch flags for a proxy. Certificate errors are
// always ignored; credentials travel in a separate flag since browsers do not
// accept them inside --proxy-server.
func (r *Rotator) BuildLaunchArgs(proxy string) []string {
	args := []string{"--" + repository.FlagIgnoreCertificateErrors}
	if proxy == "" {
		return args
	}

	u, err := url.Parse(proxy)
	if err != nil || u.Host == "" {
		return args
	}
	args = append(args, fmt.Sprintf("--%s=%s://%s", repository.FlagProxyServer, u.Scheme, u.Host))
	if u.User != nil {
		password, _ := u.User.Password()
		args = append(args, fmt.Sprintf("--%s=%s:%s", repository.FlagProxyAuth, u.User.Username(), password))
	}
	return args
}
