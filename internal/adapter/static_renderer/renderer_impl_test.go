package static_renderer

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/bfs-crawler/internal/entity"
	"github.com/user/bfs-crawler/internal/pagefunc"
	"github.com/user/bfs-crawler/internal/repository"
	"go.uber.org/zap"
)

const testPage = `<html><head><title> Home </title><meta name="description" content="A test page"></head>
<body><h1>Welcome</h1><a href="/about">About</a><a href="https://other.test/x">Other</a><a>none</a></body></html>`

func openPage(t *testing.T, args []string) repository.Page {
	t.Helper()
	r := NewStaticRenderer(Options{}, zap.NewNop())
	instance, err := r.Launch(context.Background(), args)
	require.NoError(t, err)
	t.Cleanup(func() { _ = instance.Exit() })
	page, err := instance.NewPage(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = page.Close() })
	return page
}

func TestStaticRenderer_NavigateAndEvaluate(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(testPage))
	}))
	defer srv.Close()

	page := openPage(t, nil)
	require.NoError(t, page.SetUserAgent(context.Background(), "TestBot/1.0"))
	require.NoError(t, page.SetViewport(context.Background(), entity.Viewport{Width: 800, Height: 600}))
	require.NoError(t, page.BlockResources(context.Background(), []string{"Image"}))

	status, err := page.Navigate(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "TestBot/1.0", gotUA)

	links, err := page.Evaluate(context.Background(), pagefunc.Links)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/about", "https://other.test/x"}, links)

	result, err := page.Evaluate(context.Background(), pagefunc.Default, "START")
	require.NoError(t, err)
	data := result.(map[string]any)
	assert.Equal(t, "START", data["label"])
	assert.Equal(t, "Home", data["title"])
	assert.Equal(t, "A test page", data["description"])
	assert.Equal(t, []string{"Welcome"}, data["headings"])
}

func TestStaticRenderer_ResolvesLinksAgainstFinalURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<a href="child">child</a>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page := openPage(t, nil)
	status, err := page.Navigate(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	links, err := page.Evaluate(context.Background(), pagefunc.Links)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/new/child"}, links)
}

func TestStaticRenderer_ErrorStatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	page := openPage(t, nil)
	status, err := page.Navigate(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStaticRenderer_NavigationFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	page := openPage(t, nil)
	_, err := page.Navigate(context.Background(), addr)
	assert.Error(t, err)

	_, err = page.Evaluate(context.Background(), pagefunc.Links)
	assert.EqualError(t, err, "page not loaded")
}

func TestStaticRenderer_ScriptOnlyPageFunction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testPage))
	}))
	defer srv.Close()

	page := openPage(t, nil)
	_, err := page.Navigate(context.Background(), srv.URL)
	require.NoError(t, err)

	_, err = page.Evaluate(context.Background(), pagefunc.FromScript("custom", "() => 1"))
	assert.ErrorContains(t, err, "custom")
}

func TestStaticRenderer_Cookies(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err == nil {
			got = c.Value
		}
	}))
	defer srv.Close()

	page := openPage(t, nil)
	require.NoError(t, page.SetCookies(context.Background(), []entity.Cookie{{Name: "session", Value: "abc", Domain: "127.0.0.1", Path: "/"}}))
	_, err := page.Navigate(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	assert.Error(t, page.SetCookies(context.Background(), []entity.Cookie{{Name: "nodomain", Value: "x"}}))
}

func TestStaticRenderer_Proxy(t *testing.T) {
	var (
		mu        sync.Mutex
		proxyAuth string
		target    string
	)
	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		proxyAuth = r.Header.Get("Proxy-Authorization")
		target = r.URL.String()
		mu.Unlock()
		_, _ = w.Write([]byte(`<a href="/via-proxy">x</a>`))
	}))
	defer proxySrv.Close()

	page := openPage(t, []string{
		"--ignore-certificate-errors",
		"--proxy-server=" + proxySrv.URL,
		"--proxy-auth=user:pass",
	})
	status, err := page.Navigate(context.Background(), "http://site.test/page")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "http://site.test/page", target)
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("user:pass")), proxyAuth)
}

func TestStaticRenderer_InvalidProxy(t *testing.T) {
	r := NewStaticRenderer(Options{}, zap.NewNop())
	_, err := r.Launch(context.Background(), []string{"--proxy-server=::bad"})
	assert.Error(t, err)
}

func TestStaticRenderer_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<title>short</title><a href="/cut-off">x</a>`))
	}))
	defer srv.Close()

	r := NewStaticRenderer(Options{MaxBodySize: 20}, zap.NewNop())
	instance, err := r.Launch(context.Background(), nil)
	require.NoError(t, err)
	page, err := instance.NewPage(context.Background())
	require.NoError(t, err)

	_, err = page.Navigate(context.Background(), srv.URL)
	require.NoError(t, err)
	links, err := page.Evaluate(context.Background(), pagefunc.Links)
	require.NoError(t, err)
	assert.Empty(t, links)
	require.NoError(t, page.Close())
	require.NoError(t, instance.Exit())
}
