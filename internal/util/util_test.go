package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://secure.local:3129", "internal.example.com")

	req, _ := http.NewRequest(http.MethodGet, "https://api.openai.com/v1", nil)
	u, err := proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "secure.local:3129", u.Host)

	req, _ = http.NewRequest(http.MethodGet, "http://example.org/book.txt", nil)
	u, err = proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "proxy.local:3128", u.Host)

	req, _ = http.NewRequest(http.MethodGet, "http://internal.example.com/x", nil)
	u, err = proxy(req)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestNewHTTPClient_StopsRedirects(t *testing.T) {
	var hops int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hops, 1)
		http.Redirect(w, r, fmt.Sprintf("%s/%d", server.URL, n), http.StatusFound)
	}))
	defer server.Close()

	client := NewHTTPClient(5, "", "", "", 3)
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hops))
	assert.Equal(t, 5*time.Second, client.Timeout)
}

func TestRobotsChecker(t *testing.T) {
	var fetches int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			atomic.AddInt32(&fetches, 1)
			_, _ = fmt.Fprint(w, "User-agent: qforge\nDisallow: /private/\nCrawl-delay: 2\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "qforge/0.1 (+https://github.com/ppiankov/qforge)")
	ctx := context.Background()

	allowed, delay, err := checker.CanFetch(ctx, server.URL+"/books/calculus.txt")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2*time.Second, delay)

	allowed, _, err = checker.CanFetch(ctx, server.URL+"/private/notes.txt")
	require.NoError(t, err)
	assert.False(t, allowed)

	assert.EqualValues(t, 1, atomic.LoadInt32(&fetches), "robots.txt should be cached per origin")
}

func TestRobotsChecker_MissingFileAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "qforge")
	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/anything")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRobotsChecker_BadURL(t *testing.T) {
	checker := NewRobotsChecker(nil, "qforge")
	_, _, err := checker.CanFetch(context.Background(), "no-host")
	assert.Error(t, err)
}

func TestNormalizeUserAgent(t *testing.T) {
	assert.Equal(t, "qforge", NormalizeUserAgent("qforge/0.1 (+https://x)"))
	assert.Equal(t, "", NormalizeUserAgent(""))
}
