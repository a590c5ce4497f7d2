package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/findreq/pkg/observability"
)

func TestScanHooks(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.OnScanComplete(ctx, "/p", 3, 9, 250*time.Millisecond, nil)
	m.OnScanComplete(ctx, "/p", 0, 0, time.Millisecond, errors.New("boom"))
	m.OnFileParsed(ctx, true)
	m.OnFileParsed(ctx, true)
	m.OnFileParsed(ctx, false)
	m.OnClassified(ctx, "third_party", "default")
	m.OnResolved(ctx, "alias", time.Microsecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.scansTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scansTotal.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.filesTotal.WithLabelValues("parsed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.filesTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.namesTotal.WithLabelValues("third_party", "default")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolvedTotal.WithLabelValues("alias")))
}

func TestCacheAndHTTPHooks(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.OnCacheHit(ctx, "http")
	m.OnCacheMiss(ctx, "http")
	m.OnCacheMiss(ctx, "http")
	m.OnCacheSet(ctx, "resolution", 128)
	m.OnResponse(ctx, "GET", "pypi.org", "/pypi/requests/json", 200, 10*time.Millisecond)
	m.OnResponse(ctx, "GET", "pypi.org", "/pypi/nope/json", 404, 10*time.Millisecond)
	m.OnError(ctx, "GET", "pypi.org", "/pypi/slow/json", context.DeadlineExceeded)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheTotal.WithLabelValues("http", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheTotal.WithLabelValues("http", "miss")))
	assert.Equal(t, 128.0, testutil.ToFloat64(m.cacheSetBytes.WithLabelValues("resolution")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "pypi.org", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpErrors.WithLabelValues("GET", "pypi.org")))
}

func TestRegister(t *testing.T) {
	t.Cleanup(observability.Reset)

	m := New()
	m.Register()
	observability.Cache().OnCacheHit(context.Background(), "resolution")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheTotal.WithLabelValues("resolution", "hit")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.OnResolved(context.Background(), "registry", time.Second)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `findreq_resolve_total{source="registry"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.OnCacheHit(context.Background(), "http")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.cacheTotal.WithLabelValues("http", "hit")))
	assert.NotSame(t, a.Registry(), b.Registry())
}
