package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{name: "1.0.0 < 1.0.1", a: "1.0.0", b: "1.0.1", want: -1},
		{name: "1.0.1 > 1.0.0", a: "1.0.1", b: "1.0.0", want: 1},
		{name: "1.0.0 == 1.0.0", a: "1.0.0", b: "1.0.0", want: 0},

		{name: "v1.0.0 < 1.0.1", a: "v1.0.0", b: "1.0.1", want: -1},
		{name: "v1.0.0 == v1.0.0", a: "v1.0.0", b: "v1.0.0", want: 0},

		{name: "2.0.0 > 1.9.9", a: "2.0.0", b: "1.9.9", want: 1},
		{name: "0.10.0 > 0.9.0", a: "0.10.0", b: "0.9.0", want: 1},
		{name: "1.2 == 1.2.0", a: "1.2", b: "1.2.0", want: 0},

		{name: "dev > 999.999.999", a: "dev", b: "999.999.999", want: 1},
		{name: "1.0.0 < dev", a: "1.0.0", b: "dev", want: -1},

		{name: "1.0.0-beta == 1.0.0", a: "1.0.0-beta", b: "1.0.0", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compareVersions(tt.a, tt.b))
		})
	}
}

func releaseServer(t *testing.T, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "quilt/0.1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChecker_Check(t *testing.T) {
	var hits atomic.Int32
	srv := releaseServer(t, `{"tag_name": "v0.2.0"}`, &hits)
	c := &Checker{URL: srv.URL, CacheDir: t.TempDir(), Client: srv.Client()}

	info, err := c.Check(context.Background(), "0.1.0")
	require.NoError(t, err)
	assert.Equal(t, "0.2.0", info.LatestVersion)
	assert.True(t, info.UpdateAvailable)

	// Served from the cache file.
	info, err = c.Check(context.Background(), "0.1.0")
	require.NoError(t, err)
	assert.Equal(t, "0.2.0", info.LatestVersion)
	assert.Equal(t, int32(1), hits.Load())
	assert.FileExists(t, filepath.Join(c.CacheDir, cacheFile))
}

func TestChecker_NoCache(t *testing.T) {
	var hits atomic.Int32
	srv := releaseServer(t, `{"tag_name": "0.1.0"}`, &hits)
	c := &Checker{URL: srv.URL, Client: srv.Client()}

	for range 2 {
		info, err := c.Check(context.Background(), "0.1.0")
		require.NoError(t, err)
		assert.False(t, info.UpdateAvailable)
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestChecker_BadResponses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "status", status: http.StatusNotFound, body: "", wantErr: "status 404"},
		{name: "json", status: http.StatusOK, body: "{", wantErr: "decode release"},
		{name: "no tag", status: http.StatusOK, body: "{}", wantErr: "no tag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := &Checker{URL: srv.URL, Client: srv.Client()}
			_, err := c.Check(context.Background(), "0.1.0")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")
	dir, err := DefaultCacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/cache", "quilt"), dir)
}
