package hierarchy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshInstallsIntoCache(t *testing.T) {
	srv := modernServer(t, map[string]any{
		"": dir("", file("a.txt")),
	})
	defer srv.Close()

	cache := NewCache()
	r := NewRefresher(newBuilder(srv), cache)

	records, report := r.Refresh(context.Background(), srv.URL, "")
	require.True(t, report.OK())
	assert.Equal(t, []string{"", "a.txt"}, paths(records))

	cached, ok := cache.Get(srv.URL)
	require.True(t, ok)
	assert.Equal(t, records, cached)
}

func TestRefreshSubtree(t *testing.T) {
	srv := modernServer(t, map[string]any{
		"": dir("", file("a.txt"),
			map[string]any{"name": "sub", "path": "sub", "type": "directory", "format": "json"}),
		"sub": dir("sub", file("sub/b.txt")),
	})
	defer srv.Close()

	cache := NewCache()
	r := NewRefresher(newBuilder(srv), cache)

	records, report := r.Refresh(context.Background(), srv.URL, "sub")
	require.True(t, report.OK())
	assert.Equal(t, []string{"sub", "sub/b.txt"}, paths(records))

	cached, ok := cache.Get(srv.URL)
	require.True(t, ok)
	assert.Equal(t, records, cached)
}

func TestConcurrentRefreshesShareOneBuild(t *testing.T) {
	var rootCalls int64
	release := make(chan struct{})

	router := chi.NewRouter()
	router.Get("/api", func(w http.ResponseWriter, req *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"version": "6.5.4"})
	})
	router.Get("/api/contents", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt64(&rootCalls, 1)
		<-release
		json.NewEncoder(w).Encode(dir("", file("a.txt")))
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	cache := NewCache()
	r := NewRefresher(newBuilder(srv), cache)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, report := r.Refresh(context.Background(), srv.URL, "")
			assert.True(t, report.OK())
			assert.Equal(t, []string{"", "a.txt"}, paths(records))
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&rootCalls),
		"overlapping refreshes for one server must share a single build")
}
