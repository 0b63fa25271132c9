package hierarchy

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/grovetools/nbremote/pkg/models"
)

// Refresher rebuilds hierarchies and installs them into a Cache. Refreshes
// for the same server are serialized: concurrent callers share one build
// instead of racing to replace the cache entry.
type Refresher struct {
	builder *Builder
	cache   *Cache
	group   singleflight.Group
}

// NewRefresher creates a Refresher over a builder and cache.
func NewRefresher(builder *Builder, cache *Cache) *Refresher {
	return &Refresher{builder: builder, cache: cache}
}

type refreshResult struct {
	records []*models.ContentRecord
	report  *Report
}

// Refresh builds the server's hierarchy rooted at path and replaces the
// cache entry with the result. The empty path rebuilds from the server
// root. Concurrent refreshes of the same server and path share one build;
// refreshes of different subtrees proceed independently.
func (r *Refresher) Refresh(ctx context.Context, server, path string) ([]*models.ContentRecord, *Report) {
	v, _, _ := r.group.Do(refreshKey(server, path), func() (any, error) {
		records, report := r.builder.Build(ctx, server, path)
		r.cache.Replace(server, records)
		return refreshResult{records: records, report: report}, nil
	})
	res := v.(refreshResult)
	return res.records, res.report
}

func refreshKey(server, path string) string {
	// Same separator discipline as the transport keys: server URLs and
	// resource paths never contain it, so tuples cannot collide.
	return server + "\x1f" + path
}
