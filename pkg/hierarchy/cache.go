package hierarchy

import (
	gocache "github.com/patrickmn/go-cache"

	"github.com/grovetools/nbremote/pkg/models"
)

// Cache maps a server identity to its most recently built flattened
// hierarchy. A refresh replaces the entry wholesale; there is no
// incremental merge. Safe for concurrent use.
type Cache struct {
	store *gocache.Cache
}

// NewCache creates an empty Cache. Entries live until replaced.
func NewCache() *Cache {
	return &Cache{store: gocache.New(gocache.NoExpiration, 0)}
}

// Get returns the cached hierarchy for a server.
func (c *Cache) Get(server string) ([]*models.ContentRecord, bool) {
	v, ok := c.store.Get(server)
	if !ok {
		return nil, false
	}
	return v.([]*models.ContentRecord), true
}

// Replace installs a freshly built hierarchy for a server, discarding any
// prior entry.
func (c *Cache) Replace(server string, records []*models.ContentRecord) {
	c.store.Set(server, records, gocache.NoExpiration)
}
