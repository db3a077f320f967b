package timeseries

// This in-memory cache holds series metadata only. Datapoint and
// aggregate payloads are never cached locally.

import (
	lru "github.com/hashicorp/golang-lru"
)

type metadataCache struct {
	entries *lru.Cache
}

// newMetadataCache sets up an in-memory LRU cache for metadata lookups.
func newMetadataCache(size int) (*metadataCache, error) {
	entries, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &metadataCache{entries: entries}, nil
}

func (c *metadataCache) get(id string) (*TimeseriesMeta, bool) {
	if c == nil {
		return nil, false
	}
	cached, ok := c.entries.Get(id)
	if !ok {
		return nil, false
	}
	meta, ok := cached.(TimeseriesMeta)
	if !ok {
		return nil, false
	}
	return &meta, true
}

func (c *metadataCache) add(meta TimeseriesMeta) {
	if c == nil || meta.ID == "" {
		return
	}
	c.entries.Add(meta.ID, meta)
}

func (c *metadataCache) remove(id string) {
	if c == nil {
		return
	}
	c.entries.Remove(id)
}
