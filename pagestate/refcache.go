package pagestate

import (
	"container/list"
	"sync"

	"github.com/use-agent/ccbrowser/models"
)

const refCacheCap = 50

// RefCacheKey identifies a page independently of its CDP target id, since
// the target id changes across navigations that create a fresh target, but
// (normalized URL, original target id at time of recording) still lets a
// caller that saved refs before a reload try to recover them.
type RefCacheKey struct {
	NormalizedURL string
	TargetID      string
}

// RefCache is an LRU (by insertion/access order) over full ref maps,
// capacity 50, keyed by RefCacheKey (spec.md §4.3, §9 DESIGN NOTES). It
// lets a client's saved refs survive a PageEntry being discarded and
// recreated (e.g. after the page object itself was replaced).
type RefCache struct {
	mu       sync.Mutex
	order    *list.List
	elements map[RefCacheKey]*list.Element
}

type refCacheItem struct {
	key   RefCacheKey
	value map[string]models.ElementDescriptor
}

// NewRefCache creates an empty ref cache.
func NewRefCache() *RefCache {
	return &RefCache{
		order:    list.New(),
		elements: make(map[RefCacheKey]*list.Element),
	}
}

// Put stores refs for key, evicting the least-recently-used entry if the
// cache is at capacity.
func (c *RefCache) Put(key RefCacheKey, refs map[string]models.ElementDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.elements[key]; ok {
		el.Value.(*refCacheItem).value = refs
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&refCacheItem{key: key, value: refs})
	c.elements[key] = el

	if c.order.Len() > refCacheCap {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.elements, oldest.Value.(*refCacheItem).key)
		}
	}
}

// Get returns the cached refs for key, if present, marking it
// most-recently-used.
func (c *RefCache) Get(key RefCacheKey) (map[string]models.ElementDescriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.elements[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*refCacheItem).value, true
}
