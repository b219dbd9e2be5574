package catalog

import (
	"context"
	"sync"

	"github.com/mediafabric/fabric-client/internal/errs"
	"github.com/mediafabric/fabric-client/pkg/logger"
)

// Fetcher is the read surface the cache fills misses through. *Client
// satisfies it; tests substitute a fake.
type Fetcher interface {
	GetProperty(ctx context.Context, propertyID string) (*MediaProperty, error)
	GetPage(ctx context.Context, propertyID, pageID string) (*MediaPropertyPage, error)
	GetSections(ctx context.Context, propertyID string, sectionIDs []string, resolveSubsections bool) ([]*MediaPropertySection, error)
	GetMediaItems(ctx context.Context, propertyID string, mediaIDs []string) ([]*MediaItem, error)
}

// Cache holds the content graph in memory, keyed by opaque entity ID. IDs
// are unique within the catalog namespace, so entries never collide across
// properties. Entries are replaced wholesale on refetch, never patched; the
// whole cache is cleared on sign-out or network switch. No TTL.
//
// One mutex guards all maps. Fill-on-miss is not single-flight: two
// concurrent misses for the same ID may both fetch and both store the same
// canonical entity (last write wins).
type Cache struct {
	mu         sync.Mutex
	fetcher    Fetcher
	log        *logger.Logger
	properties map[string]*MediaProperty
	pages      map[string]*MediaPropertyPage
	sections   map[string]*MediaPropertySection
	mediaItems map[string]*MediaItem
}

// NewCache creates an empty cache over the given fetcher.
func NewCache(fetcher Fetcher, log *logger.Logger) *Cache {
	if log == nil {
		log = logger.NewDefault("cache")
	}
	c := &Cache{fetcher: fetcher, log: log}
	c.reset()
	return c
}

func (c *Cache) reset() {
	c.properties = make(map[string]*MediaProperty)
	c.pages = make(map[string]*MediaPropertyPage)
	c.sections = make(map[string]*MediaPropertySection)
	c.mediaItems = make(map[string]*MediaItem)
}

// Reset clears the whole cache.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
	c.log.Debug("cache cleared")
}

// Property returns the property, filling on miss.
func (c *Cache) Property(ctx context.Context, propertyID string) (*MediaProperty, error) {
	c.mu.Lock()
	if prop, ok := c.properties[propertyID]; ok {
		c.mu.Unlock()
		return prop, nil
	}
	c.mu.Unlock()

	prop, err := c.fetcher.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.properties[propertyID] = prop
	c.mu.Unlock()
	return prop, nil
}

// Page returns a page of a property, filling on miss. Pages are keyed by
// propertyID/pageID since page IDs are only unique within their property.
func (c *Cache) Page(ctx context.Context, propertyID, pageID string) (*MediaPropertyPage, error) {
	if pageID == "" {
		pageID = "main"
	}
	key := propertyID + "/" + pageID

	c.mu.Lock()
	if page, ok := c.pages[key]; ok {
		c.mu.Unlock()
		return page, nil
	}
	c.mu.Unlock()

	page, err := c.fetcher.GetPage(ctx, propertyID, pageID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.pages[key] = page
	c.mu.Unlock()
	return page, nil
}

// Section returns one section, filling on miss.
func (c *Cache) Section(ctx context.Context, propertyID, sectionID string) (*MediaPropertySection, error) {
	sections, err := c.Sections(ctx, propertyID, []string{sectionID})
	if err != nil {
		return nil, err
	}
	section, ok := sections[sectionID]
	if !ok {
		return nil, errs.NewUnexpectedResponse("section not found: "+sectionID, nil)
	}
	return section, nil
}

// Sections returns the requested sections, serving local hits and issuing
// one batched fetch for only the missing IDs.
func (c *Cache) Sections(ctx context.Context, propertyID string, sectionIDs []string) (map[string]*MediaPropertySection, error) {
	out := make(map[string]*MediaPropertySection, len(sectionIDs))

	c.mu.Lock()
	var missing []string
	for _, id := range sectionIDs {
		if section, ok := c.sections[id]; ok {
			out[id] = section
		} else {
			missing = append(missing, id)
		}
	}
	c.mu.Unlock()

	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.fetcher.GetSections(ctx, propertyID, missing, true)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	for _, section := range fetched {
		c.sections[section.ID] = section
		out[section.ID] = section
	}
	c.mu.Unlock()
	return out, nil
}

// MediaItem returns one media item, filling on miss.
func (c *Cache) MediaItem(ctx context.Context, propertyID, mediaID string) (*MediaItem, error) {
	items, err := c.MediaItems(ctx, propertyID, []string{mediaID})
	if err != nil {
		return nil, err
	}
	item, ok := items[mediaID]
	if !ok {
		return nil, errs.NewUnexpectedResponse("media item not found: "+mediaID, nil)
	}
	return item, nil
}

// MediaItems returns the requested media items, batching the miss fetch.
func (c *Cache) MediaItems(ctx context.Context, propertyID string, mediaIDs []string) (map[string]*MediaItem, error) {
	out := make(map[string]*MediaItem, len(mediaIDs))

	c.mu.Lock()
	var missing []string
	for _, id := range mediaIDs {
		if item, ok := c.mediaItems[id]; ok {
			out[id] = item
		} else {
			missing = append(missing, id)
		}
	}
	c.mu.Unlock()

	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.fetcher.GetMediaItems(ctx, propertyID, missing)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	for _, item := range fetched {
		c.mediaItems[item.ID] = item
		out[item.ID] = item
	}
	c.mu.Unlock()
	return out, nil
}
