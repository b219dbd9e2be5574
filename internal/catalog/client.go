package catalog

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/mediafabric/fabric-client/internal/errs"
	"github.com/mediafabric/fabric-client/internal/httputil"
	"github.com/mediafabric/fabric-client/internal/metrics"
	"github.com/mediafabric/fabric-client/pkg/logger"
)

// Client is the typed catalog client: one method per upstream endpoint, one
// round trip per call, structured error extraction, no retries.
type Client struct {
	http *httputil.Client
	log  *logger.Logger
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL string
	Tokens  httputil.TokenSource
	Metrics *metrics.Metrics
	Logger  *logger.Logger
}

// NewClient creates a catalog client.
func NewClient(cfg ClientConfig) (*Client, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("catalog")
	}
	http, err := httputil.NewClient(httputil.Config{
		BaseURL: cfg.BaseURL,
		Service: "catalog",
		Tokens:  cfg.Tokens,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Client{http: http, log: log}, nil
}

// listEnvelope is the standard paged-list response wrapper.
type listEnvelope[T any] struct {
	Contents []T `json:"contents"`
}

// ListProperties returns all media properties visible to the account.
func (c *Client) ListProperties(ctx context.Context) ([]*MediaProperty, error) {
	var env listEnvelope[*MediaProperty]
	if err := c.http.Get(ctx, "/mw/properties", nil, &env); err != nil {
		return nil, err
	}
	return env.Contents, nil
}

// GetProperty returns one property by ID.
func (c *Client) GetProperty(ctx context.Context, propertyID string) (*MediaProperty, error) {
	if propertyID == "" {
		return nil, errs.NewBadInput("propertyID", "empty")
	}
	var prop MediaProperty
	if err := c.http.Get(ctx, "/mw/properties/"+propertyID, nil, &prop); err != nil {
		return nil, err
	}
	return &prop, nil
}

// GetPage returns one page of a property.
func (c *Client) GetPage(ctx context.Context, propertyID, pageID string) (*MediaPropertyPage, error) {
	if propertyID == "" {
		return nil, errs.NewBadInput("propertyID", "empty")
	}
	if pageID == "" {
		pageID = "main"
	}
	var page MediaPropertyPage
	if err := c.http.Get(ctx, "/mw/properties/"+propertyID+"/pages/"+pageID, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetSections returns the requested sections of a property in one call.
// resolveSubsections asks the server to inline section-reference items.
func (c *Client) GetSections(ctx context.Context, propertyID string, sectionIDs []string, resolveSubsections bool) ([]*MediaPropertySection, error) {
	if propertyID == "" {
		return nil, errs.NewBadInput("propertyID", "empty")
	}
	if len(sectionIDs) == 0 {
		return nil, errs.NewBadInput("sectionIDs", "empty")
	}
	q := url.Values{}
	q.Set("resolve_subsections", strconv.FormatBool(resolveSubsections))
	body := struct {
		SectionIDs []string `json:"section_ids"`
	}{SectionIDs: sectionIDs}

	var env listEnvelope[*MediaPropertySection]
	path := "/mw/properties/" + propertyID + "/sections?" + q.Encode()
	if err := c.http.Post(ctx, path, body, &env); err != nil {
		return nil, err
	}
	return env.Contents, nil
}

// GetSection returns one section by ID.
func (c *Client) GetSection(ctx context.Context, propertyID, sectionID string) (*MediaPropertySection, error) {
	sections, err := c.GetSections(ctx, propertyID, []string{sectionID}, true)
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, errs.NewUnexpectedResponse("section not found: "+sectionID, nil)
	}
	return sections[0], nil
}

// GetMediaItems returns the requested media items of a property.
func (c *Client) GetMediaItems(ctx context.Context, propertyID string, mediaIDs []string) ([]*MediaItem, error) {
	if propertyID == "" {
		return nil, errs.NewBadInput("propertyID", "empty")
	}
	if len(mediaIDs) == 0 {
		return nil, errs.NewBadInput("mediaIDs", "empty")
	}
	q := url.Values{}
	q.Set("media_ids", strings.Join(mediaIDs, ","))

	var env listEnvelope[*MediaItem]
	if err := c.http.Get(ctx, "/mw/properties/"+propertyID+"/media_items", q, &env); err != nil {
		return nil, err
	}
	return env.Contents, nil
}

// Search queries a property's search endpoint. attrs are attribute filters
// in key=value form.
func (c *Client) Search(ctx context.Context, propertyID, query string, attrs map[string]string) ([]*SearchResult, error) {
	if propertyID == "" {
		return nil, errs.NewBadInput("propertyID", "empty")
	}
	q := url.Values{}
	q.Set("q", query)
	for key, value := range attrs {
		q.Add("attr", key+"="+value)
	}
	var env listEnvelope[json.RawMessage]
	if err := c.http.Get(ctx, "/mw/properties/"+propertyID+"/search", q, &env); err != nil {
		return nil, err
	}
	results := make([]*SearchResult, 0, len(env.Contents))
	for _, raw := range env.Contents {
		var result SearchResult
		if err := json.Unmarshal(raw, &result); err != nil {
			c.log.WithError(err).Debug("dropping undecodable search hit")
			continue
		}
		result.Raw = raw
		results = append(results, &result)
	}
	return results, nil
}

// GetFilters returns a property's filter options for one primary key.
func (c *Client) GetFilters(ctx context.Context, propertyID, primaryKey string) ([]*FilterOption, error) {
	if propertyID == "" {
		return nil, errs.NewBadInput("propertyID", "empty")
	}
	q := url.Values{}
	if primaryKey != "" {
		q.Set("primary_filter", primaryKey)
	}
	var env listEnvelope[*FilterOption]
	if err := c.http.Get(ctx, "/mw/properties/"+propertyID+"/filters", q, &env); err != nil {
		return nil, err
	}
	return env.Contents, nil
}

// GetPermissions returns a property's purchasable permission items.
func (c *Client) GetPermissions(ctx context.Context, propertyID string) ([]*PermissionItem, error) {
	if propertyID == "" {
		return nil, errs.NewBadInput("propertyID", "empty")
	}
	var env listEnvelope[*PermissionItem]
	if err := c.http.Get(ctx, "/mw/properties/"+propertyID+"/permissions", nil, &env); err != nil {
		return nil, err
	}
	return env.Contents, nil
}
