// Package catalog is the typed client for the authority service's
// property/section/media-item endpoints, plus the in-memory cache over the
// content graph.
package catalog

import (
	"encoding/json"
	"fmt"
)

// Behavior is the UI-facing policy attached to a permission outcome.
type Behavior string

const (
	BehaviorHide               Behavior = "hide"
	BehaviorDisable            Behavior = "disable"
	BehaviorShowPurchase       Behavior = "show_purchase"
	BehaviorShowIfUnauthorized Behavior = "show_if_unauthorized"
	BehaviorShowAlternatePage  Behavior = "show_alternate_page"
)

// UnmarshalJSON rejects unrecognized behavior strings: a silent default here
// would break permission resolution.
func (b *Behavior) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch Behavior(s) {
	case BehaviorHide, BehaviorDisable, BehaviorShowPurchase, BehaviorShowIfUnauthorized, BehaviorShowAlternatePage:
		*b = Behavior(s)
		return nil
	}
	return fmt.Errorf("unrecognized permission behavior %q", s)
}

// PermissionSettings is the optional permissions descriptor carried at each
// level of the content graph. Pointer fields distinguish present-but-false
// from absent: resolution only overwrites on presence.
type PermissionSettings struct {
	Behavior                      *Behavior `json:"behavior,omitempty"`
	AlternatePageID               string    `json:"alternate_page_id,omitempty"`
	SecondaryMarketPurchaseOption string    `json:"secondary_market_purchase_option,omitempty"`
	PermissionItemIDs             []string  `json:"permission_item_ids,omitempty"`
	// Authorized is computed server-side.
	Authorized *bool `json:"authorized,omitempty"`
}

// MediaProperty is the root of the content graph.
type MediaProperty struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	TenantID    string              `json:"tenant_id"`
	PageIDs     []string            `json:"page_ids,omitempty"`
	MainPage    *MediaPropertyPage  `json:"main_page,omitempty"`
	Permissions *PermissionSettings `json:"permissions,omitempty"`
}

// MediaPropertyPage is one page of a property. Page ID "main" is the
// default when a request leaves the page unspecified.
type MediaPropertyPage struct {
	ID          string              `json:"id"`
	Label       string              `json:"label,omitempty"`
	Layout      json.RawMessage     `json:"layout,omitempty"`
	SectionIDs  []string            `json:"section_ids,omitempty"`
	Permissions *PermissionSettings `json:"permissions,omitempty"`
}

// MediaPropertySection groups items within a page. Sections list their
// items inline in Content once fetched.
type MediaPropertySection struct {
	ID          string              `json:"id"`
	Type        string              `json:"type"`
	Label       string              `json:"label,omitempty"`
	Content     []SectionItem       `json:"content,omitempty"`
	Permissions *PermissionSettings `json:"permissions,omitempty"`
}

// SectionItem is one entry of a section. A "media" item references a media
// item by ID; a "subsection" item recursively references another section
// (the media-reference form).
type SectionItem struct {
	ID          string              `json:"id"`
	Type        string              `json:"type"`
	MediaID     string              `json:"media_id,omitempty"`
	MediaType   string              `json:"media_type,omitempty"`
	SectionID   string              `json:"section_id,omitempty"`
	Permissions *PermissionSettings `json:"permissions,omitempty"`
}

// MediaItem is a playable or displayable media entity.
type MediaItem struct {
	ID          string              `json:"id"`
	Type        string              `json:"type"`
	Title       string              `json:"title,omitempty"`
	MediaType   string              `json:"media_type,omitempty"`
	MediaLink   json.RawMessage     `json:"media_link,omitempty"`
	PosterImage json.RawMessage     `json:"poster_image,omitempty"`
	Offerings   []string            `json:"offerings,omitempty"`
	Permissions *PermissionSettings `json:"permissions,omitempty"`
}

// PermissionItem maps a purchasable permission to its marketplace listing.
type PermissionItem struct {
	ID            string `json:"id"`
	MarketplaceID string `json:"marketplace_id,omitempty"`
	SKU           string `json:"sku,omitempty"`
}

// SearchResult is one hit from the property search endpoint.
type SearchResult struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title,omitempty"`
	MediaItem *MediaItem      `json:"media_item,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// FilterOption is one value of a property's filter dimension.
type FilterOption struct {
	PrimaryFilterValue string   `json:"primary_filter_value"`
	SecondaryValues    []string `json:"secondary_filter_values,omitempty"`
	Image              string   `json:"image,omitempty"`
}
