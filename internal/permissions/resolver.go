// Package permissions resolves visibility and purchase gating for a request
// against the property → page → section → item hierarchy.
package permissions

import (
	"context"

	"github.com/mediafabric/fabric-client/internal/catalog"
	"github.com/mediafabric/fabric-client/internal/errs"
	"github.com/mediafabric/fabric-client/pkg/logger"
)

// Request addresses one point in the content hierarchy. PageID defaults to
// "main"; SectionID and SectionItemID are optional and evaluated in order.
type Request struct {
	PropertyID    string
	PageID        string
	SectionID     string
	SectionItemID string
}

// Result is a resolved permission outcome.
type Result struct {
	Authorized              bool
	Behavior                catalog.Behavior
	AlternatePageID         string
	SecondaryPurchaseOption string
	PermissionItemIDs       []string
	Cause                   string
}

const (
	causeSection     = "Section permissions"
	causeSectionItem = "Section item permissions"
)

// Resolver walks the hierarchy top-down, merging permission outcomes.
type Resolver struct {
	cache *catalog.Cache
	log   *logger.Logger
}

// NewResolver creates a resolver over the catalog cache.
func NewResolver(cache *catalog.Cache, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewDefault("permissions")
	}
	return &Resolver{cache: cache, log: log}
}

// Resolve evaluates the request top-down. Each level overwrites behavior,
// alternate page and secondary-purchase only when its descriptor sets them;
// the section level additionally replaces the authorized flag and permission
// item IDs from server-computed values. Resolution is monotonic: once a
// level is unauthorized, lower levels cannot re-permit, and the first
// failing level determines Cause.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	if req.PropertyID == "" {
		return nil, errs.NewBadInput("PropertyID", "empty")
	}

	result := &Result{Authorized: true, Behavior: catalog.BehaviorHide}

	property, err := r.cache.Property(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	result.applySettings(property.Permissions)

	page, err := r.cache.Page(ctx, req.PropertyID, req.PageID)
	if err != nil {
		return nil, err
	}
	result.applySettings(page.Permissions)

	if req.SectionID == "" {
		return result, nil
	}

	section, err := r.cache.Section(ctx, req.PropertyID, req.SectionID)
	if err != nil {
		return nil, err
	}
	result.applySettings(section.Permissions)
	result.replaceAuthorization(section.Permissions)
	if !result.Authorized {
		result.Cause = causeSection
		// The item check is skipped entirely: a lower level cannot widen
		// what the section denied.
		r.log.WithField("section_id", req.SectionID).Debug("unauthorized at section level")
		return result, nil
	}

	if req.SectionItemID == "" {
		return result, nil
	}

	item := findSectionItem(section, req.SectionItemID)
	if item == nil {
		return nil, errs.NewUnexpectedResponse("section item not found: "+req.SectionItemID, nil)
	}
	result.applySettings(item.Permissions)
	result.replaceAuthorization(item.Permissions)
	if !result.Authorized && result.Cause == "" {
		result.Cause = causeSectionItem
	}
	return result, nil
}

// applySettings overwrites the outcome's behavior fields from a descriptor,
// only where the descriptor sets them.
func (res *Result) applySettings(p *catalog.PermissionSettings) {
	if p == nil {
		return
	}
	if p.Behavior == nil {
		return
	}
	res.Behavior = *p.Behavior
	switch *p.Behavior {
	case catalog.BehaviorShowAlternatePage:
		if p.AlternatePageID != "" {
			res.AlternatePageID = p.AlternatePageID
		}
	case catalog.BehaviorShowPurchase:
		if p.SecondaryMarketPurchaseOption != "" {
			res.SecondaryPurchaseOption = p.SecondaryMarketPurchaseOption
		}
	}
}

// replaceAuthorization copies the server-computed authorized flag and the
// referenced permission items. These replace the previous values outright;
// they are never merged.
func (res *Result) replaceAuthorization(p *catalog.PermissionSettings) {
	if p == nil {
		return
	}
	if p.Authorized != nil {
		res.Authorized = *p.Authorized
	}
	if p.PermissionItemIDs != nil {
		res.PermissionItemIDs = p.PermissionItemIDs
	}
}

// findSectionItem locates an item within the section's already-fetched
// content. No network call is made at the item level.
func findSectionItem(section *catalog.MediaPropertySection, itemID string) *catalog.SectionItem {
	for i := range section.Content {
		if section.Content[i].ID == itemID {
			return &section.Content[i]
		}
	}
	return nil
}
