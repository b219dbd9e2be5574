package permissions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediafabric/fabric-client/internal/catalog"
	"github.com/mediafabric/fabric-client/pkg/logger"
)

// graphFetcher serves a fixed content graph to the cache.
type graphFetcher struct {
	property *catalog.MediaProperty
	pages    map[string]*catalog.MediaPropertyPage
	sections map[string]*catalog.MediaPropertySection
}

func (g *graphFetcher) GetProperty(context.Context, string) (*catalog.MediaProperty, error) {
	return g.property, nil
}

func (g *graphFetcher) GetPage(_ context.Context, _, pageID string) (*catalog.MediaPropertyPage, error) {
	if page, ok := g.pages[pageID]; ok {
		return page, nil
	}
	return &catalog.MediaPropertyPage{ID: pageID}, nil
}

func (g *graphFetcher) GetSections(_ context.Context, _ string, ids []string, _ bool) ([]*catalog.MediaPropertySection, error) {
	out := make([]*catalog.MediaPropertySection, 0, len(ids))
	for _, id := range ids {
		if section, ok := g.sections[id]; ok {
			out = append(out, section)
		}
	}
	return out, nil
}

func (g *graphFetcher) GetMediaItems(context.Context, string, []string) ([]*catalog.MediaItem, error) {
	return nil, nil
}

func behaviorPtr(b catalog.Behavior) *catalog.Behavior { return &b }
func boolPtr(b bool) *bool                             { return &b }

func newGraphResolver(g *graphFetcher) *Resolver {
	return NewResolver(catalog.NewCache(g, logger.NewNop()), logger.NewNop())
}

func TestResolveDefaults(t *testing.T) {
	r := newGraphResolver(&graphFetcher{
		property: &catalog.MediaProperty{ID: "prop1"},
		pages:    map[string]*catalog.MediaPropertyPage{},
	})

	result, err := r.Resolve(context.Background(), Request{PropertyID: "prop1"})
	require.NoError(t, err)
	assert.True(t, result.Authorized)
	assert.Equal(t, catalog.BehaviorHide, result.Behavior)
	assert.Empty(t, result.Cause)
}

func TestResolveOverwritesOnlyWhenPresent(t *testing.T) {
	r := newGraphResolver(&graphFetcher{
		property: &catalog.MediaProperty{
			ID: "prop1",
			Permissions: &catalog.PermissionSettings{
				Behavior:        behaviorPtr(catalog.BehaviorShowAlternatePage),
				AlternatePageID: "upsell",
			},
		},
		// The main page carries no permissions: the property-level outcome
		// must survive untouched.
		pages: map[string]*catalog.MediaPropertyPage{"main": {ID: "main"}},
	})

	result, err := r.Resolve(context.Background(), Request{PropertyID: "prop1"})
	require.NoError(t, err)
	assert.Equal(t, catalog.BehaviorShowAlternatePage, result.Behavior)
	assert.Equal(t, "upsell", result.AlternatePageID)
}

func TestResolvePageOverridesProperty(t *testing.T) {
	r := newGraphResolver(&graphFetcher{
		property: &catalog.MediaProperty{
			ID:          "prop1",
			Permissions: &catalog.PermissionSettings{Behavior: behaviorPtr(catalog.BehaviorHide)},
		},
		pages: map[string]*catalog.MediaPropertyPage{
			"main": {
				ID: "main",
				Permissions: &catalog.PermissionSettings{
					Behavior:                      behaviorPtr(catalog.BehaviorShowPurchase),
					SecondaryMarketPurchaseOption: "secondary",
				},
			},
		},
	})

	result, err := r.Resolve(context.Background(), Request{PropertyID: "prop1"})
	require.NoError(t, err)
	assert.Equal(t, catalog.BehaviorShowPurchase, result.Behavior)
	assert.Equal(t, "secondary", result.SecondaryPurchaseOption)
}

func TestResolveSectionDeniesMonotonically(t *testing.T) {
	// The section is unauthorized while its nested item claims authorized:
	// the outcome must stay unauthorized with the section-level cause, and
	// the item must not be consulted at all.
	r := newGraphResolver(&graphFetcher{
		property: &catalog.MediaProperty{ID: "prop1"},
		pages:    map[string]*catalog.MediaPropertyPage{},
		sections: map[string]*catalog.MediaPropertySection{
			"sec1": {
				ID: "sec1",
				Permissions: &catalog.PermissionSettings{
					Authorized:        boolPtr(false),
					PermissionItemIDs: []string{"perm1"},
				},
				Content: []catalog.SectionItem{{
					ID:          "item1",
					Permissions: &catalog.PermissionSettings{Authorized: boolPtr(true)},
				}},
			},
		},
	})

	result, err := r.Resolve(context.Background(), Request{
		PropertyID:    "prop1",
		SectionID:     "sec1",
		SectionItemID: "item1",
	})
	require.NoError(t, err)
	assert.False(t, result.Authorized)
	assert.Equal(t, "Section permissions", result.Cause)
	assert.Equal(t, []string{"perm1"}, result.PermissionItemIDs)
}

func TestResolveSectionItemDenial(t *testing.T) {
	r := newGraphResolver(&graphFetcher{
		property: &catalog.MediaProperty{ID: "prop1"},
		pages:    map[string]*catalog.MediaPropertyPage{},
		sections: map[string]*catalog.MediaPropertySection{
			"sec1": {
				ID:          "sec1",
				Permissions: &catalog.PermissionSettings{Authorized: boolPtr(true)},
				Content: []catalog.SectionItem{{
					ID: "item1",
					Permissions: &catalog.PermissionSettings{
						Authorized:        boolPtr(false),
						PermissionItemIDs: []string{"perm2"},
						Behavior:          behaviorPtr(catalog.BehaviorShowPurchase),
					},
				}},
			},
		},
	})

	result, err := r.Resolve(context.Background(), Request{
		PropertyID:    "prop1",
		SectionID:     "sec1",
		SectionItemID: "item1",
	})
	require.NoError(t, err)
	assert.False(t, result.Authorized)
	assert.Equal(t, "Section item permissions", result.Cause)
	assert.Equal(t, catalog.BehaviorShowPurchase, result.Behavior)
	assert.Equal(t, []string{"perm2"}, result.PermissionItemIDs)
}

func TestResolveUnknownSectionItem(t *testing.T) {
	r := newGraphResolver(&graphFetcher{
		property: &catalog.MediaProperty{ID: "prop1"},
		pages:    map[string]*catalog.MediaPropertyPage{},
		sections: map[string]*catalog.MediaPropertySection{
			"sec1": {ID: "sec1", Permissions: &catalog.PermissionSettings{Authorized: boolPtr(true)}},
		},
	})

	_, err := r.Resolve(context.Background(), Request{
		PropertyID:    "prop1",
		SectionID:     "sec1",
		SectionItemID: "ghost",
	})
	require.Error(t, err)
}

func TestResolveRequiresProperty(t *testing.T) {
	r := newGraphResolver(&graphFetcher{property: &catalog.MediaProperty{ID: "p"}})
	_, err := r.Resolve(context.Background(), Request{})
	require.Error(t, err)
}
