package lint

import (
	"context"
	"sync"

	"github.com/dotcommander/classlint/internal/source"
	"github.com/dotcommander/classlint/internal/types"
)

// siteHost serves the latest loaded export of one file. Reloading swaps
// the site while the engine and its cache stay in place.
type siteHost struct {
	mu   sync.RWMutex
	site *source.Site
}

func newSiteHost(site *source.Site) *siteHost {
	return &siteHost{site: site}
}

func (h *siteHost) swap(site *source.Site) {
	h.mu.Lock()
	h.site = site
	h.mu.Unlock()
}

func (h *siteHost) current() *source.Site {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.site
}

func (h *siteHost) Elements(ctx context.Context) ([]types.ElementSnapshot, error) {
	return h.current().Elements(ctx)
}

func (h *siteHost) AppliedClasses(ctx context.Context, elementID string) ([]types.AppliedClass, error) {
	return h.current().AppliedClasses(ctx, elementID)
}

func (h *siteHost) Children(ctx context.Context, elementID string) ([]string, error) {
	return h.current().Children(ctx, elementID)
}

func (h *siteHost) Styles(ctx context.Context) ([]types.StyleDefinition, error) {
	return h.current().Styles(ctx)
}

func (h *siteHost) Properties(ctx context.Context, styleID, breakpoint string) (map[string]any, error) {
	return h.current().Properties(ctx, styleID, breakpoint)
}
