package resolver

import (
	"context"

	"github.com/templatefall/templatefall/internal/rule"
)

// SlotContent is the main-content rendering slot. It is the only slot
// the fallback engine substitutes into; requests for other kinds pass
// through untouched.
const SlotContent = "content"

// RenderRequest carries the host's facts for one content render.
// Whether the item was authored with the builder's native editor and
// whether this request is the builder's own editing view are
// host-supplied facts, never computed here.
type RenderRequest struct {
	// ActiveTemplates is the host's current slot-to-template mapping.
	ActiveTemplates map[string]int

	// Kind tags the rendering slot being filled.
	Kind string

	// Item is the content item being rendered.
	Item rule.Item

	// Viewer is the current viewing context.
	Viewer rule.Viewer

	// HasNativeContent reports whether the item was authored with the
	// builder's native editor. Items with native content never get a
	// fallback.
	HasNativeContent bool

	// IsBuilderEditing reports whether the request is the builder's
	// own editing view, which must always see the item as-is.
	IsBuilderEditing bool
}

// ApplyActiveTemplates is the host integration hook, invoked once per
// content render. When the request renders the main-content slot for
// an item without native builder content (and outside the builder's
// editor), the content slot is replaced with the resolved fallback
// template. In every other case the mapping is returned unchanged.
//
// The input mapping is never mutated; substitution returns a copy.
func (r *Resolver) ApplyActiveTemplates(ctx context.Context, req RenderRequest) map[string]int {
	if req.Kind != SlotContent {
		return req.ActiveTemplates
	}
	if req.HasNativeContent || req.IsBuilderEditing {
		return req.ActiveTemplates
	}

	templateID, found := r.Resolve(ctx, req.Item, req.Viewer)
	if !found {
		return req.ActiveTemplates
	}

	out := make(map[string]int, len(req.ActiveTemplates)+1)
	for slot, id := range req.ActiveTemplates {
		out[slot] = id
	}
	out[SlotContent] = templateID
	return out
}
