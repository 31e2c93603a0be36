// Package resolver selects the fallback template for a content item.
//
// Resolution is a pure read: it sorts a snapshot of the rule list by
// priority (stable, ties keep list order) and returns the template of
// the FIRST rule whose every condition holds. It never mutates state
// and never fails a render - malformed rules simply do not match, and
// a storage failure resolves to "no result".
package resolver

import (
	"context"
	"log/slog"
	"sort"

	"github.com/templatefall/templatefall/internal/rule"
)

// RuleSource provides the rule-list snapshot a resolution reads.
// Satisfied by *store.Store.
type RuleSource interface {
	GetAll(ctx context.Context) ([]rule.Rule, error)
}

// Resolver evaluates the rule list against a viewing context.
//
// Thread-safety: Resolve is read-only and safe for concurrent use;
// simultaneous resolutions for different items do not interfere.
type Resolver struct {
	source RuleSource
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for decision tracing. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a Resolver reading from the given source.
func New(source RuleSource, opts ...Option) *Resolver {
	r := &Resolver{
		source: source,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the winning template id for the given item and
// viewer, or found=false when no rule matches.
//
// Evaluation order: rules sorted by priority ascending with the
// original list position as an explicit secondary key, so ties always
// preserve list order even if the sort implementation changes. The
// first matching rule wins - this is first-match-wins, not best-match.
//
// Resolve never returns an error: the render pipeline must always
// complete, with or without a fallback template.
func (r *Resolver) Resolve(ctx context.Context, item rule.Item, viewer rule.Viewer) (int, bool) {
	rules, err := r.source.GetAll(ctx)
	if err != nil {
		r.logger.Warn("rule list unavailable, resolving to no result",
			"item_id", item.ID, "error", err)
		return rule.TemplateNone, false
	}

	for _, idx := range evaluationOrder(rules) {
		if matches(rules[idx], item, viewer) {
			r.logger.Debug("fallback template resolved",
				"item_id", item.ID,
				"post_type", item.PostType,
				"rule_index", idx,
				"template_id", rules[idx].TemplateID)
			return rules[idx].TemplateID, true
		}
	}

	r.logger.Debug("no fallback template matched",
		"item_id", item.ID, "post_type", item.PostType)
	return rule.TemplateNone, false
}

// evaluationOrder returns rule indices sorted by (priority, original
// position). The explicit secondary key makes the tie-break
// deterministic without relying on sort stability.
func evaluationOrder(rules []rule.Rule) []int {
	order := make([]int, len(rules))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ra, rb := order[a], order[b]
		if rules[ra].Priority != rules[rb].Priority {
			return rules[ra].Priority < rules[rb].Priority
		}
		return ra < rb
	})
	return order
}

// matches checks every condition of one rule against the context.
//
// Returns true only if ALL conditions are satisfied:
//  1. A template is selected.
//  2. The rule's post-type set is non-empty AND contains the item's
//     type. An empty set means the rule can never match - a rule with
//     no post types declared is inert, not "all post types".
//  3. No role is required, OR the viewer is authenticated and holds
//     the role's capability.
//  4. No terms are required, OR the item is not of the
//     taxonomy-eligible type (the condition is vacuous there), OR the
//     item carries at least one of the required terms.
func matches(r rule.Rule, item rule.Item, viewer rule.Viewer) bool {
	if r.TemplateID == rule.TemplateNone {
		return false
	}

	if len(r.PostTypes) == 0 || !r.HasPostType(item.PostType) {
		return false
	}

	if r.UserRole != "" && !viewer.Can(r.UserRole) {
		return false
	}

	if len(r.TaxTermIDs) > 0 && item.PostType == rule.TaxonomyPostType {
		if !r.HasAnyTerm(item.TermIDs) {
			return false
		}
	}

	return true
}
