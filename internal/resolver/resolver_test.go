package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/templatefall/templatefall/internal/rule"
)

// fixedSource serves a fixed rule list, or a fixed error.
type fixedSource struct {
	rules []rule.Rule
	err   error
}

func (s *fixedSource) GetAll(ctx context.Context) ([]rule.Rule, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rules, nil
}

func newTestResolver(rules ...rule.Rule) *Resolver {
	return New(&fixedSource{rules: rules})
}

func TestResolve_PriorityOrderWins(t *testing.T) {
	// store = [{tpl:7 types:[post] prio:5}, {tpl:3 types:[page] prio:1}]
	r := newTestResolver(
		rule.Rule{TemplateID: 7, PostTypes: []string{"post"}, Priority: 5},
		rule.Rule{TemplateID: 3, PostTypes: []string{"page"}, Priority: 1},
	)

	// Priority 1 is evaluated first and matches "page".
	id, found := r.Resolve(context.Background(), rule.Item{PostType: "page"}, rule.Viewer{})
	assert.True(t, found)
	assert.Equal(t, 3, id)

	// The priority-1 rule's types don't match "post"; falls through
	// to the priority-5 rule.
	id, found = r.Resolve(context.Background(), rule.Item{PostType: "post"}, rule.Viewer{})
	assert.True(t, found)
	assert.Equal(t, 7, id)
}

func TestResolve_StableSortPreservesListOrderOnTies(t *testing.T) {
	// Priorities [2,2,1]: the priority-1 rule goes first; among the
	// equal priorities the original list order is preserved.
	r := newTestResolver(
		rule.Rule{TemplateID: 10, PostTypes: []string{"post"}, Priority: 2},
		rule.Rule{TemplateID: 20, PostTypes: []string{"post"}, Priority: 2},
		rule.Rule{TemplateID: 30, PostTypes: []string{"page"}, Priority: 1},
	)

	id, found := r.Resolve(context.Background(), rule.Item{PostType: "post"}, rule.Viewer{})
	assert.True(t, found)
	assert.Equal(t, 10, id, "equal priorities keep original list order")

	id, found = r.Resolve(context.Background(), rule.Item{PostType: "page"}, rule.Viewer{})
	assert.True(t, found)
	assert.Equal(t, 30, id, "lower priority is considered first")
}

func TestResolve_FirstMatchWinsNotBestMatch(t *testing.T) {
	// Both rules match; only the earlier (post-sort) one's template
	// is returned, even though the later rule is more specific.
	r := newTestResolver(
		rule.Rule{TemplateID: 1, PostTypes: []string{"post"}, Priority: 0},
		rule.Rule{TemplateID: 2, PostTypes: []string{"post"}, TaxTermIDs: []int{5}, Priority: 1},
	)

	id, found := r.Resolve(context.Background(),
		rule.Item{PostType: "post", TermIDs: []int{5}}, rule.Viewer{})
	assert.True(t, found)
	assert.Equal(t, 1, id)
}

func TestResolve_EmptyPostTypesIsInert(t *testing.T) {
	// A rule with no post types never matches, regardless of its
	// other fields.
	r := newTestResolver(
		rule.Rule{TemplateID: 9, PostTypes: []string{}, Priority: 0},
	)

	for _, pt := range []string{"post", "page", ""} {
		_, found := r.Resolve(context.Background(), rule.Item{PostType: pt}, rule.Viewer{})
		assert.False(t, found, "inert rule must not match post type %q", pt)
	}
}

func TestResolve_MissingTemplateNeverMatches(t *testing.T) {
	r := newTestResolver(
		rule.Rule{TemplateID: rule.TemplateNone, PostTypes: []string{"post"}},
	)

	_, found := r.Resolve(context.Background(), rule.Item{PostType: "post"}, rule.Viewer{})
	assert.False(t, found)
}

func TestResolve_RoleGating(t *testing.T) {
	r := newTestResolver(
		rule.Rule{TemplateID: 4, PostTypes: []string{"post"}, UserRole: "editor"},
	)
	item := rule.Item{PostType: "post"}

	// Unauthenticated viewer never satisfies a role condition.
	_, found := r.Resolve(context.Background(), item, rule.Viewer{})
	assert.False(t, found)

	// Authenticated but lacking the capability.
	_, found = r.Resolve(context.Background(), item,
		rule.Viewer{Authenticated: true, Capabilities: []string{"author"}})
	assert.False(t, found)

	// Authenticated and holding the capability.
	id, found := r.Resolve(context.Background(), item,
		rule.Viewer{Authenticated: true, Capabilities: []string{"editor"}})
	assert.True(t, found)
	assert.Equal(t, 4, id)
}

func TestResolve_NoRoleMatchesEveryone(t *testing.T) {
	r := newTestResolver(
		rule.Rule{TemplateID: 4, PostTypes: []string{"post"}, UserRole: ""},
	)
	item := rule.Item{PostType: "post"}

	_, found := r.Resolve(context.Background(), item, rule.Viewer{})
	assert.True(t, found, "empty role matches anonymous viewers")

	_, found = r.Resolve(context.Background(), item,
		rule.Viewer{Authenticated: true, Capabilities: []string{"subscriber"}})
	assert.True(t, found, "empty role matches any authenticated viewer")
}

func TestResolve_TaxonomyGating(t *testing.T) {
	r := newTestResolver(
		rule.Rule{TemplateID: 6, PostTypes: []string{"post", "product"}, TaxTermIDs: []int{5, 9}},
	)

	// Eligible type carrying one required term.
	id, found := r.Resolve(context.Background(),
		rule.Item{PostType: "post", TermIDs: []int{9, 12}}, rule.Viewer{})
	assert.True(t, found)
	assert.Equal(t, 6, id)

	// Eligible type carrying none of the required terms.
	_, found = r.Resolve(context.Background(),
		rule.Item{PostType: "post", TermIDs: []int{1, 2}}, rule.Viewer{})
	assert.False(t, found)

	// Non-eligible type: the taxonomy condition is vacuously
	// satisfied regardless of terms.
	id, found = r.Resolve(context.Background(),
		rule.Item{PostType: "product", TermIDs: []int{1, 2}}, rule.Viewer{})
	assert.True(t, found)
	assert.Equal(t, 6, id)
}

func TestResolve_SubscriberRuleExampleReturnsNoResult(t *testing.T) {
	// rule {tpl:4 types:[post] role:subscriber}, viewer authed with
	// role "author" only → no match.
	r := newTestResolver(
		rule.Rule{TemplateID: 4, PostTypes: []string{"post"}, UserRole: "subscriber", Priority: 0},
	)

	_, found := r.Resolve(context.Background(),
		rule.Item{PostType: "post"},
		rule.Viewer{Authenticated: true, Capabilities: []string{"author"}})
	assert.False(t, found)
}

func TestResolve_Deterministic(t *testing.T) {
	r := newTestResolver(
		rule.Rule{TemplateID: 7, PostTypes: []string{"post"}, Priority: 5},
		rule.Rule{TemplateID: 3, PostTypes: []string{"post"}, Priority: 5},
		rule.Rule{TemplateID: 9, PostTypes: []string{"post"}, Priority: 0},
	)
	item := rule.Item{PostType: "post"}

	first, found := r.Resolve(context.Background(), item, rule.Viewer{})
	assert.True(t, found)
	for i := 0; i < 20; i++ {
		id, ok := r.Resolve(context.Background(), item, rule.Viewer{})
		assert.True(t, ok)
		assert.Equal(t, first, id, "repeated resolution must be deterministic")
	}
}

func TestResolve_StorageFailureDegradesToNoResult(t *testing.T) {
	r := New(&fixedSource{err: errors.New("database locked")})

	id, found := r.Resolve(context.Background(), rule.Item{PostType: "post"}, rule.Viewer{})
	assert.False(t, found, "resolution never raises; the render completes without a fallback")
	assert.Equal(t, rule.TemplateNone, id)
}

func TestResolve_EmptyList(t *testing.T) {
	r := newTestResolver()

	_, found := r.Resolve(context.Background(), rule.Item{PostType: "post"}, rule.Viewer{})
	assert.False(t, found)
}
