package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInert_Shape(t *testing.T) {
	r := Inert()

	assert.Equal(t, TemplateNone, r.TemplateID)
	assert.Empty(t, r.PostTypes)
	assert.NotNil(t, r.PostTypes, "post types must be an empty set, not nil")
	assert.Equal(t, "", r.UserRole)
	assert.Empty(t, r.TaxTermIDs)
	assert.NotNil(t, r.TaxTermIDs, "term ids must be an empty set, not nil")
	assert.Equal(t, 0, r.Priority)
}

func TestRule_HasPostType(t *testing.T) {
	r := Rule{PostTypes: []string{"post", "page"}}

	assert.True(t, r.HasPostType("post"))
	assert.True(t, r.HasPostType("page"))
	assert.False(t, r.HasPostType("product"))
	assert.False(t, Rule{}.HasPostType("post"), "empty set contains nothing")
}

func TestRule_HasAnyTerm(t *testing.T) {
	r := Rule{TaxTermIDs: []int{5, 9}}

	assert.True(t, r.HasAnyTerm([]int{9, 12}))
	assert.True(t, r.HasAnyTerm([]int{5}))
	assert.False(t, r.HasAnyTerm([]int{1, 2}))
	assert.False(t, r.HasAnyTerm(nil))
	assert.False(t, Rule{}.HasAnyTerm([]int{5}), "empty rule set intersects nothing")
}

func TestViewer_Can(t *testing.T) {
	anon := Viewer{}
	assert.False(t, anon.Can("editor"), "anonymous viewers hold no capabilities")

	authed := Viewer{Authenticated: true, Capabilities: []string{"author"}}
	assert.True(t, authed.Can("author"))
	assert.False(t, authed.Can("editor"))
}
