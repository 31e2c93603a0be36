package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templatefall/templatefall/internal/rule"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestGetAll_LazyInitSeedsInertRule(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rules, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, rule.Inert(), rules[0])

	// The initialization must have been persisted, not just cached.
	value, found, err := s.readValue(ctx, keyRules)
	require.NoError(t, err)
	assert.True(t, found, "first read must persist the seeded list")
	assert.NotEmpty(t, value)
}

func TestGetAll_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	saved := []rule.Rule{
		{TemplateID: 7, PostTypes: []string{"post"}, TaxTermIDs: []int{}, Priority: 5},
		{TemplateID: 3, PostTypes: []string{"page"}, UserRole: "editor", TaxTermIDs: []int{1, 2}, Priority: 1},
	}
	require.NoError(t, s1.ReplaceAll(ctx, saved))
	s1.Close()

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestReplaceAll_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved := []rule.Rule{
		{TemplateID: 12, PostTypes: []string{"post", "page"}, UserRole: "editor", TaxTermIDs: []int{5, 9}, Priority: 0},
		{TemplateID: 4, PostTypes: []string{"product"}, UserRole: "", TaxTermIDs: []int{}, Priority: 3},
	}
	require.NoError(t, s.ReplaceAll(ctx, saved))

	got, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, saved[0], got[0])
	// Nil sets come back as empty sets, never nil.
	assert.NotNil(t, got[1].TaxTermIDs)
	assert.Equal(t, saved[1], got[1])
}

func TestGetAll_ReturnsPrivateCopy(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, []rule.Rule{
		{TemplateID: 7, PostTypes: []string{"post"}},
	}))

	first, err := s.GetAll(ctx)
	require.NoError(t, err)
	first[0].TemplateID = 99
	first[0].PostTypes[0] = "tampered"

	second, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, second[0].TemplateID)
	assert.Equal(t, "post", second[0].PostTypes[0])
}

func TestAppend_AddsAtEnd(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	added := rule.Rule{TemplateID: 5, PostTypes: []string{"page"}, TaxTermIDs: []int{}, Priority: 1}
	updated, err := s.Append(ctx, added)
	require.NoError(t, err)

	// Lazy init seeded one inert rule first.
	require.Len(t, updated, 2)
	assert.Equal(t, rule.Inert(), updated[0])
	assert.Equal(t, added, updated[1])
}

func TestRemoveAt_RemovesAndReindexes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, []rule.Rule{
		{TemplateID: 1, PostTypes: []string{"a"}, TaxTermIDs: []int{}, Priority: 9},
		{TemplateID: 2, PostTypes: []string{"b"}, TaxTermIDs: []int{}, Priority: 0},
		{TemplateID: 3, PostTypes: []string{"c"}, TaxTermIDs: []int{}, Priority: 4},
	}))

	updated, err := s.RemoveAt(ctx, 1)
	require.NoError(t, err)
	require.Len(t, updated, 2)
	assert.Equal(t, 1, updated[0].TemplateID)
	assert.Equal(t, 3, updated[1].TemplateID)
	// Priorities are not renumbered.
	assert.Equal(t, 9, updated[0].Priority)
	assert.Equal(t, 4, updated[1].Priority)
}

func TestRemoveAt_OutOfRangeIsNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	before, err := s.GetAll(ctx)
	require.NoError(t, err)

	for _, index := range []int{-1, len(before), 100} {
		got, err := s.RemoveAt(ctx, index)
		assert.True(t, IsNotFound(err), "index %d must report not found", index)
		assert.Equal(t, before, got, "index %d must leave the list unchanged", index)
	}
}

func TestReset_YieldsSingleInertRule(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, []rule.Rule{
		{TemplateID: 7, PostTypes: []string{"post"}, TaxTermIDs: []int{}},
		{TemplateID: 8, PostTypes: []string{"page"}, TaxTermIDs: []int{}},
	}))

	reset, err := s.Reset(ctx)
	require.NoError(t, err)
	require.Len(t, reset, 1)
	assert.Equal(t, rule.Inert(), reset[0])

	got, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, reset, got)
}

func TestEnabledCategories_DefaultIsContent(t *testing.T) {
	s := openTestStore(t)

	cats, err := s.GetEnabledCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []rule.Category{rule.CategoryContent}, cats)
}

func TestEnabledCategories_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := []rule.Category{rule.CategoryContent, rule.CategoryPopup}
	require.NoError(t, s.SetEnabledCategories(ctx, want))

	got, err := s.GetEnabledCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTeardown_DeletesBothValuesAndDropsCache(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, []rule.Rule{
		{TemplateID: 7, PostTypes: []string{"post"}, TaxTermIDs: []int{}},
	}))
	require.NoError(t, s.SetEnabledCategories(ctx, []rule.Category{rule.CategoryHeader}))

	require.NoError(t, s.Teardown(ctx))

	_, found, err := s.readValue(ctx, keyRules)
	require.NoError(t, err)
	assert.False(t, found, "rules row must be deleted")
	_, found, err = s.readValue(ctx, keyCategories)
	require.NoError(t, err)
	assert.False(t, found, "categories row must be deleted")

	// Next read lazily re-initializes.
	rules, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, rule.Inert(), rules[0])

	cats, err := s.GetEnabledCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, rule.DefaultCategories(), cats)
}
