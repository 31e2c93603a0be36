package rulefile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templatefall/templatefall/internal/validate"
)

func writeRuleFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCompileFile_ExpandsPostTypes(t *testing.T) {
	entries, err := CompileFile(writeRuleFile(t, `
rules: [
	{
		template:     12
		post_types:   ["post", "page"]
		user_role:    "editor"
		tax_term_ids: [5, 9]
	},
	{
		template:   40
		post_types: ["product"]
		priority:   2
	},
]
`))
	require.NoError(t, err)
	require.Len(t, entries, 3, "two post types + one expand to three entries")

	assert.Equal(t, validate.Entry{Template: 12, PostType: "post", UserRole: "editor", TaxTermIDs: []int{5, 9}}, entries[0])
	assert.Equal(t, validate.Entry{Template: 12, PostType: "page", UserRole: "editor", TaxTermIDs: []int{5, 9}}, entries[1])
	assert.Equal(t, validate.Entry{Template: 40, PostType: "product", TaxTermIDs: []int{}, Priority: 2}, entries[2])
}

func TestCompileFile_GoldenBatch(t *testing.T) {
	entries, err := CompileFile(writeRuleFile(t, `
rules: [
	{
		template:     12
		post_types:   ["post", "page"]
		user_role:    "editor"
		tax_term_ids: [5, 9]
	},
	{
		template:   40
		post_types: ["product"]
		priority:   2
	},
]
`))
	require.NoError(t, err)

	data, err := json.MarshalIndent(entries, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "compile_rules", data)
}

func TestCompileFile_EmptyListIsValid(t *testing.T) {
	entries, err := CompileFile(writeRuleFile(t, `rules: []`))
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestCompileFile_MissingRulesList(t *testing.T) {
	_, err := CompileFile(writeRuleFile(t, `other: 1`))
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
}

func TestCompileFile_RejectsEmptyPostTypes(t *testing.T) {
	_, err := CompileFile(writeRuleFile(t, `
rules: [{template: 12, post_types: []}]
`))
	require.Error(t, err, "a rule needs at least one post type")
}

func TestCompileFile_RejectsNonPositiveTemplate(t *testing.T) {
	_, err := CompileFile(writeRuleFile(t, `
rules: [{template: 0, post_types: ["post"]}]
`))
	require.Error(t, err)
}

func TestCompileFile_RejectsNegativePriority(t *testing.T) {
	_, err := CompileFile(writeRuleFile(t, `
rules: [{template: 12, post_types: ["post"], priority: -1}]
`))
	require.Error(t, err)
}

func TestCompileFile_RejectsUnknownFields(t *testing.T) {
	_, err := CompileFile(writeRuleFile(t, `
rules: [{template: 12, post_types: ["post"], colour: "red"}]
`))
	require.Error(t, err, "rule files are strict; unknown fields are compile errors")
}

func TestCompileFile_MissingFile(t *testing.T) {
	_, err := CompileFile(filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)
}
