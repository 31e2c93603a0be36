// Package rulefile compiles declarative CUE rule files into bulk-save
// batches.
//
// A rule file carries the visual-rule shape (several post types per
// rule); compilation expands each rule into one batch entry per post
// type, exactly as the editing UI does before a bulk save, so both
// paths feed the same batch validator.
package rulefile

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/templatefall/templatefall/internal/validate"
)

// schema constrains rule files. Unified with the file's value before
// decoding, so structural errors surface with CUE positions.
const schema = `
rules: [...#Rule]

#Rule: {
	template:     int & >0
	post_types:   [string, ...string]
	user_role:    string | *""
	tax_term_ids: [...int & >0] | *[]
	priority:     int & >=0 | *0
}
`

// CompileError represents a rule-file compilation failure.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileFile loads and compiles one CUE rule file into batch
// entries. The entries still need batch validation (catalog lookups,
// duplicate checks) before they can be persisted.
func CompileFile(path string) ([]validate.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}

	ctx := cuecontext.New()

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, &CompileError{Field: "rules", Message: err.Error()}
	}

	constrained := ctx.CompileString(schema).Unify(v)
	if err := constrained.Validate(cue.Concrete(true)); err != nil {
		return nil, &CompileError{Field: "rules", Message: err.Error()}
	}

	return Compile(constrained)
}

// Compile converts a validated CUE value into batch entries,
// expanding each rule 1:1 into "entry per post type".
func Compile(v cue.Value) ([]validate.Entry, error) {
	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, &CompileError{
			Field:   "rules",
			Message: "rules list is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := rulesVal.List()
	if err != nil {
		return nil, &CompileError{Field: "rules", Message: err.Error(), Pos: rulesVal.Pos()}
	}

	var entries []validate.Entry
	index := 0
	for iter.Next() {
		ruleEntries, err := compileRule(iter.Value(), index)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ruleEntries...)
		index++
	}

	if entries == nil {
		entries = []validate.Entry{}
	}
	return entries, nil
}

// compileRule parses one visual rule and expands it per post type.
func compileRule(v cue.Value, index int) ([]validate.Entry, error) {
	field := func(name string) string {
		return fmt.Sprintf("rules[%d].%s", index, name)
	}

	template, err := intField(v, "template")
	if err != nil {
		return nil, &CompileError{Field: field("template"), Message: err.Error(), Pos: v.Pos()}
	}

	postTypes, err := stringListField(v, "post_types")
	if err != nil {
		return nil, &CompileError{Field: field("post_types"), Message: err.Error(), Pos: v.Pos()}
	}

	userRole, err := stringField(v, "user_role")
	if err != nil {
		return nil, &CompileError{Field: field("user_role"), Message: err.Error(), Pos: v.Pos()}
	}

	termIDs, err := intListField(v, "tax_term_ids")
	if err != nil {
		return nil, &CompileError{Field: field("tax_term_ids"), Message: err.Error(), Pos: v.Pos()}
	}

	priority, err := intField(v, "priority")
	if err != nil {
		return nil, &CompileError{Field: field("priority"), Message: err.Error(), Pos: v.Pos()}
	}

	entries := make([]validate.Entry, 0, len(postTypes))
	for _, pt := range postTypes {
		entries = append(entries, validate.Entry{
			Template:   template,
			PostType:   pt,
			UserRole:   userRole,
			TaxTermIDs: append([]int{}, termIDs...),
			Priority:   priority,
		})
	}
	return entries, nil
}

func intField(v cue.Value, name string) (int, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return 0, fmt.Errorf("%s is required", name)
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func stringField(v cue.Value, name string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", fmt.Errorf("%s is required", name)
	}
	return fv.String()
}

func stringListField(v cue.Value, name string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return nil, fmt.Errorf("%s is required", name)
	}
	iter, err := fv.List()
	if err != nil {
		return nil, err
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func intListField(v cue.Value, name string) ([]int, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return nil, fmt.Errorf("%s is required", name)
	}
	iter, err := fv.List()
	if err != nil {
		return nil, err
	}
	var out []int
	for iter.Next() {
		n, err := iter.Value().Int64()
		if err != nil {
			return nil, err
		}
		out = append(out, int(n))
	}
	return out, nil
}
