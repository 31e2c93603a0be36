package validate

import (
	"encoding/json"

	"github.com/templatefall/templatefall/internal/rule"
)

// Directory is the injected lookup surface the batch validator checks
// references against. Satisfied by *catalog.Catalog in production and
// by fixtures in tests.
type Directory interface {
	// TemplateExists reports whether a template with the given id is
	// installed.
	TemplateExists(id int) bool

	// ContentTypeExists reports whether the host knows the given
	// content type.
	ContentTypeExists(name string) bool
}

// Entry is one sanitized element of a bulk-save batch. The editing UI
// lets an administrator pick several post types per visual rule but
// persists them as one entry per post type, so an entry carries a
// single PostType.
type Entry struct {
	Template   int    `json:"template"`
	PostType   string `json:"post_type"`
	UserRole   string `json:"user_role"`
	TaxTermIDs []int  `json:"tax_term_ids"`
	Priority   int    `json:"priority"`
}

// ParseBatch decodes an untrusted JSON batch payload into sanitized
// entries. Field coercion is forgiving (string-or-number ids, single
// scalars where sets are expected); a payload that is not a JSON
// array at all is rejected with ErrCodeBadPayload.
func ParseBatch(data []byte) ([]Entry, error) {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{
			Code:    ErrCodeBadPayload,
			Index:   -1,
			Message: "rules payload must be a JSON array",
		}
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			Template:   coerceID(m["template"]),
			PostType:   coerceToken(m["post_type"]),
			UserRole:   coerceToken(m["user_role"]),
			TaxTermIDs: coerceIDSet(m["tax_term_ids"]),
			Priority:   coerceID(m["priority"]),
		})
	}
	return entries, nil
}

// ValidateBatch checks a sanitized batch against the directory and
// the cross-entry invariants, and converts it into storable rules:
//
//   - every entry references an existing template
//   - every entry references a known content type
//   - template ids are pairwise distinct across the batch
//   - post types are pairwise distinct across the batch
//
// The first violation fails the whole batch; there is no partial
// result. An empty batch is valid and yields an empty list.
func ValidateBatch(entries []Entry, dir Directory) ([]rule.Rule, error) {
	seenTemplates := make(map[int]struct{}, len(entries))
	seenPostTypes := make(map[string]struct{}, len(entries))

	rules := make([]rule.Rule, 0, len(entries))
	for i, e := range entries {
		if e.Template == rule.TemplateNone {
			return nil, newEntryError(ErrCodeMissingTemplate, i,
				"missing template or post type")
		}
		if e.PostType == "" {
			return nil, newEntryError(ErrCodeMissingPostType, i,
				"missing template or post type")
		}
		if !dir.TemplateExists(e.Template) {
			return nil, newEntryError(ErrCodeUnknownTemplate, i,
				"template %d does not exist", e.Template)
		}
		if !dir.ContentTypeExists(e.PostType) {
			return nil, newEntryError(ErrCodeUnknownPostType, i,
				"unknown post type %q", e.PostType)
		}
		if _, dup := seenTemplates[e.Template]; dup {
			return nil, newEntryError(ErrCodeDuplicateTemplate, i,
				"template %d is already used by another rule", e.Template)
		}
		if _, dup := seenPostTypes[e.PostType]; dup {
			return nil, newEntryError(ErrCodeDuplicatePostType, i,
				"post type %q is already claimed by another rule", e.PostType)
		}
		seenTemplates[e.Template] = struct{}{}
		seenPostTypes[e.PostType] = struct{}{}

		termIDs := e.TaxTermIDs
		if termIDs == nil {
			termIDs = []int{}
		}
		rules = append(rules, rule.Rule{
			TemplateID: e.Template,
			PostTypes:  []string{e.PostType},
			UserRole:   e.UserRole,
			TaxTermIDs: termIDs,
			Priority:   e.Priority,
		})
	}

	return rules, nil
}
