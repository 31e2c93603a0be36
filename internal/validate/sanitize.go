// Package validate normalizes untrusted rule input and enforces the
// batch invariants before anything reaches the store.
//
// Sanitization is forgiving: every field is independently coerced to
// its canonical form, unknown fields are dropped silently, and
// malformed scalars degrade to the field's zero value. Batch
// validation is strict: one violation fails the whole batch.
package validate

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/templatefall/templatefall/internal/rule"
)

// SanitizeRule coerces one rule-shaped map of untrusted data into a
// well-formed Rule. Unknown fields are ignored (forward-compatible);
// missing or malformed fields take their zero value.
func SanitizeRule(raw map[string]any) rule.Rule {
	return rule.Rule{
		TemplateID: coerceID(raw["template_id"]),
		PostTypes:  coerceStringSet(raw["post_types"]),
		UserRole:   coerceToken(raw["user_role"]),
		TaxTermIDs: coerceIDSet(raw["tax_term_ids"]),
		Priority:   coerceID(raw["priority"]),
	}
}

// SanitizeRules coerces a list of rule-shaped maps. Entries that are
// not objects are dropped.
func SanitizeRules(raw []any) []rule.Rule {
	rules := make([]rule.Rule, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rules = append(rules, SanitizeRule(m))
	}
	return rules
}

// SanitizeCategories intersects submitted category tags with the
// closed enumeration. Unknown tags are dropped, never an error, and
// duplicates collapse. Order follows the enumeration so the result is
// deterministic regardless of submission order.
func SanitizeCategories(tags []string) []rule.Category {
	submitted := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		submitted[strings.TrimSpace(tag)] = struct{}{}
	}

	out := []rule.Category{}
	for _, c := range rule.AllCategories() {
		if _, ok := submitted[string(c)]; ok {
			out = append(out, c)
		}
	}
	return out
}

// coerceID coerces an untrusted scalar to a non-negative integer.
// Accepts JSON numbers, numeric strings, and json.Number; anything
// else (including negatives) coerces to 0.
func coerceID(v any) int {
	switch val := v.(type) {
	case nil:
		return 0
	case int:
		return clampNonNegative(val)
	case int64:
		return clampNonNegative(int(val))
	case float64:
		return clampNonNegative(int(val))
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return 0
		}
		return clampNonNegative(int(n))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0
		}
		return clampNonNegative(n)
	default:
		return 0
	}
}

// coerceToken coerces an untrusted scalar to a trimmed string token.
func coerceToken(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.Itoa(int(val))
	case int:
		return strconv.Itoa(val)
	default:
		return ""
	}
}

// coerceStringSet coerces a value into a set of string tokens.
// Accepts an array of scalars or a single scalar; empty tokens are
// dropped and duplicates collapse, preserving first appearance.
func coerceStringSet(v any) []string {
	out := []string{}
	seen := make(map[string]struct{})
	add := func(item any) {
		token := coerceToken(item)
		if token == "" {
			return
		}
		if _, dup := seen[token]; dup {
			return
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}

	switch val := v.(type) {
	case []any:
		for _, item := range val {
			add(item)
		}
	case []string:
		for _, item := range val {
			add(item)
		}
	case nil:
		// empty set
	default:
		add(val)
	}
	return out
}

// coerceIDSet coerces a value into a set of positive integer ids.
// Accepts an array of scalars or a single scalar; zero and negative
// values are dropped and duplicates collapse.
func coerceIDSet(v any) []int {
	out := []int{}
	seen := make(map[int]struct{})
	add := func(item any) {
		id := coerceID(item)
		if id == 0 {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	switch val := v.(type) {
	case []any:
		for _, item := range val {
			add(item)
		}
	case []int:
		for _, item := range val {
			add(item)
		}
	case nil:
		// empty set
	default:
		add(val)
	}
	return out
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
