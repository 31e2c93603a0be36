package rule

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces the canonical JSON form of a rule list.
// This is the ONLY serialization used for persistence and for the list
// hash, so it must be byte-stable for equal lists:
//
//  1. Object keys appear in a fixed order (the struct field order of
//     Rule's canonical key set, sorted).
//  2. No HTML escaping (< > & are NOT escaped).
//  3. Strings are NFC normalized at the serialization boundary.
//  4. Nil sets serialize as empty arrays, never as null.
//
// The encoding is a strict subset of ordinary JSON, so the stored text
// round-trips through UnmarshalList.
func MarshalCanonical(rules []Rule) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range rules {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalCanonicalRule(&buf, r); err != nil {
			return nil, fmt.Errorf("rule[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalList parses stored canonical JSON text back into a rule list.
// Nil sets are materialized as empty slices so that round-tripped lists
// compare equal to their canonical form.
func UnmarshalList(data []byte) ([]Rule, error) {
	if len(data) == 0 {
		return []Rule{}, nil
	}
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("unmarshal rule list: %w", err)
	}
	for i := range rules {
		if rules[i].PostTypes == nil {
			rules[i].PostTypes = []string{}
		}
		if rules[i].TaxTermIDs == nil {
			rules[i].TaxTermIDs = []int{}
		}
	}
	if rules == nil {
		rules = []Rule{}
	}
	return rules, nil
}

// marshalCanonicalRule writes one rule object with keys in sorted order:
// post_types, priority, tax_term_ids, template_id, user_role.
func marshalCanonicalRule(buf *bytes.Buffer, r Rule) error {
	buf.WriteString(`{"post_types":[`)
	for i, pt := range r.PostTypes {
		if i > 0 {
			buf.WriteByte(',')
		}
		s, err := marshalCanonicalString(pt)
		if err != nil {
			return fmt.Errorf("post_types[%d]: %w", i, err)
		}
		buf.Write(s)
	}
	fmt.Fprintf(buf, `],"priority":%d,"tax_term_ids":[`, r.Priority)
	for i, id := range r.TaxTermIDs {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(buf, "%d", id)
	}
	fmt.Fprintf(buf, `],"template_id":%d,"user_role":`, r.TemplateID)
	s, err := marshalCanonicalString(r.UserRole)
	if err != nil {
		return fmt.Errorf("user_role: %w", err)
	}
	buf.Write(s)
	buf.WriteByte('}')
	return nil
}

// marshalCanonicalString produces a canonical JSON string literal with
// NFC normalization and HTML escaping disabled.
func marshalCanonicalString(s string) ([]byte, error) {
	// NFC normalize at the serialization boundary
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline, remove it
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}
	return result, nil
}
