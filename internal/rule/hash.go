package rule

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainRuleList is the domain prefix for rule-list hashing.
// Version suffix enables future algorithm migration.
const DomainRuleList = "templatefall/rules/v1"

// ListHash computes a content hash of a rule list over its canonical
// JSON form. Equal lists always hash equal; the admin API surfaces the
// hash as the list version so clients can detect concurrent edits.
//
// Format: SHA256(domain + 0x00 + canonicalJSON). The null separator
// prevents domain/data boundary ambiguity.
func ListHash(rules []Rule) (string, error) {
	canonical, err := MarshalCanonical(rules)
	if err != nil {
		return "", fmt.Errorf("ListHash: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainRuleList))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}
