package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/templatefall/templatefall/internal/rule"
)

// keyRules is the settings row holding the ordered rule list as
// canonical JSON.
const keyRules = "template_rules"

// GetAll returns the ordered rule list.
//
// If no list has ever been persisted the store lazily initializes it
// to a single inert rule and persists that initialization, so the
// first read performs a write. Callers must tolerate this.
//
// The returned slice is a private copy; mutating it does not affect
// the store.
func (s *Store) GetAll(ctx context.Context) ([]rule.Rule, error) {
	s.mu.RLock()
	if s.rules != nil {
		cached := cloneRules(s.rules)
		s.mu.RUnlock()
		return cached, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another request may have loaded the list while we waited.
	if s.rules != nil {
		return cloneRules(s.rules), nil
	}

	value, found, err := s.readValue(ctx, keyRules)
	if err != nil {
		return nil, &StorageError{Op: "read rules", Err: err}
	}

	if !found {
		// First access: seed with a single inert rule and persist.
		seeded := []rule.Rule{rule.Inert()}
		if err := s.writeRulesLocked(ctx, seeded); err != nil {
			return nil, err
		}
		return cloneRules(seeded), nil
	}

	rules, err := rule.UnmarshalList([]byte(value))
	if err != nil {
		return nil, &StorageError{Op: "read rules", Err: err}
	}

	s.rules = rules
	return cloneRules(rules), nil
}

// ReplaceAll atomically replaces the whole rule list. A concurrent
// reader observes either the previous list or the new one in its
// entirety, never a partial mix. Last writer wins on concurrent
// replaces.
func (s *Store) ReplaceAll(ctx context.Context, rules []rule.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeRulesLocked(ctx, cloneRules(rules))
}

// Append adds one rule at the end of the list and returns the updated
// list. Implemented as read-modify-replace under the store lock.
func (s *Store) Append(ctx context.Context, r rule.Rule) ([]rule.Rule, error) {
	// Ensure the cache is loaded (and lazily initialized) first.
	if _, err := s.GetAll(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := append(cloneRules(s.rules), r)
	if err := s.writeRulesLocked(ctx, updated); err != nil {
		return nil, err
	}
	return cloneRules(updated), nil
}

// RemoveAt deletes the rule at the given position and returns the
// updated list. Remaining rules are re-indexed; their priority values
// are NOT renumbered.
//
// An out-of-range index is reported as ErrNotFound with the list
// returned unchanged - it never corrupts the stored list.
func (s *Store) RemoveAt(ctx context.Context, index int) ([]rule.Rule, error) {
	if _, err := s.GetAll(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.rules) {
		return cloneRules(s.rules), ErrNotFound
	}

	updated := make([]rule.Rule, 0, len(s.rules)-1)
	updated = append(updated, cloneRules(s.rules[:index])...)
	updated = append(updated, cloneRules(s.rules[index+1:])...)

	if err := s.writeRulesLocked(ctx, updated); err != nil {
		return nil, err
	}
	return cloneRules(updated), nil
}

// Reset atomically replaces the whole list with the single default
// inert rule and returns the new list. Nothing else is reset.
func (s *Store) Reset(ctx context.Context) ([]rule.Rule, error) {
	seeded := []rule.Rule{rule.Inert()}
	if err := s.ReplaceAll(ctx, seeded); err != nil {
		return nil, err
	}
	return seeded, nil
}

// writeRulesLocked persists the list and refreshes the cache. The
// cache is updated only after the row commit succeeds, so a failed
// write leaves the previous snapshot visible. Caller must hold s.mu.
func (s *Store) writeRulesLocked(ctx context.Context, rules []rule.Rule) error {
	canonical, err := rule.MarshalCanonical(rules)
	if err != nil {
		return &StorageError{Op: "write rules", Err: err}
	}
	if err := s.writeValue(ctx, keyRules, string(canonical)); err != nil {
		return &StorageError{Op: "write rules", Err: err}
	}
	s.rules = rules
	return nil
}

// readValue fetches one settings row. Returns found=false when the
// row does not exist.
func (s *Store) readValue(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE name = ?`, name,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// writeValue upserts one settings row. The UPSERT is a single
// statement, so readers see either the old or the new value whole.
func (s *Store) writeValue(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (name, value)
		VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, name, value)
	return err
}

// cloneRules deep-copies a rule list so cached state can never be
// mutated through a returned slice.
func cloneRules(rules []rule.Rule) []rule.Rule {
	out := make([]rule.Rule, len(rules))
	for i, r := range rules {
		out[i] = r
		out[i].PostTypes = append([]string{}, r.PostTypes...)
		out[i].TaxTermIDs = append([]int{}, r.TaxTermIDs...)
	}
	return out
}
