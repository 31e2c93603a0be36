package store

import (
	"context"
	"encoding/json"

	"github.com/templatefall/templatefall/internal/rule"
)

// keyCategories is the settings row holding the enabled template
// category set as a JSON array of tags.
const keyCategories = "enabled_template_categories"

// GetEnabledCategories returns the enabled template category set,
// defaulting to the single main-content category when nothing has
// been stored. The default is not persisted; only an explicit
// SetEnabledCategories writes.
func (s *Store) GetEnabledCategories(ctx context.Context) ([]rule.Category, error) {
	s.mu.RLock()
	if s.categories != nil {
		cached := append([]rule.Category{}, s.categories...)
		s.mu.RUnlock()
		return cached, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.categories != nil {
		return append([]rule.Category{}, s.categories...), nil
	}

	value, found, err := s.readValue(ctx, keyCategories)
	if err != nil {
		return nil, &StorageError{Op: "read categories", Err: err}
	}
	if !found {
		return rule.DefaultCategories(), nil
	}

	var cats []rule.Category
	if err := json.Unmarshal([]byte(value), &cats); err != nil {
		return nil, &StorageError{Op: "read categories", Err: err}
	}
	if cats == nil {
		cats = []rule.Category{}
	}

	s.categories = cats
	return append([]rule.Category{}, cats...), nil
}

// SetEnabledCategories atomically replaces the enabled category set.
// Validation (intersection with the closed enumeration) happens before
// the store is reached; the store persists whatever set it is handed.
func (s *Store) SetEnabledCategories(ctx context.Context, cats []rule.Category) error {
	if cats == nil {
		cats = []rule.Category{}
	}

	data, err := json.Marshal(cats)
	if err != nil {
		return &StorageError{Op: "write categories", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeValue(ctx, keyCategories, string(data)); err != nil {
		return &StorageError{Op: "write categories", Err: err}
	}
	s.categories = append([]rule.Category{}, cats...)
	return nil
}

// Teardown deletes both persisted values and drops the cache. Used on
// uninstall; the store remains usable afterwards and will lazily
// re-initialize on the next read.
func (s *Store) Teardown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM settings WHERE name IN (?, ?)`, keyRules, keyCategories)
	if err != nil {
		return &StorageError{Op: "teardown", Err: err}
	}

	s.rules = nil
	s.categories = nil
	return nil
}
