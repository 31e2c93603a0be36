// Package store provides SQLite-backed durable storage for the rule
// list and the enabled template category set.
//
// The system persists exactly two named values, each written whole:
//
//   - template_rules: the ordered rule list as canonical JSON
//   - enabled_template_categories: the enabled category set
//
// # Critical Patterns
//
// Atomic replace-all
//   - Every mutation is a single-row UPSERT; readers observe either
//     the pre- or post-update value in its entirety, never a partial
//     list. Incremental field updates do not exist.
//
// Lazy initialization
//   - The first GetAll on an empty database seeds and persists a
//     single inert rule, so a write can occur on read.
//
// Read-through cache
//   - A process-local snapshot fronts SQLite and is invalidated
//     synchronously on every write. Resolutions read the snapshot.
//
// Last-writer-wins
//   - Concurrent replaces are not merged; the admin surface is
//     expected to be driven by one administrator at a time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Rule list serialization uses the canonical JSON form from
// internal/rule/canonical.go so equal lists are byte-identical on disk.
package store
