// Package domain defines the version-graph entities and their invariants.
//
// The graph versions opaque entities (campaigns, characters) without ever
// inspecting their shape. Three record kinds form the graph:
//
//   - Branch: a named, independently-advancing line of commits for one
//     entity, optionally based on another branch.
//   - Commit: an immutable snapshot of the entity plus the field-level
//     changes that produced it, linked to at most one parent commit.
//   - Change: a single field-level before/after diff attached to a commit.
//
// Branch base pointers and commit parent pointers must both stay acyclic.
// Commits are append-only and never mutated or deleted; branch lifecycle is
// a soft state transition so history stays retrievable after a branch is
// retired.
package domain
