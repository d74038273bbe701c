// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import "context"

// RuleArtifact is the persisted rule-artifact record from §6: read-only
// from the core's perspective; the REST surface that accepts YAML
// payloads is out of scope, but the engine's AST cache (see
// internal/rules/engine) needs a way to enumerate and fetch artifacts to
// keep warm.
type RuleArtifact struct {
	ID          string
	Code        string // unique
	Name        string
	Description string
	YAMLContent string
	Version     int
	IsActive    bool
	Tags        []string
	CreatedAt   string
	UpdatedAt   string
}

// ListOptions filters RuleStore.List.
type ListOptions struct {
	ActiveOnly bool
}

// RuleStore is the persisted-rule-artifact collaborator from §6.
type RuleStore interface {
	Get(ctx context.Context, code string) (*RuleArtifact, error)
	List(ctx context.Context, opts ListOptions) ([]*RuleArtifact, error)
	Put(ctx context.Context, a *RuleArtifact) error
}
