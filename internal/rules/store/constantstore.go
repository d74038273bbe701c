// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package store defines the ConstantStore and RuleStore external
// interfaces from SPEC_FULL.md §6, plus in-memory and PostgreSQL-backed
// implementations. Grounded on the teacher's internal/access/policy/store
// package: the same Create/Get/List CRUD shape, the same pgx/v5 scanning
// conventions, generalized from ABAC policies to named constants and
// persisted rule-YAML artifacts.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/holomush/ruleforge/internal/rules/value"
)

// ErrNotFound is returned by Get when the requested code/name does not
// exist in the store.
var ErrNotFound = errors.New("store: not found")

// ValueType enumerates a Constant's declared type tag, per §6.
type ValueType string

const (
	ValueNumber  ValueType = "NUMBER"
	ValueString  ValueType = "STRING"
	ValueBoolean ValueType = "BOOLEAN"
	ValueDate    ValueType = "DATE"
	ValueObject  ValueType = "OBJECT"
)

// Constant is one named value served by the external constant store.
type Constant struct {
	Code      string
	ValueType ValueType
	Value     value.Value
	UpdatedAt time.Time
}

// ConstantStore is the external collaborator named in §6: `get(code) ->
// Constant | NotFound` and `batch_get(codes[]) -> map`.
type ConstantStore interface {
	Get(ctx context.Context, code string) (*Constant, error)
	BatchGet(ctx context.Context, codes []string) (map[string]*Constant, error)
	Put(ctx context.Context, c *Constant) error
}
