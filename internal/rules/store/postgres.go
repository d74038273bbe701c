// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/holomush/ruleforge/internal/rules/value"
)

// pgxIface is the subset of *pgxpool.Pool's method set the stores below
// use. Holding it as an interface, rather than the concrete pool type,
// lets tests substitute a pgxmock.PgxPoolIface without touching a real
// database.
type pgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresConstantStore implements ConstantStore using PostgreSQL,
// modeled on the teacher's internal/access/policy/store.PostgresStore:
// same pool-held struct, same oops-coded error wrapping, same
// pgx.ErrNoRows-to-domain-error translation.
type PostgresConstantStore struct {
	pool pgxIface
}

func NewPostgresConstantStore(pool *pgxpool.Pool) *PostgresConstantStore {
	return &PostgresConstantStore{pool: pool}
}

const constantColumns = `code, value_type, value, updated_at`

func scanConstant(row pgx.Row) (*Constant, error) {
	var c Constant
	var valueType string
	var raw []byte
	if err := row.Scan(&c.Code, &valueType, &raw, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scanning constant row: %w", err)
	}
	c.ValueType = ValueType(valueType)
	c.Value = decodeConstantValue(c.ValueType, raw)
	return &c, nil
}

// decodeConstantValue interprets the raw column bytes according to the
// declared value_type: NUMBER as a decimal (plain Text if it does not
// parse), BOOLEAN as true for "true" or "t", and every other type as
// plain Text.
func decodeConstantValue(vt ValueType, raw []byte) value.Value {
	text := string(raw)
	switch vt {
	case ValueNumber:
		v, err := value.DecimalFromString(text)
		if err != nil {
			return value.Text(text)
		}
		return v
	case ValueBoolean:
		return value.Bool(text == "true" || text == "t")
	default:
		return value.Text(text)
	}
}

func (s *PostgresConstantStore) Get(ctx context.Context, code string) (*Constant, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM rule_constants WHERE code = $1`, constantColumns), code)
	c, err := scanConstant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("CONSTANT_GET_FAILED").With("code", code).Wrap(err)
	}
	return c, nil
}

func (s *PostgresConstantStore) BatchGet(ctx context.Context, codes []string) (map[string]*Constant, error) {
	if len(codes) == 0 {
		return map[string]*Constant{}, nil
	}
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM rule_constants WHERE code = ANY($1)`, constantColumns), codes)
	if err != nil {
		return nil, oops.Code("CONSTANT_BATCH_GET_FAILED").With("codes", codes).Wrap(err)
	}
	defer rows.Close()

	out := make(map[string]*Constant, len(codes))
	for rows.Next() {
		c, err := scanConstant(rows)
		if err != nil {
			return nil, oops.Code("CONSTANT_BATCH_GET_FAILED").Wrap(err)
		}
		out[c.Code] = c
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CONSTANT_BATCH_GET_FAILED").Wrap(err)
	}
	return out, nil
}

func (s *PostgresConstantStore) Put(ctx context.Context, c *Constant) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO rule_constants (code, value_type, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (code) DO UPDATE SET value_type = $2, value = $3, updated_at = now()
	`, c.Code, string(c.ValueType), value.Stringify(c.Value))
	if err != nil {
		return oops.Code("CONSTANT_PUT_FAILED").With("code", c.Code).Wrap(err)
	}
	return nil
}

// PostgresRuleStore implements RuleStore using PostgreSQL, modeled the
// same way as PostgresConstantStore above.
type PostgresRuleStore struct {
	pool pgxIface
}

func NewPostgresRuleStore(pool *pgxpool.Pool) *PostgresRuleStore {
	return &PostgresRuleStore{pool: pool}
}

const ruleArtifactColumns = `id, code, name, description, yaml_content, version, is_active, tags, created_at, updated_at`

func scanRuleArtifact(row pgx.Row) (*RuleArtifact, error) {
	var a RuleArtifact
	if err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Description, &a.YAMLContent,
		&a.Version, &a.IsActive, &a.Tags, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scanning rule artifact row: %w", err)
	}
	return &a, nil
}

func (s *PostgresRuleStore) Get(ctx context.Context, code string) (*RuleArtifact, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM rule_artifacts WHERE code = $1`, ruleArtifactColumns), code)
	a, err := scanRuleArtifact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("RULE_GET_FAILED").With("code", code).Wrap(err)
	}
	return a, nil
}

func (s *PostgresRuleStore) List(ctx context.Context, opts ListOptions) ([]*RuleArtifact, error) {
	query := fmt.Sprintf(`SELECT %s FROM rule_artifacts`, ruleArtifactColumns)
	if opts.ActiveOnly {
		query += ` WHERE is_active = true`
	}
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, oops.Code("RULE_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	var out []*RuleArtifact
	for rows.Next() {
		a, err := scanRuleArtifact(rows)
		if err != nil {
			return nil, oops.Code("RULE_LIST_FAILED").Wrap(err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("RULE_LIST_FAILED").Wrap(err)
	}
	return out, nil
}

func (s *PostgresRuleStore) Put(ctx context.Context, a *RuleArtifact) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO rule_artifacts (id, code, name, description, yaml_content, version, is_active, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (code) DO UPDATE SET
			name = $3, description = $4, yaml_content = $5, version = $6,
			is_active = $7, tags = $8, updated_at = now()
	`, a.ID, a.Code, a.Name, a.Description, a.YAMLContent, a.Version, a.IsActive, a.Tags)
	if err != nil {
		return oops.Code("RULE_PUT_FAILED").With("code", a.Code).Wrap(err)
	}
	return nil
}
