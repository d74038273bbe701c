// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/ruleforge/internal/rules/value"
)

func TestPostgresConstantStore_Get(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		setupMock func(mock pgxmock.PgxPoolIface)
		want      *Constant
		wantErr   error
	}{
		{
			name: "found",
			code: "MIN_CREDIT_SCORE",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"code", "value_type", "value", "updated_at"}).
					AddRow("MIN_CREDIT_SCORE", "NUMBER", []byte("650"), time.Now())
				mock.ExpectQuery(`SELECT .* FROM rule_constants WHERE code = \$1`).
					WithArgs("MIN_CREDIT_SCORE").
					WillReturnRows(rows)
			},
		},
		{
			name: "not found",
			code: "MISSING",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM rule_constants WHERE code = \$1`).
					WithArgs("MISSING").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.setupMock(mock)

			s := &PostgresConstantStore{pool: mock}
			got, err := s.Get(context.Background(), tt.code)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.code, got.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresConstantStore_Put(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO rule_constants`).
		WithArgs("MIN_CREDIT_SCORE", "NUMBER", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := &PostgresConstantStore{pool: mock}
	err = s.Put(context.Background(), &Constant{
		Code: "MIN_CREDIT_SCORE", ValueType: ValueNumber, Value: value.Int(650),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresConstantStore_Put_DatabaseError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO rule_constants`).
		WithArgs("MIN_CREDIT_SCORE", "NUMBER", pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	s := &PostgresConstantStore{pool: mock}
	err = s.Put(context.Background(), &Constant{
		Code: "MIN_CREDIT_SCORE", ValueType: ValueNumber, Value: value.Int(650),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPostgresRuleStore_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{
		"id", "code", "name", "description", "yaml_content", "version", "is_active", "tags", "created_at", "updated_at",
	}).AddRow("11111111-1111-1111-1111-111111111111", "loan-approval", "Loan Approval", "", "name: loan-approval\n", 1, true, []string{"finance"}, time.Now().Format(time.RFC3339), time.Now().Format(time.RFC3339))

	mock.ExpectQuery(`SELECT .* FROM rule_artifacts WHERE is_active = true`).
		WillReturnRows(rows)

	s := &PostgresRuleStore{pool: mock}
	artifacts, err := s.List(context.Background(), ListOptions{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "loan-approval", artifacts[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
