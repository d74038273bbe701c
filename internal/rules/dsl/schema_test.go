// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dsl_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/ruleforge/internal/rules/dsl"
)

func TestGenerateSchema(t *testing.T) {
	schema, err := dsl.GenerateSchema()
	require.NoError(t, err)
	assert.NotEmpty(t, schema)

	schemaStr := string(schema)
	for _, field := range []string{`"name"`, `"constants"`, `"when"`, `"$schema"`} {
		assert.Contains(t, schemaStr, field)
	}
}

func TestValidateSchema_ValidDocument(t *testing.T) {
	yaml := `
name: loan-approval
description: approves loans under policy thresholds
constants:
  - name: MIN_CREDIT_SCORE
    type: NUMBER
    value: 650
inputs:
  - creditScore
  - annualIncome
when:
  compare:
    left: creditScore
    operator: ">="
    right: MIN_CREDIT_SCORE
then:
  - set: eligible
    value: true
`
	err := dsl.ValidateSchema([]byte(yaml))
	assert.NoError(t, err)
}

func TestValidateSchema_MissingName(t *testing.T) {
	yaml := `
inputs:
  - creditScore
when:
  compare:
    left: creditScore
    operator: ">="
    right: 650
`
	err := dsl.ValidateSchema([]byte(yaml))
	assert.Error(t, err)
}

func TestValidateSchema_InvalidConstantType(t *testing.T) {
	yaml := `
name: loan-approval
constants:
  - name: MIN_CREDIT_SCORE
    type: DECIMAL
    value: 650
`
	err := dsl.ValidateSchema([]byte(yaml))
	assert.Error(t, err)
}

func TestValidateSchema_EmptyInput(t *testing.T) {
	for _, input := range [][]byte{nil, {}} {
		err := dsl.ValidateSchema(input)
		assert.Error(t, err)
	}
}

func TestValidateSchema_InvalidYAML(t *testing.T) {
	yaml := `name: test
constants: [invalid`
	err := dsl.ValidateSchema([]byte(yaml))
	assert.Error(t, err)
}

func TestResetSchemaCache(t *testing.T) {
	yaml := `name: loan-approval`
	require.NoError(t, dsl.ValidateSchema([]byte(yaml)))

	dsl.ResetSchemaCache()

	assert.NoError(t, dsl.ValidateSchema([]byte(yaml)))
}

func TestGetSchemaID(t *testing.T) {
	id := dsl.GetSchemaID()
	assert.True(t, strings.HasPrefix(id, "https://"))
	assert.Contains(t, id, "ruleforge")
}

func TestFormatSchemaError(t *testing.T) {
	assert.Equal(t, "", dsl.FormatSchemaError(nil))

	yaml := `constants:
  - name: MIN
    type: DECIMAL
    value: 1`
	err := dsl.ValidateSchema([]byte(yaml))
	require.Error(t, err)
	assert.NotEmpty(t, dsl.FormatSchemaError(err))
}
