// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validRuleYAML = `
name: simpleApproval
inputs: [creditScore, annualIncome]
constants:
  - name: MIN_CREDIT_SCORE
    type: NUMBER
    value: 650
when:
  - creditScore at_least MIN_CREDIT_SCORE
  - annualIncome at_least 50000
then:
  - set eligible to true
else:
  - set eligible to false
`

func TestLint_Properties(t *testing.T) {
	cmd := NewLintCmd()
	if cmd.Use != "lint <rule-file.yaml>" {
		t.Errorf("Use = %q, want prefix %q", cmd.Use, "lint")
	}
	if !strings.Contains(cmd.Short, "validate") {
		t.Error("Short description should mention validate")
	}
}

func TestLint_ValidRuleSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "approval.yaml")
	if err := os.WriteFile(path, []byte(validRuleYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"lint", path})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "score") {
		t.Errorf("output = %q, want it to report a score", buf.String())
	}
}

func TestLint_MalformedYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("not valid yaml: ["), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"lint", path})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	if err := cmd.Execute(); err == nil {
		t.Fatal("Execute() expected an error for malformed YAML")
	}
}
