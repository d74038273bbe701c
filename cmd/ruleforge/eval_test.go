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

func TestEval_Properties(t *testing.T) {
	cmd := NewEvalCmd()
	if cmd.Use != "eval <rule-file.yaml>" {
		t.Errorf("Use = %q, want prefix %q", cmd.Use, "eval")
	}
	if !strings.Contains(cmd.Short, "Evaluate") {
		t.Error("Short description should mention Evaluate")
	}
}

func TestEval_ApprovedAgainstInputs(t *testing.T) {
	dir := t.TempDir()
	rulePath := filepath.Join(dir, "approval.yaml")
	if err := os.WriteFile(rulePath, []byte(validRuleYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	inputsPath := filepath.Join(dir, "inputs.json")
	if err := os.WriteFile(inputsPath, []byte(`{"creditScore": 700, "annualIncome": 80000}`), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"eval", rulePath, "--inputs", inputsPath})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"Success": true`) {
		t.Errorf("output = %q, want it to report success", buf.String())
	}
}

func TestEval_RequiresInputsFlag(t *testing.T) {
	dir := t.TempDir()
	rulePath := filepath.Join(dir, "approval.yaml")
	if err := os.WriteFile(rulePath, []byte(validRuleYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"eval", rulePath})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	if err := cmd.Execute(); err == nil {
		t.Fatal("Execute() expected an error when --inputs is missing")
	}
}
