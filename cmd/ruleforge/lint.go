// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/ruleforge/internal/rules/dsl"
	"github.com/holomush/ruleforge/internal/rules/engine"
	"github.com/holomush/ruleforge/internal/rules/validate"
)

type lintConfig struct {
	jsonOutput bool
}

// NewLintCmd creates the lint subcommand: parse and validate a rule-set
// file without evaluating it, surfacing every diagnostic and issue.
func NewLintCmd() *cobra.Command {
	cfg := &lintConfig{}
	cmd := &cobra.Command{
		Use:   "lint <rule-file.yaml>",
		Short: "Parse and validate a rule-set file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, args[0], cfg)
		},
	}
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output diagnostics as JSON")
	return cmd
}

type lintResult struct {
	Valid       bool              `json:"valid"`
	Score       int               `json:"score,omitempty"`
	Diagnostics []diagnosticEntry `json:"diagnostics,omitempty"`
	Issues      []issueEntry      `json:"issues,omitempty"`
}

type diagnosticEntry struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Line     int    `json:"line"`
}

type issueEntry struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

func runLint(cmd *cobra.Command, path string, cfg *lintConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return oops.Code("LINT_READ_FAILED").With("path", path).Wrap(err)
	}

	result := lintResult{Valid: true}
	if shapeErr := dsl.ValidateSchema(raw); shapeErr != nil {
		result.Valid = false
		result.Diagnostics = append(result.Diagnostics, diagnosticEntry{
			Code: "SCHEMA_SHAPE", Severity: "ERROR", Message: dsl.FormatSchemaError(shapeErr),
		})
	}

	e := engine.New(nil, nil, nil)
	rs, diags, report, err := e.Lint(raw)
	if err != nil {
		return oops.Code("LINT_FAILED").With("path", path).Wrap(err)
	}

	for _, d := range diags {
		result.Diagnostics = append(result.Diagnostics, diagnosticEntry{
			Code: d.Code, Severity: d.Severity.String(), Message: d.Message, Line: d.Location.Line,
		})
		if d.Severity.String() == "FATAL" || d.Severity.String() == "ERROR" {
			result.Valid = false
		}
	}
	if report != nil {
		result.Score = report.Score
		for _, iss := range report.Issues {
			result.Issues = append(result.Issues, issueEntry{
				Code: iss.Code, Severity: iss.Severity.String(), Message: iss.Message,
			})
			if iss.Severity == validate.SeverityCritical {
				result.Valid = false
			}
		}
	}
	if rs == nil {
		result.Valid = false
	}

	if cfg.jsonOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return oops.Wrap(err)
		}
		cmd.Println(string(data))
	} else {
		printLintTable(cmd, result)
	}

	if !result.Valid {
		return oops.Code("LINT_INVALID").Errorf("%s failed validation", path)
	}
	return nil
}

func printLintTable(cmd *cobra.Command, result lintResult) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	if len(result.Diagnostics) == 0 && len(result.Issues) == 0 {
		fmt.Fprintf(w, "valid\tscore=%d\tno diagnostics\n", result.Score)
		return
	}

	fmt.Fprintln(w, "KIND\tCODE\tSEVERITY\tMESSAGE")
	for _, d := range result.Diagnostics {
		fmt.Fprintf(w, "parse\t%s\t%s\t%s\n", d.Code, d.Severity, d.Message)
	}
	for _, iss := range result.Issues {
		fmt.Fprintf(w, "validate\t%s\t%s\t%s\n", iss.Code, iss.Severity, iss.Message)
	}
	fmt.Fprintf(w, "\nscore: %d\n", result.Score)
}
