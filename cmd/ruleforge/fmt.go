// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type fmtConfig struct {
	write bool
}

// NewFmtCmd creates the fmt subcommand: re-indent a rule-set YAML file to
// canonical two-space style, printed to stdout unless --write is given.
func NewFmtCmd() *cobra.Command {
	cfg := &fmtConfig{}
	cmd := &cobra.Command{
		Use:   "fmt <rule-file.yaml>",
		Short: "Reformat a rule-set YAML file to canonical style",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd, args[0], cfg)
		},
	}
	cmd.Flags().BoolVarP(&cfg.write, "write", "w", false, "write result back to the file instead of stdout")
	return cmd
}

func runFmt(cmd *cobra.Command, path string, cfg *fmtConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return oops.Code("FMT_READ_FAILED").With("path", path).Wrap(err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return oops.Code("FMT_PARSE_FAILED").With("path", path).Wrap(err)
	}

	var buf writerBuffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return oops.Code("FMT_ENCODE_FAILED").With("path", path).Wrap(err)
	}
	_ = enc.Close()

	if cfg.write {
		if err := os.WriteFile(path, buf, 0o644); err != nil {
			return oops.Code("FMT_WRITE_FAILED").With("path", path).Wrap(err)
		}
		return nil
	}
	cmd.Print(string(buf))
	return nil
}

type writerBuffer []byte

func (w *writerBuffer) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
