// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/ruleforge/internal/rules/config"
	"github.com/holomush/ruleforge/internal/rules/engine"
	"github.com/holomush/ruleforge/internal/rules/store"
	"github.com/holomush/ruleforge/internal/rules/value"
)

type evalConfig struct {
	inputsPath string
	cacheKey   string
}

// NewEvalCmd creates the eval subcommand: evaluate a rule-set file
// against a JSON inputs document and print the resulting Response.
func NewEvalCmd() *cobra.Command {
	cfg := &evalConfig{}
	cmd := &cobra.Command{
		Use:   "eval <rule-file.yaml>",
		Short: "Evaluate a rule-set file against a set of inputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, args[0], cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.inputsPath, "inputs", "", "path to a JSON document of input values (required)")
	cmd.Flags().StringVar(&cfg.cacheKey, "cache-key", "", "cache key to compile/resolve under (defaults to the rule-file path)")
	_ = cmd.MarkFlagRequired("inputs")
	return cmd
}

func runEval(cmd *cobra.Command, rulePath string, cfg *evalConfig) error {
	appCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(rulePath)
	if err != nil {
		return oops.Code("EVAL_READ_FAILED").With("path", rulePath).Wrap(err)
	}

	rawInputs, err := os.ReadFile(cfg.inputsPath)
	if err != nil {
		return oops.Code("EVAL_READ_FAILED").With("path", cfg.inputsPath).Wrap(err)
	}
	var jsonInputs map[string]any
	if err := json.Unmarshal(rawInputs, &jsonInputs); err != nil {
		return oops.Code("EVAL_INPUTS_INVALID").With("path", cfg.inputsPath).Wrap(err)
	}
	inputs := make(map[string]value.Value, len(jsonInputs))
	for k, v := range jsonInputs {
		inputs[k] = value.FromGo(v)
	}

	ctx := context.Background()
	cs, closeStore, err := constantStoreFromConfig(ctx, appCfg)
	if err != nil {
		return err
	}
	defer closeStore()

	e := engine.New(cs, engine.NewCache(), nil)
	cacheKey := cfg.cacheKey
	if cacheKey == "" {
		cacheKey = rulePath
	}

	resp, report, err := e.Evaluate(ctx, cacheKey, raw, inputs)
	if err != nil {
		return oops.Code("EVAL_FAILED").With("path", rulePath).Wrap(err)
	}

	output := map[string]any{
		"response": resp,
	}
	if report != nil {
		output["validation_score"] = report.Score
	}
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return oops.Wrap(err)
	}
	cmd.Println(string(data))

	if !resp.Success {
		return oops.Code("EVAL_UNSUCCESSFUL").Errorf("rule-set evaluation did not succeed: %s", resp.Error)
	}
	return nil
}

// constantStoreFromConfig builds the constant store appCfg names: Postgres
// when a DSN is configured, an empty in-memory store otherwise (suitable
// for rule-sets whose constants are all declared inline).
func constantStoreFromConfig(ctx context.Context, appCfg *config.Config) (store.ConstantStore, func(), error) {
	dsn := appCfg.ConstantStoreDSN
	if dsn == "" {
		return store.NewMemoryConstantStore(), func() {}, nil
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, func() {}, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	return store.NewPostgresConstantStore(pool), pool.Close, nil
}
