// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNoFileOrFlags(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	require.Equal(t, uint64(3), cfg.HTTPMaxRetries)
	require.Equal(t, "minimal", cfg.AuditMode)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ruleforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
constant_store_dsn: postgres://localhost/ruleforge
audit_mode: all
http_max_retries: 5
`), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, "postgres://localhost/ruleforge", cfg.ConstantStoreDSN)
	require.Equal(t, "all", cfg.AuditMode)
	require.Equal(t, uint64(5), cfg.HTTPMaxRetries)
	require.Equal(t, 10*time.Minute, cfg.ASTCacheTTL)
}

func TestLoadUnsetFlagsDoNotClobberFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ruleforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`http_max_retries: 7`), 0o600))

	flagSet := pflag.NewFlagSet("ruleforge", pflag.ContinueOnError)
	RegisterFlags(flagSet)
	require.NoError(t, flagSet.Parse(nil))

	cfg, err := Load(path, flagSet)
	require.NoError(t, err)
	require.Equal(t, uint64(7), cfg.HTTPMaxRetries, "unset --http-max-retries flag should not override the file value")
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ruleforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`audit_mode: failures`), 0o600))

	flagSet := pflag.NewFlagSet("ruleforge", pflag.ContinueOnError)
	RegisterFlags(flagSet)
	require.NoError(t, flagSet.Parse([]string{"--audit-mode=all", "--http-max-retries=9"}))

	cfg, err := Load(path, flagSet)
	require.NoError(t, err)
	require.Equal(t, "all", cfg.AuditMode)
	require.Equal(t, uint64(9), cfg.HTTPMaxRetries)
}
