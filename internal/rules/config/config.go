// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads ruleforge's process configuration from a YAML file
// layered under command-line flags, using github.com/knadh/koanf/v2 — a
// teacher go.mod dependency the retrieved subset never actually imports;
// this CLI config loader is its wired home.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is ruleforge's process configuration: where to find constants,
// how to talk to rule HTTP built-ins, how long to cache what, and how
// verbosely to audit evaluations. Only ConstantStoreDSN is read by a
// subcommand (eval and migrate). The other fields are loaded but nothing
// applies them: the rest_* built-ins use builtin.DefaultTimeout and the
// transport's own retry count, eval builds its cache with
// engine.NewCache()'s defaults, and no subcommand opens a rule store or
// constructs an audit logger.
type Config struct {
	ConstantStoreDSN  string        `koanf:"constant_store_dsn"`
	RuleStoreDSN      string        `koanf:"rule_store_dsn"`
	HTTPTimeout       time.Duration `koanf:"http_timeout"`
	HTTPMaxRetries    uint64        `koanf:"http_max_retries"`
	ASTCacheTTL       time.Duration `koanf:"ast_cache_ttl"`
	ConstantsCacheTTL time.Duration `koanf:"constants_cache_ttl"`
	AuditMode         string        `koanf:"audit_mode"`
	AuditWALPath      string        `koanf:"audit_wal_path"`
}

// defaults mirrors the zero-config values a freshly-installed ruleforge
// should run with.
func defaults() Config {
	return Config{
		HTTPTimeout:       30 * time.Second,
		HTTPMaxRetries:    3,
		ASTCacheTTL:       10 * time.Minute,
		ConstantsCacheTTL: 30 * time.Second,
		AuditMode:         "minimal",
	}
}

// Load builds a Config layered file -> flags: defaults, then configPath
// (if non-empty; a missing file is a CONFIG_LOAD_ERROR), then any flags
// set on flagSet. Later layers
// override earlier ones, the standard koanf precedence order.
func Load(configPath string, flagSet *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	def := defaults()
	defaultsMap := map[string]interface{}{
		"http_timeout":        def.HTTPTimeout,
		"http_max_retries":    def.HTTPMaxRetries,
		"ast_cache_ttl":       def.ASTCacheTTL,
		"constants_cache_ttl": def.ConstantsCacheTTL,
		"audit_mode":          def.AuditMode,
	}
	if err := k.Load(confmap.Provider(defaultsMap, "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_ERROR").Wrapf(err, "loading config defaults")
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_ERROR").
				With("path", configPath).
				Wrapf(err, "loading config file")
		}
	}

	if flagSet != nil {
		provider := posflag.ProviderWithValue(flagSet, ".", k, func(key string, value string) (string, interface{}) {
			// Only flags the caller actually set should override the file
			// layer below them — otherwise every unset flag's zero value
			// would clobber whatever the config file just loaded.
			if !flagSet.Changed(key) {
				return key, nil
			}
			return strings.ReplaceAll(key, "-", "_"), value
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_ERROR").Wrapf(err, "loading flag overrides")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_ERROR").Wrapf(err, "unmarshaling config")
	}
	return &cfg, nil
}

// RegisterFlags adds every Config field as a pflag, so Load's posflag
// layer can pick up command-line overrides.
func RegisterFlags(flagSet *pflag.FlagSet) {
	def := defaults()
	flagSet.String("constant-store-dsn", "", "constant store connection string")
	flagSet.String("rule-store-dsn", "", "rule artifact store connection string")
	flagSet.Duration("http-timeout", def.HTTPTimeout, "HTTP built-in call timeout")
	flagSet.Uint64("http-max-retries", def.HTTPMaxRetries, "HTTP built-in call max retries")
	flagSet.Duration("ast-cache-ttl", def.ASTCacheTTL, "parsed rule-set cache time-to-idle")
	flagSet.Duration("constants-cache-ttl", def.ConstantsCacheTTL, "resolved constants cache time-to-idle")
	flagSet.String("audit-mode", def.AuditMode, "audit logging mode: minimal, failures, or all")
	flagSet.String("audit-wal-path", "", "audit write-ahead log path")
}
