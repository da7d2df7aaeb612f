package main

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/sznuper/portalwatch/internal/config"
)

// optionChecks vet option overrides as they are applied, keyed by yaml tag,
// so a bad flag is reported as the flag rather than as a config field.
var optionChecks = map[string]func(string) error{
	"watchdog": func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		if d <= 0 {
			return fmt.Errorf("must be positive, got %s", d)
		}
		return nil
	},
	"schedule": func(v string) error {
		_, err := cron.ParseStandard(v)
		return err
	},
	"log_level": func(v string) error {
		if !slices.Contains([]string{"debug", "info", "warn", "error"}, v) {
			return fmt.Errorf("must be one of debug, info, warn, error")
		}
		return nil
	},
}

// registerOptionFlags adds a persistent --flag for every field in config.Options,
// deriving the flag name from the yaml struct tag (snake_case → kebab-case).
func registerOptionFlags(cmd *cobra.Command) {
	t := reflect.TypeOf(config.Options{})
	for i := range t.NumField() {
		yamlTag := t.Field(i).Tag.Get("yaml")
		cmd.PersistentFlags().String(optionFlag(yamlTag), "", "override options."+yamlTag)
	}
}

// applyOptionFlags overlays explicitly set flags onto cfg.Options. The first
// value that fails its check is returned as an error and nothing after it is
// applied.
func applyOptionFlags(cmd *cobra.Command, cfg *config.Config) error {
	t := reflect.TypeOf(cfg.Options)
	v := reflect.ValueOf(&cfg.Options).Elem()
	for i := range t.NumField() {
		yamlTag := t.Field(i).Tag.Get("yaml")
		flagName := optionFlag(yamlTag)
		if !cmd.Flags().Changed(flagName) {
			continue
		}
		val, _ := cmd.Flags().GetString(flagName)
		if check, ok := optionChecks[yamlTag]; ok {
			if err := check(val); err != nil {
				return fmt.Errorf("--%s %q: %w", flagName, val, err)
			}
		}
		v.Field(i).SetString(val)
	}
	return nil
}

func optionFlag(yamlTag string) string {
	return strings.ReplaceAll(yamlTag, "_", "-")
}

// loadConfig resolves, overlays and validates the config.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg, path, err := config.Resolve(cfgFile)
	if err != nil {
		return nil, path, err
	}
	if err := applyOptionFlags(cmd, cfg); err != nil {
		return nil, path, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
