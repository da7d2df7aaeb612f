package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
			d, err := time.ParseDuration(fl.Field().String())
			return err == nil && d > 0
		})

		validateInst = v
	})
	return validateInst
}

// Validate checks the config for missing or malformed values. All problems are
// reported together.
func Validate(cfg *Config) error {
	var problems []string

	if err := validatorInstance().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating config: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	seen := make(map[string]bool, len(cfg.Targets))
	for _, t := range cfg.Targets {
		if seen[t.Name] {
			problems = append(problems, fmt.Sprintf("targets: duplicate name %q", t.Name))
		}
		seen[t.Name] = true
	}

	if cfg.Options.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Options.Schedule); err != nil {
			problems = append(problems, fmt.Sprintf("options.schedule: %v", err))
		}
	}

	if cfg.Alerts.Enabled {
		if len(cfg.Alerts.Recipients) == 0 && cfg.Alerts.Provider == "courier" {
			problems = append(problems, "alerts.recipients: required when alerts are enabled")
		}
		switch cfg.Alerts.Provider {
		case "courier":
			if cfg.Alerts.Courier.APIKey == "" {
				problems = append(problems, "alerts.courier.api_key: required for the courier provider")
			}
		case "shoutrrr":
			if cfg.Alerts.Shoutrrr.URL == "" {
				problems = append(problems, "alerts.shoutrrr.url: required for the shoutrrr provider")
			}
		}
	}

	if cfg.Verify.Interval.Std() > cfg.Verify.Deadline.Std() {
		problems = append(problems, "verify.interval: must not exceed verify.deadline")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: required", field)
	case "duration":
		return fmt.Sprintf("%s: %q is not a positive duration", field, fe.Value())
	case "gt":
		return fmt.Sprintf("%s: must be a positive duration, got %v", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s]", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s: needs at least %s entries", field, fe.Param())
	default:
		return fmt.Sprintf("%s: failed %q check (value %v)", field, fe.Tag(), fe.Value())
	}
}
