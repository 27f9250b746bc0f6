package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/marmos91/dittosmb/internal/telemetry"
	"github.com/marmos91/dittosmb/pkg/metadata"
)

var validate = validator.New()

// Validate checks struct tags and then the rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	if cfg.Metadata.Type == "badger" && cfg.Metadata.Badger.Path == "" {
		return fmt.Errorf("metadata.badger.path is required when metadata.type is badger")
	}

	if _, err := time.LoadLocation(cfg.Server.TimeZone); err != nil {
		return fmt.Errorf("server.time_zone %q: %w", cfg.Server.TimeZone, err)
	}

	if cfg.Oplock.BreakTimeout < 0 {
		return fmt.Errorf("oplock.break_timeout must not be negative")
	}

	if cfg.Telemetry.Profiling.Enabled {
		for _, pt := range cfg.Telemetry.Profiling.ProfileTypes {
			if !isValidProfileType(pt) {
				return fmt.Errorf("telemetry.profiling.profile_types: unknown type %q (valid: %s)",
					pt, strings.Join(telemetry.ValidProfileTypes, ", "))
			}
		}
	}

	seen := make(map[string]string, len(cfg.Shares))
	for _, s := range cfg.Shares {
		key := metadata.FoldName(s.Name)
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("duplicate share name %q (conflicts with %q)", s.Name, prev)
		}
		seen[key] = s.Name
	}

	return nil
}

func isValidProfileType(name string) bool {
	for _, v := range telemetry.ValidProfileTypes {
		if v == name {
			return true
		}
	}
	return false
}

// formatValidationError turns validator errors into one readable message.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required", "required_if", "required_unless":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fmt.Sprint(fe.Value())))
		case "min", "gte", "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s", field, fe.Param()))
		case "max", "lte", "lt":
			msgs = append(msgs, fmt.Sprintf("%s must be <= %s", field, fe.Param()))
		case "excludesall":
			msgs = append(msgs, fmt.Sprintf("%s must not contain any of %q", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
