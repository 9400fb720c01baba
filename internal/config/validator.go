package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

var validate = validator.New()

// Validate checks the configuration for structural and semantic errors.
// Struct tags cover ranges and enums; cross-field rules are checked here.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			first := errs[0]
			return types.NewError(types.CONFIG_VALIDATION_FAILED,
				fmt.Sprintf("invalid value for %s (rule %s)", first.Namespace(), first.Tag()))
		}
		return types.WrapError(types.CONFIG_VALIDATION_FAILED, "config validation failed", err)
	}

	if cfg.Fetch.MaxDelay < cfg.Fetch.InitialDelay {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"fetch.max_delay must not be smaller than fetch.initial_delay")
	}

	if err := cfg.Budget.Ratios.Validate(); err != nil {
		return types.WrapError(types.CONFIG_VALIDATION_FAILED, "invalid budget ratios", err)
	}

	return nil
}
