package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/keiba-stats/internal/models"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("tickets", validateTickets)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateTickets accepts modeled ticket types by name or Japanese label
func validateTickets(fl validator.FieldLevel) bool {
	tickets, ok := fl.Field().Interface().([]string)
	if !ok || len(tickets) == 0 {
		return false
	}

	for _, name := range tickets {
		t, err := models.ParseTicketType(name)
		if err != nil {
			return false
		}
		if !models.MustDescriptor(t).Modeled {
			return false
		}
	}
	return true
}

func validateCrossField(cfg *Config) error {
	if cfg.Stats.RollingStepDays > cfg.Stats.RollingWindowDays {
		return fmt.Errorf("rolling_step_days (%d) cannot exceed rolling_window_days (%d)",
			cfg.Stats.RollingStepDays, cfg.Stats.RollingWindowDays)
	}

	if cfg.Stats.MaxRank > cfg.Parser.MaxHorseNumber {
		return fmt.Errorf("stats max_rank (%d) cannot exceed parser max_horse_number (%d)",
			cfg.Stats.MaxRank, cfg.Parser.MaxHorseNumber)
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with '/', got %q", cfg.Metrics.Path)
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "tickets":
			errMsg += fmt.Sprintf("- Field '%s' contains an unknown ticket type: %v\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		if cfg.App.LogLevel == "debug" {
			return fmt.Errorf("production environment should not log at debug level")
		}
		if !filepath.IsAbs(cfg.Storage.Path) {
			return fmt.Errorf("production environment requires an absolute storage path, got %q", cfg.Storage.Path)
		}
	}

	return nil
}
