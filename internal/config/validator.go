package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers policymesh-specific validation
// rules, mirroring the teacher's RegisterCustomValidators.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("duration", validateDuration); err != nil {
		return fmt.Errorf("failed to register duration validator: %w", err)
	}
	return nil
}

// validateDuration validates that a field parses as a Go duration
// string (e.g. "60s", "5m").
func validateDuration(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := time.ParseDuration(s)
	return err == nil
}

// Validate validates EngineConfig using struct tags and cross-field
// rules, mirroring the teacher's OSSConfig.Validate.
func (c *EngineConfig) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateDurations(); err != nil {
		return err
	}

	return nil
}

// validateDurations ensures every duration-shaped field actually
// parses, since mapstructure/yaml leave them as plain strings until
// consumed by the cache/decision-log constructors.
func (c *EngineConfig) validateDurations() error {
	fields := map[string]string{
		"cache.subject_facts_ttl":     c.Cache.SubjectFactsTTL,
		"cache.resource_facts_ttl":    c.Cache.ResourceFactsTTL,
		"cache.compiled_policy_ttl":   c.Cache.CompiledPolicyTTL,
		"decision_log.flush_interval": c.DecisionLog.FlushInterval,
	}
	for name, val := range fields {
		if val == "" {
			continue
		}
		if _, err := time.ParseDuration(val); err != nil {
			return fmt.Errorf("%s: invalid duration %q: %w", name, val, err)
		}
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to
// user-friendly messages, mirroring the teacher's
// formatValidationErrors.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "duration":
		return fmt.Sprintf("%s must be a valid duration (e.g. \"30s\")", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
