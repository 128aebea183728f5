package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Sentinel-Gate/toolgate/internal/domain/operation"
)

const fileScheme = "file://"

// RegisterCustomValidators registers toolgate-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	// audit_output: validates "stderr" or "file://<absolute-path>"
	if err := v.RegisterValidation("audit_output", validateAuditOutput); err != nil {
		return fmt.Errorf("failed to register audit_output validator: %w", err)
	}
	if err := v.RegisterValidation("trace_output", validateTraceOutput); err != nil {
		return fmt.Errorf("failed to register trace_output validator: %w", err)
	}
	if err := v.RegisterValidation("category", validateCategory); err != nil {
		return fmt.Errorf("failed to register category validator: %w", err)
	}
	return nil
}

// validateAuditOutput validates the audit output field.
// Valid values: "stderr" or "file://<absolute-path>"
func validateAuditOutput(fl validator.FieldLevel) bool {
	output := fl.Field().String()
	if output == "stderr" {
		return true
	}
	_, ok := fileOutputPath(output)
	return ok
}

// validateTraceOutput rejects stdout, which carries the MCP stream.
func validateTraceOutput(fl validator.FieldLevel) bool {
	switch output := fl.Field().String(); output {
	case "stdout", "-":
		return false
	case "stderr":
		return true
	default:
		if strings.HasPrefix(output, fileScheme) {
			_, ok := fileOutputPath(output)
			return ok
		}
		return true
	}
}

func validateCategory(fl validator.FieldLevel) bool {
	_, err := operation.ParseCategory(fl.Field().String())
	return err == nil
}

// fileOutputPath extracts the absolute path from a file:// output.
func fileOutputPath(output string) (string, bool) {
	if !strings.HasPrefix(output, fileScheme) {
		return "", false
	}
	path := strings.TrimPrefix(output, fileScheme)
	return path, path != "" && filepath.IsAbs(path)
}

// Validate validates the Config using struct tags.
// Returns an error if validation fails, with actionable error messages.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// RequirePolicy reports ErrMissingPolicy when no policy source is set.
func (c *Config) RequirePolicy() error {
	if strings.TrimSpace(c.Policy) == "" {
		return ErrMissingPolicy
	}
	return nil
}

// RequireProxyTarget reports what running the proxy still lacks: a backend
// command, a policy source, or both.
func (c *Config) RequireProxyTarget() error {
	var errs []error
	if len(c.Argv()) == 0 {
		errs = append(errs, ErrMissingCommand)
	}
	if err := c.RequirePolicy(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
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

// formatSingleValidationError creates a user-friendly message for a single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "audit_output":
		return fmt.Sprintf("%s must be 'stderr' or 'file://<absolute-path>'", field)
	case "trace_output":
		return fmt.Sprintf("%s must be 'stderr' or a file path, never stdout", field)
	case "category":
		return fmt.Sprintf("%s: unknown category %q (want admin, delete, execute, write or read)", field, e.Value())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
