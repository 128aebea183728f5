package policy

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Sentinel-Gate/toolgate/internal/domain/operation"
)

// RuleSpec is one entry of the flat-list policy encoding:
//
//	- service: github
//	  operations: [delete, admin]
//	  permission: deny
//	  reason: destructive GitHub operations need a human
type RuleSpec struct {
	Service    string   `yaml:"service" json:"service" validate:"required,service_pattern"`
	Operations []string `yaml:"operations" json:"operations" validate:"required,min=1,dive,operation"`
	Permission string   `yaml:"permission" json:"permission" validate:"required,oneof=allow deny"`
	Reason     string   `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// NestedSpec is the nested-map policy encoding:
//
//	filesystem:
//	  read: allow
//	  delete: deny
type NestedSpec map[string]map[string]string

var ruleValidator = newRuleValidator()

func newRuleValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("operation", validateOperation)
	_ = v.RegisterValidation("service_pattern", validateServicePattern)
	return v
}

// validateOperation accepts an operation category name or "*".
func validateOperation(fl validator.FieldLevel) bool {
	op := fl.Field().String()
	if op == WildcardOperation {
		return true
	}
	return operation.Category(op).IsValid()
}

// validateServicePattern rejects glob patterns path.Match cannot compile.
func validateServicePattern(fl validator.FieldLevel) bool {
	_, err := path.Match(fl.Field().String(), "")
	return err == nil
}

// NormalizeFlat converts flat-list entries into rules, in input order.
// Permission and operation names are case-insensitive.
func NormalizeFlat(specs []RuleSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for i, spec := range specs {
		rule, err := normalizeSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// NormalizeNested converts the nested-map encoding into rules: one rule per
// (service, operation) pair, sorted by service then operation so the result
// does not depend on map iteration order.
func NormalizeNested(spec NestedSpec) ([]Rule, error) {
	services := make([]string, 0, len(spec))
	for svc := range spec {
		services = append(services, svc)
	}
	sort.Strings(services)

	var rules []Rule
	for _, svc := range services {
		ops := spec[svc]
		if len(ops) == 0 {
			return nil, fmt.Errorf("service %q: no operations", svc)
		}
		names := make([]string, 0, len(ops))
		for op := range ops {
			names = append(names, op)
		}
		sort.Strings(names)
		for _, op := range names {
			rule, err := normalizeSpec(RuleSpec{
				Service:    svc,
				Operations: []string{op},
				Permission: ops[op],
			})
			if err != nil {
				return nil, fmt.Errorf("service %q: %w", svc, err)
			}
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func normalizeSpec(spec RuleSpec) (Rule, error) {
	spec.Service = strings.TrimSpace(spec.Service)
	spec.Permission = strings.ToLower(strings.TrimSpace(spec.Permission))
	var ops []string
	for _, op := range spec.Operations {
		ops = append(ops, strings.ToLower(strings.TrimSpace(op)))
	}
	spec.Operations = ops

	if err := ruleValidator.Struct(spec); err != nil {
		return Rule{}, formatValidationErrors(spec, err)
	}

	rule := Rule{
		Service:    spec.Service,
		Permission: Permission(spec.Permission),
		Reason:     strings.TrimSpace(spec.Reason),
	}
	seen := make(map[operation.Category]struct{}, len(ops))
	for _, op := range ops {
		if op == WildcardOperation {
			rule.AllOperations = true
			rule.Operations = nil
			break
		}
		c := operation.Category(op)
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		rule.Operations = append(rule.Operations, c)
	}
	return rule, nil
}

// formatValidationErrors converts validator errors into one readable error.
func formatValidationErrors(spec RuleSpec, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must list at least %s entry", field, e.Param()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s %q must be one of: %s", field, spec.Permission, e.Param()))
		case "operation":
			messages = append(messages, fmt.Sprintf("unknown operation %q (want admin, delete, execute, write, read or *)", e.Value()))
		case "service_pattern":
			messages = append(messages, fmt.Sprintf("service pattern %q is malformed", spec.Service))
		default:
			messages = append(messages, fmt.Sprintf("%s failed validation: %s", field, e.Tag()))
		}
	}
	return errors.New(strings.Join(messages, "; "))
}
