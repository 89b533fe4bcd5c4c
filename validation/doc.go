// Package validation provides input validation for configuration and
// request payloads.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation is
// recommended for configuration structs.
//
// # Struct Tag Validation
//
//	type Settings struct {
//	    MaxAttempts int    `validate:"required,min=1"`
//	    Strategy    string `validate:"oneof=exponential fixed linear jitter"`
//	}
//	err := validation.Struct(settings)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Min("failure_threshold", cfg.FailureThreshold, 1)
//	err := v.Validate()
package validation
