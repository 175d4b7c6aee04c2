package config

import "fmt"

// ValidatableConfig is implemented by every config section.
type ValidatableConfig interface {
	Validate() []error
}

// Validate collects the errors of all cfgs.
func Validate(cfgs ...ValidatableConfig) []error {
	var out []error

	for _, cfg := range cfgs {
		out = append(out, cfg.Validate()...)
	}

	return out
}

// ValidateJoin checks that s names a concrete remote endpoint.
func ValidateJoin(s *Shared) []error {
	var errs []error
	if s.Host == "" {
		errs = append(errs, fmt.Errorf("a host is required to join a server"))
	}
	if err := validatePort(s.Port); err != nil {
		errs = append(errs, fmt.Errorf("'--port': %w", err))
	}
	return errs
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%d not in [1, 65535]", port)
	}

	return nil
}
