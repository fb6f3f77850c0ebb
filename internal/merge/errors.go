package merge

import "fmt"

// ServiceError reports that the generation service could not be reached or
// returned an error. No canonical document is written.
type ServiceError struct {
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("service error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("service error: %s", e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// ValidationError reports a service response that is not a single JSON object.
// Raw holds the response exactly as received.
type ValidationError struct {
	Message string
	Raw     string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// ConfigError reports engine options that cannot produce a run.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("merge config error: %s", e.Message)
}
