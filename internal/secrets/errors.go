package secrets

import (
	"fmt"

	"trustguard/internal/config"
)

// EnvironmentPolicyViolation is returned when an operation conflicts with
// the policy of the current environment. It always carries the environment
// and secret type so audit logs can reconstruct what was refused, and why.
type EnvironmentPolicyViolation struct {
	Environment config.Environment
	SecretType  SecretType
	Reason      string
}

func (e *EnvironmentPolicyViolation) Error() string {
	return fmt.Sprintf("environment policy violation in %s for %s: %s",
		e.Environment, e.SecretType, e.Reason)
}

// ValueValidationError is returned when a candidate secret value fails the
// policy's length or complexity requirements. The value itself is never
// included in the message.
type ValueValidationError struct {
	SecretType SecretType
	Reason     string
}

func (e *ValueValidationError) Error() string {
	return fmt.Sprintf("invalid value for %s: %s", e.SecretType, e.Reason)
}

// StoreUnavailableError wraps a transport failure against a backing store
type StoreUnavailableError struct {
	Store string
	Err   error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store %s unavailable: %v", e.Store, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return ErrStoreUnavailable
}
