package permkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for PermKit operations.
var (
	// ErrNotFound is returned when a referenced tenant, membership, bundle,
	// or definition does not exist.
	ErrNotFound = errors.New("permkit: not found")

	// ErrInvalidReference is returned when a write names a permission key
	// absent from the definition registry.
	ErrInvalidReference = errors.New("permkit: invalid permission reference")

	// ErrInvalidKey is returned when a permission key is malformed.
	ErrInvalidKey = errors.New("permkit: invalid permission key")

	// ErrUnauthenticated is returned when no membership identity can be
	// resolved. This is a caller precondition violation, not a business
	// outcome: "permission not held" is a normal false result.
	ErrUnauthenticated = errors.New("permkit: unauthenticated")

	// ErrUnauthorized is returned by caller-level checks (middleware) when
	// the acting identity may not perform an operation. The resolver itself
	// never returns it.
	ErrUnauthorized = errors.New("permkit: unauthorized")

	// ErrSystemBundle is returned when deleting a system bundle.
	ErrSystemBundle = errors.New("permkit: system bundle cannot be deleted")

	// ErrNoActorID is returned when a mutating operation finds no actor ID
	// in context for audit attribution.
	ErrNoActorID = errors.New("permkit: no actor ID in context")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("permkit: database error")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err          error  // Underlying sentinel error
	Message      string // Additional context
	TenantID     string // Tenant involved (if applicable)
	MembershipID string // Membership involved (if applicable)
	BundleID     string // Bundle involved (if applicable)
	Key          string // Permission key involved (if applicable)
	ActorID      string // Actor who triggered the error (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithTenant adds tenant information to the error.
func (e *Error) WithTenant(tenantID string) *Error {
	e.TenantID = tenantID
	return e
}

// WithMembership adds membership information to the error.
func (e *Error) WithMembership(membershipID string) *Error {
	e.MembershipID = membershipID
	return e
}

// WithBundle adds bundle information to the error.
func (e *Error) WithBundle(bundleID string) *Error {
	e.BundleID = bundleID
	return e
}

// WithKey adds the permission key to the error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithActor adds actor information to the error.
func (e *Error) WithActor(actorID string) *Error {
	e.ActorID = actorID
	return e
}

// IsNotFound checks if an error is a missing-reference error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidReference checks if an error names an unknown permission key.
func IsInvalidReference(err error) bool {
	return errors.Is(err, ErrInvalidReference)
}

// IsUnauthenticated checks if an error is an identity-resolution error.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsUnauthorized checks if an error is a caller-level authorization error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsSystemBundle checks if an error is a system-bundle deletion refusal.
func IsSystemBundle(err error) bool {
	return errors.Is(err, ErrSystemBundle)
}
