package permkit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrorWrapping tests sentinel wrapping and unwrap behavior
func TestErrorWrapping(t *testing.T) {
	err := NewError(ErrNotFound, "bundle does not exist").WithBundle("b1")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInvalidReference))
	assert.Equal(t, "b1", err.BundleID)
	assert.Contains(t, err.Error(), "bundle does not exist")
	assert.Contains(t, err.Error(), "permkit: not found")
}

// TestErrorWithoutMessage tests bare sentinel formatting
func TestErrorWithoutMessage(t *testing.T) {
	err := NewError(ErrUnauthenticated, "")
	assert.Equal(t, ErrUnauthenticated.Error(), err.Error())
}

// TestErrorContextBuilders tests the With* chain
func TestErrorContextBuilders(t *testing.T) {
	err := NewError(ErrInvalidReference, "unknown key").
		WithTenant("t1").
		WithMembership("m1").
		WithKey("finance.invoice.create").
		WithActor("u1")

	assert.Equal(t, "t1", err.TenantID)
	assert.Equal(t, "m1", err.MembershipID)
	assert.Equal(t, "finance.invoice.create", err.Key)
	assert.Equal(t, "u1", err.ActorID)
}

// TestErrorClassifiers tests the IsX helpers
func TestErrorClassifiers(t *testing.T) {
	assert.True(t, IsNotFound(NewError(ErrNotFound, "x")))
	assert.True(t, IsInvalidReference(NewError(ErrInvalidReference, "x")))
	assert.True(t, IsUnauthenticated(NewError(ErrUnauthenticated, "x")))
	assert.True(t, IsUnauthorized(NewError(ErrUnauthorized, "x")))
	assert.True(t, IsSystemBundle(NewError(ErrSystemBundle, "x")))

	assert.False(t, IsNotFound(ErrUnauthorized))
	assert.False(t, IsNotFound(nil))
}

// TestErrorThroughFmtWrap tests classification across an extra fmt layer
func TestErrorThroughFmtWrap(t *testing.T) {
	inner := NewError(ErrInvalidReference, "unknown key").WithKey("a.b.c")
	outer := fmt.Errorf("creating bundle: %w", inner)

	assert.True(t, IsInvalidReference(outer))

	var e *Error
	assert.True(t, errors.As(outer, &e))
	assert.Equal(t, "a.b.c", e.Key)
}
