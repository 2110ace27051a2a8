package permkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func middlewareRequest(membershipID string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/invoices", nil)
	if membershipID != "" {
		r = r.WithContext(WithMembershipID(r.Context(), membershipID))
	}
	return r
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

// TestMiddlewareNoMembership tests that an anonymous request gets 401
func TestMiddlewareNoMembership(t *testing.T) {
	mw := NewMiddleware(ownerOnlyService())
	var called bool

	w := httptest.NewRecorder()
	mw.RequirePermission("finance.invoice.create")(okHandler(&called)).
		ServeHTTP(w, middlewareRequest(""))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

// TestMiddlewareUnknownMembership tests that an unresolvable membership gets 401
func TestMiddlewareUnknownMembership(t *testing.T) {
	mw := NewMiddleware(ownerOnlyService())
	var called bool

	w := httptest.NewRecorder()
	mw.RequirePermission("finance.invoice.create")(okHandler(&called)).
		ServeHTTP(w, middlewareRequest("member-ghost"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

// TestMiddlewareOwnerPassthrough tests that the owner reaches the handler
// with a Checker in context
func TestMiddlewareOwnerPassthrough(t *testing.T) {
	mw := NewMiddleware(ownerOnlyService())

	var sawChecker bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checker := FromContext(r.Context())
		sawChecker = checker != nil && checker.IsOwner()
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	mw.RequirePermission("finance.invoice.create")(handler).
		ServeHTTP(w, middlewareRequest(TestOwnerMembershipID))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sawChecker)
}

// TestMiddlewareRequireOwner tests the owner-role gate
func TestMiddlewareRequireOwner(t *testing.T) {
	mw := NewMiddleware(ownerOnlyService())
	var called bool

	w := httptest.NewRecorder()
	mw.RequireOwner()(okHandler(&called)).
		ServeHTTP(w, middlewareRequest(TestOwnerMembershipID))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

// TestMiddlewareRequireDelegationOwner tests the delegation gate for the
// owner bypass
func TestMiddlewareRequireDelegationOwner(t *testing.T) {
	mw := NewMiddleware(ownerOnlyService())
	var called bool

	w := httptest.NewRecorder()
	mw.RequireDelegation("vet.treatment.create")(okHandler(&called)).
		ServeHTTP(w, middlewareRequest(TestOwnerMembershipID))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

// TestMiddlewareCustomExtractor tests header-based membership extraction
func TestMiddlewareCustomExtractor(t *testing.T) {
	mw := NewMiddleware(ownerOnlyService(),
		WithMembershipExtractor(func(r *http.Request) string {
			return r.Header.Get("X-Membership-ID")
		}))
	var called bool

	r := httptest.NewRequest(http.MethodGet, "/invoices", nil)
	r.Header.Set("X-Membership-ID", TestOwnerMembershipID)

	w := httptest.NewRecorder()
	mw.RequireAnyPermission("finance.invoice.read", "finance.invoice.create")(okHandler(&called)).
		ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

// TestMiddlewareCustomErrorHandler tests overriding the error response
func TestMiddlewareCustomErrorHandler(t *testing.T) {
	mw := NewMiddleware(ownerOnlyService(),
		WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			w.WriteHeader(http.StatusTeapot)
		}))
	var called bool

	w := httptest.NewRecorder()
	mw.RequirePermission("finance.invoice.create")(okHandler(&called)).
		ServeHTTP(w, middlewareRequest(""))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.False(t, called)
}

// TestDefaultErrorHandlerMapping tests the sentinel-to-status mapping
func TestDefaultErrorHandlerMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized},
		{"unauthorized", ErrUnauthorized, http.StatusForbidden},
		{"invalid reference", ErrInvalidReference, http.StatusBadRequest},
		{"not found", ErrNotFound, http.StatusBadRequest},
		{"wrapped unauthorized", NewError(ErrUnauthorized, "nope"), http.StatusForbidden},
		{"other", ErrDatabaseError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			defaultErrorHandler(w, middlewareRequest(""), tt.err)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
