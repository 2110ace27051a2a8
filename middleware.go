package permkit

import (
	"net/http"
)

// Middleware provides HTTP middleware for permission and delegation checks.
type Middleware struct {
	service         *Service
	getMembershipID func(*http.Request) string
	errorHandler    func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := permkit.NewMiddleware(service,
//	    permkit.WithMembershipExtractor(func(r *http.Request) string {
//	        return r.Header.Get("X-Membership-ID")
//	    }),
//	)
func NewMiddleware(service *Service, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		service:         service,
		getMembershipID: defaultGetMembershipID,
		errorHandler:    defaultErrorHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithMembershipExtractor sets a custom function to extract the acting
// membership id from the request.
func WithMembershipExtractor(fn func(*http.Request) string) MiddlewareOption {
	return func(m *Middleware) {
		m.getMembershipID = fn
	}
}

// WithErrorHandler sets a custom error handler for middleware.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

func defaultGetMembershipID(r *http.Request) string {
	return GetMembershipID(r.Context())
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if IsUnauthenticated(err) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if IsUnauthorized(err) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if IsInvalidReference(err) || IsNotFound(err) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// checker resolves the acting membership into a Checker, or reports the
// identity failure through the error handler.
func (m *Middleware) checker(w http.ResponseWriter, r *http.Request) (*Checker, bool) {
	membershipID := m.getMembershipID(r)
	if membershipID == "" {
		m.errorHandler(w, r, NewError(ErrUnauthenticated, "no membership in request"))
		return nil, false
	}

	checker, err := m.service.GetChecker(r.Context(), membershipID)
	if err != nil {
		m.errorHandler(w, r, err)
		return nil, false
	}
	return checker, true
}

// RequirePermission ensures the acting membership holds a permission key
// before the handler runs. The resolved Checker is stored in the request
// context for reuse by the handler.
//
// Example:
//
//	router.Handle("/invoices",
//	    mw.RequirePermission("finance.invoice.create")(createInvoiceHandler))
func (m *Middleware) RequirePermission(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			checker, ok := m.checker(w, r)
			if !ok {
				return
			}
			if !checker.HasPermission(key) {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "permission not held").
					WithMembership(checker.MembershipID()).
					WithKey(key))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithChecker(r.Context(), checker)))
		})
	}
}

// RequireAnyPermission ensures the acting membership holds at least one of
// the permission keys.
func (m *Middleware) RequireAnyPermission(keys ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			checker, ok := m.checker(w, r)
			if !ok {
				return
			}
			if !checker.HasAnyPermission(keys) {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "no required permission held").
					WithMembership(checker.MembershipID()))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithChecker(r.Context(), checker)))
		})
	}
}

// RequireDelegation ensures the acting membership may delegate a permission
// key. Use on endpoints that grant permissions to other members.
func (m *Middleware) RequireDelegation(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			checker, ok := m.checker(w, r)
			if !ok {
				return
			}
			if !checker.CanDelegate(key) {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "delegation not allowed").
					WithMembership(checker.MembershipID()).
					WithKey(key))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithChecker(r.Context(), checker)))
		})
	}
}

// RequireOwner ensures the acting membership carries the tenant-owner role.
// This is the caller-identity check guarding owner-only operations such as
// SetDelegationScope.
func (m *Middleware) RequireOwner() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			checker, ok := m.checker(w, r)
			if !ok {
				return
			}
			if !checker.IsOwner() {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "owner role required").
					WithMembership(checker.MembershipID()))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithChecker(r.Context(), checker)))
		})
	}
}
