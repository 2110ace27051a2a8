package permkit

import "context"

// ============================================================================
// PERMISSION CHECKING
// ============================================================================

// HasPermission checks if a membership currently holds a permission key.
// The tenant owner holds every key by definition, without any store lookup.
// "Not held" is a normal false result, never an error; lookup failures are
// logged and deny.
//
// Example:
//
//	if service.HasPermission(ctx, membershipID, "finance.invoice.create") {
//	    // allowed
//	}
func (s *Service) HasPermission(ctx context.Context, membershipID, key string) bool {
	m, err := s.membership(ctx, membershipID)
	if err != nil {
		return false
	}
	if m.Role.IsOwner() {
		return true
	}

	set, _, err := s.effectiveSet(ctx, membershipID)
	if err != nil {
		s.log.WithError(err).Debug("permkit: permission resolution failed, denying")
		return false
	}
	return set.Has(key)
}

// CanDelegate checks if a membership may pass a permission key on to others.
// The owner always may. A non-owner must hold the key, hold
// PermissionDelegate, the key's definition must be delegatable, and an
// explicit delegation scope must exist. Checks run cheapest-first with
// short-circuit AND.
func (s *Service) CanDelegate(ctx context.Context, membershipID, key string) bool {
	m, err := s.membership(ctx, membershipID)
	if err != nil {
		return false
	}
	if m.Role.IsOwner() {
		return true
	}

	set, _, err := s.effectiveSet(ctx, membershipID)
	if err != nil {
		s.log.WithError(err).Debug("permkit: delegation resolution failed, denying")
		return false
	}

	if !set.Has(key) || !set.Has(PermissionDelegate) {
		return false
	}

	def, ok := s.registry.Get(ctx, key)
	if !ok {
		return false
	}

	scope, err := s.delegationScope(ctx, membershipID, key)
	if err != nil {
		s.log.WithError(err).Debug("permkit: delegation scope lookup failed, denying")
		return false
	}

	return resolveDelegation(m.Role, set, &def, scope, key)
}

// EffectivePermissions returns the fully-resolved permission keys a
// membership holds, sorted. An empty slice is a valid result for a member
// with no bundles and no granting overrides.
func (s *Service) EffectivePermissions(ctx context.Context, membershipID string) ([]string, error) {
	set, _, err := s.effectiveSet(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	return set.Keys(), nil
}

// HasAnyPermission checks if a membership holds at least one of the keys.
func (s *Service) HasAnyPermission(ctx context.Context, membershipID string, keys []string) bool {
	set, m, err := s.effectiveSet(ctx, membershipID)
	if err != nil {
		return false
	}
	if m.Role.IsOwner() {
		return len(keys) > 0
	}
	for _, key := range keys {
		if set.Has(key) {
			return true
		}
	}
	return false
}

// HasAllPermissions checks if a membership holds every one of the keys.
func (s *Service) HasAllPermissions(ctx context.Context, membershipID string, keys []string) bool {
	set, m, err := s.effectiveSet(ctx, membershipID)
	if err != nil {
		return false
	}
	if m.Role.IsOwner() {
		return true
	}
	for _, key := range keys {
		if !set.Has(key) {
			return false
		}
	}
	return true
}

// ============================================================================
// CHECKER RETRIEVAL
// ============================================================================

// GetChecker resolves a membership once and returns a Checker answering
// further permission and delegation questions in memory. Store this in
// context for request-scoped checks.
func (s *Service) GetChecker(ctx context.Context, membershipID string) (*Checker, error) {
	set, m, err := s.effectiveSet(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	var scopes []DelegationScope
	if !m.Role.IsOwner() && set.Has(PermissionDelegate) {
		// Delegation scopes only matter for members who could delegate at all.
		err := s.db.NewSelect().Model(&scopes).
			Where("grantor_member_id = ?", membershipID).
			Scan(ctx)
		if err != nil {
			return nil, err
		}
	}

	return NewChecker(m, set, s.registry, scopes), nil
}

// GetCheckerFromContext creates a Checker using the membership id stored in
// context by middleware.
func (s *Service) GetCheckerFromContext(ctx context.Context) (*Checker, error) {
	membershipID := GetMembershipID(ctx)
	if membershipID == "" {
		return nil, ErrUnauthenticated
	}
	return s.GetChecker(ctx, membershipID)
}
