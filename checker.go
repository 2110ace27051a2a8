package permkit

import "context"

// Checker answers permission and delegation questions for one membership
// from state resolved once. It is typically created by the Service and
// stored in context for use in handlers; all checks are pure in-memory
// lookups over the snapshot.
//
// The snapshot is point-in-time: a Checker does not observe overrides or
// assignments made after it was built.
type Checker struct {
	membership *Membership
	effective  *EffectiveSet
	registry   *Registry
	scopes     map[string]DelegationScope
}

// NewChecker creates a Checker over resolved state.
func NewChecker(membership *Membership, effective *EffectiveSet, registry *Registry, scopes []DelegationScope) *Checker {
	byKey := make(map[string]DelegationScope, len(scopes))
	for _, sc := range scopes {
		byKey[sc.PermissionKey] = sc
	}
	return &Checker{
		membership: membership,
		effective:  effective,
		registry:   registry,
		scopes:     byKey,
	}
}

// MembershipID returns the membership this checker is for.
func (c *Checker) MembershipID() string {
	return c.membership.ID
}

// TenantID returns the tenant the membership belongs to.
func (c *Checker) TenantID() string {
	return c.membership.TenantID
}

// IsOwner reports whether the membership carries the tenant-owner role.
func (c *Checker) IsOwner() bool {
	return c.membership.Role.IsOwner()
}

// HasPermission checks if the membership holds a permission key.
//
// Example:
//
//	if checker.HasPermission("vet.treatment.create") {
//	    // allowed
//	}
func (c *Checker) HasPermission(key string) bool {
	if c.IsOwner() {
		return true
	}
	return c.effective.Has(key)
}

// HasAnyPermission checks if the membership holds at least one of the keys.
func (c *Checker) HasAnyPermission(keys []string) bool {
	for _, key := range keys {
		if c.HasPermission(key) {
			return true
		}
	}
	return false
}

// HasAllPermissions checks if the membership holds every one of the keys.
func (c *Checker) HasAllPermissions(keys []string) bool {
	for _, key := range keys {
		if !c.HasPermission(key) {
			return false
		}
	}
	return true
}

// CanDelegate checks if the membership may pass a key on to others, using
// the delegation scopes captured when the checker was built. The definition
// lookup goes through the registry snapshot; a key absent from the universe
// is never delegatable.
func (c *Checker) CanDelegate(key string) bool {
	if c.IsOwner() {
		return true
	}

	var defPtr *PermissionDefinition
	if def, ok := c.registry.Get(context.Background(), key); ok {
		defPtr = &def
	}

	var scopePtr *DelegationScope
	if sc, ok := c.scopes[key]; ok {
		scopePtr = &sc
	}

	return resolveDelegation(c.membership.Role, c.effective, defPtr, scopePtr, key)
}

// Permissions returns the membership's effective permission keys, sorted.
func (c *Checker) Permissions() []string {
	return c.effective.Keys()
}

// IsEmpty returns true if the membership resolves to no permissions at all.
func (c *Checker) IsEmpty() bool {
	return !c.IsOwner() && c.effective.IsEmpty()
}
