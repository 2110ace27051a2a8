package permkit

// ResolveEffective computes the effective permission set for a membership
// from already-fetched state. It is a pure function: safe to call
// concurrently, no store access.
//
// Resolution order is strict:
//
//  1. The owner role short-circuits to the full definition universe. No
//     bundle or override row is consulted or permitted to reduce it.
//  2. Everyone else starts from the union of their assigned bundles' keys.
//  3. Overrides are applied last: a granting override force-adds its key, a
//     revoking override force-removes it. Overrides always win over bundles.
func ResolveEffective(role Role, bundleKeys []string, overrides []PermissionOverride, universe []string) *EffectiveSet {
	if role.IsOwner() {
		return NewEffectiveSet(universe...)
	}

	set := NewEffectiveSet(bundleKeys...)
	for _, o := range overrides {
		if o.Granted {
			set.Add(o.PermissionKey)
		} else {
			set.Remove(o.PermissionKey)
		}
	}
	return set
}

// resolveDelegation answers CanDelegate from already-fetched state. The owner
// is always allowed. A non-owner must pass four gates, evaluated with
// short-circuit AND:
//
//	(a) the key is in the effective set
//	(b) the effective set contains PermissionDelegate
//	(c) the key's definition exists and is delegatable
//	(d) an explicit delegation scope with can_delegate=true covers the key
//
// A missing definition yields false, never an error.
func resolveDelegation(role Role, effective *EffectiveSet, def *PermissionDefinition, scope *DelegationScope, key string) bool {
	if role.IsOwner() {
		return true
	}

	if !effective.Has(key) {
		return false
	}
	if !effective.Has(PermissionDelegate) {
		return false
	}
	if def == nil || !def.IsDelegatable {
		return false
	}
	return scope != nil && scope.CanDelegate
}
