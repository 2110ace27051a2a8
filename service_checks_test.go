package permkit

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ownerOnlyService returns a Service whose only reachable code paths are the
// owner bypass and the membership directory. The database is nil on purpose:
// owner checks must never touch a store, so any store access panics the test.
func ownerOnlyService() *Service {
	return NewService(NewStaticRegistry(DefaultDefinitions()), nil, TestDirectory())
}

// TestHasPermissionOwnerBypass tests that the owner holds every key without
// store access
func TestHasPermissionOwnerBypass(t *testing.T) {
	service := ownerOnlyService()
	ctx := context.Background()

	assert.True(t, service.HasPermission(ctx, TestOwnerMembershipID, "finance.invoice.create"))
	assert.True(t, service.HasPermission(ctx, TestOwnerMembershipID, PermissionDelegate))
	assert.True(t, service.HasPermission(ctx, TestOwnerMembershipID, "no.such.key"))
}

// TestHasPermissionUnknownMembership tests the deny path for unresolvable
// memberships
func TestHasPermissionUnknownMembership(t *testing.T) {
	service := ownerOnlyService()
	ctx := context.Background()

	assert.False(t, service.HasPermission(ctx, "member-ghost", "finance.invoice.create"))
	assert.False(t, service.HasPermission(ctx, "", "finance.invoice.create"))
}

// TestCanDelegateOwnerBypass tests that the owner may delegate anything
// without scope rows
func TestCanDelegateOwnerBypass(t *testing.T) {
	service := ownerOnlyService()
	ctx := context.Background()

	assert.True(t, service.CanDelegate(ctx, TestOwnerMembershipID, "vet.treatment.create"))
	// Even keys the catalog marks non-delegatable.
	assert.True(t, service.CanDelegate(ctx, TestOwnerMembershipID, PermissionDelegate))
}

// TestCanDelegateUnknownMembership tests the deny path
func TestCanDelegateUnknownMembership(t *testing.T) {
	service := ownerOnlyService()

	assert.False(t, service.CanDelegate(context.Background(), "member-ghost", "vet.treatment.create"))
}

// TestEffectivePermissionsOwner tests that the owner's effective set is the
// whole definition universe
func TestEffectivePermissionsOwner(t *testing.T) {
	service := ownerOnlyService()
	ctx := context.Background()

	keys, err := service.EffectivePermissions(ctx, TestOwnerMembershipID)
	require.NoError(t, err)

	want := make([]string, 0, len(DefaultDefinitions()))
	for _, def := range DefaultDefinitions() {
		want = append(want, def.Key)
	}
	sort.Strings(want)
	assert.Equal(t, want, keys)
}

// TestEffectivePermissionsUnauthenticated tests unresolvable membership ids
func TestEffectivePermissionsUnauthenticated(t *testing.T) {
	service := ownerOnlyService()
	ctx := context.Background()

	_, err := service.EffectivePermissions(ctx, "member-ghost")
	assert.True(t, IsUnauthenticated(err))

	_, err = service.EffectivePermissions(ctx, "")
	assert.True(t, IsUnauthenticated(err))
}

// TestHasAnyAllPermissionsOwner tests the batch variants for the owner
func TestHasAnyAllPermissionsOwner(t *testing.T) {
	service := ownerOnlyService()
	ctx := context.Background()

	assert.True(t, service.HasAnyPermission(ctx, TestOwnerMembershipID, []string{"no.such.key"}))
	assert.False(t, service.HasAnyPermission(ctx, TestOwnerMembershipID, nil))

	assert.True(t, service.HasAllPermissions(ctx, TestOwnerMembershipID, []string{"finance.invoice.create", "no.such.key"}))
	assert.True(t, service.HasAllPermissions(ctx, TestOwnerMembershipID, nil))
}

// TestGetCheckerOwner tests checker construction for the owner
func TestGetCheckerOwner(t *testing.T) {
	service := ownerOnlyService()
	ctx := context.Background()

	checker, err := service.GetChecker(ctx, TestOwnerMembershipID)
	require.NoError(t, err)

	assert.True(t, checker.IsOwner())
	assert.Equal(t, TestTenantID, checker.TenantID())
	assert.True(t, checker.HasPermission("lab.sample.read"))
	assert.True(t, checker.CanDelegate("lab.sample.read"))
	assert.Equal(t, len(DefaultDefinitions()), len(checker.Permissions()))
}

// TestGetCheckerFromContext tests the context-driven variant
func TestGetCheckerFromContext(t *testing.T) {
	service := ownerOnlyService()

	_, err := service.GetCheckerFromContext(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	ctx := WithMembershipID(context.Background(), TestOwnerMembershipID)
	checker, err := service.GetCheckerFromContext(ctx)
	require.NoError(t, err)
	assert.True(t, checker.IsOwner())
}

// TestStaticDirectory tests the fixture membership resolver itself
func TestStaticDirectory(t *testing.T) {
	dir := TestDirectory()
	ctx := context.Background()

	m, err := dir.Membership(ctx, TestOwnerMembershipID)
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, m.Role)
	assert.Equal(t, TestTenantID, m.TenantID)

	_, err = dir.Membership(ctx, "member-ghost")
	assert.True(t, IsNotFound(err))
}
