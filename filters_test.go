package permkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestAuditLogFilterDefaults tests the default filter
func TestAuditLogFilterDefaults(t *testing.T) {
	f := NewAuditLogFilter()

	assert.Equal(t, 100, f.Limit)
	assert.Equal(t, 0, f.Offset)
	assert.Empty(t, f.TenantID)
	assert.Empty(t, f.Action)
	assert.True(t, f.Since.IsZero())
	assert.True(t, f.Until.IsZero())
}

// TestAuditLogFilterBuilders tests the fluent builders
func TestAuditLogFilterBuilders(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := since.Add(30 * 24 * time.Hour)

	f := NewAuditLogFilter().
		WithTenant(TestTenantID).
		WithActor("user-admin").
		WithTargetMember(TestMemberMembershipID).
		WithKey("finance.invoice.create").
		WithAction(AuditActionGranted).
		WithTimeRange(since, until).
		WithPagination(25, 50)

	assert.Equal(t, TestTenantID, f.TenantID)
	assert.Equal(t, "user-admin", f.ActorUserID)
	assert.Equal(t, TestMemberMembershipID, f.TargetMemberID)
	assert.Equal(t, "finance.invoice.create", f.PermissionKey)
	assert.Equal(t, string(AuditActionGranted), f.Action)
	assert.Equal(t, since, f.Since)
	assert.Equal(t, until, f.Until)
	assert.Equal(t, 25, f.Limit)
	assert.Equal(t, 50, f.Offset)
}

// TestAuditLogFilterValueSemantics tests that builders don't mutate the
// original filter
func TestAuditLogFilterValueSemantics(t *testing.T) {
	base := NewAuditLogFilter().WithTenant(TestTenantID)

	granted := base.WithAction(AuditActionGranted)
	revoked := base.WithAction(AuditActionRevoked)

	assert.Empty(t, base.Action)
	assert.Equal(t, string(AuditActionGranted), granted.Action)
	assert.Equal(t, string(AuditActionRevoked), revoked.Action)
	assert.Equal(t, TestTenantID, revoked.TenantID)
}
