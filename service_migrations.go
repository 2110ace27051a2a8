package permkit

import (
	"github.com/fernandezvara/dbkit"
)

// MigrationStatus summarizes the migration state of the schema.
type MigrationStatus struct {
	Applied []string
	Pending []string
}

// Migrations returns all database migrations required for PermKit.
// Use db.Migrate(ctx, service.Migrations()) to run them; seed the permission
// catalog afterwards with SeedDefinitions.
func (s *Service) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "permkit-001",
			Description: "Create permission_definitions table",
			SQL: `
                CREATE TABLE IF NOT EXISTS permission_definitions (
                    key TEXT PRIMARY KEY,
                    module TEXT NOT NULL,
                    resource TEXT NOT NULL,
                    action TEXT NOT NULL,
                    label TEXT,
                    description TEXT,
                    is_delegatable BOOLEAN NOT NULL DEFAULT false
                )`,
		},
		{
			ID:          "permkit-002",
			Description: "Create permission_bundles table",
			SQL: `
                CREATE TABLE IF NOT EXISTS permission_bundles (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    tenant_id TEXT NOT NULL,
                    name TEXT NOT NULL,
                    description TEXT,
                    is_system BOOLEAN NOT NULL DEFAULT false,
                    created_by TEXT,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    CONSTRAINT permission_bundles_tenant_name_uq UNIQUE (tenant_id, name)
                )`,
		},
		{
			ID:          "permkit-003",
			Description: "Create bundle_permissions table",
			SQL: `
                CREATE TABLE IF NOT EXISTS bundle_permissions (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    bundle_id UUID NOT NULL,
                    permission_key TEXT NOT NULL,
                    CONSTRAINT bundle_permissions_pair_uq UNIQUE (bundle_id, permission_key)
                )`,
		},
		{
			ID:          "permkit-004",
			Description: "Create membership_bundle_assignments table",
			SQL: `
                CREATE TABLE IF NOT EXISTS membership_bundle_assignments (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    membership_id TEXT NOT NULL,
                    bundle_id UUID NOT NULL,
                    assigned_by TEXT,
                    assigned_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    CONSTRAINT membership_bundle_assignments_pair_uq UNIQUE (membership_id, bundle_id)
                )`,
		},
		{
			ID:          "permkit-005",
			Description: "Create member_permission_overrides table",
			SQL: `
                CREATE TABLE IF NOT EXISTS member_permission_overrides (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    membership_id TEXT NOT NULL,
                    permission_key TEXT NOT NULL,
                    granted BOOLEAN NOT NULL,
                    granted_by TEXT,
                    granted_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    CONSTRAINT member_permission_overrides_pair_uq UNIQUE (membership_id, permission_key)
                )`,
		},
		{
			ID:          "permkit-006",
			Description: "Create delegation_scopes table",
			SQL: `
                CREATE TABLE IF NOT EXISTS delegation_scopes (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    tenant_id TEXT NOT NULL,
                    grantor_member_id TEXT NOT NULL,
                    permission_key TEXT NOT NULL,
                    can_delegate BOOLEAN NOT NULL,
                    granted_by TEXT,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    CONSTRAINT delegation_scopes_pair_uq UNIQUE (grantor_member_id, permission_key)
                )`,
		},
		{
			ID:          "permkit-007",
			Description: "Create delegation_audit_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS delegation_audit_log (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    tenant_id TEXT NOT NULL,
                    actor_user_id TEXT NOT NULL,
                    target_member_id TEXT NOT NULL,
                    permission_key TEXT NOT NULL,
                    action TEXT NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    ip_address TEXT,
                    user_agent TEXT,
                    request_id TEXT
                )`,
		},
		{
			ID:          "permkit-008",
			Description: "Create lookup indexes",
			SQL: `
                CREATE INDEX IF NOT EXISTS idx_mba_membership ON membership_bundle_assignments (membership_id);
                CREATE INDEX IF NOT EXISTS idx_mpo_membership ON member_permission_overrides (membership_id);
                CREATE INDEX IF NOT EXISTS idx_bundles_tenant ON permission_bundles (tenant_id);
                CREATE INDEX IF NOT EXISTS idx_audit_tenant_time ON delegation_audit_log (tenant_id, created_at DESC)`,
		},
	}
}
