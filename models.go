package permkit

import (
	"sort"
	"time"

	"github.com/uptrace/bun"
)

// Role is the coarse membership role supplied by the tenant membership store.
// It is a closed set: the engine only distinguishes the owner from everyone
// else, and every owner-bypass decision goes through IsOwner.
type Role string

const (
	// RoleOwner is the distinguished tenant-owner role. An owner's effective
	// permission set is the full definition universe.
	RoleOwner Role = "owner"

	// RoleMember is any non-owner membership. Members resolve their
	// permissions from bundles and overrides.
	RoleMember Role = "member"
)

// IsOwner reports whether this role short-circuits permission resolution.
func (r Role) IsOwner() bool {
	return r == RoleOwner
}

// Membership associates one user with one tenant. It is the identity against
// which all fine-grained permission state is keyed. Memberships are owned by
// the tenant membership store; the engine consumes them through a
// MembershipResolver.
type Membership struct {
	ID       string
	UserID   string
	TenantID string
	Role     Role
}

// PermissionDefinition is one entry in the universe of permission keys.
// Definitions are immutable once published and are created by system
// migration, never by end users.
type PermissionDefinition struct {
	bun.BaseModel `bun:"table:permission_definitions,alias:pd"`

	Key           string `bun:"key,pk"`
	Module        string `bun:"module,notnull"`
	Resource      string `bun:"resource,notnull"`
	Action        string `bun:"action,notnull"`
	Label         string `bun:"label"`
	Description   string `bun:"description"`
	IsDelegatable bool   `bun:"is_delegatable,notnull,default:false"`
}

// PermissionBundle is a named, tenant-scoped set of permission keys.
// System bundles (IsSystem) cannot be deleted.
type PermissionBundle struct {
	bun.BaseModel `bun:"table:permission_bundles,alias:pb"`

	ID          string    `bun:"id,pk,type:uuid"`
	TenantID    string    `bun:"tenant_id,notnull"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description"`
	IsSystem    bool      `bun:"is_system,notnull,default:false"`
	CreatedBy   string    `bun:"created_by"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// BundlePermission links one permission key to one bundle. The key must exist
// in the definition registry at write time.
type BundlePermission struct {
	bun.BaseModel `bun:"table:bundle_permissions,alias:bp"`

	ID            string `bun:"id,pk,type:uuid"`
	BundleID      string `bun:"bundle_id,notnull,type:uuid"`
	PermissionKey string `bun:"permission_key,notnull"`
}

// BundleAssignment records that a membership holds a bundle. Assignments are
// idempotent: assigning an already-assigned bundle is a no-op.
type BundleAssignment struct {
	bun.BaseModel `bun:"table:membership_bundle_assignments,alias:mba"`

	ID           string    `bun:"id,pk,type:uuid"`
	MembershipID string    `bun:"membership_id,notnull"`
	BundleID     string    `bun:"bundle_id,notnull,type:uuid"`
	AssignedBy   string    `bun:"assigned_by"`
	AssignedAt   time.Time `bun:"assigned_at,notnull,default:current_timestamp"`
}

// PermissionOverride is a per-membership exception for one key. Granted=true
// force-adds the key to the effective set even when no bundle supplies it;
// Granted=false force-removes it even when a bundle does. At most one row
// exists per (membership, key); SetOverride replaces, never appends.
type PermissionOverride struct {
	bun.BaseModel `bun:"table:member_permission_overrides,alias:mpo"`

	ID            string    `bun:"id,pk,type:uuid"`
	MembershipID  string    `bun:"membership_id,notnull"`
	PermissionKey string    `bun:"permission_key,notnull"`
	Granted       bool      `bun:"granted,notnull"`
	GrantedBy     string    `bun:"granted_by"`
	GrantedAt     time.Time `bun:"granted_at,notnull,default:current_timestamp"`
}

// DelegationScope is an owner-made grant allowing one non-owner membership to
// delegate one permission key. Absence of a row means "cannot delegate"
// regardless of any permission the membership otherwise holds.
type DelegationScope struct {
	bun.BaseModel `bun:"table:delegation_scopes,alias:ds"`

	ID              string    `bun:"id,pk,type:uuid"`
	TenantID        string    `bun:"tenant_id,notnull"`
	GrantorMemberID string    `bun:"grantor_member_id,notnull"`
	PermissionKey   string    `bun:"permission_key,notnull"`
	CanDelegate     bool      `bun:"can_delegate,notnull"`
	GrantedBy       string    `bun:"granted_by"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// AuditAction is the kind of change recorded by an audit entry.
type AuditAction string

const (
	AuditActionGranted AuditAction = "granted"
	AuditActionRevoked AuditAction = "revoked"
)

// AuditLogEntry records one grant/revoke of permission state. Entries are
// append-only: the engine never updates or deletes them.
type AuditLogEntry struct {
	bun.BaseModel `bun:"table:delegation_audit_log,alias:dal"`

	ID             string    `bun:"id,pk,type:uuid"`
	TenantID       string    `bun:"tenant_id,notnull"`
	ActorUserID    string    `bun:"actor_user_id,notnull"`
	TargetMemberID string    `bun:"target_member_id,notnull"`
	PermissionKey  string    `bun:"permission_key,notnull"`
	Action         string    `bun:"action,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp"`

	// Request metadata for forensics
	IPAddress string `bun:"ip_address"`
	UserAgent string `bun:"user_agent"`
	RequestID string `bun:"request_id"`
}

// EffectiveSet is the fully-resolved set of permission keys a membership
// holds after combining role, bundles, and overrides.
type EffectiveSet struct {
	keys map[string]struct{}
}

// NewEffectiveSet builds an EffectiveSet from a list of keys.
func NewEffectiveSet(keys ...string) *EffectiveSet {
	es := &EffectiveSet{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		es.keys[k] = struct{}{}
	}
	return es
}

// Has reports whether the set contains a key.
func (es *EffectiveSet) Has(key string) bool {
	_, ok := es.keys[key]
	return ok
}

// Add inserts a key into the set.
func (es *EffectiveSet) Add(key string) {
	es.keys[key] = struct{}{}
}

// Remove deletes a key from the set.
func (es *EffectiveSet) Remove(key string) {
	delete(es.keys, key)
}

// Keys returns all keys in the set, sorted for stable output.
func (es *EffectiveSet) Keys() []string {
	out := make([]string, 0, len(es.keys))
	for k := range es.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of keys in the set.
func (es *EffectiveSet) Len() int {
	return len(es.keys)
}

// IsEmpty reports whether the set holds no keys. An empty set is a valid
// resolution result, not an error.
func (es *EffectiveSet) IsEmpty() bool {
	return len(es.keys) == 0
}
