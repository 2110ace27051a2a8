package permkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// MembershipResolver is the narrow interface to the tenant membership store.
// The engine only needs the membership id, its tenant, its user, and whether
// the role is the distinguished owner role.
type MembershipResolver interface {
	// Membership resolves a membership id. Implementations return
	// ErrNotFound (or an error wrapping it) for unknown ids.
	Membership(ctx context.Context, membershipID string) (*Membership, error)
}

// StaticDirectory is a map-backed MembershipResolver for tests and for
// applications that keep memberships in memory.
type StaticDirectory map[string]Membership

// Membership implements MembershipResolver.
func (d StaticDirectory) Membership(ctx context.Context, membershipID string) (*Membership, error) {
	m, ok := d[membershipID]
	if !ok {
		return nil, NewError(ErrNotFound, "unknown membership").WithMembership(membershipID)
	}
	return &m, nil
}

// Database defines the database operations interface for dependency injection
type Database interface {
	dbkit.IDB
}

// PermissionChecker is the read contract consumed by domain modules. Checks
// never fail for "permission not held"; that is a normal false result.
type PermissionChecker interface {
	HasPermission(ctx context.Context, membershipID, key string) bool
	CanDelegate(ctx context.Context, membershipID, key string) bool
	EffectivePermissions(ctx context.Context, membershipID string) ([]string, error)
}

// TransactionManager defines the transaction management interface
type TransactionManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
	TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(ctx context.Context) error) error
	ReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MigrationManager defines the migration management interface
type MigrationManager interface {
	Migrations() []dbkit.Migration
}

// HealthMonitor defines the health monitoring interface
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
	Ping(ctx context.Context) error
	GetPoolStats() dbkit.PoolStats
}

// PoolManager defines the connection pool management interface
type PoolManager interface {
	ConfigureConnectionPool(config PoolConfig) error
	GetConnectionPoolConfig() (*PoolConfig, error)
	ResetConnectionPool() error
}

// TransactionMonitor defines the transaction monitoring interface
type TransactionMonitor interface {
	GetTransactionMetrics() TransactionMetrics
	ResetTransactionMetrics()
	IsTransactionHealthy() bool
}
