package permkit

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/fernandezvara/dbkit"
)

// Service is the authorization and delegation engine. It owns the stores for
// bundles, assignments, overrides, and delegation scopes, resolves effective
// permission sets, and appends audit entries for grant/revoke mutations.
//
// Error Handling:
// All database operations use dbkit's chainable error wrapping to provide
// detailed context about failed operations. Package sentinels classify
// engine-level failures:
//
//	err := service.CreateBundle(ctx, tenantID, name, desc, keys)
//	if permkit.IsInvalidReference(err) {
//	    // a key is not part of the definition universe
//	}
//	if permkit.IsNotFound(err) {
//	    // tenant/membership/bundle does not exist
//	}
type Service struct {
	db        dbkit.IDB
	registry  *Registry
	members   MembershipResolver
	log       *logrus.Logger
	txMonitor *transactionMonitor

	// Optional per-membership effective-set cache. nil when disabled.
	effective *lru.LRU[string, *EffectiveSet]
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for best-effort failures (audit writes,
// pool management).
func WithLogger(log *logrus.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

// WithCache enables an expiring LRU cache of resolved effective sets, keyed
// by membership id. Entries are dropped on every mutation touching the
// member and the whole cache is purged on bundle-level mutations, so reads
// are at most ttl behind a write made through another process.
func WithCache(size int, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if size <= 0 {
			size = 1024
		}
		s.effective = lru.NewLRU[string, *EffectiveSet](size, nil, ttl)
	}
}

// NewService creates a new PermKit service.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	registry := permkit.NewRegistry(permkit.DatabaseLoader(db))
//	service := permkit.NewService(registry, db, directory)
func NewService(registry *Registry, db dbkit.IDB, members MembershipResolver, opts ...ServiceOption) *Service {
	s := &Service{
		db:        db,
		registry:  registry,
		members:   members,
		log:       logrus.New(),
		txMonitor: newTransactionMonitor(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the definition registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// ============================================================================
// AUDIT LOG
// ============================================================================

// ListAuditLog retrieves audit log entries with optional filters, newest
// first.
func (s *Service) ListAuditLog(ctx context.Context, filter AuditLogFilter) ([]AuditLogEntry, error) {
	var entries []AuditLogEntry
	q := s.db.NewSelect().Model(&entries)
	if filter.TenantID != "" {
		q = q.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.ActorUserID != "" {
		q = q.Where("actor_user_id = ?", filter.ActorUserID)
	}
	if filter.TargetMemberID != "" {
		q = q.Where("target_member_id = ?", filter.TargetMemberID)
	}
	if filter.PermissionKey != "" {
		q = q.Where("permission_key = ?", filter.PermissionKey)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("created_at <= ?", filter.Until)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100 // Default limit
	}
	q = q.Limit(limit)

	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("created_at DESC")
	err := dbkit.WithErr1(q.Scan(ctx), "ListAuditLog").Err()
	if err != nil {
		return nil, err
	}

	return entries, nil
}
