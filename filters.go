package permkit

import "time"

// AuditLogFilter provides options for filtering audit log queries.
type AuditLogFilter struct {
	// Filter by tenant
	TenantID string

	// Filter by actor who performed the action
	ActorUserID string

	// Filter by target membership of the action
	TargetMemberID string

	// Filter by permission key
	PermissionKey string

	// Filter by action type ("granted" or "revoked")
	Action string

	// Filter by time range
	Since time.Time
	Until time.Time

	// Pagination
	Limit  int
	Offset int
}

// NewAuditLogFilter creates a new AuditLogFilter with default values.
func NewAuditLogFilter() AuditLogFilter {
	return AuditLogFilter{
		Limit: 100,
	}
}

// WithTenant sets the tenant filter.
func (f AuditLogFilter) WithTenant(tenantID string) AuditLogFilter {
	f.TenantID = tenantID
	return f
}

// WithActor sets the actor user id filter.
func (f AuditLogFilter) WithActor(actorUserID string) AuditLogFilter {
	f.ActorUserID = actorUserID
	return f
}

// WithTargetMember sets the target membership filter.
func (f AuditLogFilter) WithTargetMember(membershipID string) AuditLogFilter {
	f.TargetMemberID = membershipID
	return f
}

// WithKey sets the permission key filter.
func (f AuditLogFilter) WithKey(key string) AuditLogFilter {
	f.PermissionKey = key
	return f
}

// WithAction sets the action filter.
func (f AuditLogFilter) WithAction(action AuditAction) AuditLogFilter {
	f.Action = string(action)
	return f
}

// WithTimeRange sets the time range filter.
func (f AuditLogFilter) WithTimeRange(since, until time.Time) AuditLogFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithSince sets the start time filter.
func (f AuditLogFilter) WithSince(since time.Time) AuditLogFilter {
	f.Since = since
	return f
}

// WithUntil sets the end time filter.
func (f AuditLogFilter) WithUntil(until time.Time) AuditLogFilter {
	f.Until = until
	return f
}

// WithLimit sets the limit for results.
func (f AuditLogFilter) WithLimit(limit int) AuditLogFilter {
	f.Limit = limit
	return f
}

// WithOffset sets the offset for pagination.
func (f AuditLogFilter) WithOffset(offset int) AuditLogFilter {
	f.Offset = offset
	return f
}

// WithPagination sets both limit and offset.
func (f AuditLogFilter) WithPagination(limit, offset int) AuditLogFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}
