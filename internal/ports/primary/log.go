package primary

import "context"

// AuditService defines the primary port for reading the audit trail.
type AuditService interface {
	// ListAuditLogs retrieves audit entries matching the given filters, oldest first.
	ListAuditLogs(ctx context.Context, filters AuditLogFilters) ([]*AuditLogEntry, error)
}

// AuditLogEntry represents an audit entry at the port boundary.
type AuditLogEntry struct {
	ID          string
	ChurchID    string
	Action      string // 'status_change', 'submit_update', 'apply_pending_changes', 'forward_pending_to_museum'
	FromStatus  string
	ToStatus    string
	ChangedBy   Actor
	Timestamp   string
	Note        string
	Metadata    map[string]any
	IsAutomated bool
	Diocese     string
}

// AuditLogFilters contains filter options for querying the audit trail.
type AuditLogFilters struct {
	ChurchID string
	Action   string
	ActorUID string
	Limit    int
}
