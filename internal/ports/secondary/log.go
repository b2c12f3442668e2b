package secondary

import "context"

// AuditLogRepository defines the secondary port for the status-change audit trail.
// Entries are append-only; the port has no update or delete.
type AuditLogRepository interface {
	// Append persists a new audit entry. The repository assigns ID and
	// Timestamp when they are empty.
	Append(ctx context.Context, entry *AuditLogRecord) error

	// List retrieves audit entries matching the given filters, oldest first.
	List(ctx context.Context, filters AuditLogFilters) ([]*AuditLogRecord, error)
}

// AuditTimestampLayout is the fixed-width UTC layout of audit timestamps, so
// that text order matches time order.
const AuditTimestampLayout = "2006-01-02T15:04:05.000000000Z"

// AuditActor identifies who performed an audited action.
type AuditActor struct {
	UID   string
	Email string
	Name  string
	Role  string
}

// AuditLogRecord represents one immutable audit entry as stored in persistence.
type AuditLogRecord struct {
	ID          string
	ChurchID    string
	Action      string // "status_change", "apply_pending_changes", ...
	FromStatus  string
	ToStatus    string
	ChangedBy   AuditActor
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
