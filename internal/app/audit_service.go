package app

import (
	"context"
	"fmt"

	"github.com/visita/churchflow/internal/ports/primary"
	"github.com/visita/churchflow/internal/ports/secondary"
)

// AuditServiceImpl implements the AuditService interface.
type AuditServiceImpl struct {
	auditRepo secondary.AuditLogRepository
}

// NewAuditService creates a new AuditService with injected dependencies.
func NewAuditService(auditRepo secondary.AuditLogRepository) *AuditServiceImpl {
	return &AuditServiceImpl{
		auditRepo: auditRepo,
	}
}

// ListAuditLogs retrieves audit entries matching the given filters, oldest first.
func (s *AuditServiceImpl) ListAuditLogs(ctx context.Context, filters primary.AuditLogFilters) ([]*primary.AuditLogEntry, error) {
	records, err := s.auditRepo.List(ctx, secondary.AuditLogFilters{
		ChurchID: filters.ChurchID,
		Action:   filters.Action,
		ActorUID: filters.ActorUID,
		Limit:    filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	entries := make([]*primary.AuditLogEntry, len(records))
	for i, r := range records {
		entries[i] = recordToAuditEntry(r)
	}
	return entries, nil
}

// Helper methods

func recordToAuditEntry(r *secondary.AuditLogRecord) *primary.AuditLogEntry {
	return &primary.AuditLogEntry{
		ID:         r.ID,
		ChurchID:   r.ChurchID,
		Action:     r.Action,
		FromStatus: r.FromStatus,
		ToStatus:   r.ToStatus,
		ChangedBy: primary.Actor{
			UID:   r.ChangedBy.UID,
			Email: r.ChangedBy.Email,
			Name:  r.ChangedBy.Name,
			Role:  r.ChangedBy.Role,
		},
		Timestamp:   r.Timestamp,
		Note:        r.Note,
		Metadata:    r.Metadata,
		IsAutomated: r.IsAutomated,
		Diocese:     r.Diocese,
	}
}

// Ensure AuditServiceImpl implements the interface
var _ primary.AuditService = (*AuditServiceImpl)(nil)
