package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/visita/churchflow/internal/logging"
	"github.com/visita/churchflow/internal/metrics"
	"github.com/visita/churchflow/internal/ports/secondary"
)

// Audit actions
const (
	ActionCreate                 = "create"
	ActionStatusChange           = "status_change"
	ActionSubmitUpdate           = "submit_update"
	ActionApplyPendingChanges    = "apply_pending_changes"
	ActionForwardPendingToMuseum = "forward_pending_to_museum"
)

// AuditPolicy decides what happens when an audit write fails.
type AuditPolicy int

const (
	// AuditBestEffort logs the failure and lets the operation succeed.
	AuditBestEffort AuditPolicy = iota
	// AuditStrict fails the operation.
	AuditStrict
)

// Options carries the ambient dependencies shared by services.
// Zero values are replaced with working defaults.
type Options struct {
	AuditPolicy AuditPolicy
	Logger      *logrus.Entry
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// auditTrail appends audit entries under the configured policy.
type auditTrail struct {
	repo    secondary.AuditLogRepository
	policy  AuditPolicy
	logger  *logrus.Entry
	metrics *metrics.Metrics
	now     func() time.Time
}

func newAuditTrail(repo secondary.AuditLogRepository, opts Options) *auditTrail {
	return &auditTrail{
		repo:    repo,
		policy:  opts.AuditPolicy,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
}

// record appends entry and returns its ID. Under best-effort policy a failed
// write returns an empty ID and a nil error.
func (a *auditTrail) record(ctx context.Context, entry *secondary.AuditLogRecord) (string, error) {
	if entry.Timestamp == "" {
		entry.Timestamp = a.now().UTC().Format(secondary.AuditTimestampLayout)
	}

	err := a.repo.Append(ctx, entry)
	a.metrics.ObserveAuditWrite(entry.Action, err)
	if err == nil {
		return entry.ID, nil
	}

	logging.WithActor(ctx, a.logger).WithFields(logrus.Fields{
		"church_id":   entry.ChurchID,
		"action":      entry.Action,
		"from_status": entry.FromStatus,
		"to_status":   entry.ToStatus,
		"changed_by":  entry.ChangedBy.UID,
	}).WithError(err).Error("audit log write failed")

	if a.policy == AuditStrict {
		return "", err
	}
	return "", nil
}
