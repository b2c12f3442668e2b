package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/visita/churchflow/internal/core/church"
	"github.com/visita/churchflow/internal/core/effects"
	"github.com/visita/churchflow/internal/logging"
	"github.com/visita/churchflow/internal/metrics"
	"github.com/visita/churchflow/internal/ports/primary"
	"github.com/visita/churchflow/internal/ports/secondary"
)

// WorkflowServiceImpl implements the WorkflowService interface.
// It holds no mutable state beyond its injected dependencies.
type WorkflowServiceImpl struct {
	table      church.Table
	churchRepo secondary.ChurchRepository
	audit      *auditTrail
	executor   EffectExecutor
	logger     *logrus.Entry
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewWorkflowService creates a new WorkflowService with injected dependencies.
func NewWorkflowService(
	churchRepo secondary.ChurchRepository,
	auditRepo secondary.AuditLogRepository,
	executor EffectExecutor,
	opts Options,
) *WorkflowServiceImpl {
	opts = opts.withDefaults()
	return &WorkflowServiceImpl{
		table:      church.DefaultTable(),
		churchRepo: churchRepo,
		audit:      newAuditTrail(auditRepo, opts),
		executor:   executor,
		logger:     opts.Logger.WithField("component", "workflow"),
		metrics:    opts.Metrics,
		now:        opts.Now,
	}
}

// GetValidTransitions lists the transitions role may invoke from status.
func (s *WorkflowServiceImpl) GetValidTransitions(status, role string) []primary.Transition {
	valid := s.table.ValidTransitions(church.Status(status), church.Role(role))
	out := make([]primary.Transition, len(valid))
	for i, tr := range valid {
		out[i] = s.transitionToPort(tr)
	}
	return out
}

// IsTransitionValid checks a transition without side effects.
func (s *WorkflowServiceImpl) IsTransitionValid(tc primary.TransitionContext) primary.ValidationResult {
	res := s.table.Validate(toCoreContext(tc))
	return primary.ValidationResult{Valid: res.Allowed, Reason: res.Reason}
}

// GetNextActions derives the UI actions available to role.
func (s *WorkflowServiceImpl) GetNextActions(churchID, status, role string) []primary.ActionDescriptor {
	actions := s.table.NextActions(churchID, church.Status(status), church.Role(role))
	out := make([]primary.ActionDescriptor, len(actions))
	for i, a := range actions {
		out[i] = primary.ActionDescriptor{
			ChurchID:     a.ChurchID,
			FromStatus:   string(a.From),
			TargetStatus: string(a.TargetStatus),
			Label:        a.Label,
			RequiresNote: a.RequiresNote,
		}
	}
	return out
}

// ExecuteTransition revalidates the transition, runs its hook and appends an
// audit entry. The church status itself is left for the caller to write.
// When the church is stored, its classification and diocese fill any the
// caller left empty; when it is not, the hook's payload stamps are skipped.
func (s *WorkflowServiceImpl) ExecuteTransition(ctx context.Context, tc primary.TransitionContext) (result primary.ExecutionResult) {
	defer s.recoverInto(&result, tc.ChurchID)

	tc.Actor = resolveActor(ctx, tc.Actor)
	if msg := validationMessage(tc); msg != "" {
		return primary.ExecutionResult{Success: false, Error: msg}
	}

	record, err := s.churchRepo.GetByID(ctx, tc.ChurchID)
	switch {
	case err == nil:
		if tc.Classification == "" {
			tc.Classification = record.Classification
		}
		if tc.Diocese == "" {
			tc.Diocese = record.Diocese
		}
	case isNotFound(err):
		record = nil
	default:
		return primary.ExecutionResult{Success: false, Error: failureMessage(err)}
	}

	coreCtx, fail := s.prepare(tc)
	if fail != "" {
		return primary.ExecutionResult{Success: false, Error: fail}
	}

	effs := s.hookEffects(coreCtx)
	if record == nil {
		_, effs = splitChurchFields(effs, tc.ChurchID)
		s.logger.WithField("church_id", tc.ChurchID).Debug("church not stored, skipping payload stamps")
	}
	if err := s.runEffects(ctx, effs); err != nil {
		s.metrics.ObserveTransition(tc.FromStatus, tc.ToStatus, metrics.OutcomeFailed)
		return primary.ExecutionResult{Success: false, Error: err.Error()}
	}

	auditID, err := s.audit.record(ctx, s.auditEntry(tc))
	if err != nil {
		s.metrics.ObserveTransition(tc.FromStatus, tc.ToStatus, metrics.OutcomeFailed)
		return primary.ExecutionResult{Success: false, Error: fmt.Sprintf("failed to write audit log: %v", err)}
	}

	s.metrics.ObserveTransition(tc.FromStatus, tc.ToStatus, metrics.OutcomeSuccess)
	logging.WithActor(ctx, s.logger).WithFields(logrus.Fields{
		"church_id": tc.ChurchID,
		"from":      tc.FromStatus,
		"to":        tc.ToStatus,
	}).Info("transition executed")

	return primary.ExecutionResult{Success: true, AuditLogID: auditID}
}

// TransitionChurch loads the church, validates the transition, then writes the
// new status together with the hook's payload stamps in one update that is
// conditional on the status it read. The audit entry follows the write.
func (s *WorkflowServiceImpl) TransitionChurch(ctx context.Context, req primary.TransitionRequest) (result primary.ExecutionResult) {
	defer s.recoverInto(&result, req.ChurchID)

	record, err := s.churchRepo.GetByID(ctx, req.ChurchID)
	if err != nil {
		return primary.ExecutionResult{Success: false, Error: failureMessage(err)}
	}

	tc := primary.TransitionContext{
		ChurchID:       record.ID,
		FromStatus:     record.Status,
		ToStatus:       req.ToStatus,
		Actor:          resolveActor(ctx, req.Actor),
		Note:           req.Note,
		Classification: record.Classification,
		Diocese:        record.Diocese,
		IsAutomated:    req.IsAutomated,
	}

	coreCtx, fail := s.prepare(tc)
	if fail != "" {
		return primary.ExecutionResult{Success: false, Error: fail}
	}

	stamps, rest := splitChurchFields(s.hookEffects(coreCtx), record.ID)
	err = s.churchRepo.Update(ctx, record.ID, secondary.ChurchUpdate{
		Status:         tc.ToStatus,
		Fields:         stamps,
		ExpectedStatus: tc.FromStatus,
	})
	if err != nil {
		s.metrics.ObserveTransition(tc.FromStatus, tc.ToStatus, metrics.OutcomeFailed)
		if errors.Is(err, secondary.ErrStatusConflict) {
			return primary.ExecutionResult{Success: false, Error: MsgStatusConflict}
		}
		return primary.ExecutionResult{Success: false, Error: failureMessage(err)}
	}

	if err := s.runEffects(ctx, rest); err != nil {
		s.metrics.ObserveTransition(tc.FromStatus, tc.ToStatus, metrics.OutcomeFailed)
		return primary.ExecutionResult{Success: false, Error: "status updated but " + err.Error()}
	}

	auditID, err := s.audit.record(ctx, s.auditEntry(tc))
	if err != nil {
		// Status is already written; strict policy still reports the gap.
		s.metrics.ObserveTransition(tc.FromStatus, tc.ToStatus, metrics.OutcomeFailed)
		return primary.ExecutionResult{Success: false, Error: fmt.Sprintf("status updated but audit log write failed: %v", err)}
	}

	s.metrics.ObserveTransition(tc.FromStatus, tc.ToStatus, metrics.OutcomeSuccess)
	logging.WithActor(ctx, s.logger).WithFields(logrus.Fields{
		"church_id": tc.ChurchID,
		"from":      tc.FromStatus,
		"to":        tc.ToStatus,
	}).Info("church status changed")

	return primary.ExecutionResult{Success: true, AuditLogID: auditID}
}

// prepare validates the request and the transition. It returns a non-empty
// message when the transition must not run.
func (s *WorkflowServiceImpl) prepare(tc primary.TransitionContext) (church.TransitionContext, string) {
	if msg := validationMessage(tc); msg != "" {
		return church.TransitionContext{}, msg
	}

	coreCtx := toCoreContext(tc)
	if res := s.table.Validate(coreCtx); !res.Allowed {
		s.metrics.ObserveTransition(tc.FromStatus, tc.ToStatus, metrics.OutcomeRejected)
		return church.TransitionContext{}, res.Reason
	}
	return coreCtx, ""
}

func (s *WorkflowServiceImpl) hookEffects(coreCtx church.TransitionContext) []effects.Effect {
	tr, ok := s.table.Find(coreCtx.From, coreCtx.To)
	if !ok || tr.OnTransition == nil {
		return nil
	}
	return tr.OnTransition(coreCtx, s.now())
}

func (s *WorkflowServiceImpl) runEffects(ctx context.Context, effs []effects.Effect) error {
	if len(effs) == 0 {
		return nil
	}
	if err := s.executor.Execute(ctx, effs); err != nil {
		return fmt.Errorf("transition hook failed: %s", failureMessage(err))
	}
	return nil
}

// splitChurchFields pulls the payload updates aimed at churchID out of effs,
// flattening composites. The remaining effects keep their order.
func splitChurchFields(effs []effects.Effect, churchID string) (map[string]any, []effects.Effect) {
	var fields map[string]any
	var rest []effects.Effect

	var walk func([]effects.Effect)
	walk = func(list []effects.Effect) {
		for _, eff := range list {
			switch e := eff.(type) {
			case effects.CompositeEffect:
				walk(e.Effects)
			case effects.PersistEffect:
				if e.Entity != effects.EntityChurch || e.EntityID != churchID || e.Operation != effects.OpUpdateFields {
					rest = append(rest, eff)
					continue
				}
				if fields == nil {
					fields = make(map[string]any, len(e.Data))
				}
				for k, v := range e.Data {
					fields[k] = v
				}
			default:
				rest = append(rest, eff)
			}
		}
	}
	walk(effs)
	return fields, rest
}

func (s *WorkflowServiceImpl) auditEntry(tc primary.TransitionContext) *secondary.AuditLogRecord {
	diocese := tc.Diocese
	if diocese == "" {
		diocese = tc.Actor.Diocese
	}
	return &secondary.AuditLogRecord{
		ChurchID:    tc.ChurchID,
		Action:      ActionStatusChange,
		FromStatus:  tc.FromStatus,
		ToStatus:    tc.ToStatus,
		ChangedBy:   auditActor(tc.Actor),
		Note:        tc.Note,
		Metadata:    tc.Metadata,
		IsAutomated: tc.IsAutomated,
		Diocese:     diocese,
	}
}

// recoverInto converts a panic inside an operation into a failed result.
func (s *WorkflowServiceImpl) recoverInto(result *primary.ExecutionResult, churchID string) {
	if r := recover(); r != nil {
		s.logger.WithField("church_id", churchID).Errorf("transition panicked: %v", r)
		*result = primary.ExecutionResult{Success: false, Error: fmt.Sprintf("%s: %v", msgUnexpectedFailure, r)}
	}
}

func (s *WorkflowServiceImpl) transitionToPort(tr church.Transition) primary.Transition {
	roles := make([]string, len(tr.RequiredRoles))
	for i, r := range tr.RequiredRoles {
		roles[i] = string(r)
	}
	return primary.Transition{
		FromStatus:    string(tr.From),
		ToStatus:      string(tr.To),
		RequiredRoles: roles,
		Label:         tr.Label,
		RequiresNote:  tr.RequiresNote,
	}
}

func toCoreContext(tc primary.TransitionContext) church.TransitionContext {
	return church.TransitionContext{
		ChurchID:       tc.ChurchID,
		From:           church.Status(tc.FromStatus),
		To:             church.Status(tc.ToStatus),
		Role:           church.Role(tc.Actor.Role),
		Note:           tc.Note,
		Classification: church.Classification(tc.Classification),
	}
}

// Ensure WorkflowServiceImpl implements the interface
var _ primary.WorkflowService = (*WorkflowServiceImpl)(nil)
