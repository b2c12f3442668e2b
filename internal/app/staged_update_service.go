package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wI2L/jsondiff"

	"github.com/visita/churchflow/internal/core/changes"
	"github.com/visita/churchflow/internal/core/church"
	"github.com/visita/churchflow/internal/logging"
	"github.com/visita/churchflow/internal/ports/primary"
	"github.com/visita/churchflow/internal/ports/secondary"
)

// StagedUpdateServiceImpl implements the StagedUpdateService interface.
type StagedUpdateServiceImpl struct {
	churchRepo secondary.ChurchRepository
	audit      *auditTrail
	logger     *logrus.Entry
	now        func() time.Time
}

// NewStagedUpdateService creates a new StagedUpdateService with injected dependencies.
func NewStagedUpdateService(
	churchRepo secondary.ChurchRepository,
	auditRepo secondary.AuditLogRepository,
	opts Options,
) *StagedUpdateServiceImpl {
	opts = opts.withDefaults()
	return &StagedUpdateServiceImpl{
		churchRepo: churchRepo,
		audit:      newAuditTrail(auditRepo, opts),
		logger:     opts.Logger.WithField("component", "staged_update"),
		now:        opts.Now,
	}
}

// CategorizeChanges splits an edit into review-required and direct-publish fields.
func (s *StagedUpdateServiceImpl) CategorizeChanges(original, updated map[string]any) primary.ChangeSet {
	cs := changes.CategorizeChanges(original, updated)
	return primary.ChangeSet{
		HasSensitiveChanges:  cs.HasSensitiveChanges,
		SensitiveChanges:     cs.SensitiveChanges,
		SensitiveFields:      cs.SensitiveFields,
		DirectPublishChanges: cs.DirectPublishChanges,
		DirectPublishFields:  cs.DirectPublishFields,
	}
}

// SubmitUpdate applies a content edit. Edits to approved churches publish
// operational fields immediately and stage sensitive fields; edits to churches
// that are not yet public are written directly.
func (s *StagedUpdateServiceImpl) SubmitUpdate(ctx context.Context, req primary.SubmitUpdateRequest) (result primary.SubmitUpdateResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("church_id", req.ChurchID).Errorf("submit update panicked: %v", r)
			result = primary.SubmitUpdateResult{Success: false, Error: fmt.Sprintf("%s: %v", msgUnexpectedFailure, r)}
		}
	}()

	req.Actor = resolveActor(ctx, req.Actor)
	if msg := validationMessage(req); msg != "" {
		return primary.SubmitUpdateResult{Success: false, Error: msg}
	}

	record, err := s.getChurch(ctx, req.ChurchID)
	if err != nil {
		return primary.SubmitUpdateResult{Success: false, Error: failureMessage(err)}
	}

	guard := church.CanSubmitUpdate(church.SubmitUpdateContext{
		ChurchID:     req.ChurchID,
		Role:         church.Role(req.Actor.Role),
		ChurchExists: record != nil,
	})
	if !guard.Allowed {
		return primary.SubmitUpdateResult{Success: false, Error: guard.Reason}
	}

	cs := changes.CategorizeChanges(canonicalView(record), req.Data)
	if cs.IsEmpty() {
		return primary.SubmitUpdateResult{Success: true, PublishedFields: []string{}, StagedFields: []string{}}
	}

	if !church.Status(record.Status).IsPublic() {
		all := make(map[string]any, len(cs.SensitiveChanges)+len(cs.DirectPublishChanges))
		for k, v := range cs.SensitiveChanges {
			all[k] = v
		}
		for k, v := range cs.DirectPublishChanges {
			all[k] = v
		}
		if err := s.churchRepo.Update(ctx, record.ID, planToUpdate(changes.PlanMerge(all))); err != nil {
			return primary.SubmitUpdateResult{Success: false, Error: failureMessage(err)}
		}
		return primary.SubmitUpdateResult{Success: true, PublishedFields: changes.ChangedFields(all), StagedFields: []string{}}
	}

	update := planToUpdate(changes.PlanMerge(cs.DirectPublishChanges))
	if cs.HasSensitiveChanges {
		var existingData map[string]any
		var existingFields []string
		if record.PendingChanges != nil {
			existingData = record.PendingChanges.Data
			existingFields = record.PendingChanges.ChangedFields
		}
		data, fields := changes.MergeStaged(existingData, existingFields, cs.SensitiveChanges)
		// A new edit invalidates any earlier forward to the museum.
		update.PendingChanges = &secondary.PendingChangesRecord{
			Data:          data,
			ChangedFields: fields,
			SubmittedBy:   req.Actor.UID,
			SubmittedAt:   s.now().UTC().Format(time.RFC3339),
		}
	}

	if err := s.churchRepo.Update(ctx, record.ID, update); err != nil {
		return primary.SubmitUpdateResult{Success: false, Error: failureMessage(err)}
	}

	if cs.HasSensitiveChanges {
		_, err := s.audit.record(ctx, &secondary.AuditLogRecord{
			ChurchID:   record.ID,
			Action:     ActionSubmitUpdate,
			FromStatus: record.Status,
			ToStatus:   record.Status,
			ChangedBy:  auditActor(req.Actor),
			Metadata: map[string]any{
				"stagedFields":    cs.SensitiveFields,
				"publishedFields": cs.DirectPublishFields,
			},
			Diocese: record.Diocese,
		})
		if err != nil {
			return primary.SubmitUpdateResult{Success: false, Error: fmt.Sprintf("failed to write audit log: %v", err)}
		}
	}

	logging.WithActor(ctx, s.logger).WithFields(logrus.Fields{
		"church_id":        record.ID,
		"staged_fields":    cs.SensitiveFields,
		"published_fields": cs.DirectPublishFields,
	}).Info("church update submitted")

	return primary.SubmitUpdateResult{
		Success:         true,
		PublishedFields: cs.DirectPublishFields,
		StagedFields:    cs.SensitiveFields,
	}
}

// ApplyPendingChanges merges a staged edit (or the reviewer's corrected
// version of it) into the canonical record and clears the staging area.
func (s *StagedUpdateServiceImpl) ApplyPendingChanges(ctx context.Context, req primary.ApplyPendingChangesRequest) (result primary.OperationResult) {
	defer s.recoverInto(&result, req.ChurchID)

	req.Actor = resolveActor(ctx, req.Actor)
	if msg := validationMessage(req); msg != "" {
		return primary.OperationResult{Success: false, Error: msg}
	}

	record, err := s.getChurch(ctx, req.ChurchID)
	if err != nil {
		return primary.OperationResult{Success: false, Error: failureMessage(err)}
	}

	guard := church.CanApplyPendingChanges(church.ApplyContext{
		ChurchID:          req.ChurchID,
		ChurchExists:      record != nil,
		HasPendingChanges: record != nil && record.HasPendingChanges && record.PendingChanges != nil,
	})
	if !guard.Allowed {
		return primary.OperationResult{Success: false, Error: guard.Reason}
	}

	pending := record.PendingChanges
	data := pending.Data
	wasEdited := req.EditedData != nil
	if wasEdited {
		data = req.EditedData
	}

	plan := changes.PlanMerge(data)
	update := planToUpdate(plan)
	update.ClearPendingChanges = true

	toStatus := record.Status
	if church.Status(record.Status) == church.StatusHeritageReview {
		// legacy records were unpublished while their edit was reviewed
		toStatus = string(church.StatusApproved)
		update.Status = toStatus
		update.ExpectedStatus = record.Status
	}

	diff := fieldDiff(record.Fields, applyFields(record.Fields, plan.Fields))

	if err := s.churchRepo.Update(ctx, record.ID, update); err != nil {
		return primary.OperationResult{Success: false, Error: failureMessage(err)}
	}

	_, err = s.audit.record(ctx, &secondary.AuditLogRecord{
		ChurchID:   record.ID,
		Action:     ActionApplyPendingChanges,
		FromStatus: record.Status,
		ToStatus:   toStatus,
		ChangedBy:  auditActor(req.Actor),
		Note:       req.Note,
		Metadata: map[string]any{
			"changedFields":     changes.ChangedFields(data),
			"originalSubmitter": pending.SubmittedBy,
			"wasEdited":         wasEdited,
			"isAutomated":       req.IsAutomated,
			"diff":              diff,
		},
		IsAutomated: req.IsAutomated,
		Diocese:     record.Diocese,
	})
	if err != nil {
		return primary.OperationResult{Success: false, Error: fmt.Sprintf("failed to write audit log: %v", err)}
	}

	logging.WithActor(ctx, s.logger).WithFields(logrus.Fields{
		"church_id":  record.ID,
		"was_edited": wasEdited,
	}).Info("pending changes applied")

	return primary.OperationResult{Success: true}
}

// ForwardPendingChangesToMuseum flags a staged edit for heritage sign-off. The
// church keeps its status and stays public.
func (s *StagedUpdateServiceImpl) ForwardPendingChangesToMuseum(ctx context.Context, req primary.ForwardPendingChangesRequest) (result primary.OperationResult) {
	defer s.recoverInto(&result, req.ChurchID)

	req.Actor = resolveActor(ctx, req.Actor)
	if church.Role(req.Actor.Role) != church.RoleChanceryOffice {
		return primary.OperationResult{Success: false, Error: MsgUnauthorizedFwd}
	}
	if msg := validationMessage(req); msg != "" {
		return primary.OperationResult{Success: false, Error: msg}
	}

	record, err := s.getChurch(ctx, req.ChurchID)
	if err != nil {
		return primary.OperationResult{Success: false, Error: failureMessage(err)}
	}

	guard := church.CanForwardPendingChanges(church.ForwardContext{
		ChurchID:          req.ChurchID,
		Role:              church.Role(req.Actor.Role),
		ChurchExists:      record != nil,
		HasPendingChanges: record != nil && record.HasPendingChanges && record.PendingChanges != nil,
	})
	if !guard.Allowed {
		return primary.OperationResult{Success: false, Error: guard.Reason}
	}

	forwarded := *record.PendingChanges
	forwarded.ForwardedToMuseum = true
	forwarded.ForwardedAt = s.now().UTC().Format(time.RFC3339)
	forwarded.ForwardedBy = req.Actor.UID

	if err := s.churchRepo.Update(ctx, record.ID, secondary.ChurchUpdate{PendingChanges: &forwarded}); err != nil {
		return primary.OperationResult{Success: false, Error: failureMessage(err)}
	}

	_, err = s.audit.record(ctx, &secondary.AuditLogRecord{
		ChurchID:   record.ID,
		Action:     ActionForwardPendingToMuseum,
		FromStatus: record.Status,
		ToStatus:   record.Status,
		ChangedBy:  auditActor(req.Actor),
		Note:       req.Note,
		Metadata: map[string]any{
			"changedFields":     forwarded.ChangedFields,
			"originalSubmitter": forwarded.SubmittedBy,
		},
		Diocese: record.Diocese,
	})
	if err != nil {
		return primary.OperationResult{Success: false, Error: fmt.Sprintf("failed to write audit log: %v", err)}
	}

	logging.WithActor(ctx, s.logger).WithField("church_id", record.ID).Info("pending changes forwarded to museum")
	return primary.OperationResult{Success: true}
}

// getChurch returns (nil, nil) when the church does not exist.
func (s *StagedUpdateServiceImpl) getChurch(ctx context.Context, id string) (*secondary.ChurchRecord, error) {
	record, err := s.churchRepo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func (s *StagedUpdateServiceImpl) recoverInto(result *primary.OperationResult, churchID string) {
	if r := recover(); r != nil {
		s.logger.WithField("church_id", churchID).Errorf("staged update panicked: %v", r)
		*result = primary.OperationResult{Success: false, Error: fmt.Sprintf("%s: %v", msgUnexpectedFailure, r)}
	}
}

// canonicalView is the record as an edit sees it: payload plus classification.
func canonicalView(record *secondary.ChurchRecord) map[string]any {
	view := make(map[string]any, len(record.Fields)+1)
	for k, v := range record.Fields {
		view[k] = v
	}
	view["classification"] = record.Classification
	return view
}

func planToUpdate(plan changes.MergePlan) secondary.ChurchUpdate {
	update := secondary.ChurchUpdate{Fields: plan.Fields}
	if plan.HasClassification {
		update.Classification = plan.Classification
	}
	return update
}

// applyFields returns a copy of base with patch merged in; nil values delete keys.
func applyFields(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// fieldDiff renders the change between two payloads as JSON Patch operations.
func fieldDiff(before, after map[string]any) []any {
	if before == nil {
		before = map[string]any{}
	}
	patch, err := jsondiff.Compare(before, after)
	if err != nil {
		return nil
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil
	}
	var ops []any
	if err := json.Unmarshal(raw, &ops); err != nil {
		return nil
	}
	return ops
}

// Ensure StagedUpdateServiceImpl implements the interface
var _ primary.StagedUpdateService = (*StagedUpdateServiceImpl)(nil)
