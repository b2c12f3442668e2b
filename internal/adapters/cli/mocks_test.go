package cli

import (
	"context"

	"github.com/fatih/color"

	"github.com/visita/churchflow/internal/ports/primary"
)

func init() {
	color.NoColor = true
}

// mockChurchService implements primary.ChurchService for testing
type mockChurchService struct {
	createChurchFn func(ctx context.Context, req primary.CreateChurchRequest) (*primary.CreateChurchResponse, error)
	getChurchFn    func(ctx context.Context, churchID string) (*primary.Church, error)
	listChurchesFn func(ctx context.Context, filters primary.ChurchFilters) ([]*primary.Church, error)

	lastCreateReq primary.CreateChurchRequest
	lastFilters   primary.ChurchFilters
}

func (m *mockChurchService) CreateChurch(ctx context.Context, req primary.CreateChurchRequest) (*primary.CreateChurchResponse, error) {
	m.lastCreateReq = req
	if m.createChurchFn != nil {
		return m.createChurchFn(ctx, req)
	}
	return &primary.CreateChurchResponse{
		ChurchID: "CH-0001",
		Church:   &primary.Church{ID: "CH-0001", Name: req.Name, Status: "pending"},
	}, nil
}

func (m *mockChurchService) GetChurch(ctx context.Context, churchID string) (*primary.Church, error) {
	if m.getChurchFn != nil {
		return m.getChurchFn(ctx, churchID)
	}
	return &primary.Church{ID: churchID, Name: "Test Church", Status: "pending"}, nil
}

func (m *mockChurchService) ListChurches(ctx context.Context, filters primary.ChurchFilters) ([]*primary.Church, error) {
	m.lastFilters = filters
	if m.listChurchesFn != nil {
		return m.listChurchesFn(ctx, filters)
	}
	return []*primary.Church{}, nil
}

// mockStagedUpdateService implements primary.StagedUpdateService for testing
type mockStagedUpdateService struct {
	submitResult  primary.SubmitUpdateResult
	applyResult   primary.OperationResult
	forwardResult primary.OperationResult

	lastSubmitReq  primary.SubmitUpdateRequest
	lastApplyReq   primary.ApplyPendingChangesRequest
	lastForwardReq primary.ForwardPendingChangesRequest
}

func (m *mockStagedUpdateService) CategorizeChanges(original, updated map[string]any) primary.ChangeSet {
	return primary.ChangeSet{}
}

func (m *mockStagedUpdateService) SubmitUpdate(ctx context.Context, req primary.SubmitUpdateRequest) primary.SubmitUpdateResult {
	m.lastSubmitReq = req
	return m.submitResult
}

func (m *mockStagedUpdateService) ApplyPendingChanges(ctx context.Context, req primary.ApplyPendingChangesRequest) primary.OperationResult {
	m.lastApplyReq = req
	return m.applyResult
}

func (m *mockStagedUpdateService) ForwardPendingChangesToMuseum(ctx context.Context, req primary.ForwardPendingChangesRequest) primary.OperationResult {
	m.lastForwardReq = req
	return m.forwardResult
}

// mockWorkflowService implements primary.WorkflowService for testing
type mockWorkflowService struct {
	transitions []primary.Transition
	actions     []primary.ActionDescriptor
	result      primary.ExecutionResult

	lastRequest primary.TransitionRequest
}

func (m *mockWorkflowService) GetValidTransitions(status, role string) []primary.Transition {
	return m.transitions
}

func (m *mockWorkflowService) IsTransitionValid(tc primary.TransitionContext) primary.ValidationResult {
	return primary.ValidationResult{Valid: true}
}

func (m *mockWorkflowService) ExecuteTransition(ctx context.Context, tc primary.TransitionContext) primary.ExecutionResult {
	return m.result
}

func (m *mockWorkflowService) GetNextActions(churchID, status, role string) []primary.ActionDescriptor {
	return m.actions
}

func (m *mockWorkflowService) TransitionChurch(ctx context.Context, req primary.TransitionRequest) primary.ExecutionResult {
	m.lastRequest = req
	return m.result
}

// mockAuditService implements primary.AuditService for testing
type mockAuditService struct {
	entries []*primary.AuditLogEntry
	err     error
}

func (m *mockAuditService) ListAuditLogs(ctx context.Context, filters primary.AuditLogFilters) ([]*primary.AuditLogEntry, error) {
	return m.entries, m.err
}

var (
	_ primary.ChurchService       = (*mockChurchService)(nil)
	_ primary.StagedUpdateService = (*mockStagedUpdateService)(nil)
	_ primary.WorkflowService     = (*mockWorkflowService)(nil)
	_ primary.AuditService        = (*mockAuditService)(nil)
)
