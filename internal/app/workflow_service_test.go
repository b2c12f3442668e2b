package app

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visita/churchflow/internal/ctxutil"
	"github.com/visita/churchflow/internal/metrics"
	"github.com/visita/churchflow/internal/ports/primary"
	"github.com/visita/churchflow/internal/ports/secondary"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

var (
	chancery = primary.Actor{UID: "u-chancery", Email: "chancery@diocese.ph", Name: "Chancery", Role: "chancery_office", Diocese: "tagbilaran"}
	museum   = primary.Actor{UID: "u-museum", Email: "museum@nm.gov.ph", Name: "Museum", Role: "museum_researcher"}
	parish   = primary.Actor{UID: "u-parish", Email: "parish@baclayon.ph", Name: "Parish", Role: "parish", Diocese: "tagbilaran"}
	visitor  = primary.Actor{UID: "u-public", Role: "public_user"}
)

type workflowFixture struct {
	service   *WorkflowServiceImpl
	churches  *mockChurchRepository
	audit     *mockAuditLogRepository
	metrics   *metrics.Metrics
	churchIDs []string
}

func newWorkflowFixture(t *testing.T, policy AuditPolicy) *workflowFixture {
	t.Helper()
	churches := newMockChurchRepository()
	audit := newMockAuditLogRepository()
	m := metrics.New(prometheus.NewRegistry())
	opts := Options{AuditPolicy: policy, Metrics: m, Now: func() time.Time { return fixedNow }}
	svc := NewWorkflowService(churches, audit, NewEffectExecutor(churches, nil), opts)
	return &workflowFixture{service: svc, churches: churches, audit: audit, metrics: m}
}

func (f *workflowFixture) seedChurch(id, status, classification string) {
	f.churches.seed(&secondary.ChurchRecord{
		ID:             id,
		Status:         status,
		Classification: classification,
		Diocese:        "tagbilaran",
		Fields:         map[string]any{"name": "Baclayon Church"},
	})
}

func TestGetValidTransitions(t *testing.T) {
	f := newWorkflowFixture(t, AuditBestEffort)

	tests := []struct {
		name   string
		status string
		role   string
		want   []string
	}{
		{"chancery from pending", "pending", "chancery_office", []string{"approved", "heritage_review"}},
		{"parish from pending", "pending", "parish", []string{"pending"}},
		{"museum from heritage review", "heritage_review", "museum_researcher", []string{"approved"}},
		{"chancery from approved", "approved", "chancery_office", []string{"heritage_review"}},
		{"public user has none", "pending", "public_user", nil},
		{"unknown status has none", "archived", "chancery_office", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.service.GetValidTransitions(tt.status, tt.role)
			var targets []string
			for _, tr := range got {
				assert.Equal(t, tt.status, tr.FromStatus)
				assert.Contains(t, tr.RequiredRoles, tt.role)
				targets = append(targets, tr.ToStatus)
			}
			assert.Equal(t, tt.want, targets)
		})
	}
}

func TestIsTransitionValid(t *testing.T) {
	f := newWorkflowFixture(t, AuditBestEffort)

	tests := []struct {
		name       string
		tc         primary.TransitionContext
		wantValid  bool
		wantReason string
	}{
		{
			name:      "chancery approves non-heritage church",
			tc:        primary.TransitionContext{ChurchID: "CH-0001", FromStatus: "pending", ToStatus: "approved", Actor: chancery, Classification: "non_heritage"},
			wantValid: true,
		},
		{
			name:       "chancery cannot approve ICP church directly",
			tc:         primary.TransitionContext{ChurchID: "CH-0001", FromStatus: "pending", ToStatus: "approved", Actor: chancery, Classification: "ICP"},
			wantReason: "Church CH-0001 is classified ICP and must pass heritage review before approval",
		},
		{
			name:       "museum cannot approve pending church",
			tc:         primary.TransitionContext{ChurchID: "CH-0001", FromStatus: "pending", ToStatus: "approved", Actor: museum},
			wantReason: "Role museum_researcher is not authorized to move a church from pending to approved",
		},
		{
			name:       "no path from heritage review back to pending",
			tc:         primary.TransitionContext{ChurchID: "CH-0001", FromStatus: "heritage_review", ToStatus: "pending", Actor: chancery},
			wantReason: "No transition from heritage_review to pending",
		},
		{
			name:       "reopening approved church needs a note",
			tc:         primary.TransitionContext{ChurchID: "CH-0001", FromStatus: "approved", ToStatus: "heritage_review", Actor: chancery, Note: "   "},
			wantReason: "A note is required to move church CH-0001 from approved to heritage_review",
		},
		{
			name:      "reopening approved church with a note",
			tc:        primary.TransitionContext{ChurchID: "CH-0001", FromStatus: "approved", ToStatus: "heritage_review", Actor: chancery, Note: "retable repainted"},
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.service.IsTransitionValid(tt.tc)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.Equal(t, tt.wantReason, got.Reason)
		})
	}
}

func TestGetNextActions(t *testing.T) {
	f := newWorkflowFixture(t, AuditBestEffort)

	actions := f.service.GetNextActions("CH-0001", "approved", "chancery_office")
	require.Len(t, actions, 1)
	assert.Equal(t, "CH-0001", actions[0].ChurchID)
	assert.Equal(t, "heritage_review", actions[0].TargetStatus)
	assert.True(t, actions[0].RequiresNote)

	assert.Empty(t, f.service.GetNextActions("CH-0001", "approved", "parish"))
}

func TestExecuteTransition_Success(t *testing.T) {
	f := newWorkflowFixture(t, AuditBestEffort)
	f.seedChurch("CH-0001", "pending", "ICP")

	result := f.service.ExecuteTransition(context.Background(), primary.TransitionContext{
		ChurchID:   "CH-0001",
		FromStatus: "pending",
		ToStatus:   "heritage_review",
		Actor:      chancery,
		Note:       "ICP listed",
	})

	require.True(t, result.Success, result.Error)
	assert.NotEmpty(t, result.AuditLogID)

	entries := f.audit.all()
	require.Len(t, entries, 1)
	assert.Equal(t, ActionStatusChange, entries[0].Action)
	assert.Equal(t, "pending", entries[0].FromStatus)
	assert.Equal(t, "heritage_review", entries[0].ToStatus)
	assert.Equal(t, "u-chancery", entries[0].ChangedBy.UID)
	assert.Equal(t, "ICP listed", entries[0].Note)
	assert.Equal(t, "tagbilaran", entries[0].Diocese)
	assert.Equal(t, fixedNow.Format(secondary.AuditTimestampLayout), entries[0].Timestamp)

	church := f.churches.get("CH-0001")
	assert.Equal(t, "pending", church.Status, "ExecuteTransition leaves the status write to the caller")
	assert.Equal(t, fixedNow.Format(time.RFC3339), church.Fields["heritageReviewRequestedAt"])

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("pending", "heritage_review", metrics.OutcomeSuccess)))
}

func TestExecuteTransition_Rejected(t *testing.T) {
	f := newWorkflowFixture(t, AuditBestEffort)
	f.seedChurch("CH-0001", "pending", "")

	result := f.service.ExecuteTransition(context.Background(), primary.TransitionContext{
		ChurchID:   "CH-0001",
		FromStatus: "pending",
		ToStatus:   "approved",
		Actor:      parish,
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not authorized")
	assert.Empty(t, f.audit.all())
	assert.Equal(t, 0, f.churches.updateCalls)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("pending", "approved", metrics.OutcomeRejected)))
}

func TestExecuteTransition_UsesStoredClassification(t *testing.T) {
	f := newWorkflowFixture(t, AuditBestEffort)
	f.seedChurch("CH-0001", "pending", "ICP")

	result := f.service.ExecuteTransition(context.Background(), primary.TransitionContext{
		ChurchID:   "CH-0001",
		FromStatus: "pending",
		ToStatus:   "approved",
		Actor:      chancery,
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "must pass heritage review")
	assert.Empty(t, f.audit.all())
	assert.Equal(t, 0, f.churches.updateCalls)
	assert.NotContains(t, f.churches.get("CH-0001").Fields, "approvedAt")
}

func TestExecuteTransition_CallerClassificationWins(t *testing.T) {
	f := newWorkflowFixture(t, AuditBestEffort)
	f.seedChurch("CH-0001", "pending", "non_heritage")

	result := f.service.ExecuteTransition(context.Background(), primary.TransitionContext{
		ChurchID:       "CH-0001",
		FromStatus:     "pending",
		ToStatus:       "approved",
		Actor:          chancery,
		Classification: "NCT",
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "classified NCT")
}

func TestExecuteTransition_ChurchNotStored(t *testing.T) {
	f := newWorkflowFixture(t, AuditBestEffort)

	result := f.service.ExecuteTransition(context.Background(), primary.TransitionContext{
		ChurchID:   "CH-0999",
		FromStatus: "pending",
		ToStatus:   "heritage_review",
		Actor:      chancery,
	})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, 0, f.churches.updateCalls)
	entries := f.audit.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "CH-0999", entries[0].ChurchID)
	assert.Equal(t, "heritage_review", entries[0].ToStatus)
	assert.Equal(t, "tagbilaran", entries[0].Diocese, "falls back to the actor's diocese")
}

func TestExecuteTransition_InvalidRequest(t *testing.T) {
	f := newWorkflowFixture(t, AuditBestEffort)

	result := f.service.ExecuteTransition(context.Background(), primary.TransitionContext{
		ChurchID:   "CH-0001",
		FromStatus: "pending",
		ToStatus:   "approved",
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Invalid request")
	assert.Contains(t, result.Error, "Actor.UID is required")
	assert.Empty(t, f.audit.all())
}

func TestExecuteTransition_ActorFromContext(t *testing.T) {
	f := newWorkflowFixture(t, AuditBestEffort)
	ctx := ctxutil.WithActor(context.Background(), ctxutil.Actor{UID: "u-ctx", Role: "parish"})

	result := f.service.ExecuteTransition(ctx, primary.TransitionContext{
		ChurchID:   "CH-0009",
		FromStatus: "pending",
		ToStatus:   "pending",
	})

	require.True(t, result.Success, result.Error)
	entries := f.audit.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "u-ctx", entries[0].ChangedBy.UID)
	assert.Equal(t, "parish", entries[0].ChangedBy.Role)
}

func TestExecuteTransition_AuditPolicy(t *testing.T) {
	tests := []struct {
		name        string
		policy      AuditPolicy
		wantSuccess bool
	}{
		{"best effort swallows audit failure", AuditBestEffort, true},
		{"strict surfaces audit failure", AuditStrict, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWorkflowFixture(t, tt.policy)
			f.seedChurch("CH-0001", "pending", "")
			f.audit.appendErr = errAuditStore

			result := f.service.ExecuteTransition(context.Background(), primary.TransitionContext{
				ChurchID:   "CH-0001",
				FromStatus: "pending",
				ToStatus:   "approved",
				Actor:      chancery,
			})

			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Empty(t, result.AuditLogID)
			if !tt.wantSuccess {
				assert.Contains(t, result.Error, "audit store unavailable")
			}
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AuditWrites.WithLabelValues(ActionStatusChange, metrics.OutcomeFailed)))
		})
	}
}

func TestExecuteTransition_RecoversPanic(t *testing.T) {
	churches := newMockChurchRepository()
	churches.seed(&secondary.ChurchRecord{ID: "CH-0001", Status: "pending", Fields: map[string]any{}})
	audit := newMockAuditLogRepository()
	svc := NewWorkflowService(churches, audit, panicExecutor{}, Options{})

	result := svc.ExecuteTransition(context.Background(), primary.TransitionContext{
		ChurchID:   "CH-0001",
		FromStatus: "pending",
		ToStatus:   "approved",
		Actor:      chancery,
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unexpected error")
	assert.Contains(t, result.Error, "executor exploded")
	assert.Empty(t, audit.all())
}

func TestTransitionChurch_HeritageChurchGoesThroughMuseum(t *testing.T) {
	f := newWorkflowFixture(t, AuditBestEffort)
	f.seedChurch("CH-0001", "pending", "ICP")
	ctx := context.Background()

	direct := f.service.TransitionChurch(ctx, primary.TransitionRequest{ChurchID: "CH-0001", ToStatus: "approved", Actor: chancery})
	assert.False(t, direct.Success)
	assert.Contains(t, direct.Error, "must pass heritage review")
	assert.Equal(t, "pending", f.churches.get("CH-0001").Status)

	toReview := f.service.TransitionChurch(ctx, primary.TransitionRequest{ChurchID: "CH-0001", ToStatus: "heritage_review", Actor: chancery})
	require.True(t, toReview.Success, toReview.Error)
	assert.Equal(t, "heritage_review", f.churches.get("CH-0001").Status)

	approved := f.service.TransitionChurch(ctx, primary.TransitionRequest{ChurchID: "CH-0001", ToStatus: "approved", Actor: museum})
	require.True(t, approved.Success, approved.Error)

	church := f.churches.get("CH-0001")
	assert.Equal(t, "approved", church.Status)
	assert.Equal(t, fixedNow.Format(time.RFC3339), church.Fields["approvedAt"])
	assert.Equal(t, fixedNow.Format(time.RFC3339), church.Fields["heritageReviewRequestedAt"])
	assert.Equal(t, 2, f.churches.updateCalls, "one write per transition")

	entries := f.audit.all()
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"pending", "heritage_review"}, []string{entries[0].FromStatus, entries[0].ToStatus})
	assert.Equal(t, []string{"heritage_review", "approved"}, []string{entries[1].FromStatus, entries[1].ToStatus})
	assert.Equal(t, "u-museum", entries[1].ChangedBy.UID)
	assert.Equal(t, toReview.AuditLogID, entries[0].ID)
	assert.Equal(t, approved.AuditLogID, entries[1].ID)
}

func TestTransitionChurch_NotFound(t *testing.T) {
	f := newWorkflowFixture(t, AuditBestEffort)

	result := f.service.TransitionChurch(context.Background(), primary.TransitionRequest{ChurchID: "CH-0404", ToStatus: "approved", Actor: chancery})

	assert.False(t, result.Success)
	assert.Equal(t, MsgChurchNotFound, result.Error)
	assert.Empty(t, f.audit.all())
}

func TestTransitionChurch_StatusConflict(t *testing.T) {
	f := newWorkflowFixture(t, AuditBestEffort)
	f.seedChurch("CH-0001", "pending", "non_heritage")
	f.churches.afterGet = func(m *mockChurchRepository) {
		m.churches["CH-0001"].Status = "heritage_review"
	}

	result := f.service.TransitionChurch(context.Background(), primary.TransitionRequest{ChurchID: "CH-0001", ToStatus: "approved", Actor: chancery})

	assert.False(t, result.Success)
	assert.Equal(t, MsgStatusConflict, result.Error)
	church := f.churches.get("CH-0001")
	assert.Equal(t, "heritage_review", church.Status)
	assert.NotContains(t, church.Fields, "approvedAt", "hook stamps share the conditional write")
	assert.Equal(t, 0, church.Version)
	assert.Empty(t, f.audit.all())
}

func TestTransitionChurch_StrictAuditFailureAfterWrite(t *testing.T) {
	f := newWorkflowFixture(t, AuditStrict)
	f.seedChurch("CH-0001", "pending", "")
	f.audit.appendErr = errAuditStore

	result := f.service.TransitionChurch(context.Background(), primary.TransitionRequest{ChurchID: "CH-0001", ToStatus: "approved", Actor: chancery})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "status updated but audit log write failed")
	assert.Equal(t, "approved", f.churches.get("CH-0001").Status)
}
