package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/visita/churchflow/internal/core/effects"
	"github.com/visita/churchflow/internal/ports/secondary"
)

// mockChurchRepository implements secondary.ChurchRepository for testing.
// It mirrors the store semantics: conditional status writes and nil-deletes.
type mockChurchRepository struct {
	mu          sync.Mutex
	churches    map[string]*secondary.ChurchRecord
	nextID      int
	updateCalls int
	updateErr   error
	// afterGet runs after GetByID returns, to simulate a concurrent writer.
	afterGet func(m *mockChurchRepository)
}

func newMockChurchRepository() *mockChurchRepository {
	return &mockChurchRepository{
		churches: make(map[string]*secondary.ChurchRecord),
		nextID:   1,
	}
}

func (m *mockChurchRepository) seed(c *secondary.ChurchRecord) {
	if c.Fields == nil {
		c.Fields = map[string]any{}
	}
	c.HasPendingChanges = c.PendingChanges != nil
	m.churches[c.ID] = copyChurch(c)
}

func (m *mockChurchRepository) Create(ctx context.Context, church *secondary.ChurchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.churches[church.ID]; ok {
		return fmt.Errorf("church %s already exists", church.ID)
	}
	m.churches[church.ID] = copyChurch(church)
	return nil
}

func (m *mockChurchRepository) GetByID(ctx context.Context, id string) (*secondary.ChurchRecord, error) {
	m.mu.Lock()
	c, ok := m.churches[id]
	var out *secondary.ChurchRecord
	if ok {
		out = copyChurch(c)
	}
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", secondary.ErrChurchNotFound, id)
	}
	if m.afterGet != nil {
		hook := m.afterGet
		m.afterGet = nil
		hook(m)
	}
	return out, nil
}

func (m *mockChurchRepository) Update(ctx context.Context, id string, update secondary.ChurchUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}

	c, ok := m.churches[id]
	if !ok {
		return fmt.Errorf("%w: %s", secondary.ErrChurchNotFound, id)
	}
	if update.ExpectedStatus != "" && c.Status != update.ExpectedStatus {
		return secondary.ErrStatusConflict
	}

	if update.Status != "" {
		c.Status = update.Status
	}
	if update.Classification != "" {
		c.Classification = update.Classification
	}
	for k, v := range update.Fields {
		if v == nil {
			delete(c.Fields, k)
			continue
		}
		c.Fields[k] = v
	}
	if update.ClearPendingChanges {
		c.PendingChanges = nil
		c.HasPendingChanges = false
	}
	if update.PendingChanges != nil {
		p := *update.PendingChanges
		c.PendingChanges = &p
		c.HasPendingChanges = true
	}
	c.Version++
	return nil
}

func (m *mockChurchRepository) List(ctx context.Context, filters secondary.ChurchFilters) ([]*secondary.ChurchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*secondary.ChurchRecord
	for _, c := range m.churches {
		if filters.Status != "" && c.Status != filters.Status {
			continue
		}
		if filters.Diocese != "" && c.Diocese != filters.Diocese {
			continue
		}
		if filters.Classification != "" && c.Classification != filters.Classification {
			continue
		}
		if filters.HasPendingChanges != nil && c.HasPendingChanges != *filters.HasPendingChanges {
			continue
		}
		result = append(result, copyChurch(c))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	if filters.Limit > 0 && len(result) > filters.Limit {
		result = result[:filters.Limit]
	}
	return result, nil
}

func (m *mockChurchRepository) GetNextID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	return fmt.Sprintf("CH-%04d", id), nil
}

func (m *mockChurchRepository) get(id string) *secondary.ChurchRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyChurch(m.churches[id])
}

func copyChurch(c *secondary.ChurchRecord) *secondary.ChurchRecord {
	if c == nil {
		return nil
	}
	out := *c
	out.Fields = make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		out.Fields[k] = v
	}
	if c.PendingChanges != nil {
		p := *c.PendingChanges
		p.Data = make(map[string]any, len(c.PendingChanges.Data))
		for k, v := range c.PendingChanges.Data {
			p.Data[k] = v
		}
		p.ChangedFields = append([]string(nil), c.PendingChanges.ChangedFields...)
		out.PendingChanges = &p
	}
	return &out
}

// mockAuditLogRepository implements secondary.AuditLogRepository for testing.
type mockAuditLogRepository struct {
	mu        sync.Mutex
	entries   []*secondary.AuditLogRecord
	appendErr error
}

func newMockAuditLogRepository() *mockAuditLogRepository {
	return &mockAuditLogRepository{}
}

func (m *mockAuditLogRepository) Append(ctx context.Context, entry *secondary.AuditLogRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	if entry.ID == "" {
		entry.ID = fmt.Sprintf("AL-%04d", len(m.entries)+1)
	}
	e := *entry
	m.entries = append(m.entries, &e)
	return nil
}

func (m *mockAuditLogRepository) List(ctx context.Context, filters secondary.AuditLogFilters) ([]*secondary.AuditLogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*secondary.AuditLogRecord
	for _, e := range m.entries {
		if filters.ChurchID != "" && e.ChurchID != filters.ChurchID {
			continue
		}
		if filters.Action != "" && e.Action != filters.Action {
			continue
		}
		if filters.ActorUID != "" && e.ChangedBy.UID != filters.ActorUID {
			continue
		}
		result = append(result, e)
	}
	if filters.Limit > 0 && len(result) > filters.Limit {
		result = result[:filters.Limit]
	}
	return result, nil
}

func (m *mockAuditLogRepository) all() []*secondary.AuditLogRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*secondary.AuditLogRecord(nil), m.entries...)
}

// panicExecutor fails every hook with a panic.
type panicExecutor struct{}

func (panicExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	panic("executor exploded")
}

var errAuditStore = errors.New("audit store unavailable")

var (
	_ secondary.ChurchRepository   = (*mockChurchRepository)(nil)
	_ secondary.AuditLogRepository = (*mockAuditLogRepository)(nil)
)
