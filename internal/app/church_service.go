package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/visita/churchflow/internal/core/church"
	"github.com/visita/churchflow/internal/logging"
	"github.com/visita/churchflow/internal/ports/primary"
	"github.com/visita/churchflow/internal/ports/secondary"
)

// ChurchServiceImpl implements the ChurchService interface.
type ChurchServiceImpl struct {
	churchRepo secondary.ChurchRepository
	audit      *auditTrail
	logger     *logrus.Entry
	now        func() time.Time
}

// NewChurchService creates a new ChurchService with injected dependencies.
func NewChurchService(
	churchRepo secondary.ChurchRepository,
	auditRepo secondary.AuditLogRepository,
	opts Options,
) *ChurchServiceImpl {
	opts = opts.withDefaults()
	return &ChurchServiceImpl{
		churchRepo: churchRepo,
		audit:      newAuditTrail(auditRepo, opts),
		logger:     opts.Logger.WithField("component", "church"),
		now:        opts.Now,
	}
}

// CreateChurch registers a new church in the initial workflow status.
func (s *ChurchServiceImpl) CreateChurch(ctx context.Context, req primary.CreateChurchRequest) (*primary.CreateChurchResponse, error) {
	req.Actor = resolveActor(ctx, req.Actor)
	if msg := validationMessage(req); msg != "" {
		return nil, errors.New(msg)
	}

	guard := church.CanCreateChurch(church.CreateContext{Role: church.Role(req.Actor.Role)})
	if err := guard.Error(); err != nil {
		return nil, err
	}

	classification := church.Classification(req.Classification)
	if classification == "" {
		classification = church.ClassificationUnknown
	}

	diocese := req.Diocese
	if diocese == "" {
		diocese = req.Actor.Diocese
	}

	id, err := s.churchRepo.GetNextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate church ID: %w", err)
	}

	fields := make(map[string]any, len(req.Fields)+1)
	for k, v := range req.Fields {
		if k == "classification" {
			continue
		}
		fields[k] = v
	}
	fields["name"] = req.Name

	record := &secondary.ChurchRecord{
		ID:             id,
		Status:         string(church.InitialStatus()),
		Classification: string(classification),
		Diocese:        diocese,
		Fields:         fields,
	}
	if err := s.churchRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create church: %w", err)
	}

	_, err = s.audit.record(ctx, &secondary.AuditLogRecord{
		ChurchID:  id,
		Action:    ActionCreate,
		ToStatus:  record.Status,
		ChangedBy: auditActor(req.Actor),
		Diocese:   diocese,
	})
	if err != nil {
		return nil, fmt.Errorf("church %s created but audit log write failed: %w", id, err)
	}

	logging.WithActor(ctx, s.logger).WithField("church_id", id).Info("church created")

	created, err := s.churchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload church: %w", err)
	}
	return &primary.CreateChurchResponse{
		ChurchID: id,
		Church:   recordToChurch(created),
	}, nil
}

// GetChurch retrieves a church by ID.
func (s *ChurchServiceImpl) GetChurch(ctx context.Context, churchID string) (*primary.Church, error) {
	record, err := s.churchRepo.GetByID(ctx, churchID)
	if err != nil {
		return nil, err
	}
	return recordToChurch(record), nil
}

// ListChurches lists churches with optional filters.
func (s *ChurchServiceImpl) ListChurches(ctx context.Context, filters primary.ChurchFilters) ([]*primary.Church, error) {
	repoFilters := secondary.ChurchFilters{
		Status:         filters.Status,
		Diocese:        filters.Diocese,
		Classification: filters.Classification,
		Limit:          filters.Limit,
	}
	if filters.OnlyPendingEdits {
		pending := true
		repoFilters.HasPendingChanges = &pending
	}

	records, err := s.churchRepo.List(ctx, repoFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to list churches: %w", err)
	}

	churches := make([]*primary.Church, len(records))
	for i, r := range records {
		churches[i] = recordToChurch(r)
	}
	return churches, nil
}

func recordToChurch(r *secondary.ChurchRecord) *primary.Church {
	c := &primary.Church{
		ID:                r.ID,
		Name:              r.Name(),
		Status:            r.Status,
		Classification:    r.Classification,
		Diocese:           r.Diocese,
		Fields:            r.Fields,
		HasPendingChanges: r.HasPendingChanges,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if p := r.PendingChanges; p != nil {
		c.PendingChanges = &primary.PendingChanges{
			Data:              p.Data,
			ChangedFields:     p.ChangedFields,
			SubmittedBy:       p.SubmittedBy,
			SubmittedAt:       p.SubmittedAt,
			ForwardedToMuseum: p.ForwardedToMuseum,
			ForwardedAt:       p.ForwardedAt,
			ForwardedBy:       p.ForwardedBy,
		}
	}
	return c
}

// Ensure ChurchServiceImpl implements the interface
var _ primary.ChurchService = (*ChurchServiceImpl)(nil)
