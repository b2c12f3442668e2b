// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/visita/churchflow/internal/core/effects"
	"github.com/visita/churchflow/internal/logging"
	"github.com/visita/churchflow/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place transition hooks touch I/O.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor implements EffectExecutor against the church store.
type DefaultEffectExecutor struct {
	churchRepo secondary.ChurchRepository
	logger     *logrus.Entry
}

// NewEffectExecutor creates a new DefaultEffectExecutor.
func NewEffectExecutor(churchRepo secondary.ChurchRepository, logger *logrus.Entry) *DefaultEffectExecutor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &DefaultEffectExecutor{
		churchRepo: churchRepo,
		logger:     logger,
	}
}

// Execute processes a slice of effects, executing each in sequence.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			return fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
	}
	return nil
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.PersistEffect:
		return e.executePersist(ctx, typed)
	case effects.CompositeEffect:
		return e.Execute(ctx, typed.Effects)
	case effects.NoEffect:
		return nil
	case effects.LogEffect:
		e.executeLog(ctx, typed)
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) executePersist(ctx context.Context, eff effects.PersistEffect) error {
	if eff.Entity != effects.EntityChurch {
		return fmt.Errorf("unknown entity: %s", eff.Entity)
	}
	switch eff.Operation {
	case effects.OpUpdateFields:
		return e.churchRepo.Update(ctx, eff.EntityID, secondary.ChurchUpdate{Fields: eff.Data})
	default:
		return fmt.Errorf("unknown church operation: %s", eff.Operation)
	}
}

func (e *DefaultEffectExecutor) executeLog(ctx context.Context, eff effects.LogEffect) {
	entry := logging.WithActor(ctx, e.logger).WithFields(logrus.Fields(eff.Fields))
	level, err := logrus.ParseLevel(eff.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	entry.Log(level, eff.Message)
}
