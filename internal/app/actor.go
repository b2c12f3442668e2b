package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/visita/churchflow/internal/ctxutil"
	"github.com/visita/churchflow/internal/ports/primary"
	"github.com/visita/churchflow/internal/ports/secondary"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validationMessage returns a human-readable message for invalid requests, or "".
func validationMessage(req any) string {
	err := validate.Struct(req)
	if err == nil {
		return ""
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Namespace()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", fe.Namespace(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Namespace(), fe.Tag()))
		}
	}
	return "Invalid request: " + strings.Join(parts, "; ")
}

// resolveActor fills an empty actor from the identity carried on ctx.
func resolveActor(ctx context.Context, actor primary.Actor) primary.Actor {
	if actor.UID != "" {
		return actor
	}
	if a, ok := ctxutil.ActorFromContext(ctx); ok {
		return primary.Actor{
			UID:     a.UID,
			Email:   a.Email,
			Name:    a.Name,
			Role:    a.Role,
			Diocese: a.Diocese,
		}
	}
	return actor
}

func auditActor(a primary.Actor) secondary.AuditActor {
	return secondary.AuditActor{
		UID:   a.UID,
		Email: a.Email,
		Name:  a.Name,
		Role:  a.Role,
	}
}

// failureMessage converts a store error into the caller-facing message.
func failureMessage(err error) string {
	if errors.Is(err, secondary.ErrChurchNotFound) {
		return MsgChurchNotFound
	}
	return err.Error()
}

func isNotFound(err error) bool {
	return errors.Is(err, secondary.ErrChurchNotFound)
}

// Caller-facing failure messages.
const (
	MsgChurchNotFound    = "Church not found"
	MsgNoPendingToApply  = "No pending changes to apply"
	MsgStatusConflict    = "Church status changed since it was read; reload and retry"
	MsgUnauthorizedFwd   = "Unauthorized: only chancery office can forward pending changes"
	MsgNoPendingToFwd    = "No pending changes to forward"
	msgUnexpectedFailure = "unexpected error"
)
