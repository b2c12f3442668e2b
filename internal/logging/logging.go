// Package logging builds the structured logger shared by services.
package logging

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/visita/churchflow/internal/ctxutil"
)

// New creates a logrus logger writing to out with the given level and format.
// format is "text" or "json".
func New(level, format string, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)

	switch format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	return logger, nil
}

// Nop returns an entry that discards everything below panic level.
func Nop() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

// WithActor annotates entry with the actor carried by ctx, if any.
func WithActor(ctx context.Context, entry *logrus.Entry) *logrus.Entry {
	actor, ok := ctxutil.ActorFromContext(ctx)
	if !ok {
		return entry.WithContext(ctx)
	}
	return entry.WithContext(ctx).WithFields(logrus.Fields{
		"actor_uid":  actor.UID,
		"actor_role": actor.Role,
	})
}
