// Package wire provides dependency injection for the VISITA application.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	cliadapter "github.com/visita/churchflow/internal/adapters/cli"
	"github.com/visita/churchflow/internal/adapters/sqlite"
	"github.com/visita/churchflow/internal/app"
	"github.com/visita/churchflow/internal/config"
	"github.com/visita/churchflow/internal/db"
	"github.com/visita/churchflow/internal/logging"
	"github.com/visita/churchflow/internal/metrics"
	"github.com/visita/churchflow/internal/ports/primary"
)

// Services groups the primary ports and the infrastructure behind them.
type Services struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Registry *prometheus.Registry
	DB       *sql.DB

	Churches primary.ChurchService
	Workflow primary.WorkflowService
	Staged   primary.StagedUpdateService
	Audit    primary.AuditService
}

var (
	services *Services
	once     sync.Once
)

// Build wires every service against the database named in cfg.
// Logs go to logOut.
func Build(cfg *config.Config, logOut io.Writer) (*Services, error) {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, logOut)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	registry := prometheus.NewRegistry()
	policy := app.AuditBestEffort
	if cfg.IsStrictAudit() {
		policy = app.AuditStrict
	}
	opts := app.Options{
		AuditPolicy: policy,
		Logger:      logrus.NewEntry(logger),
		Metrics:     metrics.New(registry),
	}

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	churchRepo := sqlite.NewChurchRepository(database)
	auditRepo := sqlite.NewAuditLogRepository(database)

	// Create effect executor with injected repositories
	executor := app.NewEffectExecutor(churchRepo, opts.Logger.WithField("component", "effects"))

	return &Services{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		DB:       database,
		Churches: app.NewChurchService(churchRepo, auditRepo, opts),
		Workflow: app.NewWorkflowService(churchRepo, auditRepo, executor, opts),
		Staged:   app.NewStagedUpdateService(churchRepo, auditRepo, opts),
		Audit:    app.NewAuditService(auditRepo),
	}, nil
}

// initServices loads configuration from the working directory and builds the
// singleton services. This is called once via sync.Once.
func initServices() {
	dir, err := os.Getwd()
	if err != nil {
		logrus.Fatalf("failed to get working directory: %v", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	services, err = Build(cfg, os.Stderr)
	if err != nil {
		logrus.Fatalf("failed to initialize services: %v", err)
	}
}

// Get returns the singleton services.
func Get() *Services {
	once.Do(initServices)
	return services
}

// ChurchAdapter returns a new ChurchAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func ChurchAdapter() *cliadapter.ChurchAdapter {
	return ChurchAdapterWithOutput(os.Stdout)
}

// ChurchAdapterWithOutput returns a new ChurchAdapter writing to the given output.
func ChurchAdapterWithOutput(out io.Writer) *cliadapter.ChurchAdapter {
	s := Get()
	return cliadapter.NewChurchAdapter(s.Churches, s.Staged, out)
}

// WorkflowAdapter returns a new WorkflowAdapter writing to stdout.
func WorkflowAdapter() *cliadapter.WorkflowAdapter {
	return WorkflowAdapterWithOutput(os.Stdout)
}

// WorkflowAdapterWithOutput returns a new WorkflowAdapter writing to the given output.
func WorkflowAdapterWithOutput(out io.Writer) *cliadapter.WorkflowAdapter {
	s := Get()
	return cliadapter.NewWorkflowAdapter(s.Workflow, s.Churches, s.Audit, out)
}
