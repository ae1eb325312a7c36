package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ogurasousui/planner-assistant/internal/adapters/repository/memory"
	"github.com/ogurasousui/planner-assistant/internal/adapters/repository/postgres"
	"github.com/ogurasousui/planner-assistant/internal/core/assignment"
	"github.com/ogurasousui/planner-assistant/internal/core/assistant"
	"github.com/ogurasousui/planner-assistant/internal/core/conversation"
	"github.com/ogurasousui/planner-assistant/internal/core/employee"
	"github.com/ogurasousui/planner-assistant/internal/core/project"
	"github.com/ogurasousui/planner-assistant/internal/core/tool"
	"github.com/ogurasousui/planner-assistant/internal/platform/config"
	pg "github.com/ogurasousui/planner-assistant/internal/platform/db/postgres"
	"github.com/ogurasousui/planner-assistant/internal/platform/logger"
	"github.com/ogurasousui/planner-assistant/internal/platform/metrics"
	"github.com/ogurasousui/planner-assistant/internal/platform/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

type transactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
	LockEmployee(ctx context.Context, employeeID string) error
}

// storage は選択されたドライバのリポジトリ群です。
type storage struct {
	employees     employee.Repository
	projects      project.Repository
	assignments   assignment.Repository
	conversations conversation.Repository
	tx            transactionManager
	health        server.HealthCheck
	close         func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.SetupDefault(os.Stdout, cfg.Log.Level)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	employeeSvc := employee.NewService(store.employees, store.assignments, nil, store.tx)
	projectSvc := project.NewService(store.projects, store.assignments, nil, store.tx)
	assignmentSvc := assignment.NewService(store.assignments, store.employees, store.projects, store.tx, nil, store.tx)

	catalog, err := tool.NewCatalog(tool.Dependencies{
		Employees:   employeeSvc,
		Projects:    projectSvc,
		Assignments: assignmentSvc,
	})
	if err != nil {
		return fmt.Errorf("build tool catalog: %w", err)
	}

	orchestrator := assistant.New(assistant.Options{
		Registry:     catalog,
		Conversation: conversation.NewService(store.conversations, nil),
		Logger:       log,
		Metrics:      collector,
		TurnTimeout:  cfg.Assistant.TurnTimeout,
	})

	var opts []grpc.ServerOption
	if cfg.Assistant.RateLimit.PerSecond > 0 {
		limiter := server.NewRateLimiter(cfg.Assistant.RateLimit.PerSecond, cfg.Assistant.RateLimit.Burst, log, collector)
		opts = append(opts, grpc.ChainUnaryInterceptor(limiter.UnaryInterceptor()))
	}
	grpcServer := server.New(cfg.Server.ListenAddr, orchestrator, opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("gRPC server listening",
			slog.String("addr", cfg.Server.ListenAddr),
			slog.String("storage", cfg.Storage.Driver),
			slog.Int("tools", len(orchestrator.Tools())))
		return grpcServer.Run(gctx)
	})
	if cfg.Server.OpsListenAddr != "" {
		g.Go(func() error {
			log.Info("ops server listening", slog.String("addr", cfg.Server.OpsListenAddr))
			return server.RunOps(gctx, cfg.Server.OpsListenAddr, server.NewOpsRouter(metrics.Handler(registry), store.health))
		})
	}
	return g.Wait()
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		return &storage{
			employees:     memory.NewEmployeeRepository(store),
			projects:      memory.NewProjectRepository(store),
			assignments:   memory.NewAssignmentRepository(store),
			conversations: memory.NewConversationRepository(store),
			tx:            memory.NewTransactionManager(store),
			close:         func() {},
		}, nil
	default:
		pool, err := pg.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("initialize database pool: %w", err)
		}
		return postgresStorage(pool), nil
	}
}

func postgresStorage(pool *pgxpool.Pool) *storage {
	return &storage{
		employees:     postgres.NewEmployeeRepository(pool),
		projects:      postgres.NewProjectRepository(pool),
		assignments:   postgres.NewAssignmentRepository(pool),
		conversations: postgres.NewConversationRepository(pool),
		tx:            pg.NewTransactionManager(pool),
		health:        pool.Ping,
		close:         pool.Close,
	}
}
