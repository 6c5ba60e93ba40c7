package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/YelzhanWeb/hookah/internal/adapter/logger"
	"github.com/YelzhanWeb/hookah/internal/adapter/memory"
	"github.com/YelzhanWeb/hookah/internal/adapter/postgres"
	"github.com/YelzhanWeb/hookah/internal/adapter/rabbitmq"
	redisstore "github.com/YelzhanWeb/hookah/internal/adapter/redis"
	"github.com/YelzhanWeb/hookah/internal/adapter/sqlite"
	"github.com/YelzhanWeb/hookah/internal/app/dispatch"
	"github.com/YelzhanWeb/hookah/internal/app/session"
	"github.com/YelzhanWeb/hookah/internal/app/tracking"
	"github.com/YelzhanWeb/hookah/internal/audit"
	"github.com/YelzhanWeb/hookah/internal/config"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
	"github.com/YelzhanWeb/hookah/internal/lifecycle"

	amqpAdapter "github.com/YelzhanWeb/hookah/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/hookah/internal/adapter/http"
)

func main() {
	mode := flag.String("mode", "", "Service mode: session-service, dispatch-worker, notification-subscriber")
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	port := flag.Int("port", 0, "HTTP port, overrides server.port")
	workerName := flag.String("worker-name", "", "Worker name (for dispatch-worker)")
	prefetch := flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	seed := flag.Int("seed", 0, "Demo sessions to generate on startup (session-service)")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lgr := logger.New(*mode, logger.Options{Level: cfg.Log.Level})

	switch *mode {
	case "session-service":
		infra := connect(ctx, cfg, lgr, cfg.UsesPostgres())
		defer infra.close()
		runSessionService(ctx, cfg, infra, lgr, *seed)

	case "dispatch-worker":
		if *workerName == "" {
			log.Fatal("--worker-name is required for dispatch-worker mode")
		}
		if !cfg.SharedStore() || !cfg.RabbitMQ.Enabled {
			log.Fatal("dispatch-worker needs store.driver postgres or redis and rabbitmq.enabled=true")
		}
		infra := connect(ctx, cfg, lgr, cfg.UsesPostgres())
		defer infra.close()
		runDispatchWorker(ctx, cfg, infra, lgr, *workerName, *prefetch)

	case "notification-subscriber":
		cfg.RabbitMQ.Enabled = true
		infra := connect(ctx, cfg, lgr, false)
		defer infra.close()
		runNotificationSubscriber(ctx, infra, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

// infra holds the optional external connections. A nil field means the
// component is not configured.
type infra struct {
	db     postgres.DB
	mq     rabbitmq.Connection
	redis  *goredis.Client
	sqlite *sqlite.AuditRepository
}

func connect(ctx context.Context, cfg *config.Config, lgr logger.Logger, needDB bool) *infra {
	in := &infra{}

	if needDB {
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatalf("Failed to migrate PostgreSQL: %v", err)
		}
		in.db = db

		lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host": cfg.Database.Host,
			"db":   cfg.Database.Database,
		})
	}

	if cfg.Store.Driver == "redis" {
		client, err := redisstore.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		in.redis = client

		lgr.Info("redis_connected", "Connected to Redis", "startup", map[string]interface{}{
			"addr": cfg.Redis.Addr,
			"db":   cfg.Redis.DB,
		})
	}

	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		in.mq = mqConn

		lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
			"host": cfg.RabbitMQ.Host,
		})
	}

	return in
}

func (in *infra) close() {
	if in.sqlite != nil {
		in.sqlite.Close()
	}
	if in.mq != nil {
		in.mq.Close()
	}
	if in.redis != nil {
		in.redis.Close()
	}
	if in.db != nil {
		in.db.Close()
	}
}

type components struct {
	sessions  *session.Service
	tracking  *tracking.Service
	log       *audit.Log
	publisher interfaces.MessagePublisher
}

// build wires repositories, audit sinks and services for the configured
// drivers.
func build(ctx context.Context, cfg *config.Config, in *infra, lgr logger.Logger) *components {
	var (
		sessionRepo interfaces.SessionRepository
		staffRepo   interfaces.StaffRepository
		history     interfaces.AuditRepository
		publisher   interfaces.MessagePublisher
	)

	switch cfg.Store.Driver {
	case "postgres":
		if err := postgres.SeedStaff(ctx, in.db, memory.DemoStaff()); err != nil {
			log.Fatalf("Failed to seed staff: %v", err)
		}
		sessionRepo = postgres.NewSessionRepository(in.db)
		staffRepo = postgres.NewStaffRepository(in.db)
	case "redis":
		sessionRepo = redisstore.NewSessionRepository(in.redis, cfg.Redis.KeyPrefix)
		staffRepo = memory.NewStaffRepository(memory.DemoStaff()...)
	default:
		sessionRepo = memory.NewSessionRepository()
		staffRepo = memory.NewStaffRepository(memory.DemoStaff()...)
	}

	auditLog := audit.NewLog(cfg.Audit.Capacity)
	sinks := []audit.Sink{auditLog}

	switch cfg.Audit.Driver {
	case "postgres":
		history = postgres.NewAuditRepository(in.db)
	case "sqlite":
		repo, err := sqlite.NewAuditRepository(cfg.Audit.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to open SQLite audit store: %v", err)
		}
		in.sqlite = repo
		history = repo
	}
	if history != nil {
		sinks = append(sinks, history)
	}

	if in.mq != nil {
		publisher = rabbitmq.NewPublisher(in.mq)
		sinks = append(sinks, rabbitmq.NewAuditSink(publisher))
	}

	recorder := audit.NewRecorder(lgr, sinks...)
	sessionService := session.NewService(sessionRepo, staffRepo, lifecycle.NewEngine(), recorder, publisher, lgr)
	trackingService := tracking.NewService(sessionRepo, staffRepo, auditLog, history, lgr)

	return &components{
		sessions:  sessionService,
		tracking:  trackingService,
		log:       auditLog,
		publisher: publisher,
	}
}

func runSessionService(ctx context.Context, cfg *config.Config, in *infra, lgr logger.Logger, seed int) {
	c := build(ctx, cfg, in, lgr)

	if seed > 0 {
		if _, err := c.sessions.Seed(ctx, seed, false); err != nil {
			log.Fatalf("Failed to seed sessions: %v", err)
		}
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Sessions:  httpAdapter.NewSessionHandler(c.sessions, c.publisher, lgr),
		Tracking:  httpAdapter.NewTrackingHandler(c.tracking, c.log, lgr),
		Logger:    lgr,
		RateLimit: cfg.Server.RateLimit,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("Session Service started on port %d", cfg.Server.Port), "startup", map[string]interface{}{
		"port":         cfg.Server.Port,
		"store":        cfg.Store.Driver,
		"audit":        cfg.Audit.Driver,
		"notify":       c.publisher != nil,
		"rate_per_min": cfg.Server.RateLimit,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		lgr.Info("shutdown_initiated", "Shutting down Session Service", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}

func runDispatchWorker(ctx context.Context, cfg *config.Config, in *infra, lgr logger.Logger, workerName string, prefetch int) {
	c := build(ctx, cfg, in, lgr)

	consumer := rabbitmq.NewConsumer(in.mq, prefetch, lgr)
	dispatchService := dispatch.NewService(c.sessions, lgr, workerName)
	actionHandler := amqpAdapter.NewActionHandler(dispatchService, lgr)

	lgr.Info("service_started", fmt.Sprintf("Dispatch Worker %s started", workerName), "startup", map[string]interface{}{
		"worker_name": workerName,
		"prefetch":    prefetch,
	})

	if err := consumer.ConsumeActions(ctx, actionHandler.HandleAction); err != nil && ctx.Err() == nil {
		lgr.Error("consumer_error", "Error consuming actions", "runtime", nil, err)
	}

	lgr.Info("graceful_shutdown", "Shutting down Dispatch Worker", "shutdown", nil)
}

func runNotificationSubscriber(ctx context.Context, in *infra, lgr logger.Logger) {
	consumer := rabbitmq.NewConsumer(in.mq, 1, lgr)
	notificationHandler := amqpAdapter.NewNotificationHandler(lgr, os.Stdout)

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	if err := consumer.ConsumeNotifications(ctx, notificationHandler.HandleNotification); err != nil && ctx.Err() == nil {
		lgr.Error("consumer_error", "Error consuming notifications", "runtime", nil, err)
	}

	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
}
