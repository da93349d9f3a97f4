package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	admissionmetrics "careflow/internal/admission/metrics"
	admissionservice "careflow/internal/admission/service"
	alertmetrics "careflow/internal/alerts/metrics"
	"careflow/internal/alerts/notify"
	alertservice "careflow/internal/alerts/service"
	checkinservice "careflow/internal/checkin/service"
	clinicalhandler "careflow/internal/clinical/handler"
	"careflow/internal/events"
	eventmetrics "careflow/internal/events/metrics"
	jwttoken "careflow/internal/jwt_token"
	opshandler "careflow/internal/ops/handler"
	ordermetrics "careflow/internal/orders/metrics"
	orderservice "careflow/internal/orders/service"
	"careflow/internal/platform/config"
	"careflow/internal/platform/httpserver"
	"careflow/internal/platform/kafka"
	"careflow/internal/platform/logger"
	"careflow/internal/platform/metrics"
	"careflow/internal/platform/postgres"
	"careflow/internal/platform/redis"
	ratelimitmetrics "careflow/internal/ratelimit/metrics"
	ratelimitmw "careflow/internal/ratelimit/middleware"
	ratelimitmodels "careflow/internal/ratelimit/models"
	ratelimitservice "careflow/internal/ratelimit/service"
	"careflow/internal/ratelimit/store/bucket"
	referralservice "careflow/internal/referrals/service"
	riskmetrics "careflow/internal/risk/metrics"
	"careflow/internal/risk/scoring"
	riskservice "careflow/internal/risk/service"
	"careflow/internal/workflow/engine"
	workflowmetrics "careflow/internal/workflow/metrics"
	"careflow/internal/workflow/rules"
	"careflow/pkg/platform/audit/publishers/compliance"
	"careflow/pkg/platform/circuit"
)

const tokenAudience = "careflow-api"

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// run wires every module, serves HTTP, and drives the periodic engine pass until ctx
// is cancelled.
func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(reg)

	var healthChecks []opshandler.Option

	st := memoryStores()
	if cfg.UsesPostgres() {
		db, err := openDatabase(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		st = postgresStores(db)
		healthChecks = append(healthChecks, opshandler.WithHealthCheck("database", db.PingContext))
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_URL not set; all state is held in memory")
	}

	var redisClient *redis.Client
	if cfg.UsesRedis() {
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		redisClient = client
		healthChecks = append(healthChecks, opshandler.WithHealthCheck("redis", client.Health))
	}

	notifier, closeNotifier, notifierChecks, err := buildNotifier(ctx, cfg, redisClient, log)
	if err != nil {
		return err
	}
	defer closeNotifier()
	healthChecks = append(healthChecks, notifierChecks...)

	auditor := compliance.New(st.audit,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics(reg)),
	)

	eventLog, err := events.New(st.events,
		events.WithLogger(log),
		events.WithMetrics(eventmetrics.New(reg)),
	)
	if err != nil {
		return err
	}

	scorer, err := scoring.NewEngine(scoring.Config{
		CutPoints: scoring.CutPoints{
			Medium:   cfg.Risk.CutPoints[0],
			High:     cfg.Risk.CutPoints[1],
			Critical: cfg.Risk.CutPoints[2],
		},
		TopK: cfg.Risk.TopK,
	})
	if err != nil {
		return fmt.Errorf("risk scoring: %w", err)
	}
	riskService, err := riskservice.New(st.risk, eventLog, st.transactor,
		riskservice.WithLogger(log),
		riskservice.WithMetrics(riskmetrics.New(reg)),
		riskservice.WithEngine(scorer),
	)
	if err != nil {
		return err
	}
	checkinService, err := checkinservice.New(st.checkins, eventLog, st.transactor,
		checkinservice.WithLogger(log),
		checkinservice.WithRiskAssessor(riskService),
	)
	if err != nil {
		return err
	}
	admissionService, err := admissionservice.New(st.admissions, eventLog, st.transactor,
		admissionservice.WithLogger(log),
		admissionservice.WithMetrics(admissionmetrics.New(reg)),
		admissionservice.WithAuditor(auditor),
	)
	if err != nil {
		return err
	}
	orderService, err := orderservice.New(st.orders, eventLog, st.transactor,
		orderservice.WithLogger(log),
		orderservice.WithMetrics(ordermetrics.New(reg)),
		orderservice.WithAuditor(auditor),
	)
	if err != nil {
		return err
	}
	alertService, err := alertservice.New(st.alerts,
		alertservice.WithLogger(log),
		alertservice.WithMetrics(alertmetrics.New(reg)),
		alertservice.WithNotifier(notifier),
		alertservice.WithNotifyTimeout(cfg.Notify.Timeout),
	)
	if err != nil {
		return err
	}
	referralService, err := referralservice.New(st.referrals, eventLog, st.transactor,
		referralservice.WithLogger(log),
	)
	if err != nil {
		return err
	}
	ruleService, err := rules.New(st.rules, st.transactor,
		rules.WithLogger(log),
		rules.WithAuditor(auditor),
	)
	if err != nil {
		return err
	}
	if cfg.Workflow.SeedRules {
		seeded, err := ruleService.SeedDefaults(ctx)
		if err != nil {
			return fmt.Errorf("seed default rules: %w", err)
		}
		if seeded > 0 {
			log.Info("seeded default rules", "count", seeded)
		}
	}
	ruleEngine, err := engine.New(eventLog, ruleService, alertService, referralService, st.transactor,
		engine.WithLogger(log),
		engine.WithMetrics(workflowmetrics.New(reg)),
	)
	if err != nil {
		return err
	}

	jwtValidator := jwttoken.NewJWTServiceAdapter(
		jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, tokenAudience),
	)

	limits, err := buildRateLimits(cfg, redisClient, reg, log)
	if err != nil {
		return err
	}
	readLimit := limits.RateLimitAuthenticated(ratelimitmodels.ClassRead)
	writeLimit := limits.RateLimitAuthenticated(ratelimitmodels.ClassWrite)

	router := chi.NewRouter()
	opsOpts := append([]opshandler.Option{
		opshandler.WithGatherer(reg),
		opshandler.WithMetrics(httpMetrics),
		opshandler.WithDefaultBatchLimit(cfg.Workflow.BatchLimit),
		opshandler.WithAuditLog(st.audit),
		opshandler.WithEventRelease(eventLog),
		opshandler.WithRateLimits(limits.RateLimit(ratelimitmodels.ClassPublic), readLimit, writeLimit),
	}, healthChecks...)
	opshandler.New(ruleEngine, eventLog, ruleService, riskService, alertService, jwtValidator, log, opsOpts...).
		Register(router)
	clinicalhandler.New(riskService, checkinService, admissionService, orderService, jwtValidator, log,
		clinicalhandler.WithMetrics(httpMetrics),
		clinicalhandler.WithRateLimits(readLimit, writeLimit),
	).Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting careflow", "addr", cfg.Server.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Workflow.ProcessInterval > 0 {
		g.Go(func() error {
			processPeriodically(gctx, ruleEngine, cfg.Workflow.ProcessInterval, cfg.Workflow.BatchLimit, log)
			return nil
		})
	}
	return g.Wait()
}

func openDatabase(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	db, err := postgres.Open(ctx, postgres.Config{
		URL:             cfg.URL,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

// buildRateLimits returns the HTTP limiter. Counters live in redis when replicas
// must share them.
func buildRateLimits(cfg *config.Config, redisClient *redis.Client, reg prometheus.Registerer, log *slog.Logger) (*ratelimitmw.Middleware, error) {
	if !cfg.RateLimit.Enabled {
		return ratelimitmw.New(nil, log, ratelimitmw.WithDisabled(true)), nil
	}
	var buckets ratelimitservice.BucketStore = bucket.NewInMemoryBucketStore()
	if cfg.RateLimit.Backend == config.RateLimitRedis {
		buckets = bucket.NewRedisBucketStore(redisClient.Client, "")
	}
	limiter, err := ratelimitservice.New(buckets, map[ratelimitmodels.EndpointClass]ratelimitmodels.Limit{
		ratelimitmodels.ClassPublic: {Requests: cfg.RateLimit.PublicPerMinute, Window: time.Minute},
		ratelimitmodels.ClassRead:   {Requests: cfg.RateLimit.ReadPerMinute, Window: time.Minute},
		ratelimitmodels.ClassWrite:  {Requests: cfg.RateLimit.WritePerMinute, Window: time.Minute},
	},
		ratelimitservice.WithLogger(log),
		ratelimitservice.WithMetrics(ratelimitmetrics.New(reg)),
	)
	if err != nil {
		return nil, fmt.Errorf("rate limits: %w", err)
	}
	return ratelimitmw.New(limiter, log), nil
}

// buildNotifier picks the alert notification sink. Remote sinks sit behind a circuit
// breaker that falls back to the log sink.
func buildNotifier(ctx context.Context, cfg *config.Config, redisClient *redis.Client, log *slog.Logger) (notify.Notifier, func(), []opshandler.Option, error) {
	fallback := notify.NewLogNotifier(log)
	breaker := func(name string) *circuit.Breaker {
		return circuit.New(name,
			circuit.WithFailureThreshold(cfg.Notify.BreakerFailures),
			circuit.WithCooldown(cfg.Notify.BreakerCooldown),
		)
	}

	switch cfg.Notify.Sink {
	case config.NotifierRedis:
		primary := notify.NewRedisStreamNotifier(redisClient.Client, cfg.Notify.Stream, cfg.Notify.StreamMaxLen)
		log.Info("publishing notifications to redis stream", "stream", cfg.Notify.Stream)
		return notify.NewBreakerNotifier(primary, fallback, breaker("notify-redis"), log), func() {}, nil, nil
	case config.NotifierKafka:
		client, err := kafka.New(ctx, cfg.Kafka)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := notify.EnsureTopic(ctx, client.Client, cfg.Notify.Topic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			client.Close()
			return nil, nil, nil, err
		}
		primary := notify.NewKafkaNotifier(client.Client, cfg.Notify.Topic)
		log.Info("publishing notifications to kafka", "topic", cfg.Notify.Topic)
		return notify.NewBreakerNotifier(primary, fallback, breaker("notify-kafka"), log),
			client.Close,
			[]opshandler.Option{opshandler.WithHealthCheck("kafka", client.Health)},
			nil
	default:
		return fallback, func() {}, nil, nil
	}
}

// processPeriodically runs one bounded engine pass per tick. A failed pass is logged
// and retried on the next tick.
func processPeriodically(ctx context.Context, e *engine.Engine, interval time.Duration, batchLimit int, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := e.ProcessPending(ctx, batchLimit)
			if err != nil {
				log.ErrorContext(ctx, "event processing pass failed", "error", err)
				continue
			}
			if result.Processed+result.Failed > 0 {
				log.InfoContext(ctx, "event processing pass",
					"processed", result.Processed,
					"failed", result.Failed,
					"rule_set_version", result.RuleSetVersion,
				)
			}
		}
	}
}
