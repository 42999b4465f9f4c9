package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"vetting/internal/blob"
	jwttoken "vetting/internal/jwt_token"
	"vetting/internal/platform/config"
	"vetting/internal/platform/httpserver"
	"vetting/internal/platform/kafka"
	"vetting/internal/platform/logger"
	"vetting/internal/platform/metrics"
	"vetting/internal/platform/redis"
	progresscache "vetting/internal/progress/cache"
	progresshandler "vetting/internal/progress/handler"
	progressmetrics "vetting/internal/progress/metrics"
	"vetting/internal/progress/refresher"
	progressservice "vetting/internal/progress/service"
	ratelimitmetrics "vetting/internal/ratelimit/metrics"
	ratelimitmw "vetting/internal/ratelimit/middleware"
	ratelimitmodels "vetting/internal/ratelimit/models"
	"vetting/internal/ratelimit/store/bucket"
	sectionhandler "vetting/internal/sections/handler"
	sectionservice "vetting/internal/sections/service"
	userservice "vetting/internal/users/service"
	userstore "vetting/internal/users/store"
	"vetting/internal/verification/events"
	verificationhandler "vetting/internal/verification/handler"
	verificationmetrics "vetting/internal/verification/metrics"
	verificationservice "vetting/internal/verification/service"
	wizardhandler "vetting/internal/wizard/handler"
	"vetting/pkg/platform/audit/publisher"
	"vetting/pkg/platform/circuit"
	"vetting/pkg/platform/httputil"
	adminmw "vetting/pkg/platform/middleware/admin"
	authmw "vetting/pkg/platform/middleware/auth"
	"vetting/pkg/platform/middleware/metadata"
	request "vetting/pkg/platform/middleware/request"
	"vetting/pkg/platform/middleware/requesttime"
)

const auditBufferSize = 1024

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// run wires the services, serves HTTP and blocks until a shutdown signal.
func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close database", "error", err)
		}
	}()
	if cfg.SeedUsers {
		if err := userstore.Seed(ctx, store.users, time.Now()); err != nil {
			return err
		}
	}

	auditPublisher := publisher.NewPublisher(store.audit,
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithLogger(log),
	)
	defer auditPublisher.Close()

	blobs, err := newBlobStore(ctx, cfg.Blob, log)
	if err != nil {
		return err
	}

	users := userservice.New(store.users)
	sections := sectionservice.New(store.sections, blobs,
		sectionservice.WithKeyPrefix(cfg.Blob.KeyPrefix),
		sectionservice.WithLogger(log),
		sectionservice.WithAuditPublisher(auditPublisher),
	)

	progressOpts := []progressservice.Option{
		progressservice.WithLocation(cfg.Stats.Timezone),
		progressservice.WithLogger(log),
		progressservice.WithMetrics(progressmetrics.New()),
		progressservice.WithAuditPublisher(auditPublisher),
	}
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		progressOpts = append(progressOpts, progressservice.WithCache(progresscache.NewRedis(redisClient.Client), cfg.Stats.CacheTTL))
		log.Info("stats cache enabled", "ttl", cfg.Stats.CacheTTL)
	}
	progress := progressservice.New(store.records, store.records, sections, users, progressOpts...)

	verificationOpts := []verificationservice.Option{
		verificationservice.WithLogger(log),
		verificationservice.WithAuditPublisher(auditPublisher),
		verificationservice.WithMetrics(verificationmetrics.New()),
		verificationservice.WithTracer(otel.Tracer("vetting/verification")),
		verificationservice.WithStatsInvalidator(progress),
	}
	producer, err := newProducer(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	if producer != nil {
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := producer.Close(closeCtx); err != nil {
				log.Warn("failed to flush kafka producer", "error", err)
			}
		}()
		verificationOpts = append(verificationOpts, verificationservice.WithEventPublisher(
			events.NewPublisher(producer,
				events.WithLogger(log),
				events.WithBreaker(circuit.New("verification-events")),
			),
		))
	}
	verification := verificationservice.New(store.tx, store.records, store.auditLog, users, verificationOpts...)

	var buckets ratelimitmw.BucketStore = bucket.NewInMemoryBucketStore()
	if redisClient != nil {
		buckets = bucket.NewRedisBucketStore(redisClient.Client)
	}
	limiter := ratelimitmw.New(buckets, log,
		ratelimitmw.WithDisabled(cfg.RateLimit.Disabled),
		ratelimitmw.WithMetrics(ratelimitmetrics.New()),
	)

	statsRefresher, err := refresher.New(progress, cfg.Stats.RefreshSchedule,
		refresher.WithLogger(log),
		refresher.WithLocation(cfg.Stats.Timezone),
	)
	if err != nil {
		return err
	}
	statsRefresher.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		statsRefresher.Stop(stopCtx)
	}()

	var checks []healthCheck
	if store.db != nil {
		checks = append(checks, healthCheck{name: "postgres", check: store.db.PingContext})
	}
	if redisClient != nil {
		checks = append(checks, healthCheck{name: "redis", check: redisClient.Health})
	}

	jwtValidator := jwttoken.NewJWTServiceAdapter(jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer))
	router := newRouter(cfg, log, jwtValidator, limiter, routes{
		sections:     sectionhandler.New(sections, users, log),
		verification: verificationhandler.New(verification, log),
		progress:     progresshandler.New(progress, log),
		wizard: wizardhandler.New(sections, verification, users, log,
			wizardhandler.WithAutosaveDelay(cfg.AutosaveDelay),
		),
		checks: checks,
	})

	srv := httpserver.New(cfg.Addr, router, httpserver.WithRequestTimeout(cfg.RequestTimeout))
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting vetting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type routes struct {
	sections     *sectionhandler.Handler
	verification *verificationhandler.Handler
	progress     *progresshandler.Handler
	wizard       *wizardhandler.Handler
	checks       []healthCheck
}

type healthCheck struct {
	name  string
	check func(context.Context) error
}

type healthResponse struct {
	Status  string   `json:"status"`
	Failing []string `json:"failing,omitempty"`
}

const healthCheckTimeout = 2 * time.Second

// healthz reports 503 naming every backend that does not answer.
func healthz(checks []healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		var failing []string
		for _, c := range checks {
			if err := c.check(ctx); err != nil {
				failing = append(failing, c.name)
			}
		}
		if len(failing) > 0 {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Failing: failing})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

func newRouter(cfg config.Server, log *slog.Logger, validator authmw.JWTValidator, limiter *ratelimitmw.Middleware, h routes) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(log))
	r.Use(metrics.New().Middleware)

	r.Get("/healthz", healthz(h.checks))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(cfg.RequestTimeout))
		r.Use(authmw.RequireAuth(validator, log))
		r.Use(limiter.RateLimitBy(classifyRequest))

		h.sections.Register(r)
		h.verification.Register(r)
		h.progress.Register(r)
		h.wizard.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(adminmw.RequireAdmin(log))
			h.verification.RegisterAdmin(r)
			h.progress.RegisterAdmin(r)
		})
	})
	return r
}

// classifyRequest budgets mutations and exports. Other reads are not limited.
func classifyRequest(r *http.Request) (ratelimitmodels.EndpointClass, bool) {
	path := r.URL.Path
	switch {
	case path == "/admin/verifications/export" || path == "/admin/verifications/bulk":
		return ratelimitmodels.ClassBulk, true
	case r.Method == http.MethodGet || r.Method == http.MethodHead:
		return "", false
	case strings.HasSuffix(path, "/upload"):
		return ratelimitmodels.ClassUpload, true
	case strings.HasPrefix(path, "/admin/"):
		return ratelimitmodels.ClassAdmin, true
	default:
		return ratelimitmodels.ClassWrite, true
	}
}

func newBlobStore(ctx context.Context, cfg config.BlobConfig, log *slog.Logger) (blob.Store, error) {
	if cfg.Bucket == "" {
		log.Info("no S3_BUCKET set, keeping document images in memory")
		return blob.NewMemoryStore(cfg.PublicBaseURL), nil
	}
	client, err := blob.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return blob.NewS3Store(client, cfg), nil
}

// newProducer returns nil when no brokers are configured.
func newProducer(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) (*kafka.Producer, error) {
	if len(cfg.Brokers) == 0 {
		log.Info("no KAFKA_BROKERS set, verification events disabled")
		return nil, nil
	}
	producer, err := kafka.NewProducer(cfg.Brokers, cfg.DecisionsTopic)
	if err != nil {
		return nil, err
	}
	if err := producer.EnsureTopic(ctx, cfg.Partitions, cfg.ReplicationFactor); err != nil {
		_ = producer.Close(ctx)
		return nil, err
	}
	log.Info("verification events enabled", "topic", cfg.DecisionsTopic)
	return producer, nil
}
