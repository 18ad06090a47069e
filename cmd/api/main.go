package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lune-shop/backend-lune/internal/account"
	"github.com/lune-shop/backend-lune/internal/app"
	"github.com/lune-shop/backend-lune/internal/auth"
	"github.com/lune-shop/backend-lune/internal/cart"
	"github.com/lune-shop/backend-lune/internal/catalog"
	"github.com/lune-shop/backend-lune/internal/checkout"
	"github.com/lune-shop/backend-lune/internal/common"
	"github.com/lune-shop/backend-lune/internal/config"
	"github.com/lune-shop/backend-lune/internal/discount"
	"github.com/lune-shop/backend-lune/internal/events"
	"github.com/lune-shop/backend-lune/internal/health"
	"github.com/lune-shop/backend-lune/internal/notify"
	"github.com/lune-shop/backend-lune/internal/obs"
	"github.com/lune-shop/backend-lune/internal/order"
	"github.com/lune-shop/backend-lune/internal/pricing"
	"github.com/lune-shop/backend-lune/internal/ratelimit"
	"github.com/lune-shop/backend-lune/internal/resilience"
	"github.com/lune-shop/backend-lune/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "lune")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "lune-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	deps, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	if err := deps.DB.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	if err := deps.Redis.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	migrationsPath := envOrDefault("MIGRATIONS_PATH", "file://db/migrations")
	if m, err := migrate.New(migrationsPath, cfg.DatabaseURL); err != nil {
		logger.Error().Err(err).Msg("open migrations")
	} else if err := app.RunMigrations(m); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	obs.MustRegisterDomainMetrics(metricsNamespace, deps.MetricsRegistry)

	rules := pricing.Rules{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		FlatShippingFee:       cfg.FlatShippingFee,
	}

	cartStore := &cart.Store{Client: deps.Redis, TTL: cfg.CartTTL}
	cartSvc := &cart.Service{Store: cartStore}

	catalogLookup := &catalog.CachedLookup{
		Next:  &catalog.Repo{Pool: deps.DB},
		Cache: catalog.NewCache(deps.Redis, cfg.CatalogCacheTTL),
	}
	resolver := &catalog.Resolver{Lookup: catalogLookup}

	accountStore := &account.Store{Pool: deps.DB}
	coupons := &discount.Source{Pool: deps.DB}

	bus := &events.Bus{
		Store:     &events.PGStore{Pool: deps.DB},
		Notifiers: []events.Notifier{&notify.Enqueuer{Client: deps.TaskClient}},
	}

	var gateway order.Submitter
	switch cfg.PaymentProvider {
	case "toss":
		gateway = &order.TossGateway{
			Client: resilience.HTTPClient{
				Client: &http.Client{
					Timeout:   10 * time.Second,
					Transport: otelhttp.NewTransport(http.DefaultTransport),
				},
				Breaker:     resilience.NewBreaker(5, 0.6, 30*time.Second).WithTarget("toss").WithLogger(logger),
				MaxAttempts: 1,
			},
			BaseURL:   cfg.TossBaseURL,
			SecretKey: cfg.TossSecretKey,
		}
	default:
		gateway = order.MockGateway{}
	}

	orderSvc := &order.Service{
		Store:   &order.PGStore{Pool: deps.DB},
		Gateway: gateway,
		Bus:     bus,
		Log:     logger,
	}
	orderHandler := &order.Handler{Svc: orderSvc}

	checkoutSvc := &checkout.Service{
		Carts:    cartStore,
		Resolver: resolver,
		Coupons:  coupons,
		Points:   accountStore,
		Linked:   accountStore,
		Cards:    accountStore,
		Discount: discount.Resolver{PointsCapBps: cfg.PointsCapBps},
		Orders:   orderSvc,
		Bus:      bus,
		Rules:    rules,
		Log:      logger,
	}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc, Validate: deps.Validator}
	cartHandler := &cart.Handler{Svc: cartSvc, Quoter: checkoutSvc, Validate: deps.Validator}

	authMiddleware := auth.Middleware{Verifier: auth.Verifier{
		Secret: []byte(cfg.JWTSecret),
		Issuer: envOrDefault("JWT_ISSUER", ""),
	}}
	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL}
	submitLimiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: deps.Redis},
		Config: ratelimit.Config{
			Key: func(r *http.Request) string {
				if userID, ok := common.UserID(r.Context()); ok {
					return "checkout:" + userID
				}
				return "checkout:" + common.ClientIP(r)
			},
			Window: cfg.CheckoutRateWindow,
			Max:    cfg.CheckoutRateLimit,
		},
		OnError: func(err error) { logger.Error().Err(err).Msg("rate limiter") },
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, deps.MetricsRegistry)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{
		Enable:     true,
		EnableHSTS: envBool("SECURE_ENABLE_HSTS", false),
		HSTSMaxAge: envInt("SECURE_HSTS_MAX_AGE", 31536000),
	}.Middleware)
	r.Use(security.BodyLimit{Max: envInt64("SECURE_MAX_BODY_BYTES", 1<<20)}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Anon-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if globalLimit := envInt64("GLOBAL_RATE_LIMIT_PER_MIN", 0); globalLimit > 0 {
		limitMW, err := app.GlobalRateLimiter(deps.Redis, limiter.Rate{
			Period: time.Minute,
			Limit:  globalLimit,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise global rate limiter")
		} else {
			r.Use(limitMW)
		}
	}

	if metricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(deps.MetricsRegistry, promhttp.HandlerOpts{}))
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: deps.DB, redis: deps.Redis},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/cart", func(c chi.Router) {
			c.Use(authMiddleware.Authenticate)
			c.Get("/", cartHandler.Get)
			c.Post("/items", cartHandler.AddItem)
			c.Patch("/items", cartHandler.UpdateItem)
			c.Delete("/items", cartHandler.RemoveItem)
			c.Delete("/", cartHandler.Clear)
			c.With(authMiddleware.RequireAuth).Post("/merge", cartHandler.Merge)
		})

		v.Route("/checkout", func(c chi.Router) {
			c.Use(authMiddleware.RequireAuth)
			c.Post("/quote", checkoutHandler.Quote)
			c.With(idem.Middleware, submitLimiter.Middleware).Post("/", checkoutHandler.Submit)
		})

		v.Group(func(authed chi.Router) {
			authed.Use(authMiddleware.RequireAuth)
			authed.Get("/orders", orderHandler.List)
			authed.Get("/orders/{number}", orderHandler.Get)
			authed.Post("/orders/{number}/cancel", orderHandler.Cancel)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	health.SetReady(true)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-shutdownCtx.Done()
	health.SetReady(false)
	logger.Info().Msg("shutting down")

	drainCtx, drainCancel := context.WithTimeout(context.Background(), envDurationMillis("SHUTDOWN_GRACE_MS", 15000))
	defer drainCancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
