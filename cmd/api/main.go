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
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/graficaloja/backend-pdv/internal/backup"
	"github.com/graficaloja/backend-pdv/internal/cashbook"
	"github.com/graficaloja/backend-pdv/internal/catalog"
	"github.com/graficaloja/backend-pdv/internal/common"
	"github.com/graficaloja/backend-pdv/internal/config"
	"github.com/graficaloja/backend-pdv/internal/customer"
	"github.com/graficaloja/backend-pdv/internal/events"
	"github.com/graficaloja/backend-pdv/internal/health"
	"github.com/graficaloja/backend-pdv/internal/ledger"
	"github.com/graficaloja/backend-pdv/internal/obs"
	"github.com/graficaloja/backend-pdv/internal/order"
	"github.com/graficaloja/backend-pdv/internal/printdoc"
	"github.com/graficaloja/backend-pdv/internal/ratelimit"
	"github.com/graficaloja/backend-pdv/internal/repo"
	"github.com/graficaloja/backend-pdv/internal/report"
	"github.com/graficaloja/backend-pdv/internal/sale"
	"github.com/graficaloja/backend-pdv/internal/supplier"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "pdv")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "pdv-api",
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
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "pdv-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	queueOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse queue redis uri")
	}
	queueClient := asynq.NewClient(queueOpt)
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close queue client")
		}
	}()

	bus := &events.Bus{
		Store:     repo.Events{DB: pool},
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}},
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	limiter := ratelimit.Window{
		Client: redisClient,
		Prefix: "rl:api:",
		Length: cfg.RateLimitWindow,
		Max:    cfg.RateLimitMax,
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter degraded")
		},
	}

	renderer, err := printdoc.NewRenderer(cfg.ShopName, currencySymbol(cfg.CurrencyCode))
	if err != nil {
		logger.Fatal().Err(err).Msg("load print templates")
	}

	saleSvc := &sale.Service{Pool: pool, Events: bus, MaxInstallments: cfg.MaxInstallments}
	saleHandler := &sale.Handler{Svc: saleSvc}

	catalogSvc := &catalog.Service{Pool: pool, Cache: catalog.NewCache(redisClient, cfg.CatalogCacheTTL)}
	catalogHandler := &catalog.Handler{Svc: catalogSvc}

	orderHandler := &order.Handler{Orders: repo.Orders{DB: pool}}
	customerHandler := &customer.Handler{Customers: repo.Customers{DB: pool}}
	supplierHandler := &supplier.Handler{Suppliers: repo.Suppliers{DB: pool}}

	ledgerSvc := &ledger.Service{Pool: pool, Events: bus, Logger: logger}
	ledgerHandler := &ledger.Handler{Svc: ledgerSvc}

	cashbookSvc := &cashbook.Service{Pool: pool, Events: bus}
	cashbookHandler := &cashbook.Handler{Svc: cashbookSvc}

	reportSvc := &report.Service{
		Q:            repo.Reports{DB: pool},
		R:            redisClient,
		TTL:          cfg.ReportCacheTTL,
		DefaultRange: 30,
	}
	reportHandler := &report.Handler{Svc: reportSvc}

	printHandler := &printdoc.Handler{
		Renderer: renderer,
		Orders:   repo.Orders{DB: pool},
		Cashbook: repo.Cashbook{DB: pool},
	}

	backupSvc := &backup.Service{Pool: pool, Events: bus, Logger: logger}
	backupHandler := &backup.Handler{
		Svc:        backupSvc,
		R:          redisClient,
		Queue:      queueClient,
		MaxBytes:   cfg.BackupMaxBytes,
		PayloadTTL: 24 * time.Hour,
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
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
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", true) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Probes: map[string]health.Probe{
			"db":    func(ctx context.Context) error { return pool.Ping(ctx) },
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
		Timeout: envDurationMillis("HEALTH_READY_TIMEOUT_MS", 500),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(limiter.Middleware)

		v.Route("/products", func(p chi.Router) {
			p.Get("/", catalogHandler.List)
			p.Post("/", catalogHandler.Create)
			p.Route("/{id}", func(child chi.Router) {
				child.Get("/", catalogHandler.Get)
				child.Put("/", catalogHandler.Update)
				child.Delete("/", catalogHandler.Delete)
			})
		})

		v.Route("/customers", func(c chi.Router) {
			c.Get("/", customerHandler.List)
			c.Post("/", customerHandler.Create)
			c.Route("/{id}", func(child chi.Router) {
				child.Get("/", customerHandler.Get)
				child.Put("/", customerHandler.Update)
				child.Delete("/", customerHandler.Delete)
			})
		})

		v.Route("/suppliers", func(s chi.Router) {
			s.Get("/", supplierHandler.List)
			s.Post("/", supplierHandler.Create)
			s.Route("/{id}", func(child chi.Router) {
				child.Get("/", supplierHandler.Get)
				child.Put("/", supplierHandler.Update)
				child.Delete("/", supplierHandler.Delete)
			})
		})

		v.Route("/sales", func(s chi.Router) {
			s.Post("/quote", saleHandler.Quote)
			s.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/", saleHandler.Finalize)
				g.Put("/{id}", saleHandler.Replace)
				g.Post("/{id}/cancel", saleHandler.Cancel)
			})
		})

		v.Get("/orders", orderHandler.List)
		v.Get("/orders/{id}", orderHandler.Get)
		v.Get("/orders/{id}/receipt", printHandler.Receipt)
		v.Get("/orders/{id}/slip", printHandler.OrderSlip)

		v.Route("/ledger/entries", func(l chi.Router) {
			l.Get("/", ledgerHandler.List)
			l.Post("/", ledgerHandler.Create)
			l.With(idem.Middleware).Post("/{id}/settle", ledgerHandler.Settle)
		})

		v.Route("/cashbook", func(c chi.Router) {
			c.Post("/open", cashbookHandler.Open)
			c.Get("/current", cashbookHandler.Current)
			c.Post("/movements", cashbookHandler.AddMovement)
			c.With(idem.Middleware).Post("/close", cashbookHandler.Close)
			c.Get("/sessions/{id}", cashbookHandler.Get)
			c.Get("/sessions/{id}/summary", printHandler.CashSummary)
		})

		v.Route("/reports", func(rep chi.Router) {
			rep.Get("/sales", reportHandler.Sales)
			rep.Get("/top-products", reportHandler.TopProducts)
			rep.Get("/position", reportHandler.Position)
		})

		v.Get("/backup/export", backupHandler.Export)
		v.Post("/backup/import", backupHandler.Import)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func currencySymbol(code string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "BRL", "":
		return "R$"
	case "USD":
		return "$"
	case "EUR":
		return "€"
	default:
		return code
	}
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
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
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
