package main

import (
	"context"
	"errors"
	"net/http"
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/sokoni/duka-api/internal/auth"
	"github.com/sokoni/duka-api/internal/cart"
	"github.com/sokoni/duka-api/internal/catalog"
	"github.com/sokoni/duka-api/internal/checkout"
	"github.com/sokoni/duka-api/internal/config"
	"github.com/sokoni/duka-api/internal/health"
	"github.com/sokoni/duka-api/internal/jobs"
	"github.com/sokoni/duka-api/internal/notify"
	"github.com/sokoni/duka-api/internal/obs"
	"github.com/sokoni/duka-api/internal/order"
	"github.com/sokoni/duka-api/internal/persist"
	"github.com/sokoni/duka-api/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(nil)
	httpMetrics := obs.NewHTTPMetrics("duka", nil)

	if envBool("OBS_ENABLE_TRACING", true) {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "duka-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
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

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	slots := &persist.Slots{Client: redisClient, Prefix: "duka", TTL: cfg.CartTTL}

	catalogClient := catalog.NewClient(cfg.BackendBaseURL, cfg.BackendAPIKey, cfg.BackendTimeout)
	orderClient := order.NewClient(cfg.BackendBaseURL, cfg.BackendAPIKey, cfg.BackendTimeout)
	identityClient := auth.NewHTTPClient(cfg.BackendBaseURL, cfg.BackendAPIKey, cfg.BackendTimeout)

	redisConnOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}
	taskClient := asynq.NewClient(redisConnOpt)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()
	jobsClient := &jobs.Client{Inner: taskClient}

	sink := notify.LogSink{Logger: logger}

	cartHandler := &cart.Handler{
		SlotFor: func(session string) cart.Slot { return slots.For(session) },
		Catalog: catalogClient,
		Sink:    sink,
		Logger:  logger,
	}
	checkoutHandler := &checkout.Handler{
		Carts:         cartHandler,
		Placer:        orderClient,
		Confirmations: jobsClient,
		Contacts:      slots,
		Logger:        logger,
	}
	catalogHandler := &catalog.Handler{Client: catalogClient, Logger: logger}
	authHandler := &auth.Handler{Client: identityClient, Logger: logger}
	authMiddleware := auth.Middleware{
		Parser: auth.SessionParser{
			Secret:    []byte(cfg.JWTSecret),
			Issuer:    cfg.JWTIssuer,
			ClockSkew: 30 * time.Second,
		},
		AccessCookie: "duka_session",
	}
	healthHandler := health.Handler{Checker: pinger{
		redis:   redisClient,
		baseURL: cfg.BackendBaseURL,
	}}

	rateLimiter, err := ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}
	rl := ratelimit.Handler{
		Limiter: rateLimiter,
		OnError: func(err error) { logger.Error().Err(err).Msg("rate limiter") },
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", cart.AnonHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(obs.RoutePatternMiddleware)
	r.Use(obs.TracingMiddleware)
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(rl.Middleware)
	r.Use(authMiddleware.Authenticate)

	r.Get("/healthz/live", healthHandler.Live)
	r.Get("/healthz/ready", healthHandler.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/logout", authHandler.Logout)

		r.Get("/products", catalogHandler.List)
		r.Get("/products/{id}", catalogHandler.Get)

		r.Post("/cart/session", cartHandler.CreateSession)
		r.Get("/cart", cartHandler.Get)
		r.Delete("/cart", cartHandler.Clear)
		r.Post("/cart/items", cartHandler.AddItem)
		r.Patch("/cart/items/{variantId}", cartHandler.UpdateItem)
		r.Delete("/cart/items/{variantId}", cartHandler.RemoveItem)

		r.Get("/checkout/regions", checkoutHandler.Regions)
		r.Post("/checkout/quote", checkoutHandler.Quote)
		r.With(authMiddleware.RequireAuth).Post("/checkout", checkoutHandler.Submit)
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	<-stopCtx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown http server")
	}
	logger.Info().Msg("api shutdown complete")
}

// pinger probes the api's two runtime dependencies for readiness.
type pinger struct {
	redis   *redis.Client
	baseURL string
}

func (p pinger) PingRedis(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.redis.Ping(ctx).Err()
}

func (p pinger) PingBackend(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
