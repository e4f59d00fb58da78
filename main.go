package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/labzang/hagueapi/internal/auth"
	"github.com/labzang/hagueapi/internal/cache"
	"github.com/labzang/hagueapi/internal/config"
	"github.com/labzang/hagueapi/internal/handlers"
	"github.com/labzang/hagueapi/internal/metrics"
	"github.com/labzang/hagueapi/internal/middleware"
	"github.com/labzang/hagueapi/internal/proxy"
	"github.com/labzang/hagueapi/internal/retry"
	"github.com/labzang/hagueapi/internal/services"
	"github.com/labzang/hagueapi/internal/session"
	"github.com/labzang/hagueapi/internal/token"
	"github.com/labzang/hagueapi/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		version.PrintVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "server":
		runServer()
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s [OPTIONS] COMMAND\n\n", os.Args[0])
	fmt.Println("API gateway with federated login")
	fmt.Println("\nCommands:")
	fmt.Println("  server    Start the gateway")
	fmt.Println("\nOptions:")
	fmt.Println("  -v, --version    Show version information")
	fmt.Println("  -h, --help       Show this help message")
}

// gatewayCaches bundles the cache instances the gateway runs on, plus
// their health checks and closers for /health and shutdown.
type gatewayCaches struct {
	states  *session.StateStore
	session *session.Store

	healthChecks []func(context.Context) error
	closers      []func() error
}

// setupCaches builds the login-state store and, when session tracking is
// enabled, the refresh-token tracking store on the configured backend.
func setupCaches(cfg *config.Config) (*gatewayCaches, error) {
	caches := &gatewayCaches{}

	switch cfg.CacheType {
	case config.CacheTypeRedis:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RedisTimeout)
		defer cancel()

		opts := func(prefix string) cache.RueidisOptions {
			return cache.RueidisOptions{
				Addr:      cfg.RedisAddr,
				Password:  cfg.RedisPassword,
				DB:        cfg.RedisDB,
				UseTLS:    cfg.RedisTLS,
				KeyPrefix: prefix,
			}
		}

		stateCache, err := cache.NewRueidisCache[session.StateRecord](ctx, opts("state:"))
		if err != nil {
			return nil, fmt.Errorf("state cache: %w", err)
		}
		caches.states = session.NewStateStore(stateCache, cfg.StateExpiration)
		caches.healthChecks = append(caches.healthChecks, stateCache.Health)
		caches.closers = append(caches.closers, stateCache.Close)

		if cfg.EnableSessionTracking {
			tokenCache, err := cache.NewRueidisCache[session.TokenMetadata](ctx, opts("token:"))
			if err != nil {
				return nil, fmt.Errorf("token cache: %w", err)
			}
			revokedCache, err := cache.NewRueidisCache[bool](ctx, opts("revoked:"))
			if err != nil {
				return nil, fmt.Errorf("revocation cache: %w", err)
			}
			caches.session = session.NewStore(tokenCache, revokedCache)
			caches.healthChecks = append(caches.healthChecks, tokenCache.Health, revokedCache.Health)
			caches.closers = append(caches.closers, tokenCache.Close, revokedCache.Close)
		}

		log.Printf("Cache backend: redis (addr=%s, db=%d, tls=%t)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisTLS)
	default: // memory
		caches.states = session.NewMemoryStateStore(cfg.StateExpiration)
		if cfg.EnableSessionTracking {
			caches.session = session.NewMemoryStore()
		}
		log.Println("Cache backend: memory (single instance only)")
	}

	if !cfg.EnableSessionTracking {
		log.Println("Session tracking disabled: tokens remain valid until expiry, revocation unavailable")
	}

	return caches, nil
}

// setupProviders registers the configured identity providers. A gateway
// without any provider still serves its routing endpoints; login attempts
// then fail with a configuration error.
func setupProviders(cfg *config.Config, httpClient *http.Client) map[string]*auth.OAuthProvider {
	providers := make(map[string]*auth.OAuthProvider)

	if cfg.GoogleConfigured() {
		google, err := auth.NewGoogleProvider(auth.OAuthProviderConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       cfg.GoogleScopes,
		}, httpClient)
		if err != nil {
			log.Printf("Google login disabled: %v", err)
		} else {
			providers["google"] = google
			log.Println("Google login enabled")
		}
	} else {
		log.Println("Google login disabled: GOOGLE_CLIENT_ID or GOOGLE_REDIRECT_URI not set")
	}

	return providers
}

func createHealthCheckHandler(caches *gatewayCaches) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		for _, check := range caches.healthChecks {
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"error":  "cache backend unreachable",
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}

func runServer() {
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Println("Prometheus metrics initialized")
	} else {
		log.Println("Metrics disabled (using noop implementation)")
	}

	caches, err := setupCaches(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize cache backend: %v", err)
	}

	// Outbound client for identity provider calls
	retryClient := retry.NewClient(
		retry.WithMaxRetries(cfg.OAuthMaxRetries),
		retry.WithInitialRetryDelay(cfg.OAuthRetryDelay),
		retry.WithHTTPClient(&http.Client{Timeout: cfg.OAuthTimeout}),
	)

	providers := setupProviders(cfg, retryClient.HTTPClient())

	tokenProvider := token.NewLocalTokenProvider(cfg, caches.session)
	authService := services.NewAuthService(providers, caches.states, tokenProvider, recorder)

	authHandler := handlers.NewAuthHandler(authService, cfg, recorder)
	gatewayHandler := handlers.NewGatewayHandler(cfg)

	backendClient := &http.Client{Timeout: 30 * time.Second}
	transformerProxy := proxy.NewHandler("transformer", cfg.TransformerServiceURL, backendClient)
	mlProxy := proxy.NewHandler("ml", cfg.MLServiceURL, backendClient)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", createHealthCheckHandler(caches))

	// Prometheus metrics endpoint (with optional authentication)
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuth(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	authRoutes := r.Group("/api/auth")
	if cfg.EnableRateLimit {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			StoreType:         middleware.RateLimitStoreType(cfg.RateLimitStoreType),
			RedisAddr:         cfg.RedisAddr,
			RedisPassword:     cfg.RedisPassword,
			RedisDB:           cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("Failed to initialize rate limiter: %v", err)
		}
		authRoutes.Use(limiter)
		log.Printf("Rate limiting enabled: %d req/min (%s store)", cfg.RateLimitPerMinute, cfg.RateLimitStoreType)
	}
	{
		authRoutes.POST("/:provider/auth-url", authHandler.AuthURL)
		authRoutes.POST("/:provider/callback", authHandler.Callback)
		authRoutes.POST("/refresh", authHandler.Refresh)
		authRoutes.POST("/revoke", authHandler.Revoke)
	}

	gateway := r.Group("/api/gateway")
	{
		gateway.GET("/status", gatewayHandler.Status)
		gateway.GET("/services", gatewayHandler.Services)
		gateway.GET("/routes", gatewayHandler.Routes)
	}

	// Backend services sit behind the session-token check
	protected := r.Group("")
	protected.Use(middleware.RequireAuth(tokenProvider, recorder))
	{
		protected.Any("/api/transformer/*path", transformerProxy.Forward("/api/transformer"))
		protected.Any("/api/ml/*path", mlProxy.Forward("/api/ml"))
	}

	log.Printf("Gateway starting on %s", cfg.ServerAddr)
	log.Printf("Base URL: %s", cfg.BaseURL)

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	m := graceful.NewManager()

	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})

	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		for _, closeFn := range caches.closers {
			if err := closeFn(); err != nil {
				log.Printf("Cache close error: %v", err)
			}
		}

		log.Println("Server exited")
		return nil
	})

	<-m.Done()
}
