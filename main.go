// Command campusql warms the query cache for a signed-in LMS user: it
// establishes a session, prefetches the role's dashboard data, and reports
// cache statistics. It doubles as the reference wiring for the client stack:
// session store, API client, query cache, optimistic helpers and prefetch
// scheduler are constructed once here and passed down explicitly.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/campusql/campusql-go/internal/api"
	"github.com/campusql/campusql-go/internal/config"
	"github.com/campusql/campusql-go/internal/lifecycle"
	"github.com/campusql/campusql-go/internal/observe"
	"github.com/campusql/campusql-go/internal/prefetch"
	"github.com/campusql/campusql-go/internal/query"
	"github.com/campusql/campusql-go/internal/session"
)

func main() {
	configureLogging()

	logBuildInfo()

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("client run failed")
	}
}

func run() error {
	ctx := context.Background()

	// .env is optional; real environments configure the process directly.
	_ = godotenv.Load()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("configuration load failed: %w", err)
	}

	shutdown := &lifecycle.ShutdownHooks{}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shutdown.Execute(shutdownCtx)
	}()

	// configure telemetry, including wrapping the outgoing HTTP transport
	shutdownTelemetry, err := observe.Configure(ctx, cfg.Observe)
	if err != nil {
		return fmt.Errorf("telemetry bootstrap failed: %w", err)
	}
	shutdown.AddContext("telemetry", shutdownTelemetry)

	httpClient := &http.Client{
		Transport: observe.HTTPTransport(configureHTTPTransport(cfg.API), cfg.Observe),
		Timeout:   time.Duration(cfg.API.TimeoutSeconds) * time.Second,
	}

	store, err := openSession(cfg.Session)
	if err != nil {
		return fmt.Errorf("session store configuration failed: %w", err)
	}

	queries := query.NewClient(query.Options{
		StaleTime:      time.Duration(cfg.Cache.StaleTimeSeconds) * time.Second,
		GCTime:         time.Duration(cfg.Cache.GCTimeSeconds) * time.Second,
		MaxRetries:     cfg.Cache.MaxRetries,
		RetryBaseDelay: time.Second,
		RetryMaxDelay:  30 * time.Second,
		Retryable:      api.Retryable,
		MaxEntries:     cfg.Cache.MaxEntries,
	})
	shutdown.AddClose("query cache", queries)

	apiClient, err := api.New(cfg.API.BaseURL, store,
		api.WithHTTPClient(httpClient),
		api.WithSessionExpiredCallback(func() {
			// Session died mid-run: drop everything cached under it.
			log.Info().Msg("session expired; clearing cached data")
			queries.Clear()
		}),
	)
	if err != nil {
		return fmt.Errorf("API client configuration failed: %w", err)
	}

	if err := ensureSession(ctx, apiClient, store, cfg.Prefetch); err != nil {
		return err
	}

	scheduler := prefetch.New(apiClient, queries)

	log.Info().Str("role", cfg.Prefetch.Role).Msg("prefetching dashboard data")
	scheduler.DashboardData(ctx, cfg.Prefetch.Role, cfg.Prefetch.UserID)
	scheduler.BackgroundRefresh(ctx, cfg.Prefetch.Role)

	hits, misses := queries.Stats()
	log.Info().
		Uint64("hits", hits).
		Uint64("misses", misses).
		Msg("cache warm-up complete")

	return nil
}

// ensureSession signs in when no session is stored and credentials are
// configured. A stored token is trusted; the first authenticated call will
// clear it if the backend disagrees.
func ensureSession(ctx context.Context, apiClient *api.Client, store session.Store, cfg config.PrefetchConfig) error {
	if store.Token() != "" {
		log.Debug().Msg("using stored session")
		return nil
	}

	if cfg.Email == "" || cfg.Password == "" {
		return fmt.Errorf("no stored session and no login credentials configured")
	}

	result, err := apiClient.Login(ctx, cfg.Email, cfg.Password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	log.Info().Str("user", result.User.Email).Str("role", result.User.Role).
		Msg("signed in")
	return nil
}

func openSession(cfg config.SessionConfig) (session.Store, error) {
	if cfg.FilePath == "" {
		return session.NewMemory(), nil
	}
	return session.OpenFile(cfg.FilePath)
}

func configureLogging() {
	zerolog.SetGlobalLevel(zerolog.Level(-128))

	// default level is Info
	log.Logger = log.Level(zerolog.InfoLevel)

	if os.Getenv("ENV") == "development" {
		log.Logger = log.
			Output(zerolog.ConsoleWriter{Out: os.Stdout}).
			Level(zerolog.DebugLevel)
	}

	zerolog.DefaultContextLogger = &log.Logger
}

func logBuildInfo() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	ev := log.Info()
	for _, v := range buildInfo.Settings {
		if strings.HasPrefix(v.Key, "vcs.") ||
			strings.HasPrefix(v.Key, "GO") ||
			v.Key == "CGO_ENABLED" {
			ev = ev.Str(v.Key, v.Value)
		}
	}

	ev.Msg("build information")
}

func configureHTTPTransport(cfg config.APIConfig) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	transport.MaxIdleConns = cfg.MaxIdleConns
	transport.MaxConnsPerHost = cfg.MaxConnsPerHost

	return transport
}
