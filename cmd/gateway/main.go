// In file: cmd/gateway/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dileep-u-k/weather-agent/internal/agent"
	"github.com/dileep-u-k/weather-agent/internal/config"
	"github.com/dileep-u-k/weather-agent/internal/llm"
	"github.com/dileep-u-k/weather-agent/internal/session"
	"github.com/dileep-u-k/weather-agent/internal/usage"
	"github.com/dileep-u-k/weather-agent/internal/weather"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// main is the entry point for the application. It parses flags and hands
// off to run, so every deferred cleanup in run executes before exit.
func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config.yaml")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	buildInfo := GetBuildInfo()
	log.Printf("🚀 Starting Weather Agent Gateway | Version: %s | Commit: %s", buildInfo.Version, buildInfo.GitCommit)

	if err := run(*configPath); err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}
}

// run is the "Composition Root": it loads configuration, initializes all
// services, injects dependencies, and serves until a shutdown signal.
func run(configPath string) error {
	// 1. LOAD CONFIGURATION
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	log.Printf("✅ Configuration loaded (provider: %s, model: %s).", cfg.Provider, cfg.Model)

	// 2. INITIALIZE SERVICES
	var (
		store  session.Store
		ledger *usage.Ledger
		wxOpts []weather.Option
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Printf("Warning: Failed to close Redis client: %v", err)
			}
		}()
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			return fmt.Errorf("could not connect to Redis: %w", err)
		}
		store = session.NewRedisStore(rdb, cfg.SessionTTL)
		ledger = usage.NewLedger(rdb, cfg.Pricing)
		wxOpts = append(wxOpts, weather.WithGeoCache(weather.NewRedisGeoCache(rdb, cfg.GeoCacheTTL)))
		log.Printf("✅ Redis connected at %s (sessions, geocache, usage ledger).", cfg.RedisAddr)
	} else {
		store = session.NewMemoryStore(cfg.SessionTTL)
		log.Println("WARNING: REDIS_ADDR not set; using in-memory sessions without geocache or usage ledger.")
	}

	wx, err := weather.NewClient(cfg.WeatherAPIKey, cfg.WeatherOptions(wxOpts...)...)
	if err != nil {
		return err
	}
	client, err := llm.NewClient(cfg.Provider, cfg.LLMAPIKey, cfg.LLMOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create %s client: %w", cfg.Provider, err)
	}
	if closer, ok := client.(io.Closer); ok {
		defer closer.Close()
	}
	weatherAgent, err := agent.New(client, wx, cfg.AgentConfig())
	if err != nil {
		return err
	}

	// A nil *usage.Ledger must not become a non-nil interface value.
	var recorder usageRecorder
	if ledger != nil {
		recorder = ledger
	}
	gatewayHandler := NewGatewayHandler(weatherAgent, wx, store, recorder, cfg.ModelPricing())
	log.Println("✅ All services initialized.")

	// 3. SETUP AND RUN THE WEB SERVER
	gin.SetMode(os.Getenv("GIN_MODE"))
	engine := gin.Default()
	gatewayHandler.Register(engine)

	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: engine}
	return runServerWithGracefulShutdown(srv)
}

// runServerWithGracefulShutdown handles the server lifecycle. It returns
// when the server fails to listen or after a signal-triggered shutdown.
func runServerWithGracefulShutdown(srv *http.Server) error {
	listenErr := make(chan error, 1)
	go func() {
		log.Printf("👂 Gateway is listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	select {
	case err := <-listenErr:
		return fmt.Errorf("listen error: %w", err)
	case <-quit:
	}

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("👋 Server exited gracefully.")
	return nil
}
