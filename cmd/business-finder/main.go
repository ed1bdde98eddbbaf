package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	health "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/pribylovaa/go-business-finder/internal/config"
	bfhttp "github.com/pribylovaa/go-business-finder/internal/http"
	"github.com/pribylovaa/go-business-finder/internal/metrics"
	"github.com/pribylovaa/go-business-finder/internal/places/serpapi"
	"github.com/pribylovaa/go-business-finder/internal/probe"
	"github.com/pribylovaa/go-business-finder/internal/service"
	"github.com/pribylovaa/go-business-finder/internal/website"
	"github.com/pribylovaa/go-business-finder/pkg/interceptors"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	// .env необязателен: без него работаем на ENV/YAML.
	_ = godotenv.Load()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting business-finder", "env", cfg.Env)

	if cfg.Places.APIKey == "" {
		log.Warn("serpapi_key_missing", slog.String("hint", "set SERPAPI_KEY"))
	}

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	reg := prometheus.DefaultRegisterer
	probeMetrics := metrics.NewProbe(reg)
	searchMetrics := metrics.NewSearch(reg)

	// Общий браузер: ленивый запуск, гасится по простою и при выходе.
	pool := website.NewPool(website.PoolConfig{
		MaxPages:    cfg.Renderer.MaxPages,
		IdleTimeout: cfg.Renderer.IdleTimeout,
		RemoteURL:   cfg.Renderer.RemoteURL,
		ExecPath:    cfg.Renderer.ExecPath,
		Headless:    !cfg.Renderer.Headful,
		UserAgent:   cfg.Probe.UserAgent,
	}, log)
	pool.OnTabsChanged(probeMetrics.Tabs)

	checker := website.NewChecker(website.ReachabilityConfig{
		Timeout:   cfg.Probe.ReachTimeout,
		UserAgent: cfg.Probe.UserAgent,
		ChromeTLS: cfg.Probe.ChromeTLS,
	})
	extractor := website.NewExtractor(pool, cfg.Renderer.NavTimeout)

	scheduler := probe.New(checker, extractor, probe.Config{
		ReachConcurrency: cfg.Probe.ReachConcurrency,
		CacheTTL:         cfg.Probe.CacheTTL,
		CacheSize:        cfg.Probe.CacheSize,
		Timeout:          cfg.Probe.Timeout,
	}, probeMetrics)

	placesClient := serpapi.New(serpapi.Config{
		BaseURL: cfg.Places.BaseURL,
		APIKey:  cfg.Places.APIKey,
		Timeout: cfg.Places.Timeout,
		RPS:     cfg.Places.RPS,
		Burst:   cfg.Places.Burst,
	})

	svc := service.New(placesClient, scheduler, *cfg, searchMetrics)
	log.Info("service_initialized")

	// HTTP: API + служебные эндпойнты.
	var ready int32 // 0 — not ready; 1 — ready

	apiHandler := bfhttp.NewRouter(svc, bfhttp.Options{
		Logger:         log,
		Timeout:        cfg.Timeouts.Service,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	httpLn, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}
	log.Info("http_listen_start", slog.String("addr", httpAddr))

	// gRPC: health-check с интерсепторами и метриками.
	grpc_prometheus.EnableHandlingTimeHistogram()

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.Recover(log),
			interceptors.UnaryLoggingInterceptor(log),
			interceptors.WithTimeout(cfg.Timeouts.Service),
			grpc_prometheus.UnaryServerInterceptor,
		),
		grpc.ChainStreamInterceptor(
			grpc_prometheus.StreamServerInterceptor,
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	if cfg.Env == envLocal || cfg.Env == envDev {
		reflection.Register(grpcServer)
	}

	grpcAddr := cfg.GRPC.Addr()
	grpcLn, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		log.Error("grpc_listen_failed", slog.String("addr", grpcAddr), slog.String("err", err.Error()))
		_ = httpLn.Close()
		rootCancel()
		os.Exit(1)
	}
	log.Info("grpc_listen_start", slog.String("addr", grpcAddr))

	grpc_prometheus.Register(grpcServer)

	serveErrCh := make(chan error, 2)
	go func() {
		if err := httpSrv.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
	}()
	go func() {
		if err := grpcServer.Serve(grpcLn); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErrCh <- err
		}
	}()

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	atomic.StoreInt32(&ready, 1)
	log.Info("service_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		log.Error("serve_failed", slog.String("err", err.Error()))
	}

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	atomic.StoreInt32(&ready, 0)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc_stopped")
	case <-shutdownCtx.Done():
		log.Warn("grpc_force_stop")
		grpcServer.Stop()
	}

	if err := pool.Close(); err != nil {
		log.Warn("renderer_close_failed", slog.String("err", err.Error()))
	} else {
		log.Info("renderer_stopped")
	}

	log.Info("service_stopped")
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	switch env {
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
