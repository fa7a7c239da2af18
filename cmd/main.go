package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/coderoom/config"
	"github.com/cwrk-planet/coderoom/internal/archive"
	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/logger"
	"github.com/cwrk-planet/coderoom/internal/metrics"
	"github.com/cwrk-planet/coderoom/internal/postgres"
	"github.com/cwrk-planet/coderoom/internal/reaper"
	"github.com/cwrk-planet/coderoom/internal/registry"
	"github.com/cwrk-planet/coderoom/internal/security"
	"github.com/cwrk-planet/coderoom/internal/service"
	grpcx "github.com/cwrk-planet/coderoom/internal/transport/grpc"
	httpx "github.com/cwrk-planet/coderoom/internal/transport/http"
	"github.com/cwrk-planet/coderoom/internal/transport/ws"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     logger.ParseLevel(cfg.Logging.Level),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting coderoom", "env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx := context.Background()

	// --- rooms ---
	languages := domain.NewLanguageSet(cfg.Rooms.Languages...)
	rooms := registry.New(registry.Options{
		NewID:           registry.RandomIDs(cfg.Rooms.IDLength),
		DefaultCode:     cfg.Rooms.DefaultCode,
		DefaultLanguage: cfg.Rooms.DefaultLanguage,
	})

	// --- metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mx := metrics.New(reg, rooms.Len)

	// --- archive (optional) ---
	var (
		arc     *archive.Archiver
		history httpx.ChatHistory
	)
	if cfg.Postgres.DSN != "" {
		pool, err := postgres.NewPool(ctx, postgres.Config{
			DSN:             cfg.Postgres.DSN,
			MaxConns:        cfg.Postgres.MaxConns,
			ApplicationName: cfg.Logging.Service,
		})
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatalf("postgres migrate: %v", err)
		}

		chatRepo := postgres.NewChatRepository(pool)
		history = chatRepo
		arc = archive.New(chatRepo, postgres.NewSessionRepository(pool), archive.Options{
			QueueSize:    cfg.Postgres.QueueSize,
			WriteTimeout: cfg.Postgres.WriteTimeout,
			OnDrop:       func() { mx.EventDropped("archive_full") },
		})
		slog.Info("archive enabled")
	}
	var sessionArchive service.Archive
	if arc != nil {
		sessionArchive = arc
	}

	// --- reaper ---
	rp := reaper.New(rooms, cfg.Rooms.ReapAfter, func(domain.Session) { mx.RoomReaped() })
	if arc != nil {
		rp.OnReap(arc.ArchiveSession)
	}

	// --- services ---
	hub := ws.NewHub(mx)
	tokens := security.NewTokenIssuer(cfg.Security.HostTokenSecret, cfg.Security.Issuer, cfg.Security.HostTokenTTL)
	roomSvc := service.NewRoomService(rooms, tokens, rp, cfg.Rooms.ShareBaseURL, languages)
	memberSvc := service.NewMemberService(rooms, hub, rp, sessionArchive)
	broadcastSvc := service.NewBroadcastService(rooms, hub, sessionArchive, service.BroadcastConfig{
		Languages:      languages,
		MaxOutputBytes: cfg.Execution.MaxOutputBytes,
		MaxChatLength:  cfg.Chat.MaxLength,
	})

	// --- WS ---
	wsServer := ws.NewServer(hub, memberSvc, broadcastSvc, mx, ws.Config{
		PingEvery:       cfg.WS.PingEvery,
		MaxMessageBytes: cfg.WS.MaxMessageBytes,
		SendBuffer:      cfg.WS.SendBuffer,
		AllowedOrigins:  cfg.HTTP.CORSOrigins,
	})

	// --- HTTP ---
	handler := httpx.NewHandler(roomSvc, memberSvc, history)
	router := httpx.NewRouter(handler, wsServer.HandleWS, httpx.RouterOptions{
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		Metrics:        metrics.Handler(reg),
	})
	// no WriteTimeout: it would cut long-lived WebSocket connections
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- gRPC (optional) ---
	var stopGRPC func()
	if cfg.GRPC.Addr != "" {
		grpcServer, healthSrv := grpcx.New(grpcx.NewServer(roomSvc), cfg.GRPC.DefaultTimeout)
		stopGRPC = func() {
			healthSrv.Shutdown()
			grpcServer.GracefulStop()
		}
		go func() {
			lis, err := net.Listen("tcp", cfg.GRPC.Addr)
			if err != nil {
				errCh <- err
				return
			}
			slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownGrace)
	defer cancel()

	if stopGRPC != nil {
		stopGRPC()
	}
	if err := httpSrv.Shutdown(ctxShutdown); err != nil {
		slog.Warn("http shutdown", "err", err)
	}
	rp.Stop()
	if arc != nil {
		if err := arc.Close(ctxShutdown); err != nil {
			slog.Warn("archive drain incomplete", "err", err)
		}
	}
	slog.Info("stopped", "rooms", rooms.Len())
}
