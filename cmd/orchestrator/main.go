package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/NordCoder/Proberus/internal/config/orchestrator"
	"github.com/NordCoder/Proberus/internal/obs"
	"github.com/NordCoder/Proberus/internal/probes"
	"github.com/NordCoder/Proberus/internal/repository/kafka"
	"github.com/NordCoder/Proberus/internal/repository/memory"
	pg "github.com/NordCoder/Proberus/internal/repository/postgres"
	"github.com/NordCoder/Proberus/internal/services/orchestrator"
	"github.com/NordCoder/Proberus/internal/services/orchestrator/httpapi"

	"go.uber.org/zap"
)

func wire(cfg *config.Config, db *pg.DB, events orchestrator.JobEvents, l *zap.Logger) (*httpapi.Handlers, *orchestrator.Coordinator) {
	store := memory.NewJobStore()

	coord := &orchestrator.Coordinator{
		Log:    l,
		Store:  store,
		Events: events,
	}
	coord.Exec = orchestrator.NewExecutor(l, store, coord, probes.NewSuite(cfg.Probes), cfg.Executor)

	h := &httpapi.Handlers{
		Log:         l,
		Coordinator: coord,
		Distributor: &orchestrator.Distributor{Log: l, Store: store, Sink: coord},
		Agents:      &orchestrator.AgentService{Log: l, Registry: pg.NewAgentRepo(db)},
	}
	return h, coord
}

func main() {
	// init
	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(*cfg.Log.AsLoggerConfig(cfg.App))
	if err != nil {
		log.Fatal(err)
	}

	// otel
	otelCloser, err := obs.SetupOTel(root, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db (agent registry only; jobs live in memory)
	db, err := pg.New(root, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// metrics
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	// kafka
	var events orchestrator.JobEvents
	if cfg.Kafka.Enable {
		prod := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic).WithLogger(l)
		defer func() { _ = prod.Close() }()
		events = kafka.NewJobEventsKafka(prod)
	}

	// wiring
	h, coord := wire(cfg, db, events, l)

	srv := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      httpapi.NewRouter(h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// start
	errCh := make(chan error, 1)
	go func() {
		l.Info("http listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// loop
	select {
	case <-root.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("http server error", zap.Error(err))
		}
	}

	// graceful shutdown: stop intake first, then drain in-flight probes
	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	coord.Exec.Close()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
