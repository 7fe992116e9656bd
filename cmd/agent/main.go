package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/NordCoder/Proberus/internal/config/agent"
	"github.com/NordCoder/Proberus/internal/obs"
	"github.com/NordCoder/Proberus/internal/probes"
	agentsvc "github.com/NordCoder/Proberus/internal/services/agent"

	"go.uber.org/zap"
)

const registerBackoff = 10 * time.Second

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

	// identity: fresh token per process, best-effort location and local ip
	token := agentsvc.NewToken()
	location := agentsvc.DetectLocation(root)
	ip := agentsvc.LocalIP()

	client, err := agentsvc.NewClient(cfg.Backend.URL, token, cfg.Backend.Timeout)
	if err != nil {
		l.Fatal("backend client", zap.Error(err))
	}

	l.Info("agent starting",
		zap.String("name", cfg.Name),
		zap.String("location", location),
		zap.String("ip", ip),
		zap.String("backend", cfg.Backend.URL))

	// register, retrying until the orchestrator is reachable
	var agentID int64
	for {
		agentID, err = client.Register(root, cfg.Name, location, ip)
		if err == nil {
			break
		}
		l.Warn("registration failed, retrying", zap.Error(err))
		select {
		case <-root.Done():
			return
		case <-time.After(registerBackoff):
		}
	}
	l.Info("agent registered", zap.Int64("agent_id", agentID))

	// start
	runner := agentsvc.NewRunner(l, client, probes.NewSuite(cfg.Probes), cfg.Runner)
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(root) }()

	// loop
	select {
	case <-root.Done():
		<-errCh
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runner error", zap.Error(err))
		}
	}
	l.Info("bye")
}
