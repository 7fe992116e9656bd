package agent

import (
	"context"
	"fmt"
	"time"

	config "github.com/NordCoder/Proberus/internal/config/agent"
	"github.com/NordCoder/Proberus/internal/domain/job"
	"github.com/NordCoder/Proberus/internal/domain/task"
	"github.com/NordCoder/Proberus/internal/probes"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Backend is the slice of the orchestrator API the runner needs. *Client is
// the production implementation.
type Backend interface {
	Heartbeat(ctx context.Context) error
	PullTasks(ctx context.Context) ([]task.Task, error)
	SubmitResult(ctx context.Context, taskID string, success bool, output, errText string) error
}

// ProbeRunner executes one blocking probe. *probes.Suite is the production
// implementation.
type ProbeRunner interface {
	Run(t job.CheckType, target string) probes.Report
}

// Runner owns the agent's two loops: the heartbeat that keeps the agent
// listed as alive, and the poll loop that pulls pending tasks, executes them
// with the probe suite and pushes results back. Both stop on ctx cancel.
type Runner struct {
	Log     *zap.Logger
	Backend Backend
	Probes  ProbeRunner
	Cfg     config.Runner
}

func NewRunner(log *zap.Logger, backend Backend, suite ProbeRunner, cfg config.Runner) *Runner {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = 10 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 5
	}
	return &Runner{Log: log, Backend: backend, Probes: suite, Cfg: cfg}
}

func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.heartbeatLoop(ctx) })
	g.Go(func() error { return r.pollLoop(ctx) })
	return g.Wait()
}

// heartbeatLoop fires immediately and then on every interval. A failed beat
// is logged and retried on the next tick; the orchestrator tolerates gaps.
func (r *Runner) heartbeatLoop(ctx context.Context) error {
	ticker := time.NewTicker(r.Cfg.HeartbeatInterval)
	defer ticker.Stop()

	r.beat(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.beat(ctx)
		}
	}
}

func (r *Runner) beat(ctx context.Context) {
	if err := r.Backend.Heartbeat(ctx); err != nil {
		r.Log.Warn("heartbeat failed", zap.Error(err))
		return
	}
	r.Log.Debug("heartbeat sent")
}

// pollLoop pulls the task feed on every poll interval and backs off after a
// failed pull so a down orchestrator is not hammered.
func (r *Runner) pollLoop(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		delay := r.Cfg.PollInterval
		if err := r.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.Log.Warn("poll failed", zap.Error(err))
			delay = r.Cfg.ErrorBackoff
		}
		timer.Reset(delay)
	}
}

func (r *Runner) poll(ctx context.Context) error {
	tasks, err := r.Backend.PullTasks(ctx)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	r.Log.Info("tasks received", zap.Int("count", len(tasks)))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Cfg.MaxConcurrent)
	for _, t := range tasks {
		g.Go(func() error {
			r.execute(ctx, t)
			return nil
		})
	}
	return g.Wait()
}

// execute runs one probe and submits whatever came out. A failing probe is
// data in output; only exception-class failures (a panicking probe) travel
// in the error field. Submit failures are logged only: the pair stays
// unresolved on the orchestrator and will be offered again on the next poll.
func (r *Runner) execute(ctx context.Context, t task.Task) {
	start := time.Now()
	rep, errText := r.runProbe(t)

	if err := r.Backend.SubmitResult(ctx, t.ID, rep.Success, rep.Text, errText); err != nil {
		r.Log.Warn("submit result failed",
			zap.String("task_id", t.ID),
			zap.Error(err))
		return
	}

	r.Log.Debug("task done",
		zap.String("task_id", t.ID),
		zap.String("check", string(t.Type)),
		zap.Bool("success", rep.Success),
		zap.Duration("took", time.Since(start)))
}

func (r *Runner) runProbe(t task.Task) (rep probes.Report, errText string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.Log.Error("probe panic", zap.String("task_id", t.ID), zap.Any("panic", rec))
			rep = probes.Report{Success: false}
			errText = fmt.Sprintf("probe panic: %v", rec)
		}
	}()
	return r.Probes.Run(t.Type, t.Target), ""
}
