package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/NordCoder/Proberus/internal/domain/job"
	"github.com/NordCoder/Proberus/internal/domain/task"
	"github.com/NordCoder/Proberus/internal/probes"

	"go.uber.org/zap"
)

// ResultSink is where completed checks land. Both the local executor and the
// task distributor write through the same sink, which keeps the first-writer
// discipline in one place.
type ResultSink interface {
	RecordResult(ctx context.Context, jobID string, res job.CheckResult) (*job.Job, error)
}

// ProbeRunner executes one blocking probe. *probes.Suite is the production
// implementation.
type ProbeRunner interface {
	Run(t job.CheckType, target string) probes.Report
}

type ExecutorConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

// Executor runs probes for jobs no agent has claimed, on a bounded pool of
// workers. Dispatch only enqueues; probe I/O never runs on the goroutine
// serving the request. Close drains the queue and waits for in-flight work,
// so shutdown and tests can observe completion.
type Executor struct {
	log    *zap.Logger
	store  job.Store
	sink   ResultSink
	probes ProbeRunner

	tasks chan task.Task
	wg    sync.WaitGroup
	once  sync.Once
}

func NewExecutor(log *zap.Logger, store job.Store, sink ResultSink, runner ProbeRunner, cfg ExecutorConfig) *Executor {
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	e := &Executor{
		log:    log,
		store:  store,
		sink:   sink,
		probes: runner,
		tasks:  make(chan task.Task, cfg.QueueSize),
	}

	for i := 0; i < cfg.Workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return e
}

// Dispatch marks the job in_progress and enqueues one task per unresolved
// requested check. Blocks only if the queue is full.
func (e *Executor) Dispatch(ctx context.Context, j *job.Job) {
	if err := e.store.MarkInProgress(ctx, j.ID); err != nil {
		e.log.Warn("mark in_progress", zap.String("job_id", j.ID), zap.Error(err))
	}
	for _, t := range j.RequestedChecks {
		if j.Resolved(t) {
			continue
		}
		e.tasks <- task.Task{
			ID:     task.NewID(j.ID, t),
			JobID:  j.ID,
			Type:   t,
			Target: j.Target,
		}
	}
}

// Close stops intake and waits until every queued task has finished.
func (e *Executor) Close() {
	e.once.Do(func() { close(e.tasks) })
	e.wg.Wait()
}

func (e *Executor) worker() {
	defer e.wg.Done()
	for t := range e.tasks {
		e.execute(t)
	}
}

func (e *Executor) execute(t task.Task) {
	ctx := context.Background()

	// An agent may have resolved the pair while the task sat in the queue.
	if j, err := e.store.Get(ctx, t.JobID); err == nil && j.Resolved(t.Type) {
		mTasksSkipped.Inc()
		return
	}

	start := time.Now()
	rep, panicErr := e.runProbe(t)
	mProbeDuration.Observe(time.Since(start).Seconds())
	mProbesExecuted.Inc()

	res := job.CheckResult{
		Type:    t.Type,
		Success: rep.Success,
		Output:  rep.Text,
	}
	if panicErr != nil {
		res.Success = false
		res.Error = panicErr.Error()
	}
	if !res.Success {
		mProbesFailed.Inc()
	}

	if _, err := e.sink.RecordResult(ctx, t.JobID, res); err != nil {
		e.log.Warn("record result",
			zap.String("job_id", t.JobID),
			zap.String("check", string(t.Type)),
			zap.Error(err))
		return
	}

	e.log.Debug("probe finished",
		zap.String("job_id", t.JobID),
		zap.String("check", string(t.Type)),
		zap.Bool("success", res.Success),
		zap.Duration("took", time.Since(start)))
}

// runProbe isolates probe execution so a panicking probe becomes a failed
// CheckResult instead of taking a worker down.
func (e *Executor) runProbe(t task.Task) (rep probes.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panic: %v", r)
		}
	}()
	return e.probes.Run(t.Type, t.Target), nil
}
