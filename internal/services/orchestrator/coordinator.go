package orchestrator

import (
	"context"
	"sort"

	"github.com/NordCoder/Proberus/internal/domain/job"
	"github.com/NordCoder/Proberus/internal/obs"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// JobEvents is the optional outbound event stream; a nil implementation
// disables publishing.
type JobEvents interface {
	PublishJobCompleted(ctx context.Context, j *job.Job) error
}

// Coordinator is the facade over the job store and the two execution paths.
// It owns the lifecycle contract: jobs go queued -> in_progress -> completed
// and a job completes exactly when its last requested check reports.
type Coordinator struct {
	Log    *zap.Logger
	Store  job.Store
	Exec   *Executor
	Events JobEvents
}

// CreateJob validates the request, persists the job and hands it to the
// local executor. The returned snapshot is the queued state the caller sees
// in the submission response; the executor flips it to in_progress eagerly.
func (c *Coordinator) CreateJob(ctx context.Context, target string, rawChecks []string) (*job.Job, error) {
	tr := otel.Tracer("orchestrator.coordinator")
	ctx, span := tr.Start(ctx, "coordinator.create_job",
		trace.WithAttributes(
			attribute.String("job.target", target),
			attribute.Int("job.checks", len(rawChecks)),
		),
	)
	defer span.End()

	checks := make([]job.CheckType, 0, len(rawChecks))
	for _, rc := range rawChecks {
		t, err := job.ParseCheckType(rc)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		checks = append(checks, t)
	}

	j, err := c.Store.Create(ctx, target, checks)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	mJobsCreated.Inc()

	obs.WithTrace(ctx, c.Log).Info("job created",
		zap.String("job_id", j.ID),
		zap.String("target", j.Target),
		zap.Int("checks", len(j.RequestedChecks)))

	if c.Exec != nil {
		c.Exec.Dispatch(ctx, j)
	}
	return j, nil
}

func (c *Coordinator) GetJob(ctx context.Context, id string) (*job.Job, error) {
	return c.Store.Get(ctx, id)
}

// ListJobs returns the history, most recent first.
func (c *Coordinator) ListJobs(ctx context.Context) ([]*job.Job, error) {
	all, err := c.Store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, k int) bool { return all[i].CreatedAt.After(all[k].CreatedAt) })
	return all, nil
}

type Stats struct {
	Total      int `json:"total"`
	Queued     int `json:"queued"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

func (c *Coordinator) Stats(ctx context.Context) (*Stats, error) {
	all, err := c.Store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	st := &Stats{Total: len(all)}
	for _, j := range all {
		switch j.Status {
		case job.StatusQueued:
			st.Queued++
		case job.StatusInProgress:
			st.InProgress++
		case job.StatusCompleted:
			st.Completed++
		}
	}
	return st, nil
}

// RecordResult is the single write path shared by the local executor and the
// task distributor. Duplicate writes are silent no-ops; the completion event
// fires only on the write that actually closed the job.
func (c *Coordinator) RecordResult(ctx context.Context, jobID string, res job.CheckResult) (*job.Job, error) {
	j, recorded, err := c.Store.RecordResult(ctx, jobID, res)
	if err != nil {
		return nil, err
	}
	if !recorded {
		mResultsDuplicate.Inc()
		return j, nil
	}
	mResultsRecorded.Inc()

	if j.Status == job.StatusCompleted {
		mJobsCompleted.Inc()
		obs.WithTrace(ctx, c.Log).Info("job completed", zap.String("job_id", j.ID), zap.String("target", j.Target))
		if c.Events != nil {
			if err := c.Events.PublishJobCompleted(ctx, j); err != nil {
				c.Log.Warn("publish job completed", zap.String("job_id", j.ID), zap.Error(err))
			}
		}
	}
	return j, nil
}
