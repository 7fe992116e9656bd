package kafka

import (
	"context"
	"time"

	"github.com/NordCoder/Proberus/internal/domain/job"
	"github.com/NordCoder/Proberus/internal/obs/retry"
)

// JobEventsKafka publishes job lifecycle events so downstream consumers
// (notifiers, archivers) can react to finished diagnostics.
type JobEventsKafka struct {
	p *Producer
}

func NewJobEventsKafka(p *Producer) *JobEventsKafka { return &JobEventsKafka{p: p} }

type jobCompletedEvent struct {
	Event       string                            `json:"event"`
	JobID       string                            `json:"job_id"`
	Target      string                            `json:"target"`
	Results     map[job.CheckType]job.CheckResult `json:"results"`
	CompletedAt time.Time                         `json:"completed_at"`
}

func (e *JobEventsKafka) PublishJobCompleted(ctx context.Context, j *job.Job) error {
	evt := jobCompletedEvent{
		Event:       "job.completed",
		JobID:       j.ID,
		Target:      j.Target,
		Results:     j.Results,
		CompletedAt: time.Now().UTC(),
	}
	return retry.Do(ctx, func() error {
		return e.p.PublishJSON(ctx, []byte(j.ID), evt)
	}, retry.DefaultKafkaPolicy(e.p.log))
}
