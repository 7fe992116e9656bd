package orchestrator

import (
	"context"
	"sort"

	"github.com/NordCoder/Proberus/internal/domain/job"
	"github.com/NordCoder/Proberus/internal/domain/task"

	"go.uber.org/zap"
)

// Distributor bridges polling agents and jobs. It exposes a snapshot of
// unresolved (job, check) pairs and accepts result submissions for them; it
// performs no assignment, so delivery is at-least-once and multiple agents
// may race on the same task.
type Distributor struct {
	Log   *zap.Logger
	Store job.Store
	Sink  ResultSink
}

// PendingTasks derives the pollable task list. A pair that already has a
// result is never emitted, whichever path produced it.
func (d *Distributor) PendingTasks(ctx context.Context) ([]task.Task, error) {
	jobs, err := d.Store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].CreatedAt.Before(jobs[k].CreatedAt) })

	tasks := make([]task.Task, 0)
	for _, j := range jobs {
		if j.Status == job.StatusCompleted {
			continue
		}
		for _, t := range j.RequestedChecks {
			if j.Resolved(t) {
				continue
			}
			tasks = append(tasks, task.Task{
				ID:     task.NewID(j.ID, t),
				JobID:  j.ID,
				Type:   t,
				Target: j.Target,
			})
		}
	}

	mTasksServed.Add(float64(len(tasks)))
	return tasks, nil
}

// SubmitResult closes out a task an agent executed. The task id carries the
// (job, check) pair, so resubmission after a lost response lands on the same
// slot and is ignored by the store.
func (d *Distributor) SubmitResult(ctx context.Context, taskID string, success bool, output, errText string) error {
	jobID, checkType, err := task.ParseID(taskID)
	if err != nil {
		return err
	}

	mAgentResults.Inc()

	res := job.CheckResult{
		Type:    checkType,
		Success: success,
		Output:  output,
		Error:   errText,
	}
	if _, err := d.Sink.RecordResult(ctx, jobID, res); err != nil {
		return err
	}

	d.Log.Debug("agent result accepted",
		zap.String("task_id", taskID),
		zap.Bool("success", success))
	return nil
}
