package orchestrator

import (
	"context"
	"testing"

	"github.com/NordCoder/Proberus/internal/domain/job"
	"github.com/NordCoder/Proberus/internal/domain/task"
	"github.com/NordCoder/Proberus/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDistributor() (*Distributor, *Coordinator) {
	store := memory.NewJobStore()
	coord := &Coordinator{Log: zap.NewNop(), Store: store}
	return &Distributor{Log: zap.NewNop(), Store: store, Sink: coord}, coord
}

func TestPendingTasksEmpty(t *testing.T) {
	d, _ := newTestDistributor()

	tasks, err := d.PendingTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestPendingTasksDerivedFromJobs(t *testing.T) {
	d, coord := newTestDistributor()
	ctx := context.Background()

	j, err := coord.CreateJob(ctx, "example.com", []string{"ping", "dns"})
	require.NoError(t, err)

	tasks, err := d.PendingTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, j.ID+"_ping", tasks[0].ID)
	assert.Equal(t, j.ID, tasks[0].JobID)
	assert.Equal(t, "example.com", tasks[0].Target)
	assert.Equal(t, j.ID+"_dns", tasks[1].ID)
}

func TestPendingTasksOmitResolvedPairs(t *testing.T) {
	d, coord := newTestDistributor()
	ctx := context.Background()

	j, err := coord.CreateJob(ctx, "example.com", []string{"ping", "dns"})
	require.NoError(t, err)

	_, err = coord.RecordResult(ctx, j.ID, job.CheckResult{Type: job.CheckPing, Success: true})
	require.NoError(t, err)

	tasks, err := d.PendingTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, job.CheckDNS, tasks[0].Type)

	_, err = coord.RecordResult(ctx, j.ID, job.CheckResult{Type: job.CheckDNS, Success: true})
	require.NoError(t, err)

	tasks, err = d.PendingTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestSubmitResultClosesTask(t *testing.T) {
	d, coord := newTestDistributor()
	ctx := context.Background()

	j, err := coord.CreateJob(ctx, "example.com", []string{"tcp"})
	require.NoError(t, err)

	err = d.SubmitResult(ctx, task.NewID(j.ID, job.CheckTCP), true, "connected", "")
	require.NoError(t, err)

	got, err := coord.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, got.Status)
	assert.Equal(t, "connected", got.Results[job.CheckTCP].Output)
}

func TestSubmitResultUnknownJob(t *testing.T) {
	d, coord := newTestDistributor()
	ctx := context.Background()

	err := d.SubmitResult(ctx, "no-such-job_ping", true, "", "")
	assert.ErrorIs(t, err, job.ErrNotFound)

	// Store unchanged.
	jobs, err := coord.ListJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestSubmitResultMalformedTaskID(t *testing.T) {
	d, _ := newTestDistributor()

	for _, id := range []string{"", "noseparator", "job_smtp", "_ping", "job_"} {
		err := d.SubmitResult(context.Background(), id, true, "", "")
		assert.ErrorIs(t, err, job.ErrInvalidArgument, "task id %q", id)
	}
}

func TestSubmitResultDuplicateTolerated(t *testing.T) {
	d, coord := newTestDistributor()
	ctx := context.Background()

	j, err := coord.CreateJob(ctx, "example.com", []string{"ping"})
	require.NoError(t, err)

	id := task.NewID(j.ID, job.CheckPing)
	require.NoError(t, d.SubmitResult(ctx, id, true, "first", ""))
	require.NoError(t, d.SubmitResult(ctx, id, false, "retry", "net hiccup"))

	got, err := coord.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Results[job.CheckPing].Output)
	assert.True(t, got.Results[job.CheckPing].Success)
}
