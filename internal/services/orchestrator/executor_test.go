package orchestrator

import (
	"context"
	"sync"
	"testing"

	"github.com/NordCoder/Proberus/internal/domain/job"
	"github.com/NordCoder/Proberus/internal/probes"
	"github.com/NordCoder/Proberus/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	mu    sync.Mutex
	runs  []job.CheckType
	fail  map[job.CheckType]bool
	panic map[job.CheckType]bool
}

func (f *fakeRunner) Run(t job.CheckType, target string) probes.Report {
	f.mu.Lock()
	f.runs = append(f.runs, t)
	f.mu.Unlock()
	if f.panic[t] {
		panic("boom")
	}
	if f.fail[t] {
		return probes.Report{Success: false, Text: "probe failed"}
	}
	return probes.Report{Success: true, Text: "probe ok"}
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runs)
}

func newTestCoordinator(t *testing.T, runner ProbeRunner) (*Coordinator, *memory.JobStore) {
	t.Helper()
	store := memory.NewJobStore()
	coord := &Coordinator{Log: zap.NewNop(), Store: store}
	coord.Exec = NewExecutor(zap.NewNop(), store, coord, runner, ExecutorConfig{Workers: 2})
	return coord, store
}

func TestExecutorRunsAllChecks(t *testing.T) {
	runner := &fakeRunner{}
	coord, _ := newTestCoordinator(t, runner)

	j, err := coord.CreateJob(context.Background(), "example.com", []string{"dns", "tcp"})
	require.NoError(t, err)
	assert.Equal(t, job.StatusQueued, j.Status)

	coord.Exec.Close()

	got, err := coord.GetJob(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, got.Status)
	assert.Len(t, got.Results, 2)
	assert.True(t, got.Results[job.CheckDNS].Success)
	assert.True(t, got.Results[job.CheckTCP].Success)
	assert.Equal(t, 2, runner.count())
}

func TestExecutorProbeFailureIsData(t *testing.T) {
	runner := &fakeRunner{fail: map[job.CheckType]bool{job.CheckTCP: true}}
	coord, _ := newTestCoordinator(t, runner)

	j, err := coord.CreateJob(context.Background(), "example.com", []string{"tcp"})
	require.NoError(t, err)

	coord.Exec.Close()

	got, err := coord.GetJob(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, got.Status)
	res := got.Results[job.CheckTCP]
	assert.False(t, res.Success)
	assert.Equal(t, "probe failed", res.Output)
	assert.Empty(t, res.Error)
}

func TestExecutorRecoversProbePanic(t *testing.T) {
	runner := &fakeRunner{panic: map[job.CheckType]bool{job.CheckPing: true}}
	coord, _ := newTestCoordinator(t, runner)

	j, err := coord.CreateJob(context.Background(), "example.com", []string{"ping"})
	require.NoError(t, err)

	coord.Exec.Close()

	got, err := coord.GetJob(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, got.Status)
	res := got.Results[job.CheckPing]
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "probe panic")
}

func TestExecutorSkipsResolvedPairs(t *testing.T) {
	runner := &fakeRunner{}
	store := memory.NewJobStore()
	coord := &Coordinator{Log: zap.NewNop(), Store: store}

	j, err := coord.CreateJob(context.Background(), "example.com", []string{"ping", "dns"})
	require.NoError(t, err)

	// An agent resolves ping before the executor ever sees the job.
	_, err = coord.RecordResult(context.Background(), j.ID, job.CheckResult{Type: job.CheckPing, Success: true})
	require.NoError(t, err)

	exec := NewExecutor(zap.NewNop(), store, coord, runner, ExecutorConfig{Workers: 1})
	fresh, err := store.Get(context.Background(), j.ID)
	require.NoError(t, err)
	exec.Dispatch(context.Background(), fresh)
	exec.Close()

	assert.Equal(t, []job.CheckType{job.CheckDNS}, runner.runs)

	got, err := store.Get(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, got.Status)
}

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingRunner) Run(job.CheckType, string) probes.Report {
	close(b.started)
	<-b.release
	return probes.Report{Success: true, Text: "ok"}
}

func TestExecutorEagerInProgress(t *testing.T) {
	runner := &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
	store := memory.NewJobStore()
	coord := &Coordinator{Log: zap.NewNop(), Store: store}
	coord.Exec = NewExecutor(zap.NewNop(), store, coord, runner, ExecutorConfig{Workers: 1})

	j, err := coord.CreateJob(context.Background(), "example.com", []string{"dns"})
	require.NoError(t, err)

	// Work is running but no result has landed yet: the job must not look
	// queued during that window.
	<-runner.started
	got, err := store.Get(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusInProgress, got.Status)
	assert.Empty(t, got.Results)

	close(runner.release)
	coord.Exec.Close()

	got, err = store.Get(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, got.Status)
}
