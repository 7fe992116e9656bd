package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/NordCoder/Proberus/internal/domain/agent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRegistry keys on token the same way the postgres repository does.
type fakeRegistry struct {
	nextID  int64
	byToken map[string]*agent.Agent
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{byToken: make(map[string]*agent.Agent)}
}

func (f *fakeRegistry) Upsert(_ context.Context, a *agent.Agent) (int64, error) {
	if existing, ok := f.byToken[a.Token]; ok {
		existing.Name = a.Name
		existing.Location = a.Location
		existing.IP = a.IP
		existing.Status = a.Status
		existing.LastHeartbeat = nil
		return existing.ID, nil
	}
	f.nextID++
	cp := *a
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	f.byToken[a.Token] = &cp
	return cp.ID, nil
}

func (f *fakeRegistry) GetByToken(_ context.Context, token string) (*agent.Agent, error) {
	a, ok := f.byToken[token]
	if !ok {
		return nil, agent.ErrNotFound
	}
	return a, nil
}

func (f *fakeRegistry) Heartbeat(_ context.Context, id int64) error {
	for _, a := range f.byToken {
		if a.ID == id {
			now := time.Now()
			a.LastHeartbeat = &now
			a.Status = agent.StatusActive
			return nil
		}
	}
	return agent.ErrNotFound
}

func (f *fakeRegistry) List(_ context.Context) ([]*agent.Agent, error) {
	out := make([]*agent.Agent, 0, len(f.byToken))
	for _, a := range f.byToken {
		out = append(out, a)
	}
	return out, nil
}

func newAgentService() (*AgentService, *fakeRegistry) {
	reg := newFakeRegistry()
	return &AgentService{Log: zap.NewNop(), Registry: reg}, reg
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAgentService()
	ctx := context.Background()

	cases := []struct {
		name, location, ip, token string
	}{
		{"", "DE, Berlin", "1.2.3.4", "tok"},
		{"probe-1", "", "1.2.3.4", "tok"},
		{"probe-1", "DE, Berlin", "", "tok"},
		{"probe-1", "DE, Berlin", "1.2.3.4", ""},
	}
	for _, c := range cases {
		_, err := svc.Register(ctx, c.name, c.location, c.ip, c.token)
		assert.ErrorIs(t, err, agent.ErrInvalidArgument)
	}
}

func TestRegisterIsUpsertByToken(t *testing.T) {
	svc, reg := newAgentService()
	ctx := context.Background()

	id1, err := svc.Register(ctx, "probe-1", "DE, Berlin", "1.2.3.4", "tok-a")
	require.NoError(t, err)

	// Same token re-registers the same agent, even under a new name.
	id2, err := svc.Register(ctx, "probe-1-restarted", "DE, Berlin", "1.2.3.5", "tok-a")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	a, err := reg.GetByToken(ctx, "tok-a")
	require.NoError(t, err)
	assert.Equal(t, "probe-1-restarted", a.Name)
	assert.Equal(t, "1.2.3.5", a.IP)
	assert.Equal(t, agent.StatusAwaitingHeartbeat, a.Status)

	id3, err := svc.Register(ctx, "probe-2", "NL, Amsterdam", "5.6.7.8", "tok-b")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}

func TestReRegisterResetsLiveness(t *testing.T) {
	svc, reg := newAgentService()
	ctx := context.Background()

	id, err := svc.Register(ctx, "probe-1", "DE, Berlin", "1.2.3.4", "tok-a")
	require.NoError(t, err)
	_, err = svc.Heartbeat(ctx, id, "")
	require.NoError(t, err)

	a, err := reg.GetByToken(ctx, "tok-a")
	require.NoError(t, err)
	require.Equal(t, agent.StatusActive, a.Status)

	// A restarted agent re-registers with its old token: it must wait for a
	// fresh heartbeat before counting as alive again.
	id2, err := svc.Register(ctx, "probe-1", "DE, Berlin", "1.2.3.4", "tok-a")
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	a, err = reg.GetByToken(ctx, "tok-a")
	require.NoError(t, err)
	assert.Equal(t, agent.StatusAwaitingHeartbeat, a.Status)
	assert.Nil(t, a.LastHeartbeat)
}

func TestHeartbeatByID(t *testing.T) {
	svc, reg := newAgentService()
	ctx := context.Background()

	id, err := svc.Register(ctx, "probe-1", "DE, Berlin", "1.2.3.4", "tok-a")
	require.NoError(t, err)

	got, err := svc.Heartbeat(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	a, err := reg.GetByToken(ctx, "tok-a")
	require.NoError(t, err)
	assert.Equal(t, agent.StatusActive, a.Status)
	require.NotNil(t, a.LastHeartbeat)
}

func TestHeartbeatByToken(t *testing.T) {
	svc, _ := newAgentService()
	ctx := context.Background()

	id, err := svc.Register(ctx, "probe-1", "DE, Berlin", "1.2.3.4", "tok-a")
	require.NoError(t, err)

	got, err := svc.Heartbeat(ctx, 0, "tok-a")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestHeartbeatUnknown(t *testing.T) {
	svc, _ := newAgentService()
	ctx := context.Background()

	_, err := svc.Heartbeat(ctx, 0, "")
	assert.ErrorIs(t, err, agent.ErrInvalidArgument)

	_, err = svc.Heartbeat(ctx, 0, "no-such-token")
	assert.ErrorIs(t, err, agent.ErrNotFound)

	_, err = svc.Heartbeat(ctx, 42, "")
	assert.ErrorIs(t, err, agent.ErrNotFound)
}
