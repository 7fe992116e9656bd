package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBaseURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"http://localhost:8080", "http://localhost:8080"},
		{"localhost:8080", "http://localhost:8080"},
		{"https://orchestrator.example.com/", "https://orchestrator.example.com"},
		{"  http://host/base/ ", "http://host/base"},
	}
	for _, c := range cases {
		got, err := normalizeBaseURL(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	_, err := normalizeBaseURL("")
	assert.Error(t, err)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("http://localhost:8080", "", 0)
	assert.Error(t, err)

	_, err = NewClient("", "tok", 0)
	assert.Error(t, err)
}

func TestClientRegisterAndSubmit(t *testing.T) {
	var gotRegister, gotHeartbeat, gotResult map[string]json.RawMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/api/agents":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRegister))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"agent_id": 7, "status": "created"}`))
		case "/api/agents/heartbeat":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotHeartbeat))
			_, _ = w.Write([]byte(`{"status": "updated", "agent_id": 7}`))
		case "/api/agent/tasks":
			_, _ = w.Write([]byte(`{"tasks": [{"id": "j1_ping", "job_id": "j1", "type": "ping", "target": "example.com"}]}`))
		case "/api/agent/results":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotResult))
			_, _ = w.Write([]byte(`{"status": "received", "task_id": "j1_ping"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "tok-1", 5*time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	id, err := c.Register(ctx, "probe-1", "DE, Berlin", "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.JSONEq(t, `"tok-1"`, string(gotRegister["token"]))
	assert.JSONEq(t, `"probe-1"`, string(gotRegister["name"]))

	require.NoError(t, c.Heartbeat(ctx))
	assert.JSONEq(t, `7`, string(gotHeartbeat["agent_id"]))
	assert.JSONEq(t, `"tok-1"`, string(gotHeartbeat["token"]))

	tasks, err := c.PullTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "j1_ping", tasks[0].ID)
	assert.Equal(t, "example.com", tasks[0].Target)

	require.NoError(t, c.SubmitResult(ctx, tasks[0].ID, true, "4 packets, 0% loss", ""))
	assert.JSONEq(t, `"j1_ping"`, string(gotResult["task_id"]))
	assert.JSONEq(t, `7`, string(gotResult["agent_id"]))
}

func TestClientSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"invalid argument"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "tok-1", 5*time.Second)
	require.NoError(t, err)

	_, err = c.Register(context.Background(), "probe-1", "loc", "1.2.3.4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
