package logsink

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

func TestNewLokiClient_URL(t *testing.T) {
	assert.Equal(t, "http://loki:3100/loki/api/v1/push",
		NewLokiClient("http://loki:3100/", "j", nil, time.Second).URL)
	assert.Equal(t, "http://loki:3100/loki/api/v1/push",
		NewLokiClient("http://loki:3100/loki/api/v1/push", "j", nil, time.Second).URL)
}

func TestLokiClient_Push(t *testing.T) {
	var got pushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pushPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewLokiClient(srv.URL, "qa_automation", map[string]string{"team": "qa", "env": "production"}, time.Second)
	at := time.Unix(1700000000, 42)
	err := c.Push(context.Background(), Record{Time: at, Level: LevelError, Message: "step failed", Env: "prod"})
	require.NoError(t, err)

	require.Len(t, got.Streams, 1)
	s := got.Streams[0]
	assert.Equal(t, map[string]string{
		"job":   "qa_automation",
		"env":   "prod",
		"level": "error",
		"team":  "qa",
	}, s.Stream)
	require.Len(t, s.Values, 1)
	assert.Equal(t, "1700000000000000042", s.Values[0][0])
	assert.Equal(t, "step failed", s.Values[0][1])
}

func TestLokiClient_EnvFallback(t *testing.T) {
	c := NewLokiClient("http://x", "j", map[string]string{"env": "production"}, time.Second)
	assert.Equal(t, "production", c.labels(Record{Level: LevelInfo})["env"])

	c = NewLokiClient("http://x", "j", nil, time.Second)
	assert.Equal(t, "global", c.labels(Record{Level: LevelInfo})["env"])
}

func TestLokiClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewLokiClient(srv.URL, "j", nil, time.Second).Push(context.Background(), Record{Level: LevelInfo})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
