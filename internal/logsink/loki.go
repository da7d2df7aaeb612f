package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const pushPath = "/loki/api/v1/push"

// LokiClient pushes records to the Loki HTTP push API. Each record becomes a
// single-entry stream labelled job, env and level plus any extra labels.
type LokiClient struct {
	URL    string
	Job    string
	Labels map[string]string
	Client *http.Client
}

// NewLokiClient builds a client for baseURL, which may be the server root or
// the full push endpoint.
func NewLokiClient(baseURL, job string, labels map[string]string, timeout time.Duration) *LokiClient {
	u := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(u, pushPath) {
		u += pushPath
	}
	return &LokiClient{
		URL:    u,
		Job:    job,
		Labels: labels,
		Client: &http.Client{Timeout: timeout},
	}
}

type pushRequest struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

func (c *LokiClient) labels(rec Record) map[string]string {
	out := make(map[string]string, len(c.Labels)+3)
	for k, v := range c.Labels {
		out[k] = v
	}
	out["job"] = c.Job
	if rec.Env != "" {
		out["env"] = rec.Env
	} else if _, ok := out["env"]; !ok {
		out["env"] = "global"
	}
	out["level"] = string(rec.Level)
	return out
}

func (c *LokiClient) Push(ctx context.Context, rec Record) error {
	body, err := json.Marshal(pushRequest{Streams: []stream{{
		Stream: c.labels(rec),
		Values: [][2]string{{strconv.FormatInt(rec.Time.UnixNano(), 10), rec.Message}},
	}}})
	if err != nil {
		return fmt.Errorf("encoding loki push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building loki request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("pushing to loki: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("loki push returned HTTP %d", resp.StatusCode)
	}
	return nil
}
