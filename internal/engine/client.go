package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/evolution-ecosystem/bridge/internal/model"
)

var (
	// ErrUnavailable indicates the engine could not be reached or the
	// circuit breaker is open.
	ErrUnavailable = errors.New("optimization engine unavailable")

	// ErrJobNotFound indicates the engine has no job with the given id.
	ErrJobNotFound = errors.New("engine job not found")

	// ErrJobRejected indicates the engine refused the job specification.
	ErrJobRejected = errors.New("engine rejected job")
)

// JobSpec is the work order submitted to the engine for one run.
type JobSpec struct {
	Objective  model.Objective  `json:"objective"`
	Parameters model.Parameters `json:"parameters"`
	// CallbackRef labels progress callbacks so the bridge can correlate
	// them without trusting engine-side state.
	CallbackRef string `json:"callback_ref,omitempty"`
}

// JobAck is the engine's acceptance of a submitted job.
type JobAck struct {
	JobID string `json:"job_id"`
}

// JobStatus is the engine's view of a job, polled by the run poller.
type JobStatus struct {
	JobID       string   `json:"job_id"`
	Status      string   `json:"status"`
	Generation  int      `json:"generation"`
	BestFitness *float64 `json:"best_fitness,omitempty"`
	MeanFitness *float64 `json:"mean_fitness,omitempty"`
	Diversity   *float64 `json:"diversity,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// Client talks to the optimization engine over HTTP. All calls run inside
// a circuit breaker: after 3 consecutive failures the breaker opens for
// 30 seconds and calls fail fast with ErrUnavailable.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// Config holds engine client settings.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// NewClient creates an engine client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "optimization-engine",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// BreakerState reports the circuit breaker state for the health endpoint.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Submit asks the engine to start an optimization job.
func (c *Client) Submit(ctx context.Context, spec JobSpec) (*JobAck, error) {
	var ack JobAck
	err := c.call(ctx, http.MethodPost, "/jobs", spec, &ack)
	if err != nil {
		return nil, err
	}
	if ack.JobID == "" {
		return nil, fmt.Errorf("%w: empty job id", ErrJobRejected)
	}
	return &ack, nil
}

// Status fetches the engine's current view of a job.
func (c *Client) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	var status JobStatus
	err := c.call(ctx, http.MethodGet, "/jobs/"+jobID, nil, &status)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Cancel asks the engine to stop a job. Cancelling an already finished
// job is not an error on the engine side.
func (c *Client) Cancel(ctx context.Context, jobID string) error {
	return c.call(ctx, http.MethodPost, "/jobs/"+jobID+"/cancel", nil, nil)
}

func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, method, path, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: circuit open", ErrUnavailable)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrJobNotFound
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrJobRejected, readDetail(resp.Body))
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: engine returned %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 300:
		return fmt.Errorf("unexpected engine response %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// readDetail pulls a short error description out of an engine error body.
func readDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 1024))
	if err != nil || len(data) == 0 {
		return "no detail"
	}
	var parsed struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil {
		if parsed.Detail != "" {
			return parsed.Detail
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return string(data)
}
