// Package slurm is the SLURM REST RMS adapter: POST /job/submit,
// DELETE /job/{id} and GET /ping, authenticated via
// X-SLURM-USER-NAME / X-SLURM-USER-TOKEN headers. The client does not call
// the /nodes, /config, /jobs or /diag endpoints.
//
// Grounded on jontk-slurm-client's http.go request/retry loop style
// (reimplemented here rather than imported, since that module is not a
// dependency of this one), using github.com/avast/retry-go in place of its
// hand-rolled attempt loop.
package slurm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-logr/logr"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
	"github.com/att/vrm/internal/vrmerr"
)

// Config carries the per-AcI SlurmRms fields.
type Config struct {
	BaseURL  string
	UserName string
	JwtToken string
}

// Client is the SLURM REST adapter implementing rms.RMS.
type Client struct {
	cfg Config
	hc  *http.Client
	log logr.Logger
}

func NewClient(cfg Config, log logr.Logger) *Client {
	return &Client{
		cfg: cfg,
		hc:  &http.Client{Timeout: 30 * time.Second},
		log: log,
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-SLURM-USER-NAME", c.cfg.UserName)
	req.Header.Set("X-SLURM-USER-TOKEN", c.cfg.JwtToken)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	return retry.Do(
		func() error {
			var reqBody io.Reader
			if body != nil {
				b, err := json.Marshal(body)
				if err != nil {
					return retry.Unrecoverable(err)
				}
				reqBody = bytes.NewReader(b)
			}
			req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			c.setHeaders(req)

			resp, err := c.hc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 {
				return fmt.Errorf("slurm %s %s: %s", method, path, resp.Status)
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(fmt.Errorf("slurm %s %s: %s", method, path, resp.Status))
			}
			if out != nil {
				if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
					return retry.Unrecoverable(err)
				}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(4),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
	)
}

type jobSubmitRequest struct {
	Name      string `json:"name"`
	Nodes     int64  `json:"nodes"`
	TimeLimit int64  `json:"time_limit_seconds"`
	TaskPath  string `json:"task_path,omitempty"`
}

type jobSubmitResponse struct {
	JobId string `json:"job_id"`
}

// Commit submits a job to SLURM for a reservation that has reached
// ReserveAnswer.
func (c *Client) Commit(ctx context.Context, r *model.Record) error {
	req := jobSubmitRequest{
		Name:      string(r.Id),
		Nodes:     r.ReservedCapacity,
		TimeLimit: r.TaskDuration,
	}
	if r.Node != nil {
		req.TaskPath = r.Node.TaskPath
	}

	var resp jobSubmitResponse
	if err := c.do(ctx, http.MethodPost, "/job/submit", req, &resp); err != nil {
		return vrmerr.NewRmsError("slurm", "submit", err.Error())
	}
	c.log.V(1).Info("slurm job submitted", "reservation", r.Id, "job_id", resp.JobId)
	return nil
}

// Delete issues a SLURM job cancellation.
func (c *Client) Delete(ctx context.Context, id ids.ReservationId) error {
	if err := c.do(ctx, http.MethodDelete, "/job/"+string(id), nil, nil); err != nil {
		return vrmerr.NewRmsError("slurm", "delete", err.Error())
	}
	return nil
}

// Ping checks SLURM REST reachability via GET /ping.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/ping", nil, nil); err != nil {
		return vrmerr.NewRmsError("slurm", "ping", err.Error())
	}
	return nil
}
