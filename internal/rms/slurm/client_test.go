package slurm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/att/vrm/internal/ids"
	"github.com/att/vrm/internal/model"
)

func TestClient_Commit_SubmitsJob(t *testing.T) {
	var gotPath, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		gotUser = req.Header.Get("X-SLURM-USER-NAME")
		assert.Equal(t, http.MethodPost, req.Method)
		_ = json.NewEncoder(w).Encode(jobSubmitResponse{JobId: "job-1"})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, UserName: "alice"}, logr.Discard())
	r := &model.Record{
		Base: model.Base{Id: ids.ReservationId("r1"), ReservedCapacity: 4, TaskDuration: 120},
		Node: &model.NodeExtra{TaskPath: "/bin/job"},
	}

	require.NoError(t, c.Commit(context.Background(), r))
	assert.Equal(t, "/job/submit", gotPath)
	assert.Equal(t, "alice", gotUser)
}

func TestClient_Commit_ServerErrorBecomesRmsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, logr.Discard())
	r := &model.Record{Base: model.Base{Id: ids.ReservationId("r1")}}

	err := c.Commit(context.Background(), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slurm")
}

func TestClient_Delete_IssuesCancellation(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotMethod = req.Method
		gotPath = req.URL.Path
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, logr.Discard())
	require.NoError(t, c.Delete(context.Background(), ids.ReservationId("r1")))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/job/r1", gotPath)
}

func TestClient_Ping_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/ping", req.URL.Path)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, logr.Discard())
	assert.NoError(t, c.Ping(context.Background()))
}

func TestClient_Ping_UnreachableServerReturnsError(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:0"}, logr.Discard())
	err := c.Ping(context.Background())
	assert.Error(t, err)
}
