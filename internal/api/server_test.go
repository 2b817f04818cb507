package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devoid00/creto-votes/internal/pipeline"
	"github.com/devoid00/creto-votes/internal/telemetry"
	"github.com/devoid00/creto-votes/internal/votes"
)

type fakeStatus struct {
	snapshot pipeline.RunStatus
}

func (f *fakeStatus) Status() pipeline.RunStatus { return f.snapshot }

func get(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := get(t, NewServer(&fakeStatus{}, nil), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	rec := get(t, NewServer(&fakeStatus{}, nil), "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestMetricsServesPrometheusText(t *testing.T) {
	telemetry.Init()
	telemetry.ObserveProbe("found")

	rec := get(t, NewServer(&fakeStatus{}, nil), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "votes_house_probes_total")
}

func TestRunStatusReturnsSnapshot(t *testing.T) {
	t.Parallel()

	src := &fakeStatus{snapshot: pipeline.RunStatus{
		RunID:     "run-1",
		StartedAt: "2025-03-01T12:00:00Z",
		Targets: []pipeline.TargetStatus{
			{
				Target: votes.Target{Congress: 119, Chamber: votes.ChamberSenate, Session: 1},
				State:  pipeline.StateCollected,
				Count:  45,
			},
		},
	}}

	rec := get(t, NewServer(src, nil), "/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var got pipeline.RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "run-1", got.RunID)
	require.Len(t, got.Targets, 1)
	require.Equal(t, 45, got.Targets[0].Count)
	require.Equal(t, votes.ChamberSenate, got.Targets[0].Target.Chamber)
}

func TestUnknownRouteIs404(t *testing.T) {
	t.Parallel()

	rec := get(t, NewServer(&fakeStatus{}, nil), "/v1/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
