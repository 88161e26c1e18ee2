package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"outreach/internal/activity"
	"outreach/internal/campaign"
	"outreach/internal/control"
	"outreach/internal/core"
	"outreach/internal/fixtures"
	"outreach/internal/launch"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testServer struct {
	handler http.Handler
	store   *campaign.Store
	feed    *activity.Feed
}

func newTestServer(t *testing.T, cfg launch.Config) *testServer {
	t.Helper()
	store := campaign.NewStore()
	require.NoError(t, fixtures.Seed(store, fixtures.Default()))
	feed := activity.NewFeed()
	sim := launch.NewSimulator(store, cfg, launch.WithNotifier(feed))
	surface := control.NewSurface(store, sim, control.WithNotifier(feed))
	t.Cleanup(func() {
		sim.Close()
		feed.Close()
	})
	return &testServer{
		handler: NewRouter(NewHandler(surface, feed), nil),
		store:   store,
		feed:    feed,
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   errorPayload    `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		require.NoError(t, json.NewEncoder(buf).Encode(body))
		reader = buf
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, launch.Config{})
	rec, env := s.do(t, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t, launch.Config{})
	req := httptest.NewRequest(http.MethodGet, "/v1/campaigns/99", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "req-123", env.Error.RequestID)
}

func TestListCampaigns(t *testing.T) {
	s := newTestServer(t, launch.Config{})
	rec, env := s.do(t, http.MethodGet, "/v1/campaigns", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeData[[]campaignDTO](t, env)
	require.Len(t, list, 3)
	assert.Equal(t, "Enterprise Q1 Outreach", list[0].Name)
	assert.Equal(t, 60, list[0].Delivery.SendIntervalSeconds)
	assert.Equal(t, "business", list[0].Delivery.SendWindow)
}

func TestStepEditing(t *testing.T) {
	s := newTestServer(t, launch.Config{})

	rec, env := s.do(t, http.MethodPost, "/v1/campaigns/2/steps", campaign.Step{Type: campaign.StepLinkedInFollowup, Subject: "Nudge", Delay: 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	c := decodeData[campaignDTO](t, env)
	require.Len(t, c.Steps, 3)
	assert.Equal(t, "Nudge", c.Steps[2].Subject)

	rec, env = s.do(t, http.MethodDelete, "/v1/campaigns/2/steps/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	c = decodeData[campaignDTO](t, env)
	assert.Equal(t, "Case Study: 3x Pipeline Growth", c.Steps[0].Subject)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t, launch.Config{})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown campaign", http.MethodGet, "/v1/campaigns/99", nil, http.StatusNotFound, "not_found"},
		{"non-numeric id", http.MethodGet, "/v1/campaigns/abc", nil, http.StatusUnprocessableEntity, "invalid_input"},
		{"index out of range", http.MethodDelete, "/v1/campaigns/2/steps/5", nil, http.StatusUnprocessableEntity, "invalid_input"},
		{"bad step type", http.MethodPost, "/v1/campaigns/2/steps", map[string]any{"type": "fax", "subject": "x"}, http.StatusUnprocessableEntity, "invalid_input"},
		{"draft to paused", http.MethodPut, "/v1/campaigns/2/status", statusRequest{Status: "Paused"}, http.StatusConflict, "invalid_transition"},
		{"unknown status", http.MethodPut, "/v1/campaigns/2/status", statusRequest{Status: "Archived"}, http.StatusUnprocessableEntity, "invalid_input"},
		{"launch active", http.MethodPost, "/v1/campaigns/1/launch", launchRequest{Throttle: 150}, http.StatusConflict, "invalid_transition"},
		{"throttle out of range", http.MethodPost, "/v1/campaigns/2/launch", launchRequest{Throttle: 9999}, http.StatusUnprocessableEntity, "invalid_input"},
		{"bad delivery", http.MethodPut, "/v1/campaigns/2/delivery", deliveryDTO{Throttle: 100, SendWindow: "weekends"}, http.StatusUnprocessableEntity, "invalid_input"},
		{"unknown launch", http.MethodGet, "/v1/launches/nope", nil, http.StatusNotFound, "not_found"},
		{"empty name", http.MethodPost, "/v1/campaigns", createCampaignRequest{Name: "  "}, http.StatusUnprocessableEntity, "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "error", env.Status)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestInvalidJSON(t *testing.T) {
	s := newTestServer(t, launch.Config{})
	req := httptest.NewRequest(http.MethodPost, "/v1/campaigns", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_json")
}

func TestLaunchAndWait(t *testing.T) {
	s := newTestServer(t, launch.Config{TickInterval: 0})

	rec, env := s.do(t, http.MethodPost, "/v1/campaigns/2/launch?wait=true", launchRequest{Throttle: 200})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decodeData[launch.Snapshot](t, env)
	assert.Equal(t, launch.StateCompleted, snap.State)
	assert.Equal(t, 100, snap.Progress)
	assert.Equal(t, 200, snap.Throttle)

	rec, env = s.do(t, http.MethodGet, "/v1/campaigns/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	c := decodeData[campaignDTO](t, env)
	assert.Equal(t, campaign.StatusActive, c.Status)
	assert.Equal(t, 200, c.Delivery.Throttle)

	rec, env = s.do(t, http.MethodGet, "/v1/campaigns/2/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decodeData[[]campaign.Transition](t, env)
	require.Len(t, history, 1)
	assert.Equal(t, campaign.StatusActive, history[0].To)
}

func TestLaunchTimeoutMapsTo504(t *testing.T) {
	s := newTestServer(t, launch.Config{TickInterval: 20 * time.Millisecond, MaxDuration: 30 * time.Millisecond})

	rec, env := s.do(t, http.MethodPost, "/v1/campaigns/2/launch?wait=true", nil)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "launch_timeout", env.Error.Code)
}

func TestAsyncLaunchCancel(t *testing.T) {
	s := newTestServer(t, launch.Config{TickInterval: time.Hour})

	rec, env := s.do(t, http.MethodPost, "/v1/campaigns/3/launch", launchRequest{Throttle: 150})
	require.Equal(t, http.StatusAccepted, rec.Code)
	snap := decodeData[launch.Snapshot](t, env)
	require.NotEmpty(t, snap.ID)

	rec, env = s.do(t, http.MethodPost, "/v1/campaigns/3/launch", launchRequest{Throttle: 150})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_launching", env.Error.Code)

	rec, env = s.do(t, http.MethodPost, "/v1/campaigns/3/steps", campaign.Step{Type: campaign.StepEmail, Subject: "x"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "campaign_busy", env.Error.Code)

	rec, env = s.do(t, http.MethodPut, "/v1/campaigns/3/status", statusRequest{Status: "Active"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "campaign_busy", env.Error.Code)

	rec, _ = s.do(t, http.MethodDelete, "/v1/launches/"+snap.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var state launch.State
	for deadline := time.Now().Add(time.Second); time.Now().Before(deadline); time.Sleep(time.Millisecond) {
		_, env := s.do(t, http.MethodGet, "/v1/launches/"+snap.ID, nil)
		if state = decodeData[launch.Snapshot](t, env).State; state != launch.StateRunning {
			break
		}
	}
	assert.Equal(t, launch.StateCancelled, state)

	c, err := s.store.Get(3)
	require.NoError(t, err)
	assert.Equal(t, campaign.StatusPaused, c.Status)

	rec, env = s.do(t, http.MethodGet, "/v1/launches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]launch.Snapshot](t, env), 1)
}

func TestPauseAndActivity(t *testing.T) {
	s := newTestServer(t, launch.Config{})

	rec, env := s.do(t, http.MethodPost, "/v1/campaigns/1/pause", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, campaign.StatusPaused, decodeData[campaignDTO](t, env).Status)

	require.Eventually(t, func() bool { return len(s.feed.Notices()) == 1 }, time.Second, time.Millisecond)

	rec, env = s.do(t, http.MethodGet, "/v1/activity", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeData[struct {
		Notices []core.Notice `json:"notices"`
		Total   int           `json:"total"`
	}](t, env)
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Notices, 1)
	assert.Equal(t, "Campaign paused", body.Notices[0].Message)
}

func TestSelection(t *testing.T) {
	s := newTestServer(t, launch.Config{})

	rec, env := s.do(t, http.MethodGet, "/v1/selection", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeData[campaignDTO](t, env).ID)

	rec, env = s.do(t, http.MethodPut, "/v1/selection", selectRequest{CampaignID: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Re-engagement Series", decodeData[campaignDTO](t, env).Name)

	rec, _ = s.do(t, http.MethodPut, "/v1/selection", selectRequest{CampaignID: 42})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSelectionLaunchAndPause(t *testing.T) {
	s := newTestServer(t, launch.Config{TickInterval: 0})

	rec, _ := s.do(t, http.MethodPut, "/v1/selection", selectRequest{CampaignID: 3})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := s.do(t, http.MethodPost, "/v1/selection/launch", launchRequest{Throttle: 90})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := decodeData[campaignDTO](t, env)
	assert.Equal(t, 3, c.ID)
	assert.Equal(t, campaign.StatusActive, c.Status)
	assert.Equal(t, 90, c.Delivery.Throttle)

	rec, env = s.do(t, http.MethodPost, "/v1/selection/pause", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, campaign.StatusPaused, decodeData[campaignDTO](t, env).Status)

	rec, _ = s.do(t, http.MethodPut, "/v1/selection", selectRequest{CampaignID: 2})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, env = s.do(t, http.MethodPost, "/v1/selection/pause", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", env.Error.Code)
}

func TestLaunchWithEmptyChunkedBody(t *testing.T) {
	s := newTestServer(t, launch.Config{TickInterval: 0})

	req := httptest.NewRequest(http.MethodPost, "/v1/campaigns/2/launch?wait=true", strings.NewReader(""))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	snap := decodeData[launch.Snapshot](t, env)
	assert.Equal(t, launch.StateCompleted, snap.State)
	assert.Equal(t, campaign.DefaultThrottle, snap.Throttle)

	rec, _ = s.do(t, http.MethodPost, "/v1/campaigns/3/launch", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestCreateAndDelivery(t *testing.T) {
	s := newTestServer(t, launch.Config{})

	rec, env := s.do(t, http.MethodPost, "/v1/campaigns", createCampaignRequest{Name: "Outbound", Contacts: 12})
	require.Equal(t, http.StatusCreated, rec.Code)
	c := decodeData[campaignDTO](t, env)
	assert.Equal(t, 4, c.ID)
	assert.Equal(t, campaign.StatusDraft, c.Status)

	rec, env = s.do(t, http.MethodPut, "/v1/campaigns/4/delivery", deliveryDTO{Throttle: 80, SendIntervalSeconds: 300, SendWindow: "extended"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, deliveryDTO{Throttle: 80, SendIntervalSeconds: 300, SendWindow: "extended"}, decodeData[campaignDTO](t, env).Delivery)
}
