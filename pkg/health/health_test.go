package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passingCheck() CheckFunc {
	return func(_ context.Context) error {
		return nil
	}
}

func failingCheck(msg string) CheckFunc {
	return func(_ context.Context) error {
		return errors.New(msg)
	}
}

func TestLiveEndpoint_AllPassing(t *testing.T) {
	h := New()
	h.AddLivenessCheck("check1", time.Second, passingCheck())
	h.AddLivenessCheck("check2", time.Second, passingCheck())

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	w := httptest.NewRecorder()

	h.LiveEndpoint(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body statusResponse
	err := json.NewDecoder(w.Body).Decode(&body)
	require.NoError(t, err)
	assert.Equal(t, "ok", body.Status)
}

func TestLiveEndpoint_FailingCheck(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, failingCheck("connection refused"))

	// Checks start healthy; drive the failure threshold (3 consecutive
	// failures) before the state flips.
	ctx := context.Background()
	h.livenessChecks[0].run(ctx)
	h.livenessChecks[0].run(ctx)
	h.livenessChecks[0].run(ctx)

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	w := httptest.NewRecorder()

	h.LiveEndpoint(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body statusResponse
	err := json.NewDecoder(w.Body).Decode(&body)
	require.NoError(t, err)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["db"])
}

func TestFailureThreshold(t *testing.T) {
	h := New()
	h.AddLivenessCheck("flaky", time.Second, failingCheck("boom"))
	c := h.livenessChecks[0]

	ctx := context.Background()

	// Below the threshold the check stays healthy.
	c.run(ctx)
	assert.True(t, c.isHealthy())
	c.run(ctx)
	assert.True(t, c.isHealthy())

	// Third consecutive failure flips it.
	c.run(ctx)
	assert.False(t, c.isHealthy())
}

func TestSuccessThreshold(t *testing.T) {
	h := New()

	fail := true
	h.AddLivenessCheck("recovering", time.Second, func(_ context.Context) error {
		if fail {
			return errors.New("down")
		}
		return nil
	})
	c := h.livenessChecks[0]

	ctx := context.Background()
	for range 3 {
		c.run(ctx)
	}
	require.False(t, c.isHealthy())

	// One success is enough to recover.
	fail = false
	c.run(ctx)
	assert.True(t, c.isHealthy())
}

func TestReadyEndpoint_NotReadyUntilSet(t *testing.T) {
	h := New()
	h.AddReadinessCheck("db", time.Second, passingCheck())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	h.SetReady(true)

	w = httptest.NewRecorder()
	h.ReadyEndpoint(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, h.IsReady())

	// Draining flips it back.
	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestIsReady_FailingReadinessCheck(t *testing.T) {
	h := New()
	h.AddReadinessCheck("db", time.Second, failingCheck("no route to host"))
	h.SetReady(true)

	require.True(t, h.IsReady())

	ctx := context.Background()
	for range 3 {
		h.readinessChecks[0].run(ctx)
	}

	assert.False(t, h.IsReady())
}

func TestStartAndStop(t *testing.T) {
	h := New()
	h.AddLivenessCheck("fail-fast", time.Second, failingCheck("oops"))

	h.Start(context.Background(), 10*time.Millisecond)
	defer h.Stop()

	// Threshold is 3, interval 10ms; wait for the flip.
	assert.Eventually(t, func() bool {
		return !h.livenessChecks[0].isHealthy()
	}, time.Second, 10*time.Millisecond)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(_ context.Context) error { return p.err }

func TestPingCheck(t *testing.T) {
	require.NoError(t, PingCheck(fakePinger{})(context.Background()))

	err := PingCheck(fakePinger{err: errors.New("pool closed")})(context.Background())
	require.Error(t, err)
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	require.Error(t, GoroutineCountCheck(0)(context.Background()))
}
