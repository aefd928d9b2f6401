package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilnhq/kiln/pkg/log"
	"github.com/kilnhq/kiln/pkg/retry"
	"github.com/kilnhq/kiln/pkg/types"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel})
}

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{MaxAttempts: attempts, Interval: time.Millisecond}
}

func TestProbe_HealthyImmediately(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	prober := NewProber(fastPolicy(12))
	require.NoError(t, prober.Probe(context.Background(), server.URL))
}

func TestProbe_SucceedsOnLastAttempt(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 12 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	prober := NewProber(fastPolicy(12))
	require.NoError(t, prober.Probe(context.Background(), server.URL))
	assert.Equal(t, int32(12), hits.Load())
}

func TestProbe_ExhaustsAttempts(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	prober := NewProber(fastPolicy(12))
	err := prober.Probe(context.Background(), server.URL)

	require.Error(t, err)
	assert.Equal(t, types.KindHealthCheckFailed, types.KindOf(err))
	assert.Equal(t, int32(12), hits.Load(), "exactly maxAttempts probes must be issued")
}

func TestProbe_ConnectionRefusedRetries(t *testing.T) {
	// A server that is not listening at all: connection-level failures are
	// "not ready yet", so the prober must keep retrying, not abort.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	url := server.URL
	server.Close()

	prober := NewProber(fastPolicy(3))
	err := prober.Probe(context.Background(), url)

	require.Error(t, err)
	assert.Equal(t, types.KindHealthCheckFailed, types.KindOf(err))
}

func TestProbe_Non200IsNotSuccess(t *testing.T) {
	// 204 would pass a range check; the contract is exactly 200.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	prober := NewProber(fastPolicy(2))
	err := prober.Probe(context.Background(), server.URL)

	require.Error(t, err)
	assert.Equal(t, types.KindHealthCheckFailed, types.KindOf(err))
}

func TestProbe_DiagnosticsFetchedOnExhaustion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	fetched := false
	prober := NewProber(fastPolicy(2))
	prober.Diagnostics = func(ctx context.Context) string {
		fetched = true
		return "journal tail"
	}

	err := prober.Probe(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, fetched, "diagnostics must be pulled after exhaustion")
}

func TestProbe_DiagnosticsNotFetchedOnSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	fetched := false
	prober := NewProber(fastPolicy(2))
	prober.Diagnostics = func(ctx context.Context) string {
		fetched = true
		return ""
	}

	require.NoError(t, prober.Probe(context.Background(), server.URL))
	assert.False(t, fetched)
}
