package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kilnhq/kiln/pkg/log"
	"github.com/kilnhq/kiln/pkg/metrics"
	"github.com/kilnhq/kiln/pkg/retry"
	"github.com/kilnhq/kiln/pkg/types"
)

// Prober confirms a freshly started service answers HTTP before the
// orchestrator declares success. Success means exactly HTTP 200; anything
// else, including a refused connection, counts as "not ready yet" until the
// attempt budget runs out.
type Prober struct {
	// Policy bounds the probe loop. The default fleet policy is 12
	// attempts at 10s intervals, a two-minute budget.
	Policy retry.Policy

	// Client issues the probe requests. A short per-request timeout keeps
	// one hung attempt from eating the whole budget.
	Client *http.Client

	// Diagnostics, when set, fetches recent service logs after the budget
	// is exhausted, so the terminal failure carries something actionable.
	Diagnostics func(ctx context.Context) string
}

// NewProber creates a prober with the given policy.
func NewProber(policy retry.Policy) *Prober {
	return &Prober{
		Policy: policy,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Probe polls url until it returns HTTP 200 or the policy is exhausted.
// Exhaustion logs the service diagnostics and fails with HealthCheckFailed.
func (p *Prober) Probe(ctx context.Context, url string) error {
	logger := log.WithComponent("health")

	err := p.Policy.Do(ctx, func(attempt int) (retry.Outcome, error) {
		outcome := p.attempt(ctx, url, attempt)

		switch {
		case outcome.ConnectionFailed:
			metrics.HealthAttemptsTotal.WithLabelValues("connection_failed").Inc()
			logger.Info().Int("attempt", attempt).Int("max_attempts", p.Policy.MaxAttempts).
				Str("url", url).Msg("service not reachable yet")
			return retry.Again, fmt.Errorf("connection failed on attempt %d", attempt)

		case outcome.HTTPStatus != http.StatusOK:
			metrics.HealthAttemptsTotal.WithLabelValues("bad_status").Inc()
			logger.Info().Int("attempt", attempt).Int("status", outcome.HTTPStatus).
				Str("url", url).Msg("service answered with non-200 status")
			return retry.Again, fmt.Errorf("got HTTP %d on attempt %d", outcome.HTTPStatus, attempt)

		default:
			metrics.HealthAttemptsTotal.WithLabelValues("ok").Inc()
			logger.Info().Int("attempt", attempt).Str("url", url).Msg("service is healthy")
			return retry.Done, nil
		}
	})
	if err == nil {
		return nil
	}

	if p.Diagnostics != nil {
		if tail := p.Diagnostics(ctx); tail != "" {
			logger.Error().Str("service_logs", tail).Msg("recent service logs")
		}
	}

	return types.NewStageError(types.KindHealthCheckFailed, "verify",
		fmt.Errorf("no HTTP 200 from %s after %d attempts: %w", url, p.Policy.MaxAttempts, err))
}

// attempt issues one synchronous GET and classifies the result.
func (p *Prober) attempt(ctx context.Context, url string, n int) types.HealthCheckOutcome {
	outcome := types.HealthCheckOutcome{Attempt: n}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		outcome.ConnectionFailed = true
		return outcome
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		outcome.ConnectionFailed = true
		return outcome
	}
	defer resp.Body.Close()

	outcome.HTTPStatus = resp.StatusCode
	return outcome
}
