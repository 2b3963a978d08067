// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

/*
client.go - Extra Life API Client

Read-only client for the Extra Life fundraising API. Shared resilience
posture with the StreamElements client:

  - Circuit breaker (sony/gobreaker): opens at >=60% failures over at
    least 5 requests, 1 minute measurement window, 2 minute recovery
  - Rate limiter (golang.org/x/time/rate): 1 request/second burst 3,
    polite ceiling well above any sane poll interval
  - Context support on every call

Failures surface as apperror.ExternalAPIError; the poller keeps last-known
good data and stays on its normal interval, so an outage degrades the
overlay to slightly stale numbers instead of blanking it.
*/

package extralife

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/goalpost/internal/apperror"
	"github.com/tomtom215/goalpost/internal/config"
	"github.com/tomtom215/goalpost/internal/logging"
	"github.com/tomtom215/goalpost/internal/metrics"
	elmodels "github.com/tomtom215/goalpost/internal/models/extralife"
)

// maxErrorBodySize caps how much of an error response body is read for
// diagnostics.
const maxErrorBodySize = 16 * 1024

const platformName = "extralife"

// Client talks to the Extra Life API.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	limiter *rate.Limiter
}

// NewClient creates a client from configuration.
func NewClient(cfg config.ExtraLifeConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: newBreaker(platformName),
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
}

// newBreaker builds the client's circuit breaker.
func newBreaker(platform string) *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(platform).Set(0)
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        platform,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("platform", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// GetParticipant fetches the participant summary: current donation sum,
// fundraising goal, and the event the participant is registered for.
func (c *Client) GetParticipant(ctx context.Context, participantID int) (*elmodels.Participant, error) {
	var p elmodels.Participant
	path := fmt.Sprintf("/participants/%d", participantID)
	if err := c.get(ctx, path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetDonations fetches the participant's donation list, newest first as
// served by the API.
func (c *Client) GetDonations(ctx context.Context, participantID int) ([]elmodels.Donation, error) {
	var donations []elmodels.Donation
	path := fmt.Sprintf("/participants/%d/donations", participantID)
	if err := c.get(ctx, path, &donations); err != nil {
		return nil, err
	}
	return donations, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperror.ExternalAPI(platformName, 0, err)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
			return nil, apperror.ExternalAPI(platformName, resp.StatusCode,
				fmt.Errorf("GET %s: %s", path, string(snippet)))
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		if _, ok := err.(*apperror.ExternalAPIError); ok {
			return err
		}
		return apperror.ExternalAPI(platformName, 0, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperror.ExternalAPI(platformName, 0, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}
