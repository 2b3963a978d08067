// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

/*
client.go - StreamElements Session API Client

Bearer-token client for the StreamElements session API. GetSession reads
the rolling event lists and period counters; ResetGoals zeroes the period
counters at a week/month boundary so the platform's numbers restart with
the new accounting window.

Resilience matches the Extra Life client: circuit breaker, rate limiter,
context on every call, ExternalAPIError on any failure.
*/

package streamelements

import (
	"bytes"
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
	semodels "github.com/tomtom215/goalpost/internal/models/streamelements"
	"github.com/tomtom215/goalpost/internal/period"
)

const maxErrorBodySize = 16 * 1024

const platformName = "streamelements"

// Client talks to the StreamElements session API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	limiter *rate.Limiter
}

// NewClient creates a client from configuration. The JWT token is passed
// through as supplied; no auth flow is performed here.
func NewClient(cfg config.StreamElementsConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.JWTToken,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: newBreaker(platformName),
		limiter: rate.NewLimiter(rate.Limit(1), 3),
	}
}

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

// GetSession fetches the channel's session document.
func (c *Client) GetSession(ctx context.Context, channelID string) (*semodels.Session, error) {
	body, err := c.do(ctx, http.MethodGet, "/sessions/"+channelID, nil)
	if err != nil {
		return nil, err
	}
	var session semodels.Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, apperror.ExternalAPI(platformName, 0, fmt.Errorf("decode session: %w", err))
	}
	return &session, nil
}

// ResetGoals zeroes the period goal counters for the given accounting
// period. Called at most once per calendar boundary by the poller.
func (c *Client) ResetGoals(ctx context.Context, channelID string, p period.Period) error {
	suffix := "-month"
	if p == period.Week {
		suffix = "-week"
	}
	reset := map[string]semodels.Summary{
		"subscriber" + suffix: {Amount: 0},
		"cheer" + suffix:      {Amount: 0},
		"tip" + suffix:        {Amount: 0},
	}
	payload, err := json.Marshal(reset)
	if err != nil {
		return apperror.ExternalAPI(platformName, 0, err)
	}

	if _, err := c.do(ctx, http.MethodPut, "/sessions/"+channelID, payload); err != nil {
		return err
	}
	metrics.GoalResets.Inc()
	logging.Info().Str("channel", channelID).Str("period", string(p)).Msg("goal counters reset")
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.ExternalAPI(platformName, 0, err)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
			return nil, apperror.ExternalAPI(platformName, resp.StatusCode,
				fmt.Errorf("%s %s: %s", method, path, string(snippet)))
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		if _, ok := err.(*apperror.ExternalAPIError); ok {
			return nil, err
		}
		return nil, apperror.ExternalAPI(platformName, 0, err)
	}
	return body, nil
}
