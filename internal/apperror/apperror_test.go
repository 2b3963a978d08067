// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"validation", Validation("amount", "must be positive"), ErrValidation},
		{"not found", NotFound("donor", "grace"), ErrNotFound},
		{"external api", ExternalAPI("extralife", 502, errors.New("bad gateway")), ErrExternalAPI},
		{"persistence", Persistence("put goal state", errors.New("disk full")), ErrPersistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", tt.err)
			}
			// Wrapping must not break sentinel matching.
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("wrapped error lost sentinel match: %v", wrapped)
			}
		})
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	if errors.Is(Validation("x", "y"), ErrNotFound) {
		t.Error("validation error matched ErrNotFound")
	}
	if errors.Is(NotFound("donor", "x"), ErrValidation) {
		t.Error("not-found error matched ErrValidation")
	}
}

func TestExternalAPIError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := ExternalAPI("streamelements", 0, cause)
	if !errors.Is(err, cause) {
		t.Error("ExternalAPIError should unwrap to its cause")
	}

	var apiErr *ExternalAPIError
	if !errors.As(err, &apiErr) {
		t.Fatal("errors.As failed for ExternalAPIError")
	}
	if apiErr.Platform != "streamelements" || apiErr.StatusCode != 0 {
		t.Errorf("unexpected fields: %+v", apiErr)
	}
}

func TestMessages(t *testing.T) {
	if got := Validation("", "malformed document").Error(); got != "validation failed: malformed document" {
		t.Errorf("unexpected message: %q", got)
	}
	if got := NotFound("donation", "2026-03-18T15:04:05Z").Error(); got != `donation "2026-03-18T15:04:05Z" not found` {
		t.Errorf("unexpected message: %q", got)
	}
}
