// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

package validation

import (
	"errors"
	"testing"

	"github.com/tomtom215/goalpost/internal/apperror"
)

type sample struct {
	Source string  `validate:"required,oneof=local extralife streamelements"`
	Amount float64 `validate:"gt=0"`
}

func TestValidateStruct_Valid(t *testing.T) {
	if err := ValidateStruct(sample{Source: "local", Amount: 5}); err != nil {
		t.Errorf("valid struct rejected: %v", err)
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   sample
	}{
		{"missing source", sample{Amount: 5}},
		{"bad source", sample{Source: "twitch", Amount: 5}},
		{"non-positive amount", sample{Source: "local", Amount: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.in)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("error should match ErrValidation, got %v", err)
			}
		})
	}
}

func TestValidateStruct_FieldNaming(t *testing.T) {
	err := ValidateStruct(sample{Source: "local"})
	var ve *apperror.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Field != "Amount" {
		t.Errorf("field = %q, want Amount", ve.Field)
	}
}
