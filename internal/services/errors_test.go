package services_test

import (
	"errors"
	"strings"
	"testing"

	"marquee/internal/services"
)

func TestWrapTagsMarkerAndDetail(t *testing.T) {
	base := errors.New("connection refused")
	err := services.Wrap(services.ErrUnavailable, "jellyfin", "sessions", "poll failed", base)

	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected marker to survive wrapping: %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected cause to survive wrapping: %v", err)
	}
	for _, want := range []string{"jellyfin", "sessions", "poll failed", "connection refused"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in error text, got %q", want, err.Error())
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "discord", "set activity", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker default: %v", err)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"transient", services.Wrap(services.ErrTransient, "discord", "dial", "", nil), true},
		{"unavailable", services.Wrap(services.ErrUnavailable, "jellyfin", "sessions", "", nil), true},
		{"validation", services.Wrap(services.ErrValidation, "config", "load", "", nil), false},
		{"not found", services.Wrap(services.ErrNotFound, "jellyfin", "resolve user", "", nil), false},
		{"configuration", services.Wrap(services.ErrConfiguration, "config", "validate", "", nil), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.Retryable(tc.err); got != tc.want {
				t.Fatalf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
