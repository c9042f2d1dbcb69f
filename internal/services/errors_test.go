package services_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"tubepulse/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "youtube", "videos.list", "batch failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"youtube", "videos.list", "batch failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{services.Wrap(services.ErrConfiguration, "builder", "discovery", "api key missing", nil), http.StatusInternalServerError},
		{services.Wrap(services.ErrValidation, "web", "top", "bad metric", nil), http.StatusBadRequest},
		{services.Wrap(services.ErrNotFound, "youtube", "channels.list", "unknown", nil), http.StatusNotFound},
		{services.Wrap(services.ErrTimeout, "youtube", "search", "deadline", nil), http.StatusGatewayTimeout},
		{errors.New("plain"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		if got := services.HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
