package provider

import (
	"errors"
	"net/http"
	"testing"
)

func TestStatusError(t *testing.T) {
	base := errors.New("upstream said no")
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrQuotaExceeded},
	}
	for _, tt := range tests {
		err := StatusError(tt.status, base)
		if !errors.Is(err, tt.want) {
			t.Errorf("StatusError(%d) = %v, want %v", tt.status, err, tt.want)
		}
		if !errors.Is(err, base) {
			t.Errorf("StatusError(%d) lost the original error", tt.status)
		}
	}

	err := StatusError(http.StatusBadGateway, base)
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("502 must not be classified, got %v", err)
	}
}

func TestCredential(t *testing.T) {
	if got := Credential(&Request{APIKey: "user"}, "cfg"); got != "user" {
		t.Errorf("per-request key should win, got %q", got)
	}
	if got := Credential(&Request{}, "cfg"); got != "cfg" {
		t.Errorf("fallback expected, got %q", got)
	}
	if got := Credential(nil, "cfg"); got != "cfg" {
		t.Errorf("nil request should use fallback, got %q", got)
	}
}
