package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

var errSample = New(KindConflict, "SAMPLE", "sample conflict")

func TestIsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", Wrap(errSample, errors.New("pq: duplicate key")))
	if !errors.Is(wrapped, errSample) {
		t.Fatal("expected wrapped error to match sentinel")
	}
	if errors.Is(wrapped, ErrForbidden) {
		t.Fatal("unexpected match with different code")
	}
}

func TestStatusAndMessage(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"conflict", errSample, http.StatusConflict, "sample conflict"},
		{"validation", Validation("email required"), http.StatusBadRequest, "email required"},
		{"upstream", Upstream("upload failed", errors.New("timeout")), http.StatusBadGateway, "upload failed"},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "authentication required"},
		{"plain", errors.New("connection reset by peer"), http.StatusInternalServerError, "internal server error"},
		{"internal kind", New(KindInternal, "X", "secret detail"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.err); got != tt.status {
				t.Fatalf("status = %d, want %d", got, tt.status)
			}
			if got := PublicMessage(tt.err); got != tt.message {
				t.Fatalf("message = %q, want %q", got, tt.message)
			}
		})
	}
}
