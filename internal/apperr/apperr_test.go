package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{NotFound("quiz not found"), http.StatusNotFound},
		{Conflict("learning is already in progress"), http.StatusConflict},
		{Invalid("answer is required"), http.StatusBadRequest},
		{Internal("save failed", errors.New("disk full")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.err.Status(); got != tt.want {
			t.Errorf("%s: Status() = %d, want %d", tt.err.Kind, got, tt.want)
		}
	}
}

func TestUserMessageThroughWrapping(t *testing.T) {
	err := fmt.Errorf("submit: %w", NotFound("quiz not found"))
	if got := UserMessage(err, "failed"); got != "quiz not found" {
		t.Errorf("UserMessage = %q", got)
	}
	if !IsKind(err, KindNotFound) || IsKind(err, KindConflict) {
		t.Error("IsKind should see through wrapping")
	}
	if got := UserMessage(errors.New("sql: connection refused"), "failed"); got != "failed" {
		t.Errorf("foreign errors must collapse to the fallback, got %q", got)
	}
}

func TestErrorText(t *testing.T) {
	err := Internal("save failed", errors.New("disk full"))
	if err.Error() != "save failed: disk full" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, err.Err) {
		t.Error("Unwrap should expose the cause")
	}
}
