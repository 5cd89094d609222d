package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "invalid", err: Invalid("reason is required"), want: KindInvalid},
		{name: "not found", err: NotFound("appointment not found"), want: KindNotFound},
		{name: "forbidden", err: Forbidden("slot already taken"), want: KindForbidden},
		{name: "conflict", err: Conflict("email already registered"), want: KindConflict},
		{name: "internal", err: Internal("search failed", cause), want: KindInternal},
		{name: "wrapped", err: fmt.Errorf("create: %w", NotFound("x")), want: KindNotFound},
		{name: "plain error", err: cause, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInternalKeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New("pq: relation does not exist")
	err := Internal("failed to search appointments", cause)

	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable with errors.Is")
	}
	if got := Message(err); got != "failed to search appointments" {
		t.Fatalf("Message = %q, want %q", got, "failed to search appointments")
	}
	if got := err.Error(); got != "failed to search appointments: pq: relation does not exist" {
		t.Fatalf("Error = %q", got)
	}
}
