package ctxutil

import (
	"context"
	"testing"
)

func TestActorFromContext(t *testing.T) {
	if got := ActorFromContext(context.Background()); got != SystemActor {
		t.Errorf("ActorFromContext(empty) = %q, want %q", got, SystemActor)
	}
	ctx := WithActorID(context.Background(), "user-42")
	if got := ActorFromContext(ctx); got != "user-42" {
		t.Errorf("ActorFromContext = %q, want user-42", got)
	}
}

func TestRunIDFromContext(t *testing.T) {
	if got := RunIDFromContext(context.Background()); got != "" {
		t.Errorf("RunIDFromContext(empty) = %q, want empty", got)
	}
	ctx := WithRunID(context.Background(), "run-1")
	if got := RunIDFromContext(ctx); got != "run-1" {
		t.Errorf("RunIDFromContext = %q, want run-1", got)
	}
}
