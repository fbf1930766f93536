package ctxutil

import (
	"context"
	"testing"

	"github.com/example/mes/internal/core/authz"
	"github.com/example/mes/internal/models"
)

func TestCallerRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := CallerFromContext(ctx); ok {
		t.Fatal("empty context should carry no caller")
	}

	want := authz.Caller{UserID: 4, Email: "w@mes.com", Role: models.RoleWorker}
	got, ok := CallerFromContext(WithCaller(ctx, want))
	if !ok || got != want {
		t.Errorf("CallerFromContext = %+v, %v; want %+v", got, ok, want)
	}
}

func TestRequestID(t *testing.T) {
	if id := RequestIDFromContext(context.Background()); id != "" {
		t.Errorf("expected empty id, got %q", id)
	}
	if id := RequestIDFromContext(WithRequestID(context.Background(), "abc")); id != "abc" {
		t.Errorf("RequestIDFromContext = %q, want abc", id)
	}
}
