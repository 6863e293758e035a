package auth

import (
	"context"
	"testing"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()

	if _, ok := UserIDFromContext(ctx); ok {
		t.Fatal("empty context should carry no user")
	}

	ctx = ContextWithUser(ctx, " user-7 ")
	id, ok := UserIDFromContext(ctx)
	if !ok || id != "user-7" {
		t.Fatalf("unexpected user id: %q, ok=%v", id, ok)
	}

	if got := ContextWithUser(context.Background(), "  "); got != context.Background() {
		t.Fatal("blank user id should not be stored")
	}
}
