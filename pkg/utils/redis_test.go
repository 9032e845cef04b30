package utils

import (
	"context"
	"testing"
	"time"
)

func TestFixedWindowScriptCompiles(t *testing.T) {
	// Compile-time smoke test: script should be initialized.
	if fixedWindowScript == nil {
		t.Fatalf("expected script to be initialized")
	}
}

func TestAllowFixedWindow_ArgValidation(t *testing.T) {
	ctx := context.Background()
	if _, err := AllowFixedWindow(ctx, nil, "k", 1, time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
