package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sakachris/simpldb/internal/engine"
)

// openEngine opens the engine over the resolved config's data directory,
// creating the directory first if it doesn't exist yet (mirrors the
// teacher's init-then-open pattern for its storage backends).
func openEngine(ctx context.Context) (*engine.Engine, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory %q: %w", cfg.DataDir, err)
	}
	e, err := engine.Open(ctx, cfg.DataDir, cfg.Backend)
	if err != nil {
		return nil, fmt.Errorf("opening data directory %q: %w", cfg.DataDir, err)
	}
	return e, nil
}
