package cmd

import (
	"context"
	"fmt"
	"time"

	"dem-manager/core/grid"
	"dem-manager/core/provider"
)

const pollInterval = 200 * time.Millisecond

// waitFor calls try until it succeeds or ctx expires. Grid notifications from the provider
// wake it early; polling covers point queries, which do not create grids.
func waitFor(ctx context.Context, p *provider.Provider, try func() bool) error {
	wake := make(chan struct{}, 1)
	h := p.AddListener(provider.ListenerFunc(func(*grid.Grid) {
		select {
		case wake <- struct{}{}:
		default:
		}
	}))
	defer p.RemoveListener(h)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if try() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("elevation data not available: %w", ctx.Err())
		case <-wake:
		case <-ticker.C:
		}
	}
}
