package treeview

import (
	"context"
	"time"
)

const (
	DefaultRefetchInterval = 5 * time.Second
	DefaultTickInterval    = 60 * time.Second
)

// Watcher keeps a page fresh: placements are re-fetched every
// RefetchInterval and the reveal gate re-evaluated every TickInterval.
// Viewers may see a list up to one interval stale; the last fetch wins.
type Watcher struct {
	loader          *Loader
	RefetchInterval time.Duration
	TickInterval    time.Duration

	// OnUpdate receives a copy of the page after every refresh or tick.
	OnUpdate func(*Page)
}

func NewWatcher(loader *Loader) *Watcher {
	return &Watcher{
		loader:          loader,
		RefetchInterval: DefaultRefetchInterval,
		TickInterval:    DefaultTickInterval,
	}
}

// Run owns page until ctx is cancelled, then stops both tickers and
// returns ctx.Err(). Callers must not touch page while Run is active.
func (w *Watcher) Run(ctx context.Context, page *Page) error {
	refetch := time.NewTicker(w.RefetchInterval)
	defer refetch.Stop()
	tick := time.NewTicker(w.TickInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-refetch.C:
			w.loader.Refresh(ctx, page)
		case <-tick.C:
			w.loader.Tick(page)
		}
		// A refresh interrupted by cancellation is not reported.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if w.OnUpdate != nil {
			w.OnUpdate(page.clone())
		}
	}
}
