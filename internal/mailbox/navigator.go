package mailbox

import (
	"context"
	"fmt"
)

// Navigator tracks the active folder and the per-folder badge
// counters. Counters are global per-folder totals fetched from the
// store; the list's search term never affects them.
type Navigator struct {
	store Store
	bus   *Bus

	active  Folder
	counts  FolderCounts
	loading bool
	err     error

	unsubscribe func()
}

// NewNavigator creates a navigator starting on the inbox and
// subscribes it to mailbox update events
func NewNavigator(store Store, bus *Bus) *Navigator {
	n := &Navigator{
		store:  store,
		bus:    bus,
		active: FolderInbox,
	}
	if bus != nil {
		n.unsubscribe = bus.Subscribe(func(ctx context.Context, _ UpdateEvent) {
			n.Refresh(ctx)
		})
	}
	return n
}

// Close detaches the navigator from the bus
func (n *Navigator) Close() {
	if n.unsubscribe != nil {
		n.unsubscribe()
		n.unsubscribe = nil
	}
}

// Select switches the active folder; it reports whether the folder
// changed
func (n *Navigator) Select(folder Folder) bool {
	if !ValidFolder(folder) || folder == n.active {
		return false
	}
	n.active = folder
	return true
}

// Active returns the current folder
func (n *Navigator) Active() Folder {
	return n.active
}

// Counts returns the last fetched badge counters
func (n *Navigator) Counts() FolderCounts {
	return n.counts
}

// Loading reports whether a counter refresh is in flight
func (n *Navigator) Loading() bool {
	return n.loading
}

// Err returns the error of the last refresh, nil after a success
func (n *Navigator) Err() error {
	return n.err
}

// Refresh refetches the badge counters. On failure the previous
// counters are kept and the error is surfaced inline.
func (n *Navigator) Refresh(ctx context.Context) {
	n.loading = true
	defer func() { n.loading = false }()

	counts, err := n.store.FolderCounts(ctx)
	if err != nil {
		n.err = fmt.Errorf("failed to refresh folder counters: %w", err)
		return
	}
	n.counts = *counts
	n.err = nil
}
