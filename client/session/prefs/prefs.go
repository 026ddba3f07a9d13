// Package prefs provides the durable key-value storage behind the
// session store. One logical save replaces the whole blob in a single
// durable operation, so saves never interleave with clears at field
// granularity.
package prefs

import "context"

// Store is a process-local durable key-value blob.
type Store interface {
	// Load returns the persisted values, or an empty map when nothing
	// has been saved yet.
	Load(ctx context.Context) (map[string]string, error)
	// Save durably replaces the whole blob.
	Save(ctx context.Context, values map[string]string) error
	// Clear durably erases the blob. No-op when nothing is persisted.
	Clear(ctx context.Context) error
}
