//go:build !cgo

package tracking

import (
	"context"
)

// IsCgoEnabled indicates whether CGO is enabled for SQLite support
const IsCgoEnabled = false

// LocalTracker is unavailable without cgo; every method reports ErrCgoDisabled
type LocalTracker struct{}

// NewLocalTracker always fails when CGO is disabled
func NewLocalTracker(string) (*LocalTracker, error) {
	return nil, ErrCgoDisabled
}

// Record implements Recorder
func (t *LocalTracker) Record(context.Context, Event) error {
	return ErrCgoDisabled
}

// Recent returns ErrCgoDisabled
func (t *LocalTracker) Recent(context.Context, int) ([]Event, error) {
	return nil, ErrCgoDisabled
}

// CountByOutcome returns ErrCgoDisabled
func (t *LocalTracker) CountByOutcome(context.Context) (map[Outcome]int, error) {
	return nil, ErrCgoDisabled
}

// Close does nothing
func (t *LocalTracker) Close() error {
	return nil
}
