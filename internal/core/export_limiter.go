package core

// export_limiter.go bounds the number of spreadsheet exports built at once.
//
// An XLSX workbook is assembled in memory, so a burst of export requests
// against a large sheet can hold several copies of it. Slots are a buffered
// channel; a request that cannot get one within maxWait fails with
// ErrExportBusy. WaitForDrain lets shutdown wait for in-flight exports.

import (
	"context"
	"errors"
	"time"
)

// ErrExportBusy is returned when every export slot stays taken for the
// whole wait period. Clients should retry after a short delay.
var ErrExportBusy = errors.New("too many concurrent exports")

const (
	DefaultMaxConcurrentExports = 2
	DefaultExportWait           = 10 * time.Second
)

// ExportLimiter is a counting semaphore for export requests.
type ExportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
}

// NewExportLimiter allows at most maxConcurrent exports. Non-positive
// arguments select the defaults.
func NewExportLimiter(maxConcurrent int, maxWait time.Duration) *ExportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentExports
	}
	if maxWait <= 0 {
		maxWait = DefaultExportWait
	}
	return &ExportLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to the limiter's maxWait.
// The caller must Release the slot when the export is written.
func (l *ExportLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrExportBusy
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *ExportLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *ExportLimiter) Release() {
	<-l.slots
}

// Active returns the number of slots in use.
func (l *ExportLimiter) Active() int {
	return len(l.slots)
}

// WaitForDrain blocks until no export is running or ctx is done.
func (l *ExportLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.Active() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ExportLimiterStatus is a point-in-time view for /healthz.
type ExportLimiterStatus struct {
	Active        int `json:"active"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *ExportLimiter) Status() ExportLimiterStatus {
	return ExportLimiterStatus{Active: len(l.slots), MaxConcurrent: cap(l.slots)}
}
