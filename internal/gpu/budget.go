package gpu

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// DefaultHeadroomBytes is reserved out of reported VRAM for the display
// compositor and driver before any batch is admitted (2.5 GiB).
const DefaultHeadroomBytes int64 = 2684354560

// Budget tracks a weighted resource (VRAM or host memory) using a
// semaphore so reservation is "current+delta<=budget, atomically,
// rolling back on failure" without a hand-rolled counter and lock.
type Budget struct {
	sem   *semaphore.Weighted
	total int64
}

// NewBudget creates a budget of totalBytes after subtracting headroom.
// A non-positive result clamps to zero (no concurrent work admitted).
func NewBudget(totalBytes, headroomBytes int64) *Budget {
	avail := totalBytes - headroomBytes
	if avail < 0 {
		avail = 0
	}
	return &Budget{sem: semaphore.NewWeighted(avail), total: avail}
}

// TotalBytes returns the usable budget after headroom.
func (b *Budget) TotalBytes() int64 { return b.total }

// TryReserve attempts to admit delta bytes, returning false immediately
// (never blocking) if it would exceed the budget.
func (b *Budget) TryReserve(delta int64) bool {
	if delta <= 0 {
		return true
	}
	return b.sem.TryAcquire(delta)
}

// Reserve blocks until delta bytes are available or ctx is cancelled.
func (b *Budget) Reserve(ctx context.Context, delta int64) error {
	if delta <= 0 {
		return nil
	}
	return b.sem.Acquire(ctx, delta)
}

// Release returns delta bytes to the budget.
func (b *Budget) Release(delta int64) {
	if delta <= 0 {
		return
	}
	b.sem.Release(delta)
}
