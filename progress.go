package voxelshift

// Phase identifies which pipeline stage a ProgressUpdate was published
// from, for phased-mode runs. Per-layer mode always reports PhaseLayer.
type Phase int

const (
	PhaseLayer Phase = iota
	PhaseDecodeBatch
	PhaseScanlineBatch
	PhaseCompressBatch
)

// ProgressUpdate is published by the scheduler after each completed layer
// (or batch, in phased mode), coalesced to at most one update per ~200ms.
type ProgressUpdate struct {
	Phase   Phase
	Current int
	Total   int
	Workers int
}

// ProgressSink receives ProgressUpdate notifications from worker threads.
// Implementations must be safe to call concurrently; the core does not
// serialize calls on the caller's behalf. A nil sink is valid and is
// treated as a no-op.
type ProgressSink func(ProgressUpdate)

// LogSink is a plain-text diagnostic line callback, independent of
// Options.Logger. Convert takes no LogSink; its diagnostics go only to
// Options.Logger.
type LogSink func(line string)
