package gpu

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Open-Resin-Alliance/VoxelShift-sub000/internal/errkind"
)

// Preference selects which backend the Router should activate.
type Preference int

const (
	PreferAuto Preference = iota
	PreferOpenCL
	PreferCUDA
	PreferMetal
	PreferCPUOnly
)

// maxConsecutiveFallbacks is how many times a backend may fail in a row
// before the Router disables it for the remainder of the run.
const maxConsecutiveFallbacks = 3

// Router selects and owns the active GPU backend, tracking per-backend
// failures so a flaky backend is dropped rather than retried forever.
type Router struct {
	mu       sync.Mutex
	backends []Backend // priority order for PreferAuto, excluding cpu
	cpu      Backend
	logger   LogFunc

	active         Backend
	fallbackStreak map[string]int
	disabled       map[string]bool
	fallbackTotal  int
}

// NewRouter builds a Router from the supplied candidate backends (any
// priority order usable by PreferAuto) and a CPU backend used as the
// terminal fallback.
func NewRouter(candidates []Backend, cpu Backend) *Router {
	return &Router{
		backends:       candidates,
		cpu:            cpu,
		fallbackStreak: make(map[string]int),
		disabled:       make(map[string]bool),
	}
}

// SetLogger installs fn to receive Warn diagnostics on backend fallback
// and disablement. A nil fn (the default) discards them.
func (r *Router) SetLogger(fn LogFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = fn
}

func (r *Router) logWarn(msg, backend string) {
	if r.logger != nil {
		r.logger(LogEvent{Level: LogWarn, Msg: msg, Backend: backend})
	}
}

// Select activates a backend per pref, falling back to CPU when nothing
// else is available or eligible (disabled by prior failures, or refuses
// to Init). Returns the backend now active.
func (r *Router) Select(pref Preference) (Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pref == PreferCPUOnly {
		r.active = r.cpu
		return r.active, nil
	}

	if b := r.explicit(pref); b != nil {
		if r.tryActivate(b) {
			return r.active, nil
		}
		r.active = r.cpu
		return r.active, nil
	}

	for _, b := range r.autoOrder() {
		if r.tryActivate(b) {
			return r.active, nil
		}
	}
	r.active = r.cpu
	return r.active, nil
}

// explicit returns the single backend pref names, or nil for auto/cpu-only.
func (r *Router) explicit(pref Preference) Backend {
	for _, b := range r.backends {
		switch pref {
		case PreferOpenCL:
			if b.Name() == "opencl" {
				return b
			}
		case PreferCUDA:
			if b.Name() == "cuda" {
				return b
			}
		case PreferMetal:
			if b.Name() == "metal" {
				return b
			}
		}
	}
	return nil
}

// autoOrder implements the auto-selection priority: Metal on Apple,
// else CUDA when it reports tensor cores, else OpenCL, else whatever is
// left, each tried in turn until one activates.
func (r *Router) autoOrder() []Backend {
	var metal, cuda, opencl, rest []Backend
	for _, b := range r.backends {
		switch v := b.(type) {
		case *MetalBackend:
			if runtime.GOOS == "darwin" {
				metal = append(metal, b)
			} else {
				rest = append(rest, b)
			}
		case *CUDABackend:
			if v.HasTensorCores {
				cuda = append(cuda, b)
			} else {
				rest = append(rest, b)
			}
		case interface{ Name() string }:
			if v.Name() == "opencl" {
				opencl = append(opencl, b)
			} else {
				rest = append(rest, b)
			}
		}
	}
	order := append([]Backend{}, metal...)
	order = append(order, cuda...)
	order = append(order, opencl...)
	order = append(order, rest...)
	return order
}

// tryActivate attempts Available+Init on b; returns false (leaving r.active
// untouched) if b is unavailable, disabled, or fails to initialize.
func (r *Router) tryActivate(b Backend) bool {
	if r.disabled[b.Name()] || !b.Available() {
		return false
	}
	if err := b.Init(); err != nil {
		return false
	}
	r.active = b
	return true
}

// Active returns the currently selected backend, or nil if Select has
// not been called yet.
func (r *Router) Active() Backend {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// RecordFailure notes a runtime failure (allocation, kernel launch,
// synchronization) on the currently active backend, returning the CPU
// backend the caller should fall back to for this batch. After
// maxConsecutiveFallbacks failures in a row the backend is disabled for
// the remainder of the run and subsequent Select calls skip it.
func (r *Router) RecordFailure(kind error) Backend {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil || r.active == r.cpu {
		return r.cpu
	}
	name := r.active.Name()
	r.fallbackStreak[name]++
	r.fallbackTotal++
	r.logWarn(fmt.Sprintf("backend %s failed, falling back to cpu: %v", name, kind), name)
	if r.fallbackStreak[name] >= maxConsecutiveFallbacks {
		r.disabled[name] = true
		r.logWarn(fmt.Sprintf("backend %s disabled after %d consecutive failures", name, maxConsecutiveFallbacks), name)
	}
	return r.cpu
}

// RecordSuccess clears the active backend's fallback streak.
func (r *Router) RecordSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		r.fallbackStreak[r.active.Name()] = 0
	}
}

// TotalFallbacks returns how many times RecordFailure has been called
// across the run's lifetime, for analytics telemetry.
func (r *Router) TotalFallbacks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fallbackTotal
}

// IsDisabled reports whether name has been disabled for this run.
func (r *Router) IsDisabled(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disabled[name]
}

// MaxConcurrentLayers delegates to the active backend, or returns an
// error if Select has not yet picked one.
func (r *Router) MaxConcurrentLayers(srcWidth, height, outWidth, channels int) (int, error) {
	r.mu.Lock()
	active := r.active
	r.mu.Unlock()
	if active == nil {
		return 0, fmt.Errorf("%w: no backend selected", errkind.BackendUnavailable)
	}
	return active.MaxConcurrentLayers(srcWidth, height, outWidth, channels), nil
}
