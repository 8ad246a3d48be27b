package pipeline

// LogLevel classifies a Scheduler diagnostic event.
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogWarn
	LogError
)

// LogEvent is one diagnostic emitted by the Scheduler while running a
// layer or batch. LayerIndex is -1 when the event isn't about a specific
// layer.
type LogEvent struct {
	Level      LogLevel
	Msg        string
	LayerIndex int
}

// LogFunc receives Scheduler diagnostics. A nil LogFunc is valid and
// silently discards events; the Scheduler never blocks on it.
type LogFunc func(LogEvent)
