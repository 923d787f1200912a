package logger

// Logger exposes leveled logging to the engine packages. Implementations
// live under infra; core packages depend only on this interface.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	// Infow logs a message with structured fields, used for per-node
	// exclusion records keyed by region/node/year.
	Infow(msg string, fields map[string]any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Nop discards all log output. Engine components accept it when callers
// pass a nil logger.
type Nop struct{}

func (Nop) Debugf(string, ...any)       {}
func (Nop) Infof(string, ...any)        {}
func (Nop) Infow(string, map[string]any) {}
func (Nop) Warnf(string, ...any)        {}
func (Nop) Errorf(string, ...any)       {}
