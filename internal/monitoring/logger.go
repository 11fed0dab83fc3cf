// Package monitoring holds the diagnostic sinks used by the analysis
// pipeline: a swappable printf-style logger and Prometheus stage metrics.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests usually mute it with SetLogger(nil).
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// RunLogf logs a message tagged with the pipeline run name, e.g.
// "[ds-smc-F] sensitivity: 1203 -> 1187".
func RunLogf(run, format string, v ...interface{}) {
	Logf("["+run+"] "+format, v...)
}
