// Package utils provides small shared helpers.
package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// Timer measures one operation's duration and logs it on Stop.
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
}

// NewTimer starts a timer for the named operation.
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
		log:   log,
	}
}

// Stop logs the measured duration and returns it. Large simulations take
// seconds legitimately; the warning only flags runs far past that.
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.start)

	t.log.Debug().
		Str("operation", t.name).
		Dur("duration", duration).
		Msg("Operation completed")

	if duration > 30*time.Second {
		t.log.Warn().
			Str("operation", t.name).
			Dur("duration", duration).
			Msg("Slow operation detected")
	}

	return duration
}
