// Package observe carries the instrumentation hooks of the log writer and the atomic publisher.
//
// The durability code never logs on its own. It reports every major step as an Event to an injected Observer, and
// callers decide what happens with it. Discard is the default and makes the instrumentation disappear completely.
package observe

import (
	"context"
	"log/slog"
	"time"
)

// Step names a single step of a durable operation.
type Step string

const (
	// Steps of the log writer.
	StepOpen     Step = "open"
	StepWrite    Step = "write"
	StepSync     Step = "sync"
	StepTruncate Step = "truncate"
	StepAppend   Step = "append"
	StepClose    Step = "close"

	// Steps of the atomic publisher. The publisher reuses StepWrite and StepSync for its temporary file.
	StepStart         Step = "start"
	StepTemporaryName Step = "temporary-name"
	StepRename        Step = "rename"
	StepDirectorySync Step = "directory-sync"
	StepDone          Step = "done"
	StepRemove        Step = "remove"
)

// Event describes a finished step.
type Event struct {
	// Component is the emitter, like "wal" or "atomicfile".
	Component string

	Step Step

	// Path is the file the step worked on.
	Path string

	// Offset is the position in the file the step started at, if applicable.
	Offset int64

	// Bytes is the number of bytes the step processed, if applicable.
	Bytes int

	Duration time.Duration

	// Err is the error the step failed with. It is nil for successful steps.
	Err error
}

// Observer is the callback which receives events.
type Observer func(event Event)

// Discard is an observer which does nothing.
var Discard Observer = func(event Event) {}

// Tee returns an observer forwarding every event to all given observers.
func Tee(observers ...Observer) Observer {
	return func(event Event) {
		for _, observer := range observers {
			observer(event)
		}
	}
}

// NewSlogObserver returns an observer which writes every event as a structured log record. Failed steps are
// logged at error level, completed operations at info level and intermediate steps at debug level.
func NewSlogObserver(logger *slog.Logger) Observer {
	return func(event Event) {
		level := slog.LevelDebug
		switch {
		case event.Err != nil:
			level = slog.LevelError
		case event.Step == StepAppend || event.Step == StepDone || event.Step == StepOpen || event.Step == StepClose:
			level = slog.LevelInfo
		}

		attrs := []slog.Attr{
			slog.String("component", event.Component),
			slog.String("step", string(event.Step)),
			slog.String("path", event.Path),
		}
		if event.Offset != 0 {
			attrs = append(attrs, slog.Int64("offset", event.Offset))
		}
		if event.Bytes != 0 {
			attrs = append(attrs, slog.Int("bytes", event.Bytes))
		}
		if event.Duration != 0 {
			attrs = append(attrs, slog.Duration("duration", event.Duration))
		}
		if event.Err != nil {
			attrs = append(attrs, slog.String("error", event.Err.Error()))
		}
		logger.LogAttrs(context.Background(), level, event.Component+" "+string(event.Step), attrs...)
	}
}
