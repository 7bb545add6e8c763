package wal

import intobserve "github.com/backbone81/durable-kv/internal/observe"

// Observer is the callback which receives an event for every step of the writer and the publisher.
type Observer = intobserve.Observer

// Event describes a finished step.
type Event = intobserve.Event

// NewSlogObserver returns an observer which writes every event as a structured log record.
var NewSlogObserver = intobserve.NewSlogObserver
