package engine

import (
	"context"

	"tidy/internal/organizer"
)

// EventType distinguishes the notifications sent by Start.
type EventType string

const (
	EventStage    EventType = "stage"
	EventProgress EventType = "progress"
	EventDone     EventType = "done"
)

// Stage is a phase of an organize run.
type Stage string

const (
	StageBackup   Stage = "backup"
	StageOrganize Stage = "organize"
)

// Message is the status line shown while the stage runs.
func (s Stage) Message() string {
	switch s {
	case StageBackup:
		return "Creating backup..."
	case StageOrganize:
		return "Organizing files..."
	}
	return string(s)
}

// Event is one notification from a background run. The final event has
// Type EventDone and carries the Outcome (possibly nil) and error.
type Event struct {
	Type     EventType
	Stage    Stage
	Message  string
	Progress organizer.Progress
	Outcome  *Outcome
	Err      error
}

// eventBuffer lets the worker run ahead of a slow consumer.
const eventBuffer = 64

// Start runs an organize on a new goroutine. The returned channel receives
// stage and progress events, then exactly one EventDone, and is then closed.
// The consumer must drain the channel.
func (e *Engine) Start(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event, eventBuffer)
	go func() {
		defer close(events)
		out, err := e.organize(ctx, req, func(ev Event) { events <- ev })
		events <- Event{Type: EventDone, Outcome: out, Err: err}
	}()
	return events
}

// Wait drains events and returns the final outcome.
func Wait(events <-chan Event) (*Outcome, error) {
	var (
		out *Outcome
		err error
	)
	for ev := range events {
		if ev.Type == EventDone {
			out, err = ev.Outcome, ev.Err
		}
	}
	return out, err
}
