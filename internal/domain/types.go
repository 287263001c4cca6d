package domain

// JobStatus tracks the lifecycle of a single transcription job.
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusError   JobStatus = "error"
)

// Terminal reports whether a status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// EventType classifies messages delivered to job subscribers.
type EventType string

const (
	EventTypeStatus EventType = "status"
	EventTypeChunk  EventType = "chunk"
	EventTypeDone   EventType = "done"
	EventTypeError  EventType = "error"
)

// Event is one unit of progress pushed to the subscriber of a job.
// Done and error events are terminal: nothing follows them.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// DonePayload is the data carried by a terminal done event.
type DonePayload struct {
	OutputFilename string `json:"output_filename"`
}

// StatusEvent builds a free-form progress event.
func StatusEvent(text string) Event {
	return Event{Type: EventTypeStatus, Data: text}
}

// ChunkEvent builds an append-only transcript delta event.
func ChunkEvent(delta string) Event {
	return Event{Type: EventTypeChunk, Data: delta}
}

// DoneEvent builds the terminal success event.
func DoneEvent(outputFilename string) Event {
	return Event{Type: EventTypeDone, Data: DonePayload{OutputFilename: outputFilename}}
}

// ErrorEvent builds the terminal failure event.
func ErrorEvent(message string) Event {
	return Event{Type: EventTypeError, Data: message}
}
