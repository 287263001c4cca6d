package jobs

import (
	"strings"
	"sync"

	"audiototxt/internal/domain"
)

// Job is one transcription request's full lifecycle and event history.
// Status moves forward only: pending -> running -> done or error. All
// event publication goes through the methods below so the transcript
// invariant holds: Transcript always equals the concatenation of every
// chunk payload pushed so far.
type Job struct {
	ID string

	mu             sync.Mutex
	status         domain.JobStatus
	message        string
	transcript     strings.Builder
	outputFilename string
	queue          *queue
}

// newJob creates a pending job with an open event queue.
func newJob(id string) *Job {
	return &Job{
		ID:     id,
		status: domain.JobStatusPending,
		queue:  newQueue(),
	}
}

// Status returns the current lifecycle state.
func (j *Job) Status() domain.JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Message returns the last recorded error text, empty unless failed.
func (j *Job) Message() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.message
}

// Transcript returns the text accumulated so far.
func (j *Job) Transcript() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.transcript.String()
}

// OutputFilename returns the persisted artifact name, set only on done.
func (j *Job) OutputFilename() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.outputFilename
}

// Begin moves the job from pending to running.
func (j *Job) Begin() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status == domain.JobStatusPending {
		j.status = domain.JobStatusRunning
	}
}

// PublishStatus emits a free-form progress line. Ignored after a
// terminal state is reached.
func (j *Job) PublishStatus(text string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return
	}
	j.queue.push(domain.StatusEvent(text))
}

// AppendChunk appends a transcript delta and emits it as a chunk event.
// Empty deltas and deltas after a terminal state are ignored.
func (j *Job) AppendChunk(delta string) {
	if delta == "" {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return
	}
	j.transcript.WriteString(delta)
	j.queue.push(domain.ChunkEvent(delta))
}

// Finish records success, emits the terminal done event, and closes the
// queue. A second terminal transition is a no-op.
func (j *Job) Finish(outputFilename string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return
	}
	j.status = domain.JobStatusDone
	j.outputFilename = outputFilename
	j.queue.push(domain.DoneEvent(outputFilename))
	j.queue.close()
}

// Fail records the error, emits the terminal error event, and closes
// the queue. A second terminal transition is a no-op.
func (j *Job) Fail(message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return
	}
	j.status = domain.JobStatusError
	j.message = message
	j.queue.push(domain.ErrorEvent(message))
	j.queue.close()
}

// Attach prepares the job for a (possibly late) consumer and returns
// the synthetic replay events: one chunk carrying the transcript so far
// when non-empty, plus the terminal event when the job already ended.
// Events queued before attachment are dropped; the consumer then drains
// only events emitted afterwards via Next. This applies to the first
// consumer too: status lines emitted before the connection are lost on
// purpose, only transcript content survives attachment.
func (j *Job) Attach() []domain.Event {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.queue.reset()

	var replay []domain.Event
	if text := j.transcript.String(); text != "" {
		replay = append(replay, domain.ChunkEvent(text))
	}
	switch j.status {
	case domain.JobStatusDone:
		replay = append(replay, domain.DoneEvent(j.outputFilename))
	case domain.JobStatusError:
		replay = append(replay, domain.ErrorEvent(j.message))
	}
	return replay
}

// Next blocks until the next live event arrives. The second return is
// false once the job has ended and all events are drained.
func (j *Job) Next() (domain.Event, bool) {
	return j.queue.next()
}
