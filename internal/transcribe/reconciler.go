package transcribe

import "strings"

// Reconciler converts raw streaming observations into clean append-only
// deltas. Some providers resend the entire accumulated text in a chunk
// while others send only the new portion; the prefix heuristic below
// handles both without duplicating or dropping text.
//
// Known ambiguity: a genuinely new chunk that happens to begin with all
// previously emitted text is indistinguishable from a cumulative resend.
// The distinguishing signal is not present in the observed data, so the
// heuristic stays best-effort.
type Reconciler struct {
	emitted strings.Builder
}

// NewReconciler creates a reconciler with empty accumulated state.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Next consumes one raw observation and returns the strictly-new delta.
// An empty return means the observation added nothing.
func (r *Reconciler) Next(observation string) string {
	if observation == "" {
		return ""
	}

	delta := observation
	if emitted := r.emitted.String(); emitted != "" && strings.HasPrefix(observation, emitted) {
		delta = observation[len(emitted):]
	}
	if delta == "" {
		return ""
	}

	r.emitted.WriteString(delta)
	return delta
}

// Emitted returns all text emitted so far.
func (r *Reconciler) Emitted() string {
	return r.emitted.String()
}
