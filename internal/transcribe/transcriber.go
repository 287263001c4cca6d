package transcribe

import (
	"context"

	"audiototxt/internal/domain"
)

// Request contains the acquired source and execution callbacks for one
// transcription call.
type Request struct {
	Source  domain.AcquisitionResult
	Options domain.TranscribeOptions

	// OnDelta receives each strictly-new transcript fragment. Deltas
	// are already reconciled: no duplication, no drops.
	OnDelta func(delta string)
	// OnStatus receives free-form diagnostic lines. Best-effort; the
	// callback must never block.
	OnStatus func(text string)
}

// Transcriber converts acquired media into text, streaming deltas while
// the external call runs.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (string, error)
}

// emitDelta forwards a delta when the callback is configured.
func emitDelta(req Request, delta string) {
	if req.OnDelta != nil && delta != "" {
		req.OnDelta(delta)
	}
}

// emitStatus forwards a status line when the callback is configured.
func emitStatus(req Request, text string) {
	if req.OnStatus != nil {
		req.OnStatus(text)
	}
}
