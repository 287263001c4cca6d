package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"audiototxt/internal/acquire"
	"audiototxt/internal/domain"
	"audiototxt/internal/transcribe"
)

// Acquirer resolves a source descriptor into transcribable media.
type Acquirer interface {
	Acquire(
		ctx context.Context,
		desc domain.SourceDescriptor,
		jobID string,
		dataDir string,
		proxy domain.ProxyConfig,
		progress acquire.Progress,
	) (domain.AcquisitionResult, error)
}

// TranscriptWriter persists a finished transcript under an artifact name.
type TranscriptWriter interface {
	SaveTranscript(stem, content string) (string, error)
}

// Runner drives one job from creation to terminal state, composing the
// acquisition pipeline, the transcriber, and the job's event queue.
type Runner struct {
	acquirer    Acquirer
	transcriber transcribe.Transcriber
	store       TranscriptWriter
	dataDir     string
	log         *logrus.Logger
}

// NewRunner wires the runner's collaborators.
func NewRunner(acquirer Acquirer, transcriber transcribe.Transcriber, store TranscriptWriter, dataDir string, log *logrus.Logger) *Runner {
	return &Runner{
		acquirer:    acquirer,
		transcriber: transcriber,
		store:       store,
		dataDir:     dataDir,
		log:         log,
	}
}

// Run executes one job to its terminal state. Every failure, panics
// included, is converted into a single error event at this boundary;
// nothing escapes to crash the process.
func (r *Runner) Run(ctx context.Context, job *Job, desc domain.SourceDescriptor, opts domain.TranscribeOptions) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.WithField("job_id", job.ID).Errorf("job panicked: %v", rec)
			job.Fail(fmt.Sprintf("internal error: %v", rec))
		}
	}()

	log := r.log.WithFields(logrus.Fields{"job_id": job.ID, "source_type": desc.Type})

	job.Begin()
	job.PublishStatus("initializing")
	log.Info("job started")

	// Progress lines from acquisition and transcription internals are
	// re-emitted as status events, best-effort.
	progress := func(text string) {
		job.PublishStatus(text)
	}

	result, err := r.acquirer.Acquire(ctx, desc, job.ID, r.dataDir, opts.Proxy, progress)
	if err != nil {
		log.WithError(err).Error("acquisition failed")
		job.Fail(err.Error())
		return
	}

	transcript, err := r.transcriber.Transcribe(ctx, transcribe.Request{
		Source:   result,
		Options:  opts,
		OnDelta:  job.AppendChunk,
		OnStatus: job.PublishStatus,
	})
	if err != nil {
		log.WithError(err).Error("transcription failed")
		job.Fail(err.Error())
		return
	}

	stem := result.Stem
	if stem == "" {
		base := filepath.Base(result.LocalPath)
		stem = strings.TrimSuffix(base, filepath.Ext(base))
	}

	outputFilename, err := r.store.SaveTranscript(stem, transcript)
	if err != nil {
		log.WithError(err).Error("persisting transcript failed")
		job.Fail(fmt.Sprintf("save transcript: %v", err))
		return
	}

	log.WithField("output", outputFilename).Info("job finished")
	job.Finish(outputFilename)
}
