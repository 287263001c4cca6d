package acquire

import "fmt"

// Stage names identify which acquisition step failed.
const (
	StageUpload    = "saving upload"
	StageResolve   = "resolving direct link"
	StageDownload  = "downloading"
	StageExtract   = "extracting audio"
	StageTranscode = "transcoding"
)

// StageError is a stage-aware acquisition failure.
type StageError struct {
	Stage   string
	Message string
	Err     error
}

// Error formats the failure with its originating stage.
func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// stageErrorf builds a StageError with a formatted message.
func stageErrorf(stage string, err error, format string, args ...any) *StageError {
	return &StageError{
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}
