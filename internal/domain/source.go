package domain

// SourceType selects which variant of a SourceDescriptor is populated.
type SourceType string

const (
	SourceTypeAudio     SourceType = "audio"
	SourceTypeYouTube   SourceType = "youtube"
	SourceTypeVideoURL  SourceType = "video_url"
	SourceTypeShareText SourceType = "share"
)

// YouTubeStrategy chooses between remote streaming and local download.
type YouTubeStrategy string

const (
	// YouTubeRemote hands the URL to the transcription service directly,
	// skipping any local download.
	YouTubeRemote YouTubeStrategy = "remote"
	// YouTubeDownload fetches audio locally before transcription.
	YouTubeDownload YouTubeStrategy = "download"
)

// SourceDescriptor is the tagged input of one transcription request.
// Exactly one variant is populated, selected by Type.
type SourceDescriptor struct {
	Type SourceType

	// UploadedAudio variant.
	AudioContent  []byte
	AudioFilename string

	// YouTube variant.
	YouTubeURL      string
	YouTubeStrategy YouTubeStrategy

	// DirectVideoURL variant.
	VideoURL string

	// ShareText variant: a short-link or share token for a social platform.
	ShareText string
}

// AcquisitionResult is the outcome of resolving a source descriptor:
// either a local audio file ready for upload, or a remote handle the
// transcription service can read directly.
type AcquisitionResult struct {
	// LocalPath is set when the audio was materialized on disk.
	LocalPath string
	// RemoteURI is set when the source is transcribed by reference.
	RemoteURI string
	// Stem is the preferred base name for the transcript artifact
	// (video id, resolved share id, or upload stem). May be empty, in
	// which case callers fall back to the audio file's base name.
	Stem string
}

// IsRemote reports whether the result references remote media.
func (r AcquisitionResult) IsRemote() bool {
	return r.RemoteURI != ""
}
