package acquire

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"audiototxt/internal/domain"
)

// Pipeline resolves a source descriptor into a transcribable local
// audio file or a remote handle, with per-source fallback strategies.
type Pipeline struct {
	ytdlpPath  string
	ffmpegPath string
	runner     commandRunner
	resolver   Resolver

	httpTimeout time.Duration

	stat      func(name string) (os.FileInfo, error)
	mkdirAll  func(path string, perm os.FileMode) error
	readDir   func(name string) ([]os.DirEntry, error)
	writeFile func(name string, data []byte, perm os.FileMode) error
	remove    func(name string) error
	now       func() time.Time
}

// NewPipeline constructs the production pipeline with OS dependencies.
func NewPipeline(ytdlpPath, ffmpegPath string, resolver Resolver) *Pipeline {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Pipeline{
		ytdlpPath:   ytdlpPath,
		ffmpegPath:  ffmpegPath,
		runner:      &execRunner{},
		resolver:    resolver,
		httpTimeout: 30 * time.Minute,
		stat:        os.Stat,
		mkdirAll:    os.MkdirAll,
		readDir:     os.ReadDir,
		writeFile:   os.WriteFile,
		remove:      os.Remove,
		now:         time.Now,
	}
}

// Acquire resolves one source descriptor into an AcquisitionResult.
// jobID makes generated file names collision-resistant; progress
// receives throttled diagnostic lines and must never block.
func (p *Pipeline) Acquire(
	ctx context.Context,
	desc domain.SourceDescriptor,
	jobID string,
	dataDir string,
	proxy domain.ProxyConfig,
	progress Progress,
) (domain.AcquisitionResult, error) {
	if err := p.mkdirAll(dataDir, 0o755); err != nil {
		return domain.AcquisitionResult{}, stageErrorf(StageDownload, err, "cannot create data directory: %s", dataDir)
	}

	switch desc.Type {
	case domain.SourceTypeAudio:
		return p.saveUpload(desc, jobID, dataDir, progress)
	case domain.SourceTypeYouTube:
		if desc.YouTubeStrategy == domain.YouTubeDownload {
			return p.downloadYouTube(ctx, desc.YouTubeURL, dataDir, proxy, progress)
		}
		return p.youtubeRemote(desc.YouTubeURL)
	case domain.SourceTypeVideoURL:
		return p.downloadVideo(ctx, desc.VideoURL, dataDir, proxy, progress)
	case domain.SourceTypeShareText:
		return p.resolveShare(ctx, desc.ShareText, dataDir, proxy, progress)
	default:
		return domain.AcquisitionResult{}, fmt.Errorf("unknown source type: %q", desc.Type)
	}
}

// saveUpload persists uploaded audio bytes under a collision-resistant
// name, preserving the original extension.
func (p *Pipeline) saveUpload(desc domain.SourceDescriptor, jobID, dataDir string, progress Progress) (domain.AcquisitionResult, error) {
	if len(desc.AudioContent) == 0 {
		return domain.AcquisitionResult{}, stageErrorf(StageUpload, nil, "uploaded audio is empty")
	}
	report(progress, "saving upload")

	filename := strings.TrimSpace(desc.AudioFilename)
	if filename == "" {
		filename = fmt.Sprintf("upload_%s.m4a", jobID)
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".m4a"
	}
	stem := strings.TrimSuffix(filepath.Base(filename), ext)

	target := filepath.Join(dataDir, fmt.Sprintf("%s_%s%s", stem, jobID, ext))
	if err := p.writeFile(target, desc.AudioContent, 0o644); err != nil {
		return domain.AcquisitionResult{}, stageErrorf(StageUpload, err, "cannot save uploaded file: %s", target)
	}

	return domain.AcquisitionResult{LocalPath: target}, nil
}

// timestampStem builds a deterministic fallback stem from wall time.
func (p *Pipeline) timestampStem(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, p.now().UnixMilli())
}

// NewPipelineForTests constructs a pipeline with injectable dependencies.
func NewPipelineForTests(
	ytdlpPath string,
	ffmpegPath string,
	runner commandRunner,
	resolver Resolver,
	now func() time.Time,
) *Pipeline {
	p := NewPipeline(ytdlpPath, ffmpegPath, resolver)
	p.runner = runner
	if now != nil {
		p.now = now
	}
	return p
}
