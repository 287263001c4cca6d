package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"audiototxt/internal/domain"
)

// fallbackAudioCodec is used when extraction to the preferred codec fails.
const fallbackAudioCodec = "mp3"

// codecArgs maps an audio codec name to its ffmpeg encoder arguments
// and output extension.
func codecArgs(codec string) (encoder, ext string) {
	switch codec {
	case "mp3":
		return "libmp3lame", ".mp3"
	default:
		return "aac", ".m4a"
	}
}

// downloadVideo fetches a video resource over streamed HTTP GET into a
// temporary file, then extracts its audio track with ffmpeg. Extraction
// is retried once with the fallback codec; the temporary download is
// deleted unconditionally once extraction has been attempted.
func (p *Pipeline) downloadVideo(ctx context.Context, rawURL, dataDir string, proxy domain.ProxyConfig, progress Progress) (domain.AcquisitionResult, error) {
	if rawURL == "" {
		return domain.AcquisitionResult{}, stageErrorf(StageResolve, nil, "missing video URL")
	}

	report(progress, "downloading")
	tempPath, err := p.streamToTemp(ctx, rawURL, dataDir, proxy, progress)
	if err != nil {
		return domain.AcquisitionResult{}, err
	}
	defer func() { _ = p.remove(tempPath) }()

	stem := p.timestampStem("video")
	report(progress, "extracting audio")

	outPath, err := p.extractAudio(ctx, tempPath, dataDir, stem, preferredAudioCodec)
	if err != nil {
		report(progress, "retrying extraction with fallback codec")
		outPath, err = p.extractAudio(ctx, tempPath, dataDir, stem, fallbackAudioCodec)
		if err != nil {
			return domain.AcquisitionResult{}, stageErrorf(StageExtract, err, "audio extraction failed: %v", err)
		}
	}

	return domain.AcquisitionResult{LocalPath: outPath, Stem: stem}, nil
}

// streamToTemp downloads a URL to a temporary file with throttled
// percentage reporting. The partial file is removed on failure.
func (p *Pipeline) streamToTemp(ctx context.Context, rawURL, dataDir string, proxy domain.ProxyConfig, progress Progress) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", stageErrorf(StageDownload, err, "invalid video URL: %s", rawURL)
	}

	client := newHTTPClient(proxy, p.httpTimeout)
	resp, err := client.Do(req)
	if err != nil {
		return "", stageErrorf(StageDownload, err, "video download failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", stageErrorf(StageDownload, nil, "video download failed: http %d", resp.StatusCode)
	}

	tempFile, err := os.CreateTemp(dataDir, "video-download-*")
	if err != nil {
		return "", stageErrorf(StageDownload, err, "cannot create temporary file")
	}

	if err := copyWithProgress(tempFile, resp.Body, resp.ContentLength, progress); err != nil {
		tempFile.Close()
		_ = p.remove(tempFile.Name())
		return "", stageErrorf(StageDownload, err, "video download interrupted: %v", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = p.remove(tempFile.Name())
		return "", stageErrorf(StageDownload, err, "cannot finalize temporary file")
	}

	return tempFile.Name(), nil
}

// copyWithProgress streams src to dst, reporting throttled percentage
// when the total size is known.
func copyWithProgress(dst io.Writer, src io.Reader, total int64, progress Progress) error {
	throttle := newPercentThrottle()
	buf := make([]byte, 256*1024)

	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return err
			}
			written += int64(n)
			if total > 0 {
				throttle.reportPercent(progress, int(written*100/total))
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// extractAudio runs ffmpeg to produce an audio-only file in the given
// codec, verifying the output exists afterwards.
func (p *Pipeline) extractAudio(ctx context.Context, inputPath, dataDir, stem, codec string) (string, error) {
	encoder, ext := codecArgs(codec)
	outPath := filepath.Join(dataDir, stem+ext)

	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-c:a", encoder,
		outPath,
	}
	if _, err := p.runner.Run(ctx, nil, p.ffmpegPath, args...); err != nil {
		return "", err
	}
	if _, err := p.stat(outPath); err != nil {
		return "", fmt.Errorf("ffmpeg completed but output file is missing: %w", err)
	}
	return outPath, nil
}
