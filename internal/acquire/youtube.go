package acquire

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"audiototxt/internal/domain"
)

// preferredAudioCodec is requested from the optional transcoder first.
const preferredAudioCodec = "m4a"

// youtubeRemote hands the URL to the transcription service directly,
// with no local download.
func (p *Pipeline) youtubeRemote(rawURL string) (domain.AcquisitionResult, error) {
	if strings.TrimSpace(rawURL) == "" {
		return domain.AcquisitionResult{}, stageErrorf(StageResolve, nil, "missing YouTube URL")
	}

	stem := p.timestampStem("youtube")
	if id := youtubeVideoID(rawURL); id != "" {
		stem = "youtube_" + id
	}
	return domain.AcquisitionResult{RemoteURI: rawURL, Stem: stem}, nil
}

// downloadYouTube fetches audio locally via yt-dlp. The first attempt
// asks the transcoder to extract the preferred codec; when that fails
// (ffmpeg may be absent) the download is retried without the
// postprocessing step and the raw container is accepted.
func (p *Pipeline) downloadYouTube(ctx context.Context, rawURL, dataDir string, proxy domain.ProxyConfig, progress Progress) (domain.AcquisitionResult, error) {
	if strings.TrimSpace(rawURL) == "" {
		return domain.AcquisitionResult{}, stageErrorf(StageResolve, nil, "missing YouTube URL")
	}

	report(progress, "downloading")
	throttle := newPercentThrottle()
	var lastDest string
	onLine := func(line string) {
		if pct, ok := parseDownloadPercent(line); ok {
			throttle.reportPercent(progress, pct)
		}
		if dest, ok := parseDownloadDestination(line); ok {
			lastDest = dest
		}
	}

	baseArgs := []string{
		"--no-playlist",
		"--no-warnings",
		"--no-overwrites",
		"--newline",
		"-f", "bestaudio/best",
		"-o", filepath.Join(dataDir, "%(title)s [%(id)s].%(ext)s"),
	}
	if proxyURL := proxy.HTTPSProxy(); proxyURL != "" {
		baseArgs = append(baseArgs, "--proxy", proxyURL)
	}

	extractArgs := append(append([]string{}, baseArgs...),
		"-x", "--audio-format", preferredAudioCodec, "--audio-quality", "0",
		rawURL,
	)
	_, err := p.runner.Run(ctx, onLine, p.ytdlpPath, extractArgs...)
	if err != nil {
		report(progress, "audio transcoding unavailable, keeping original format")

		rawArgs := append(append([]string{}, baseArgs...), rawURL)
		if _, retryErr := p.runner.Run(ctx, onLine, p.ytdlpPath, rawArgs...); retryErr != nil {
			return domain.AcquisitionResult{}, stageErrorf(StageDownload, retryErr, "yt-dlp download failed: %v", retryErr)
		}
	}
	report(progress, "download finished")

	// The destination announced by yt-dlp itself is authoritative; the
	// [videoID] scan covers older output formats that print none.
	id := youtubeVideoID(rawURL)
	var path string
	if lastDest != "" {
		if _, statErr := p.stat(lastDest); statErr == nil {
			path = lastDest
		}
	}
	if path == "" {
		path, err = p.findDownloadByID(dataDir, id)
		if err != nil {
			return domain.AcquisitionResult{}, stageErrorf(StageDownload, err, "downloaded audio file not found")
		}
	}

	stem := p.timestampStem("youtube")
	if id != "" {
		stem = "youtube_" + id
	}
	return domain.AcquisitionResult{LocalPath: path, Stem: stem}, nil
}

// findDownloadByID locates the produced file via the [videoID] marker
// embedded in the yt-dlp output template.
func (p *Pipeline) findDownloadByID(dataDir, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("no video id to locate download")
	}

	entries, err := p.readDir(dataDir)
	if err != nil {
		return "", err
	}
	marker := "[" + id + "]"
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.Contains(entry.Name(), marker) {
			return filepath.Join(dataDir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("no file matching %s in %s", marker, dataDir)
}

// youtubeVideoID extracts the video id from watch URLs and youtu.be
// short links, returning empty when none is recognizable.
func youtubeVideoID(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	if v := parsed.Query().Get("v"); v != "" {
		return v
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	last := parts[len(parts)-1]
	// A bare /watch path without a v parameter carries no id.
	if last == "" || last == "watch" {
		return ""
	}
	return last
}
