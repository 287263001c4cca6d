package acquire

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"audiototxt/internal/domain"
)

// fakeRunner scripts command outcomes and records invocations.
type fakeRunner struct {
	calls   [][]string
	lines   []string
	outcome func(call int, name string, args []string) error
}

func (f *fakeRunner) Run(_ context.Context, onLine func(string), name string, args ...string) (commandResult, error) {
	call := len(f.calls)
	f.calls = append(f.calls, append([]string{name}, args...))
	if onLine != nil {
		if len(f.lines) > 0 {
			for _, line := range f.lines {
				onLine(line)
			}
		} else {
			onLine("[download]  42.0% of 10.00MiB")
		}
	}
	if f.outcome != nil {
		if err := f.outcome(call, name, args); err != nil {
			return commandResult{ExitCode: 1}, err
		}
	}
	return commandResult{}, nil
}

func fixedNow() time.Time {
	return time.UnixMilli(1_700_000_000_000)
}

// TestSaveUploadNaming verifies collision-resistant upload names that
// keep the original extension.
func TestSaveUploadNaming(t *testing.T) {
	dataDir := t.TempDir()
	p := NewPipeline("", "", nil)

	result, err := p.Acquire(context.Background(), domain.SourceDescriptor{
		Type:          domain.SourceTypeAudio,
		AudioContent:  []byte{1, 2, 3},
		AudioFilename: "a.wav",
	}, "job42", dataDir, domain.ProxyConfig{}, nil)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if result.IsRemote() {
		t.Fatal("upload must yield a local file")
	}

	base := filepath.Base(result.LocalPath)
	if !strings.Contains(base, "a") || !strings.Contains(base, "job42") || !strings.HasSuffix(base, ".wav") {
		t.Fatalf("name = %q, want stem, job id, and .wav extension", base)
	}

	content, err := os.ReadFile(result.LocalPath)
	if err != nil {
		t.Fatalf("read saved upload: %v", err)
	}
	if len(content) != 3 {
		t.Fatalf("saved %d bytes, want 3", len(content))
	}
}

// TestSaveUploadDefaultExtension verifies the fallback extension when
// the original name has none.
func TestSaveUploadDefaultExtension(t *testing.T) {
	dataDir := t.TempDir()
	p := NewPipeline("", "", nil)

	result, err := p.Acquire(context.Background(), domain.SourceDescriptor{
		Type:          domain.SourceTypeAudio,
		AudioContent:  []byte("x"),
		AudioFilename: "voicemail",
	}, "job1", dataDir, domain.ProxyConfig{}, nil)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !strings.HasSuffix(result.LocalPath, ".m4a") {
		t.Fatalf("path = %q, want default .m4a extension", result.LocalPath)
	}
}

// TestYouTubeRemoteStrategy verifies direct-streaming produces a remote
// handle and touches no local files.
func TestYouTubeRemoteStrategy(t *testing.T) {
	dataDir := t.TempDir()
	p := NewPipeline("", "", nil)

	result, err := p.Acquire(context.Background(), domain.SourceDescriptor{
		Type:            domain.SourceTypeYouTube,
		YouTubeURL:      "https://youtu.be/XYZ",
		YouTubeStrategy: domain.YouTubeRemote,
	}, "job1", dataDir, domain.ProxyConfig{}, nil)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if result.RemoteURI != "https://youtu.be/XYZ" {
		t.Fatalf("remote uri = %q", result.RemoteURI)
	}
	if result.Stem != "youtube_XYZ" {
		t.Fatalf("stem = %q, want youtube_XYZ", result.Stem)
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		t.Fatalf("read data dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no local files, found %d", len(entries))
	}
}

// TestYouTubeVideoID covers watch URLs, short links, and junk.
func TestYouTubeVideoID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=abc123", "abc123"},
		{"https://youtu.be/XYZ", "XYZ"},
		{"https://youtu.be/XYZ?t=10", "XYZ"},
		{"https://www.youtube.com/watch", ""},
		{"https://www.youtube.com/", ""},
	}
	for _, tc := range cases {
		if got := youtubeVideoID(tc.url); got != tc.want {
			t.Fatalf("youtubeVideoID(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

// TestYouTubeDownloadTranscodeFallback verifies the second attempt runs
// without the extract-audio step and reuses the same URL.
func TestYouTubeDownloadTranscodeFallback(t *testing.T) {
	dataDir := t.TempDir()

	runner := &fakeRunner{
		outcome: func(call int, _ string, args []string) error {
			if call == 0 {
				return errors.New("ffmpeg not found")
			}
			// Fallback attempt produces the raw container.
			return os.WriteFile(filepath.Join(dataDir, "Some Title [XYZ].webm"), []byte("audio"), 0o644)
		},
	}
	p := NewPipelineForTests("yt-dlp", "ffmpeg", runner, nil, fixedNow)

	var statuses []string
	result, err := p.Acquire(context.Background(), domain.SourceDescriptor{
		Type:            domain.SourceTypeYouTube,
		YouTubeURL:      "https://youtu.be/XYZ",
		YouTubeStrategy: domain.YouTubeDownload,
	}, "job1", dataDir, domain.ProxyConfig{}, func(text string) {
		statuses = append(statuses, text)
	})
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if len(runner.calls) != 2 {
		t.Fatalf("yt-dlp invoked %d times, want 2", len(runner.calls))
	}
	if !slices.Contains(runner.calls[0], "-x") {
		t.Fatal("first attempt should request audio extraction")
	}
	if slices.Contains(runner.calls[1], "-x") {
		t.Fatal("fallback attempt must drop the extraction step")
	}
	for _, call := range runner.calls {
		if call[len(call)-1] != "https://youtu.be/XYZ" {
			t.Fatalf("attempt fetched %q, want the same URL", call[len(call)-1])
		}
	}

	if !strings.Contains(result.LocalPath, "[XYZ]") {
		t.Fatalf("local path = %q, want the [XYZ] marker", result.LocalPath)
	}
	if result.Stem != "youtube_XYZ" {
		t.Fatalf("stem = %q, want youtube_XYZ", result.Stem)
	}

	var sawFallbackNotice bool
	for _, s := range statuses {
		if strings.Contains(s, "original format") {
			sawFallbackNotice = true
		}
	}
	if !sawFallbackNotice {
		t.Fatalf("statuses = %v, want a transcode fallback notice", statuses)
	}
}

// TestYouTubeDownloadLocatesViaDestinationLine verifies the yt-dlp
// announced path is used even when the URL yields no video id for the
// marker scan.
func TestYouTubeDownloadLocatesViaDestinationLine(t *testing.T) {
	dataDir := t.TempDir()
	dest := filepath.Join(dataDir, "Untitled Clip.m4a")

	runner := &fakeRunner{
		lines: []string{
			"[download] Destination: " + filepath.Join(dataDir, "Untitled Clip.webm"),
			"[download]  42.0% of 10.00MiB",
			"[ExtractAudio] Destination: " + dest,
		},
		outcome: func(int, string, []string) error {
			return os.WriteFile(dest, []byte("audio"), 0o644)
		},
	}
	p := NewPipelineForTests("yt-dlp", "ffmpeg", runner, nil, fixedNow)

	result, err := p.Acquire(context.Background(), domain.SourceDescriptor{
		Type:            domain.SourceTypeYouTube,
		YouTubeURL:      "https://www.youtube.com/watch",
		YouTubeStrategy: domain.YouTubeDownload,
	}, "job1", dataDir, domain.ProxyConfig{}, nil)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if result.LocalPath != dest {
		t.Fatalf("local path = %q, want the last announced destination %q", result.LocalPath, dest)
	}
	if result.Stem != "youtube_1700000000000" {
		t.Fatalf("stem = %q, want the timestamp fallback", result.Stem)
	}
}

// TestYouTubeDownloadBothAttemptsFail verifies the stage error when the
// fallback also fails.
func TestYouTubeDownloadBothAttemptsFail(t *testing.T) {
	runner := &fakeRunner{
		outcome: func(int, string, []string) error {
			return errors.New("network unreachable")
		},
	}
	p := NewPipelineForTests("yt-dlp", "ffmpeg", runner, nil, fixedNow)

	_, err := p.Acquire(context.Background(), domain.SourceDescriptor{
		Type:            domain.SourceTypeYouTube,
		YouTubeURL:      "https://youtu.be/XYZ",
		YouTubeStrategy: domain.YouTubeDownload,
	}, "job1", t.TempDir(), domain.ProxyConfig{}, nil)

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageDownload {
		t.Fatalf("err = %v, want a %s stage error", err, StageDownload)
	}
}

// TestPercentThrottle verifies the five-point reporting threshold.
func TestPercentThrottle(t *testing.T) {
	throttle := newPercentThrottle()

	admissions := []struct {
		pct  int
		want bool
	}{
		{0, true},
		{3, false},
		{4, false},
		{5, true},
		{9, false},
		{10, true},
		{100, true},
	}
	for _, tc := range admissions {
		if got := throttle.admit(tc.pct); got != tc.want {
			t.Fatalf("admit(%d) = %v, want %v", tc.pct, got, tc.want)
		}
	}
}

// TestParseDownloadPercent covers yt-dlp progress line parsing.
func TestParseDownloadPercent(t *testing.T) {
	pct, ok := parseDownloadPercent("[download]  42.5% of 10.00MiB at 1.00MiB/s")
	if !ok || pct != 42 {
		t.Fatalf("parse = (%d, %v), want (42, true)", pct, ok)
	}
	if _, ok := parseDownloadPercent("[info] Extracting URL"); ok {
		t.Fatal("non-progress line should not parse")
	}
}

// TestUnknownSourceType verifies the dispatch error.
func TestUnknownSourceType(t *testing.T) {
	p := NewPipeline("", "", nil)
	_, err := p.Acquire(context.Background(), domain.SourceDescriptor{Type: "carrier_pigeon"}, "job1", t.TempDir(), domain.ProxyConfig{}, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown source type") {
		t.Fatalf("err = %v, want unknown source type", err)
	}
}
