package acquire

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"audiototxt/internal/domain"
)

// fakeResolver returns canned resolution results.
type fakeResolver struct {
	media ResolvedMedia
	err   error
}

func (f *fakeResolver) Resolve(context.Context, string, domain.ProxyConfig) (ResolvedMedia, error) {
	return f.media, f.err
}

// TestExtractShareLink pulls URLs out of surrounding share text.
func TestExtractShareLink(t *testing.T) {
	link, ok := ExtractShareLink("check this out! https://v.example.com/abcDEF/ copied from the app")
	if !ok || link != "https://v.example.com/abcDEF/" {
		t.Fatalf("link = %q ok=%v", link, ok)
	}
	if _, ok := ExtractShareLink("no links here"); ok {
		t.Fatal("expected no link")
	}
}

// TestResolveShareDownloadsAudio verifies resolution, naming from the
// resolved identifier, and download of the direct link.
func TestResolveShareDownloadsAudio(t *testing.T) {
	audioSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("mp3 bytes"))
	}))
	defer audioSrv.Close()

	dataDir := t.TempDir()
	resolver := &fakeResolver{media: ResolvedMedia{AudioURL: audioSrv.URL + "/track.mp3", ID: "7421337"}}
	p := NewPipelineForTests("yt-dlp", "ffmpeg", &fakeRunner{}, resolver, fixedNow)

	result, err := p.Acquire(context.Background(), domain.SourceDescriptor{
		Type:      domain.SourceTypeShareText,
		ShareText: "look: https://v.example.com/abc/",
	}, "job1", dataDir, domain.ProxyConfig{}, nil)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	if result.Stem != "share_7421337" {
		t.Fatalf("stem = %q, want share_7421337", result.Stem)
	}
	if filepath.Base(result.LocalPath) != "share_7421337.mp3" {
		t.Fatalf("local path = %q", result.LocalPath)
	}

	content, err := os.ReadFile(result.LocalPath)
	if err != nil {
		t.Fatalf("read downloaded audio: %v", err)
	}
	if string(content) != "mp3 bytes" {
		t.Fatalf("content = %q", content)
	}
}

// TestResolveShareTimestampFallback verifies naming when the resolver
// provides no identifier.
func TestResolveShareTimestampFallback(t *testing.T) {
	audioSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer audioSrv.Close()

	resolver := &fakeResolver{media: ResolvedMedia{AudioURL: audioSrv.URL + "/a.mp3"}}
	p := NewPipelineForTests("yt-dlp", "ffmpeg", &fakeRunner{}, resolver, fixedNow)

	result, err := p.Acquire(context.Background(), domain.SourceDescriptor{
		Type:      domain.SourceTypeShareText,
		ShareText: "https://v.example.com/abc/",
	}, "job1", t.TempDir(), domain.ProxyConfig{}, nil)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	want := fmt.Sprintf("share_%d", fixedNow().UnixMilli())
	if result.Stem != want {
		t.Fatalf("stem = %q, want %q", result.Stem, want)
	}
}

// TestResolveShareFailure verifies resolver errors become resolving
// stage failures.
func TestResolveShareFailure(t *testing.T) {
	resolver := &fakeResolver{err: fmt.Errorf("share resolver returned no usable audio link")}
	p := NewPipelineForTests("yt-dlp", "ffmpeg", &fakeRunner{}, resolver, fixedNow)

	_, err := p.Acquire(context.Background(), domain.SourceDescriptor{
		Type:      domain.SourceTypeShareText,
		ShareText: "https://v.example.com/abc/",
	}, "job1", t.TempDir(), domain.ProxyConfig{}, nil)

	if err == nil || !strings.Contains(err.Error(), StageResolve) {
		t.Fatalf("err = %v, want resolving stage failure", err)
	}
}

// TestTikSaveResolver verifies the conversion API contract: posted
// form, JSON envelope, and mp3 link extraction.
func TestTikSaveResolver(t *testing.T) {
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("q") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","data":"<a href=\"https://cdn.example.com/music/7421337001.mp3?sig=x\">Download MP3</a>"}`))
	}))
	defer apiSrv.Close()

	resolver := &TikSaveResolver{Endpoint: apiSrv.URL, Timeout: 0}
	media, err := resolver.Resolve(context.Background(), "shared https://v.example.com/abc/", domain.ProxyConfig{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if !strings.HasPrefix(media.AudioURL, "https://cdn.example.com/music/7421337001.mp3") {
		t.Fatalf("audio url = %q", media.AudioURL)
	}
	if media.ID != "7421337001" {
		t.Fatalf("id = %q, want 7421337001", media.ID)
	}
}

// TestTikSaveResolverNoLink verifies the error when the response holds
// no usable audio URL.
func TestTikSaveResolverNoLink(t *testing.T) {
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","data":"nothing here"}`))
	}))
	defer apiSrv.Close()

	resolver := &TikSaveResolver{Endpoint: apiSrv.URL, Timeout: 0}
	if _, err := resolver.Resolve(context.Background(), "https://v.example.com/abc/", domain.ProxyConfig{}); err == nil {
		t.Fatal("expected an error for a response without audio links")
	}
}
