package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"audiototxt/internal/domain"
)

// ResolvedMedia is the outcome of resolving share text to direct media.
type ResolvedMedia struct {
	AudioURL string
	Title    string
	ID       string
}

// Resolver turns arbitrary share text or a short-link into a direct
// audio URL with optional title and identifier metadata.
type Resolver interface {
	Resolve(ctx context.Context, shareText string, proxy domain.ProxyConfig) (ResolvedMedia, error)
}

var shareLinkPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// ExtractShareLink pulls the first URL out of free-form share text.
func ExtractShareLink(text string) (string, bool) {
	link := shareLinkPattern.FindString(text)
	return link, link != ""
}

// TikSaveResolver resolves short-form social share links through the
// tiksave conversion API.
type TikSaveResolver struct {
	Endpoint string
	Timeout  time.Duration
}

// NewTikSaveResolver creates a resolver against the production endpoint.
func NewTikSaveResolver() *TikSaveResolver {
	return &TikSaveResolver{
		Endpoint: "https://tiksave.io/api/ajaxSearch",
		Timeout:  60 * time.Second,
	}
}

// tikSaveResponse is the JSON envelope returned by the conversion API.
type tikSaveResponse struct {
	Status string `json:"status"`
	Data   string `json:"data"`
}

var (
	mp3LinkPattern = regexp.MustCompile(`https?://[^\s"'<>]+\.mp3[^\s"'<>]*`)
	mediaIDPattern = regexp.MustCompile(`/(\d{6,})`)
)

// Resolve posts the share link to the conversion API and extracts the
// direct mp3 URL plus a media identifier when present.
func (r *TikSaveResolver) Resolve(ctx context.Context, shareText string, proxy domain.ProxyConfig) (ResolvedMedia, error) {
	link, ok := ExtractShareLink(shareText)
	if !ok {
		return ResolvedMedia{}, fmt.Errorf("no resolvable link found in share text")
	}

	form := url.Values{}
	form.Set("q", link)
	form.Set("lang", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return ResolvedMedia{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := newHTTPClient(proxy, r.Timeout)
	resp, err := client.Do(req)
	if err != nil {
		return ResolvedMedia{}, fmt.Errorf("share resolver request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ResolvedMedia{}, fmt.Errorf("share resolver returned http %d", resp.StatusCode)
	}

	var payload tikSaveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ResolvedMedia{}, fmt.Errorf("share resolver returned malformed response: %w", err)
	}
	if payload.Status != "ok" {
		return ResolvedMedia{}, fmt.Errorf("share resolver rejected the link (status %q)", payload.Status)
	}

	audioURL := mp3LinkPattern.FindString(payload.Data)
	if audioURL == "" {
		return ResolvedMedia{}, fmt.Errorf("share resolver returned no usable audio link")
	}

	media := ResolvedMedia{AudioURL: audioURL}
	if m := mediaIDPattern.FindStringSubmatch(audioURL); m != nil {
		media.ID = m[1]
	} else if m := mediaIDPattern.FindStringSubmatch(link); m != nil {
		media.ID = m[1]
	}
	return media, nil
}

// resolveShare resolves share text to a direct audio URL and downloads
// it as a local file, naming the output from the resolved identifier
// when available.
func (p *Pipeline) resolveShare(ctx context.Context, shareText, dataDir string, proxy domain.ProxyConfig, progress Progress) (domain.AcquisitionResult, error) {
	if strings.TrimSpace(shareText) == "" {
		return domain.AcquisitionResult{}, stageErrorf(StageResolve, nil, "missing share text")
	}
	if p.resolver == nil {
		return domain.AcquisitionResult{}, stageErrorf(StageResolve, nil, "no share resolver configured")
	}

	report(progress, "resolving direct link")
	media, err := p.resolver.Resolve(ctx, shareText, proxy)
	if err != nil {
		return domain.AcquisitionResult{}, stageErrorf(StageResolve, err, "%v", err)
	}

	stem := p.timestampStem("share")
	if media.ID != "" {
		stem = "share_" + media.ID
	}

	report(progress, "downloading")
	path, err := p.downloadDirect(ctx, media.AudioURL, dataDir, stem+".mp3", proxy, progress)
	if err != nil {
		return domain.AcquisitionResult{}, err
	}

	return domain.AcquisitionResult{LocalPath: path, Stem: stem}, nil
}

// downloadDirect streams a direct audio URL into dataDir under the
// given file name, removing partial output on failure.
func (p *Pipeline) downloadDirect(ctx context.Context, rawURL, dataDir, filename string, proxy domain.ProxyConfig, progress Progress) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", stageErrorf(StageDownload, err, "invalid audio URL: %s", rawURL)
	}

	client := newHTTPClient(proxy, p.httpTimeout)
	resp, err := client.Do(req)
	if err != nil {
		return "", stageErrorf(StageDownload, err, "audio download failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", stageErrorf(StageDownload, nil, "audio download failed: http %d", resp.StatusCode)
	}

	target := filepath.Join(dataDir, filename)
	out, err := os.Create(target)
	if err != nil {
		return "", stageErrorf(StageDownload, err, "cannot create output file: %s", target)
	}

	if err := copyWithProgress(out, resp.Body, resp.ContentLength, progress); err != nil {
		out.Close()
		_ = p.remove(target)
		return "", stageErrorf(StageDownload, err, "audio download interrupted: %v", err)
	}
	if err := out.Close(); err != nil {
		_ = p.remove(target)
		return "", stageErrorf(StageDownload, err, "cannot finalize output file")
	}
	return target, nil
}
