package transcribe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/genai"

	"audiototxt/internal/domain"
)

const (
	// uploadReadyTimeout bounds how long we poll an uploaded file
	// before giving up.
	uploadReadyTimeout = 120 * time.Second
	// pollInitialDelay is the first wait between readiness polls; it
	// grows multiplicatively up to pollMaxDelay.
	pollInitialDelay = 1 * time.Second
	pollMaxDelay     = 5 * time.Second
	pollBackoff      = 1.5
)

const systemInstruction = "You are a professional transcriptionist. Produce a verbatim " +
	"transcript only: no summaries, no explanations, no translation. When a passage is " +
	"unclear, mark it inline in square brackets (e.g. [inaudible 00:01:23]). Output plain " +
	"text with no title, prefix, or commentary."

const transcribePrompt = "Transcribe the audio verbatim:\n" +
	"- apply only minimal typo corrections, never changing the meaning;\n" +
	"- keep filler words and repetitions;\n" +
	"- add basic punctuation only;\n" +
	"- never translate or add outside information;\n" +
	"- output plain text."

// Gemini transcribes audio through the Gemini API, uploading local
// files via the File API and referencing remote media by URI.
type Gemini struct {
	readyTimeout time.Duration
	sleep        func(d time.Duration)
	now          func() time.Time
}

// NewGemini constructs the production Gemini transcriber.
func NewGemini() *Gemini {
	return &Gemini{
		readyTimeout: uploadReadyTimeout,
		sleep:        time.Sleep,
		now:          time.Now,
	}
}

// Transcribe streams a transcript for the acquired source, feeding each
// reconciled delta to the request callback and returning the full text.
func (g *Gemini) Transcribe(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Options.APIKey) == "" {
		return "", fmt.Errorf("missing API key")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     req.Options.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: proxyHTTPClient(req.Options.Proxy),
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	mediaPart, err := g.mediaPart(ctx, client, req)
	if err != nil {
		return "", err
	}

	prompt := transcribePrompt
	if hint := strings.TrimSpace(req.Options.LanguageHint); hint != "" {
		prompt += "\nThe audio is in " + hint + "."
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			mediaPart,
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		TopP:              genai.Ptr[float32](0.9),
		TopK:              genai.Ptr[float32](40),
		ResponseMIMEType:  "text/plain",
	}

	emitStatus(req, "transcription started")
	reconciler := NewReconciler()
	for resp, err := range client.Models.GenerateContentStream(ctx, req.Options.Model, contents, config) {
		if err != nil {
			return "", fmt.Errorf("streaming transcription failed: %w", err)
		}
		if delta := reconciler.Next(responseText(resp)); delta != "" {
			emitDelta(req, delta)
		}
	}

	transcript := strings.TrimSpace(reconciler.Emitted())
	emitStatus(req, fmt.Sprintf("transcription finished (%d chars)", len(transcript)))
	return transcript, nil
}

// mediaPart prepares the content part for the source: remote handles
// are referenced by URI with no upload, local files go through the File
// API and are polled until ready.
func (g *Gemini) mediaPart(ctx context.Context, client *genai.Client, req Request) (*genai.Part, error) {
	if req.Source.IsRemote() {
		return &genai.Part{FileData: &genai.FileData{FileURI: req.Source.RemoteURI}}, nil
	}

	emitStatus(req, "uploading audio: "+filepath.Base(req.Source.LocalPath))
	uploaded, err := client.Files.UploadFromPath(ctx, req.Source.LocalPath, nil)
	if err != nil {
		return nil, fmt.Errorf("upload audio: %w", err)
	}

	emitStatus(req, "waiting for file processing")
	stat := func(ctx context.Context, name string) (genai.FileState, error) {
		f, err := client.Files.Get(ctx, name, nil)
		if err != nil {
			return genai.FileStateUnspecified, err
		}
		return f.State, nil
	}
	if err := g.waitForFileActive(ctx, stat, uploaded.Name); err != nil {
		return nil, err
	}

	return &genai.Part{FileData: &genai.FileData{FileURI: uploaded.URI, MIMEType: uploaded.MIMEType}}, nil
}

// fileStater polls the processing state of one uploaded file.
type fileStater func(ctx context.Context, name string) (genai.FileState, error)

// waitForFileActive polls until the uploaded file becomes ACTIVE, with
// exponential backoff. A FAILED state or an elapsed deadline yields a
// timeout error.
func (g *Gemini) waitForFileActive(ctx context.Context, stat fileStater, name string) error {
	deadline := g.now().Add(g.readyTimeout)
	delay := pollInitialDelay

	for {
		state, err := stat(ctx, name)
		if err != nil {
			return fmt.Errorf("poll uploaded file: %w", err)
		}
		switch state {
		case genai.FileStateActive:
			return nil
		case genai.FileStateFailed:
			return fmt.Errorf("file processing failed or timed out, state=%s", state)
		}

		if g.now().After(deadline) {
			return fmt.Errorf("file processing failed or timed out, state=%s", state)
		}

		g.sleep(delay)
		delay = time.Duration(float64(delay) * pollBackoff)
		if delay > pollMaxDelay {
			delay = pollMaxDelay
		}
	}
}

// responseText flattens the text parts of one streaming response.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	if text := resp.Text(); text != "" {
		return text
	}

	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil {
				b.WriteString(part.Text)
			}
		}
	}
	return b.String()
}

// proxyHTTPClient builds an HTTP client honoring explicit proxy
// configuration; proxy state is never written to process environment.
func proxyHTTPClient(proxy domain.ProxyConfig) *http.Client {
	if proxy.Empty() {
		return nil
	}

	return &http.Client{
		Transport: &http.Transport{
			Proxy: func(req *http.Request) (*url.URL, error) {
				raw := proxy.HTTPProxy()
				if req.URL.Scheme == "https" {
					raw = proxy.HTTPSProxy()
				}
				if raw == "" {
					return nil, nil
				}
				return url.Parse(raw)
			},
		},
	}
}
