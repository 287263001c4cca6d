package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"audiototxt/internal/domain"
	"audiototxt/internal/storage"
)

// handleTranscribe validates a submission, registers a job, launches
// its runner, and returns the job identifier immediately.
func (s *Server) handleTranscribe(c *gin.Context) {
	desc, err := s.sourceDescriptor(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := domain.TranscribeOptions{
		APIKey:       c.PostForm("api_key"),
		Model:        c.PostForm("model_name"),
		LanguageHint: c.PostForm("language_hint"),
		Proxy: domain.ProxyConfig{
			Proxy:      c.PostForm("proxy"),
			ProxyHTTP:  c.PostForm("proxy_http"),
			ProxyHTTPS: c.PostForm("proxy_https"),
		},
	}
	if opts.APIKey == "" {
		opts.APIKey = s.cfg.APIKey
	}
	if opts.Model == "" {
		opts.Model = s.cfg.Model
	}
	if opts.LanguageHint == "" {
		opts.LanguageHint = s.cfg.LanguageHint
	}

	job := s.registry.Create()
	go s.runner.Run(context.Background(), job, desc, opts)

	c.JSON(http.StatusOK, gin.H{"job_id": job.ID})
}

// sourceDescriptor extracts the tagged source variant from the form.
func (s *Server) sourceDescriptor(c *gin.Context) (domain.SourceDescriptor, error) {
	sourceType := domain.SourceType(c.PostForm("source_type"))

	switch sourceType {
	case domain.SourceTypeAudio:
		header, err := c.FormFile("file")
		if err != nil {
			return domain.SourceDescriptor{}, errors.New("no uploaded audio file received")
		}
		f, err := header.Open()
		if err != nil {
			return domain.SourceDescriptor{}, errors.New("cannot read uploaded audio file")
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return domain.SourceDescriptor{}, errors.New("cannot read uploaded audio file")
		}
		return domain.SourceDescriptor{
			Type:          domain.SourceTypeAudio,
			AudioContent:  content,
			AudioFilename: header.Filename,
		}, nil

	case domain.SourceTypeYouTube:
		url := c.PostForm("youtube_url")
		if url == "" {
			return domain.SourceDescriptor{}, errors.New("missing YouTube URL")
		}
		strategy := domain.YouTubeRemote
		if c.PostForm("strategy") == string(domain.YouTubeDownload) {
			strategy = domain.YouTubeDownload
		}
		return domain.SourceDescriptor{
			Type:            domain.SourceTypeYouTube,
			YouTubeURL:      url,
			YouTubeStrategy: strategy,
		}, nil

	case domain.SourceTypeVideoURL:
		url := c.PostForm("video_url")
		if url == "" {
			return domain.SourceDescriptor{}, errors.New("missing direct video URL")
		}
		return domain.SourceDescriptor{Type: domain.SourceTypeVideoURL, VideoURL: url}, nil

	case domain.SourceTypeShareText:
		text := c.PostForm("share_text")
		if text == "" {
			return domain.SourceDescriptor{}, errors.New("missing share text or short link")
		}
		return domain.SourceDescriptor{Type: domain.SourceTypeShareText, ShareText: text}, nil

	default:
		return domain.SourceDescriptor{}, errors.New("unknown source type: " + string(sourceType))
	}
}

// handleDownload serves a persisted transcript by artifact name. Names
// containing path separators are rejected before any file access.
func (s *Server) handleDownload(c *gin.Context) {
	name := c.Param("filename")

	path, err := s.store.Resolve(name)
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file name"})
		return
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.FileAttachment(path, name)
}

// handleListFiles lists stored artifacts, newest first.
func (s *Server) handleListFiles(c *gin.Context) {
	files, err := s.store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"files":       files,
		"total_count": len(files),
	})
}

// handleCleanup deletes artifacts older than the requested age.
func (s *Server) handleCleanup(c *gin.Context) {
	ageHours := s.cfg.CleanupHours
	if raw := c.Query("max_age_hours"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid max_age_hours"})
			return
		}
		ageHours = parsed
	}

	removed, err := s.store.Cleanup(time.Duration(ageHours * float64(time.Hour)))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"removed": removed,
	})
}
