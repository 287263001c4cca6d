package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"audiototxt/internal/domain"
	"audiototxt/internal/jobs"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleProgress streams a job's events over WebSocket in emission
// order. A late subscriber first receives the accumulated transcript as
// one synthetic chunk; an unknown identifier yields an immediate error
// event and the connection is closed.
func (s *Server) handleProgress(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	jobID := c.Param("job_id")
	job, err := s.registry.Get(jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		_ = conn.WriteJSON(domain.ErrorEvent("job not found"))
		return
	}

	for _, event := range job.Attach() {
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}

	// A disconnecting consumer only stops delivery; the runner keeps
	// going and the queue absorbs its events.
	for {
		event, ok := job.Next()
		if !ok {
			return
		}
		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}
