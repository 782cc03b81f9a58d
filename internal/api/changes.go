package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

var keepAliveInterval = 15 * time.Second

// handleChanges streams every repository mutation as a server-sent event.
// The first frame is a comment carrying the current version so clients can
// tell whether they missed anything while connecting.
func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	if s.changes == nil {
		s.writeError(w, http.StatusServiceUnavailable, "change feed disabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ch := s.changes.Subscribe()
	defer s.changes.Unsubscribe(ch)
	s.log.Debug("change stream opened", "subscribers", s.changes.Subscribers())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	fmt.Fprintf(w, ": version %d\n\n", s.repo.Version())
	flusher.Flush()

	ctx := r.Context()
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case c, ok := <-ch:
			if !ok {
				return
			}
			b, err := json.Marshal(c)
			if err != nil {
				s.log.Warn("encode change", "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: change\ndata: %s\n\n", c.Version, b)
			flusher.Flush()
		}
	}
}
