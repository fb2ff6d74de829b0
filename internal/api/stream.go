package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// handleStream sends store changes to the client as server-sent events.
// The subscription channel is buffered and drops when the client is slow,
// so a stuck connection never blocks a store command.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, 500, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	flusher.Flush()

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-ch:
			fmt.Fprintf(w, "event: %s\ndata: ", change.Op)
			if err := json.NewEncoder(w).Encode(change); err != nil {
				return
			}
			fmt.Fprintf(w, "\n")
			flusher.Flush()
		}
	}
}
