package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/accessway/backend/internal/models"
)

// Events streams observable-state changes to the client as server-sent
// events: one `data:` line per emission, starting with the current state.
func (h *ProfileHandler) Events(w http.ResponseWriter, r *http.Request) {
	s, ok := h.syncer(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	subID, states := s.Subscribe()
	defer s.Unsubscribe(subID)

	for {
		select {
		case <-r.Context().Done():
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			payload, err := json.Marshal(toStateResponse(st))
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
