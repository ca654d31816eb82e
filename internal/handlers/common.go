package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/accessway/backend/internal/models"
	"github.com/accessway/backend/internal/profilesync"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeSyncError maps core errors onto HTTP statuses: a missing principal is
// the caller's problem, everything else is an upstream store failure.
func writeSyncError(w http.ResponseWriter, err error) {
	if errors.Is(err, profilesync.ErrNoPrincipal) || errors.Is(err, profilesync.ErrClosed) {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("No active session"))
		return
	}
	writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Profile store unavailable"))
}

// stateResponse is the wire form of the observable state port.
type stateResponse struct {
	Profile *models.Profile `json:"profile"`
	Loading bool            `json:"loading"`
	Error   string          `json:"error,omitempty"`
}

func toStateResponse(st profilesync.State) stateResponse {
	return stateResponse{
		Profile: st.Profile,
		Loading: st.Loading,
		Error:   string(st.Err),
	}
}
