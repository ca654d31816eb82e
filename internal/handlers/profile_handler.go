package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/accessway/backend/internal/middleware"
	"github.com/accessway/backend/internal/models"
	"github.com/accessway/backend/internal/profilesync"
	"github.com/accessway/backend/internal/session"
)

type ProfileHandler struct {
	sessions *session.Manager
	log      *slog.Logger
}

func NewProfileHandler(sessions *session.Manager, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{sessions: sessions, log: log}
}

func (h *ProfileHandler) syncer(w http.ResponseWriter, r *http.Request) (*profilesync.Syncer, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return nil, false
	}
	s, ok := h.sessions.Syncer(userID)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("No active session"))
		return nil, false
	}
	return s, true
}

// GetProfile returns the current observable state. With ?refresh=true it
// re-fetches from the store first, for callers that need confirmation
// without waiting on the live subscription.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	s, ok := h.syncer(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("refresh") == "true" {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			writeSyncError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(toStateResponse(s.Current())))
}

// SaveProfile writes the submitted profile. merge=false replaces the whole
// document; the default merge leaves unsubmitted remote fields untouched.
func (h *ProfileHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	s, ok := h.syncer(w, r)
	if !ok {
		return
	}

	var prof models.Profile
	if err := json.NewDecoder(r.Body).Decode(&prof); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	merge := r.URL.Query().Get("merge") != "false"

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := s.Save(ctx, prof, merge); err != nil {
		h.log.Error("save profile failed", "uid", middleware.GetUserID(r.Context()), "err", err)
		writeSyncError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(toStateResponse(s.Current())))
}

// UpdatePreferences merges a new preference set into the profile.
func (h *ProfileHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	s, ok := h.syncer(w, r)
	if !ok {
		return
	}

	var prefs models.PreferenceSet
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := s.UpdatePreferences(ctx, prefs); err != nil {
		writeSyncError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(toStateResponse(s.Current())))
}

type onboardingRequest struct {
	Preferences *models.PreferenceSet `json:"preferences"`
	Category    *string               `json:"category"`
}

// CompleteOnboarding marks the profile onboarded, optionally setting
// preferences and category in the same write.
func (h *ProfileHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	s, ok := h.syncer(w, r)
	if !ok {
		return
	}

	var req onboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	var category *models.DisabilityCategory
	if req.Category != nil {
		c := models.ParseCategory(*req.Category)
		category = &c
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := s.CompleteOnboarding(ctx, req.Preferences, category); err != nil {
		writeSyncError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(toStateResponse(s.Current())))
}

type pointsRequest struct {
	Delta int64 `json:"delta"`
}

// AddPoints applies a transactional counter increment, then refreshes so the
// response reflects the committed remote value.
func (h *ProfileHandler) AddPoints(w http.ResponseWriter, r *http.Request) {
	s, ok := h.syncer(w, r)
	if !ok {
		return
	}

	var req pointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if req.Delta == 0 {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Delta must be non-zero"))
		return
	}

	// Points are only awarded to profiles complete enough to show.
	if cur := s.Current().Profile; cur == nil || !cur.HasMinimumProfile() {
		writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Profile incomplete"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := s.IncrementPoints(ctx, req.Delta); err != nil {
		h.log.Error("increment points failed", "uid", middleware.GetUserID(r.Context()), "err", err)
		writeSyncError(w, err)
		return
	}
	if err := s.Refresh(ctx); err != nil {
		writeSyncError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(toStateResponse(s.Current())))
}
