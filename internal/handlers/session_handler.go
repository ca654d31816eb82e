package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/accessway/backend/internal/identity"
	"github.com/accessway/backend/internal/middleware"
	"github.com/accessway/backend/internal/models"
	"github.com/accessway/backend/internal/session"
)

// Lookup enriches a verified principal with identity-backend attributes.
type Lookup interface {
	Lookup(ctx context.Context, uid string) identity.User
}

type SessionHandler struct {
	sessions *session.Manager
	lookup   Lookup
}

func NewSessionHandler(sessions *session.Manager, lookup Lookup) *SessionHandler {
	return &SessionHandler{sessions: sessions, lookup: lookup}
}

// SignIn starts (or refreshes) the caller's session. The profile document is
// seeded and subscribed in the background; clients observe progress through
// GET /api/profile or the events stream.
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	user := identity.User{
		ID:          userID,
		Email:       middleware.GetUserEmail(r.Context()),
		DisplayName: middleware.GetUserName(r.Context()),
		PhotoURL:    middleware.GetUserPhoto(r.Context()),
	}
	if h.lookup != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		rec := h.lookup.Lookup(ctx, userID)
		if user.Email == "" {
			user.Email = rec.Email
		}
		if user.DisplayName == "" {
			user.DisplayName = rec.DisplayName
		}
		if user.PhotoURL == "" {
			user.PhotoURL = rec.PhotoURL
		}
	}

	syncer := h.sessions.SignIn(r.Context(), user)
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(toStateResponse(syncer.Current())))
}

// SignOut ends the caller's session. Idempotent.
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}
	h.sessions.SignOut(userID)
	w.WriteHeader(http.StatusNoContent)
}
