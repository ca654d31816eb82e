package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"

	"github.com/accessway/backend/internal/middleware"
	"github.com/accessway/backend/internal/models"
	"github.com/accessway/backend/internal/session"
)

type AccountHandler struct {
	sessions *session.Manager
	gcs      *gcs.Client
	bucket   string
	log      *slog.Logger
}

// NewAccountHandler wires account deletion. gcsClient may be nil when no
// storage bucket is configured; photo cleanup is skipped then.
func NewAccountHandler(sessions *session.Manager, gcsClient *gcs.Client, bucket string, log *slog.Logger) *AccountHandler {
	return &AccountHandler{sessions: sessions, gcs: gcsClient, bucket: bucket, log: log}
}

// DeleteAccount removes the authenticated principal. Identity deletion is
// the fatal step; the profile document and any stored profile photo are
// deleted best-effort afterwards, and the session is torn down.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}
	s, ok := h.sessions.Syncer(userID)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("No active session"))
		return
	}

	// Capture the photo URL before the document disappears.
	var photoURL string
	if cur := s.Current().Profile; cur != nil {
		photoURL = cur.PhotoURL
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	if err := s.DeleteAccount(ctx); err != nil {
		h.log.Error("account deletion failed", "uid", userID, "err", err)
		writeSyncError(w, err)
		return
	}

	h.deletePhotoObject(ctx, photoURL)
	h.sessions.SignOut(userID)

	w.WriteHeader(http.StatusNoContent)
}

// deletePhotoObject removes the profile photo from the storage bucket.
// Best effort: a stale or foreign URL just gets logged.
func (h *AccountHandler) deletePhotoObject(ctx context.Context, photoURL string) {
	if h.gcs == nil || h.bucket == "" || photoURL == "" {
		return
	}
	object := objectPathFromURL(photoURL, h.bucket)
	if object == "" {
		return
	}
	if err := h.gcs.Bucket(h.bucket).Object(object).Delete(ctx); err != nil {
		h.log.Warn("profile photo delete failed", "object", object, "err", err)
	}
}

// objectPathFromURL extracts the object path from a Firebase Storage
// download URL for the given bucket, or returns "" when the URL points
// elsewhere.
func objectPathFromURL(rawURL, bucket string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	prefix := "/v0/b/" + bucket + "/o/"
	if !strings.HasPrefix(u.Path, prefix) {
		return ""
	}
	object, err := url.PathUnescape(strings.TrimPrefix(u.Path, prefix))
	if err != nil {
		return ""
	}
	return object
}
