package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"

	"github.com/accessway/backend/internal/models"
)

type contextKey string

const (
	UserIDKey    contextKey = "userID"
	UserEmailKey contextKey = "userEmail"
	UserNameKey  contextKey = "userName"
	UserPhotoKey contextKey = "userPhoto"
)

// Auth validates the Bearer token and stashes the principal's attributes in
// the request context. With a Firebase client it verifies ID tokens; without
// one it falls back to HS256 dev tokens signed with devSecret.
func Auth(authClient *fbauth.Client, devSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Authorization header required"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid authorization header format"))
				return
			}
			tokenString := parts[1]

			var uid, email, name, photo string
			switch {
			case authClient != nil:
				token, err := authClient.VerifyIDToken(r.Context(), tokenString)
				if err != nil {
					writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired token"))
					return
				}
				uid = token.UID
				email = claimString(token.Claims, "email")
				name = claimString(token.Claims, "name")
				photo = claimString(token.Claims, "picture")

			case devSecret != "":
				token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
					if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, jwt.ErrSignatureInvalid
					}
					return []byte(devSecret), nil
				})
				if err != nil || !token.Valid {
					writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired token"))
					return
				}
				claims, ok := token.Claims.(jwt.MapClaims)
				if !ok {
					writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid token claims"))
					return
				}
				uid = claimString(claims, "user_id")
				email = claimString(claims, "email")
				name = claimString(claims, "name")

			default:
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("No token verifier configured"))
				return
			}

			if uid == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid user ID in token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, uid)
			ctx = context.WithValue(ctx, UserEmailKey, email)
			ctx = context.WithValue(ctx, UserNameKey, name)
			ctx = context.WithValue(ctx, UserPhotoKey, photo)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the principal id from context.
func GetUserID(ctx context.Context) string { return ctxString(ctx, UserIDKey) }

// GetUserEmail extracts the principal's email from context.
func GetUserEmail(ctx context.Context) string { return ctxString(ctx, UserEmailKey) }

// GetUserName extracts the principal's display name from context.
func GetUserName(ctx context.Context) string { return ctxString(ctx, UserNameKey) }

// GetUserPhoto extracts the principal's photo URL from context.
func GetUserPhoto(ctx context.Context) string { return ctxString(ctx, UserPhotoKey) }

func ctxString(ctx context.Context, key contextKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

func claimString(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return s
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
