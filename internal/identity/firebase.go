package identity

import (
	"context"
	"fmt"

	fbauth "firebase.google.com/go/v4/auth"
)

// FirebaseService adapts Firebase Auth to the identity contracts that need
// the real backend: user-record lookup and principal deletion.
type FirebaseService struct {
	auth *fbauth.Client
}

func NewFirebaseService(auth *fbauth.Client) *FirebaseService {
	return &FirebaseService{auth: auth}
}

// Lookup fetches the user record for a verified UID. Lookup failure is not
// fatal: the caller still has a valid principal, just with fewer attributes
// for the profile seed.
func (s *FirebaseService) Lookup(ctx context.Context, uid string) User {
	u := User{ID: uid}
	if rec, err := s.auth.GetUser(ctx, uid); err == nil {
		u.Email = rec.Email
		u.DisplayName = rec.DisplayName
		u.PhotoURL = rec.PhotoURL
	}
	return u
}

func (s *FirebaseService) DeleteUser(ctx context.Context, id string) error {
	if err := s.auth.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("identity: delete user %s: %w", id, err)
	}
	return nil
}
