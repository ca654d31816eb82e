package models

import "time"

// DisabilityCategory is the user's self-reported accessibility category.
type DisabilityCategory string

const (
	CategoryNone      DisabilityCategory = "none"
	CategoryMobility  DisabilityCategory = "mobility"
	CategoryVisual    DisabilityCategory = "visual"
	CategoryHearing   DisabilityCategory = "hearing"
	CategoryCognitive DisabilityCategory = "cognitive"
	CategoryOther     DisabilityCategory = "other"
)

// ParseCategory maps a wire name to a category. Unknown names normalize to
// CategoryNone rather than failing.
func ParseCategory(s string) DisabilityCategory {
	switch DisabilityCategory(s) {
	case CategoryMobility, CategoryVisual, CategoryHearing, CategoryCognitive, CategoryOther:
		return DisabilityCategory(s)
	}
	return CategoryNone
}

// Profile is the per-user document kept in the remote store, keyed by the
// auth provider's UID. Empty optional strings mean "absent"; nil timestamps
// mean the field was missing or unreadable on the wire.
type Profile struct {
	ID          string             `json:"id"`
	Email       string             `json:"email,omitempty"`
	DisplayName string             `json:"display_name,omitempty"`
	PhotoURL    string             `json:"photo_url,omitempty"`
	Category    DisabilityCategory `json:"category"`
	Points      int64              `json:"points"`
	Onboarded   bool               `json:"onboarded"`
	CreatedAt   *time.Time         `json:"created_at,omitempty"`
	UpdatedAt   *time.Time         `json:"updated_at,omitempty"`
	Preferences PreferenceSet      `json:"preferences"`
}

// NewSeedProfile builds the document written the first time a principal's
// profile is observed absent. Everything defaults; identity attributes are
// whatever the auth provider had.
func NewSeedProfile(id, email, displayName, photoURL string) Profile {
	now := time.Now().UTC()
	return Profile{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
		Category:    CategoryNone,
		CreatedAt:   &now,
		UpdatedAt:   &now,
		Preferences: DefaultPreferences(),
	}
}

// HasMinimumProfile reports whether the profile is complete enough to gate
// feature access on: a key plus at least one human-readable identity field.
func (p Profile) HasMinimumProfile() bool {
	return p.ID != "" && (p.Email != "" || p.DisplayName != "")
}

// WithUpdatedAt returns a copy stamped with the given commit time in UTC.
func (p Profile) WithUpdatedAt(t time.Time) Profile {
	u := t.UTC()
	p.UpdatedAt = &u
	return p
}
