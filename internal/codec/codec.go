// Package codec maps Profile values to and from the loosely-typed wire
// representation the document store deals in. Decode is total: malformed
// input degrades to field defaults instead of failing, so a bad document can
// never wedge the sync loop.
package codec

import (
	"time"

	"github.com/accessway/backend/internal/models"
)

// Wire field names. The store is shared with mobile clients, so these are
// part of the document schema and must not drift.
const (
	FieldID          = "id"
	FieldEmail       = "email"
	FieldDisplayName = "displayName"
	FieldPhotoURL    = "photoUrl"
	FieldCategory    = "category"
	FieldPoints      = "points"
	FieldOnboarded   = "onboarded"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
	FieldPreferences = "preferences"

	FieldSortPriority = "sortPriorityOrder"
	FieldRamp         = "ramp"
	FieldRestroom     = "restroom"
	FieldElevator     = "elevator"
	FieldBrailleMenu  = "brailleMenu"
	FieldGuideDog     = "guideDogFriendly"
)

// Decode converts a wire map into a Profile. It never fails: unknown
// categories become CategoryNone, unreadable timestamps become nil,
// numeric-ish points are coerced (default 0), and a sort-priority list that
// is not exactly three distinct known keys collapses to the default order.
func Decode(data map[string]any) models.Profile {
	p := models.Profile{
		ID:          asString(data[FieldID]),
		Email:       asString(data[FieldEmail]),
		DisplayName: asString(data[FieldDisplayName]),
		PhotoURL:    asString(data[FieldPhotoURL]),
		Category:    models.ParseCategory(asString(data[FieldCategory])),
		Points:      asInt(data[FieldPoints], 0),
		Onboarded:   asBool(data[FieldOnboarded]),
		CreatedAt:   asTime(data[FieldCreatedAt]),
		UpdatedAt:   asTime(data[FieldUpdatedAt]),
		Preferences: decodePreferences(data[FieldPreferences]),
	}
	if p.Points < 0 {
		p.Points = 0
	}
	return p
}

// Encode converts a Profile into a wire map. Timestamps are serialized as
// UTC RFC 3339 strings; absent optional strings and nil timestamps are
// omitted so merge writes never clear remote fields.
func Encode(p models.Profile) map[string]any {
	data := map[string]any{
		FieldID:          p.ID,
		FieldCategory:    string(p.Category),
		FieldPoints:      p.Points,
		FieldOnboarded:   p.Onboarded,
		FieldPreferences: EncodePreferences(p.Preferences),
	}
	if p.Email != "" {
		data[FieldEmail] = p.Email
	}
	if p.DisplayName != "" {
		data[FieldDisplayName] = p.DisplayName
	}
	if p.PhotoURL != "" {
		data[FieldPhotoURL] = p.PhotoURL
	}
	if p.CreatedAt != nil {
		data[FieldCreatedAt] = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	if p.UpdatedAt != nil {
		data[FieldUpdatedAt] = p.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return data
}

// EncodePreferences converts a PreferenceSet into its nested wire object.
func EncodePreferences(prefs models.PreferenceSet) map[string]any {
	order := make([]any, 0, len(prefs.SortPriority))
	for _, k := range prefs.SortPriority {
		order = append(order, string(k))
	}
	return map[string]any{
		FieldSortPriority: order,
		FieldRamp:         prefs.Ramp,
		FieldRestroom:     prefs.Restroom,
		FieldElevator:     prefs.Elevator,
		FieldBrailleMenu:  prefs.BrailleMenu,
		FieldGuideDog:     prefs.GuideDogFriendly,
	}
}

func decodePreferences(v any) models.PreferenceSet {
	m, ok := v.(map[string]any)
	if !ok {
		return models.DefaultPreferences()
	}
	prefs := models.PreferenceSet{
		SortPriority:     decodeSortPriority(m[FieldSortPriority]),
		Ramp:             asBool(m[FieldRamp]),
		Restroom:         asBool(m[FieldRestroom]),
		Elevator:         asBool(m[FieldElevator]),
		BrailleMenu:      asBool(m[FieldBrailleMenu]),
		GuideDogFriendly: asBool(m[FieldGuideDog]),
	}
	return prefs
}

// decodeSortPriority drops unknown names, then validates the remainder.
// Anything short of three distinct keys invalidates the whole list; a
// partially-filled ordering would silently reorder the user's results.
func decodeSortPriority(v any) []models.SortKey {
	items, ok := v.([]any)
	if !ok {
		return models.DefaultPreferences().SortPriority
	}
	keys := make([]models.SortKey, 0, len(items))
	seen := make(map[models.SortKey]struct{}, len(items))
	for _, it := range items {
		k, ok := models.ParseSortKey(asString(it))
		if !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			return models.DefaultPreferences().SortPriority
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if len(keys) != models.SortPriorityLen {
		return models.DefaultPreferences().SortPriority
	}
	return keys
}
