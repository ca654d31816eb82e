package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreferenceSetValid(t *testing.T) {
	t.Parallel()

	assert.True(t, DefaultPreferences().Valid())

	dup := PreferenceSet{SortPriority: []SortKey{SortRating, SortRating, SortDistance}}
	assert.False(t, dup.Valid())

	short := PreferenceSet{SortPriority: []SortKey{SortRating, SortDistance}}
	assert.False(t, short.Valid())

	unknown := PreferenceSet{SortPriority: []SortKey{"bogus", SortRating, SortDistance}}
	assert.False(t, unknown.Valid())

	full := PreferenceSet{SortPriority: []SortKey{SortAccessibility, SortPersonalized, SortDistance}}
	assert.True(t, full.Valid())
}

func TestPreferenceSetEqual(t *testing.T) {
	t.Parallel()

	a := DefaultPreferences()
	b := DefaultPreferences()
	assert.True(t, a.Equal(b))

	b.Ramp = true
	assert.False(t, a.Equal(b))

	c := DefaultPreferences()
	c.SortPriority = []SortKey{SortRating, SortPersonalized, SortDistance}
	assert.False(t, a.Equal(c))
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CategoryHearing, ParseCategory("hearing"))
	assert.Equal(t, CategoryNone, ParseCategory("none"))
	assert.Equal(t, CategoryNone, ParseCategory(""))
	assert.Equal(t, CategoryNone, ParseCategory("HEARING"))
}

func TestHasMinimumProfile(t *testing.T) {
	t.Parallel()

	assert.False(t, Profile{}.HasMinimumProfile())
	assert.False(t, Profile{ID: "u1"}.HasMinimumProfile())
	assert.False(t, Profile{Email: "a@b.c"}.HasMinimumProfile())
	assert.True(t, Profile{ID: "u1", Email: "a@b.c"}.HasMinimumProfile())
	assert.True(t, Profile{ID: "u1", DisplayName: "Ada"}.HasMinimumProfile())
}

func TestNewSeedProfile(t *testing.T) {
	t.Parallel()

	p := NewSeedProfile("u1", "a@b.c", "Ada", "")
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, CategoryNone, p.Category)
	assert.Equal(t, int64(0), p.Points)
	assert.False(t, p.Onboarded)
	assert.NotNil(t, p.CreatedAt)
	assert.NotNil(t, p.UpdatedAt)
	assert.True(t, p.Preferences.Equal(DefaultPreferences()))
}
