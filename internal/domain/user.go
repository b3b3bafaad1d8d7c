package domain

import (
	"slices"
	"time"
)

// DefaultLanguages applies when a user has not chosen any.
var DefaultLanguages = []string{"en"}

// User is a catalog reader. Favorites behave as a set of book IDs.
type User struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Favorites          []string  `json:"favorites"`
	PreferredLanguages []string  `json:"preferredLanguages"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Languages returns the preferred languages, falling back to the defaults.
func (u *User) Languages() []string {
	if len(u.PreferredLanguages) == 0 {
		return DefaultLanguages
	}
	return u.PreferredLanguages
}

// AddFavorite adds bookID and reports whether it was newly added.
func (u *User) AddFavorite(bookID string) bool {
	if slices.Contains(u.Favorites, bookID) {
		return false
	}
	u.Favorites = append(u.Favorites, bookID)
	return true
}

// RemoveFavorite removes bookID and reports whether it was present.
func (u *User) RemoveFavorite(bookID string) bool {
	i := slices.Index(u.Favorites, bookID)
	if i < 0 {
		return false
	}
	u.Favorites = slices.Delete(u.Favorites, i, i+1)
	return true
}

// FavoriteInteractions synthesizes a favorite interaction per favorite,
// all stamped at now.
func (u *User) FavoriteInteractions(now time.Time) []Interaction {
	out := make([]Interaction, 0, len(u.Favorites))
	for _, id := range u.Favorites {
		out = append(out, Interaction{Type: InteractionFavorite, BookID: id, Timestamp: now})
	}
	return out
}
