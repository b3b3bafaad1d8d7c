package domain

import (
	"fmt"
	"time"
)

// InteractionType classifies a user signal about a book.
type InteractionType string

// Interaction types, lowest priority first.
const (
	InteractionSearchClick InteractionType = "search-click"
	InteractionCoverClick  InteractionType = "cover-click"
	InteractionLike        InteractionType = "like"
	InteractionRead        InteractionType = "read"
	InteractionBuy         InteractionType = "buy"
	InteractionFavorite    InteractionType = "favorite"
)

var interactionPriority = map[InteractionType]int{
	InteractionSearchClick: 1,
	InteractionCoverClick:  2,
	InteractionLike:        3,
	InteractionRead:        4,
	InteractionBuy:         5,
	InteractionFavorite:    6,
}

// Priority ranks the signal strength; favorite is the highest. Unknown types rank 0.
func (t InteractionType) Priority() int {
	return interactionPriority[t]
}

// ParseInteractionType validates a raw interaction type.
func ParseInteractionType(raw string) (InteractionType, error) {
	t := InteractionType(raw)
	if _, ok := interactionPriority[t]; !ok {
		return "", fmt.Errorf("unknown interaction type %q", raw)
	}
	return t, nil
}

// Interaction records that a user did something with a book.
type Interaction struct {
	Type      InteractionType `json:"type"`
	BookID    string          `json:"bookId"`
	Timestamp time.Time       `json:"timestamp"`
}
