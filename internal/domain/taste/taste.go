// Package taste holds the recommender entities written by the dispatch chain.
package taste

import (
	"fmt"
	"time"
)

// Scratch keys under which handlers publish resolved ids for later handlers.
const (
	ScratchUserID = "user_id"
	ScratchItemID = "item_id"
)

// Preference is the stored (user, item, value, timestamp) row.
type Preference struct {
	UserID    int64
	ItemID    int64
	Value     float64
	Timestamp time.Time
}

// Key returns the per-preference key suffix "<user>:<item>".
func (p Preference) Key() string {
	return fmt.Sprintf("%d:%d", p.UserID, p.ItemID)
}
