// Package taste provides the chain handlers that turn events into stored preferences:
// user resolution, item resolution, then the preference write.
package taste

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/termgen/internal/chain"
	"github.com/kailas-cloud/termgen/internal/domain"
	domtaste "github.com/kailas-cloud/termgen/internal/domain/taste"
)

// UserHandler resolves user.id into Scratch[user_id].
type UserHandler struct {
	ids IDResolver
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(ids IDResolver) *UserHandler {
	return &UserHandler{ids: ids}
}

// Handle implements chain.Handler.
func (h *UserHandler) Handle(ctx context.Context, req *chain.Request) error {
	ext := req.Event.UserID()
	if ext == "" {
		return fmt.Errorf("user: %w", domain.ErrMissingID)
	}
	id, err := h.ids.ResolveUser(ctx, ext)
	if err != nil {
		return fmt.Errorf("resolve user %s: %w", ext, err)
	}
	req.Scratch[domtaste.ScratchUserID] = id
	return nil
}

// ItemHandler resolves item.id into Scratch[item_id].
type ItemHandler struct {
	ids IDResolver
}

// NewItemHandler creates an ItemHandler.
func NewItemHandler(ids IDResolver) *ItemHandler {
	return &ItemHandler{ids: ids}
}

// Handle implements chain.Handler.
func (h *ItemHandler) Handle(ctx context.Context, req *chain.Request) error {
	ext := req.Event.ItemID()
	if ext == "" {
		return fmt.Errorf("item: %w", domain.ErrMissingID)
	}
	id, err := h.ids.ResolveItem(ctx, ext)
	if err != nil {
		return fmt.Errorf("resolve item %s: %w", ext, err)
	}
	req.Scratch[domtaste.ScratchItemID] = id
	return nil
}

// PreferenceHandler writes the preference of the resolved user and item.
// It must run after UserHandler and ItemHandler.
type PreferenceHandler struct {
	prefs PreferenceWriter
}

// NewPreferenceHandler creates a PreferenceHandler.
func NewPreferenceHandler(prefs PreferenceWriter) *PreferenceHandler {
	return &PreferenceHandler{prefs: prefs}
}

// Handle implements chain.Handler.
func (h *PreferenceHandler) Handle(ctx context.Context, req *chain.Request) error {
	userID, ok := req.Scratch[domtaste.ScratchUserID].(int64)
	if !ok {
		return fmt.Errorf("preference: %s not resolved", domtaste.ScratchUserID)
	}
	itemID, ok := req.Scratch[domtaste.ScratchItemID].(int64)
	if !ok {
		return fmt.Errorf("preference: %s not resolved", domtaste.ScratchItemID)
	}

	names := req.Params.FieldNames()
	value, ok := req.Event.Value(names)
	if !ok {
		return fmt.Errorf("preference: no %q in event", names.Value)
	}
	ts, ok := req.Event.Timestamp(names)
	if !ok {
		return fmt.Errorf("preference: no %q in event", names.Timestamp)
	}

	return h.prefs.SavePreference(ctx, domtaste.Preference{
		UserID:    userID,
		ItemID:    itemID,
		Value:     float64(value),
		Timestamp: ts,
	})
}

// Handlers returns the user, item and preference handlers in chain order.
func Handlers(ids IDResolver, prefs PreferenceWriter) []chain.Handler {
	return []chain.Handler{
		NewUserHandler(ids),
		NewItemHandler(ids),
		NewPreferenceHandler(prefs),
	}
}
