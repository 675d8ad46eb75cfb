package taste

import (
	"context"

	domtaste "github.com/kailas-cloud/termgen/internal/domain/taste"
)

// IDResolver maps external user and item ids to numeric ids.
type IDResolver interface {
	ResolveUser(ctx context.Context, externalID string) (int64, error)
	ResolveItem(ctx context.Context, externalID string) (int64, error)
}

// PreferenceWriter stores preferences.
type PreferenceWriter interface {
	SavePreference(ctx context.Context, p domtaste.Preference) error
}
