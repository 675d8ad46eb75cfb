// Package taste stores the numeric user/item ids and preferences written by the dispatch chain.
package taste

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/termgen/internal/db"
	domtaste "github.com/kailas-cloud/termgen/internal/domain/taste"
)

// store is the consumer interface for taste data (ISP).
type store interface {
	HGet(ctx context.Context, key, field string) (string, error)
	HSetNX(ctx context.Context, key, field, value string) (bool, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
}

// Namespaces are the key prefixes of the taste data.
type Namespaces struct {
	User       string
	Item       string
	Preference string
}

// Repo maps external ids to sequential numeric ids and stores preferences.
//
//	<user>            hash: external user id -> numeric id
//	<user>:seq        counter of issued user ids
//	<pref>:<uid>:<iid> hash: user_id, item_id, value, timestamp
type Repo struct {
	store store
	ns    Namespaces
}

// New creates a taste repository.
func New(s store, ns Namespaces) *Repo {
	return &Repo{store: s, ns: ns}
}

// ResolveUser returns the numeric id of an external user id, issuing one when unknown.
func (r *Repo) ResolveUser(ctx context.Context, externalID string) (int64, error) {
	return r.resolve(ctx, r.ns.User, externalID)
}

// ResolveItem returns the numeric id of an external item id, issuing one when unknown.
func (r *Repo) ResolveItem(ctx context.Context, externalID string) (int64, error) {
	return r.resolve(ctx, r.ns.Item, externalID)
}

// SavePreference upserts the preference of a user for an item.
func (r *Repo) SavePreference(ctx context.Context, p domtaste.Preference) error {
	key := r.ns.Preference + ":" + p.Key()
	fields := map[string]string{
		"user_id":   strconv.FormatInt(p.UserID, 10),
		"item_id":   strconv.FormatInt(p.ItemID, 10),
		"value":     strconv.FormatFloat(p.Value, 'f', -1, 64),
		"timestamp": p.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// resolve reads the id; when absent it issues the next sequence value.
// A concurrent writer may win the HSETNX, in which case its id is re-read.
func (r *Repo) resolve(ctx context.Context, ns, externalID string) (int64, error) {
	if externalID == "" {
		return 0, errors.New("external id is required")
	}

	id, err := r.lookup(ctx, ns, externalID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, db.ErrKeyNotFound) {
		return 0, err
	}

	seqKey := ns + ":seq"
	next, err := r.store.IncrBy(ctx, seqKey, 1)
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", seqKey, err)
	}

	created, err := r.store.HSetNX(ctx, ns, externalID, strconv.FormatInt(next, 10))
	if err != nil {
		return 0, fmt.Errorf("hsetnx %s %s: %w", ns, externalID, err)
	}
	if created {
		return next, nil
	}
	return r.lookup(ctx, ns, externalID)
}

func (r *Repo) lookup(ctx context.Context, ns, externalID string) (int64, error) {
	raw, err := r.store.HGet(ctx, ns, externalID)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("hget %s %s: %w", ns, externalID, err)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id %q of %s %s: %w", raw, ns, externalID, err)
	}
	return id, nil
}
