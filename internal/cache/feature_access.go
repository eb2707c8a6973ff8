package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/peakform/coach-backend/generated/db"
	"github.com/peakform/coach-backend/internal/logging"
	"github.com/peakform/coach-backend/internal/permissions"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "feature_access:"
	defaultTTL = 5 * time.Minute
)

// FeatureAccessCache is a read-through snapshot of a client's granted
// permissions, keyed by client. The permission services invalidate the key
// after every committed mutation, so a miss rebuilds from Postgres.
type FeatureAccessCache struct {
	client  *redis.Client
	queries *db.Queries
	ttl     time.Duration
}

func New(client *redis.Client, queries *db.Queries) *FeatureAccessCache {
	return &FeatureAccessCache{client: client, queries: queries, ttl: defaultTTL}
}

// Snapshot maps relationship ID to the slugs it holds for the client.
type Snapshot map[uuid.UUID][]string

func key(clientID uuid.UUID) string {
	return keyPrefix + clientID.String()
}

// Invalidate drops the client's snapshot. Implements permissions.Invalidator.
func (c *FeatureAccessCache) Invalidate(ctx context.Context, clientID uuid.UUID) error {
	if err := c.client.Del(ctx, key(clientID)).Err(); err != nil {
		logging.Error("failed to invalidate feature access cache",
			"client_id", clientID, "error", err)
		return err
	}
	return nil
}

// Get returns the client's snapshot, rebuilding and repopulating it on a
// miss. Redis failures degrade to a direct database read.
func (c *FeatureAccessCache) Get(ctx context.Context, clientID uuid.UUID) (Snapshot, error) {
	raw, err := c.client.Get(ctx, key(clientID)).Bytes()
	if err == nil {
		var snapshot Snapshot
		if err := json.Unmarshal(raw, &snapshot); err == nil {
			return snapshot, nil
		}
		// Unparseable entry: fall through and rebuild.
	} else if err != redis.Nil {
		logging.Error("feature access cache read failed, falling back to database",
			"client_id", clientID, "error", err)
	}

	snapshot, err := c.build(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(snapshot); err == nil {
		if err := c.client.Set(ctx, key(clientID), raw, c.ttl).Err(); err != nil {
			logging.Error("failed to populate feature access cache",
				"client_id", clientID, "error", err)
		}
	}
	return snapshot, nil
}

func (c *FeatureAccessCache) build(ctx context.Context, clientID uuid.UUID) (Snapshot, error) {
	rels, err := c.queries.ListRelationshipsByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}

	snapshot := make(Snapshot, len(rels))
	for _, rel := range rels {
		if rel.Status != permissions.RelationshipActive {
			continue
		}
		slugs, err := c.queries.ListGrantedSlugs(ctx, rel.ID)
		if err != nil {
			return nil, fmt.Errorf("listing granted slugs: %w", err)
		}
		if len(slugs) > 0 {
			snapshot[rel.ID] = slugs
		}
	}
	return snapshot, nil
}

// Has reports whether the relationship holds the slug for the client.
func (c *FeatureAccessCache) Has(ctx context.Context, clientID, relationshipID uuid.UUID, slug string) (bool, error) {
	snapshot, err := c.Get(ctx, clientID)
	if err != nil {
		return false, err
	}
	for _, s := range snapshot[relationshipID] {
		if s == slug {
			return true, nil
		}
	}
	return false, nil
}
