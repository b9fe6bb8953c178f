// ABOUTME: Subscription entitlement resolution with a fail-safe free default.
// ABOUTME: Callers act on an immutable Context snapshot, never on live resolver state.
package entitlement

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/harperreed/fitlog/internal/logging"
	"github.com/harperreed/fitlog/internal/models"
)

// Source looks up a user's plan tier string in the cloud store.
type Source interface {
	FetchTier(ctx context.Context, userID string) (string, error)
}

// Context is the entitlement snapshot one user action runs against.
type Context struct {
	UserID string
	Tier   models.Tier
}

// Free returns a free-tier snapshot for userID.
func Free(userID string) Context {
	return Context{UserID: userID, Tier: models.TierFree}
}

// ShouldUseCloud reports whether writes for this snapshot go to the cloud.
func (c Context) ShouldUseCloud() bool {
	return c.UserID != "" && c.Tier.CloudEnabled()
}

var errNoSource = errors.New("no subscription source configured")

// Resolver caches the tier of one user. The zero value is unloaded and free.
type Resolver struct {
	source Source
	logger *log.Logger

	mu     sync.RWMutex
	userID string
	tier   models.Tier
	loaded bool
}

// NewResolver creates a resolver reading from source. A nil source always
// resolves to the free tier.
func NewResolver(source Source, logger *log.Logger) *Resolver {
	return &Resolver{
		source: source,
		logger: logging.OrDiscard(logger),
		tier:   models.TierFree,
	}
}

// LoadSubscription fetches and caches the tier for userID. Any failure
// resolves to the free tier and is logged, never returned.
func (r *Resolver) LoadSubscription(ctx context.Context, userID string) models.Tier {
	tier := r.fetch(ctx, userID)

	r.mu.Lock()
	r.userID = userID
	r.tier = tier
	r.loaded = true
	r.mu.Unlock()

	r.logger.Debug("subscription loaded", "user", userID, "tier", tier)
	return tier
}

func (r *Resolver) fetch(ctx context.Context, userID string) models.Tier {
	if userID == "" {
		r.logger.Warn("no user id, using free tier")
		return models.TierFree
	}
	if r.source == nil {
		r.logger.Warn("subscription lookup failed, using free tier", "user", userID, "err", errNoSource)
		return models.TierFree
	}

	raw, err := r.source.FetchTier(ctx, userID)
	if err != nil {
		r.logger.Warn("subscription lookup failed, using free tier", "user", userID, "err", err)
		return models.TierFree
	}

	tier, ok := models.ParseTier(raw)
	if !ok {
		r.logger.Warn("unknown plan tier, using free tier", "user", userID, "plan_tier", raw)
	}
	return tier
}

// Refresh re-runs LoadSubscription for the cached user.
func (r *Resolver) Refresh(ctx context.Context) models.Tier {
	return r.LoadSubscription(ctx, r.UserID())
}

// ShouldUseCloud reports whether the cached tier is entitled to cloud storage.
func (r *Resolver) ShouldUseCloud() bool {
	return r.Context().ShouldUseCloud()
}

// Tier returns the cached tier, free until loaded.
func (r *Resolver) Tier() models.Tier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tier
}

// Loaded reports whether LoadSubscription has run.
func (r *Resolver) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// UserID returns the user the cached tier belongs to.
func (r *Resolver) UserID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.userID
}

// Context snapshots the cached user and tier.
func (r *Resolver) Context() Context {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Context{UserID: r.userID, Tier: r.tier}
}
