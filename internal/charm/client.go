// ABOUTME: Charm KV client wrapper used as a remote cloud store.
// ABOUTME: Records live under <family>:<userID>:<id> keys and sync to Charm Cloud after writes.
package charm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
)

const (
	dbName = "fitlog"

	// DefaultHost is the Charm server used when none is configured.
	DefaultHost = "charm.2389.dev"

	subscriptionPrefix = "subscription:"
)

var errReadOnly = errors.New("cannot write: database is locked by another process (MCP server?)")

// kvStore is the subset of *kv.KV the client uses.
type kvStore interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Keys() ([][]byte, error)
	IsReadOnly() bool
	Sync() error
	Close() error
}

// Client is a remote store backed by Charm KV.
type Client struct {
	kv kvStore
	mu sync.RWMutex
}

var _ storage.RemoteStore = (*Client)(nil)

// Open opens the fitlog KV database against the given Charm host.
func Open(host string) (*Client, error) {
	if host == "" {
		host = DefaultHost
	}
	// Set server before opening KV
	if err := os.Setenv("CHARM_HOST", host); err != nil {
		return nil, fmt.Errorf("set charm host: %w", err)
	}

	db, err := kv.OpenWithDefaultsFallback(dbName)
	if err != nil {
		return nil, fmt.Errorf("open charm kv: %w", err)
	}

	c := newClient(db)

	// Pull remote data on startup (skip in read-only mode)
	if !db.IsReadOnly() {
		_ = db.Sync()
	}
	return c, nil
}

func newClient(store kvStore) *Client {
	return &Client{kv: store}
}

// Close closes the KV database connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv != nil {
		return c.kv.Close()
	}
	return nil
}

// Ping syncs with Charm Cloud, which fails when the server is unreachable.
func (c *Client) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return storage.NewRemoteError(storage.RemoteTransient, "connection", "ping", err)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.kv.IsReadOnly() {
		return nil
	}
	if err := c.kv.Sync(); err != nil {
		return storage.NewRemoteError(storage.RemoteTransient, "connection", "ping", err)
	}
	return nil
}

// ID returns the Charm user ID for the current account.
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("create charm client: %w", err)
	}
	return cc.ID()
}

// ForUser returns a Backend whose keys are namespaced by userID.
func (c *Client) ForUser(userID string) storage.Backend {
	return &userStore{c: c, userID: userID}
}

// FetchTier reads the plan tier stored under subscription:<userID>.
// A missing key means the free tier.
func (c *Client) FetchTier(ctx context.Context, userID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := c.kv.Get([]byte(subscriptionKey(userID)))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return string(models.TierFree), nil
	}
	if err != nil {
		return "", storage.NewRemoteError(storage.RemoteTransient, "subscriptions", "fetch tier", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SetTier writes the plan tier for userID.
func (c *Client) SetTier(ctx context.Context, userID string, tier models.Tier) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.writable(); err != nil {
		return storage.NewRemoteError(storage.RemoteTransient, "subscriptions", "set tier", err)
	}
	if err := c.kv.Set([]byte(subscriptionKey(userID)), []byte(tier)); err != nil {
		return storage.NewRemoteError(storage.RemoteTransient, "subscriptions", "set tier", err)
	}
	if err := c.kv.Sync(); err != nil {
		return storage.NewRemoteError(storage.RemoteTransient, "subscriptions", "set tier", err)
	}
	return nil
}

func (c *Client) writable() error {
	if c.kv.IsReadOnly() {
		return errReadOnly
	}
	return nil
}

// insert stores data under key unless the key already exists, then syncs.
// A write is acknowledged only once Charm Cloud has it: a failed sync is a
// transient error even though the key is now present locally, so a retry of
// the same record reports a conflict.
func (c *Client) insert(family models.Family, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	table := family.Table()
	if err := c.writable(); err != nil {
		return storage.NewRemoteError(storage.RemoteTransient, table, "save", err)
	}

	_, err := c.kv.Get([]byte(key))
	switch {
	case err == nil:
		return storage.NewRemoteError(storage.RemoteConflict, table, "save", fmt.Errorf("key %s already exists", key))
	case !errors.Is(err, badger.ErrKeyNotFound):
		return storage.NewRemoteError(storage.RemoteTransient, table, "save", err)
	}

	if err := c.kv.Set([]byte(key), data); err != nil {
		return storage.NewRemoteError(storage.RemoteTransient, table, "save", err)
	}
	if err := c.kv.Sync(); err != nil {
		return storage.NewRemoteError(storage.RemoteTransient, table, "save", fmt.Errorf("sync: %w", err))
	}
	return nil
}

// exists reports whether key is present.
func (c *Client) exists(key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, err := c.kv.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// listByPrefix returns all values with keys matching the given prefix.
func (c *Client) listByPrefix(prefix string) ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var results [][]byte
	prefixBytes := []byte(prefix)

	keys, err := c.kv.Keys()
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		if bytes.HasPrefix(key, prefixBytes) {
			val, err := c.kv.Get(key)
			if err != nil {
				return nil, err
			}
			results = append(results, val)
		}
	}

	return results, nil
}

// recordKey builds the <family>:<userID>:<id> key.
func recordKey(family models.Family, userID, id string) string {
	return userPrefix(family, userID) + id
}

// userPrefix escapes the user segment so a ':' in an id cannot widen the
// prefix into another user's keys.
func userPrefix(family models.Family, userID string) string {
	return string(family) + ":" + url.QueryEscape(userID) + ":"
}

func subscriptionKey(userID string) string {
	return subscriptionPrefix + url.QueryEscape(userID)
}

// unmarshalJSON is a helper to unmarshal JSON data.
func unmarshalJSON[T any](data []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
