// ABOUTME: Sync status reporting and the connectivity check behind it.
// ABOUTME: Online-ness is informational and never gates writes.
package router

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/fitlog/internal/entitlement"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
)

// DefaultPingTimeout bounds one connectivity check.
const DefaultPingTimeout = 3 * time.Second

// Connectivity reports whether the device can currently reach the cloud.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// PingCheck checks connectivity by pinging the remote store.
type PingCheck struct {
	remote  storage.RemoteStore
	timeout time.Duration
}

// NewPingCheck returns a check over remote. A zero timeout uses DefaultPingTimeout.
func NewPingCheck(remote storage.RemoteStore, timeout time.Duration) *PingCheck {
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	return &PingCheck{remote: remote, timeout: timeout}
}

// Online pings the remote store. No remote means offline.
func (p *PingCheck) Online(ctx context.Context) bool {
	if p.remote == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.remote.Ping(ctx) == nil
}

// SyncStatus is the read-only status shown to users.
type SyncStatus struct {
	IsOnline            bool        `json:"is_online"`
	CanSyncToCloud      bool        `json:"can_sync_to_cloud"`
	LocalStorageEnabled bool        `json:"local_storage_enabled"`
	UnsyncedCount       int         `json:"unsynced_count"`
	Tier                models.Tier `json:"tier"`
	MigrationRunning    bool        `json:"migration_running"`

	UnsyncedByFamily map[models.Family]int `json:"unsynced_by_family"`
}

// GetSyncStatus reports connectivity, entitlement and the local backlog.
func (r *Router) GetSyncStatus(ctx context.Context, ent entitlement.Context) (SyncStatus, error) {
	counts, err := r.local.CountUnsynced(ctx)
	if err != nil {
		return SyncStatus{}, fmt.Errorf("sync status: %w", err)
	}
	total := 0
	for _, n := range counts {
		total += n
	}

	cloud := ent.ShouldUseCloud()
	return SyncStatus{
		IsOnline:            r.conn.Online(ctx),
		CanSyncToCloud:      cloud && r.remote != nil,
		LocalStorageEnabled: !cloud,
		UnsyncedCount:       total,
		Tier:                ent.Tier,
		MigrationRunning:    r.migrator.Running(),
		UnsyncedByFamily:    counts,
	}, nil
}
