package model

import "time"

// Sync kinds, one SyncState row each.
const (
	SyncKindTransactions = "transactions"
	SyncKindBackfill     = "backfill"
	SyncKindRecipes      = "recipes"
)

// Sync statuses.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)

// SyncState is the persisted progress of one sync kind. Watermark is only
// meaningful for incremental transaction sync.
type SyncState struct {
	Kind          string `gorm:"type:varchar(20);primaryKey"`
	Status        string `gorm:"type:varchar(20);not null;default:'idle'"`
	LastSyncedAt  *time.Time
	Watermark     *time.Time
	RecordsSynced int64 `gorm:"not null;default:0"`
	LastError     *string
	UpdatedAt     time.Time
}
