package dto

type BackfillRequest struct {
	Days int `json:"days" validate:"required,min=1,max=90"`
}

// SyncError is one transaction (or product) that failed inside a batch.
type SyncError struct {
	ExternalID string `json:"externalId"`
	Error      string `json:"error"`
}

// SyncResult reports a transaction sync or backfill run.
// Configured is false when no POS client is set up; the run is then a no-op.
type SyncResult struct {
	Kind       string      `json:"kind"`
	Configured bool        `json:"configured"`
	Message    string      `json:"message,omitempty"`
	Fetched    int         `json:"fetched"`
	Synced     int         `json:"synced"`
	Skipped    int         `json:"skipped"`
	Errors     []SyncError `json:"errors"`
	Watermark  *string     `json:"watermark,omitempty"`
}

type RecipeSyncResult struct {
	Configured          bool        `json:"configured"`
	Message             string      `json:"message,omitempty"`
	IngredientsUpserted int         `json:"ingredientsUpserted"`
	RecipesUpserted     int         `json:"recipesUpserted"`
	CostsUpdated        int         `json:"costsUpdated"`
	Errors              []SyncError `json:"errors"`
}

type SyncStateResponse struct {
	Kind          string  `json:"kind"`
	Status        string  `json:"status"` // idle | syncing | error
	LastSyncedAt  *string `json:"lastSyncedAt"`
	Watermark     *string `json:"watermark"`
	RecordsSynced int64   `json:"recordsSynced"`
	LastError     *string `json:"lastError"`
}

type SyncStatusResponse struct {
	Transactions     SyncStateResponse `json:"transactions"`
	Backfill         SyncStateResponse `json:"backfill"`
	Recipes          SyncStateResponse `json:"recipes"`
	SchedulerRunning bool              `json:"schedulerRunning"`
}
