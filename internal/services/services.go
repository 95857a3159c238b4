// package services defines interface Synchronizer for talking to the remote synchronization API
package services

import (
	"context"

	"github.com/desertthunder/allezgo/internal/models"
)

// Synchronizer asks the remote service to reconcile Peloton rides into Garmin Connect.
type Synchronizer interface {
	// Synchronize sends one sync request and returns the decoded response.
	// Transport and decode failures are returned as errors; application-level failures arrive in [models.SyncResponse.Error].
	Synchronize(ctx context.Context, req models.SyncRequest) (*models.SyncResponse, error)

	// Name returns a short name for logs.
	Name() string
}

var _ Synchronizer = (*SyncService)(nil)
