package workflow

import (
	"context"

	"backend-gpslogger/internal/record"
)

// Position is a possibly-cached device location, not necessarily freshly
// measured.
type Position struct {
	Latitude  float64
	Longitude float64
}

type AuthGateway interface {
	// SignIn returns the authenticated user id, or an error the caller
	// surfaces as-is.
	SignIn(ctx context.Context, email, password string) (string, error)
	SignOut(ctx context.Context) error
}

type LocationGateway interface {
	// PermissionGranted reports the current permission state without
	// prompting the user.
	PermissionGranted(ctx context.Context) bool
	// RequestPermission prompts the user and blocks until they answer or
	// ctx is cancelled.
	RequestPermission(ctx context.Context) (bool, error)
	// LastKnown returns the cached device position, or nil when no fix is
	// available.
	LastKnown(ctx context.Context) (*Position, error)
}

// Subscription delivers full-partition snapshots until its context is
// cancelled. Both channels close when the subscription ends.
type Subscription struct {
	Snapshots <-chan []record.Payload
	Errs      <-chan error
}

type StoreGateway interface {
	// Append writes one record under the user's partition and returns the
	// generated child key. Existing children are never touched.
	Append(ctx context.Context, userID string, rec record.Record) (string, error)
	Subscribe(ctx context.Context, userID string) (Subscription, error)
}
