// Package sessionstore persists session snapshots so a gateway restart or
// cache eviction does not lose work in progress.
package sessionstore

import (
	"context"
	"errors"
	"strings"

	"storyboarder/internal/workflow"
)

var ErrNotFound = errors.New("session snapshot not found")

// Store saves and loads the latest snapshot of each session.
type Store interface {
	Save(ctx context.Context, snap workflow.Snapshot) error
	Load(ctx context.Context, sessionID string) (workflow.Snapshot, error)
	Delete(ctx context.Context, sessionID string) error
}

func normalizeID(id string) string {
	return strings.TrimSpace(id)
}
