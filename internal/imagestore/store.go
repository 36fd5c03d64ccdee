// Package imagestore keeps generated scene images and hands out the opaque
// references stored on storyboard scenes.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	llmclient "storyboarder/internal/llmClient"
)

// Store persists an image and returns a reference a browser can load.
type Store interface {
	Save(ctx context.Context, sessionID, name string, img llmclient.Image) (string, error)
	Get(ctx context.Context, sessionID, key string) (llmclient.Image, error)
}

var ErrNotFound = errors.New("image not found")

// NewKey returns a unique object key for name within sessionID.
func NewKey(sessionID, name, mime string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	name = strings.Trim(strings.TrimSpace(name), "/")
	if name == "" {
		name = "image"
	}
	return sessionID + "/" + name + "-" + uuid.NewString() + extFor(mime), nil
}

func extFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	return ".jpg"
}
