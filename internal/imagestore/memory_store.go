package imagestore

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	llmclient "storyboarder/internal/llmClient"
)

// MemoryStore keeps images in process and returns data URIs, so scenes
// embed their image directly.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]llmclient.Image
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]llmclient.Image)}
}

func (s *MemoryStore) Save(_ context.Context, sessionID, name string, img llmclient.Image) (string, error) {
	if s == nil {
		return "", fmt.Errorf("store is nil")
	}
	if len(img.Bytes) == 0 {
		return "", fmt.Errorf("image is empty")
	}
	mime := img.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	key, err := NewKey(sessionID, name, mime)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.data[key] = llmclient.Image{Bytes: append([]byte(nil), img.Bytes...), MIMEType: mime}
	s.mu.Unlock()
	return DataURI(mime, img.Bytes), nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID, key string) (llmclient.Image, error) {
	if s == nil {
		return llmclient.Image{}, fmt.Errorf("store is nil")
	}
	if !strings.HasPrefix(key, strings.TrimSpace(sessionID)+"/") {
		key = strings.TrimSpace(sessionID) + "/" + strings.TrimLeft(key, "/")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.data[key]
	if !ok {
		return llmclient.Image{}, ErrNotFound
	}
	return llmclient.Image{Bytes: append([]byte(nil), img.Bytes...), MIMEType: img.MIMEType}, nil
}

// Keys lists the stored keys of one session.
func (s *MemoryStore) Keys(sessionID string) []string {
	prefix := strings.TrimSpace(sessionID) + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

// DataURI encodes b as a base64 data URI.
func DataURI(mime string, b []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b)
}
