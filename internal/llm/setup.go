package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	llmclient "storyboarder/internal/llmClient"
)

// Settings selects and throttles the generation clients.
type Settings struct {
	// APIKey empty selects the offline fake clients.
	APIKey            string
	TextModel         string
	ImageModel        string
	RequestsPerMinute int
	ImagesPerMinute   int
	Burst             int
	// FakeItems sizes fake arrays whose length the request leaves open,
	// such as insights and ideas.
	FakeItems int
	// FakeCounts overrides FakeItems per phase.
	FakeCounts map[string]int
}

// NewClients builds the text and image clients with rate limiting, logging
// and prompt hooks applied.
func NewClients(ctx context.Context, s Settings, logger *slog.Logger) (LLMClient, ImageClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		text   LLMClient
		images ImageClient
	)
	if strings.TrimSpace(s.APIKey) == "" {
		logger.Info("no API key, using fake generation clients")
		text = NewFakeClient(s.FakeItems, s.FakeCounts)
		images = FakeImageClient{}
	} else {
		g, err := llmclient.NewGeminiClient(ctx, s.APIKey, s.TextModel, s.ImageModel)
		if err != nil {
			return nil, nil, fmt.Errorf("gemini client: %w", err)
		}
		text, images = g, g
	}
	text = Wrap(text,
		RateLimitPerMinute(s.RequestsPerMinute, s.Burst),
		WithLogging(logger),
		WithHooks(),
	)
	images = LogImages(LimitImages(images, float64(s.ImagesPerMinute)/60.0, s.Burst), logger)
	return text, images, nil
}
