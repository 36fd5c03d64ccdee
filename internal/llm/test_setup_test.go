package llm

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"storyboarder/internal/llmtool"
	"storyboarder/internal/tester"
)

func TestNewClients_FakeWithoutKey(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	text, images, err := NewClients(t.Context(), Settings{FakeItems: 4, ImagesPerMinute: 600, Burst: 2}, logger)
	tester.NoErr(t, err)
	tester.Eq(t, text.Name(), "FakeLLM")

	shape := llmtool.ArrayOf(llmtool.String("x"))
	raw, err := text.GenerateJSON(WithPhase(t.Context(), "ideas"), "p", shape)
	tester.NoErr(t, err)
	tester.True(t, strings.Count(string(raw), ",") == 3, "four items: %s", raw)

	img, err := images.GenerateImage(t.Context(), "prompt", "9:16")
	tester.NoErr(t, err)
	tester.Eq(t, img.MIMEType, "image/jpeg")
	tester.True(t, strings.Contains(buf.String(), "fake generation clients"))
}
