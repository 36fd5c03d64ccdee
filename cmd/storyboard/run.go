package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"storyboarder/internal/gateway/config"
	"storyboarder/internal/imagestore"
	"storyboarder/internal/llm"
	"storyboarder/internal/pipeline"
	"storyboarder/internal/report"
	t "storyboarder/internal/types"
	"storyboarder/internal/workflow"
)

type options struct {
	briefPath  string
	outDir     string
	selection  string
	images     bool
	fake       bool
	configPath string
	apiKey     string
}

func run(ctx context.Context, o options, logger *slog.Logger) error {
	pc, err := config.LoadPipeline(o.configPath)
	if err != nil {
		return err
	}
	brief, err := loadBrief(o.briefPath, pc.Brief)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(o.outDir, 0o755); err != nil {
		return err
	}

	text, images, err := llm.NewClients(ctx, llm.Settings{
		APIKey:            o.apiKey,
		TextModel:         pc.TextModel,
		ImageModel:        pc.ImageModel,
		RequestsPerMinute: pc.RequestsPerMinute,
		ImagesPerMinute:   pc.ImagesPerMinute,
		Burst:             pc.Burst,
	}, logger)
	if err != nil {
		return err
	}
	defer text.Close()

	stages := pipeline.New(text, images, imagestore.NewMemoryStore(), pipeline.Options{ProductContext: pc.ProductContext})
	s := workflow.NewSession(uuid.NewString(), stages,
		workflow.WithLogger(logger),
		workflow.WithBrief(brief),
		workflow.WithConcurrency(pc.Concurrency),
	)

	if err := s.SubmitBrief(ctx); err != nil {
		return fmt.Errorf("brief: %w", err)
	}
	if err := s.SubmitInsights(ctx); err != nil {
		return fmt.Errorf("ideas: %w", err)
	}
	ideas := s.Snapshot().Project.ContentIdeas
	picks, err := parseSelection(o.selection, len(ideas))
	if err != nil {
		return err
	}
	for _, i := range picks {
		if err := s.ToggleIdea(ideas[i].Title); err != nil {
			return err
		}
	}
	if err := s.SubmitIdeas(ctx); err != nil {
		return fmt.Errorf("scripts: %w", err)
	}
	if err := s.SubmitScripts(ctx); err != nil {
		return fmt.Errorf("storyboards: %w", err)
	}
	if o.images {
		if err := s.GenerateAllSceneImages(ctx); err != nil {
			return fmt.Errorf("images: %w", err)
		}
	}
	if err := s.Finalize(); err != nil {
		return err
	}

	p := s.Snapshot().Project
	if err := writeJSON(o.outDir, "project.json", p); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(o.outDir, "report.html"))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := report.Render(f, p, report.All); err != nil {
		return err
	}
	logger.Info("storyboards written", "dir", o.outDir, "storyboards", len(p.Storyboards))
	return f.Close()
}

// loadBrief reads path over defaults and clamps the numeric fields.
func loadBrief(path string, defaults t.Brief) (t.Brief, error) {
	b := defaults
	if strings.TrimSpace(path) == "" {
		return b, fmt.Errorf("-brief is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	if err := yaml.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("parse brief %s: %w", path, err)
	}
	return b.Clamped(), nil
}

// parseSelection turns "1,3" into zero-based indices below n. Empty picks
// the first idea.
func parseSelection(raw string, n int) ([]int, error) {
	if n == 0 {
		return nil, fmt.Errorf("no ideas to select")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []int{0}, nil
	}
	seen := map[int]bool{}
	var out []int
	for _, part := range strings.Split(raw, ",") {
		k, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || k < 1 || k > n {
			return nil, fmt.Errorf("idea %q out of range 1..%d", part, n)
		}
		if !seen[k-1] {
			seen[k-1] = true
			out = append(out, k-1)
		}
	}
	return out, nil
}

func writeJSON(dir, name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), b, 0o644)
}
