package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyboarder/internal/tester"
	t "storyboarder/internal/types"
)

const briefYAML = `
goal: Tăng đăng ký
audience: Phụ huynh có con nhỏ
user_insights: bé hay nghẹt mũi
cta: Đăng ký ngay
scene_count: 3
aspect_ratio: "1:1"
`

func TestRun_FakeEndToEnd(tt *testing.T) {
	dir := tt.TempDir()
	briefPath := filepath.Join(dir, "brief.yaml")
	tester.NoErr(tt, os.WriteFile(briefPath, []byte(briefYAML), 0o644))
	configPath := filepath.Join(dir, "pipeline.yaml")
	tester.NoErr(tt, os.WriteFile(configPath, []byte("requests_per_minute: 0\nimages_per_minute: 0\n"), 0o644))
	out := filepath.Join(dir, "out")

	opts := options{briefPath: briefPath, outDir: out, selection: "1,3", images: true, fake: true, configPath: configPath}
	err := run(tt.Context(), opts,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	tester.NoErr(tt, err)

	raw, err := os.ReadFile(filepath.Join(out, "project.json"))
	tester.NoErr(tt, err)
	var p t.Project
	tester.NoErr(tt, json.Unmarshal(raw, &p))
	tester.Eq(tt, p.AspectRatio, t.AspectSquare)
	tester.Eq(tt, len(p.Storyboards), 2)
	for _, sb := range p.Storyboards {
		tester.Eq(tt, len(sb.Scenes), 3)
		for _, sc := range sb.Scenes {
			tester.True(tt, strings.HasPrefix(sc.ImageRef, "data:image/jpeg;base64,"), "ref %q", sc.ImageRef)
		}
	}

	html, err := os.ReadFile(filepath.Join(out, "report.html"))
	tester.NoErr(tt, err)
	tester.True(tt, strings.Contains(string(html), "Phụ huynh có con nhỏ"))
}

func TestLoadBrief_ClampsOverDefaults(tt *testing.T) {
	path := filepath.Join(tt.TempDir(), "brief.yaml")
	tester.NoErr(tt, os.WriteFile(path, []byte("goal: g\nscene_count: 99\nduration: 5\n"), 0o644))
	b, err := loadBrief(path, t.DefaultBrief())
	tester.NoErr(tt, err)
	tester.Eq(tt, b.Goal, "g")
	tester.Eq(tt, b.SceneCount, t.MaxSceneCount)
	tester.Eq(tt, b.Duration, t.MinDuration)
	tester.Eq(tt, b.Platform, t.DefaultBrief().Platform)

	_, err = loadBrief("", t.DefaultBrief())
	tester.True(tt, err != nil)
}

func TestParseSelection(tt *testing.T) {
	got, err := parseSelection("", 4)
	tester.NoErr(tt, err)
	tester.Eq(tt, got, []int{0})

	got, err = parseSelection(" 3, 1,3 ", 4)
	tester.NoErr(tt, err)
	tester.Eq(tt, got, []int{2, 0})

	_, err = parseSelection("5", 4)
	tester.True(tt, err != nil)
	_, err = parseSelection("x", 4)
	tester.True(tt, err != nil)
	_, err = parseSelection("1", 0)
	tester.True(tt, err != nil)
}
