// Package report renders a project as a static, printable HTML document.
package report

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	t "storyboarder/internal/types"
)

//go:embed templates/report.html
var templateFS embed.FS

var reportTmpl = template.Must(template.ParseFS(templateFS, "templates/report.html"))

// All selects every storyboard.
const All = -1

var ErrStoryboardIndex = errors.New("storyboard index out of range")

type sceneView struct {
	t.StoryboardScene
	Src template.URL
}

type storyboardView struct {
	Idea   t.Idea
	Scenes []sceneView
}

type reportView struct {
	Goal        string
	Audience    string
	Storyboards []storyboardView
}

// Render writes the report of p to w. index selects one storyboard, or All.
func Render(w io.Writer, p t.Project, index int) error {
	boards := p.Storyboards
	if index != All {
		if index < 0 || index >= len(p.Storyboards) {
			return fmt.Errorf("%w: %d of %d", ErrStoryboardIndex, index, len(p.Storyboards))
		}
		boards = p.Storyboards[index : index+1]
	}
	view := reportView{Goal: p.Goal, Audience: p.Audience}
	for _, sb := range boards {
		sv := storyboardView{Idea: sb.Idea, Scenes: make([]sceneView, len(sb.Scenes))}
		for i, sc := range sb.Scenes {
			sv.Scenes[i] = sceneView{StoryboardScene: sc, Src: imageSrc(sc)}
		}
		view.Storyboards = append(view.Storyboards, sv)
	}
	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, view); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// HTML is Render into a string.
func HTML(p t.Project, index int) (string, error) {
	var sb strings.Builder
	if err := Render(&sb, p, index); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// imageSrc returns the scene's image reference when it is one the report
// can embed: an image data URI or an http(s) URL.
func imageSrc(sc t.StoryboardScene) template.URL {
	if !sc.HasImage() {
		return ""
	}
	ref := sc.ImageRef
	switch {
	case strings.HasPrefix(ref, "data:image/"),
		strings.HasPrefix(ref, "https://"),
		strings.HasPrefix(ref, "http://"):
		return template.URL(ref)
	}
	return ""
}
