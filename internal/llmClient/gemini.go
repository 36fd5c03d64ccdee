package llmclient

import (
	"context"
	"encoding/json"
	"strings"

	genai "google.golang.org/genai"

	"storyboarder/internal/llmtool"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "imagen-4.0-generate-001"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API call itself. Cross-cutting concerns
// (rate limiting, logging, hooks) are applied via Middleware.
type GeminiClient struct {
	cli        *genai.Client
	model      string
	imageModel string
}

// NewGeminiClient builds a client for the Gemini API backend. An empty
// apiKey lets genai read GEMINI_API_KEY / GOOGLE_API_KEY from the env.
func NewGeminiClient(ctx context.Context, apiKey, model, imageModel string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = DefaultTextModel
	}
	if imageModel == "" {
		imageModel = DefaultImageModel
	}
	return &GeminiClient{cli: cli, model: model, imageModel: imageModel}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

// GenerateJSON asks for application/json constrained by the response
// schema derived from shape and returns the model's text as-is.
func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string, shape *llmtool.Shape) (json.RawMessage, error) {
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if shape != nil {
		cfg.ResponseSchema = ToSchema(shape)
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		cfg,
	)
	if err != nil {
		return nil, &GenerationError{Op: "generate_json", Err: err}
	}
	txt := strings.TrimSpace(resp.Text())
	if txt == "" {
		return nil, &GenerationError{Op: "generate_json", Err: ErrEmptyResponse}
	}
	return json.RawMessage(txt), nil
}

// GenerateImage requests a single JPEG from the Imagen model.
func (g *GeminiClient) GenerateImage(ctx context.Context, prompt string, aspectRatio string) (Image, error) {
	resp, err := g.cli.Models.GenerateImages(ctx, g.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/jpeg",
		AspectRatio:    aspectRatio,
	})
	if err != nil {
		return Image{}, &GenerationError{Op: "generate_image", Err: err}
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return Image{}, &GenerationError{Op: "generate_image", Err: ErrNoImage}
	}
	gi := resp.GeneratedImages[0]
	if gi == nil || gi.Image == nil || len(gi.Image.ImageBytes) == 0 {
		if gi != nil && gi.RAIFilteredReason != "" {
			return Image{}, &GenerationError{Op: "generate_image", Err: &filteredError{reason: gi.RAIFilteredReason}}
		}
		return Image{}, &GenerationError{Op: "generate_image", Err: ErrNoImage}
	}
	mime := gi.Image.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return Image{Bytes: gi.Image.ImageBytes, MIMEType: mime}, nil
}

type filteredError struct{ reason string }

func (e *filteredError) Error() string { return "image filtered: " + e.reason }
func (e *filteredError) Unwrap() error { return ErrNoImage }

// ToSchema maps a Shape onto the genai response schema.
func ToSchema(s *llmtool.Shape) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{Description: s.Description}
	switch s.Kind {
	case llmtool.KindObject:
		out.Type = genai.TypeObject
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for _, name := range s.PropertyNames() {
			out.Properties[name] = ToSchema(s.Properties[name])
		}
		out.PropertyOrdering = append([]string(nil), s.PropertyNames()...)
		out.Required = append([]string(nil), s.Required...)
	case llmtool.KindArray:
		out.Type = genai.TypeArray
		out.Items = ToSchema(s.Items)
	case llmtool.KindInteger:
		out.Type = genai.TypeInteger
	default:
		out.Type = genai.TypeString
	}
	return out
}
