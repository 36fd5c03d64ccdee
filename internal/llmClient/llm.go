package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storyboarder/internal/llmtool"
)

var (
	ErrEmptyResponse = errors.New("empty response from model")
	ErrNoImage       = errors.New("no image in response")
)

// LLMClient produces structured JSON text for a prompt and a declared shape.
type LLMClient interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, shape *llmtool.Shape) (json.RawMessage, error)
	Close() error
}

// Image is a generated image payload.
type Image struct {
	Bytes    []byte
	MIMEType string
}

// ImageClient synthesises one image per call.
type ImageClient interface {
	GenerateImage(ctx context.Context, prompt string, aspectRatio string) (Image, error)
}

// GenerationError is any failure of the generation service or of its
// output: unreachable service, empty result, unparseable or mis-shaped JSON.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	if e.Op == "" {
		return "generation failed: " + e.Err.Error()
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// NewGenerationError wraps err unless it already is a GenerationError.
func NewGenerationError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ge *GenerationError
	if errors.As(err, &ge) {
		return err
	}
	return &GenerationError{Op: op, Err: err}
}
