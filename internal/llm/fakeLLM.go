package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	llmclient "storyboarder/internal/llmClient"
	"storyboarder/internal/llmtool"
)

// FakeClient returns deterministic payloads synthesised from the requested
// shape, for offline demos. Arrays take the length the request asks for
// through WithItems; otherwise Counts for the current phase, then Items.
type FakeClient struct {
	Items  int
	Counts map[string]int
}

func NewFakeClient(items int, counts map[string]int) *FakeClient {
	if items <= 0 {
		items = 3
	}
	return &FakeClient{Items: items, Counts: counts}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, _ string, shape *llmtool.Shape) (json.RawMessage, error) {
	phase := PhaseFrom(ctx)
	n := f.Items
	if c, ok := f.Counts[phase]; ok {
		n = c
	}
	if c, ok := ItemsFrom(ctx); ok {
		n = c
	}
	return json.Marshal(synth(shape, phase, "value", 0, n))
}

func synth(s *llmtool.Shape, phase, name string, idx, n int) any {
	if s == nil {
		return nil
	}
	switch s.Kind {
	case llmtool.KindObject:
		obj := make(map[string]any, len(s.Properties))
		for _, p := range s.PropertyNames() {
			obj[p] = synth(s.Properties[p], phase, p, idx, n)
		}
		return obj
	case llmtool.KindArray:
		arr := make([]any, n)
		for i := range arr {
			arr[i] = synth(s.Items, phase, name, i, n)
		}
		return arr
	case llmtool.KindInteger:
		return idx + 1
	}
	return fmt.Sprintf("%s %s %d", phase, name, idx+1)
}

// FakeImageClient returns a fixed payload for every prompt.
type FakeImageClient struct{}

// fakeJPEG is a placeholder image payload.
var fakeJPEG = []byte{
	0xff, 0xd8, 0xff, 0xdb, 0x00, 0x43, 0x00, 0x03, 0x02, 0x02, 0x02, 0x02, 0x02, 0x03, 0x02, 0x02,
	0x02, 0x03, 0x03, 0x03, 0x03, 0x04, 0x06, 0x04, 0x04, 0x04, 0x04, 0x04, 0x08, 0x06, 0x06, 0x05,
	0x06, 0x09, 0x08, 0x0a, 0x0a, 0x09, 0x08, 0x09, 0x09, 0x0a, 0x0c, 0x0f, 0x0c, 0x0a, 0x0b, 0x0e,
	0x0b, 0x09, 0x09, 0x0d, 0x11, 0x0d, 0x0e, 0x0f, 0x10, 0x10, 0x11, 0x10, 0x0a, 0x0c, 0x12, 0x13,
	0x12, 0x10, 0x13, 0x0f, 0x10, 0x10, 0x10, 0xff, 0xc9, 0x00, 0x0b, 0x08, 0x00, 0x01, 0x00, 0x01,
	0x01, 0x01, 0x11, 0x00, 0xff, 0xcc, 0x00, 0x06, 0x00, 0x10, 0x10, 0x05, 0xff, 0xda, 0x00, 0x08,
	0x01, 0x01, 0x00, 0x00, 0x3f, 0x00, 0xd2, 0xcf, 0x20, 0xff, 0xd9,
}

func (FakeImageClient) GenerateImage(context.Context, string, string) (Image, error) {
	return Image{Bytes: append([]byte(nil), fakeJPEG...), MIMEType: "image/jpeg"}, nil
}

// Call records one request seen by a scripted client.
type Call struct {
	Phase  string
	Prompt string
	Aspect string
}

// ScriptedClient answers each phase with a caller-supplied function and
// records every call. Handlers may block; calls run concurrently.
type ScriptedClient struct {
	mu       sync.Mutex
	handlers map[string]func(prompt string) (string, error)
	calls    []Call
}

func NewScriptedClient() *ScriptedClient {
	return &ScriptedClient{handlers: map[string]func(string) (string, error){}}
}

// On registers the handler for phase and returns s for chaining.
func (s *ScriptedClient) On(phase string, fn func(prompt string) (string, error)) *ScriptedClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[phase] = fn
	return s
}

// Reply registers a fixed response for phase.
func (s *ScriptedClient) Reply(phase, raw string) *ScriptedClient {
	return s.On(phase, func(string) (string, error) { return raw, nil })
}

// Fail registers a fixed error for phase.
func (s *ScriptedClient) Fail(phase string, err error) *ScriptedClient {
	return s.On(phase, func(string) (string, error) { return "", err })
}

func (s *ScriptedClient) Name() string { return "ScriptedLLM" }
func (s *ScriptedClient) Close() error { return nil }

func (s *ScriptedClient) GenerateJSON(ctx context.Context, prompt string, _ *llmtool.Shape) (json.RawMessage, error) {
	phase := PhaseFrom(ctx)
	s.mu.Lock()
	s.calls = append(s.calls, Call{Phase: phase, Prompt: prompt})
	fn := s.handlers[phase]
	s.mu.Unlock()
	if fn == nil {
		return nil, &llmclient.GenerationError{Op: phase, Err: fmt.Errorf("no scripted reply for phase %q", phase)}
	}
	raw, err := fn(prompt)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// Calls returns a copy of the recorded calls.
func (s *ScriptedClient) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns how many calls were made for phase; "" counts all.
func (s *ScriptedClient) CallCount(phase string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if phase == "" {
		return len(s.calls)
	}
	n := 0
	for _, c := range s.calls {
		if c.Phase == phase {
			n++
		}
	}
	return n
}

// ScriptedImageClient answers image calls with Fn and records them.
type ScriptedImageClient struct {
	Fn func(prompt, aspectRatio string) (Image, error)

	mu    sync.Mutex
	calls []Call
}

func (s *ScriptedImageClient) GenerateImage(ctx context.Context, prompt, aspectRatio string) (Image, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Phase: PhaseFrom(ctx), Prompt: prompt, Aspect: aspectRatio})
	fn := s.Fn
	s.mu.Unlock()
	if fn == nil {
		return FakeImageClient{}.GenerateImage(ctx, prompt, aspectRatio)
	}
	return fn(prompt, aspectRatio)
}

// Calls returns a copy of the recorded calls.
func (s *ScriptedImageClient) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}
