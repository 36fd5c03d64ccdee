package llm

import (
	"context"
	"encoding/json"
)

// PromptHook observes every structured call made through WithHooks.
type PromptHook interface {
	Before(ctx context.Context, phase, prompt string)
	After(ctx context.Context, phase string, raw json.RawMessage, err error)
}

type ctxKeyHook struct{}
type ctxKeyPhase struct{}
type ctxKeyItems struct{}

// WithHook attaches a PromptHook to the context used by GenerateJSON.
func WithHook(ctx context.Context, hook PromptHook) context.Context {
	return context.WithValue(ctx, ctxKeyHook{}, hook)
}

// WithPhase tags the context with the pipeline step issuing the call.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, ctxKeyPhase{}, phase)
}

// WithItems records how many entries the caller requires in the reply's
// arrays, e.g. the scene count of a script.
func WithItems(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, ctxKeyItems{}, n)
}

// ItemsFrom returns the count set by WithItems.
func ItemsFrom(ctx context.Context) (int, bool) {
	n, ok := ctx.Value(ctxKeyItems{}).(int)
	return n, ok && n > 0
}

// HookFrom returns the hook stored in the context.
func HookFrom(ctx context.Context) PromptHook {
	if v := ctx.Value(ctxKeyHook{}); v != nil {
		if h, ok := v.(PromptHook); ok {
			return h
		}
	}
	return nil
}

// PhaseFrom returns the phase string stored in the context.
func PhaseFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyPhase{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
