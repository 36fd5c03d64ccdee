package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"storyboarder/internal/llmtool"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns
// (rate limiting, logging, hooks).
type Middleware func(LLMClient) LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner LLMClient, mws ...Middleware) LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate Limiting --------

// RateLimit limits request rate to rps with the given burst.
// If rps <= 0, the limiter is disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next LLMClient) LLMClient {
		return &rateLimited{next: next, rl: newLimiter(rps, burst)}
	}
}

// RateLimitPerMinute is RateLimit expressed in requests per minute.
func RateLimitPerMinute(rpm, burst int) Middleware {
	return RateLimit(float64(rpm)/60.0, burst)
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

type rateLimited struct {
	next LLMClient
	rl   *rate.Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error { return c.next.Close() }
func (c *rateLimited) GenerateJSON(ctx context.Context, prompt string, shape *llmtool.Shape) (json.RawMessage, error) {
	if c.rl != nil {
		if err := c.rl.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return c.next.GenerateJSON(ctx, prompt, shape)
}

// -------- Logging & Hooks --------

// WithLogging logs request size, latency and errors. A nil logger uses
// slog.Default().
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next LLMClient) LLMClient {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next LLMClient
	log  *slog.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) GenerateJSON(ctx context.Context, prompt string, shape *llmtool.Shape) (json.RawMessage, error) {
	phase := PhaseFrom(ctx)
	start := time.Now()
	l.log.Debug("llm request", "client", l.next.Name(), "phase", phase, "bytes", len(prompt))
	raw, err := l.next.GenerateJSON(ctx, prompt, shape)
	if err != nil {
		l.log.Error("llm request failed", "client", l.next.Name(), "phase", phase, "error", err)
		return raw, err
	}
	l.log.Info("llm response", "client", l.next.Name(), "phase", phase, "bytes", len(raw), "elapsed", time.Since(start))
	return raw, nil
}

// WithHooks calls HookFrom(ctx).Before/After around GenerateJSON.
// If no hook is present in the context, it is a no-op.
func WithHooks() Middleware {
	return func(next LLMClient) LLMClient {
		return &hooked{next: next}
	}
}

type hooked struct{ next LLMClient }

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }
func (h *hooked) GenerateJSON(ctx context.Context, prompt string, shape *llmtool.Shape) (json.RawMessage, error) {
	hook := HookFrom(ctx)
	if hook != nil {
		hook.Before(ctx, PhaseFrom(ctx), prompt)
	}
	raw, err := h.next.GenerateJSON(ctx, prompt, shape)
	if hook != nil {
		hook.After(ctx, PhaseFrom(ctx), raw, err)
	}
	return raw, err
}

// -------- Image client decorators --------

// LimitImages throttles image calls to rps with the given burst.
func LimitImages(next ImageClient, rps float64, burst int) ImageClient {
	rl := newLimiter(rps, burst)
	if rl == nil {
		return next
	}
	return &limitedImages{next: next, rl: rl}
}

type limitedImages struct {
	next ImageClient
	rl   *rate.Limiter
}

func (c *limitedImages) GenerateImage(ctx context.Context, prompt, aspectRatio string) (Image, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return Image{}, err
	}
	return c.next.GenerateImage(ctx, prompt, aspectRatio)
}

// LogImages logs every image call. A nil logger uses slog.Default().
func LogImages(next ImageClient, logger *slog.Logger) ImageClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &loggedImages{next: next, log: logger}
}

type loggedImages struct {
	next ImageClient
	log  *slog.Logger
}

func (c *loggedImages) GenerateImage(ctx context.Context, prompt, aspectRatio string) (Image, error) {
	start := time.Now()
	img, err := c.next.GenerateImage(ctx, prompt, aspectRatio)
	if err != nil {
		c.log.Error("image request failed", "phase", PhaseFrom(ctx), "aspect", aspectRatio, "error", err)
		return img, err
	}
	c.log.Info("image response", "phase", PhaseFrom(ctx), "aspect", aspectRatio, "bytes", len(img.Bytes), "elapsed", time.Since(start))
	return img, nil
}
