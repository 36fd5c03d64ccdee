package fanout

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"storyboarder/internal/tester"
)

func TestJoinAll_PreservesInputOrder(t *testing.T) {
	items := []int{30, 10, 20}
	got, err := JoinAll(context.Background(), items, func(_ context.Context, i int, ms int) (string, error) {
		// later items finish first
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return string(rune('a' + i)), nil
	})
	tester.NoErr(t, err)
	tester.Eq(t, got, []string{"a", "b", "c"})
}

func TestJoinAll_OneFailureFailsBatch(t *testing.T) {
	boom := errors.New("boom")
	items := []string{"x", "y", "z"}
	got, err := JoinAll(context.Background(), items, func(ctx context.Context, i int, _ string) (int, error) {
		if i == 1 {
			return 0, boom
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(10 * time.Millisecond):
			return i, nil
		}
	})
	tester.True(t, got == nil, "no partial results")
	pbe := tester.ErrAs[*PartialBatchError](t, err)
	tester.Eq(t, pbe.Index, 1)
	tester.Eq(t, pbe.Total, 3)
	tester.ErrIs(t, err, boom)
}

func TestJoinAll_CancelsSiblings(t *testing.T) {
	var cancelled atomic.Int32
	_, err := JoinAll(context.Background(), []int{0, 1, 2}, func(ctx context.Context, i int, _ int) (int, error) {
		if i == 0 {
			return 0, errors.New("fail fast")
		}
		select {
		case <-ctx.Done():
			cancelled.Add(1)
			return 0, ctx.Err()
		case <-time.After(2 * time.Second):
			return i, nil
		}
	})
	tester.True(t, err != nil)
	tester.Eq(t, cancelled.Load(), int32(2))
}

func TestJoinAll_EmptyBatch(t *testing.T) {
	got, err := JoinAll(context.Background(), nil, func(context.Context, int, int) (int, error) {
		t.Fatal("fn must not be called")
		return 0, nil
	})
	tester.NoErr(t, err)
	tester.Eq(t, len(got), 0)
}

func TestJoinAll_RespectsLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	_, err := JoinAll(context.Background(), make([]int, 8), func(context.Context, int, int) (int, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return 0, nil
	}, WithLimit(2))
	tester.NoErr(t, err)
	tester.True(t, peak.Load() <= 2, "limit exceeded")
}

func TestIsolated_FailuresStayLocal(t *testing.T) {
	var done atomic.Int32
	errs := Isolated(context.Background(), []string{"a", "b", "c"}, func(_ context.Context, i int, _ string) error {
		if i == 1 {
			return errors.New("scene failed")
		}
		done.Add(1)
		return nil
	})
	tester.Eq(t, len(errs), 3)
	tester.NoErr(t, errs[0])
	tester.True(t, errs[1] != nil)
	tester.NoErr(t, errs[2])
	tester.Eq(t, done.Load(), int32(2))
}

func TestIsolated_LimitAndCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	started := make(chan struct{}, 3)
	var errs []error
	finished := make(chan struct{})
	go func() {
		errs = Isolated(ctx, []int{0, 1, 2}, func(context.Context, int, int) error {
			started <- struct{}{}
			<-release
			return nil
		}, WithLimit(1))
		close(finished)
	}()
	<-started
	cancel()
	close(release)
	<-finished

	ok, cancelled := 0, 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else if errors.Is(err, context.Canceled) {
			cancelled++
		}
	}
	tester.True(t, ok >= 1, "first item should complete")
	tester.Eq(t, ok+cancelled, 3)
}

func TestJoinAll_LogsToGivenLoggerWithoutReportingFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, err := JoinAll(context.Background(), []int{0, 1}, func(_ context.Context, i int, _ int) (int, error) {
		if i == 1 {
			return 0, errors.New("boom")
		}
		return i, nil
	}, WithLogger(logger))
	tester.True(t, err != nil)

	out := buf.String()
	tester.True(t, strings.Contains(out, "fanout join-all start"), out)
	tester.True(t, strings.Contains(out, "fanout join-all aborted"), out)
	tester.False(t, strings.Contains(out, "level=ERROR"), "the caller reports the failure")
	tester.False(t, strings.Contains(out, "boom"), "the caller reports the failure")
}
