package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eslsoft/conceptgraph/internal/adapter/cache"
)

func TestLoad_CancelledCallerDoesNotAbortSharedFill(t *testing.T) {
	c := newDerivedCache(cache.NewMemory(), time.Hour, quietLogger())
	started := make(chan struct{})
	release := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := load(ctx, c, "answer", func(ctx context.Context) (int, error) {
			close(started)
			<-release
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			return 42, nil
		})
		done <- err
	}()

	<-started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller got %v, want context.Canceled", err)
	}
	close(release)
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, found, _ := c.backend.Get(context.Background(), "answer"); found {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("shared fill never stored its value")
		}
		time.Sleep(time.Millisecond)
	}

	got, err := load(context.Background(), c, "answer", func(context.Context) (int, error) {
		t.Errorf("fill ran again although the shared fill completed")
		return 0, nil
	})
	if err != nil || got != 42 {
		t.Fatalf("load = %v, %v; want 42 from the shared fill", got, err)
	}
}

func TestDerivedCache_VersionBump(t *testing.T) {
	ctx := context.Background()
	c := newDerivedCache(cache.NewMemory(), time.Hour, quietLogger())
	if v := c.version(ctx, "v"); v != 0 {
		t.Fatalf("initial version = %d", v)
	}
	c.bump(ctx, "v")
	c.bump(ctx, "v")
	if v := c.version(ctx, "v"); v != 2 {
		t.Fatalf("version = %d, want 2", v)
	}

	var disabled *derivedCache
	if v := disabled.version(ctx, "v"); v != 0 {
		t.Fatalf("disabled cache version = %d", v)
	}
	disabled.bump(ctx, "v")
}
