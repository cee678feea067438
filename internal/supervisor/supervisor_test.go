// Playwise - Conversational Game Recommendation Assistant
// Copyright 2026 Playwise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/playwise/playwise

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/playwise/playwise/internal/catalog"
	"github.com/playwise/playwise/internal/logging"
)

// fakeServer implements HTTPServer with controllable behavior.
type fakeServer struct {
	listenErr  error
	blockUntil chan struct{}
	shutdowns  atomic.Int32
}

func newFakeServer(listenErr error) *fakeServer {
	return &fakeServer{listenErr: listenErr, blockUntil: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.blockUntil
	return nil
}

func (f *fakeServer) Shutdown(_ context.Context) error {
	f.shutdowns.Add(1)
	close(f.blockUntil)
	return nil
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(nil)
	svc := NewHTTPService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Give the listener goroutine a moment to start, then cancel.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if got := srv.shutdowns.Load(); got != 1 {
		t.Errorf("shutdowns = %d, want 1", got)
	}
}

func TestHTTPServiceListenFailure(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(errors.New("port in use"))
	svc := NewHTTPService(srv, time.Second)

	err := svc.Serve(context.Background())
	if err == nil {
		t.Fatal("Serve() = nil, want listen error")
	}
}

func TestHTTPServiceString(t *testing.T) {
	t.Parallel()

	svc := NewHTTPService(newFakeServer(nil), 0)
	if svc.String() != "http-server" {
		t.Errorf("String() = %q, want http-server", svc.String())
	}
}

// fakeSource serves canned entries, flipping to an error on demand.
type fakeSource struct {
	entries []*catalog.Entry
	err     atomic.Pointer[error]
	loads   atomic.Int32
}

func (f *fakeSource) Load(_ context.Context, _ string) ([]*catalog.Entry, error) {
	f.loads.Add(1)
	if errp := f.err.Load(); errp != nil {
		return nil, *errp
	}
	return f.entries, nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestCatalogRefreshSwapsGeneration(t *testing.T) {
	t.Parallel()

	store := catalog.NewStore(nil)
	source := &fakeSource{entries: []*catalog.Entry{
		{ID: 1, Title: "Dread Manor"},
		{ID: 2, Title: "Star Courier"},
	}}
	var invalidations atomic.Int32
	svc := NewCatalogRefreshService(source, store, "games.csv", 10*time.Millisecond, func() {
		invalidations.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	waitFor(t, 2*time.Second, func() bool { return store.Len() == 2 })
	waitFor(t, 2*time.Second, func() bool { return invalidations.Load() >= 1 })
}

func TestCatalogRefreshKeepsPreviousOnError(t *testing.T) {
	t.Parallel()

	store := catalog.NewStore([]*catalog.Entry{{ID: 7, Title: "Quiet Farm"}})
	source := &fakeSource{}
	loadErr := errors.New("csv gone")
	source.err.Store(&loadErr)

	svc := NewCatalogRefreshService(source, store, "games.csv", 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	waitFor(t, 2*time.Second, func() bool { return source.loads.Load() >= 2 })
	if store.Len() != 1 {
		t.Errorf("store.Len() = %d, want 1 (previous generation)", store.Len())
	}
	if store.Get(7) == nil {
		t.Error("previous generation entry lost after failed refresh")
	}
}

func TestCatalogRefreshDisabledParks(t *testing.T) {
	t.Parallel()

	source := &fakeSource{}
	svc := NewCatalogRefreshService(source, catalog.NewStore(nil), "games.csv", 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("parked service did not return after cancel")
	}
	if source.loads.Load() != 0 {
		t.Errorf("loads = %d, want 0 when disabled", source.loads.Load())
	}
}

// fakeReloader counts reloads and can fail.
type fakeReloader struct {
	loads atomic.Int32
	fail  bool
}

func (f *fakeReloader) Load(_ string) error {
	f.loads.Add(1)
	if f.fail {
		return errors.New("bad artifact")
	}
	return nil
}

func TestModelReloadService(t *testing.T) {
	t.Parallel()

	reloader := &fakeReloader{}
	var reloads atomic.Int32
	svc := NewModelReloadService("collab-reloader", reloader, "/models", 10*time.Millisecond, func() {
		reloads.Add(1)
	})
	if svc.String() != "collab-reloader" {
		t.Errorf("String() = %q, want collab-reloader", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	waitFor(t, 2*time.Second, func() bool { return reloads.Load() >= 2 })
}

func TestModelReloadFailureDoesNotStopService(t *testing.T) {
	t.Parallel()

	reloader := &fakeReloader{fail: true}
	var reloads atomic.Int32
	svc := NewModelReloadService("index-reloader", reloader, "/models", 10*time.Millisecond, func() {
		reloads.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Serve(ctx) }()

	waitFor(t, 2*time.Second, func() bool { return reloader.loads.Load() >= 3 })
	if reloads.Load() != 0 {
		t.Errorf("onReload calls = %d, want 0 when every load fails", reloads.Load())
	}
}

func TestTreeRunsSupervisedServices(t *testing.T) {
	t.Parallel()

	tree := NewTree(logging.NewSlogLogger(), DefaultTreeConfig())

	source := &fakeSource{entries: []*catalog.Entry{{ID: 1, Title: "Dread Manor"}}}
	store := catalog.NewStore(nil)
	tree.AddDataService(NewCatalogRefreshService(source, store, "games.csv", 10*time.Millisecond, nil))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitFor(t, 2*time.Second, func() bool { return store.Len() == 1 })
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("tree stopped with %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop after cancel")
	}
}
