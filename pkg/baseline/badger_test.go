package baseline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/voicelens/voicelens/pkg/baseline"
)

func newBadgerStore(t *testing.T, opts baseline.BadgerOptions) *baseline.BadgerStore {
	t.Helper()
	s, err := baseline.NewBadgerStore(opts)
	if err != nil {
		t.Fatalf("NewBadgerStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBadgerStoreInMemory(t *testing.T) {
	ctx := context.Background()
	s := newBadgerStore(t, baseline.BadgerOptions{InMemory: true})

	if _, err := s.Get(ctx, "nobody"); !errors.Is(err, baseline.ErrNotFound) {
		t.Fatalf("Get(nobody) = %v, want ErrNotFound", err)
	}

	b := baseline.New(0, 0)
	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < baseline.DefaultMinSamples; i++ {
		b.AddSample(calVector(200), now)
	}
	if err := s.Save(ctx, "alice", b); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Calibrated() {
		t.Error("stored baseline lost calibration")
	}
	if got.Means["pitch_mean"] != 200 {
		t.Errorf("stored mean pitch = %f, want 200", got.Means["pitch_mean"])
	}
	if !got.CalibratedAt.Equal(b.CalibratedAt) {
		t.Errorf("CalibratedAt = %v, want %v", got.CalibratedAt, b.CalibratedAt)
	}

	if err := s.Delete(ctx, "alice"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "alice"); !errors.Is(err, baseline.ErrNotFound) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
}

func TestBadgerStoreOnDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b := baseline.New(0, 0)
	now := time.Now()
	for i := 0; i < baseline.DefaultMinSamples; i++ {
		b.AddSample(calVector(180), now)
	}

	s := newBadgerStore(t, baseline.BadgerOptions{Dir: dir})
	if err := s.Save(ctx, "bob", b); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen and confirm the record survived.
	s2 := newBadgerStore(t, baseline.BadgerOptions{Dir: dir})
	got, err := s2.Get(ctx, "bob")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Means["pitch_mean"] != 180 {
		t.Errorf("mean pitch = %f, want 180", got.Means["pitch_mean"])
	}
}

func TestBadgerStoreRequiresDir(t *testing.T) {
	if _, err := baseline.NewBadgerStore(baseline.BadgerOptions{}); err == nil {
		t.Fatal("NewBadgerStore accepted empty options")
	}
}
