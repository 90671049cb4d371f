package services

import (
	"context"
	"testing"
	"time"

	"github.com/brightpath-housing/intake/internal/gcp"
	"github.com/brightpath-housing/intake/internal/models"
)

type fakeBlobLister struct {
	objects []gcp.ObjectInfo
}

func (l *fakeBlobLister) List(_ context.Context, _ string) ([]gcp.ObjectInfo, error) {
	return l.objects, nil
}

func TestReconcilerSweep(t *testing.T) {
	now := time.Now()
	store := newFakeEntityStore()
	if _, err := store.InsertAsset(context.Background(), models.FileAsset{
		StoragePath: "participant/id-1/ndis_plan/1700000000000_plan.pdf",
	}); err != nil {
		t.Fatal(err)
	}

	lister := &fakeBlobLister{objects: []gcp.ObjectInfo{
		// Indexed: fine.
		{Name: "participant/id-1/ndis_plan/1700000000000_plan.pdf", Created: now.Add(-time.Hour)},
		// Unindexed and old: orphan.
		{Name: "participant/id-2/other/1700000000001_x.pdf", Created: now.Add(-time.Hour)},
		// Unindexed but fresh: inside the grace period, not yet an orphan.
		{Name: "participant/id-3/other/1700000000002_y.pdf", Created: now.Add(-time.Minute)},
	}}

	r := NewReconciler(lister, store, 10*time.Minute)
	result, err := r.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if result.Scanned != 3 {
		t.Errorf("expected 3 scanned but got %d", result.Scanned)
	}
	if result.Orphans != 1 {
		t.Errorf("expected 1 orphan but got %d", result.Orphans)
	}
	if len(result.OrphanPaths) != 1 || result.OrphanPaths[0] != "participant/id-2/other/1700000000001_x.pdf" {
		t.Errorf("unexpected orphan paths %v", result.OrphanPaths)
	}
}

func TestCheckObjectGracePeriod(t *testing.T) {
	store := newFakeEntityStore()
	r := NewReconciler(&fakeBlobLister{}, store, 10*time.Minute)

	orphan, err := r.CheckObject(context.Background(), "participant/id-1/other/123_a.pdf", time.Now())
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if orphan {
		t.Error("fresh object must not count as orphan")
	}

	orphan, err = r.CheckObject(context.Background(), "participant/id-1/other/123_a.pdf", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !orphan {
		t.Error("old unindexed object must count as orphan")
	}
}
