package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/brightpath-housing/intake/internal/gcp"
)

// BlobLister enumerates stored blobs for the reconciliation sweep.
type BlobLister interface {
	List(ctx context.Context, prefix string) ([]gcp.ObjectInfo, error)
}

// Reconciler detects orphaned blobs: uploads that finished without their
// FileAsset metadata record, which a crash between "file uploaded" and
// "metadata written" can leave behind. Detection only; cleanup stays a
// human decision.
type Reconciler struct {
	blobs  BlobLister
	assets AssetStore
	grace  time.Duration
	now    func() time.Time
}

// NewReconciler builds a reconciler. grace is how old a blob must be before
// a missing metadata record counts as an orphan rather than an in-flight
// write.
func NewReconciler(blobs BlobLister, assets AssetStore, grace time.Duration) *Reconciler {
	return &Reconciler{blobs: blobs, assets: assets, grace: grace, now: time.Now}
}

// SweepResult summarizes one reconciliation pass.
type SweepResult struct {
	Scanned     int      `json:"scanned"`
	Orphans     int      `json:"orphans"`
	OrphanPaths []string `json:"orphan_paths,omitempty"`
}

// CheckObject verifies a single finalized blob has its metadata record.
// Used by the storage-event entry point.
func (r *Reconciler) CheckObject(ctx context.Context, name string, created time.Time) (bool, error) {
	if r.now().Sub(created) < r.grace {
		return false, nil
	}
	indexed, err := r.assets.HasAssetForPath(ctx, name)
	if err != nil {
		return false, err
	}
	if !indexed {
		slog.Warn("Orphaned blob detected.", "object", name, "created", created)
		return true, nil
	}
	return false, nil
}

// Sweep walks the whole bucket and reports every orphan past the grace
// period.
func (r *Reconciler) Sweep(ctx context.Context) (*SweepResult, error) {
	objects, err := r.blobs.List(ctx, "")
	if err != nil {
		return nil, err
	}
	result := &SweepResult{}
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Scanned++
		orphan, err := r.CheckObject(ctx, obj.Name, obj.Created)
		if err != nil {
			slog.Error("Failed to check object, continuing sweep.", "object", obj.Name, "error", err)
			continue
		}
		if orphan {
			result.Orphans++
			result.OrphanPaths = append(result.OrphanPaths, obj.Name)
		}
	}
	slog.Info("Reconciliation sweep complete.", "scanned", result.Scanned, "orphans", result.Orphans)
	return result, nil
}
