package kvstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"skinscan/internal/kv"
	"skinscan/internal/model"
	"skinscan/internal/repository"
)

// ScanStore is a kv.Store backed repository.ScanRepository.
// Listing loads every scan under the owner's key prefix; there is no index.
type ScanStore struct {
	store kv.Store
}

// NewScanStore creates a new ScanStore.
func NewScanStore(store kv.Store) *ScanStore {
	return &ScanStore{store: store}
}

var _ repository.ScanRepository = (*ScanStore)(nil)

func (r *ScanStore) NextID(ownerID string, at time.Time) string {
	return newScanID(ownerID, at)
}

func (r *ScanStore) Create(ctx context.Context, s *model.Scan) error {
	if !isScanKey(s.ID) {
		return fmt.Errorf("create scan: malformed id %q", s.ID)
	}
	if err := kv.SetJSON(ctx, r.store, s.ID, s); err != nil {
		return fmt.Errorf("create scan: %w", err)
	}
	return nil
}

func (r *ScanStore) Get(ctx context.Context, id string) (*model.Scan, error) {
	// keeps profile keys out of reach of scan routes
	if !isScanKey(id) {
		return nil, repository.ErrNotFound
	}
	s, found, err := kv.GetJSON[model.Scan](ctx, r.store, id)
	if err != nil {
		return nil, fmt.Errorf("get scan: %w", err)
	}
	if !found {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *ScanStore) ListByOwner(ctx context.Context, ownerID string, f repository.ScanFilter) ([]model.Scan, error) {
	all, err := kv.ScanJSON[model.Scan](ctx, r.store, ownerScanPrefix(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))
	scans := make([]model.Scan, 0, len(all))
	for _, s := range all {
		// owner ids may contain "_", so the prefix alone is not proof of ownership
		if s.UserID != ownerID {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(s.DiseaseName), query) {
			continue
		}
		if f.Severity != "" && !strings.EqualFold(s.Severity, f.Severity) {
			continue
		}
		scans = append(scans, s)
	}

	sort.SliceStable(scans, func(i, j int) bool {
		if !scans[i].CreatedAt.Equal(scans[j].CreatedAt) {
			return scans[i].CreatedAt.After(scans[j].CreatedAt)
		}
		return scans[i].ID > scans[j].ID
	})
	return scans, nil
}

func (r *ScanStore) Delete(ctx context.Context, id string) error {
	if !isScanKey(id) {
		return nil
	}
	if err := r.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete scan: %w", err)
	}
	return nil
}
