package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"material-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ContentLoader fetches the authored catalog from a backing store.
type ContentLoader interface {
	LoadCatalog(ctx context.Context) (domain.Catalog, error)
}

// ContentRepository caches the catalog with TTL to avoid repeated DB hits.
type ContentRepository struct {
	loader ContentLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	catalog   domain.Catalog
	cached    bool
	expiresAt time.Time
}

func NewContentRepository(loader ContentLoader, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ContentRepository) ListMaterials(ctx context.Context) ([]domain.Material, error) {
	catalog, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	materials := make([]domain.Material, len(catalog.Materials))
	copy(materials, catalog.Materials)
	sort.SliceStable(materials, func(i, j int) bool {
		return materials[i].CreatedAt.Before(materials[j].CreatedAt)
	})
	return materials, nil
}

func (r *ContentRepository) GetMaterial(ctx context.Context, materialID string) (domain.Material, error) {
	catalog, err := r.snapshot(ctx)
	if err != nil {
		return domain.Material{}, err
	}
	material, ok := catalog.MaterialByID(materialID)
	if !ok {
		return domain.Material{}, domain.ErrMaterialNotFound
	}
	return material, nil
}

func (r *ContentRepository) ActiveBankConfig(ctx context.Context, materialID string) (domain.BankConfig, bool, error) {
	catalog, err := r.snapshot(ctx)
	if err != nil {
		return domain.BankConfig{}, false, err
	}
	cfg, ok := catalog.ActiveConfig(materialID)
	return cfg, ok, nil
}

func (r *ContentRepository) snapshot(ctx context.Context) (domain.Catalog, error) {
	now := r.clock()

	r.mu.RLock()
	if r.cached && r.expiresAt.After(now) {
		catalog := r.catalog
		r.mu.RUnlock()
		return catalog, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("catalog", func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.cached && r.expiresAt.After(now) {
			catalog := r.catalog
			r.mu.RUnlock()
			return catalog, nil
		}
		r.mu.RUnlock()

		catalog, err := r.loader.LoadCatalog(ctx)
		if err != nil {
			return domain.Catalog{}, err
		}

		r.mu.Lock()
		r.catalog = catalog
		r.cached = true
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return catalog, nil
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	return result.(domain.Catalog), nil
}

func (r *ContentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticContentLoader is a loader backed by an in-memory catalog (useful for
// tests/demos).
type StaticContentLoader struct {
	catalog domain.Catalog
}

func NewStaticContentLoader(catalog domain.Catalog) *StaticContentLoader {
	return &StaticContentLoader{catalog: catalog}
}

func (l *StaticContentLoader) LoadCatalog(_ context.Context) (domain.Catalog, error) {
	return l.catalog, nil
}
