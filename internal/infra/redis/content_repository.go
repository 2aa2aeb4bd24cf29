package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"material-quiz-service/internal/domain"
	"material-quiz-service/internal/infra/memory"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const catalogKey = "quiz:catalog"

// ContentRepository caches the authored catalog in Redis as a JSON blob and
// falls back to a loader on cache miss. The cache is shared across service
// instances, unlike the in-process variant.
type ContentRepository struct {
	client *redis.Client
	loader memory.ContentLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewContentRepository(client *redis.Client, loader memory.ContentLoader, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
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
	if catalog, ok := r.cached(ctx); ok {
		return catalog, nil
	}

	result, err, _ := r.sf.Do(catalogKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if catalog, ok := r.cached(ctx); ok {
			return catalog, nil
		}

		catalog, err := r.loader.LoadCatalog(ctx)
		if err != nil {
			return domain.Catalog{}, err
		}

		raw, err := json.Marshal(catalog)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("marshal catalog: %w", err)
		}
		_ = r.client.Set(ctx, catalogKey, raw, r.ttlWithJitter()).Err()
		return catalog, nil
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	return result.(domain.Catalog), nil
}

func (r *ContentRepository) cached(ctx context.Context) (domain.Catalog, bool) {
	raw, err := r.client.Get(ctx, catalogKey).Bytes()
	if err != nil {
		return domain.Catalog{}, false
	}
	var catalog domain.Catalog
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return domain.Catalog{}, false
	}
	return catalog, true
}

func (r *ContentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
