package form

import (
	"context"

	"github.com/devmahmoudi/formgen/pkg/cache"
	"github.com/devmahmoudi/formgen/pkg/metrics"
	"github.com/devmahmoudi/formgen/pkg/models"
)

// CachedRepository wraps a FormRepository with a short-TTL form cache.
// Reads go through the cache; every write invalidates the cached entry.
type CachedRepository struct {
	inner FormRepository
	cache *cache.FormCache
}

func NewCachedRepository(inner FormRepository, formCache *cache.FormCache) *CachedRepository {
	return &CachedRepository{inner: inner, cache: formCache}
}

func (r *CachedRepository) Create(ctx context.Context, req models.CreateFormRequest) (*models.Form, error) {
	form, err := r.inner.Create(ctx, req)
	if err == nil && form != nil {
		r.cache.Set(ctx, form)
	}
	return form, err
}

func (r *CachedRepository) GetByID(ctx context.Context, id string) (*models.Form, error) {
	if form := r.cache.Get(ctx, id); form != nil {
		metrics.FormCacheHitsTotal.WithLabelValues("hit").Inc()
		return form, nil
	}
	metrics.FormCacheHitsTotal.WithLabelValues("miss").Inc()

	form, err := r.inner.GetByID(ctx, id)
	if err == nil && form != nil {
		r.cache.Set(ctx, form)
	}
	return form, err
}

func (r *CachedRepository) List(ctx context.Context, page, pageSize int) ([]models.Form, int, error) {
	return r.inner.List(ctx, page, pageSize)
}

func (r *CachedRepository) Update(ctx context.Context, id string, req models.UpdateFormRequest) (*models.Form, error) {
	form, err := r.inner.Update(ctx, id, req)
	r.cache.Invalidate(ctx, id)
	return form, err
}

func (r *CachedRepository) Delete(ctx context.Context, id string) error {
	err := r.inner.Delete(ctx, id)
	r.cache.Invalidate(ctx, id)
	return err
}
