package service

import (
	"context"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/store"
)

// CatalogService exposes read access to the variant catalog. Catalog
// writes happen out of band; the workflow engine only consumes lookups.
type CatalogService struct {
	store *store.Store
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store *store.Store) *CatalogService {
	return &CatalogService{store: store}
}

// GetVariant retrieves a variant with product display info and live stock
func (c *CatalogService) GetVariant(ctx context.Context, variantID int64) (*models.VariantDetail, error) {
	return c.store.GetVariantDetail(ctx, variantID)
}
