package dashboard

import (
	"context"

	"github.com/shopspring/decimal"
)

// Coordinator applies create/update/delete operations, routing each by
// the record's origin: local products are persisted through the store,
// remote products only ever change inside the session cache. Nothing
// here performs a network write; the remote catalog is read-only.
type Coordinator struct {
	cache   *Cache
	store   Store
	metrics *Metrics
}

func NewCoordinator(cache *Cache, store Store, metrics *Metrics) *Coordinator {
	return &Coordinator{cache: cache, store: store, metrics: metrics}
}

// ProductInput is a new-product submission.
type ProductInput struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	Description string          `json:"description"`
	Stock       int             `json:"stock"`
	Rating      float64         `json:"rating"`
	Images      []string        `json:"images"`
}

// Create validates the submission as a whole, mints a local id and
// persists the record. A *ValidationError lists every violated field;
// nothing is written in that case.
func (m *Coordinator) Create(ctx context.Context, in ProductInput) (Product, error) {
	p := Product{
		ID:          NewLocalID(),
		Origin:      OriginLocal,
		Name:        in.Name,
		Price:       in.Price,
		Category:    in.Category,
		Brand:       in.Brand,
		Description: in.Description,
		Stock:       in.Stock,
		Rating:      in.Rating,
		Image:       firstOr(in.Images, PlaceholderImage),
		Images:      in.Images,
	}
	if err := validateProduct(p); err != nil {
		return Product{}, err
	}

	if err := m.store.Append(ctx, p); err != nil {
		return Product{}, err
	}
	m.metrics.localMutation("create")
	return p, nil
}

// Update applies a partial change. Remote records are patched in the
// session cache only and revert on Invalidate; local records are
// replaced in the store. Validation mirrors Create, id and origin are
// immutable.
func (m *Coordinator) Update(ctx context.Context, p Product, patch ProductPatch) (Product, error) {
	updated := p
	patch.applyTo(&updated)
	updated.ID = p.ID
	updated.Origin = p.Origin

	if err := validateProduct(updated); err != nil {
		return Product{}, err
	}

	if p.Origin == OriginRemote {
		if !m.cache.PatchRemote(p.ID, patch) {
			return Product{}, ErrNotFound
		}
		return updated, nil
	}

	replaced, err := m.store.Replace(ctx, MatchID(p.ID), updated)
	if err != nil {
		return Product{}, err
	}
	if !replaced {
		return Product{}, ErrNotFound
	}
	m.metrics.localMutation("update")
	return updated, nil
}

// Delete hides remote records for the session and removes local
// records permanently.
func (m *Coordinator) Delete(ctx context.Context, p Product) error {
	if p.Origin == OriginRemote {
		m.cache.MarkRemoteDeleted(p.ID)
		return nil
	}

	removed, err := m.store.Remove(ctx, MatchID(p.ID))
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFound
	}
	m.metrics.localMutation("delete")
	return nil
}
