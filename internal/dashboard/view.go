package dashboard

import (
	"sort"
	"strings"
)

// PageSize is fixed: the dashboard renders a 12-card grid.
const PageSize = 12

type SortOrder string

const (
	SortNone          SortOrder = ""
	SortPriceLowHigh  SortOrder = "priceLowHigh"
	SortPriceHighLow  SortOrder = "priceHighLow"
	SortRatingHighLow SortOrder = "ratingHighLow"
	SortStockHighLow  SortOrder = "stockHighLow"
)

func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(s) {
	case SortNone, SortPriceLowHigh, SortPriceHighLow, SortRatingHighLow, SortStockHighLow:
		return SortOrder(s), true
	}
	return SortNone, false
}

type Criteria struct {
	Search   string
	Category string
	Brand    string
	Sort     SortOrder
	Page     int
}

type ViewResult struct {
	Items         []Product `json:"items"`
	Page          int       `json:"page"`
	TotalPages    int       `json:"total_pages"`
	TotalFiltered int       `json:"total_filtered"`
	TotalAll      int       `json:"total_all"`
}

// DeriveView is the pure filter -> sort -> paginate pipeline. It never
// mutates its input and holds no state, so identical inputs always
// produce identical results. Out-of-range pages are clamped into
// [1, TotalPages].
func DeriveView(products []Product, cr Criteria) ViewResult {
	filtered := filterProducts(products, cr)
	sortProducts(filtered, cr.Sort)
	return paginate(filtered, cr.Page, len(products))
}

func filterProducts(products []Product, cr Criteria) []Product {
	search := strings.ToLower(cr.Search)

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Category), search) &&
			!strings.Contains(strings.ToLower(p.Brand), search) {
			continue
		}
		if cr.Category != "" && p.Category != cr.Category {
			continue
		}
		if cr.Brand != "" && p.Brand != cr.Brand {
			continue
		}
		out = append(out, p)
	}
	return out
}

// sortProducts sorts in place. Stability matters: equal keys keep the
// merged-view order (remote fetch order, then local storage order).
func sortProducts(products []Product, order SortOrder) {
	switch order {
	case SortPriceLowHigh:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.Cmp(products[j].Price) < 0
		})
	case SortPriceHighLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.Cmp(products[j].Price) > 0
		})
	case SortRatingHighLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Rating > products[j].Rating
		})
	case SortStockHighLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Stock > products[j].Stock
		})
	}
}

func paginate(filtered []Product, page, totalAll int) ViewResult {
	totalPages := (len(filtered) + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	lo := (page - 1) * PageSize
	hi := lo + PageSize
	if lo > len(filtered) {
		lo = len(filtered)
	}
	if hi > len(filtered) {
		hi = len(filtered)
	}

	return ViewResult{
		Items:         filtered[lo:hi],
		Page:          page,
		TotalPages:    totalPages,
		TotalFiltered: len(filtered),
		TotalAll:      totalAll,
	}
}

// Facets lists the distinct category and brand values present in the
// view, in first-seen order. The UI turns these into filter dropdowns.
type Facets struct {
	Categories []string `json:"categories"`
	Brands     []string `json:"brands"`
}

func DeriveFacets(products []Product) Facets {
	var f Facets
	seenCat := map[string]struct{}{}
	seenBrand := map[string]struct{}{}

	for _, p := range products {
		if p.Category != "" {
			if _, ok := seenCat[p.Category]; !ok {
				seenCat[p.Category] = struct{}{}
				f.Categories = append(f.Categories, p.Category)
			}
		}
		if p.Brand != "" {
			if _, ok := seenBrand[p.Brand]; !ok {
				seenBrand[p.Brand] = struct{}{}
				f.Brands = append(f.Brands, p.Brand)
			}
		}
	}
	return f
}

// Stats feeds the dashboard header cards.
type Stats struct {
	Total   int `json:"total"`
	InStock int `json:"in_stock"`
	Brands  int `json:"brands"`
}

func DeriveStats(products []Product) Stats {
	s := Stats{Total: len(products)}
	brands := map[string]struct{}{}
	for _, p := range products {
		if p.Stock > 0 {
			s.InStock++
		}
		if p.Brand != "" {
			brands[p.Brand] = struct{}{}
		}
	}
	s.Brands = len(brands)
	return s
}
