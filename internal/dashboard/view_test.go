package dashboard

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewProduct(id, name, category, brand string, price float64, rating float64, stock int) Product {
	return Product{
		ID:          id,
		Origin:      OriginRemote,
		Name:        name,
		Category:    category,
		Brand:       brand,
		Price:       decimal.NewFromFloat(price),
		Rating:      rating,
		Stock:       stock,
		Description: "desc",
		Image:       "/img.jpg",
		Images:      []string{"/img.jpg"},
	}
}

func ids(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestDeriveView_SearchMatchesNameCategoryBrand(t *testing.T) {
	products := []Product{
		viewProduct("1", "Gaming Keyboard", "Peripherals", "Logi", 50, 4, 3),
		viewProduct("2", "Mouse", "Gaming Gear", "Razer", 30, 4, 3),
		viewProduct("3", "Monitor", "Displays", "GameBrand", 300, 4, 3),
		viewProduct("4", "Desk", "Furniture", "Ikea", 120, 4, 3),
	}

	res := DeriveView(products, Criteria{Search: "gAm", Page: 1})
	assert.Equal(t, []string{"1", "2", "3"}, ids(res.Items))
	assert.Equal(t, 3, res.TotalFiltered)
	assert.Equal(t, 4, res.TotalAll)

	res = DeriveView(products, Criteria{Page: 1})
	assert.Len(t, res.Items, 4, "empty search matches everything")
}

func TestDeriveView_ExactCategoryAndBrandFilters(t *testing.T) {
	products := []Product{
		viewProduct("1", "A", "Audio", "Sony", 10, 4, 3),
		viewProduct("2", "B", "Audio", "Bose", 20, 4, 3),
		viewProduct("3", "C", "audio", "Sony", 30, 4, 3), // case differs: no match
	}

	res := DeriveView(products, Criteria{Category: "Audio", Page: 1})
	assert.Equal(t, []string{"1", "2"}, ids(res.Items))

	res = DeriveView(products, Criteria{Category: "Audio", Brand: "Sony", Page: 1})
	assert.Equal(t, []string{"1"}, ids(res.Items))
}

func TestDeriveView_SortPrice(t *testing.T) {
	products := []Product{
		viewProduct("a", "A", "C", "B", 50, 0, 0),
		viewProduct("b", "B", "C", "B", 10, 0, 0),
		viewProduct("c", "C", "C", "B", 30, 0, 0),
	}

	res := DeriveView(products, Criteria{Sort: SortPriceLowHigh, Page: 1})
	assert.Equal(t, []string{"b", "c", "a"}, ids(res.Items))

	res = DeriveView(products, Criteria{Sort: SortPriceHighLow, Page: 1})
	assert.Equal(t, []string{"a", "c", "b"}, ids(res.Items))
}

func TestDeriveView_SortIsStable(t *testing.T) {
	products := []Product{
		viewProduct("first", "A", "C", "B", 20, 0, 0),
		viewProduct("second", "B", "C", "B", 20, 0, 0),
		viewProduct("cheap", "C", "C", "B", 5, 0, 0),
		viewProduct("third", "D", "C", "B", 20, 0, 0),
	}

	res := DeriveView(products, Criteria{Sort: SortPriceLowHigh, Page: 1})
	assert.Equal(t, []string{"cheap", "first", "second", "third"}, ids(res.Items))
}

func TestDeriveView_SortRatingAndStockDescending(t *testing.T) {
	products := []Product{
		viewProduct("low", "A", "C", "B", 1, 1.5, 2),
		viewProduct("none", "B", "C", "B", 1, 0, 0), // missing rating/stock count as zero
		viewProduct("high", "C", "C", "B", 1, 4.5, 9),
	}

	res := DeriveView(products, Criteria{Sort: SortRatingHighLow, Page: 1})
	assert.Equal(t, []string{"high", "low", "none"}, ids(res.Items))

	res = DeriveView(products, Criteria{Sort: SortStockHighLow, Page: 1})
	assert.Equal(t, []string{"high", "low", "none"}, ids(res.Items))
}

func TestDeriveView_Pagination(t *testing.T) {
	products := make([]Product, 0, 25)
	for i := 0; i < 25; i++ {
		products = append(products, viewProduct(fmt.Sprintf("p%02d", i), "N", "C", "B", 1, 0, 0))
	}

	res := DeriveView(products, Criteria{Page: 1})
	require.Equal(t, 3, res.TotalPages)
	assert.Len(t, res.Items, PageSize)
	assert.Equal(t, "p00", res.Items[0].ID)

	res = DeriveView(products, Criteria{Page: 3})
	assert.Len(t, res.Items, 1)
	assert.Equal(t, "p24", res.Items[0].ID)

	res = DeriveView(products, Criteria{Page: 99})
	assert.Equal(t, 3, res.Page, "out-of-range page clamps to the last page")
	assert.Len(t, res.Items, 1)

	res = DeriveView(nil, Criteria{Page: 1})
	assert.Equal(t, 1, res.TotalPages, "empty set still reports one page")
	assert.Empty(t, res.Items)
}

func TestDeriveView_PureAndNonMutating(t *testing.T) {
	products := []Product{
		viewProduct("a", "A", "C", "B", 50, 0, 0),
		viewProduct("b", "B", "C", "B", 10, 0, 0),
	}
	cr := Criteria{Sort: SortPriceLowHigh, Page: 1}

	first := DeriveView(products, cr)
	second := DeriveView(products, cr)
	assert.Equal(t, first, second)

	assert.Equal(t, "a", products[0].ID, "input order untouched")
	assert.Equal(t, "b", products[1].ID)
}

func TestDeriveFacets(t *testing.T) {
	products := []Product{
		viewProduct("1", "A", "Audio", "Sony", 1, 0, 0),
		viewProduct("2", "B", "Video", "", 1, 0, 0),
		viewProduct("3", "C", "Audio", "Bose", 1, 0, 0),
	}

	f := DeriveFacets(products)
	assert.Equal(t, []string{"Audio", "Video"}, f.Categories)
	assert.Equal(t, []string{"Sony", "Bose"}, f.Brands, "empty brands excluded, first-seen order kept")
}

func TestDeriveStats(t *testing.T) {
	products := []Product{
		viewProduct("1", "A", "C", "Sony", 1, 0, 5),
		viewProduct("2", "B", "C", "Sony", 1, 0, 0),
		viewProduct("3", "C", "C", "Bose", 1, 0, 2),
	}

	s := DeriveStats(products)
	assert.Equal(t, Stats{Total: 3, InStock: 2, Brands: 2}, s)
}
