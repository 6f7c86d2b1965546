package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrFetch covers transport failures and non-2xx upstream answers.
	ErrFetch = errors.New("catalog fetch failed")
	// ErrFormat covers responses that decode but lack the expected envelope.
	ErrFormat = errors.New("catalog response malformed")
)

// Raw upstream shapes. The catalog API nests category and groups image
// links; normalizeRemote flattens these into the unified Product.
type rawCategory struct {
	Name string `json:"name"`
}

type rawImageGroup struct {
	ImageLinks []string `json:"imageLinks"`
}

type rawProduct struct {
	ID          string          `json:"_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    *rawCategory    `json:"category"`
	Images      []rawImageGroup `json:"images"`
	Ratings     float64         `json:"ratings"`
	Brand       string          `json:"brand"`
	Stock       int             `json:"stock"`
}

type catalogEnvelope struct {
	Success  bool         `json:"success"`
	Products []rawProduct `json:"products"`
}

// CatalogClient fetches the remote product list. It is stateless; the
// fetch-once policy lives in Cache, not here.
type CatalogClient struct {
	URL    string
	Client *http.Client
}

func NewCatalogClient(endpoint string) *CatalogClient {
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		endpoint = strings.TrimRight(endpoint, "/")
	}
	return &CatalogClient{
		URL:    endpoint,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *CatalogClient) FetchAll(ctx context.Context) ([]Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status=%d", ErrFetch, resp.StatusCode)
	}

	var env catalogEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if !env.Success || env.Products == nil {
		return nil, fmt.Errorf("%w: missing success flag or product list", ErrFormat)
	}

	out := make([]Product, 0, len(env.Products))
	for _, rp := range env.Products {
		out = append(out, normalizeRemote(rp))
	}
	return out, nil
}

// normalizeRemote applies the ingestion default table:
//
//	category  -> "Uncategorized" when the nested object is absent or empty
//	images    -> flattened link groups, placeholder when none declared
//	image     -> first link of the first group, placeholder when none
//	rating    -> clamped to [0, 5]
//	stock     -> floored at 0
//	price     -> floored at 0
func normalizeRemote(rp rawProduct) Product {
	p := Product{
		ID:          rp.ID,
		Origin:      OriginRemote,
		Name:        rp.Title,
		Price:       rp.Price,
		Category:    "Uncategorized",
		Brand:       rp.Brand,
		Description: rp.Description,
		Stock:       rp.Stock,
		Rating:      rp.Ratings,
	}

	if rp.Category != nil && strings.TrimSpace(rp.Category.Name) != "" {
		p.Category = rp.Category.Name
	}

	for _, g := range rp.Images {
		p.Images = append(p.Images, g.ImageLinks...)
	}
	if len(p.Images) == 0 {
		p.Images = []string{PlaceholderImage}
	}
	p.Image = p.Images[0]

	if p.Price.IsNegative() {
		p.Price = decimal.Zero
	}
	if p.Stock < 0 {
		p.Stock = 0
	}
	if p.Rating < 0 {
		p.Rating = 0
	} else if p.Rating > 5 {
		p.Rating = 5
	}

	return p
}
