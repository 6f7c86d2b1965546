package dashboard

import "context"

// Store persists Local-origin products plus small string preferences
// (currently just the UI theme). Implementations must keep insertion
// order: merged views present local records in storage order.
//
// LoadAll fails open on malformed persisted data: a corrupt product list
// reads back as empty rather than as an error. Genuine backend failures
// (for example an unreachable database) are still reported and absorbed
// at the cache boundary.
type Store interface {
	Ping(ctx context.Context) error

	LoadAll(ctx context.Context) ([]Product, error)
	SaveAll(ctx context.Context, products []Product) error
	Append(ctx context.Context, p Product) error
	// Remove drops every product matching the predicate and reports
	// whether anything matched.
	Remove(ctx context.Context, match func(Product) bool) (bool, error)
	// Replace swaps the first product matching the predicate and reports
	// whether anything matched.
	Replace(ctx context.Context, match func(Product) bool, updated Product) (bool, error)

	LoadPref(ctx context.Context, key string) (string, error)
	SavePref(ctx context.Context, key, value string) error
}

// MatchID is the predicate used for id-addressed Remove/Replace calls.
func MatchID(id string) func(Product) bool {
	return func(p Product) bool { return p.ID == id }
}
