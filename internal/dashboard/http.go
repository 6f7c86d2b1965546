package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ShopDash/pkg/kit"
)

const maxMutationBody = 1 << 20

type Server struct {
	Cache *Cache
	Store Store
	Mut   *Coordinator
	Log   *zap.Logger

	// The dashboard serves a single browser session, so the page-reset
	// rule lives here: a changed search term forces page 1, while
	// category/brand/sort changes keep the current page.
	mu         sync.Mutex
	lastSearch string
}

// Routes builds the API router. Middleware passed in wraps the
// mutation endpoints only, so the composition root can rate-limit
// writes without touching reads.
func (s *Server) Routes(mutationMW ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.readyz)

	r.Get("/products", s.list)
	r.Get("/products/facets", s.facets)
	r.Get("/products/stats", s.stats)
	r.Get("/products/{id}", s.get)

	r.Get("/prefs/theme", s.getTheme)

	r.Group(func(mr chi.Router) {
		mr.Use(mutationMW...)
		mr.Post("/products", s.create)
		mr.Put("/products/{id}", s.update)
		mr.Delete("/products/{id}", s.delete)
		mr.Post("/cache/invalidate", s.invalidate)
		mr.Put("/prefs/theme", s.putTheme)
	})

	return r
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		if s.Log != nil {
			s.Log.Warn("readyz failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sortOrder, ok := ParseSortOrder(q.Get("sort"))
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "unknown sort order", map[string]any{"sort": q.Get("sort")})
		return
	}

	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			kit.WriteError(w, r, http.StatusBadRequest, "bad page", map[string]any{"page": raw})
			return
		}
		page = n
	}

	cr := Criteria{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
		Sort:     sortOrder,
		Page:     s.effectivePage(q.Get("search"), page),
	}

	products, err := s.Cache.EnsureLoaded(r.Context())
	if err != nil {
		s.writeLoadError(w, r, err)
		return
	}

	kit.WriteJSON(w, http.StatusOK, DeriveView(products, cr))
}

func (s *Server) effectivePage(search string, requested int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if search != s.lastSearch {
		s.lastSearch = search
		return 1
	}
	return requested
}

func (s *Server) facets(w http.ResponseWriter, r *http.Request) {
	products, err := s.Cache.EnsureLoaded(r.Context())
	if err != nil {
		s.writeLoadError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, DeriveFacets(products))
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	products, err := s.Cache.EnsureLoaded(r.Context())
	if err != nil {
		s.writeLoadError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, DeriveStats(products))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, found, err := s.Cache.Find(r.Context(), id)
	if err != nil {
		s.writeLoadError(w, r, err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if err := decodeBody(w, r, &in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	p, err := s.Mut.Create(r.Context(), in)
	if err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch ProductPatch
	if err := decodeBody(w, r, &patch); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	p, found, err := s.Cache.Find(r.Context(), id)
	if err != nil {
		s.writeLoadError(w, r, err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}

	updated, err := s.Mut.Update(r.Context(), p, patch)
	if err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, updated)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, found, err := s.Cache.Find(r.Context(), id)
	if err != nil {
		s.writeLoadError(w, r, err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}

	if err := s.Mut.Delete(r.Context(), p); err != nil {
		s.writeMutationError(w, r, err)
		return
	}
	kit.WriteNoContent(w)
}

func (s *Server) invalidate(w http.ResponseWriter, r *http.Request) {
	s.Cache.Invalidate()
	kit.WriteNoContent(w)
}

const themePref = "theme"

func (s *Server) getTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := s.Store.LoadPref(r.Context(), themePref)
	if err != nil {
		if s.Log != nil {
			s.Log.Warn("theme read failed", zap.Error(err))
		}
		theme = ""
	}
	if theme == "" {
		theme = "light"
	}
	kit.WriteJSON(w, http.StatusOK, map[string]string{"theme": theme})
}

func (s *Server) putTheme(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Theme string `json:"theme"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if body.Theme != "light" && body.Theme != "dark" {
		kit.WriteError(w, r, http.StatusBadRequest, "theme must be light or dark", nil)
		return
	}

	if err := s.Store.SavePref(r.Context(), themePref, body.Theme); err != nil {
		if s.Log != nil {
			s.Log.Error("theme write failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteNoContent(w)
}

func (s *Server) writeLoadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrFetch) || errors.Is(err, ErrFormat) {
		if s.Log != nil {
			s.Log.Error("catalog load failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusBadGateway, "catalog unavailable", map[string]any{
			"retry": "POST /cache/invalidate, then reload",
		})
		return
	}
	if s.Log != nil {
		s.Log.Error("load failed", zap.Error(err))
	}
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}

func (s *Server) writeMutationError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		kit.WriteError(w, r, http.StatusUnprocessableEntity, "validation failed", verr.Fields)
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", nil)
	default:
		if s.Log != nil {
			s.Log.Error("mutation failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxMutationBody)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}
