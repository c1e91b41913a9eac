package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/niksmo/office-storefront/internal/core/domain"
	"github.com/niksmo/office-storefront/internal/core/port"
	"github.com/niksmo/office-storefront/internal/core/service"
)

const defaultFeaturedLimit = 6

type RouterConfig struct {
	Catalog       service.Catalog
	Quotes        service.QuoteService
	Sessions      SessionStore
	CookieName    string
	FeaturedLimit int

	// StatusReader is optional. The quote status route is not registered
	// without it.
	StatusReader port.QuoteStatusReader
}

type StorefrontHandler struct {
	catalog       service.Catalog
	quotes        service.QuoteService
	featuredLimit int
	statusReader  port.QuoteStatusReader
}

func NewRouter(cfg RouterConfig) http.Handler {
	h := StorefrontHandler{
		catalog:       cfg.Catalog,
		quotes:        cfg.Quotes,
		featuredLimit: cfg.FeaturedLimit,
		statusReader:  cfg.StatusReader,
	}
	if h.featuredLimit <= 0 {
		h.featuredLimit = defaultFeaturedLimit
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(AllowJSON)

	r.Get("/healthz", h.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/categories", h.GetCategories)
		r.Get("/products", h.GetProducts)
		r.Get("/products/featured", h.GetFeatured)
		r.Get("/products/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(Sessions(cfg.Sessions, cfg.CookieName))

			r.Get("/search", h.GetSearch)
			r.Get("/search/recent", h.GetRecentSearches)
			r.Post("/search/recent", h.PostRecentSearch)
			r.Delete("/search/recent", h.DeleteRecentSearches)

			r.Get("/quote", h.GetQuote)
			r.Delete("/quote", h.DeleteQuote)
			r.Post("/quote/items", h.PostQuoteItem)
			r.Put("/quote/items/{id}", h.PutQuoteItem)
			r.Delete("/quote/items/{id}", h.DeleteQuoteItem)
			r.Get("/quote/contact", h.GetContact)
			r.Put("/quote/contact", h.PutContact)
			r.Get("/quote/message", h.GetMessage)
			r.Post("/quote/whatsapp", h.PostWhatsApp)
			r.Post("/quote/email", h.PostEmail)
		})

		if cfg.StatusReader != nil {
			r.Get("/quotes/{id}/status", h.GetQuoteStatus)
		}
	})

	return r
}

func (h StorefrontHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h StorefrontHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	counts := h.catalog.Categories()
	out := make([]CategoryCount, len(counts))
	for i, c := range counts {
		out[i] = CategoryCount{Name: string(c.Category), Count: c.Count}
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProducts serves the catalog listing. Repeated or comma-separated
// category values select several categories.
func (h StorefrontHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	const op = "StorefrontHandler.GetProducts"
	log := slog.With("op", op)

	spec, err := h.filterSpec(r)
	if err != nil {
		log.Debug("invalid filter", "err", err)
		writeDomainError(w, err)
		return
	}

	products := h.catalog.Products()
	if q := r.URL.Query().Get("search"); service.QueryActive(q) {
		products = service.Matches(q, products)
	}
	products = service.ApplyFilter(products, spec)

	writeJSON(w, http.StatusOK, ProductList{
		Count:    len(products),
		MaxPrice: spec.MaxPrice,
		Sort:     string(spec.Sort),
		Products: fromProducts(products),
	})
}

func (h StorefrontHandler) filterSpec(r *http.Request) (domain.FilterSpec, error) {
	q := r.URL.Query()
	spec := h.catalog.DefaultFilter()

	var errs []error
	for _, v := range q["category"] {
		for _, name := range strings.Split(v, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			c, err := domain.ParseCategory(name)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			spec.Categories = append(spec.Categories, c)
		}
	}

	if v := q.Get("max_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			errs = append(errs, errInvalidParam("max_price"))
		} else {
			spec.MaxPrice = p
		}
	}

	sort, err := domain.ParseSortKey(q.Get("sort"))
	if err != nil {
		errs = append(errs, err)
	}
	spec.Sort = sort

	return spec, errors.Join(errs...)
}

func (h StorefrontHandler) GetFeatured(w http.ResponseWriter, r *http.Request) {
	limit := h.featuredLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeDomainError(w, errInvalidParam("limit"))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, fromProducts(h.catalog.Featured(limit)))
}

func (h StorefrontHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Product(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fromProduct(p))
}

func (h StorefrontHandler) GetSearch(w http.ResponseWriter, r *http.Request) {
	res := service.Suggest(r.URL.Query().Get("q"), h.catalog.Products())
	out := SearchResult{
		Query:    res.Query,
		Open:     res.Open,
		NotFound: res.NotFound,
		Products: fromProducts(res.Products),
		Popular:  res.Popular,
	}
	if !res.Open {
		out.Recent = sessionFrom(r.Context()).RecentSearches()
	}
	writeJSON(w, http.StatusOK, out)
}

func (h StorefrontHandler) GetRecentSearches(w http.ResponseWriter, r *http.Request) {
	terms := sessionFrom(r.Context()).RecentSearches()
	writeJSON(w, http.StatusOK, RecentSearches{Terms: nonNil(terms)})
}

// PostRecentSearch records a submitted or selected search term.
func (h StorefrontHandler) PostRecentSearch(w http.ResponseWriter, r *http.Request) {
	const op = "StorefrontHandler.PostRecentSearch"
	log := slog.With("op", op)

	var body SearchTerm
	if !decodeJSON(w, r, &body) {
		return
	}

	terms, err := sessionFrom(r.Context()).SaveSearch(r.Context(), body.Term)
	if err != nil {
		log.Error("failed to save recent search", "err", err)
		writeError(w, http.StatusServiceUnavailable, "failed to save recent search")
		return
	}
	writeJSON(w, http.StatusOK, RecentSearches{Terms: nonNil(terms)})
}

func (h StorefrontHandler) DeleteRecentSearches(w http.ResponseWriter, r *http.Request) {
	const op = "StorefrontHandler.DeleteRecentSearches"
	log := slog.With("op", op)

	if err := sessionFrom(r.Context()).ClearRecentSearches(r.Context()); err != nil {
		log.Error("failed to clear recent searches", "err", err)
		writeError(w, http.StatusServiceUnavailable, "failed to clear recent searches")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h StorefrontHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	h.writeQuote(w, http.StatusOK, sessionFrom(r.Context()).Quote())
}

func (h StorefrontHandler) DeleteQuote(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r.Context())
	s.ClearQuote()
	h.writeQuote(w, http.StatusOK, s.Quote())
}

func (h StorefrontHandler) PostQuoteItem(w http.ResponseWriter, r *http.Request) {
	var body AddItem
	if !decodeJSON(w, r, &body) {
		return
	}

	p, err := h.catalog.Product(body.ProductID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.writeQuote(w, http.StatusOK, sessionFrom(r.Context()).AddProduct(p))
}

// PutQuoteItem sets the item quantity. A quantity below 1 removes the item.
func (h StorefrontHandler) PutQuoteItem(w http.ResponseWriter, r *http.Request) {
	var body SetQuantity
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Quantity == nil {
		writeDomainError(w, errInvalidParam("quantity"))
		return
	}

	snap, ok := sessionFrom(r.Context()).SetQuantity(chi.URLParam(r, "id"), *body.Quantity)
	if !ok {
		writeDomainError(w, domain.ErrProductNotFound)
		return
	}
	h.writeQuote(w, http.StatusOK, snap)
}

func (h StorefrontHandler) DeleteQuoteItem(w http.ResponseWriter, r *http.Request) {
	snap, ok := sessionFrom(r.Context()).RemoveProduct(chi.URLParam(r, "id"))
	if !ok {
		writeDomainError(w, domain.ErrProductNotFound)
		return
	}
	h.writeQuote(w, http.StatusOK, snap)
}

func (h StorefrontHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, fromContact(sessionFrom(r.Context()).Form()))
}

func (h StorefrontHandler) PutContact(w http.ResponseWriter, r *http.Request) {
	var body Contact
	if !decodeJSON(w, r, &body) {
		return
	}
	s := sessionFrom(r.Context())
	s.SetForm(body.toDomain())
	writeJSON(w, http.StatusOK, fromContact(s.Form()))
}

func (h StorefrontHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.quotes.Message(sessionFrom(r.Context()))))
}

func (h StorefrontHandler) PostWhatsApp(w http.ResponseWriter, r *http.Request) {
	const op = "StorefrontHandler.PostWhatsApp"
	log := slog.With("op", op)

	link, err := h.quotes.SubmitWhatsApp(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		log.Debug("quote rejected", "err", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, WhatsAppLink{URL: link})
}

func (h StorefrontHandler) PostEmail(w http.ResponseWriter, r *http.Request) {
	const op = "StorefrontHandler.PostEmail"
	log := slog.With("op", op)

	req, err := h.quotes.SubmitEmail(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		log.Warn("quote not sent", "err", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, QuoteRequest{
		ID:        req.ID,
		Channel:   string(req.Channel),
		Total:     req.Total.StringFixed(2),
		Currency:  req.Currency,
		CreatedAt: req.CreatedAt.Format(time.RFC3339),
	})
}

func (h StorefrontHandler) GetQuoteStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := h.statusReader.QuoteStatus(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QuoteStatus{ID: id, Status: string(st)})
}

func (h StorefrontHandler) writeQuote(
	w http.ResponseWriter, status int, snap service.QuoteSnapshot,
) {
	writeJSON(w, status, fromSnapshot(snap, h.quotes.Currency()))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	const op = "decodeJSON"

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		slog.Debug("failed to parse JSON", "op", op, "err", err)
		writeError(w, http.StatusBadRequest, "invalid JSON data")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	const op = "writeJSON"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "op", op, "err", err)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
