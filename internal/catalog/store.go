// Package catalog holds the in-memory product catalog: each product identity
// maps to its current product value and review history.
//
// A single RWMutex guards the whole catalog. Mutators hold the write lock
// for their critical section only; queries hold the read lock while copying
// out what they need and render or write files after releasing it.
//
// Dump, Restore and Replace are maintenance operations. They are not safe
// against concurrent CreateProduct/ReviewProduct traffic: a mutation landing
// between the snapshot and the reset is lost.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"MiniCatalog/internal/domain"
	"MiniCatalog/internal/i18n"
	"MiniCatalog/pkg/kit"
)

var ErrNotFound = errors.New("product not found")

type record struct {
	product domain.Product
	reviews []domain.Review
}

type Deps struct {
	Log     *zap.Logger
	Metrics *kit.Metrics
	Locales *i18n.Registry
	Reports ReportWriter
	Archive Archive
}

type Manager struct {
	mu sync.RWMutex
	m  map[domain.Identity]*record
	// order is insertion order; byID lists identities per id in that order.
	order []domain.Identity
	byID  map[int][]domain.Identity

	log     *zap.Logger
	metrics *kit.Metrics
	locales *i18n.Registry
	reports ReportWriter
	archive Archive
}

// NewManager builds a catalog holding entries. Entries repeating an identity
// already seen are dropped. Load entries before serving any traffic.
func NewManager(deps Deps, entries ...domain.Entry) *Manager {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	m := &Manager{
		log:     deps.Log,
		metrics: deps.Metrics,
		locales: deps.Locales,
		reports: deps.Reports,
		archive: deps.Archive,
	}
	m.reset(entries)
	return m
}

func (m *Manager) reset(entries []domain.Entry) {
	m.m = make(map[domain.Identity]*record, len(entries))
	m.order = make([]domain.Identity, 0, len(entries))
	m.byID = make(map[int][]domain.Identity, len(entries))
	for _, e := range entries {
		reviews := slices.Clone(e.Reviews)
		if reviews == nil {
			reviews = []domain.Review{}
		}
		if !m.insert(e.Product, reviews) {
			m.log.Warn("duplicate product identity dropped",
				zap.Int("id", e.Product.ID), zap.String("name", e.Product.Name))
		}
	}
}

// insert adds p unless its identity is present. Caller holds the write lock.
func (m *Manager) insert(p domain.Product, reviews []domain.Review) bool {
	key := p.Identity()
	if _, ok := m.m[key]; ok {
		return false
	}
	m.m[key] = &record{product: p, reviews: reviews}
	m.order = append(m.order, key)
	m.byID[p.ID] = append(m.byID[p.ID], key)
	return true
}

// lookup returns the first-inserted record with the given id. Caller holds
// a lock.
func (m *Manager) lookup(id int) (*record, bool) {
	keys := m.byID[id]
	if len(keys) == 0 {
		return nil, false
	}
	return m.m[keys[0]], true
}

func (m *Manager) CreateProduct(id int, name string, price decimal.Decimal, rating domain.Rating) (domain.Product, error) {
	p, err := domain.NewNonPerishable(id, name, price, rating)
	return m.create(p, err)
}

func (m *Manager) CreatePerishable(id int, name string, price decimal.Decimal, rating domain.Rating, bestBefore time.Time) (domain.Product, error) {
	p, err := domain.NewPerishable(id, name, price, rating, bestBefore)
	return m.create(p, err)
}

// create stores p with an empty review list. If the identity is already in
// the catalog the stored product is returned unchanged.
func (m *Manager) create(p domain.Product, err error) (domain.Product, error) {
	start := time.Now()
	if err != nil {
		m.log.Info("error adding product", zap.Error(err))
		m.metrics.Observe("create", kit.StatusError, start)
		return domain.Product{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.m[p.Identity()]; ok {
		m.metrics.Observe("create", kit.StatusOK, start)
		return rec.product, nil
	}
	m.insert(p, []domain.Review{})
	m.metrics.Observe("create", kit.StatusOK, start)
	return p, nil
}

// ReviewProduct appends a review to the product with the given id and
// re-rates it with the half-up rounded mean of all its review ordinals.
func (m *Manager) ReviewProduct(id int, rating domain.Rating, comments string) (domain.Product, error) {
	start := time.Now()

	review, err := domain.NewReview(rating, comments)
	if err != nil {
		m.log.Info("error reviewing product", zap.Int("id", id), zap.Error(err))
		m.metrics.Observe("review", kit.StatusError, start)
		return domain.Product{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.lookup(id)
	if !ok {
		err := fmt.Errorf("%w: id %d", ErrNotFound, id)
		m.log.Info("error reviewing product", zap.Error(err))
		m.metrics.Observe("review", kit.StatusNotFound, start)
		return domain.Product{}, err
	}

	rec.reviews = append(rec.reviews, review)
	rec.product = rec.product.ApplyRating(domain.AverageRating(rec.reviews))

	m.metrics.Observe("review", kit.StatusOK, start)
	return rec.product, nil
}

// FindProduct returns the product with the given id. If several names share
// the id, the first one added wins.
func (m *Manager) FindProduct(id int) (domain.Product, error) {
	start := time.Now()

	m.mu.RLock()
	rec, ok := m.lookup(id)
	var p domain.Product
	if ok {
		p = rec.product
	}
	m.mu.RUnlock()

	if !ok {
		err := fmt.Errorf("%w: id %d", ErrNotFound, id)
		m.log.Info("product lookup failed", zap.Error(err))
		m.metrics.Observe("find", kit.StatusNotFound, start)
		return domain.Product{}, err
	}
	m.metrics.Observe("find", kit.StatusOK, start)
	return p, nil
}

// Reviews returns a copy of the review history of the product with the
// given id, in the order the reviews were added.
func (m *Manager) Reviews(id int) ([]domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return slices.Clone(rec.reviews), nil
}

// Entries copies the whole catalog in insertion order.
func (m *Manager) Entries() []domain.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Entry, 0, len(m.order))
	for _, key := range m.order {
		rec := m.m[key]
		out = append(out, domain.Entry{Product: rec.product, Reviews: slices.Clone(rec.reviews)})
	}
	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.m)
}

// Replace swaps the whole catalog for entries.
func (m *Manager) Replace(entries []domain.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset(entries)
}

func (m *Manager) products() []domain.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Product, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.m[key].product)
	}
	return out
}
