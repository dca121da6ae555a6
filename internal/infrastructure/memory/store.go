// Package memory implementa los repositorios del libro en memoria, para pruebas y para el modo
// demo (LEDGER_STORE=memory). Las transacciones se serializan con un mutex y trabajan sobre una
// copia del estado que solo reemplaza al original si fn termina sin error.
package memory

import (
	"context"
	"sync"

	"github.com/omt-labs/labelledger/internal/application/inventory"
	"github.com/omt-labs/labelledger/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

type state struct {
	runs         map[string]entity.ProductionRun
	movements    []entity.Movement // orden de inserción
	allocations  []entity.Allocation
	sales        map[string]entity.Sale
	returns      map[string]entity.DistributorReturn
	labels       map[string]entity.Label
	releases     map[string]entity.Release
	distributors map[string]entity.Distributor
}

func newState() *state {
	return &state{
		runs:         map[string]entity.ProductionRun{},
		sales:        map[string]entity.Sale{},
		returns:      map[string]entity.DistributorReturn{},
		labels:       map[string]entity.Label{},
		releases:     map[string]entity.Release{},
		distributors: map[string]entity.Distributor{},
	}
}

func (s *state) clone() *state {
	c := &state{
		runs:         make(map[string]entity.ProductionRun, len(s.runs)),
		movements:    append([]entity.Movement(nil), s.movements...),
		allocations:  append([]entity.Allocation(nil), s.allocations...),
		sales:        make(map[string]entity.Sale, len(s.sales)),
		returns:      make(map[string]entity.DistributorReturn, len(s.returns)),
		labels:       s.labels,
		releases:     s.releases,
		distributors: s.distributors,
	}
	for k, v := range s.runs {
		c.runs[k] = v
	}
	for k, v := range s.sales {
		v.LineItems = append([]entity.SaleLineItem(nil), v.LineItems...)
		c.sales[k] = v
	}
	for k, v := range s.returns {
		v.LineItems = append([]entity.ReturnLineItem(nil), v.LineItems...)
		c.returns[k] = v
	}
	return c
}

func (s *state) repositories() inventory.Repositories {
	return inventory.Repositories{
		ProductionRuns: &ProductionRunRepo{st: s},
		Movements:      &MovementRepo{st: s},
		Allocations:    &AllocationRepo{st: s},
		Sales:          &SaleRepo{st: s},
		Returns:        &ReturnRepo{st: s},
		Catalog:        &CatalogRepo{st: s},
	}
}

// Store almacén en memoria. El catálogo se carga con AddLabel/AddRelease/AddDistributor.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Run ejecuta fn con repos sobre una copia del estado; si fn falla la copia se descarta.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(work.repositories()); err != nil {
		return err
	}
	s.st = work
	return nil
}

// AddLabel registra un sello en el catálogo.
func (s *Store) AddLabel(l entity.Label) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.labels = copyMap(s.st.labels)
	s.st.labels[l.ID] = l
}

// AddRelease registra un lanzamiento en el catálogo.
func (s *Store) AddRelease(r entity.Release) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.releases = copyMap(s.st.releases)
	s.st.releases[r.ID] = r
}

// AddDistributor registra un distribuidor en el catálogo.
func (s *Store) AddDistributor(d entity.Distributor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.distributors = copyMap(s.st.distributors)
	s.st.distributors[d.ID] = d
}

// copyMap el catálogo se comparte entre copias del estado; se copia antes de escribir.
func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
