package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"example.com/backstage/services/picking/internal/models"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
)

// memoryState is an arena of entities addressed by ID. Records are stored
// by value so callers never share memory with the store.
type memoryState struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	warehouses map[uuid.UUID]models.Warehouse
	users      map[uuid.UUID]models.User
	locations  map[uuid.UUID]models.Location
	products   map[uuid.UUID]models.Product
	pickLists  map[uuid.UUID]models.PickList
	picks      map[uuid.UUID]models.Pick
	carriers   map[uuid.UUID]models.Carrier
}

func (s *memoryState) clone() *memoryState {
	return &memoryState{
		warehouses: cloneMap(s.warehouses),
		users:      cloneMap(s.users),
		locations:  cloneMap(s.locations),
		products:   cloneMap(s.products),
		pickLists:  cloneMap(s.pickLists),
		picks:      cloneMap(s.picks),
		carriers:   cloneMap(s.carriers),
	}
}

func (s *memoryState) restore(from *memoryState) {
	s.warehouses = from.warehouses
	s.users = from.users
	s.locations = from.locations
	s.products = from.products
	s.pickLists = from.pickLists
	s.picks = from.picks
	s.carriers = from.carriers
}

func cloneMap[V any](m map[uuid.UUID]V) map[uuid.UUID]V {
	out := make(map[uuid.UUID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MemoryRepository is an in-process Repository used for tests and
// ephemeral runs. Transactions are serialized and roll back on error.
type MemoryRepository struct {
	state *memoryState
	inTx  bool
	now   func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		state: &memoryState{
			warehouses: make(map[uuid.UUID]models.Warehouse),
			users:      make(map[uuid.UUID]models.User),
			locations:  make(map[uuid.UUID]models.Location),
			products:   make(map[uuid.UUID]models.Product),
			pickLists:  make(map[uuid.UUID]models.PickList),
			picks:      make(map[uuid.UUID]models.Pick),
			carriers:   make(map[uuid.UUID]models.Carrier),
		},
		now: time.Now,
	}
}

// WithTransaction runs fn against a private copy of the store. The copy
// replaces the shared state only when fn succeeds, so readers outside the
// transaction never see its writes before commit.
func (r *MemoryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}

	r.state.txMu.Lock()
	defer r.state.txMu.Unlock()

	r.state.mu.RLock()
	working := r.state.clone()
	r.state.mu.RUnlock()

	tx := &MemoryRepository{state: working, inTx: true, now: r.now}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	r.state.mu.Lock()
	r.state.restore(working)
	r.state.mu.Unlock()
	return nil
}

// write runs fn under the write lock. Outside a transaction it also waits for
// running transactions so their commit cannot discard this write.
func (r *MemoryRepository) write(fn func(s *memoryState) error) error {
	if !r.inTx {
		r.state.txMu.Lock()
		defer r.state.txMu.Unlock()
	}
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	return fn(r.state)
}

func (r *MemoryRepository) read(fn func(s *memoryState)) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	fn(r.state)
}

func (r *MemoryRepository) stamp(b *models.Base, create bool) {
	now := r.now()
	if create {
		b.EnsureID()
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
	}
	b.UpdatedAt = now
}

func notFound(kind string) error {
	return pkgerrors.Wrapf(ErrNotFound, "%s", kind)
}

func duplicate(kind string) error {
	return pkgerrors.Wrapf(ErrDuplicateKey, "%s", kind)
}

func sortByCreated[T any](items []*T, base func(*T) models.Base) {
	sort.Slice(items, func(i, j int) bool {
		a, b := base(items[i]), base(items[j])
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID.String() < b.ID.String()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

func collect[T any](m map[uuid.UUID]T, keep func(T) bool, base func(*T) models.Base) []*T {
	out := make([]*T, 0)
	for _, v := range m {
		if keep(v) {
			v := v
			out = append(out, &v)
		}
	}
	sortByCreated(out, base)
	return out
}

// Warehouses

func (r *MemoryRepository) CreateWarehouse(_ context.Context, warehouse *models.Warehouse) error {
	return r.write(func(s *memoryState) error {
		r.stamp(&warehouse.Base, true)
		if _, ok := s.warehouses[warehouse.ID]; ok {
			return duplicate("warehouse")
		}
		s.warehouses[warehouse.ID] = *warehouse
		return nil
	})
}

func (r *MemoryRepository) FindWarehouseByID(_ context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var (
		w  models.Warehouse
		ok bool
	)
	r.read(func(s *memoryState) { w, ok = s.warehouses[id] })
	if !ok {
		return nil, notFound("warehouse")
	}
	return &w, nil
}

func (r *MemoryRepository) ListWarehouses(_ context.Context) ([]*models.Warehouse, error) {
	var out []*models.Warehouse
	r.read(func(s *memoryState) {
		out = collect(s.warehouses,
			func(models.Warehouse) bool { return true },
			func(w *models.Warehouse) models.Base { return w.Base })
	})
	return out, nil
}

func (r *MemoryRepository) DeleteWarehouse(_ context.Context, id uuid.UUID) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.warehouses[id]; !ok {
			return notFound("warehouse")
		}
		delete(s.warehouses, id)
		return nil
	})
}

func (r *MemoryRepository) DetachWarehouse(_ context.Context, id uuid.UUID) error {
	return r.write(func(s *memoryState) error {
		for k, v := range s.users {
			if models.SameID(v.WarehouseID, id) {
				v.WarehouseID = nil
				s.users[k] = v
			}
		}
		for k, v := range s.locations {
			if models.SameID(v.WarehouseID, id) {
				v.WarehouseID = nil
				s.locations[k] = v
			}
		}
		for k, v := range s.products {
			if models.SameID(v.WarehouseID, id) {
				v.WarehouseID = nil
				s.products[k] = v
			}
		}
		for k, v := range s.pickLists {
			if models.SameID(v.WarehouseID, id) {
				v.WarehouseID = nil
				s.pickLists[k] = v
			}
		}
		return nil
	})
}

func (r *MemoryRepository) CountWarehouseReferences(_ context.Context, id uuid.UUID) (int64, error) {
	var n int64
	r.read(func(s *memoryState) {
		for _, v := range s.users {
			if models.SameID(v.WarehouseID, id) {
				n++
			}
		}
		for _, v := range s.locations {
			if models.SameID(v.WarehouseID, id) {
				n++
			}
		}
		for _, v := range s.products {
			if models.SameID(v.WarehouseID, id) {
				n++
			}
		}
		for _, v := range s.pickLists {
			if models.SameID(v.WarehouseID, id) {
				n++
			}
		}
	})
	return n, nil
}

// Users

func (r *MemoryRepository) CreateUser(_ context.Context, user *models.User) error {
	return r.write(func(s *memoryState) error {
		for _, u := range s.users {
			if u.Email == user.Email {
				return duplicate("user")
			}
		}
		r.stamp(&user.Base, true)
		s.users[user.ID] = *user
		return nil
	})
}

func (r *MemoryRepository) UpdateUser(_ context.Context, user *models.User) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.users[user.ID]; !ok {
			return notFound("user")
		}
		r.stamp(&user.Base, false)
		s.users[user.ID] = *user
		return nil
	})
}

func (r *MemoryRepository) FindUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	var (
		u  models.User
		ok bool
	)
	r.read(func(s *memoryState) { u, ok = s.users[id] })
	if !ok {
		return nil, notFound("user")
	}
	return &u, nil
}

func (r *MemoryRepository) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	var found *models.User
	r.read(func(s *memoryState) {
		for _, u := range s.users {
			if u.Email == email {
				u := u
				found = &u
				return
			}
		}
	})
	if found == nil {
		return nil, notFound("user")
	}
	return found, nil
}

func (r *MemoryRepository) ListUsersByWarehouse(_ context.Context, warehouseID uuid.UUID) ([]*models.User, error) {
	var out []*models.User
	r.read(func(s *memoryState) {
		out = collect(s.users,
			func(u models.User) bool { return models.SameID(u.WarehouseID, warehouseID) },
			func(u *models.User) models.Base { return u.Base })
	})
	return out, nil
}

// Locations

func (r *MemoryRepository) CreateLocation(_ context.Context, location *models.Location) error {
	return r.write(func(s *memoryState) error {
		for _, l := range s.locations {
			if l.Code == location.Code && sameRef(l.WarehouseID, location.WarehouseID) {
				return duplicate("location")
			}
		}
		r.stamp(&location.Base, true)
		s.locations[location.ID] = *location
		return nil
	})
}

func (r *MemoryRepository) FindLocationByID(_ context.Context, id uuid.UUID) (*models.Location, error) {
	var (
		l  models.Location
		ok bool
	)
	r.read(func(s *memoryState) { l, ok = s.locations[id] })
	if !ok {
		return nil, notFound("location")
	}
	return &l, nil
}

func (r *MemoryRepository) FindLocationByCode(_ context.Context, warehouseID uuid.UUID, code string) (*models.Location, error) {
	var found *models.Location
	r.read(func(s *memoryState) {
		for _, l := range s.locations {
			if l.Code == code && models.SameID(l.WarehouseID, warehouseID) {
				l := l
				found = &l
				return
			}
		}
	})
	if found == nil {
		return nil, notFound("location")
	}
	return found, nil
}

func (r *MemoryRepository) ListLocationsByWarehouse(_ context.Context, warehouseID uuid.UUID) ([]*models.Location, error) {
	var out []*models.Location
	r.read(func(s *memoryState) {
		out = collect(s.locations,
			func(l models.Location) bool { return models.SameID(l.WarehouseID, warehouseID) },
			func(l *models.Location) models.Base { return l.Base })
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *MemoryRepository) DeleteLocation(_ context.Context, id uuid.UUID) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.locations[id]; !ok {
			return notFound("location")
		}
		delete(s.locations, id)
		return nil
	})
}

// Products

func (r *MemoryRepository) CreateProduct(_ context.Context, product *models.Product) error {
	return r.write(func(s *memoryState) error {
		r.stamp(&product.Base, true)
		if _, ok := s.products[product.ID]; ok {
			return duplicate("product")
		}
		s.products[product.ID] = *product
		return nil
	})
}

func (r *MemoryRepository) UpdateProduct(_ context.Context, product *models.Product) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.products[product.ID]; !ok {
			return notFound("product")
		}
		r.stamp(&product.Base, false)
		s.products[product.ID] = *product
		return nil
	})
}

func (r *MemoryRepository) FindProductByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	var (
		p  models.Product
		ok bool
	)
	r.read(func(s *memoryState) { p, ok = s.products[id] })
	if !ok {
		return nil, notFound("product")
	}
	return &p, nil
}

func (r *MemoryRepository) FindProductByName(_ context.Context, warehouseID uuid.UUID, name string) (*models.Product, error) {
	var found *models.Product
	r.read(func(s *memoryState) {
		for _, p := range s.products {
			if p.Name == name && models.SameID(p.WarehouseID, warehouseID) && !p.IsInactive() {
				p := p
				found = &p
				return
			}
		}
	})
	if found == nil {
		return nil, notFound("product")
	}
	return found, nil
}

func (r *MemoryRepository) listProducts(keep func(models.Product) bool) []*models.Product {
	var out []*models.Product
	r.read(func(s *memoryState) {
		out = collect(s.products, keep, func(p *models.Product) models.Base { return p.Base })
	})
	return out
}

func (r *MemoryRepository) ListProductsByWarehouse(_ context.Context, warehouseID uuid.UUID) ([]*models.Product, error) {
	return r.listProducts(func(p models.Product) bool {
		return models.SameID(p.WarehouseID, warehouseID) && !p.IsInactive()
	}), nil
}

func (r *MemoryRepository) ListProductsByLocation(_ context.Context, locationID uuid.UUID) ([]*models.Product, error) {
	return r.listProducts(func(p models.Product) bool {
		return models.SameID(p.LocationID, locationID)
	}), nil
}

func (r *MemoryRepository) ListAvailableProducts(_ context.Context, warehouseID uuid.UUID) ([]*models.Product, error) {
	return r.listProducts(func(p models.Product) bool {
		return models.SameID(p.WarehouseID, warehouseID) && p.IsAvailable()
	}), nil
}

// Pick lists

func (r *MemoryRepository) CreatePickList(_ context.Context, pickList *models.PickList) error {
	return r.write(func(s *memoryState) error {
		r.stamp(&pickList.Base, true)
		if _, ok := s.pickLists[pickList.ID]; ok {
			return duplicate("pick list")
		}
		for i := range pickList.Picks {
			pick := &pickList.Picks[i]
			r.stamp(&pick.Base, true)
			pick.PickListID = models.UUIDPtr(pickList.ID)
			s.picks[pick.ID] = *pick
		}
		stored := *pickList
		stored.Picks = nil
		s.pickLists[pickList.ID] = stored
		return nil
	})
}

func (r *MemoryRepository) UpdatePickList(_ context.Context, pickList *models.PickList) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.pickLists[pickList.ID]; !ok {
			return notFound("pick list")
		}
		r.stamp(&pickList.Base, false)
		stored := *pickList
		stored.Picks = nil
		s.pickLists[pickList.ID] = stored
		return nil
	})
}

// withPicks must be called under the read lock
func withPicks(s *memoryState, pl models.PickList) *models.PickList {
	picks := collect(s.picks,
		func(p models.Pick) bool { return models.SameID(p.PickListID, pl.ID) },
		func(p *models.Pick) models.Base { return p.Base })
	pl.Picks = make([]models.Pick, 0, len(picks))
	for _, p := range picks {
		pl.Picks = append(pl.Picks, *p)
	}
	return &pl
}

func (r *MemoryRepository) FindPickListByID(_ context.Context, id uuid.UUID) (*models.PickList, error) {
	var found *models.PickList
	r.read(func(s *memoryState) {
		if pl, ok := s.pickLists[id]; ok {
			found = withPicks(s, pl)
		}
	})
	if found == nil {
		return nil, notFound("pick list")
	}
	return found, nil
}

func (r *MemoryRepository) listPickLists(keep func(models.PickList) bool) []*models.PickList {
	var out []*models.PickList
	r.read(func(s *memoryState) {
		lists := collect(s.pickLists, keep, func(pl *models.PickList) models.Base { return pl.Base })
		out = make([]*models.PickList, 0, len(lists))
		for _, pl := range lists {
			out = append(out, withPicks(s, *pl))
		}
	})
	return out
}

func (r *MemoryRepository) ListPickListsByWarehouse(_ context.Context, warehouseID uuid.UUID) ([]*models.PickList, error) {
	return r.listPickLists(func(pl models.PickList) bool { return models.SameID(pl.WarehouseID, warehouseID) }), nil
}

func (r *MemoryRepository) ListPickListsByLocation(_ context.Context, locationID uuid.UUID) ([]*models.PickList, error) {
	return r.listPickLists(func(pl models.PickList) bool { return models.SameID(pl.LocationID, locationID) }), nil
}

func (r *MemoryRepository) ListPickListsByCarrier(_ context.Context, carrierID uuid.UUID) ([]*models.PickList, error) {
	return r.listPickLists(func(pl models.PickList) bool { return models.SameID(pl.CarrierID, carrierID) }), nil
}

func (r *MemoryRepository) DeletePickList(_ context.Context, id uuid.UUID) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.pickLists[id]; !ok {
			return notFound("pick list")
		}
		delete(s.pickLists, id)
		return nil
	})
}

func (r *MemoryRepository) UpdatePick(_ context.Context, pick *models.Pick) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.picks[pick.ID]; !ok {
			return notFound("pick")
		}
		r.stamp(&pick.Base, false)
		s.picks[pick.ID] = *pick
		return nil
	})
}

func (r *MemoryRepository) FindPickByID(_ context.Context, id uuid.UUID) (*models.Pick, error) {
	var (
		p  models.Pick
		ok bool
	)
	r.read(func(s *memoryState) { p, ok = s.picks[id] })
	if !ok {
		return nil, notFound("pick")
	}
	return &p, nil
}

func (r *MemoryRepository) ListPicksByPickList(_ context.Context, pickListID uuid.UUID) ([]*models.Pick, error) {
	var out []*models.Pick
	r.read(func(s *memoryState) {
		out = collect(s.picks,
			func(p models.Pick) bool { return models.SameID(p.PickListID, pickListID) },
			func(p *models.Pick) models.Base { return p.Base })
	})
	return out, nil
}

func (r *MemoryRepository) DetachPicks(_ context.Context, pickListID uuid.UUID) error {
	return r.write(func(s *memoryState) error {
		for k, p := range s.picks {
			if models.SameID(p.PickListID, pickListID) {
				p.PickListID = nil
				s.picks[k] = p
			}
		}
		return nil
	})
}

// Carriers

func (r *MemoryRepository) CreateCarrier(_ context.Context, carrier *models.Carrier) error {
	return r.write(func(s *memoryState) error {
		for _, c := range s.carriers {
			if c.Identifier == carrier.Identifier {
				return duplicate("carrier")
			}
		}
		r.stamp(&carrier.Base, true)
		s.carriers[carrier.ID] = *carrier
		return nil
	})
}

func (r *MemoryRepository) FindCarrierByID(_ context.Context, id uuid.UUID) (*models.Carrier, error) {
	var (
		c  models.Carrier
		ok bool
	)
	r.read(func(s *memoryState) { c, ok = s.carriers[id] })
	if !ok {
		return nil, notFound("carrier")
	}
	return &c, nil
}

func (r *MemoryRepository) FindCarrierByIdentifier(_ context.Context, identifier int) (*models.Carrier, error) {
	var found *models.Carrier
	r.read(func(s *memoryState) {
		for _, c := range s.carriers {
			if c.Identifier == identifier {
				c := c
				found = &c
				return
			}
		}
	})
	if found == nil {
		return nil, notFound("carrier")
	}
	return found, nil
}

func (r *MemoryRepository) ListCarriers(_ context.Context) ([]*models.Carrier, error) {
	var out []*models.Carrier
	r.read(func(s *memoryState) {
		out = collect(s.carriers,
			func(models.Carrier) bool { return true },
			func(c *models.Carrier) models.Base { return c.Base })
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out, nil
}

func (r *MemoryRepository) DeleteCarrier(_ context.Context, id uuid.UUID) error {
	return r.write(func(s *memoryState) error {
		if _, ok := s.carriers[id]; !ok {
			return notFound("carrier")
		}
		delete(s.carriers, id)
		return nil
	})
}

func sameRef(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
