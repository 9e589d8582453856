package store

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"example.com/storefront/internal/model"
)

// Memory is a process-local Store used for development and tests.
type Memory struct {
	mu       sync.RWMutex
	products map[string]model.Product
	orders   []model.Order
	users    map[string]model.User
	nextLine uint
}

func NewMemory() *Memory {
	return &Memory{
		products: make(map[string]model.Product),
		users:    make(map[string]model.User),
	}
}

func (m *Memory) Close(context.Context) error { return nil }

func cloneProduct(p model.Product) model.Product {
	p.Sizes = slices.Clone(p.Sizes)
	p.Stock = maps.Clone(p.Stock)
	return p
}

func cloneOrder(o model.Order) model.Order {
	o.Lines = slices.Clone(o.Lines)
	return o
}

func (m *Memory) ListProducts(context.Context) ([]model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) GetProduct(_ context.Context, id string) (model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return model.Product{}, ErrNotFound
	}
	return cloneProduct(p), nil
}

func (m *Memory) ProductsByIDs(_ context.Context, ids []string) ([]model.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (m *Memory) CreateProduct(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[p.ID]; ok {
		return ErrDuplicate
	}
	m.products[p.ID] = cloneProduct(*p)
	return nil
}

func (m *Memory) UpdateProduct(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	m.products[p.ID] = cloneProduct(*p)
	return nil
}

func (m *Memory) DeleteProduct(_ context.Context, id string) (model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return model.Product{}, ErrNotFound
	}
	delete(m.products, id)
	return p, nil
}

func (m *Memory) CreateOrder(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range o.Lines {
		m.nextLine++
		o.Lines[i].ID = m.nextLine
		o.Lines[i].OrderID = o.ID
	}
	m.orders = append(m.orders, cloneOrder(*o))
	return nil
}

// ListOrders returns newest first.
func (m *Memory) ListOrders(context.Context) ([]model.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Order, 0, len(m.orders))
	for i := len(m.orders) - 1; i >= 0; i-- {
		out = append(out, cloneOrder(m.orders[i]))
	}
	return out, nil
}

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

func (m *Memory) UserByID(_ context.Context, id string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) ListUsers(context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	for id, other := range m.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return ErrDuplicate
		}
	}
	existing.UserName = u.UserName
	existing.Email = u.Email
	existing.UpdatedAt = u.UpdatedAt
	m.users[u.ID] = existing
	*u = existing
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}
