// Package cart holds the shopper's in-progress order on the client side.
//
// A Cart is an explicit handle: callers construct one over a durable slot and
// pass it to whatever needs it. Every mutation rewrites the whole collection
// into the slot and then notifies subscribers.
package cart

import (
	"encoding/json"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"example.com/storefront/internal/kv"
	"example.com/storefront/internal/model"
	"example.com/storefront/internal/pricing"
)

// SlotKey is the slot entry the cart is persisted under.
const SlotKey = "cart"

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrUnknownSize     = errors.New("size is not offered for this product")
	ErrNotInCart       = errors.New("item not in cart")
)

// LineItem is keyed by (product id, size). Product is the snapshot taken when
// the item was added.
type LineItem struct {
	Product  model.Product `json:"product"`
	Quantity int           `json:"quantity"`
	Size     int           `json:"size"`
}

func (l LineItem) UnitPrice() float64 {
	return pricing.EffectiveUnitPrice(l.Product.Price, l.Product.Discount)
}

func (l LineItem) LineTotal() float64 {
	return pricing.LineTotal(l.Product.Price, l.Product.Discount, l.Quantity)
}

func (l LineItem) matches(productID string, size int) bool {
	return l.Product.ID == productID && l.Size == size
}

type Cart struct {
	mu    sync.Mutex
	slot  kv.Slot
	log   *zap.Logger
	items []LineItem

	subMu  sync.Mutex
	subs   map[int]func([]LineItem)
	nextID int
}

type Option func(*Cart)

func WithLogger(l *zap.Logger) Option {
	return func(c *Cart) { c.log = l }
}

// New hydrates a cart from slot. A missing or unreadable entry starts an empty
// cart; it is never reported as an error.
func New(slot kv.Slot, opts ...Option) *Cart {
	c := &Cart{slot: slot, log: zap.NewNop(), subs: map[int]func([]LineItem){}}
	for _, o := range opts {
		o(c)
	}
	c.items = c.hydrate()
	return c
}

func (c *Cart) hydrate() []LineItem {
	raw, ok, err := c.slot.Get(SlotKey)
	if err != nil {
		c.log.Debug("cart slot unreadable, starting empty", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		c.log.Debug("cart snapshot corrupt, starting empty", zap.Error(err))
		return nil
	}
	return fold(items)
}

// fold drops non-positive lines and merges repeated (product, size) pairs
// into the first occurrence.
func fold(items []LineItem) []LineItem {
	var out []LineItem
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		i := slices.IndexFunc(out, func(o LineItem) bool { return o.matches(it.Product.ID, it.Size) })
		if i >= 0 {
			out[i].Quantity += it.Quantity
			continue
		}
		out = append(out, it)
	}
	return out
}

// Add merges quantity into the line for (product, size), creating it if needed.
// Stock is not consulted.
func (c *Cart) Add(product model.Product, quantity, size int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !product.HasSize(size) {
		return ErrUnknownSize
	}
	return c.mutate(func(items []LineItem) ([]LineItem, error) {
		for i := range items {
			if items[i].matches(product.ID, size) {
				items[i].Quantity += quantity
				return items, nil
			}
		}
		return append(items, LineItem{Product: product, Quantity: quantity, Size: size}), nil
	})
}

func (c *Cart) Increase(productID string, size int) error {
	return c.adjust(productID, size, 1)
}

// Decrease removes the line once its quantity reaches zero.
func (c *Cart) Decrease(productID string, size int) error {
	return c.adjust(productID, size, -1)
}

func (c *Cart) adjust(productID string, size, delta int) error {
	return c.mutate(func(items []LineItem) ([]LineItem, error) {
		i := slices.IndexFunc(items, func(it LineItem) bool { return it.matches(productID, size) })
		if i < 0 {
			return nil, ErrNotInCart
		}
		items[i].Quantity += delta
		return slices.DeleteFunc(items, func(it LineItem) bool { return it.Quantity <= 0 }), nil
	})
}

func (c *Cart) Remove(productID string, size int) error {
	return c.mutate(func(items []LineItem) ([]LineItem, error) {
		n := len(items)
		items = slices.DeleteFunc(items, func(it LineItem) bool { return it.matches(productID, size) })
		if len(items) == n {
			return nil, ErrNotInCart
		}
		return items, nil
	})
}

func (c *Cart) Clear() error {
	return c.mutate(func([]LineItem) ([]LineItem, error) { return nil, nil })
}

// Reset is Clear under the name the storefront's reset button uses.
func (c *Cart) Reset() error { return c.Clear() }

// mutate applies fn to a private copy and commits it. The in-memory state is
// kept even when the slot write fails; that error is returned to the caller.
func (c *Cart) mutate(fn func([]LineItem) ([]LineItem, error)) error {
	c.mu.Lock()
	next, err := fn(slices.Clone(c.items))
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.items = next
	snapshot := slices.Clone(next)
	writeErr := c.persist(snapshot)
	c.mu.Unlock()

	c.notify(snapshot)
	return writeErr
}

func (c *Cart) persist(items []LineItem) error {
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := c.slot.Set(SlotKey, data); err != nil {
		c.log.Warn("cart write failed", zap.Error(err))
		return err
	}
	return nil
}

// Items returns a copy of the current lines in insertion order.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// TotalCount is the sum of all quantities, derived on every call.
func (c *Cart) TotalCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) TotalPrice() float64 {
	return TotalPrice(c.Items())
}

// TotalPrice sums effective line totals of items.
func TotalPrice(items []LineItem) float64 {
	lines := make([]pricing.Line, len(items))
	for i, it := range items {
		lines[i] = pricing.Line{Price: it.Product.Price, Discount: it.Product.Discount, Quantity: it.Quantity}
	}
	return pricing.Total(lines)
}

// Subscribe registers fn to receive the new contents after every mutation.
// The returned func cancels the subscription.
func (c *Cart) Subscribe(fn func([]LineItem)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Cart) notify(items []LineItem) {
	c.subMu.Lock()
	fns := make([]func([]LineItem), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(slices.Clone(items))
	}
}
