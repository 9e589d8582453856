// Package checkout turns the client cart and a customer contact form into a
// single order request.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"example.com/storefront/internal/cart"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrIncompleteCustomer = errors.New("please fill all customer fields")
	ErrSubmitting         = errors.New("an order is already being placed")
)

type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (c Customer) complete() bool {
	for _, f := range []string{c.Name, c.Email, c.Phone, c.Address} {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// Item is one order line as sent to the backend. PriceAtPurchase is the
// effective unit price, not multiplied by Quantity.
type Item struct {
	ProductID       string  `json:"productId"`
	Quantity        int     `json:"quantity"`
	Size            int     `json:"size"`
	PriceAtPurchase float64 `json:"priceAtPurchase"`
}

type Payload struct {
	Customer Customer `json:"customer"`
	Items    []Item   `json:"items"`
	Total    float64  `json:"total"`
}

// Submitter delivers an order payload to the backend.
type Submitter interface {
	PlaceOrder(ctx context.Context, p Payload) error
}

type Checkout struct {
	cart *cart.Cart
	sub  Submitter
	log  *zap.Logger

	mu         sync.Mutex
	customer   Customer
	submitting bool
}

func New(c *cart.Cart, sub Submitter, log *zap.Logger) *Checkout {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checkout{cart: c, sub: sub, log: log}
}

func (co *Checkout) SetCustomer(c Customer) {
	co.mu.Lock()
	co.customer = c
	co.mu.Unlock()
}

func (co *Checkout) Customer() Customer {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.customer
}

// Submitting reports whether a request is in flight.
func (co *Checkout) Submitting() bool {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.submitting
}

// BuildPayload prices every cart line at its current effective unit price.
func BuildPayload(customer Customer, items []cart.LineItem) Payload {
	p := Payload{Customer: customer, Items: make([]Item, 0, len(items))}
	for _, it := range items {
		p.Items = append(p.Items, Item{
			ProductID:       it.Product.ID,
			Quantity:        it.Quantity,
			Size:            it.Size,
			PriceAtPurchase: it.UnitPrice(),
		})
	}
	p.Total = cart.TotalPrice(items)
	return p
}

// Summary is the payload PlaceOrder would send right now.
func (co *Checkout) Summary() Payload {
	return BuildPayload(co.Customer(), co.cart.Items())
}

// PlaceOrder validates locally, then sends exactly one request. On success the
// cart and the form are cleared; on failure both are left as they were.
func (co *Checkout) PlaceOrder(ctx context.Context) (Payload, error) {
	co.mu.Lock()
	if co.submitting {
		co.mu.Unlock()
		return Payload{}, ErrSubmitting
	}
	items := co.cart.Items()
	if len(items) == 0 {
		co.mu.Unlock()
		return Payload{}, ErrEmptyCart
	}
	if !co.customer.complete() {
		co.mu.Unlock()
		return Payload{}, ErrIncompleteCustomer
	}
	payload := BuildPayload(co.customer, items)
	co.submitting = true
	co.mu.Unlock()

	defer func() {
		co.mu.Lock()
		co.submitting = false
		co.mu.Unlock()
	}()

	if err := co.sub.PlaceOrder(ctx, payload); err != nil {
		co.log.Info("order failed", zap.Error(err))
		return Payload{}, fmt.Errorf("place order: %w", err)
	}

	if err := co.cart.Clear(); err != nil {
		co.log.Warn("order placed but cart could not be saved", zap.Error(err))
	}
	co.mu.Lock()
	co.customer = Customer{}
	co.mu.Unlock()

	co.log.Info("order placed", zap.Int("items", len(payload.Items)), zap.Float64("total", payload.Total))
	return payload, nil
}
