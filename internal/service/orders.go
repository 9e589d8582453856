package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/storefront/internal/model"
	"example.com/storefront/internal/store"
)

type OrderCustomer struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

type OrderLineInput struct {
	ProductID       string
	Quantity        int
	Size            int
	PriceAtPurchase float64
}

// PlaceOrderInput mirrors the checkout request. Total is nil when the client
// sent no numeric total.
type PlaceOrderInput struct {
	Customer OrderCustomer
	Items    []OrderLineInput
	Total    *float64
}

func (in PlaceOrderInput) validate() error {
	c := in.Customer
	for _, f := range []string{c.Name, c.Email, c.Phone, c.Address} {
		if strings.TrimSpace(f) == "" {
			return ErrMissingCustomer
		}
	}
	if len(in.Items) == 0 {
		return ErrEmptyOrder
	}
	if in.Total == nil {
		return ErrInvalidTotal
	}
	for i, it := range in.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return fmt.Errorf("%w: item %d has no productId", ErrInvalidLine, i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrInvalidLine, i)
		}
		if it.PriceAtPurchase < 0 {
			return fmt.Errorf("%w: item %d price must not be negative", ErrInvalidLine, i)
		}
	}
	return nil
}

const mailTimeout = 30 * time.Second

type OrderService interface {
	Place(ctx context.Context, in PlaceOrderInput) (model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
}

type orderService struct {
	orders   store.Orders
	products store.Products
	email    EmailService
	log      *zap.Logger
	now      func() time.Time
}

func NewOrderService(orders store.Orders, products store.Products, email EmailService, log *zap.Logger) OrderService {
	return &orderService{orders: orders, products: products, email: email, log: log, now: time.Now}
}

// Place records the order exactly as submitted: prices are the client's
// priceAtPurchase snapshot and stock is neither checked nor decremented.
func (s *orderService) Place(ctx context.Context, in PlaceOrderInput) (model.Order, error) {
	if err := in.validate(); err != nil {
		return model.Order{}, err
	}

	now := s.now()
	order := model.Order{
		ID: uuid.NewString(),
		Customer: model.Customer{
			FullName: strings.TrimSpace(in.Customer.Name),
			Email:    strings.TrimSpace(in.Customer.Email),
			Phone:    strings.TrimSpace(in.Customer.Phone),
			Address:  strings.TrimSpace(in.Customer.Address),
		},
		Lines:       make([]model.OrderLine, 0, len(in.Items)),
		TotalAmount: *in.Total,
		Status:      model.OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, it := range in.Items {
		order.Lines = append(order.Lines, model.OrderLine{
			OrderID:         order.ID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			Size:            it.Size,
			PriceAtPurchase: it.PriceAtPurchase,
		})
	}

	if err := s.orders.CreateOrder(ctx, &order); err != nil {
		return model.Order{}, err
	}
	s.log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.Int("lines", len(order.Lines)),
		zap.Float64("total", order.TotalAmount))

	go s.confirm(context.WithoutCancel(ctx), order)
	return order, nil
}

// confirm mails the customer. It runs after the response has been decided and
// only logs failures.
func (s *orderService) confirm(ctx context.Context, order model.Order) {
	ctx, cancel := context.WithTimeout(ctx, mailTimeout)
	defer cancel()

	body := fmt.Sprintf("Thanks %s! Your order %s totalling %.2f has been received.",
		order.Customer.FullName, order.ID, order.TotalAmount)
	if err := s.email.Send(ctx, order.Customer.Email, "Order confirmation", body); err != nil {
		s.log.Warn("order confirmation mail failed", zap.String("order_id", order.ID), zap.Error(err))
	}
}

// List returns every order with each line's product resolved to its current
// name and price for display. Lines whose product is gone keep a nil Product.
func (s *orderService) List(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}

	var ids []string
	seen := map[string]bool{}
	for _, o := range orders {
		for _, l := range o.Lines {
			if !seen[l.ProductID] {
				seen[l.ProductID] = true
				ids = append(ids, l.ProductID)
			}
		}
	}
	products, err := s.products.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.ProductRef, len(products))
	for _, p := range products {
		byID[p.ID] = model.ProductRef{ID: p.ID, Name: p.Name, Price: p.Price}
	}

	for i := range orders {
		for j := range orders[i].Lines {
			line := &orders[i].Lines[j]
			if ref, ok := byID[line.ProductID]; ok {
				line.Product = &ref
			}
		}
	}
	return orders, nil
}
