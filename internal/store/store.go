package store

import (
	"context"
	"errors"
	"fmt"

	"example.com/storefront/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type Products interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (model.Product, error)
	ProductsByIDs(ctx context.Context, ids []string) ([]model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, id string) (model.Product, error)
}

// Orders is append-only: orders are inserted once and listed.
type Orders interface {
	CreateOrder(ctx context.Context, o *model.Order) error
	ListOrders(ctx context.Context) ([]model.Order, error)
}

type Users interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (model.User, error)
	UserByID(ctx context.Context, id string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	DeleteUser(ctx context.Context, id string) error
}

type Store interface {
	Products
	Orders
	Users
	Close(ctx context.Context) error
}

type Options struct {
	Driver   string // postgres | sqlserver | mongo | memory
	DSN      string
	MongoURI string
	MongoDB  string
}

// Open connects the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", "postgres", "sqlserver":
		driver := opts.Driver
		if driver == "" {
			driver = "postgres"
		}
		s, err := OpenGorm(driver, opts.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "mongo":
		s, err := OpenMongo(ctx, opts.MongoURI, opts.MongoDB)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
