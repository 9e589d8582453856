package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/storefront/internal/media"
	"example.com/storefront/internal/model"
	"example.com/storefront/internal/store"
)

// ProductInput is the typed form of an admin product submission.
type ProductInput struct {
	Name        string
	Brand       string
	Price       float64
	Discount    int
	Description string
	Category    string
	Color       string
	Sizes       []int
	Stock       map[int]int
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidProduct, fmt.Sprintf(format, args...))
}

func (in ProductInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name is required")
	}
	if strings.TrimSpace(in.Category) == "" {
		return invalid("category is required")
	}
	if in.Price < 0 {
		return invalid("price must not be negative")
	}
	if in.Discount < 0 || in.Discount > 100 {
		return invalid("discount must be between 0 and 100")
	}
	seen := make(map[int]bool, len(in.Sizes))
	for _, s := range in.Sizes {
		if s <= 0 {
			return invalid("size %d must be positive", s)
		}
		if seen[s] {
			return invalid("size %d listed twice", s)
		}
		seen[s] = true
	}
	for size, n := range in.Stock {
		if n < 0 {
			return invalid("stock for size %d must not be negative", size)
		}
	}
	return nil
}

// Image is an uploaded product picture.
type Image struct {
	Filename string
	Body     io.Reader
}

type CatalogService interface {
	List(ctx context.Context) ([]model.Product, error)
	Get(ctx context.Context, id string) (model.Product, error)
	Create(ctx context.Context, in ProductInput, img *Image) (model.Product, error)
	Update(ctx context.Context, id string, in ProductInput, img *Image) (model.Product, error)
	Delete(ctx context.Context, id string) (model.Product, error)
}

type catalogService struct {
	products store.Products
	images   media.ImageStore
	log      *zap.Logger
	now      func() time.Time
}

func NewCatalogService(products store.Products, images media.ImageStore, log *zap.Logger) CatalogService {
	return &catalogService{products: products, images: images, log: log, now: time.Now}
}

func (s *catalogService) List(ctx context.Context) ([]model.Product, error) {
	ps, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if ps == nil {
		ps = []model.Product{}
	}
	return ps, nil
}

func (s *catalogService) Get(ctx context.Context, id string) (model.Product, error) {
	p, err := s.products.GetProduct(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Product{}, ErrNotFound
	}
	return p, err
}

func (s *catalogService) saveImage(ctx context.Context, img *Image) (string, error) {
	url, err := s.images.Save(ctx, img.Filename, img.Body)
	if errors.Is(err, media.ErrUnsupportedImage) {
		return "", fmt.Errorf("%w: %v", ErrInvalidProduct, err)
	}
	return url, err
}

// warnOrphanStock logs stock keys that name no offered size. They are kept.
func (s *catalogService) warnOrphanStock(p model.Product) {
	for size := range p.Stock {
		if !slices.Contains(p.Sizes, size) {
			s.log.Warn("stock entry for size not offered", zap.String("product_id", p.ID), zap.Int("size", size))
		}
	}
}

func (in ProductInput) apply(p *model.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Brand = strings.TrimSpace(in.Brand)
	p.Price = in.Price
	p.Discount = in.Discount
	p.Description = in.Description
	p.Category = strings.TrimSpace(in.Category)
	p.Color = in.Color
	p.Sizes = slices.Clone(in.Sizes)
	if p.Sizes == nil {
		p.Sizes = []int{}
	}
	p.Stock = make(map[int]int, len(in.Stock))
	for k, v := range in.Stock {
		p.Stock[k] = v
	}
}

func (s *catalogService) Create(ctx context.Context, in ProductInput, img *Image) (model.Product, error) {
	if err := in.Validate(); err != nil {
		return model.Product{}, err
	}
	if img == nil {
		return model.Product{}, ErrImageRequired
	}
	url, err := s.saveImage(ctx, img)
	if err != nil {
		return model.Product{}, err
	}

	now := s.now()
	p := model.Product{ID: uuid.NewString(), ImageURL: url, CreatedAt: now, UpdatedAt: now}
	in.apply(&p)
	s.warnOrphanStock(p)

	if err := s.products.CreateProduct(ctx, &p); err != nil {
		return model.Product{}, err
	}
	s.log.Info("product created", zap.String("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// Update replaces every mutable field. The image is only replaced when a new
// one is uploaded.
func (s *catalogService) Update(ctx context.Context, id string, in ProductInput, img *Image) (model.Product, error) {
	if err := in.Validate(); err != nil {
		return model.Product{}, err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return model.Product{}, err
	}

	p := model.Product{ID: id, ImageURL: existing.ImageURL, CreatedAt: existing.CreatedAt, UpdatedAt: s.now()}
	in.apply(&p)
	if img != nil {
		if p.ImageURL, err = s.saveImage(ctx, img); err != nil {
			return model.Product{}, err
		}
	}
	s.warnOrphanStock(p)

	if err := s.products.UpdateProduct(ctx, &p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Product{}, ErrNotFound
		}
		return model.Product{}, err
	}
	s.log.Info("product updated", zap.String("product_id", p.ID))
	return p, nil
}

func (s *catalogService) Delete(ctx context.Context, id string) (model.Product, error) {
	p, err := s.products.DeleteProduct(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Product{}, ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	s.log.Info("product deleted", zap.String("product_id", id))
	return p, nil
}
