package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"

	"example.com/storefront/internal/model"
)

type GormStore struct{ db *gorm.DB }

func OpenGorm(driver, dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlserver":
		dialector = sqlserver.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	return NewGorm(db)
}

// NewGorm migrates the schema on an already opened connection.
func NewGorm(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(
		&model.Product{},
		&model.User{},
		&model.Order{},
		&model.OrderLine{},
	); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// --- products ---

func (s *GormStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	var ps []model.Product
	err := s.db.WithContext(ctx).Order("created_at asc").Find(&ps).Error
	return ps, err
}

func (s *GormStore) GetProduct(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return p, translate(err)
}

func (s *GormStore) ProductsByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	var ps []model.Product
	if len(ids) == 0 {
		return ps, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&ps).Error
	return ps, err
}

func (s *GormStore) CreateProduct(ctx context.Context, p *model.Product) error {
	return translate(s.db.WithContext(ctx).Create(p).Error)
}

func (s *GormStore) UpdateProduct(ctx context.Context, p *model.Product) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.Product
		if err := tx.Select("id", "created_at").First(&existing, "id = ?", p.ID).Error; err != nil {
			return translate(err)
		}
		p.CreatedAt = existing.CreatedAt
		return tx.Save(p).Error
	})
}

func (s *GormStore) DeleteProduct(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		return tx.Delete(&model.Product{}, "id = ?", id).Error
	})
	return p, err
}

// --- orders ---

// CreateOrder inserts the order and its lines in one transaction.
func (s *GormStore) CreateOrder(ctx context.Context, o *model.Order) error {
	return translate(s.db.WithContext(ctx).Create(o).Error)
}

func (s *GormStore) ListOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

// --- users ---

func (s *GormStore) CreateUser(ctx context.Context, u *model.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) UserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	return u, translate(err)
}

func (s *GormStore) UserByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	return u, translate(err)
}

func (s *GormStore) ListUsers(ctx context.Context) ([]model.User, error) {
	var us []model.User
	err := s.db.WithContext(ctx).Order("created_at asc").Find(&us).Error
	return us, err
}

func (s *GormStore) UpdateUser(ctx context.Context, u *model.User) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{"user_name": u.UserName, "email": u.Email})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteUser(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&model.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
