package model

import "time"

// Product is a sellable catalog item. Stock maps a size to its remaining count
// and is advisory only; nothing reserves or decrements it.
type Product struct {
	ID          string      `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	Name        string      `gorm:"not null" json:"name" bson:"name"`
	Brand       string      `json:"brand" bson:"brand"`
	Price       float64     `gorm:"not null" json:"price" bson:"price"`
	Discount    int         `gorm:"not null;default:0" json:"discount" bson:"discount"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	Category    string      `gorm:"not null" json:"category" bson:"category"`
	Color       string      `json:"color,omitempty" bson:"color,omitempty"`
	Sizes       []int       `gorm:"serializer:json" json:"sizes" bson:"sizes"`
	Stock       map[int]int `gorm:"serializer:json" json:"stock" bson:"stock"`
	ImageURL    string      `json:"imageUrl" bson:"imageUrl"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// HasSize reports whether size is one of the product's sizes.
func (p Product) HasSize(size int) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// ProductRef is the display projection of a product joined onto order lines.
type ProductRef struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	UserName     string    `json:"userName" bson:"userName"`
	Email        string    `gorm:"uniqueIndex;size:320;not null" json:"email" bson:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-" bson:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (User) TableName() string { return "users" }

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Customer is the contact snapshot captured on an order.
type Customer struct {
	FullName string `json:"fullName" bson:"fullName"`
	Email    string `json:"email" bson:"email"`
	Phone    string `json:"phoneNumber" bson:"phoneNumber"`
	Address  string `json:"address" bson:"address"`
}

type Order struct {
	ID          string      `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	Customer    Customer    `gorm:"embedded;embeddedPrefix:customer_" json:"customerInfo" bson:"customerInfo"`
	Lines       []OrderLine `gorm:"foreignKey:OrderID" json:"products" bson:"products"`
	TotalAmount float64     `gorm:"not null" json:"totalAmount" bson:"totalAmount"`
	Status      OrderStatus `gorm:"size:16;not null;default:pending" json:"status" bson:"status"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// OrderLine carries the unit price captured when the order was placed.
// PriceAtPurchase is never recomputed from the live product.
type OrderLine struct {
	ID              uint        `gorm:"primaryKey" json:"-" bson:"-"`
	OrderID         string      `gorm:"index;size:36" json:"-" bson:"-"`
	ProductID       string      `gorm:"size:36;not null" json:"productId" bson:"productId"`
	Quantity        int         `gorm:"not null" json:"quantity" bson:"quantity"`
	Size            int         `json:"size" bson:"size"`
	PriceAtPurchase float64     `gorm:"not null" json:"priceAtPurchase" bson:"priceAtPurchase"`
	Product         *ProductRef `gorm:"-" json:"product" bson:"-"`
}
