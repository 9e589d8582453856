package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"example.com/storefront/internal/service"
)

type ProductHTTP struct {
	S   service.CatalogService
	Log *zap.Logger
}

func NewProductHTTP(s service.CatalogService, log *zap.Logger) *ProductHTTP {
	return &ProductHTTP{S: s, Log: log}
}

// productForm is the multipart shape: sizes and stock arrive as JSON text.
type productForm struct {
	Name        string  `form:"name"`
	Brand       string  `form:"brand"`
	Price       float64 `form:"price"`
	Discount    int     `form:"discount"`
	Description string  `form:"description"`
	Category    string  `form:"category"`
	Color       string  `form:"color"`
	Sizes       string  `form:"sizes"`
	Stock       string  `form:"stock"`
}

func (f productForm) input() (service.ProductInput, error) {
	in := service.ProductInput{
		Name:        f.Name,
		Brand:       f.Brand,
		Price:       f.Price,
		Discount:    f.Discount,
		Description: f.Description,
		Category:    f.Category,
		Color:       f.Color,
	}
	if f.Sizes != "" {
		if err := json.Unmarshal([]byte(f.Sizes), &in.Sizes); err != nil {
			return in, fmt.Errorf("%w: sizes must be a JSON array of numbers", service.ErrInvalidProduct)
		}
	}
	if f.Stock != "" {
		if err := json.Unmarshal([]byte(f.Stock), &in.Stock); err != nil {
			return in, fmt.Errorf("%w: stock must be a JSON object of size to count", service.ErrInvalidProduct)
		}
	}
	return in, nil
}

// productJSON is accepted on PUT when the body is application/json.
type productJSON struct {
	Name        string      `json:"name"`
	Brand       string      `json:"brand"`
	Price       float64     `json:"price"`
	Discount    int         `json:"discount"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Color       string      `json:"color"`
	Sizes       []int       `json:"sizes"`
	Stock       map[int]int `json:"stock"`
}

func (h *ProductHTTP) bindInput(c *gin.Context) (service.ProductInput, *service.Image, func(), error) {
	noop := func() {}
	if c.ContentType() == binding.MIMEJSON {
		var in productJSON
		if err := c.ShouldBindJSON(&in); err != nil {
			return service.ProductInput{}, nil, noop, fmt.Errorf("%w: %v", service.ErrInvalidProduct, err)
		}
		return service.ProductInput(in), nil, noop, nil
	}

	var f productForm
	if err := c.ShouldBind(&f); err != nil {
		return service.ProductInput{}, nil, noop, fmt.Errorf("%w: %v", service.ErrInvalidProduct, err)
	}
	in, err := f.input()
	if err != nil {
		return in, nil, noop, err
	}

	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return in, nil, noop, nil
	}
	if err != nil {
		return in, nil, noop, fmt.Errorf("%w: %v", service.ErrInvalidProduct, err)
	}
	file, err := fh.Open()
	if err != nil {
		return in, nil, noop, err
	}
	return in, &service.Image{Filename: fh.Filename, Body: file}, func() { file.Close() }, nil
}

func (h *ProductHTTP) productError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		fail(c, http.StatusNotFound, "Product not found.")
	case errors.Is(err, service.ErrInvalidProduct), errors.Is(err, service.ErrImageRequired):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		serverError(c, h.Log, msg, err)
	}
}

func (h *ProductHTTP) List(c *gin.Context) {
	ps, err := h.S.List(c.Request.Context())
	if err != nil {
		serverError(c, h.Log, "Error fetching products", err)
		return
	}
	c.JSON(http.StatusOK, ps)
}

func (h *ProductHTTP) Get(c *gin.Context) {
	p, err := h.S.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.productError(c, "Error fetching product", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) Create(c *gin.Context) {
	in, img, done, err := h.bindInput(c)
	defer done()
	if err != nil {
		h.productError(c, "Failed to save product", err)
		return
	}
	p, err := h.S.Create(c.Request.Context(), in, img)
	if err != nil {
		h.productError(c, "Failed to save product", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product saved successfully!", "product": p})
}

func (h *ProductHTTP) Update(c *gin.Context) {
	in, img, done, err := h.bindInput(c)
	defer done()
	if err != nil {
		h.productError(c, "Failed to update product", err)
		return
	}
	p, err := h.S.Update(c.Request.Context(), c.Param("id"), in, img)
	if err != nil {
		h.productError(c, "Failed to update product", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully!", "updatedProduct": p})
}

func (h *ProductHTTP) Delete(c *gin.Context) {
	p, err := h.S.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.productError(c, "Failed to delete product", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully!", "deletedProduct": p})
}
