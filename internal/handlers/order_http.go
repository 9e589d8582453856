package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"example.com/storefront/internal/service"
)

type OrderHTTP struct {
	S   service.OrderService
	Log *zap.Logger
}

func NewOrderHTTP(s service.OrderService, log *zap.Logger) *OrderHTTP {
	return &OrderHTTP{S: s, Log: log}
}

type orderReq struct {
	Customer struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	} `json:"customer"`
	Items []struct {
		ProductID       string  `json:"productId"`
		Quantity        int     `json:"quantity"`
		Size            int     `json:"size"`
		PriceAtPurchase float64 `json:"priceAtPurchase"`
	} `json:"items"`
	// Total stays raw so a string or null can be told apart from a number.
	Total json.RawMessage `json:"total"`
}

func numeric(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return &f
}

func (req orderReq) input() service.PlaceOrderInput {
	in := service.PlaceOrderInput{
		Customer: service.OrderCustomer{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
		},
		Total: numeric(req.Total),
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, service.OrderLineInput{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			Size:            it.Size,
			PriceAtPurchase: it.PriceAtPurchase,
		})
	}
	return in
}

func (h *OrderHTTP) Place(c *gin.Context) {
	var req orderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	_, err := h.S.Place(c.Request.Context(), req.input())
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully!"})
	case errors.Is(err, service.ErrMissingCustomer):
		fail(c, http.StatusBadRequest, "Missing customer information")
	case errors.Is(err, service.ErrEmptyOrder):
		fail(c, http.StatusBadRequest, "Cart is empty")
	case errors.Is(err, service.ErrInvalidTotal):
		fail(c, http.StatusBadRequest, "Invalid total price")
	case errors.Is(err, service.ErrInvalidLine):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		serverError(c, h.Log, "Server error", err)
	}
}

func (h *OrderHTTP) List(c *gin.Context) {
	orders, err := h.S.List(c.Request.Context())
	if err != nil {
		serverError(c, h.Log, "Failed to fetch orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
