package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"example.com/storefront/internal/app"
	"example.com/storefront/internal/cart"
	"example.com/storefront/internal/checkout"
	"example.com/storefront/internal/media"
	"example.com/storefront/internal/model"
	"example.com/storefront/internal/service"
	"example.com/storefront/internal/session"
	"example.com/storefront/internal/store"
)

type harness struct {
	t     *testing.T
	api   string
	state string
	mem   *store.Memory
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	images, err := media.NewDiskStore(filepath.Join(dir, "uploads"), "http://localhost/uploads")
	require.NoError(t, err)
	mem := store.NewMemory()
	r := app.NewRouter(app.Config{
		Env:        "test",
		JWTSecret:  "cli-test",
		JWTTTL:     time.Hour,
		AdminAuth:  true,
		ImageStore: "disk",
		ImageDir:   filepath.Join(dir, "uploads"),
		CORSOrigin: "*",
	}, app.Deps{Store: mem, Images: images, Email: service.NewEmailService(service.SMTPConfig{}), Log: zap.NewNop()})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	require.NoError(t, mem.CreateProduct(context.Background(), &model.Product{
		ID: "p1", Name: "Runner", Brand: "Acme", Price: 500, Discount: 10, Category: "Men", Sizes: []int{41, 42},
	}))
	return &harness{t: t, api: srv.URL, state: filepath.Join(dir, "state.json"), mem: mem}
}

func (h *harness) run(args ...string) (string, error) {
	var out bytes.Buffer
	full := append([]string{"--api", h.api, "--state", h.state}, args...)
	err := run(context.Background(), full, &out)
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func TestCLI_CartAndCheckout(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, h.mustRun("products"), "Runner")
	assert.Contains(t, h.mustRun("show"), "cart is empty")

	out := h.mustRun("add", "p1", "42", "2")
	assert.Contains(t, out, "cart has 2 item(s)")

	_, err := h.run("add", "p1", "39", "1")
	assert.ErrorIs(t, err, cart.ErrUnknownSize)

	out = h.mustRun("inc", "p1", "42")
	assert.Contains(t, out, "1350.00")
	out = h.mustRun("dec", "p1", "42")
	assert.Contains(t, out, "900.00")

	_, err = h.run("checkout", "--name", "Ada", "--email", "ada@example.com")
	assert.ErrorIs(t, err, checkout.ErrIncompleteCustomer)

	out = h.mustRun("checkout", "--name", "Ada", "--email", "ada@example.com", "--phone", "0600", "--address", "1 Main St")
	assert.Contains(t, out, "Order placed successfully!")
	assert.Contains(t, out, "900.00")
	assert.Contains(t, h.mustRun("show"), "cart is empty")

	_, err = h.run("checkout", "--name", "Ada", "--email", "ada@example.com", "--phone", "0600", "--address", "1 Main St")
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)

	orders, err := h.mem.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 450.0, orders[0].Lines[0].PriceAtPurchase)
}

func TestCLI_CartSurvivesRestart(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "p1", "41", "1")
	h.mustRun("add", "p1", "41", "2")

	out := h.mustRun("show")
	assert.Contains(t, out, "1350.00")

	h.mustRun("remove", "p1", "41")
	assert.Contains(t, h.mustRun("show"), "cart is empty")
}

func TestCLI_Session(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("orders")
	assert.ErrorIs(t, err, session.ErrNoSession)
	_, err = h.run("whoami")
	assert.ErrorIs(t, err, session.ErrNoSession)

	h.mustRun("register", "ada", "ada@example.com", "pw")
	assert.Contains(t, h.mustRun("login", "ada@example.com", "pw"), "logged in as ada")
	assert.Contains(t, h.mustRun("whoami"), "ada@example.com")
	assert.Contains(t, h.mustRun("orders"), "no orders")

	h.mustRun("logout")
	_, err = h.run("orders")
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestCLI_UnknownCommand(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("frobnicate")
	assert.Error(t, err)
	assert.Contains(t, out, "usage:")

	_, err = h.run()
	assert.Error(t, err)
}
