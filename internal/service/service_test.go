package service

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"example.com/storefront/internal/media"
	"example.com/storefront/internal/model"
	"example.com/storefront/internal/store"
)

type fakeImages struct{ saved []string }

func (f *fakeImages) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	if strings.HasSuffix(filename, ".exe") {
		return "", media.ErrUnsupportedImage
	}
	_, _ = io.Copy(io.Discard, r)
	f.saved = append(f.saved, filename)
	return "/uploads/" + filename, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	return f.err
}

func (f *fakeMailer) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func img(name string) *Image { return &Image{Filename: name, Body: strings.NewReader("x")} }

func validInput() ProductInput {
	return ProductInput{
		Name:     "Air Runner",
		Brand:    "Acme",
		Price:    1000,
		Discount: 20,
		Category: "Men",
		Sizes:    []int{40, 41},
		Stock:    map[int]int{40: 5, 41: 0},
	}
}

// ---------------------------------------------------
// Catalog
// ---------------------------------------------------

func TestProductInput_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProductInput)
	}{
		{"missing name", func(in *ProductInput) { in.Name = " " }},
		{"missing category", func(in *ProductInput) { in.Category = "" }},
		{"negative price", func(in *ProductInput) { in.Price = -1 }},
		{"discount above 100", func(in *ProductInput) { in.Discount = 101 }},
		{"negative discount", func(in *ProductInput) { in.Discount = -1 }},
		{"zero size", func(in *ProductInput) { in.Sizes = []int{0} }},
		{"duplicate size", func(in *ProductInput) { in.Sizes = []int{42, 42} }},
		{"negative stock", func(in *ProductInput) { in.Stock = map[int]int{40: -1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			assert.ErrorIs(t, in.Validate(), ErrInvalidProduct)
		})
	}
	assert.NoError(t, validInput().Validate())
}

func TestCatalog_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	images := &fakeImages{}
	svc := NewCatalogService(store.NewMemory(), images, zap.NewNop())

	_, err := svc.Create(ctx, validInput(), nil)
	assert.ErrorIs(t, err, ErrImageRequired)

	_, err = svc.Create(ctx, validInput(), img("virus.exe"))
	assert.ErrorIs(t, err, ErrInvalidProduct)

	p, err := svc.Create(ctx, validInput(), img("shoe.png"))
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "/uploads/shoe.png", p.ImageURL)
	assert.Equal(t, map[int]int{40: 5, 41: 0}, p.Stock)

	in := validInput()
	in.Name = "Air Runner II"
	in.Discount = 0
	in.Sizes = []int{42}
	in.Stock = map[int]int{42: 1, 43: 2}
	updated, err := svc.Update(ctx, p.ID, in, nil)
	require.NoError(t, err)
	assert.Equal(t, "Air Runner II", updated.Name)
	assert.Equal(t, "/uploads/shoe.png", updated.ImageURL, "image kept without upload")
	assert.Equal(t, []int{42}, updated.Sizes)
	assert.Equal(t, p.CreatedAt, updated.CreatedAt)

	updated, err = svc.Update(ctx, p.ID, in, img("new.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/new.jpg", updated.ImageURL)

	_, err = svc.Update(ctx, "missing", in, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	deleted, err := svc.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, deleted.ID)

	_, err = svc.Delete(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

// ---------------------------------------------------
// Orders
// ---------------------------------------------------

func total(v float64) *float64 { return &v }

func validOrder() PlaceOrderInput {
	return PlaceOrderInput{
		Customer: OrderCustomer{Name: "Ada", Email: "ada@example.com", Phone: "0600", Address: "1 Main St"},
		Items:    []OrderLineInput{{ProductID: "p1", Quantity: 2, Size: 42, PriceAtPurchase: 450}},
		Total:    total(900),
	}
}

func TestOrders_PlaceValidation(t *testing.T) {
	svc := NewOrderService(store.NewMemory(), store.NewMemory(), &fakeMailer{}, zap.NewNop())

	tests := []struct {
		name   string
		mutate func(*PlaceOrderInput)
		want   error
	}{
		{"missing phone", func(in *PlaceOrderInput) { in.Customer.Phone = "" }, ErrMissingCustomer},
		{"blank address", func(in *PlaceOrderInput) { in.Customer.Address = "  " }, ErrMissingCustomer},
		{"no items", func(in *PlaceOrderInput) { in.Items = nil }, ErrEmptyOrder},
		{"no total", func(in *PlaceOrderInput) { in.Total = nil }, ErrInvalidTotal},
		{"customer checked before items", func(in *PlaceOrderInput) { in.Customer.Name = ""; in.Items = nil }, ErrMissingCustomer},
		{"zero quantity", func(in *PlaceOrderInput) { in.Items[0].Quantity = 0 }, ErrInvalidLine},
		{"missing product", func(in *PlaceOrderInput) { in.Items[0].ProductID = "" }, ErrInvalidLine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validOrder()
			tt.mutate(&in)
			_, err := svc.Place(context.Background(), in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOrders_PlaceSnapshotsPriceAndJoinsNames(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	mailer := &fakeMailer{}
	svc := NewOrderService(mem, mem, mailer, zap.NewNop())

	require.NoError(t, mem.CreateProduct(ctx, &model.Product{ID: "p1", Name: "Runner", Price: 500, Discount: 10}))

	order, err := svc.Place(ctx, validOrder())
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, 900.0, order.TotalAmount)
	assert.Equal(t, "Ada", order.Customer.FullName)
	require.Eventually(t, func() bool { return len(mailer.recipients()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"ada@example.com"}, mailer.recipients())

	// later price change must not alter the recorded order
	require.NoError(t, mem.UpdateProduct(ctx, &model.Product{ID: "p1", Name: "Runner v2", Price: 9999}))

	orders, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	line := orders[0].Lines[0]
	assert.Equal(t, 450.0, line.PriceAtPurchase)
	require.NotNil(t, line.Product)
	assert.Equal(t, "Runner v2", line.Product.Name)
}

func TestOrders_ListKeepsLinesOfDeletedProducts(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := NewOrderService(mem, mem, &fakeMailer{}, zap.NewNop())

	_, err := svc.Place(ctx, validOrder())
	require.NoError(t, err)

	orders, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Nil(t, orders[0].Lines[0].Product)
}

func TestOrders_MailFailureDoesNotFailOrder(t *testing.T) {
	mem := store.NewMemory()
	svc := NewOrderService(mem, mem, &fakeMailer{err: errors.New("smtp down")}, zap.NewNop())

	_, err := svc.Place(context.Background(), validOrder())
	require.NoError(t, err)
	orders, _ := mem.ListOrders(context.Background())
	assert.Len(t, orders, 1)
}

// silentSMTP accepts connections and never sends the SMTP greeting.
func silentSMTP(t *testing.T) (host, port string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})
	host, port, err = net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	return host, port
}

func TestSMTP_StalledRelayTimesOut(t *testing.T) {
	host, port := silentSMTP(t)
	mailer := NewEmailService(SMTPConfig{Host: host, Port: port, From: "shop@localhost", Timeout: 200 * time.Millisecond})

	start := time.Now()
	err := mailer.Send(context.Background(), "ada@example.com", "hi", "body")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start = time.Now()
	require.Error(t, NewEmailService(SMTPConfig{Host: host, Port: port, From: "shop@localhost"}).Send(ctx, "ada@example.com", "hi", "body"))
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestOrders_StalledMailDoesNotDelayPlace(t *testing.T) {
	host, port := silentSMTP(t)
	mem := store.NewMemory()
	mailer := NewEmailService(SMTPConfig{Host: host, Port: port, From: "shop@localhost"})
	svc := NewOrderService(mem, mem, mailer, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Place(context.Background(), validOrder())
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Place blocked on the mail relay")
	}
	orders, err := mem.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

// ---------------------------------------------------
// Auth
// ---------------------------------------------------

func newAuth(t *testing.T) (*authService, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	svc := NewAuthService(mem, AuthConfig{Secret: []byte("test-secret"), TTL: time.Minute}, zap.NewNop()).(*authService)
	return svc, mem
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuth(t)

	_, err := svc.Register(ctx, "ada", "not-an-email", "pw")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	u, err := svc.Register(ctx, "ada", "ada@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	_, err = svc.Register(ctx, "other", "ada@example.com", "x")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, _, err = svc.Login(ctx, "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, _, err = svc.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBadPassword)

	token, got, err := svc.Login(ctx, "ada@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	sub, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, sub)
}

func TestAuth_TokenExpires(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuth(t)
	_, err := svc.Register(ctx, "ada", "ada@example.com", "pw")
	require.NoError(t, err)

	issued := time.Now()
	svc.now = func() time.Time { return issued }
	token, _, err := svc.Login(ctx, "ada@example.com", "pw")
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuth_RejectsForeignTokens(t *testing.T) {
	svc, _ := newAuth(t)
	other := NewAuthService(store.NewMemory(), AuthConfig{Secret: []byte("other")}, zap.NewNop())

	_, err := other.Register(context.Background(), "x", "x@example.com", "pw")
	require.NoError(t, err)
	token, _, err := other.Login(context.Background(), "x@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.ParseToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuth_UserAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuth(t)
	a, err := svc.Register(ctx, "ada", "ada@example.com", "pw")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob", "bob@example.com", "pw")
	require.NoError(t, err)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	updated, err := svc.UpdateUser(ctx, a.ID, "Ada L.", "")
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", updated.UserName)
	assert.Equal(t, "ada@example.com", updated.Email)

	_, err = svc.UpdateUser(ctx, a.ID, "", "bob@example.com")
	assert.ErrorIs(t, err, ErrEmailTaken)
	_, err = svc.UpdateUser(ctx, a.ID, "", "nope")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	require.NoError(t, svc.DeleteUser(ctx, a.ID))
	assert.ErrorIs(t, svc.DeleteUser(ctx, a.ID), ErrUserNotFound)
	_, err = svc.GetUser(ctx, a.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
