package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"example.com/storefront/internal/cart"
	"example.com/storefront/internal/kv"
	"example.com/storefront/internal/model"
)

type checkoutTestContext struct {
	cart     *cart.Cart
	sub      *recordingSubmitter
	checkout *Checkout
	products map[string]model.Product
	err      error
}

func (c *checkoutTestContext) reset() {
	c.cart = cart.New(kv.NewMemorySlot())
	c.sub = &recordingSubmitter{}
	c.checkout = New(c.cart, c.sub, nil)
	c.products = map[string]model.Product{}
	c.err = nil
}

func (c *checkoutTestContext) anEmptyCart() error {
	if c.cart.Len() != 0 {
		return errors.New("cart is not empty")
	}
	return nil
}

func (c *checkoutTestContext) aProductPricedWithDiscountInSizes(id string, price float64, discount int, sizes string) error {
	p := model.Product{ID: id, Name: id, Price: price, Discount: discount, Category: "Unisex"}
	for _, s := range strings.Split(sizes, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		p.Sizes = append(p.Sizes, n)
	}
	c.products[id] = p
	return nil
}

func (c *checkoutTestContext) theBackendRejectsOrders() error {
	c.sub.err = errors.New("500 server error")
	return nil
}

func (c *checkoutTestContext) iAddOfInSize(qty int, id string, size int) error {
	p, ok := c.products[id]
	if !ok {
		return fmt.Errorf("unknown product %q", id)
	}
	return c.cart.Add(p, qty, size)
}

func (c *checkoutTestContext) iDecreaseInSize(id string, size int) error {
	return c.cart.Decrease(id, size)
}

func (c *checkoutTestContext) iCheckOutAs(name, email, phone, address string) error {
	c.checkout.SetCustomer(Customer{Name: name, Email: email, Phone: phone, Address: address})
	_, c.err = c.checkout.PlaceOrder(context.Background())
	return nil
}

func (c *checkoutTestContext) theCartHoldsItems(n int) error {
	if got := c.cart.TotalCount(); got != n {
		return fmt.Errorf("expected %d items, got %d", n, got)
	}
	return nil
}

func (c *checkoutTestContext) theCartHasLines(n int) error {
	if got := c.cart.Len(); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (c *checkoutTestContext) theCartTotalIs(total float64) error {
	if got := c.cart.TotalPrice(); got != total {
		return fmt.Errorf("expected total %v, got %v", total, got)
	}
	return nil
}

func (c *checkoutTestContext) theCartIsEmpty() error {
	return c.theCartHasLines(0)
}

func (c *checkoutTestContext) exactlyOrderRequestsWereSent(n int) error {
	if c.err != nil && n > 0 {
		return fmt.Errorf("checkout failed: %v", c.err)
	}
	if got := c.sub.count(); got != n {
		return fmt.Errorf("expected %d requests, got %d", n, got)
	}
	return nil
}

func (c *checkoutTestContext) theOrderTotalIs(total float64) error {
	if c.sub.count() == 0 {
		return errors.New("no order sent")
	}
	if got := c.sub.calls[0].Total; got != total {
		return fmt.Errorf("expected order total %v, got %v", total, got)
	}
	return nil
}

func (c *checkoutTestContext) orderItemHas(idx int, id string, qty, size int, price float64) error {
	if c.sub.count() == 0 {
		return errors.New("no order sent")
	}
	items := c.sub.calls[0].Items
	if idx < 1 || idx > len(items) {
		return fmt.Errorf("order has %d items", len(items))
	}
	want := Item{ProductID: id, Quantity: qty, Size: size, PriceAtPurchase: price}
	if got := items[idx-1]; got != want {
		return fmt.Errorf("expected %+v, got %+v", want, got)
	}
	return nil
}

func (c *checkoutTestContext) checkoutFailsWith(msg string) error {
	if c.err == nil {
		return errors.New("expected checkout to fail but it succeeded")
	}
	if !strings.Contains(c.err.Error(), msg) {
		return fmt.Errorf("expected error containing %q, got %q", msg, c.err.Error())
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^a product "([^"]*)" priced (\d+(?:\.\d+)?) with a (\d+)% discount in sizes ([\d,]+)$`, tc.aProductPricedWithDiscountInSizes)
	ctx.Step(`^the backend rejects orders$`, tc.theBackendRejectsOrders)

	// When steps
	ctx.Step(`^I add (\d+) of "([^"]*)" in size (\d+)$`, tc.iAddOfInSize)
	ctx.Step(`^I decrease "([^"]*)" in size (\d+)$`, tc.iDecreaseInSize)
	ctx.Step(`^I check out as "([^"]*)" "([^"]*)" "([^"]*)" "([^"]*)"$`, tc.iCheckOutAs)

	// Then steps
	ctx.Step(`^the cart holds (\d+) items$`, tc.theCartHoldsItems)
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^the cart total is (\d+(?:\.\d+)?)$`, tc.theCartTotalIs)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^exactly (\d+) order requests? (?:was|were) sent$`, tc.exactlyOrderRequestsWereSent)
	ctx.Step(`^the order total is (\d+(?:\.\d+)?)$`, tc.theOrderTotalIs)
	ctx.Step(`^order item (\d+) has product "([^"]*)" quantity (\d+) size (\d+) price (\d+(?:\.\d+)?)$`, tc.orderItemHas)
	ctx.Step(`^checkout fails with "([^"]*)"$`, tc.checkoutFailsWith)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"testdata/checkout.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
