package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"example.com/storefront/internal/cart"
	"example.com/storefront/internal/checkout"
	"example.com/storefront/internal/client"
	"example.com/storefront/internal/kv"
	"example.com/storefront/internal/pricing"
	"example.com/storefront/internal/session"
)

const usage = `usage: storefront [--api URL] [--state FILE] [-v] <command> [args]

commands:
  products                         list the catalog
  add <productId> <size> <qty>     put a product in the cart
  inc|dec|remove <productId> <size>
  clear                            empty the cart
  show                             print the cart and its total
  checkout --name N --email E --phone P --address A
  register <userName> <email> <password>
  login <email> <password>
  logout
  whoami
  orders                           list orders (needs a session)
`

type shell struct {
	out  io.Writer
	log  *zap.Logger
	cart *cart.Cart
	sess *session.Store
	api  *client.Client
}

func defaultState() string {
	if v := os.Getenv("STOREFRONT_STATE"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storefront.json"
	}
	return filepath.Join(home, ".storefront.json")
}

func defaultAPI() string {
	if v := os.Getenv("STOREFRONT_API"); v != "" {
		return v
	}
	return "http://localhost:4040"
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("storefront", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { fmt.Fprint(out, usage) }
	apiURL := fs.String("api", defaultAPI(), "storefront API base URL")
	state := fs.String("state", defaultState(), "file holding the cart and session")
	verbose := fs.BoolP("verbose", "v", false, "log to stderr")
	fs.SetInterspersed(false)
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("no command given")
	}

	log := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		log = l
		defer l.Sync()
	}

	slot := kv.NewFileSlot(*state)
	sess := session.NewStore(slot)
	api, err := client.New(*apiURL, client.WithTokens(sess))
	if err != nil {
		return err
	}
	sh := &shell{out: out, log: log, cart: cart.New(slot, cart.WithLogger(log)), sess: sess, api: api}
	return sh.dispatch(ctx, rest[0], rest[1:])
}

func (sh *shell) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "products":
		return sh.products(ctx)
	case "add":
		return sh.add(ctx, args)
	case "inc", "dec", "remove":
		return sh.adjust(cmd, args)
	case "clear":
		if err := sh.cart.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(sh.out, "cart cleared")
		return nil
	case "show":
		return sh.show()
	case "checkout":
		return sh.checkout(ctx, args)
	case "register":
		return sh.register(ctx, args)
	case "login":
		return sh.login(ctx, args)
	case "logout":
		if err := sh.sess.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(sh.out, "logged out")
		return nil
	case "whoami":
		return sh.whoami(ctx)
	case "orders":
		return sh.orders(ctx)
	default:
		fmt.Fprint(sh.out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func need(args []string, n int, form string) error {
	if len(args) != n {
		return fmt.Errorf("usage: storefront %s", form)
	}
	return nil
}

func atoi(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number, got %q", name, s)
	}
	return n, nil
}

func (sh *shell) products(ctx context.Context) error {
	ps, err := sh.api.ListProducts(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tBRAND\tPRICE\tDISCOUNT\tNOW\tSIZES")
	for _, p := range ps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%d%%\t%.2f\t%v\n",
			p.ID, p.Name, p.Brand, p.Price, p.Discount, pricing.EffectiveUnitPrice(p.Price, p.Discount), p.Sizes)
	}
	return tw.Flush()
}

func (sh *shell) add(ctx context.Context, args []string) error {
	if err := need(args, 3, "add <productId> <size> <qty>"); err != nil {
		return err
	}
	size, err := atoi("size", args[1])
	if err != nil {
		return err
	}
	qty, err := atoi("qty", args[2])
	if err != nil {
		return err
	}
	p, err := sh.api.GetProduct(ctx, args[0])
	if err != nil {
		return err
	}

	// same path as the product page: build a selection, then confirm it
	d := cart.NewDraft(p)
	if err := d.SelectSize(size); err != nil {
		return fmt.Errorf("%s: %w (offered: %v)", p.Name, err, p.Sizes)
	}
	if qty <= 0 {
		return cart.ErrInvalidQuantity
	}
	for range qty {
		d.Increment()
	}
	if _, err := d.Confirm(sh.cart); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "added %d x %s (size %d); cart has %d item(s)\n", qty, p.Name, size, sh.cart.TotalCount())
	return nil
}

func (sh *shell) adjust(cmd string, args []string) error {
	if err := need(args, 2, cmd+" <productId> <size>"); err != nil {
		return err
	}
	size, err := atoi("size", args[1])
	if err != nil {
		return err
	}
	switch cmd {
	case "inc":
		err = sh.cart.Increase(args[0], size)
	case "dec":
		err = sh.cart.Decrease(args[0], size)
	default:
		err = sh.cart.Remove(args[0], size)
	}
	if err != nil {
		return err
	}
	return sh.show()
}

func (sh *shell) show() error {
	items := sh.cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(sh.out, "cart is empty")
		return nil
	}
	tw := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tQTY\tUNIT\tLINE")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.2f\t%.2f\n",
			it.Product.ID, it.Product.Name, it.Size, it.Quantity, it.UnitPrice(), it.LineTotal())
	}
	fmt.Fprintf(tw, "\t\t\t%d\t\t%.2f\n", sh.cart.TotalCount(), sh.cart.TotalPrice())
	return tw.Flush()
}

func (sh *shell) checkout(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("checkout", pflag.ContinueOnError)
	fs.SetOutput(sh.out)
	var c checkout.Customer
	fs.StringVar(&c.Name, "name", "", "full name")
	fs.StringVar(&c.Email, "email", "", "email address")
	fs.StringVar(&c.Phone, "phone", "", "phone number")
	fs.StringVar(&c.Address, "address", "", "delivery address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	co := checkout.New(sh.cart, sh.api, sh.log)
	co.SetCustomer(c)
	p, err := co.PlaceOrder(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Order placed successfully! %d line(s), total %.2f\n", len(p.Items), p.Total)
	return nil
}

func (sh *shell) register(ctx context.Context, args []string) error {
	if err := need(args, 3, "register <userName> <email> <password>"); err != nil {
		return err
	}
	if err := sh.api.Register(ctx, args[0], args[1], args[2]); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "registered", args[1])
	return nil
}

func (sh *shell) login(ctx context.Context, args []string) error {
	if err := need(args, 2, "login <email> <password>"); err != nil {
		return err
	}
	res, err := sh.api.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if err := sh.sess.Save(res.Token); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "logged in as %s <%s>\n", res.User.UserName, res.User.Email)
	return nil
}

func (sh *shell) whoami(ctx context.Context) error {
	if _, err := sh.sess.Subject(); err != nil {
		return err
	}
	u, err := sh.api.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "%s <%s> (%s)\n", u.UserName, u.Email, u.ID)
	return nil
}

func (sh *shell) orders(ctx context.Context) error {
	orders, err := sh.api.ListOrders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(sh.out, "no orders")
		return nil
	}
	for _, o := range orders {
		fmt.Fprintf(sh.out, "%s  %s  %s  %.2f  %s\n",
			o.CreatedAt.Format("2006-01-02 15:04"), o.ID, o.Status, o.TotalAmount, o.Customer.FullName)
		for _, l := range o.Lines {
			name := "(deleted product)"
			if l.Product != nil {
				name = l.Product.Name
			}
			fmt.Fprintf(sh.out, "    %d x %s size %d @ %.2f\n", l.Quantity, name, l.Size, l.PriceAtPurchase)
		}
	}
	return nil
}
