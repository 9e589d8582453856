package cart

import "example.com/storefront/internal/model"

// Draft is the uncommitted selection on a product card: a count and a size
// that only reach the Cart on Confirm.
type Draft struct {
	Product model.Product
	Count   int
	Size    int
}

func NewDraft(p model.Product) *Draft { return &Draft{Product: p} }

func (d *Draft) Increment() { d.Count++ }

func (d *Draft) Decrement() {
	if d.Count > 0 {
		d.Count--
	}
}

func (d *Draft) SelectSize(size int) error {
	if !d.Product.HasSize(size) {
		return ErrUnknownSize
	}
	d.Size = size
	return nil
}

// Ready reports whether Confirm would add anything.
func (d *Draft) Ready() bool { return d.Count > 0 && d.Size != 0 }

// Confirm adds the selection to c and clears the draft. It returns false
// without touching c when no count or size has been chosen.
func (d *Draft) Confirm(c *Cart) (bool, error) {
	if !d.Ready() {
		return false, nil
	}
	if err := c.Add(d.Product, d.Count, d.Size); err != nil {
		return false, err
	}
	d.Count, d.Size = 0, 0
	return true, nil
}
