package pos

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/roach88/tiffin/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Cart is the in-progress sale. It is the only source of truth for what is
// being sold; bills and sales are built from it, never from rendered output.
type Cart struct {
	lines   []CartLine
	catalog *Catalog
	taxRate decimal.Decimal
	st      *store.Adapter
	log     logrus.FieldLogger
}

func loadCart(ctx context.Context, st *store.Adapter, catalog *Catalog, taxRate decimal.Decimal, log logrus.FieldLogger) *Cart {
	c := &Cart{catalog: catalog, taxRate: taxRate, st: st, log: log.WithField("component", "cart")}

	var stored []CartLine
	if !st.Get(ctx, KeyCart, &stored) {
		return c
	}
	// qty >= 1 holds for everything we write; drop anything else on the way in.
	for _, l := range stored {
		if l.Qty < 1 || l.ID == "" {
			c.log.WithFields(logrus.Fields{"id": l.ID, "qty": l.Qty}).Warn("dropping invalid cart line")
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c
}

// Add puts one of itemID in the cart. Unknown items are ignored.
func (c *Cart) Add(ctx context.Context, itemID string) error {
	item, ok := c.catalog.Get(itemID)
	if !ok {
		c.log.WithField("id", itemID).Debug("add ignored: not on the menu")
		return nil
	}

	next := c.clone()
	if i := indexLine(next, itemID); i >= 0 {
		next[i].Qty++
	} else {
		next = append(next, CartLine{ID: item.ID, Name: item.Name, Price: item.Price, Qty: 1})
	}
	return c.commit(ctx, next, "add", itemID)
}

// SetQuantity adds delta to a line's quantity, removing the line when the
// result drops to zero or below. Items not in the cart are ignored. A delta
// that would overflow the quantity is rejected and leaves the cart as is.
func (c *Cart) SetQuantity(ctx context.Context, itemID string, delta int) error {
	i := indexLine(c.lines, itemID)
	if i < 0 {
		return nil
	}

	if delta > 0 && c.lines[i].Qty > math.MaxInt-delta {
		return &ValidationError{Field: "delta", Message: "quantity would overflow"}
	}

	next := c.clone()
	next[i].Qty += delta
	if next[i].Qty <= 0 {
		next = append(next[:i], next[i+1:]...)
	}
	return c.commit(ctx, next, "set_quantity", itemID)
}

// Remove drops a line if present.
func (c *Cart) Remove(ctx context.Context, itemID string) error {
	i := indexLine(c.lines, itemID)
	if i < 0 {
		return nil
	}
	next := c.clone()
	next = append(next[:i], next[i+1:]...)
	return c.commit(ctx, next, "remove", itemID)
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) error {
	return c.commit(ctx, []CartLine{}, "clear", "")
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []CartLine { return c.clone() }

// Line returns the line for itemID.
func (c *Cart) Line(itemID string) (CartLine, bool) {
	if i := indexLine(c.lines, itemID); i >= 0 {
		return c.lines[i], true
	}
	return CartLine{}, false
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Summary returns subtotal, tax and total for the current lines.
func (c *Cart) Summary() Summary { return summarize(c.lines, c.taxRate) }

// TaxRate returns the configured tax multiplier.
func (c *Cart) TaxRate() decimal.Decimal { return c.taxRate }

func (c *Cart) commit(ctx context.Context, next []CartLine, op, itemID string) error {
	if next == nil {
		next = []CartLine{}
	}
	if err := c.st.Set(ctx, KeyCart, next); err != nil {
		return errors.Wrapf(err, "cart %s", op)
	}
	c.lines = next
	c.log.WithFields(logrus.Fields{"op": op, "id": itemID, "lines": len(next)}).Debug("cart updated")
	return nil
}

func (c *Cart) clone() []CartLine {
	return append([]CartLine(nil), c.lines...)
}

func indexLine(lines []CartLine, itemID string) int {
	for i, l := range lines {
		if l.ID == itemID {
			return i
		}
	}
	return -1
}
