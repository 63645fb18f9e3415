package pos

import (
	"time"

	"github.com/shopspring/decimal"
)

// Storage keys. The first three match the browser front-end so its
// localStorage exports restore as-is.
const (
	KeyMenu          = "hb_menu_items"
	KeyCart          = "hb_cart_items"
	KeySales         = "hb_sales_records"
	KeyCheckoutState = "hb_checkout_state"
	KeyMenuVersion   = "hb_menu_version"
)

// DefaultWalkInName is recorded as the customer when none is given.
const DefaultWalkInName = "Walk-in"

// MenuItem is a sellable item. Names are not unique; ID is the identity.
type MenuItem struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

// CartLine is a cart entry. Name and Price are copied from the catalog when
// the item is first added; Qty is always at least 1.
type CartLine struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   int             `json:"qty"`
}

// LineTotal returns Price * Qty.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// SaleLine is an item snapshot inside a SaleRecord.
type SaleLine struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   int             `json:"qty"`
}

// SaleRecord is a completed sale. Records are immutable once appended.
type SaleRecord struct {
	ID       string          `json:"id"`
	DT       time.Time       `json:"dt"`
	Customer string          `json:"customer"`
	Items    []SaleLine      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Summary holds cart totals. Total is always Subtotal + Tax.
type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

func summarize(lines []CartLine, taxRate decimal.Decimal) Summary {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
	}
	tax := subtotal.Mul(taxRate)
	return Summary{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}
}
