package pos

import (
	"context"
	"encoding/json"
	"io"

	"github.com/roach88/tiffin/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Options configures an App. Zero values fall back to production defaults.
type Options struct {
	// TaxRate multiplies the subtotal. Zero means no tax.
	TaxRate decimal.Decimal

	// WalkInName is recorded when the customer is left blank.
	WalkInName string

	// PaymentRef is the static payment image shown while awaiting payment.
	PaymentRef string

	// Payee names the business in UPI pay links. Empty disables them.
	Payee string

	Clock  Clock
	IDs    IDGenerator
	Logger logrus.FieldLogger
}

func (o *Options) applyDefaults() {
	if o.WalkInName == "" {
		o.WalkInName = DefaultWalkInName
	}
	if o.Clock == nil {
		o.Clock = SystemClock{}
	}
	if o.IDs == nil {
		o.IDs = UUIDv7Generator{}
	}
	if o.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.Logger = l
	}
}

// App is the whole point-of-sale state.
type App struct {
	Catalog  *Catalog
	Cart     *Cart
	Checkout *Checkout
	Ledger   *Ledger

	st   *store.Adapter
	opts Options
}

// Open loads every component from kv, seeding and migrating the menu as
// needed. Only a failed write during seeding or migration is an error;
// unreadable data falls back to defaults.
func Open(ctx context.Context, kv store.KV, opts Options) (*App, error) {
	opts.applyDefaults()
	a := &App{st: store.NewAdapter(kv, opts.Logger), opts: opts}
	if err := a.load(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) load(ctx context.Context) error {
	catalog, err := loadCatalog(ctx, a.st, a.opts.IDs, a.opts.Logger)
	if err != nil {
		return err
	}
	a.Catalog = catalog
	a.Cart = loadCart(ctx, a.st, catalog, a.opts.TaxRate, a.opts.Logger)
	a.Ledger = loadLedger(ctx, a.st, a.opts.Logger)
	a.Checkout = loadCheckout(ctx, a.st, a.Cart, a.Ledger, a.opts)
	return nil
}

// Backup returns every stored key as raw JSON.
func (a *App) Backup(ctx context.Context) (map[string]json.RawMessage, error) {
	return a.st.Dump(ctx)
}

// Restore writes snapshot into the store and reloads every component.
// Keys not in snapshot are left alone.
func (a *App) Restore(ctx context.Context, snapshot map[string]json.RawMessage) error {
	if err := a.st.Restore(ctx, snapshot); err != nil {
		return err
	}
	return a.load(ctx)
}
