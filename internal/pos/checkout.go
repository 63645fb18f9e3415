package pos

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/roach88/tiffin/internal/store"
	"github.com/sirupsen/logrus"
)

// State is a checkout session state.
type State int

const (
	// Idle is the initial state: the cart is being built.
	Idle State = iota

	// AwaitingPayment means the payment reference is showing and the next
	// Press records the sale.
	AwaitingPayment
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingPayment:
		return "awaiting_payment"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if s != Idle && s != AwaitingPayment {
		return nil, errors.Errorf("invalid checkout state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = Idle
	case "awaiting_payment":
		*s = AwaitingPayment
	default:
		return errors.Errorf("unknown checkout state %q", string(b))
	}
	return nil
}

// session is the persisted checkout state.
type session struct {
	State    State  `json:"state"`
	Customer string `json:"customer"`
}

// Transition describes what a Press did.
type Transition struct {
	From State `json:"from"`
	To   State `json:"to"`

	// PaymentRef is the payment image to show. Set when entering AwaitingPayment.
	PaymentRef string `json:"payment_ref,omitempty"`

	// PaymentURI is a UPI deep link for the amount due, when a payee is
	// configured. Set when entering AwaitingPayment.
	PaymentURI string `json:"payment_uri,omitempty"`

	// Summary is the amount due (entering AwaitingPayment) or charged (commit).
	Summary Summary `json:"summary"`

	// Sale is the recorded sale. Set on commit.
	Sale *SaleRecord `json:"sale,omitempty"`
}

// Draft is an unrecorded view of the current sale, used for printed bills.
type Draft struct {
	Customer string     `json:"customer"`
	At       time.Time  `json:"at"`
	Lines    []CartLine `json:"lines"`
	Summary  Summary    `json:"summary"`
}

// Checkout drives the Idle, AwaitingPayment, Idle cycle.
type Checkout struct {
	sess       session
	cart       *Cart
	ledger     *Ledger
	clock      Clock
	ids        IDGenerator
	walkIn     string
	paymentRef string
	payee      string
	st         *store.Adapter
	log        logrus.FieldLogger
}

func loadCheckout(ctx context.Context, st *store.Adapter, cart *Cart, ledger *Ledger, opts Options) *Checkout {
	c := &Checkout{
		cart:       cart,
		ledger:     ledger,
		clock:      opts.Clock,
		ids:        opts.IDs,
		walkIn:     opts.WalkInName,
		paymentRef: opts.PaymentRef,
		payee:      opts.Payee,
		st:         st,
		log:        opts.Logger.WithField("component", "checkout"),
	}
	st.Get(ctx, KeyCheckoutState, &c.sess)
	return c
}

// State returns the current session state.
func (c *Checkout) State() State { return c.sess.State }

// Customer returns the customer name as entered, possibly blank.
func (c *Checkout) Customer() string { return c.sess.Customer }

// SetCustomer records the customer name for the current session.
func (c *Checkout) SetCustomer(ctx context.Context, name string) error {
	next := c.sess
	next.Customer = name
	return c.save(ctx, next)
}

// Press is the single checkout transition.
//
// From Idle it requires a non-empty cart and moves to AwaitingPayment
// without recording anything. From AwaitingPayment it re-checks the cart:
// an empty cart aborts back to Idle with ErrEmptyCart; otherwise the sale
// is appended to the ledger, the session is reset and the cart cleared.
func (c *Checkout) Press(ctx context.Context) (Transition, error) {
	switch c.sess.State {
	case Idle:
		return c.begin(ctx)
	case AwaitingPayment:
		return c.commit(ctx)
	default:
		return Transition{}, errors.Errorf("invalid checkout state %d", int(c.sess.State))
	}
}

func (c *Checkout) begin(ctx context.Context) (Transition, error) {
	if c.cart.IsEmpty() {
		return Transition{}, ErrEmptyCart
	}
	if err := c.save(ctx, session{State: AwaitingPayment, Customer: c.sess.Customer}); err != nil {
		return Transition{}, err
	}
	sum := c.cart.Summary()
	c.log.WithField("total", sum.Total.String()).Info("awaiting payment")
	return Transition{
		From:       Idle,
		To:         AwaitingPayment,
		PaymentRef: c.paymentRef,
		PaymentURI: paymentURI(c.payee, sum),
		Summary:    sum,
	}, nil
}

func (c *Checkout) commit(ctx context.Context) (Transition, error) {
	if c.cart.IsEmpty() {
		if err := c.save(ctx, session{State: Idle, Customer: c.sess.Customer}); err != nil {
			return Transition{}, err
		}
		c.log.Warn("cart emptied while awaiting payment; checkout aborted")
		return Transition{}, ErrEmptyCart
	}

	rec := c.buildSale()
	if err := c.ledger.Append(ctx, rec); err != nil {
		return Transition{}, err
	}

	// The sale is recorded; from here on the transition has happened even
	// if resetting fails.
	tr := Transition{From: AwaitingPayment, To: Idle, Summary: summaryOf(rec), Sale: &rec}
	var errs []string
	if err := c.save(ctx, session{State: Idle}); err != nil {
		c.sess = session{State: Idle}
		errs = append(errs, err.Error())
	}
	if err := c.cart.Clear(ctx); err != nil {
		errs = append(errs, err.Error())
	}
	c.log.WithFields(logrus.Fields{"id": rec.ID, "customer": rec.Customer, "total": rec.Total.String()}).Info("payment recorded")
	if len(errs) > 0 {
		return tr, errors.Errorf("sale %s recorded but reset failed: %s", rec.ID, strings.Join(errs, "; "))
	}
	return tr, nil
}

// Cancel returns to Idle without recording a sale. The customer name is kept.
func (c *Checkout) Cancel(ctx context.Context) error {
	if c.sess.State == Idle {
		return nil
	}
	if err := c.save(ctx, session{State: Idle, Customer: c.sess.Customer}); err != nil {
		return err
	}
	c.log.Info("checkout cancelled")
	return nil
}

// Draft returns what would be sold right now, without changing anything.
// Lines is never nil.
func (c *Checkout) Draft() Draft {
	lines := c.cart.Lines()
	if lines == nil {
		lines = []CartLine{}
	}
	return Draft{
		Customer: c.resolveCustomer(),
		At:       c.clock.Now(),
		Lines:    lines,
		Summary:  c.cart.Summary(),
	}
}

func (c *Checkout) buildSale() SaleRecord {
	lines := c.cart.Lines()
	items := make([]SaleLine, len(lines))
	for i, l := range lines {
		items[i] = SaleLine{Name: l.Name, Price: l.Price, Qty: l.Qty}
	}
	sum := c.cart.Summary()
	return SaleRecord{
		ID:       c.ids.Generate(),
		DT:       c.clock.Now().UTC().Truncate(time.Millisecond),
		Customer: c.resolveCustomer(),
		Items:    items,
		Subtotal: sum.Subtotal,
		Tax:      sum.Tax,
		Total:    sum.Total,
	}
}

func (c *Checkout) resolveCustomer() string {
	if name := strings.TrimSpace(c.sess.Customer); name != "" {
		return name
	}
	return c.walkIn
}

func (c *Checkout) save(ctx context.Context, next session) error {
	if err := c.st.Set(ctx, KeyCheckoutState, next); err != nil {
		return errors.Wrap(err, "save checkout session")
	}
	c.sess = next
	return nil
}

func summaryOf(rec SaleRecord) Summary {
	return Summary{Subtotal: rec.Subtotal, Tax: rec.Tax, Total: rec.Total}
}

// paymentURI builds a UPI pay link for the amount due.
func paymentURI(payee string, sum Summary) string {
	if payee == "" {
		return ""
	}
	amount := sum.Total.StringFixed(2)
	note := fmt.Sprintf("%s | Total %s", payee, amount)
	return fmt.Sprintf("upi://pay?pn=%s&am=%s&tn=%s", url.PathEscape(payee), amount, url.PathEscape(note))
}
