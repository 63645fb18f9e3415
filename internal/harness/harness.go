package harness

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/roach88/tiffin/internal/logging"
	"github.com/roach88/tiffin/internal/menufile"
	"github.com/roach88/tiffin/internal/pos"
	"github.com/roach88/tiffin/internal/store"
	"github.com/roach88/tiffin/internal/testutil"
)

// Error kinds a step can fail with.
const (
	kindValidation = "validation"
	kindNotFound   = "not_found"
	kindEmptyCart  = "empty_cart"
)

// Epoch is the first instant the harness clock reports. Each read advances
// it by one minute.
var Epoch = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

// PaymentRef is the payment image used by every scenario.
const PaymentRef = "images/QRpay.jpg"

// Run executes a scenario against a fresh in-memory till.
//
// Expect-clause and assertion mismatches are reported in the Result. An
// error is returned only when the scenario cannot run at all, or a step
// fails with an error that is not a domain error kind.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	app, err := openApp(ctx, scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		id := resolveItem(app, step.Item)
		saleID, err := execute(ctx, app, step, id)

		kind := errorKind(err)
		if err != nil && kind == "" {
			return nil, fmt.Errorf("steps[%d] %s: %w", i, step.Action, err)
		}

		event := TraceEvent{
			Seq:     i + 1,
			Action:  step.Action,
			Args:    stepArgs(step, id),
			Outcome: "ok",
			State:   app.Checkout.State().String(),
			Total:   app.Cart.Summary().Total.String(),
			Sale:    saleID,
		}
		if kind != "" {
			event.Outcome = kind
		}
		result.Trace = append(result.Trace, event)

		checkExpect(result, i, step, event)
	}

	for _, msg := range EvaluateAssertions(app, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func openApp(ctx context.Context, scenario *Scenario) (*pos.App, error) {
	opts := pos.Options{
		PaymentRef: PaymentRef,
		Payee:      scenario.Payee,
		Clock:      testutil.NewStepClock(Epoch, time.Minute),
		IDs:        testutil.NewSequenceGenerator("id"),
		Logger:     logging.Discard(),
	}
	if scenario.TaxRate != "" {
		rate, err := decimal.NewFromString(scenario.TaxRate)
		if err != nil {
			return nil, fmt.Errorf("tax_rate: %w", err)
		}
		if rate.IsNegative() {
			return nil, fmt.Errorf("tax_rate: must not be negative")
		}
		opts.TaxRate = rate
	}

	app, err := pos.Open(ctx, store.NewMemory(), opts)
	if err != nil {
		return nil, fmt.Errorf("open till: %w", err)
	}

	if scenario.Menu != "" {
		entries, err := menufile.LoadFile(scenario.Menu)
		if err != nil {
			return nil, fmt.Errorf("load menu: %w", err)
		}
		if _, err := app.Catalog.Import(ctx, entries, true); err != nil {
			return nil, fmt.Errorf("import menu: %w", err)
		}
	}
	return app, nil
}

// resolveItem maps a menu name to an item ID. Unknown names are returned
// unchanged and act as IDs that match nothing.
func resolveItem(app *pos.App, name string) string {
	if name == "" {
		return ""
	}
	for _, item := range app.Catalog.List("") {
		if item.Name == name {
			return item.ID
		}
	}
	return name
}

// execute performs one step and returns the ID of any sale it recorded.
func execute(ctx context.Context, app *pos.App, step Step, id string) (string, error) {
	switch step.Action {
	case "add":
		return "", app.Cart.Add(ctx, id)
	case "set_qty":
		return "", app.Cart.SetQuantity(ctx, id, step.Delta)
	case "remove":
		return "", app.Cart.Remove(ctx, id)
	case "clear":
		return "", app.Cart.Clear(ctx)
	case "customer":
		return "", app.Checkout.SetCustomer(ctx, step.Name)
	case "press":
		tr, err := app.Checkout.Press(ctx)
		if tr.Sale != nil {
			return tr.Sale.ID, err
		}
		return "", err
	case "cancel":
		return "", app.Checkout.Cancel(ctx)
	case "create":
		price, err := pos.ParsePrice(step.Price)
		if err != nil {
			return "", err
		}
		_, err = app.Catalog.Create(ctx, step.Name, price, step.Image)
		return "", err
	case "update":
		price, err := pos.ParsePrice(step.Price)
		if err != nil {
			return "", err
		}
		_, err = app.Catalog.Update(ctx, id, step.Name, price, step.Image)
		return "", err
	case "delete":
		return "", app.Catalog.Delete(ctx, id)
	}
	return "", fmt.Errorf("unknown action %q", step.Action)
}

func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case pos.IsValidation(err):
		return kindValidation
	case pos.IsNotFound(err):
		return kindNotFound
	case errors.Is(err, pos.ErrEmptyCart):
		return kindEmptyCart
	}
	return ""
}

func stepArgs(step Step, id string) map[string]string {
	args := map[string]string{}
	if step.Item != "" {
		args["item"] = step.Item
		args["id"] = id
	}
	if step.Name != "" {
		args["name"] = step.Name
	}
	if step.Price != "" {
		args["price"] = step.Price
	}
	if step.Image != "" {
		args["image"] = step.Image
	}
	if step.Delta != 0 {
		args["delta"] = strconv.Itoa(step.Delta)
	}
	if len(args) == 0 {
		return nil
	}
	return args
}

func checkExpect(result *Result, i int, step Step, event TraceEvent) {
	want := "ok"
	if step.Expect != nil && step.Expect.Error != "" {
		want = step.Expect.Error
	}
	if event.Outcome != want {
		result.AddError(fmt.Sprintf("steps[%d] %s: expected outcome %s, got %s", i, step.Action, want, event.Outcome))
	}
	if step.Expect != nil && step.Expect.State != "" && event.State != step.Expect.State {
		result.AddError(fmt.Sprintf("steps[%d] %s: expected state %s, got %s", i, step.Action, step.Expect.State, event.State))
	}
}
