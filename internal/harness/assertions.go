package harness

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/tiffin/internal/pos"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("Assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion against the till and returns
// one message per failure.
func EvaluateAssertions(app *pos.App, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case "cart":
			err = assertCart(app, a)
		case "summary":
			err = assertSummary(app.Cart.Summary(), a)
		case "state":
			err = assertState(app, a)
		case "sales_count":
			err = assertSalesCount(app, a)
		case "last_sale":
			err = assertLastSale(app, a)
		case "menu_item":
			err = assertMenuItem(app, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func assertCart(app *pos.App, a Assertion) error {
	lines := app.Cart.Lines()
	actual := make([]string, len(lines))
	for i, l := range lines {
		actual[i] = fmt.Sprintf("%s x%d", l.Name, l.Qty)
	}
	expected := make([]string, len(a.Lines))
	for i, l := range a.Lines {
		expected[i] = fmt.Sprintf("%s x%d", l.Name, l.Qty)
	}

	if strings.Join(actual, ", ") != strings.Join(expected, ", ") {
		return &AssertionError{
			Type:     "cart",
			Expected: describeLines(expected),
			Actual:   describeLines(actual),
		}
	}
	return nil
}

func describeLines(lines []string) string {
	if len(lines) == 0 {
		return "empty cart"
	}
	return strings.Join(lines, ", ")
}

func assertSummary(sum pos.Summary, a Assertion) error {
	checks := []struct {
		field    string
		expected string
		actual   decimal.Decimal
	}{
		{"subtotal", a.Subtotal, sum.Subtotal},
		{"tax", a.Tax, sum.Tax},
		{"total", a.Total, sum.Total},
	}
	for _, c := range checks {
		if err := amountEqual(a.Type, c.field, c.expected, c.actual); err != nil {
			return err
		}
	}
	return nil
}

// amountEqual compares numerically, so "24" matches "24.00". An empty
// expectation is skipped.
func amountEqual(typ, field, expected string, actual decimal.Decimal) error {
	if expected == "" {
		return nil
	}
	want, err := decimal.NewFromString(expected)
	if err != nil {
		return fmt.Errorf("%s: %s %q is not a number", typ, field, expected)
	}
	if !want.Equal(actual) {
		return &AssertionError{
			Type:     typ,
			Expected: fmt.Sprintf("%s %s", field, want.String()),
			Actual:   fmt.Sprintf("%s %s", field, actual.String()),
		}
	}
	return nil
}

func assertState(app *pos.App, a Assertion) error {
	if got := app.Checkout.State().String(); got != a.State {
		return &AssertionError{Type: "state", Expected: a.State, Actual: got}
	}
	return nil
}

func assertSalesCount(app *pos.App, a Assertion) error {
	if got := app.Ledger.Len(); got != a.Count {
		return &AssertionError{
			Type:     "sales_count",
			Expected: fmt.Sprintf("%d sales", a.Count),
			Actual:   fmt.Sprintf("%d sales", got),
		}
	}
	return nil
}

func assertLastSale(app *pos.App, a Assertion) error {
	records := app.Ledger.Records()
	if len(records) == 0 {
		return &AssertionError{Type: "last_sale", Expected: "a recorded sale", Actual: "no sales"}
	}
	last := records[len(records)-1]

	if a.Customer != "" && last.Customer != a.Customer {
		return &AssertionError{
			Type:     "last_sale",
			Expected: fmt.Sprintf("customer %q", a.Customer),
			Actual:   fmt.Sprintf("customer %q", last.Customer),
		}
	}
	return assertSummary(pos.Summary{Subtotal: last.Subtotal, Tax: last.Tax, Total: last.Total}, a)
}

func assertMenuItem(app *pos.App, a Assertion) error {
	var found *pos.MenuItem
	for _, item := range app.Catalog.List("") {
		if item.Name == a.Name {
			item := item
			found = &item
			break
		}
	}

	switch {
	case a.Absent && found != nil:
		return &AssertionError{Type: "menu_item", Expected: fmt.Sprintf("no item %q", a.Name), Actual: "item " + found.ID}
	case a.Absent:
		return nil
	case found == nil:
		return &AssertionError{Type: "menu_item", Expected: fmt.Sprintf("item %q", a.Name), Actual: "not on the menu"}
	}
	return amountEqual("menu_item", "price", a.Price, found.Price)
}
