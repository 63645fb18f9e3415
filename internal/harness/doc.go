// Package harness runs scripted till sessions against a fresh in-memory
// point-of-sale and checks the outcome.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: tea_then_pay
//	description: "Two teas for a walk-in customer"
//	menu: menus/tiffin.cue     # optional; relative to the scenario file
//	tax_rate: "0.05"            # optional
//	steps:
//	  - action: add
//	    item: Tea
//	  - action: set_qty
//	    item: Tea
//	    delta: 1
//	  - action: press
//	    expect:
//	      state: awaiting_payment
//	  - action: press
//	assertions:
//	  - type: sales_count
//	    count: 1
//	  - type: last_sale
//	    customer: Walk-in
//	    total: "24"
//
// Items are referenced by menu name. A name that is not on the menu is used
// as a raw item ID, which lets scenarios exercise the unknown-item paths.
//
// # Step Actions
//
//   - add, set_qty, remove, clear: cart operations
//   - customer, press, cancel: checkout operations
//   - create, update, delete: menu operations
//
// A step may carry an expect clause naming the error kind it should fail
// with (validation, not_found, empty_cart) and the checkout state after it.
//
// # Assertion Types
//
//   - cart: the cart lines, by name and quantity, in order
//   - summary: subtotal, tax and total of the cart
//   - state: the checkout state
//   - sales_count: number of recorded sales
//   - last_sale: customer and total of the most recent sale
//   - menu_item: an item's price, or its absence
//
// # Deterministic Testing
//
// Every scenario runs on its own store.Memory with a stepping clock and a
// sequential ID generator, so traces are identical across runs and can be
// compared against golden files with RunWithGolden.
package harness
